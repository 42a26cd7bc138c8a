package enrollment

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/ManuelReschke/tutorsite/app/models"
)

// fakeRepository serialises transactions with a mutex, which is what the
// class row lock gives the real repository.
type fakeRepository struct {
	txMu        sync.Mutex
	classes     map[uint]*models.Class
	enrollments []*models.ClassEnrollment
	createErr   error
}

func newFakeRepository(classes ...*models.Class) *fakeRepository {
	m := make(map[uint]*models.Class, len(classes))
	for _, c := range classes {
		m[c.ID] = c
	}
	return &fakeRepository{classes: m}
}

func (f *fakeRepository) Transaction(_ context.Context, fn func(tx Repository) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	snapshot := make([]*models.ClassEnrollment, len(f.enrollments))
	for i, e := range f.enrollments {
		cp := *e
		snapshot[i] = &cp
	}
	if err := fn(f); err != nil {
		f.enrollments = snapshot
		return err
	}
	return nil
}

func (f *fakeRepository) LockClass(_ context.Context, classID uint) (*models.Class, error) {
	c, ok := f.classes[classID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepository) FindEnrollment(_ context.Context, classID, userID uint) (*models.ClassEnrollment, error) {
	for _, e := range f.enrollments {
		if e.ClassID == classID && e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) CountConfirmed(_ context.Context, classID uint) (int64, error) {
	var n int64
	for _, e := range f.enrollments {
		if e.ClassID == classID && e.PaymentStatus == models.PAYMENT_STATUS_CONFIRMED {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepository) CreateEnrollment(_ context.Context, e *models.ClassEnrollment) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.enrollments {
		if existing.ClassID == e.ClassID && existing.UserID == e.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	e.ID = uint(len(f.enrollments) + 1)
	cp := *e
	f.enrollments = append(f.enrollments, &cp)
	return nil
}

func (f *fakeRepository) GetEnrollment(_ context.Context, id uint) (*models.ClassEnrollment, error) {
	for _, e := range f.enrollments {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) LockEnrollment(ctx context.Context, id uint) (*models.ClassEnrollment, error) {
	return f.GetEnrollment(ctx, id)
}

func (f *fakeRepository) UpdatePaymentStatus(_ context.Context, id uint, status string) error {
	for _, e := range f.enrollments {
		if e.ID == id {
			e.PaymentStatus = status
		}
	}
	return nil
}

// seed inserts an enrollment outside the service.
func (f *fakeRepository) seed(classID, userID uint, status string) *models.ClassEnrollment {
	e := &models.ClassEnrollment{
		ID:            uint(len(f.enrollments) + 1),
		ClassID:       classID,
		UserID:        userID,
		PaymentMethod: models.DefaultPaymentMethod,
		PaymentStatus: status,
	}
	f.enrollments = append(f.enrollments, e)
	return e
}

type recordingNotifier struct {
	mu        sync.Mutex
	requested int
	confirmed []string
}

func (n *recordingNotifier) EnrollmentRequested(*models.Class, *models.ClassEnrollment, string) {
	n.mu.Lock()
	n.requested++
	n.mu.Unlock()
}

func (n *recordingNotifier) EnrollmentConfirmed(_ *models.Class, email string) {
	n.mu.Lock()
	n.confirmed = append(n.confirmed, email)
	n.mu.Unlock()
}
