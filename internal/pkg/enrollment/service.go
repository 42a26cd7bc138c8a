// Package enrollment implements the class seat request flow. The confirmed
// count check and the insert run in one transaction holding a row lock on
// the class, so two requests near the limit cannot both pass.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/tutorsite/app/models"
	"github.com/ManuelReschke/tutorsite/internal/pkg/metrics"
)

var (
	ErrClassNotAvailable  = errors.New("class not available")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this class")
	ErrClassFull          = errors.New("class is full")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrInvalidStatus      = errors.New("invalid payment status")
)

// Notifier receives enrollment events after commit.
type Notifier interface {
	EnrollmentRequested(class *models.Class, enrollment *models.ClassEnrollment, email string)
	EnrollmentConfirmed(class *models.Class, email string)
}

// Request is one user's seat request.
type Request struct {
	ClassID       uint
	UserID        uint
	Email         string
	PaymentMethod string
}

// Service guards class capacity.
type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// NewServiceFromDB creates an enrollment service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, notifier Notifier) *Service {
	return NewService(NewRepository(db), notifier)
}

// Request accepts a new pending enrollment when the class is active, the user
// holds no enrollment for it and confirmed seats are below max_students.
func (s *Service) Request(ctx context.Context, req Request) (*models.ClassEnrollment, error) {
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = models.DefaultPaymentMethod
	}

	var (
		class   *models.Class
		created *models.ClassEnrollment
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var err error
		class, err = tx.LockClass(ctx, req.ClassID)
		if err != nil {
			return fmt.Errorf("load class: %w", err)
		}
		if !class.IsActive() {
			return ErrClassNotAvailable
		}

		existing, err := tx.FindEnrollment(ctx, req.ClassID, req.UserID)
		if err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if existing != nil {
			return ErrAlreadyEnrolled
		}

		confirmed, err := tx.CountConfirmed(ctx, req.ClassID)
		if err != nil {
			return fmt.Errorf("count enrollments: %w", err)
		}
		if confirmed >= int64(class.MaxStudents) {
			return ErrClassFull
		}

		e := &models.ClassEnrollment{
			ClassID:       req.ClassID,
			UserID:        req.UserID,
			PaymentMethod: method,
			PaymentStatus: models.PAYMENT_STATUS_PENDING,
		}
		if err := tx.CreateEnrollment(ctx, e); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyEnrolled
			}
			return fmt.Errorf("create enrollment: %w", err)
		}
		created = e
		return nil
	})

	metrics.EnrollmentRequestsTotal.WithLabelValues(decision(err)).Inc()
	if err != nil {
		return nil, err
	}

	log.Infof("enrollment: user %d requested class %d (enrollment #%d)", req.UserID, req.ClassID, created.ID)
	if s.notifier != nil {
		s.notifier.EnrollmentRequested(class, created, req.Email)
	}
	return created, nil
}

// SetPaymentStatus changes an enrollment's payment status. Moving an
// enrollment into confirmed re-checks capacity under the class lock.
// email, when set, receives the confirmation notice.
func (s *Service) SetPaymentStatus(ctx context.Context, enrollmentID uint, status, email string) (*models.ClassEnrollment, error) {
	if !models.IsValidPaymentStatus(status) {
		return nil, ErrInvalidStatus
	}

	var (
		class   *models.Class
		updated *models.ClassEnrollment
		changed bool
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		current, err := tx.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			return fmt.Errorf("load enrollment: %w", err)
		}
		if current == nil {
			return ErrEnrollmentNotFound
		}
		// Class first, then enrollment: the same order Request takes.
		class, err = tx.LockClass(ctx, current.ClassID)
		if err != nil {
			return fmt.Errorf("load class: %w", err)
		}
		e, err := tx.LockEnrollment(ctx, enrollmentID)
		if err != nil {
			return fmt.Errorf("load enrollment: %w", err)
		}
		if e == nil {
			return ErrEnrollmentNotFound
		}

		if status == models.PAYMENT_STATUS_CONFIRMED && e.PaymentStatus != models.PAYMENT_STATUS_CONFIRMED {
			if class == nil {
				return ErrClassNotAvailable
			}
			confirmed, err := tx.CountConfirmed(ctx, e.ClassID)
			if err != nil {
				return fmt.Errorf("count enrollments: %w", err)
			}
			if confirmed >= int64(class.MaxStudents) {
				return ErrClassFull
			}
		}

		if e.PaymentStatus != status {
			if err := tx.UpdatePaymentStatus(ctx, e.ID, status); err != nil {
				return fmt.Errorf("update enrollment: %w", err)
			}
			changed = true
			e.PaymentStatus = status
		}
		updated = e
		return nil
	})

	result := "ok"
	switch {
	case errors.Is(err, ErrClassFull):
		result = "full"
	case err != nil:
		result = "error"
	}
	metrics.EnrollmentStatusChangesTotal.WithLabelValues(status, result).Inc()
	if err != nil {
		return nil, err
	}

	if changed && status == models.PAYMENT_STATUS_CONFIRMED && s.notifier != nil && class != nil {
		s.notifier.EnrollmentConfirmed(class, email)
	}
	return updated, nil
}

func decision(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrClassNotAvailable):
		return "not_available"
	case errors.Is(err, ErrAlreadyEnrolled):
		return "already_enrolled"
	case errors.Is(err, ErrClassFull):
		return "full"
	default:
		return "error"
	}
}
