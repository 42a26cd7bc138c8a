package controllers

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/tutorsite/app/models"
	"github.com/ManuelReschke/tutorsite/app/repository"
	"github.com/ManuelReschke/tutorsite/internal/pkg/billing"
	"github.com/ManuelReschke/tutorsite/internal/pkg/cache"
	"github.com/ManuelReschke/tutorsite/internal/pkg/downloads"
	"github.com/ManuelReschke/tutorsite/internal/pkg/enrollment"
	"github.com/ManuelReschke/tutorsite/internal/pkg/middleware"
	"github.com/ManuelReschke/tutorsite/internal/pkg/statistics"
	"github.com/ManuelReschke/tutorsite/internal/pkg/usercontext"
)

const (
	testWebhookSecret = "whsec_controller_test"
	testUserHeader    = "X-Test-User"
)

// memDB is an in-memory stand-in for the database behind every repository.
type memDB struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	nextID uint

	users        map[uint]*models.User
	profiles     map[uint]*models.Profile
	products     map[uint]*models.Product
	categories   []models.Category
	classes      map[uint]*models.Class
	enrollments  map[uint]*models.ClassEnrollment
	orders       map[uint]*models.Order
	purchases    map[uint]*models.Purchase
	downloads    []models.Download
	messages     map[uint]*models.Message
	testimonials map[uint]*models.Testimonial
	events       map[string]*models.PaymentWebhookEvent
	roleCalls    int
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[uint]*models.User{},
		profiles:     map[uint]*models.Profile{},
		products:     map[uint]*models.Product{},
		classes:      map[uint]*models.Class{},
		enrollments:  map[uint]*models.ClassEnrollment{},
		orders:       map[uint]*models.Order{},
		purchases:    map[uint]*models.Purchase{},
		messages:     map[uint]*models.Message{},
		testimonials: map[uint]*models.Testimonial{},
		events:       map[string]*models.PaymentWebhookEvent{},
	}
}

func (m *memDB) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memDB) addUser(email, role string) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.users[id] = &models.User{ID: id, Email: email, Status: models.STATUS_ACTIVE}
	m.profiles[id] = &models.Profile{ID: m.id(), UserID: id, Email: email, Role: role}
	return id
}

func (m *memDB) addProduct(p models.Product) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.products[p.ID] = &p
	return p.ID
}

func (m *memDB) addClass(c models.Class) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	m.classes[c.ID] = &c
	return c.ID
}

func (m *memDB) addPurchase(userID, productID uint) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.purchases[id] = &models.Purchase{ID: id, UserID: userID, ProductID: productID, CreatedAt: time.Now()}
	return id
}

func (m *memDB) count(fn func() int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}

// ---------------------------------------------------------------- repository fakes

type memUserRepo struct{ db *memDB }

func (r memUserRepo) CreateWithProfile(_ context.Context, user *models.User, profile *models.Profile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = r.db.id()
	r.db.users[user.ID] = user
	profile.ID = r.db.id()
	profile.UserID = user.ID
	r.db.profiles[user.ID] = profile
	user.Profile = profile
	return nil
}

func (r memUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	cp.Profile = r.db.profiles[id]
	return &cp, nil
}

func (r memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			cp.Profile = r.db.profiles[u.ID]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memUserRepo) TouchLastLogin(context.Context, uint) error { return nil }

func (r memUserRepo) GetProviderAccount(context.Context, string, string) (*models.ProviderAccount, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r memUserRepo) CreateProviderAccount(context.Context, *models.ProviderAccount) error {
	return nil
}

func (r memUserRepo) UpdateProviderAccount(context.Context, *models.ProviderAccount) error {
	return nil
}

type memProfileRepo struct{ db *memDB }

func (r memProfileRepo) GetByUserID(_ context.Context, userID uint) (*models.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memProfileRepo) GetRole(_ context.Context, userID uint) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.roleCalls++
	p, ok := r.db.profiles[userID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return p.Role, nil
}

func (r memProfileRepo) Update(_ context.Context, profile *models.Profile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *profile
	r.db.profiles[profile.UserID] = &cp
	return nil
}

type memProductRepo struct{ db *memDB }

func sortedProducts(in map[uint]*models.Product, keep func(*models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, p := range in {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memProductRepo) ListActive(_ context.Context, f repository.ProductFilter) ([]models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return sortedProducts(r.db.products, func(p *models.Product) bool {
		if !p.IsActive {
			return false
		}
		if f.ExamBoard != "" && p.ExamBoard != f.ExamBoard {
			return false
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Query)) {
			return false
		}
		return true
	}), nil
}

func (r memProductRepo) ListAll(context.Context) ([]models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return sortedProducts(r.db.products, func(*models.Product) bool { return true }), nil
}

func (r memProductRepo) GetActiveBySlug(_ context.Context, slug string) (*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.products {
		if p.Slug == slug && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memProductRepo) GetByID(_ context.Context, id uint) (*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memProductRepo) Create(_ context.Context, p *models.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.products {
		if existing.Slug == p.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	p.ID = r.db.id()
	cp := *p
	r.db.products[p.ID] = &cp
	return nil
}

func (r memProductRepo) Update(_ context.Context, p *models.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *p
	r.db.products[p.ID] = &cp
	return nil
}

func (r memProductRepo) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.db.products, id)
	return nil
}

func (r memProductRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.SlugExistsExceptID(ctx, slug, 0)
}

func (r memProductRepo) SlugExistsExceptID(_ context.Context, slug string, id uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.products {
		if p.Slug == slug && p.ID != id {
			return true, nil
		}
	}
	return false, nil
}

func (r memProductRepo) ListCategories(context.Context) ([]models.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]models.Category(nil), r.db.categories...), nil
}

type memClassRepo struct{ db *memDB }

func (r memClassRepo) confirmed(classID uint) int64 {
	var n int64
	for _, e := range r.db.enrollments {
		if e.ClassID == classID && e.PaymentStatus == models.PAYMENT_STATUS_CONFIRMED {
			n++
		}
	}
	return n
}

func (r memClassRepo) ListActiveWithAvailability(context.Context) ([]repository.ClassWithAvailability, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []repository.ClassWithAvailability{}
	for _, c := range r.db.classes {
		if c.IsActive() {
			out = append(out, repository.NewClassWithAvailability(*c, r.confirmed(c.ID)))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memClassRepo) ListAll(context.Context) ([]models.Class, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Class{}
	for _, c := range r.db.classes {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memClassRepo) GetByID(_ context.Context, id uint) (*models.Class, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.classes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memClassRepo) Create(_ context.Context, c *models.Class) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c.ID = r.db.id()
	cp := *c
	r.db.classes[c.ID] = &cp
	return nil
}

func (r memClassRepo) Update(_ context.Context, c *models.Class) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *c
	r.db.classes[c.ID] = &cp
	return nil
}

func (r memClassRepo) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.classes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.db.classes, id)
	return nil
}

type memEnrollmentRepo struct{ db *memDB }

func (r memEnrollmentRepo) list(keep func(*models.ClassEnrollment) bool) []models.ClassEnrollment {
	out := []models.ClassEnrollment{}
	for _, e := range r.db.enrollments {
		if keep(e) {
			cp := *e
			cp.Class = r.db.classes[e.ClassID]
			cp.Profile = r.db.profiles[e.UserID]
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memEnrollmentRepo) ListByUser(_ context.Context, userID uint) ([]models.ClassEnrollment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.list(func(e *models.ClassEnrollment) bool { return e.UserID == userID }), nil
}

func (r memEnrollmentRepo) ListAll(context.Context) ([]models.ClassEnrollment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.list(func(*models.ClassEnrollment) bool { return true }), nil
}

func (r memEnrollmentRepo) GetByID(_ context.Context, id uint) (*models.ClassEnrollment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	found := r.list(func(e *models.ClassEnrollment) bool { return e.ID == id })
	if len(found) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &found[0], nil
}

func (r memEnrollmentRepo) CountByUser(_ context.Context, userID uint) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return int64(len(r.list(func(e *models.ClassEnrollment) bool { return e.UserID == userID }))), nil
}

// memGate implements enrollment.Repository. Transactions are serialized.
type memGate struct {
	db *memDB
}

func (g memGate) Transaction(_ context.Context, fn func(tx enrollment.Repository) error) error {
	g.db.txMu.Lock()
	defer g.db.txMu.Unlock()
	return fn(g)
}

func (g memGate) LockClass(_ context.Context, classID uint) (*models.Class, error) {
	g.db.mu.Lock()
	defer g.db.mu.Unlock()
	c, ok := g.db.classes[classID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (g memGate) FindEnrollment(_ context.Context, classID, userID uint) (*models.ClassEnrollment, error) {
	g.db.mu.Lock()
	defer g.db.mu.Unlock()
	for _, e := range g.db.enrollments {
		if e.ClassID == classID && e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (g memGate) CountConfirmed(_ context.Context, classID uint) (int64, error) {
	g.db.mu.Lock()
	defer g.db.mu.Unlock()
	return memClassRepo{db: g.db}.confirmed(classID), nil
}

func (g memGate) CreateEnrollment(_ context.Context, e *models.ClassEnrollment) error {
	g.db.mu.Lock()
	defer g.db.mu.Unlock()
	e.ID = g.db.id()
	cp := *e
	g.db.enrollments[e.ID] = &cp
	return nil
}

func (g memGate) GetEnrollment(_ context.Context, id uint) (*models.ClassEnrollment, error) {
	g.db.mu.Lock()
	defer g.db.mu.Unlock()
	e, ok := g.db.enrollments[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (g memGate) LockEnrollment(ctx context.Context, id uint) (*models.ClassEnrollment, error) {
	return g.GetEnrollment(ctx, id)
}

func (g memGate) UpdatePaymentStatus(_ context.Context, id uint, status string) error {
	g.db.mu.Lock()
	defer g.db.mu.Unlock()
	g.db.enrollments[id].PaymentStatus = status
	return nil
}

type memOrderRepo struct{ db *memDB }

func (r memOrderRepo) ListOrders(context.Context) ([]models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.db.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memOrderRepo) ListPurchasesByUser(_ context.Context, userID uint, limit int) ([]models.Purchase, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Purchase{}
	for _, p := range r.db.purchases {
		if p.UserID == userID {
			cp := *p
			cp.Product = r.db.products[p.ProductID]
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memOrderRepo) CountPurchasesByUser(ctx context.Context, userID uint) (int64, error) {
	list, err := r.ListPurchasesByUser(ctx, userID, 0)
	return int64(len(list)), err
}

func (r memOrderRepo) GetPurchaseForUser(_ context.Context, purchaseID, userID uint) (*models.Purchase, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.purchases[purchaseID]
	if !ok || p.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	if prod, ok := r.db.products[p.ProductID]; ok {
		pc := *prod
		cp.Product = &pc
	}
	return &cp, nil
}

func (r memOrderRepo) HasPurchased(_ context.Context, userID, productID uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.purchases {
		if p.UserID == userID && p.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r memOrderRepo) RecordDownload(_ context.Context, d *models.Download) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.downloads = append(r.db.downloads, *d)
	return nil
}

type memMessageRepo struct{ db *memDB }

func (r memMessageRepo) Create(_ context.Context, m *models.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m.ID = r.db.id()
	cp := *m
	r.db.messages[m.ID] = &cp
	return nil
}

func (r memMessageRepo) List(_ context.Context, f repository.MessageFilter) ([]models.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Message{}
	for _, m := range r.db.messages {
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if f.UnreadOnly && m.IsRead {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memMessageRepo) SetRead(_ context.Context, id uint, isRead bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.messages[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.IsRead = isRead
	return nil
}

func (r memMessageRepo) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.messages[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.db.messages, id)
	return nil
}

type memTestimonialRepo struct{ db *memDB }

func (r memTestimonialRepo) ListActive(context.Context) ([]models.Testimonial, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Testimonial{}
	for _, t := range r.db.testimonials {
		if t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r memTestimonialRepo) ListAll(context.Context) ([]models.Testimonial, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Testimonial{}
	for _, t := range r.db.testimonials {
		out = append(out, *t)
	}
	return out, nil
}

func (r memTestimonialRepo) GetByID(_ context.Context, id uint) (*models.Testimonial, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.testimonials[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memTestimonialRepo) Create(_ context.Context, t *models.Testimonial) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t.ID = r.db.id()
	cp := *t
	r.db.testimonials[t.ID] = &cp
	return nil
}

func (r memTestimonialRepo) Update(_ context.Context, t *models.Testimonial) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *t
	r.db.testimonials[t.ID] = &cp
	return nil
}

func (r memTestimonialRepo) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.testimonials[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.db.testimonials, id)
	return nil
}

type memStatsRepo struct{ db *memDB }

func (r memStatsRepo) AdminCounts(context.Context) (*repository.AdminCounts, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	counts := &repository.AdminCounts{
		Products:     int64(len(r.db.products)),
		Classes:      int64(len(r.db.classes)),
		Testimonials: int64(len(r.db.testimonials)),
		Messages:     int64(len(r.db.messages)),
		Enrollments:  int64(len(r.db.enrollments)),
		Orders:       int64(len(r.db.orders)),
	}
	for _, m := range r.db.messages {
		if !m.IsRead {
			counts.UnreadMessages++
		}
	}
	for _, e := range r.db.enrollments {
		if e.PaymentStatus == models.PAYMENT_STATUS_PENDING {
			counts.PendingEnrollments++
		}
	}
	return counts, nil
}

// memBilling implements billing.Repository.
type memBilling struct{ db *memDB }

func (b memBilling) CreateWebhookEventIfNotExists(_ context.Context, ev *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	key := ev.Provider + "|" + ev.EventKey
	if stored, ok := b.db.events[key]; ok {
		cp := *stored
		return false, &cp, nil
	}
	ev.ID = b.db.id()
	cp := *ev
	b.db.events[key] = &cp
	return true, ev, nil
}

func (b memBilling) MarkWebhookProcessed(_ context.Context, id uint, processingError string) error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, ev := range b.db.events {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
		}
	}
	return nil
}

func (b memBilling) ExistingProductIDs(_ context.Context, ids []uint) ([]uint, error) {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	var out []uint
	for _, id := range ids {
		if _, ok := b.db.products[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (b memBilling) CreateOrderWithPurchases(_ context.Context, order *models.Order, productIDs []uint) (int, error) {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	var existing *models.Order
	for _, o := range b.db.orders {
		if o.LSOrderID == order.LSOrderID {
			existing = o
		}
	}
	if existing != nil {
		*order = *existing
	} else {
		order.ID = b.db.id()
		cp := *order
		b.db.orders[order.ID] = &cp
	}

	created := 0
	for _, pid := range productIDs {
		dup := false
		for _, p := range b.db.purchases {
			if p.UserID == order.UserID && p.ProductID == pid {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		id := b.db.id()
		orderID := order.ID
		b.db.purchases[id] = &models.Purchase{ID: id, UserID: order.UserID, ProductID: pid, OrderID: &orderID}
		created++
	}
	return created, nil
}

func (b memBilling) UpdateOrderStatus(_ context.Context, lsOrderID, status string) (int64, error) {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	var n int64
	for _, o := range b.db.orders {
		if o.LSOrderID == lsOrderID {
			o.Status = status
			n++
		}
	}
	return n, nil
}

type stubPresigner struct{}

func (stubPresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: fmt.Sprintf("https://%s.s3.test/%s?X-Amz-Signature=stub", *in.Bucket, *in.Key)}, nil
}

// ---------------------------------------------------------------- app wiring

func newTestDeps(db *memDB) *Dependencies {
	repos := &repository.Repositories{
		User:        memUserRepo{db: db},
		Profile:     memProfileRepo{db: db},
		Product:     memProductRepo{db: db},
		Class:       memClassRepo{db: db},
		Enrollment:  memEnrollmentRepo{db: db},
		Order:       memOrderRepo{db: db},
		Message:     memMessageRepo{db: db},
		Testimonial: memTestimonialRepo{db: db},
		Stats:       memStatsRepo{db: db},
	}
	return &Dependencies{
		Repos:      repos,
		Cache:      cache.NewMemoryStore(),
		Enrollment: enrollment.NewService(memGate{db: db}, nil),
		Billing:    billing.NewService(memBilling{db: db}, testWebhookSecret),
		Stats:      statistics.NewService(repos.Stats, nil),
		Downloads:  downloads.NewClientWithPresigner(stubPresigner{}, "resources", time.Minute),
	}
}

// testLogin stands in for the session middleware: X-Test-User carries the
// logged in user id.
func testLogin(c *fiber.Ctx) error {
	if raw := c.Get(testUserHeader); raw != "" {
		id, _ := strconv.ParseUint(raw, 10, 64)
		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:     uint(id),
			Email:      fmt.Sprintf("user%d@example.com", id),
			IsLoggedIn: true,
			AuthMethod: usercontext.AuthMethodSession,
		})
	}
	return c.Next()
}

func newTestApp(deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(testLogin)

	catalog := NewCatalogController(deps)
	intake := NewIntakeController(deps)
	account := NewAccountController(deps)
	webhooks := NewWebhookController(deps)
	InitializeAdminController(deps)

	api := app.Group("/api")
	api.Get("/products", catalog.HandleListProducts)
	api.Get("/products/:slug", catalog.HandleGetProduct)
	api.Get("/classes", catalog.HandleListClasses)
	api.Post("/contact", intake.HandleContact)
	api.Post("/intro-session", intake.HandleIntroSession)
	api.Post("/webhooks/lemonsqueezy", webhooks.HandleLemonSqueezy)

	auth := middleware.RequireAPISessionAuth
	api.Get("/dashboard", auth, account.HandleDashboard)
	api.Post("/me/classes/enrol-request", auth, account.HandleEnrolRequest)
	api.Get("/me/purchases/:purchaseId/download", auth, account.HandleDownload)

	admin := api.Group("/admin", middleware.RequireAdmin(deps.Repos.Profile))
	admin.Get("/stats", HandleAdminStats)
	admin.Get("/products", HandleAdminProducts)
	admin.Post("/products", HandleAdminProductCreate)
	admin.Put("/products/:id", HandleAdminProductUpdate)
	admin.Delete("/products/:id", HandleAdminProductDelete)
	admin.Post("/classes", HandleAdminClassCreate)
	admin.Post("/testimonials", HandleAdminTestimonialCreate)
	admin.Get("/messages", HandleAdminMessages)
	admin.Patch("/messages/:id", HandleAdminMessageUpdate)
	admin.Get("/class-enrollments", HandleAdminEnrollments)
	admin.Patch("/class-enrollments/:id/confirm", HandleAdminEnrollmentConfirm)
	admin.Get("/orders", HandleAdminOrders)
	return app
}
