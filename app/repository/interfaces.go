package repository

import (
	"context"

	"github.com/ManuelReschke/tutorsite/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user and login identity operations
type UserRepository interface {
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uint) error
	GetProviderAccount(ctx context.Context, provider, providerUserID string) (*models.ProviderAccount, error)
	CreateProviderAccount(ctx context.Context, account *models.ProviderAccount) error
	UpdateProviderAccount(ctx context.Context, account *models.ProviderAccount) error
}

// ProfileRepository defines the interface for profile operations
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	GetRole(ctx context.Context, userID uint) (string, error)
	Update(ctx context.Context, profile *models.Profile) error
}

// ProductFilter narrows the public product listing
type ProductFilter struct {
	ExamBoard  string
	Level      string
	Tier       string
	Year       string
	CategoryID uint
	Query      string
}

// ProductRepository defines the interface for catalogue operations
type ProductRepository interface {
	ListActive(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	GetActiveBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	SlugExistsExceptID(ctx context.Context, slug string, id uint) (bool, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// ClassWithAvailability is a class plus its confirmed seat count
type ClassWithAvailability struct {
	models.Class
	EnrollmentCount int64 `json:"enrollment_count"`
	SpotsLeft       int64 `json:"spots_left"`
}

// ClassRepository defines the interface for group class operations
type ClassRepository interface {
	ListActiveWithAvailability(ctx context.Context) ([]ClassWithAvailability, error)
	ListAll(ctx context.Context) ([]models.Class, error)
	GetByID(ctx context.Context, id uint) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id uint) error
}

// EnrollmentRepository defines read operations on class enrollments. Writes
// go through the enrollment service which owns the capacity gate.
type EnrollmentRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.ClassEnrollment, error)
	ListAll(ctx context.Context) ([]models.ClassEnrollment, error)
	GetByID(ctx context.Context, id uint) (*models.ClassEnrollment, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

// OrderRepository defines the interface for orders, purchases and downloads
type OrderRepository interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListPurchasesByUser(ctx context.Context, userID uint, limit int) ([]models.Purchase, error)
	CountPurchasesByUser(ctx context.Context, userID uint) (int64, error)
	GetPurchaseForUser(ctx context.Context, purchaseID, userID uint) (*models.Purchase, error)
	HasPurchased(ctx context.Context, userID, productID uint) (bool, error)
	RecordDownload(ctx context.Context, download *models.Download) error
}

// MessageFilter narrows the admin message list
type MessageFilter struct {
	Type       string
	UnreadOnly bool
}

// MessageRepository defines the interface for contact and intro session messages
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	List(ctx context.Context, filter MessageFilter) ([]models.Message, error)
	SetRead(ctx context.Context, id uint, isRead bool) error
	Delete(ctx context.Context, id uint) error
}

// TestimonialRepository defines the interface for testimonial operations
type TestimonialRepository interface {
	ListActive(ctx context.Context) ([]models.Testimonial, error)
	ListAll(ctx context.Context) ([]models.Testimonial, error)
	GetByID(ctx context.Context, id uint) (*models.Testimonial, error)
	Create(ctx context.Context, testimonial *models.Testimonial) error
	Update(ctx context.Context, testimonial *models.Testimonial) error
	Delete(ctx context.Context, id uint) error
}

// AdminCounts holds the numbers shown on the admin dashboard
type AdminCounts struct {
	Products           int64 `json:"products"`
	ActiveProducts     int64 `json:"active_products"`
	Classes            int64 `json:"classes"`
	Testimonials       int64 `json:"testimonials"`
	Messages           int64 `json:"messages"`
	UnreadMessages     int64 `json:"unread_messages"`
	Enrollments        int64 `json:"enrollments"`
	PendingEnrollments int64 `json:"pending_enrollments"`
	Orders             int64 `json:"orders"`
}

// StatsRepository defines aggregate count queries
type StatsRepository interface {
	AdminCounts(ctx context.Context) (*AdminCounts, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User        UserRepository
	Profile     ProfileRepository
	Product     ProductRepository
	Class       ClassRepository
	Enrollment  EnrollmentRepository
	Order       OrderRepository
	Message     MessageRepository
	Testimonial TestimonialRepository
	Stats       StatsRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Profile:     NewProfileRepository(db),
		Product:     NewProductRepository(db),
		Class:       NewClassRepository(db),
		Enrollment:  NewEnrollmentRepository(db),
		Order:       NewOrderRepository(db),
		Message:     NewMessageRepository(db),
		Testimonial: NewTestimonialRepository(db),
		Stats:       NewStatsRepository(db),
	}
}
