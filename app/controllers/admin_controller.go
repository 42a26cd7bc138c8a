package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/tutorsite/app/models"
	"github.com/ManuelReschke/tutorsite/app/repository"
	"github.com/ManuelReschke/tutorsite/internal/pkg/enrollment"
	"github.com/ManuelReschke/tutorsite/internal/pkg/slug"
)

// AdminController handles the back office API. The router mounts it behind
// middleware.RequireAdmin, so handlers assume an admin caller.
type AdminController struct {
	deps *Dependencies
}

// NewAdminController creates a new admin controller
func NewAdminController(deps *Dependencies) *AdminController {
	return &AdminController{deps: deps}
}

func (ac *AdminController) repos() *repository.Repositories {
	return ac.deps.Repos
}

// HandleStats returns the dashboard counters
func (ac *AdminController) HandleStats(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	counts, err := ac.deps.Stats.AdminCounts(ctx)
	if err != nil {
		return internalError(c, "admin stats", err)
	}
	return c.JSON(counts)
}

// ---------------------------------------------------------------- products

type productRequest struct {
	Title            *string  `json:"title" validate:"omitempty,max=255"`
	Slug             *string  `json:"slug" validate:"omitempty,max=180"`
	GenerateSlug     bool     `json:"generate_slug"`
	Description      *string  `json:"description"`
	ShortDescription *string  `json:"short_description" validate:"omitempty,max=500"`
	CategoryID       *uint    `json:"category_id"`
	ExamBoard        *string  `json:"exam_board" validate:"omitempty,max=50"`
	Level            *string  `json:"level" validate:"omitempty,max=50"`
	Tier             *string  `json:"tier" validate:"omitempty,max=50"`
	Year             *string  `json:"year" validate:"omitempty,max=10"`
	Price            *float64 `json:"price" validate:"omitempty,gte=0"`
	LemonSqueezyID   *string  `json:"lemonsqueezy_id" validate:"omitempty,max=100"`
	FileURL          *string  `json:"file_url" validate:"omitempty,max=1024"`
	ThumbnailURL     *string  `json:"thumbnail_url" validate:"omitempty,max=1024"`
	IsActive         *bool    `json:"is_active"`
}

func (r *productRequest) apply(p *models.Product) {
	if r.Title != nil {
		p.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.ShortDescription != nil {
		p.ShortDescription = *r.ShortDescription
	}
	if r.CategoryID != nil {
		if *r.CategoryID == 0 {
			p.CategoryID = nil
		} else {
			id := *r.CategoryID
			p.CategoryID = &id
		}
	}
	if r.ExamBoard != nil {
		p.ExamBoard = trimmed(r.ExamBoard)
	}
	if r.Level != nil {
		p.Level = trimmed(r.Level)
	}
	if r.Tier != nil {
		p.Tier = trimmed(r.Tier)
	}
	if r.Year != nil {
		p.Year = trimmed(r.Year)
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.LemonSqueezyID != nil {
		p.LemonSqueezyID = trimmed(r.LemonSqueezyID)
	}
	if r.FileURL != nil {
		p.FileURL = trimmed(r.FileURL)
	}
	if r.ThumbnailURL != nil {
		p.ThumbnailURL = trimmed(r.ThumbnailURL)
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

// HandleListProducts lists every product including inactive ones
func (ac *AdminController) HandleListProducts(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	products, err := ac.repos().Product.ListAll(ctx)
	if err != nil {
		return internalError(c, "list products", err)
	}
	return c.JSON(products)
}

// HandleCreateProduct creates a product. The slug is taken from the request
// or, with generate_slug, derived from the title.
func (ac *AdminController) HandleCreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	if trimmed(req.Title) == "" {
		return badRequest(c, "title is required")
	}
	if req.Price == nil {
		return badRequest(c, "price is required")
	}
	if trimmed(req.Slug) == "" && !req.GenerateSlug {
		return badRequest(c, "slug is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	product := &models.Product{IsActive: true}
	req.apply(product)

	productSlug, status, err := ac.resolveSlug(ctx, &req, product.Title, 0)
	if err != nil {
		return errorResponse(c, status, statusCode(status), err.Error())
	}
	product.Slug = productSlug

	if err := ac.repos().Product.Create(ctx, product); err != nil {
		return repoError(c, "product", err)
	}
	ac.deps.invalidateCatalog(ctx)
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct changes the fields present in the body
func (ac *AdminController) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req productRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	if req.Title != nil && trimmed(req.Title) == "" {
		return badRequest(c, "title must not be empty")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := ac.repos().Product.GetByID(ctx, id)
	if err != nil {
		return repoError(c, "product", err)
	}
	req.apply(product)

	if req.Slug != nil || req.GenerateSlug {
		productSlug, status, err := ac.resolveSlug(ctx, &req, product.Title, product.ID)
		if err != nil {
			return errorResponse(c, status, statusCode(status), err.Error())
		}
		product.Slug = productSlug
	}

	product.Category = nil
	if err := ac.repos().Product.Update(ctx, product); err != nil {
		return repoError(c, "product", err)
	}
	ac.deps.invalidateCatalog(ctx)
	return c.JSON(product)
}

// resolveSlug normalizes a requested slug and checks it is free, or derives
// a free one from the title. exceptID excludes the product being updated.
func (ac *AdminController) resolveSlug(ctx context.Context, req *productRequest, title string, exceptID uint) (string, int, error) {
	exists := func(ctx context.Context, s string) (bool, error) {
		if exceptID != 0 {
			return ac.repos().Product.SlugExistsExceptID(ctx, s, exceptID)
		}
		return ac.repos().Product.SlugExists(ctx, s)
	}

	if req.GenerateSlug && trimmed(req.Slug) == "" {
		s, err := slug.Unique(ctx, slug.Slugify(title), exists)
		if err != nil {
			return "", fiber.StatusInternalServerError, err
		}
		return s, 0, nil
	}

	s := slug.Slugify(trimmed(req.Slug))
	if s == "" {
		return "", fiber.StatusBadRequest, errors.New("slug must contain letters or digits")
	}
	taken, err := exists(ctx, s)
	if err != nil {
		return "", fiber.StatusInternalServerError, err
	}
	if taken {
		return "", fiber.StatusConflict, errors.New("slug already exists")
	}
	return s, 0, nil
}

// HandleDeleteProduct hard deletes a product
func (ac *AdminController) HandleDeleteProduct(c *fiber.Ctx) error {
	return ac.deleteByID(c, "product", ac.repos().Product.Delete)
}

// ---------------------------------------------------------------- classes

type classRequest struct {
	Title           *string  `json:"title" validate:"omitempty,max=255"`
	Description     *string  `json:"description"`
	ExamBoard       *string  `json:"exam_board" validate:"omitempty,max=50"`
	Level           *string  `json:"level" validate:"omitempty,max=50"`
	Tier            *string  `json:"tier" validate:"omitempty,max=50"`
	Day             *string  `json:"day" validate:"omitempty,max=20"`
	TimeUK          *string  `json:"time_uk" validate:"omitempty,max=20"`
	TimeGulf        *string  `json:"time_gulf" validate:"omitempty,max=20"`
	ZoomLink        *string  `json:"zoom_link" validate:"omitempty,max=512"`
	PricePerStudent *float64 `json:"price_per_student" validate:"omitempty,gte=0"`
	MaxStudents     *int     `json:"max_students" validate:"omitempty,gte=1,lte=1000"`
	Status          *string  `json:"status"`
}

func (r *classRequest) apply(cl *models.Class) {
	if r.Title != nil {
		cl.Title = trimmed(r.Title)
	}
	if r.Description != nil {
		cl.Description = *r.Description
	}
	if r.ExamBoard != nil {
		cl.ExamBoard = trimmed(r.ExamBoard)
	}
	if r.Level != nil {
		cl.Level = trimmed(r.Level)
	}
	if r.Tier != nil {
		cl.Tier = trimmed(r.Tier)
	}
	if r.Day != nil {
		cl.Day = trimmed(r.Day)
	}
	if r.TimeUK != nil {
		cl.TimeUK = trimmed(r.TimeUK)
	}
	if r.TimeGulf != nil {
		cl.TimeGulf = trimmed(r.TimeGulf)
	}
	if r.ZoomLink != nil {
		cl.ZoomLink = trimmed(r.ZoomLink)
	}
	if r.PricePerStudent != nil {
		cl.PricePerStudent = *r.PricePerStudent
	}
	if r.MaxStudents != nil {
		cl.MaxStudents = *r.MaxStudents
	}
	if r.Status != nil {
		cl.Status = trimmed(r.Status)
	}
}

func (ac *AdminController) HandleListClasses(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	classes, err := ac.repos().Class.ListAll(ctx)
	if err != nil {
		return internalError(c, "list classes", err)
	}
	return c.JSON(classes)
}

// HandleCreateClass creates a group class
func (ac *AdminController) HandleCreateClass(c *fiber.Ctx) error {
	var req classRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	if trimmed(req.Title) == "" {
		return badRequest(c, "title is required")
	}
	if req.PricePerStudent == nil {
		return badRequest(c, "price_per_student is required")
	}

	class := &models.Class{
		MaxStudents: models.DefaultClassMaxStudents,
		Status:      models.CLASS_STATUS_ACTIVE,
	}
	req.apply(class)
	if !models.IsValidClassStatus(class.Status) {
		return badRequest(c, "status must be one of: active inactive")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ac.repos().Class.Create(ctx, class); err != nil {
		return repoError(c, "class", err)
	}
	ac.deps.invalidateCatalog(ctx)
	return c.Status(fiber.StatusCreated).JSON(class)
}

// HandleUpdateClass changes the fields present in the body
func (ac *AdminController) HandleUpdateClass(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req classRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	if req.Title != nil && trimmed(req.Title) == "" {
		return badRequest(c, "title must not be empty")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	class, err := ac.repos().Class.GetByID(ctx, id)
	if err != nil {
		return repoError(c, "class", err)
	}
	req.apply(class)
	if !models.IsValidClassStatus(class.Status) {
		return badRequest(c, "status must be one of: active inactive")
	}

	if err := ac.repos().Class.Update(ctx, class); err != nil {
		return repoError(c, "class", err)
	}
	ac.deps.invalidateCatalog(ctx)
	return c.JSON(class)
}

func (ac *AdminController) HandleDeleteClass(c *fiber.Ctx) error {
	return ac.deleteByID(c, "class", ac.repos().Class.Delete)
}

// ---------------------------------------------------------------- testimonials

type testimonialRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=150"`
	Country  *string `json:"country" validate:"omitempty,max=100"`
	Quote    *string `json:"quote"`
	Result   *string `json:"result" validate:"omitempty,max=255"`
	Rating   *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	IsActive *bool   `json:"is_active"`
}

func (r *testimonialRequest) apply(t *models.Testimonial) {
	if r.Name != nil {
		t.Name = trimmed(r.Name)
	}
	if r.Country != nil {
		t.Country = trimmed(r.Country)
	}
	if r.Quote != nil {
		t.Quote = trimmed(r.Quote)
	}
	if r.Result != nil {
		t.Result = trimmed(r.Result)
	}
	if r.Rating != nil {
		t.Rating = *r.Rating
	}
	if r.IsActive != nil {
		t.IsActive = *r.IsActive
	}
}

func (ac *AdminController) HandleListTestimonials(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	testimonials, err := ac.repos().Testimonial.ListAll(ctx)
	if err != nil {
		return internalError(c, "list testimonials", err)
	}
	return c.JSON(testimonials)
}

func (ac *AdminController) HandleCreateTestimonial(c *fiber.Ctx) error {
	var req testimonialRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	if trimmed(req.Name) == "" {
		return badRequest(c, "name is required")
	}
	if trimmed(req.Quote) == "" {
		return badRequest(c, "quote is required")
	}

	testimonial := &models.Testimonial{Rating: models.DefaultTestimonialRating, IsActive: true}
	req.apply(testimonial)

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ac.repos().Testimonial.Create(ctx, testimonial); err != nil {
		return repoError(c, "testimonial", err)
	}
	ac.deps.invalidateCatalog(ctx)
	return c.Status(fiber.StatusCreated).JSON(testimonial)
}

func (ac *AdminController) HandleUpdateTestimonial(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req testimonialRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	if (req.Name != nil && trimmed(req.Name) == "") || (req.Quote != nil && trimmed(req.Quote) == "") {
		return badRequest(c, "name and quote must not be empty")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	testimonial, err := ac.repos().Testimonial.GetByID(ctx, id)
	if err != nil {
		return repoError(c, "testimonial", err)
	}
	req.apply(testimonial)

	if err := ac.repos().Testimonial.Update(ctx, testimonial); err != nil {
		return repoError(c, "testimonial", err)
	}
	ac.deps.invalidateCatalog(ctx)
	return c.JSON(testimonial)
}

func (ac *AdminController) HandleDeleteTestimonial(c *fiber.Ctx) error {
	return ac.deleteByID(c, "testimonial", ac.repos().Testimonial.Delete)
}

// ---------------------------------------------------------------- messages

type messageUpdateRequest struct {
	IsRead *bool `json:"is_read"`
}

// HandleListMessages lists messages newest first, optionally by type and
// unread only
func (ac *AdminController) HandleListMessages(c *fiber.Ctx) error {
	filter := repository.MessageFilter{
		Type:       strings.TrimSpace(c.Query("type")),
		UnreadOnly: c.QueryBool("unread", false),
	}
	if filter.Type != "" && !models.IsValidMessageType(filter.Type) {
		return badRequest(c, "type must be one of: contact intro-session")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	messages, err := ac.repos().Message.List(ctx, filter)
	if err != nil {
		return internalError(c, "list messages", err)
	}
	return c.JSON(messages)
}

// HandleUpdateMessage sets the read flag
func (ac *AdminController) HandleUpdateMessage(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req messageUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.IsRead == nil {
		return badRequest(c, "is_read is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := ac.repos().Message.SetRead(ctx, id, *req.IsRead); err != nil {
		return repoError(c, "message", err)
	}
	ac.deps.Stats.Invalidate(ctx)
	return c.JSON(fiber.Map{"success": true, "id": id, "is_read": *req.IsRead})
}

func (ac *AdminController) HandleDeleteMessage(c *fiber.Ctx) error {
	return ac.deleteByID(c, "message", ac.repos().Message.Delete)
}

// ---------------------------------------------------------------- enrollments

type enrollmentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

// HandleListEnrollments lists every enrollment with class and profile
func (ac *AdminController) HandleListEnrollments(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	enrollments, err := ac.repos().Enrollment.ListAll(ctx)
	if err != nil {
		return internalError(c, "list enrollments", err)
	}
	return c.JSON(enrollments)
}

// HandleConfirmEnrollment moves an enrollment to the requested payment
// status. An empty body confirms.
func (ac *AdminController) HandleConfirmEnrollment(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	req := enrollmentStatusRequest{PaymentStatus: models.PAYMENT_STATUS_CONFIRMED}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	req.PaymentStatus = strings.TrimSpace(req.PaymentStatus)
	if req.PaymentStatus == "" {
		req.PaymentStatus = models.PAYMENT_STATUS_CONFIRMED
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	current, err := ac.repos().Enrollment.GetByID(ctx, id)
	if err != nil {
		return repoError(c, "enrollment", err)
	}

	updated, err := ac.deps.Enrollment.SetPaymentStatus(ctx, id, req.PaymentStatus, ac.enrolleeEmail(ctx, current))
	switch {
	case errors.Is(err, enrollment.ErrInvalidStatus):
		return badRequest(c, "payment_status must be one of: pending confirmed cancelled")
	case errors.Is(err, enrollment.ErrEnrollmentNotFound):
		return notFound(c, "enrollment not found")
	case errors.Is(err, enrollment.ErrClassNotAvailable):
		return notFound(c, "class not found")
	case errors.Is(err, enrollment.ErrClassFull):
		return badRequest(c, "Class is full")
	case err != nil:
		return internalError(c, "update enrollment", err)
	}

	ac.deps.invalidateCatalog(ctx)
	return c.JSON(updated)
}

// enrolleeEmail prefers the profile address and falls back to the login email.
func (ac *AdminController) enrolleeEmail(ctx context.Context, e *models.ClassEnrollment) string {
	if e.Profile != nil && e.Profile.Email != "" {
		return e.Profile.Email
	}
	user, err := ac.repos().User.GetByID(ctx, e.UserID)
	if err != nil {
		return ""
	}
	return user.Email
}

// ---------------------------------------------------------------- orders

func (ac *AdminController) HandleListOrders(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	orders, err := ac.repos().Order.ListOrders(ctx)
	if err != nil {
		return internalError(c, "list orders", err)
	}
	return c.JSON(orders)
}

// deleteByID is shared by the hard delete endpoints
func (ac *AdminController) deleteByID(c *fiber.Ctx, what string, del func(context.Context, uint) error) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := del(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, what+" not found")
		}
		return internalError(c, "delete "+what, err)
	}
	ac.deps.invalidateCatalog(ctx)
	return c.JSON(fiber.Map{"success": true, "id": id})
}
