package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/tutorsite/app/models"
	"github.com/ManuelReschke/tutorsite/internal/pkg/downloads"
	"github.com/ManuelReschke/tutorsite/internal/pkg/enrollment"
	"github.com/ManuelReschke/tutorsite/internal/pkg/metrics"
)

const dashboardRecentPurchases = 5

// AccountController serves the logged in customer's own data
type AccountController struct {
	deps *Dependencies
}

func NewAccountController(deps *Dependencies) *AccountController {
	return &AccountController{deps: deps}
}

type profileUpdateRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=150"`
	Country  *string `json:"country" validate:"omitempty,max=100"`
	Timezone *string `json:"timezone" validate:"omitempty,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
}

type enrolRequest struct {
	ClassID       uint   `json:"class_id" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"max=50"`
}

// HandleGetProfile returns the caller's profile
func (ac *AccountController) HandleGetProfile(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := ac.deps.Repos.Profile.GetByUserID(ctx, currentUser(c).UserID)
	if err != nil {
		return repoError(c, "Profile", err)
	}
	return c.JSON(profile)
}

// HandleUpdateProfile updates full_name, country, timezone and phone
func (ac *AccountController) HandleUpdateProfile(c *fiber.Ctx) error {
	var req profileUpdateRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := ac.deps.Repos.Profile.GetByUserID(ctx, currentUser(c).UserID)
	if err != nil {
		return repoError(c, "Profile", err)
	}
	if req.FullName != nil {
		profile.FullName = trimmed(req.FullName)
	}
	if req.Country != nil {
		profile.Country = trimmed(req.Country)
	}
	if req.Timezone != nil {
		profile.Timezone = trimmed(req.Timezone)
	}
	if req.Phone != nil {
		profile.Phone = trimmed(req.Phone)
	}
	if err := ac.deps.Repos.Profile.Update(ctx, profile); err != nil {
		return internalError(c, "update profile", err)
	}
	return c.JSON(profile)
}

// HandleDashboard returns the profile, counts and most recent purchases
func (ac *AccountController) HandleDashboard(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	userID := currentUser(c).UserID

	profile, err := ac.deps.Repos.Profile.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return internalError(c, "load profile", err)
	}
	purchases, err := ac.deps.Repos.Order.CountPurchasesByUser(ctx, userID)
	if err != nil {
		return internalError(c, "count purchases", err)
	}
	enrollments, err := ac.deps.Repos.Enrollment.CountByUser(ctx, userID)
	if err != nil {
		return internalError(c, "count enrollments", err)
	}
	recent, err := ac.deps.Repos.Order.ListPurchasesByUser(ctx, userID, dashboardRecentPurchases)
	if err != nil {
		return internalError(c, "list purchases", err)
	}

	return c.JSON(fiber.Map{
		"profile": profile,
		"stats": fiber.Map{
			"purchases":   purchases,
			"enrollments": enrollments,
		},
		"recentPurchases": publicPurchases(recent),
	})
}

// HandleListPurchases returns all of the caller's purchases with product
func (ac *AccountController) HandleListPurchases(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	purchases, err := ac.deps.Repos.Order.ListPurchasesByUser(ctx, currentUser(c).UserID, 0)
	if err != nil {
		return internalError(c, "list purchases", err)
	}
	return c.JSON(publicPurchases(purchases))
}

// HandleListClasses returns the caller's enrollments with class
func (ac *AccountController) HandleListClasses(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	enrollments, err := ac.deps.Repos.Enrollment.ListByUser(ctx, currentUser(c).UserID)
	if err != nil {
		return internalError(c, "list enrollments", err)
	}
	if enrollments == nil {
		enrollments = []models.ClassEnrollment{}
	}
	return c.JSON(enrollments)
}

// HandleEnrolRequest asks for a seat in a group class
func (ac *AccountController) HandleEnrolRequest(c *fiber.Ctx) error {
	var req enrolRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.ClassID == 0 {
		return badRequest(c, "Class ID is required")
	}
	if err := validate.Struct(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user := currentUser(c)
	created, err := ac.deps.Enrollment.Request(ctx, enrollment.Request{
		ClassID:       req.ClassID,
		UserID:        user.UserID,
		Email:         user.Email,
		PaymentMethod: req.PaymentMethod,
	})
	switch {
	case errors.Is(err, enrollment.ErrClassNotAvailable):
		return notFound(c, "Class not found or inactive")
	case errors.Is(err, enrollment.ErrAlreadyEnrolled):
		return badRequest(c, "Already enrolled in this class")
	case errors.Is(err, enrollment.ErrClassFull):
		return badRequest(c, "Class is full")
	case err != nil:
		return internalError(c, "enrol request", err)
	}

	if ac.deps.Stats != nil {
		ac.deps.Stats.Invalidate(ctx)
	}
	return c.JSON(fiber.Map{"success": true, "enrollment": created})
}

// HandleDownload resolves the file of a purchase the caller owns and logs
// the download
func (ac *AccountController) HandleDownload(c *fiber.Ctx) error {
	purchaseID, err := parseIDParam(c, "purchaseId")
	if err != nil {
		return notFound(c, "Purchase not found")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	userID := currentUser(c).UserID

	purchase, err := ac.deps.Repos.Order.GetPurchaseForUser(ctx, purchaseID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Purchase not found")
		}
		return internalError(c, "load purchase", err)
	}
	if !purchase.Product.HasFile() {
		return notFound(c, "File not available")
	}

	url, err := ac.deps.Downloads.URLFor(ctx, purchase.Product.FileURL)
	if err != nil {
		if errors.Is(err, downloads.ErrNoFile) {
			return notFound(c, "File not available")
		}
		return internalError(c, "resolve download", err)
	}

	if err := ac.deps.Repos.Order.RecordDownload(ctx, &models.Download{
		PurchaseID: purchase.ID,
		UserID:     userID,
		ProductID:  purchase.ProductID,
	}); err != nil {
		log.Warnf("download: could not record download of purchase %d: %v", purchase.ID, err)
	}
	metrics.DownloadsTotal.Inc()

	return c.JSON(fiber.Map{"url": strings.TrimSpace(url)})
}

func publicPurchases(purchases []models.Purchase) []models.Purchase {
	out := make([]models.Purchase, len(purchases))
	for i, p := range purchases {
		if p.Product != nil {
			public := p.Product.Public()
			p.Product = &public
		}
		out[i] = p
	}
	return out
}
