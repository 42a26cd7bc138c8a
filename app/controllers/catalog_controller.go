package controllers

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/tutorsite/app/models"
	"github.com/ManuelReschke/tutorsite/app/repository"
	"github.com/ManuelReschke/tutorsite/internal/pkg/cache"
)

const (
	catalogCachePrefix      = "catalog:"
	cacheKeyClasses         = "catalog:classes"
	cacheKeyTestimonials    = "catalog:testimonials"
	cacheKeyCategories      = "catalog:categories"
	cacheKeyProductsPattern = "catalog:products:%s"
	catalogCacheTTL         = 5 * time.Minute
)

// CatalogController serves the public product, class and testimonial listings
type CatalogController struct {
	deps *Dependencies
}

func NewCatalogController(deps *Dependencies) *CatalogController {
	return &CatalogController{deps: deps}
}

func productFilterFromQuery(c *fiber.Ctx) (repository.ProductFilter, error) {
	f := repository.ProductFilter{
		ExamBoard: strings.TrimSpace(c.Query("exam_board")),
		Level:     strings.TrimSpace(c.Query("level")),
		Tier:      strings.TrimSpace(c.Query("tier")),
		Year:      strings.TrimSpace(c.Query("year")),
		Query:     strings.TrimSpace(c.Query("q")),
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return f, fmt.Errorf("category must be a numeric id")
		}
		f.CategoryID = uint(id)
	}
	return f, nil
}

func productCacheKey(f repository.ProductFilter) string {
	raw := strings.Join([]string{
		f.ExamBoard, f.Level, f.Tier, f.Year,
		strconv.FormatUint(uint64(f.CategoryID), 10),
		strings.ToLower(f.Query),
	}, "|")
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf(cacheKeyProductsPattern, hex.EncodeToString(sum[:8]))
}

// HandleListProducts returns active products, newest first
func (cc *CatalogController) HandleListProducts(c *fiber.Ctx) error {
	filter, err := productFilterFromQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	products, err := cache.Remember(ctx, cc.deps.cacheStore(), productCacheKey(filter), catalogCacheTTL, func() ([]models.Product, error) {
		list, err := cc.deps.Repos.Product.ListActive(ctx, filter)
		if err != nil {
			return nil, err
		}
		for i := range list {
			list[i] = list[i].Public()
		}
		return list, nil
	})
	if err != nil {
		return internalError(c, "list products", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(products)
}

// HandleGetProduct returns one active product by slug. Logged in callers
// also get is_purchased.
func (cc *CatalogController) HandleGetProduct(c *fiber.Ctx) error {
	slug := strings.TrimSpace(c.Params("slug"))
	if slug == "" {
		return badRequest(c, "slug is required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	product, err := cc.deps.Repos.Product.GetActiveBySlug(ctx, slug)
	if err != nil {
		return repoError(c, "Product", err)
	}

	public := product.Public()
	user := currentUser(c)
	if !user.IsLoggedIn {
		return c.JSON(public)
	}
	purchased, err := cc.deps.Repos.Order.HasPurchased(ctx, user.UserID, product.ID)
	if err != nil {
		return internalError(c, "check purchase", err)
	}
	return c.JSON(fiber.Map{
		"product":      public,
		"is_purchased": purchased,
	})
}

// HandleListCategories returns all product categories
func (cc *CatalogController) HandleListCategories(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	categories, err := cache.Remember(ctx, cc.deps.cacheStore(), cacheKeyCategories, catalogCacheTTL, func() ([]models.Category, error) {
		return cc.deps.Repos.Product.ListCategories(ctx)
	})
	if err != nil {
		return internalError(c, "list categories", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return c.JSON(categories)
}

// HandleListClasses returns active classes with confirmed seat counts
func (cc *CatalogController) HandleListClasses(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	classes, err := cache.Remember(ctx, cc.deps.cacheStore(), cacheKeyClasses, catalogCacheTTL, func() ([]repository.ClassWithAvailability, error) {
		return cc.deps.Repos.Class.ListActiveWithAvailability(ctx)
	})
	if err != nil {
		return internalError(c, "list classes", err)
	}
	if classes == nil {
		classes = []repository.ClassWithAvailability{}
	}
	return c.JSON(classes)
}

// HandleListTestimonials returns active testimonials, newest first
func (cc *CatalogController) HandleListTestimonials(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	testimonials, err := cache.Remember(ctx, cc.deps.cacheStore(), cacheKeyTestimonials, catalogCacheTTL, func() ([]models.Testimonial, error) {
		return cc.deps.Repos.Testimonial.ListActive(ctx)
	})
	if err != nil {
		return internalError(c, "list testimonials", err)
	}
	if testimonials == nil {
		testimonials = []models.Testimonial{}
	}
	return c.JSON(testimonials)
}
