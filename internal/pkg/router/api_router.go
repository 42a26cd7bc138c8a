package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/tutorsite/app/controllers"
	"github.com/ManuelReschke/tutorsite/internal/pkg/env"
	"github.com/ManuelReschke/tutorsite/internal/pkg/middleware"
	"github.com/ManuelReschke/tutorsite/internal/pkg/session"
)

type ApiRouter struct {
	deps *controllers.Dependencies
	// limiterStorage is nil in tests, which selects the limiter's memory storage
	limiterStorage fiber.Storage
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", cors.New(corsConfig()))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	catalog := controllers.NewCatalogController(h.deps)
	intake := controllers.NewIntakeController(h.deps)
	account := controllers.NewAccountController(h.deps)
	auth := controllers.NewAuthController(h.deps)
	webhooks := controllers.NewWebhookController(h.deps)
	controllers.InitializeAdminController(h.deps)

	// public catalogue
	api.Get("/products", catalog.HandleListProducts)
	api.Get("/products/:slug", catalog.HandleGetProduct)
	api.Get("/categories", catalog.HandleListCategories)
	api.Get("/classes", catalog.HandleListClasses)
	api.Get("/testimonials", catalog.HandleListTestimonials)

	// intake forms, rate limited per client
	throttle := h.intakeLimiter()
	api.Post("/contact", throttle, intake.HandleContact)
	api.Post("/intro-session", throttle, intake.HandleIntroSession)

	// payment provider webhooks (signature verified in the handler)
	api.Post("/webhooks/lemonsqueezy", webhooks.HandleLemonSqueezy)

	// auth
	api.Post("/auth/register", throttle, auth.HandleRegister)
	api.Post("/auth/login", throttle, auth.HandleLogin)
	api.Post("/auth/logout", auth.HandleLogout)
	api.Get("/auth/me", auth.HandleMe)

	// logged in customer
	requireAuth := middleware.RequireAPISessionAuth
	api.Get("/profile", requireAuth, account.HandleGetProfile)
	api.Put("/profile", requireAuth, account.HandleUpdateProfile)
	api.Get("/dashboard", requireAuth, account.HandleDashboard)
	api.Get("/me/purchases", requireAuth, account.HandleListPurchases)
	api.Get("/me/purchases/:purchaseId/download", requireAuth, account.HandleDownload)
	api.Get("/me/classes", requireAuth, account.HandleListClasses)
	api.Post("/me/classes/enrol-request", requireAuth, account.HandleEnrolRequest)

	h.registerAdminRoutes(api)
}

func (h ApiRouter) registerAdminRoutes(api fiber.Router) {
	// one gate for the whole back office; the role is re-read per request
	adminGroup := api.Group("/admin", middleware.RequireAdmin(h.deps.Repos.Profile))
	adminGroup.Get("/stats", controllers.HandleAdminStats)

	adminGroup.Get("/products", controllers.HandleAdminProducts)
	adminGroup.Post("/products", controllers.HandleAdminProductCreate)
	adminGroup.Put("/products/:id", controllers.HandleAdminProductUpdate)
	adminGroup.Delete("/products/:id", controllers.HandleAdminProductDelete)

	adminGroup.Get("/classes", controllers.HandleAdminClasses)
	adminGroup.Post("/classes", controllers.HandleAdminClassCreate)
	adminGroup.Put("/classes/:id", controllers.HandleAdminClassUpdate)
	adminGroup.Delete("/classes/:id", controllers.HandleAdminClassDelete)

	adminGroup.Get("/testimonials", controllers.HandleAdminTestimonials)
	adminGroup.Post("/testimonials", controllers.HandleAdminTestimonialCreate)
	adminGroup.Put("/testimonials/:id", controllers.HandleAdminTestimonialUpdate)
	adminGroup.Delete("/testimonials/:id", controllers.HandleAdminTestimonialDelete)

	adminGroup.Get("/messages", controllers.HandleAdminMessages)
	adminGroup.Patch("/messages/:id", controllers.HandleAdminMessageUpdate)
	adminGroup.Delete("/messages/:id", controllers.HandleAdminMessageDelete)

	adminGroup.Get("/class-enrollments", controllers.HandleAdminEnrollments)
	adminGroup.Patch("/class-enrollments/:id/confirm", controllers.HandleAdminEnrollmentConfirm)

	adminGroup.Get("/orders", controllers.HandleAdminOrders)
}

func (h ApiRouter) intakeLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        env.GetEnvInt("INTAKE_RATE_LIMIT", 10),
		Expiration: time.Minute,
		Storage:    h.limiterStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "too_many_requests",
				"message": "Too many requests, please try again later",
			})
		},
	})
}

func corsConfig() cors.Config {
	origins := env.GetEnv("CORS_ALLOW_ORIGINS", env.GetEnv("PUBLIC_DOMAIN", "*"))
	cfg := cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Hcaptcha-Token",
	}
	// credentials only with an explicit origin list
	cfg.AllowCredentials = origins != "*" && !strings.Contains(origins, "*")
	return cfg
}

func NewApiRouter(deps *controllers.Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps, limiterStorage: session.RedisStorage(3)}
}
