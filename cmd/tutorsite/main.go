package main

import (
	"fmt"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuelReschke/tutorsite/app/controllers"
	"github.com/ManuelReschke/tutorsite/app/repository"
	"github.com/ManuelReschke/tutorsite/internal/pkg/authtoken"
	"github.com/ManuelReschke/tutorsite/internal/pkg/billing"
	"github.com/ManuelReschke/tutorsite/internal/pkg/cache"
	"github.com/ManuelReschke/tutorsite/internal/pkg/database"
	"github.com/ManuelReschke/tutorsite/internal/pkg/downloads"
	"github.com/ManuelReschke/tutorsite/internal/pkg/enrollment"
	"github.com/ManuelReschke/tutorsite/internal/pkg/env"
	"github.com/ManuelReschke/tutorsite/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/tutorsite/internal/pkg/logging"
	"github.com/ManuelReschke/tutorsite/internal/pkg/mail"
	"github.com/ManuelReschke/tutorsite/internal/pkg/router"
	"github.com/ManuelReschke/tutorsite/internal/pkg/statistics"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	logging.Setup()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/tutorsite to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	deps, err := newDependencies()
	if err != nil {
		panic(err)
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: controllers.ErrorHandler,
		BodyLimit:    1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New(logger.Config{
		Output: logging.Output(),
	}))

	// prometheus and fiber metrics
	mountOpsRoutes(app)

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, deps)

	return app
}

// mountOpsRoutes serves /metrics and /monitor behind basic auth. Without
// METRICS_PASSWORD both routes stay unmounted.
func mountOpsRoutes(app *fiber.App) bool {
	password := env.GetEnv("METRICS_PASSWORD", "")
	if password == "" {
		log.Warn("METRICS_PASSWORD not set, /metrics and /monitor are disabled")
		return false
	}
	metricsAuth := basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): password,
		},
	})
	app.Get("/metrics", metricsAuth, adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/monitor", metricsAuth, monitor.New())
	return true
}

func newDependencies() (*controllers.Dependencies, error) {
	db := database.GetDB()
	repos := repository.GetGlobalRepositories()
	store := cache.NewStore()

	notifier := mail.NewNotifier(mail.NewSMTPMailerFromEnv(), env.GetEnv("ADMIN_EMAIL", ""))

	secret := env.GetEnv("LEMONSQUEEZY_WEBHOOK_SECRET", "")
	if secret == "" {
		log.Warn("LEMONSQUEEZY_WEBHOOK_SECRET not set, every webhook delivery will be rejected")
	}

	downloadsCfg, err := downloads.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("downloads config: %w", err)
	}
	downloadsClient, err := downloads.NewClient(downloadsCfg)
	if err != nil {
		return nil, fmt.Errorf("downloads client: %w", err)
	}

	tokens := authtoken.NewSignerFromEnv()
	if !tokens.Enabled() {
		log.Info("AUTH_TOKEN_SECRET not set, bearer tokens disabled")
	}

	return &controllers.Dependencies{
		Repos:      repos,
		Cache:      store,
		Enrollment: enrollment.NewServiceFromDB(db, notifier),
		Billing:    billing.NewServiceFromDB(db, secret),
		Stats:      statistics.NewService(repos.Stats, store),
		Downloads:  downloadsClient,
		Captcha:    hcaptcha.NewVerifierFromEnv(),
		Notifier:   notifier,
		Tokens:     tokens,
	}, nil
}
