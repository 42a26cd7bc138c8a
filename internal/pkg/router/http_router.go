package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/tutorsite/app/controllers"
	"github.com/ManuelReschke/tutorsite/internal/pkg/middleware"
	"github.com/ManuelReschke/tutorsite/internal/pkg/oauth"
	"github.com/ManuelReschke/tutorsite/internal/pkg/session"
)

type HttpRouter struct {
	deps *controllers.Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session unless a store was installed already (tests)
	if session.GetSessionStore() == nil {
		session.NewSessionStore()
	}

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.NewUserContextMiddleware(h.deps.Tokens))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Social OAuth, only when a provider is configured
	if oauth.Setup() {
		oc := controllers.NewOAuthController(h.deps)
		app.Get("/auth/:provider", oc.HandleBegin)
		app.Get("/auth/:provider/callback", oc.HandleCallback)
	} else {
		log.Info("[Router] no OAuth provider configured, /auth routes disabled")
	}
}

func NewHttpRouter(deps *controllers.Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
