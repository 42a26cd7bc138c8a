package oauth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/tutorsite/internal/pkg/env"
	"github.com/ManuelReschke/tutorsite/internal/pkg/session"
)

// CallbackURL returns the provider redirect target on the public domain.
func CallbackURL(provider string) string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base + "/auth/" + provider + "/callback"
}

// Setup registers the Google provider and the OAuth state store. It reports
// false, leaving OAuth routes unregistered, when no client key is configured.
func Setup() bool {
	key := env.GetEnv("GOOGLE_KEY", "")
	if key == "" {
		log.Info("oauth: GOOGLE_KEY not set, social login disabled")
		return false
	}

	goth.UseProviders(
		google.New(key, env.GetEnv("GOOGLE_SECRET", ""), CallbackURL("google"), "email", "profile"),
	)

	// OAuth state via Redis, using same connection as app sessions (separate DB)
	gothfiber.SessionStore = fibersession.New(fibersession.Config{
		Storage:        session.RedisStorage(2),
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev(),
		Expiration:     1 * time.Hour,
	})
	return true
}
