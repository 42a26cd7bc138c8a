package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/tutorsite/internal/pkg/authtoken"
	"github.com/ManuelReschke/tutorsite/internal/pkg/session"
	"github.com/ManuelReschke/tutorsite/internal/pkg/usercontext"
)

// NewUserContextMiddleware resolves the caller for every request. A session
// cookie wins; otherwise a valid bearer token is accepted. Requests with
// neither continue as anonymous.
func NewUserContextMiddleware(tokens *authtoken.Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Goth keeps its own session on /auth/*; do not touch ours there.
		if strings.HasPrefix(c.Path(), "/auth/") {
			return c.Next()
		}

		if uc, ok := fromSession(c); ok {
			usercontext.SetUserContext(c, uc)
			return c.Next()
		}
		if uc, ok := fromBearer(c, tokens); ok {
			usercontext.SetUserContext(c, uc)
			return c.Next()
		}

		usercontext.SetUserContext(c, usercontext.UserContext{})
		return c.Next()
	}
}

func fromSession(c *fiber.Ctx) (usercontext.UserContext, bool) {
	store := session.GetSessionStore()
	if store == nil {
		return usercontext.UserContext{}, false
	}
	sess, err := store.Get(c)
	if err != nil {
		log.Warnf("user context: session lookup failed: %v", err)
		return usercontext.UserContext{}, false
	}
	userID, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || userID == 0 {
		return usercontext.UserContext{}, false
	}
	email, _ := sess.Get(usercontext.KeyEmail).(string)
	return usercontext.UserContext{
		UserID:     userID,
		Email:      email,
		IsLoggedIn: true,
		AuthMethod: usercontext.AuthMethodSession,
	}, true
}

func fromBearer(c *fiber.Ctx, tokens *authtoken.Signer) (usercontext.UserContext, bool) {
	raw := extractBearerToken(c)
	if raw == "" || !tokens.Enabled() {
		return usercontext.UserContext{}, false
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		return usercontext.UserContext{}, false
	}
	userID, err := claims.UserID()
	if err != nil {
		return usercontext.UserContext{}, false
	}
	return usercontext.UserContext{
		UserID:     userID,
		Email:      claims.Email,
		IsLoggedIn: true,
		AuthMethod: usercontext.AuthMethodToken,
	}, true
}
