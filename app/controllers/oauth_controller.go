package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/markbates/goth"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/ManuelReschke/tutorsite/app/models"
	"github.com/ManuelReschke/tutorsite/internal/pkg/env"
	"github.com/ManuelReschke/tutorsite/internal/pkg/session"
	"github.com/ManuelReschke/tutorsite/internal/pkg/slug"
)

// OAuthController links provider identities to local users
type OAuthController struct {
	deps *Dependencies
}

func NewOAuthController(deps *Dependencies) *OAuthController {
	return &OAuthController{deps: deps}
}

const sessionKeyReturnTo = "oauth_return_to"

// HandleBegin remembers an optional local return_to path and redirects to
// the provider
func (oc *OAuthController) HandleBegin(c *fiber.Ctx) error {
	if target := c.Query("return_to"); isLocalPath(target) {
		if err := session.SetSessionValue(c, sessionKeyReturnTo, target); err != nil {
			log.Warnf("oauth: could not store return_to: %v", err)
		}
	}
	return gothfiber.BeginAuthHandler(c)
}

// HandleCallback completes the provider flow and logs the user in
func (oc *OAuthController) HandleCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return badRequest(c, fmt.Sprintf("OAuth failed: %v", err))
	}

	user, err := oc.resolveUser(c, u)
	if err != nil {
		return internalError(c, "oauth login", err)
	}
	if !user.IsActive() {
		return unauthorized(c, "Account is disabled")
	}
	returnTo := session.GetSessionValue(c, sessionKeyReturnTo)
	if err := loginSession(c, user); err != nil {
		return internalError(c, "session", err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	if err := oc.deps.Repos.User.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warnf("oauth: could not update last login for user %d: %v", user.ID, err)
	}

	return c.Redirect(postLoginURL(returnTo), fiber.StatusSeeOther)
}

// resolveUser finds the user linked to the provider identity, links an
// existing account by email, or creates a new user with a student profile.
func (oc *OAuthController) resolveUser(c *fiber.Ctx, u goth.User) (*models.User, error) {
	ctx, cancel := requestContext(c)
	defer cancel()
	users := oc.deps.Repos.User

	pa, err := users.GetProviderAccount(ctx, u.Provider, u.UserID)
	if err == nil {
		pa.AccessToken = u.AccessToken
		pa.RefreshToken = u.RefreshToken
		pa.ExpiresAt = expiresAt(u.ExpiresAt)
		if err := users.UpdateProviderAccount(ctx, pa); err != nil {
			return nil, fmt.Errorf("update tokens: %w", err)
		}
		return users.GetByID(ctx, pa.UserID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var user *models.User
	if u.Email != "" {
		user, err = users.GetByEmail(ctx, u.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if user == nil {
		// Password login stays unusable until the user sets one.
		placeholder, err := slug.GenerateSecureSuffix(32)
		if err != nil {
			return nil, err
		}
		email := u.Email
		if email == "" {
			email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
		}
		user, err = models.CreateUser(email, placeholder)
		if err != nil {
			return nil, err
		}
		profile := &models.Profile{
			FullName:  firstNonEmpty(u.Name, strings.TrimSpace(u.FirstName+" "+u.LastName), u.NickName),
			AvatarURL: u.AvatarURL,
			Role:      models.ROLE_STUDENT,
		}
		if err := users.CreateWithProfile(ctx, user, profile); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	if err := users.CreateProviderAccount(ctx, &models.ProviderAccount{
		UserID:         user.ID,
		Provider:       u.Provider,
		ProviderUserID: u.UserID,
		AccessToken:    u.AccessToken,
		RefreshToken:   u.RefreshToken,
		ExpiresAt:      expiresAt(u.ExpiresAt),
	}); err != nil {
		return nil, fmt.Errorf("link provider: %w", err)
	}
	return user, nil
}

func expiresAt(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func postLoginURL(returnTo string) string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if !isLocalPath(returnTo) {
		returnTo = "/dashboard"
	}
	return base + returnTo
}

// isLocalPath accepts absolute paths on this site only, so return_to cannot
// redirect to another host.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.ContainsAny(p, "\\\r\n")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
