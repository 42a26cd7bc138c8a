package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/tutorsite/app/models"
	"github.com/ManuelReschke/tutorsite/internal/pkg/session"
	"github.com/ManuelReschke/tutorsite/internal/pkg/usercontext"
)

const minPasswordLength = 8

// AuthController handles email/password accounts and the app session
type AuthController struct {
	deps *Dependencies
}

func NewAuthController(deps *Dependencies) *AuthController {
	return &AuthController{deps: deps}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"max=150"`
	Role     string `json:"role" validate:"omitempty,oneof=student parent"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates a user with a student or parent profile and logs
// them in
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := models.CreateUser(req.Email, req.Password)
	if err != nil {
		return badRequest(c, validationMessage(err))
	}
	role := req.Role
	if role == "" {
		role = models.ROLE_STUDENT
	}
	profile := &models.Profile{
		Email:    user.Email,
		FullName: strings.TrimSpace(req.FullName),
		Role:     role,
	}
	if err := ac.deps.Repos.User.CreateWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return conflict(c, "An account with this email already exists")
		}
		return internalError(c, "create user", err)
	}
	log.Infof("auth: registered user %d", user.ID)

	return ac.startSession(c, user, fiber.StatusCreated)
}

// HandleLogin verifies email and password
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ac.deps.Repos.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return unauthorized(c, "Invalid email or password")
		}
		return internalError(c, "load user", err)
	}
	if !user.CheckPassword(req.Password) {
		return unauthorized(c, "Invalid email or password")
	}
	if !user.IsActive() {
		return unauthorized(c, "Account is disabled")
	}
	if err := ac.deps.Repos.User.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warnf("auth: could not update last login for user %d: %v", user.ID, err)
	}

	return ac.startSession(c, user, fiber.StatusOK)
}

// HandleLogout destroys the app session
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	store := session.GetSessionStore()
	if store == nil {
		return c.JSON(fiber.Map{"success": true})
	}
	sess, err := store.Get(c)
	if err != nil {
		return internalError(c, "load session", err)
	}
	if err := sess.Destroy(); err != nil {
		return internalError(c, "destroy session", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleMe returns the resolved user context and profile
func (ac *AuthController) HandleMe(c *fiber.Ctx) error {
	uc := currentUser(c)
	if !uc.IsLoggedIn {
		return unauthorized(c, "login required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := ac.deps.Repos.Profile.GetByUserID(ctx, uc.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return internalError(c, "load profile", err)
	}
	uc.IsAdmin = profile.IsAdmin()
	return c.JSON(fiber.Map{
		"user":    uc,
		"profile": profile,
	})
}

func (ac *AuthController) startSession(c *fiber.Ctx, user *models.User, status int) error {
	if err := loginSession(c, user); err != nil {
		return internalError(c, "session", err)
	}

	resp := fiber.Map{
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
		},
		"profile": user.Profile,
	}
	if ac.deps.Tokens.Enabled() {
		token, exp, err := ac.deps.Tokens.Issue(user.ID, user.Email)
		if err != nil {
			return internalError(c, "issue token", err)
		}
		resp["token"] = token
		resp["token_expires_at"] = exp.UTC().Format(time.RFC3339)
	}
	return c.Status(status).JSON(resp)
}

// loginSession regenerates the session id and stores the user in it.
func loginSession(c *fiber.Ctx, user *models.User) error {
	store := session.GetSessionStore()
	if store == nil {
		return errors.New("session store not initialized")
	}
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyEmail, user.Email)
	return sess.Save()
}
