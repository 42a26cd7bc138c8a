package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/tutorsite/app/models"
	"github.com/ManuelReschke/tutorsite/internal/pkg/metrics"
)

// IntakeController stores contact and intro session requests
type IntakeController struct {
	deps *Dependencies
}

func NewIntakeController(deps *Dependencies) *IntakeController {
	return &IntakeController{deps: deps}
}

type contactRequest struct {
	Name         string `json:"name" validate:"required,max=150"`
	Email        string `json:"email" validate:"required,email,max=200"`
	Country      string `json:"country" validate:"max=100"`
	Level        string `json:"level" validate:"max=50"`
	ExamBoard    string `json:"exam_board" validate:"max=50"`
	Message      string `json:"message" validate:"required,max=5000"`
	CaptchaToken string `json:"h-captcha-response"`
}

type introSessionRequest struct {
	Name         string `json:"name" validate:"required,max=150"`
	Email        string `json:"email" validate:"required,email,max=200"`
	Country      string `json:"country" validate:"max=100"`
	Level        string `json:"level" validate:"max=50"`
	ExamBoard    string `json:"exam_board" validate:"max=50"`
	Message      string `json:"message" validate:"max=5000"`
	CaptchaToken string `json:"h-captcha-response"`
}

// HandleContact stores a contact message
func (ic *IntakeController) HandleContact(c *fiber.Ctx) error {
	var req contactRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	return ic.store(c, req.CaptchaToken, &models.Message{
		Name:      strings.TrimSpace(req.Name),
		Email:     models.NormalizeEmail(req.Email),
		Country:   strings.TrimSpace(req.Country),
		Level:     strings.TrimSpace(req.Level),
		ExamBoard: strings.TrimSpace(req.ExamBoard),
		Message:   strings.TrimSpace(req.Message),
		Type:      models.MESSAGE_TYPE_CONTACT,
	})
}

// HandleIntroSession stores a free intro session request
func (ic *IntakeController) HandleIntroSession(c *fiber.Ctx) error {
	var req introSessionRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return badRequest(c, msg)
	}
	return ic.store(c, req.CaptchaToken, &models.Message{
		Name:      strings.TrimSpace(req.Name),
		Email:     models.NormalizeEmail(req.Email),
		Country:   strings.TrimSpace(req.Country),
		Level:     strings.TrimSpace(req.Level),
		ExamBoard: strings.TrimSpace(req.ExamBoard),
		Message:   strings.TrimSpace(req.Message),
		Type:      models.MESSAGE_TYPE_INTRO_SESSION,
	})
}

func (ic *IntakeController) store(c *fiber.Ctx, captchaToken string, msg *models.Message) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if ic.deps.Captcha.Enabled() {
		token := strings.TrimSpace(captchaToken)
		if token == "" {
			token = strings.TrimSpace(c.Get("X-Hcaptcha-Token"))
		}
		if err := ic.deps.Captcha.Verify(ctx, token); err != nil {
			log.Warnf("intake: captcha rejected for %s: %v", c.IP(), err)
			return badRequest(c, "captcha verification failed")
		}
	}

	if err := ic.deps.Repos.Message.Create(ctx, msg); err != nil {
		return internalError(c, "store message", err)
	}
	metrics.IntakeMessagesTotal.WithLabelValues(msg.Type).Inc()
	if ic.deps.Stats != nil {
		ic.deps.Stats.Invalidate(ctx)
	}
	ic.deps.Notifier.NewMessage(msg)

	return c.JSON(fiber.Map{"success": true, "data": msg})
}
