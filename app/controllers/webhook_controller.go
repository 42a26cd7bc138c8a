package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/tutorsite/internal/pkg/billing"
)

// WebhookController receives payment provider deliveries
type WebhookController struct {
	deps *Dependencies
}

func NewWebhookController(deps *Dependencies) *WebhookController {
	return &WebhookController{deps: deps}
}

// HandleLemonSqueezy verifies and ingests one delivery. Replays of an
// already processed event are acknowledged with duplicate=true.
func (wc *WebhookController) HandleLemonSqueezy(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("webhook: panic while processing delivery: %v", r)
			err = errorResponse(c, fiber.StatusInternalServerError, "internal_error", fmt.Sprint(r))
		}
	}()

	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get(billing.SignatureHeader))

	ctx, cancel := requestContext(c)
	defer cancel()

	res, ingestErr := wc.deps.Billing.Ingest(ctx, rawBody, signature)
	switch {
	case errors.Is(ingestErr, billing.ErrInvalidSignature):
		return errorResponse(c, fiber.StatusUnauthorized, "invalid_signature", "Invalid signature")
	case errors.Is(ingestErr, billing.ErrMissingUserID):
		return badRequest(c, "Missing user_id in custom data")
	case errors.Is(ingestErr, billing.ErrInvalidPayload):
		return badRequest(c, ingestErr.Error())
	case ingestErr != nil:
		return internalError(c, "webhook", ingestErr)
	}

	if !res.Duplicate && !res.Ignored && wc.deps.Stats != nil {
		wc.deps.Stats.Invalidate(ctx)
	}

	body := fiber.Map{"ok": true, "received": true}
	if res.Duplicate {
		body["duplicate"] = true
	}
	if res.Ignored {
		body["ignored"] = true
	}
	return c.JSON(body)
}
