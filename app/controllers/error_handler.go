package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// ErrorHandler renders errors that escape a handler in the JSON envelope.
// fiber errors keep their status, anything else becomes a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return errorResponse(c, fe.Code, statusCode(fe.Code), fe.Message)
	}
	log.Errorf("%s %s: unhandled error: %v", c.Method(), c.Path(), err)
	return errorResponse(c, fiber.StatusInternalServerError, "internal_error", err.Error())
}
