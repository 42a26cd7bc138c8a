package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// Global admin controller instance
var adminController *AdminController

// InitializeAdminController initializes the global admin controller
func InitializeAdminController(deps *Dependencies) {
	adminController = NewAdminController(deps)
}

// GetAdminController returns the global admin controller instance
func GetAdminController() *AdminController {
	if adminController == nil {
		panic("admin controller not initialized. Call InitializeAdminController first.")
	}
	return adminController
}

// Adapter functions used by the router

func HandleAdminStats(c *fiber.Ctx) error {
	return GetAdminController().HandleStats(c)
}

func HandleAdminProducts(c *fiber.Ctx) error {
	return GetAdminController().HandleListProducts(c)
}

func HandleAdminProductCreate(c *fiber.Ctx) error {
	return GetAdminController().HandleCreateProduct(c)
}

func HandleAdminProductUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleUpdateProduct(c)
}

func HandleAdminProductDelete(c *fiber.Ctx) error {
	return GetAdminController().HandleDeleteProduct(c)
}

func HandleAdminClasses(c *fiber.Ctx) error {
	return GetAdminController().HandleListClasses(c)
}

func HandleAdminClassCreate(c *fiber.Ctx) error {
	return GetAdminController().HandleCreateClass(c)
}

func HandleAdminClassUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleUpdateClass(c)
}

func HandleAdminClassDelete(c *fiber.Ctx) error {
	return GetAdminController().HandleDeleteClass(c)
}

func HandleAdminTestimonials(c *fiber.Ctx) error {
	return GetAdminController().HandleListTestimonials(c)
}

func HandleAdminTestimonialCreate(c *fiber.Ctx) error {
	return GetAdminController().HandleCreateTestimonial(c)
}

func HandleAdminTestimonialUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleUpdateTestimonial(c)
}

func HandleAdminTestimonialDelete(c *fiber.Ctx) error {
	return GetAdminController().HandleDeleteTestimonial(c)
}

func HandleAdminMessages(c *fiber.Ctx) error {
	return GetAdminController().HandleListMessages(c)
}

func HandleAdminMessageUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleUpdateMessage(c)
}

func HandleAdminMessageDelete(c *fiber.Ctx) error {
	return GetAdminController().HandleDeleteMessage(c)
}

func HandleAdminEnrollments(c *fiber.Ctx) error {
	return GetAdminController().HandleListEnrollments(c)
}

func HandleAdminEnrollmentConfirm(c *fiber.Ctx) error {
	return GetAdminController().HandleConfirmEnrollment(c)
}

func HandleAdminOrders(c *fiber.Ctx) error {
	return GetAdminController().HandleListOrders(c)
}
