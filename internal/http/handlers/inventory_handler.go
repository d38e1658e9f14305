package handlers

import (
	"github.com/gofiber/fiber/v2"

	"encore/internal/services"
	"encore/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// Check answers GET /api/v1/availability?productId=..&variant=..
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	variant, ok := validate.Variant(c.Query("variant"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown size"})
	}

	avail, err := h.Inv.CheckAvailability(productID, variant)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not check stock"})
	}
	return c.JSON(avail)
}
