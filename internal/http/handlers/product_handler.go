package handlers

import (
	"github.com/gofiber/fiber/v2"

	"encore/internal/domain"
	"encore/internal/log"
	"encore/internal/services"
	"encore/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Inv     *services.InventoryService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil || p.ID == "" || !p.Active {
		return notFound(c, "This item is no longer available")
	}
	variants, err := h.Catalog.Variants(id)
	if err != nil {
		return err
	}
	avail := make([]domain.Availability, 0, len(variants))
	for _, v := range variants {
		a, err := h.Inv.CheckAvailability(id, v)
		if err != nil {
			return err
		}
		avail = append(avail, a)
	}
	return render(c, "product", fiber.Map{"P": p, "Sizes": avail})
}
