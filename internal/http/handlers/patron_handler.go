package handlers

import (
	"github.com/gofiber/fiber/v2"

	"encore/internal/services"
)

type PatronHandler struct {
	Patrons *services.PatronService
}

func (h *PatronHandler) Page(c *fiber.Ctx) error {
	tiers, err := h.Patrons.Tiers()
	if err != nil {
		return err
	}
	current, err := h.Patrons.TierFor(currentUser(c))
	if err != nil {
		return err
	}
	return render(c, "patrons", fiber.Map{"Tiers": tiers, "Current": current})
}
