package handlers

import (
	"github.com/gofiber/fiber/v2"

	"encore/internal/repos"
)

type TimelineHandler struct {
	Repo *repos.TimelineRepo
}

func (h *TimelineHandler) About(c *fiber.Ctx) error {
	events, err := h.Repo.List()
	if err != nil {
		return err
	}
	return render(c, "about", fiber.Map{"Events": events})
}

func (h *TimelineHandler) API(c *fiber.Ctx) error {
	events, err := h.Repo.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load timeline"})
	}
	return c.JSON(fiber.Map{"events": events})
}
