package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "encore/internal/log"
	"encore/internal/services"
	"encore/internal/validate"
)

type FavoritesHandler struct {
	Fav    *services.FavoritesService
	Tracks *services.TrackService
}

func (h *FavoritesHandler) List(c *fiber.Ctx) error {
	items, err := h.Fav.List(ensureSID(c))
	if err != nil {
		applog.Error(c, "favorites.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load favorites"})
	}
	return render(c, "favorites", fiber.Map{"Items": items})
}

func (h *FavoritesHandler) Save(c *fiber.Ctx) error {
	sid := ensureSID(c)
	tid, ok := validate.ID(c.FormValue("trackId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing trackId")
	}
	if _, err := h.Tracks.Get(tid); err != nil {
		return notFound(c, "Track not found")
	}
	if err := h.Fav.Save(sid, tid); err != nil {
		applog.Error(c, "favorites.save.fail", err, map[string]any{"track": tid})
		return c.Status(fiber.StatusInternalServerError).SendString("Could not save track")
	}
	applog.Audit(c, "favorites.save", map[string]any{"track": tid})
	return c.Redirect("/favorites")
}

func (h *FavoritesHandler) Unsave(c *fiber.Ctx) error {
	sid := ensureSID(c)
	tid, ok := validate.ID(c.FormValue("trackId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing trackId")
	}
	if err := h.Fav.Unsave(sid, tid); err != nil {
		applog.Error(c, "favorites.unsave.fail", err, map[string]any{"track": tid})
		return c.Status(fiber.StatusInternalServerError).SendString("Could not remove track")
	}
	applog.Audit(c, "favorites.unsave", map[string]any{"track": tid})
	return c.Redirect("/favorites")
}
