package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "encore/internal/log"
	"encore/internal/services"
	"encore/internal/validate"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
	Tracks  *services.TrackService
}

func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return err
	}
	tracks, err := h.Tracks.List()
	if err != nil {
		return err
	}
	return render(c, "home", fiber.Map{"Categories": cats, "Tracks": tracks})
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	catID, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Category not found")
	}
	cat, err := h.Catalog.GetCategory(catID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "Category not found")
	}
	if err != nil {
		return err
	}
	products, err := h.Catalog.ListProductsByCategory(catID, c.QueryInt("page", 1), 12)
	if err != nil {
		applog.Error(c, "category.list.fail", err, map[string]any{"category": catID})
		return err
	}
	return render(c, "category", fiber.Map{"Category": cat, "Products": products})
}
