package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"encore/internal/domain"
	"encore/internal/log"
	"encore/internal/services"
	"encore/internal/validate"
)

// SearchHandler serves the shop search. Tracks are matched by title and
// album alongside merch unless a merch kind is picked.
type SearchHandler struct {
	Catalog *services.CatalogService
	Tracks  *services.TrackService
}

func (h *SearchHandler) results(q, kind string, products []domain.Product, tracks []domain.Track) fiber.Map {
	return fiber.Map{
		"Q": q, "Kind": kind, "Products": products, "Tracks": tracks,
		"Count": len(products) + len(tracks),
	}
}

func (h *SearchHandler) reject(c *fiber.Ctx, q, field, msg string) error {
	log.Security(c, "validation.fail", map[string]any{"field": field, "value": c.Query(field)})
	m := h.results(q, "", nil, nil)
	m["Err"] = msg
	return c.Status(fiber.StatusBadRequest).Render("search", m)
}

// GET /search?q=&category=&kind=
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		return render(c, "search", h.results("", "", nil, nil))
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		return h.reject(c, "", "q", "Enter a valid keyword (letters/numbers only)")
	}
	q = strings.ToLower(q)

	category := strings.TrimSpace(c.Query("category"))
	if _, ok := validate.ID(category); category != "" && !ok {
		return h.reject(c, q, "category", "Invalid category")
	}
	kind := strings.TrimSpace(c.Query("kind"))
	if kind != "" {
		if kind, ok = validate.Kind(kind); !ok {
			return h.reject(c, q, "kind", "Invalid filter")
		}
	}

	products, err := h.Catalog.Search(q, category, kind, 1, 20)
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load results. Please retry."})
	}
	var tracks []domain.Track
	if kind == "" && category == "" && h.Tracks != nil {
		if tracks, err = h.Tracks.Search(q); err != nil {
			log.Error(c, "search.tracks.error", err, nil)
			tracks = nil
		}
	}

	m := h.results(q, kind, products, tracks)
	m["CategoryID"] = category
	return render(c, "search", m)
}
