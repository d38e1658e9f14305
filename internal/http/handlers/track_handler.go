package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"encore/internal/domain"
	applog "encore/internal/log"
	"encore/internal/services"
	"encore/internal/validate"
)

type TrackHandler struct {
	Tracks  *services.TrackService
	Patrons *services.PatronService
}

func (h *TrackHandler) tier(c *fiber.Ctx) domain.Tier {
	t, err := h.Patrons.TierFor(currentUser(c))
	if err != nil {
		applog.Error(c, "patron.tier.fail", err, nil)
		return domain.TierNone
	}
	return t
}

func (h *TrackHandler) List(c *fiber.Ctx) error {
	tracks, err := h.Tracks.List()
	if err != nil {
		return err
	}
	return render(c, "tracks", fiber.Map{"Tracks": tracks, "Tier": h.tier(c)})
}

func (h *TrackHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Track not found")
	}
	t, err := h.Tracks.Get(id)
	if err != nil {
		return notFound(c, "Track not found")
	}
	tier := h.tier(c)
	return render(c, "track", fiber.Map{"Track": t, "Tier": tier, "Allowed": tier.Includes(t.MinTier)})
}

// gate resolves the track or writes the refusal; ok is false when a response
// has already been sent.
func (h *TrackHandler) gate(c *fiber.Ctx, err error, id string) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, services.ErrTierRequired):
		applog.Security(c, "audio.gate.denied", map[string]any{"track": id})
		return false, c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{
			"Message": "This recording is for patrons. See the patron page to join.",
		})
	case errors.Is(err, services.ErrTrackNotFound):
		return false, notFound(c, "Track not found")
	}
	return false, err
}

// Audio streams the track file. Range requests are handled by SendFile.
func (h *TrackHandler) Audio(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Track not found")
	}
	t, err := h.Tracks.Authorize(id, h.tier(c))
	if ok, rerr := h.gate(c, err, id); !ok {
		return rerr
	}
	path, err := h.Tracks.AudioFile(t)
	if err != nil {
		applog.Security(c, "media.traversal.block", map[string]any{"track": id})
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendFile(path, false)
}

func (h *TrackHandler) Lyrics(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Track not found")
	}
	b, err := h.Tracks.PublishedLyrics(id, h.tier(c))
	if ok, rerr := h.gate(c, err, id); !ok {
		return rerr
	}
	c.Set(fiber.HeaderContentType, "application/x-subrip; charset=utf-8")
	return c.Send(b)
}
