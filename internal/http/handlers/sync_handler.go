package handlers

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "encore/internal/log"
	"encore/internal/lyricsync"
	"encore/internal/services"
	"encore/internal/srt"
	"encore/internal/validate"
)

type SyncHandler struct {
	Sync *services.SyncService
}

func (h *SyncHandler) trackID(c *fiber.Ctx) (string, bool) {
	return validate.ID(c.Params("trackId"))
}

func (h *SyncHandler) page(c *fiber.Ctx, status int, v services.SyncView, msg, errMsg string) error {
	c.Status(status)
	return render(c, "admin_sync", fiber.Map{"S": v, "Msg": msg, "Err": errMsg})
}

// GET /admin/sync/:trackId
func (h *SyncHandler) Editor(c *fiber.Ctx) error {
	id, ok := h.trackID(c)
	if !ok {
		return notFound(c, "Track not found")
	}
	v, err := h.Sync.Load(id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "Track not found")
	}
	if err != nil {
		return err
	}
	msg := ""
	if c.Query("published") != "" {
		msg = "Lyrics published"
	}
	return h.page(c, fiber.StatusOK, v, msg, "")
}

// POST /admin/sync/:trackId/lyrics
func (h *SyncHandler) SetLyrics(c *fiber.Ctx) error {
	id, ok := h.trackID(c)
	if !ok {
		return notFound(c, "Track not found")
	}
	text, ok := validate.Lyrics(c.FormValue("lyrics"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "lyrics"})
		v, _ := h.Sync.Load(id)
		return h.page(c, fiber.StatusBadRequest, v, "", "Lyrics must be plain text, up to 16 KiB")
	}
	v, err := h.Sync.SetLyrics(id, text)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "Track not found")
	}
	if err != nil {
		return err
	}
	applog.Audit(c, "sync.lyrics", map[string]any{"track": id, "lines": len(v.Lines)})
	return c.Redirect("/admin/sync/" + id)
}

// POST /admin/sync/:trackId/events with event=press|release|undo|reset and
// at_ms. Answers with the session state as JSON.
func (h *SyncHandler) Event(c *fiber.Ctx) error {
	id, ok := h.trackID(c)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown track"})
	}
	e := lyricsync.Event{Kind: lyricsync.Kind(c.FormValue("event"))}
	if e.Kind == lyricsync.Press || e.Kind == lyricsync.Release {
		ms, ok := validate.AtMs(c.FormValue("at_ms"))
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "at_ms must be a non-negative number of milliseconds"})
		}
		e.At = time.Duration(ms) * time.Millisecond
	}

	v, err := h.Sync.Apply(id, e)
	switch {
	case err == nil:
		applog.Info(c, "sync.event", map[string]any{"track": id, "event": string(e.Kind), "cursor": v.Cursor})
		return c.JSON(v)
	case errors.Is(err, sql.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown track"})
	case errors.Is(err, lyricsync.ErrUnknownEvent):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case isSyncRejection(err):
		cur, lerr := h.Sync.Load(id)
		if lerr != nil {
			return lerr
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "state": cur})
	}
	applog.Error(c, "sync.event.fail", err, map[string]any{"track": id})
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not record event"})
}

func isSyncRejection(err error) bool {
	for _, target := range []error{
		lyricsync.ErrNoLines, lyricsync.ErrFinished, lyricsync.ErrAlreadyPressed, lyricsync.ErrNotPressed,
		lyricsync.ErrNegativeTime, lyricsync.ErrBeforePrevious, lyricsync.ErrTooShort, lyricsync.ErrNothingToUndo,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// GET /admin/sync/:trackId/srt
func (h *SyncHandler) Download(c *fiber.Ctx) error {
	id, ok := h.trackID(c)
	if !ok {
		return notFound(c, "Track not found")
	}
	b, err := h.Sync.SRT(id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "Track not found")
	}
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/x-subrip; charset=utf-8")
	c.Attachment(id + ".srt")
	return c.Send(b)
}

// POST /admin/sync/:trackId/publish
func (h *SyncHandler) Publish(c *fiber.Ctx) error {
	id, ok := h.trackID(c)
	if !ok {
		return notFound(c, "Track not found")
	}
	err := h.Sync.Publish(id)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(c, "Track not found")
	}
	if err != nil {
		if errors.Is(err, services.ErrSyncIncomplete) || errors.Is(err, srt.ErrOverlap) ||
			errors.Is(err, srt.ErrBadRange) || errors.Is(err, srt.ErrEmptyText) {
			v, lerr := h.Sync.Load(id)
			if lerr != nil {
				return lerr
			}
			applog.Security(c, "sync.publish.refused", map[string]any{"track": id, "reason": err.Error()})
			return h.page(c, fiber.StatusConflict, v, "", err.Error())
		}
		return err
	}
	applog.Audit(c, "sync.publish", map[string]any{"track": id})
	return c.Redirect("/admin/sync/" + id + "?published=1")
}
