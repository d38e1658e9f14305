package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"encore/internal/chat"
	applog "encore/internal/log"
)

const keepAliveEvery = 15 * time.Second

type ChatHandler struct {
	Hub *chat.Hub
}

func (h *ChatHandler) Page(c *fiber.Ctx) error {
	return render(c, "chat", fiber.Map{"Messages": h.Hub.Since(0)})
}

// History answers GET /api/v1/chat?after=<id>.
func (h *ChatHandler) History(c *fiber.Ctx) error {
	after := int64(c.QueryInt("after", 0))
	if after < 0 {
		after = 0
	}
	return c.JSON(fiber.Map{"messages": h.Hub.Since(after)})
}

func (h *ChatHandler) Post(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}
	m, err := h.Hub.Post(u.DisplayName(), c.FormValue("body"))
	switch {
	case errors.Is(err, chat.ErrEmpty), errors.Is(err, chat.ErrTooLong):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, chat.ErrClosed):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "chat is offline"})
	case err != nil:
		return err
	}
	applog.Info(c, "chat.post", map[string]any{"message_id": m.ID})
	return c.Status(fiber.StatusCreated).JSON(m)
}

func writeEvent(w *bufio.Writer, m chat.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %d\nevent: message\ndata: %s\n\n", m.ID, b); err != nil {
		return err
	}
	return w.Flush()
}

// Stream is a Server-Sent Events feed. A reconnecting client resumes from
// Last-Event-ID (or ?after) using the hub's history.
func (h *ChatHandler) Stream(c *fiber.Ctx) error {
	after := int64(c.QueryInt("after", 0))
	if n, err := strconv.ParseInt(c.Get("Last-Event-ID"), 10, 64); err == nil && n > 0 {
		after = n
	}

	// Subscribe before reading history so nothing posted in between is lost.
	ch, cancel := h.Hub.Subscribe(32)
	backlog := h.Hub.Since(after)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
	applog.Info(c, "chat.stream.open", map[string]any{"after": after})

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		last := after
		for _, m := range backlog {
			if err := writeEvent(w, m); err != nil {
				return
			}
			last = m.ID
		}
		tick := time.NewTicker(keepAliveEvery)
		defer tick.Stop()
		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				if m.ID <= last {
					continue
				}
				if err := writeEvent(w, m); err != nil {
					return
				}
				last = m.ID
			case <-tick.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}
