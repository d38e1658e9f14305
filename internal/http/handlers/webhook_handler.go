package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "encore/internal/log"
	"encore/internal/repos"
	"encore/internal/services"
	"encore/internal/webhook"
)

type WebhookHandler struct {
	Service *services.PaymentsService
	Secret  []byte
	Now     func() time.Time
}

func (h *WebhookHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Payments handles POST /api/v1/webhooks/payments. The processor retries
// anything that is not 2xx, so only transient failures answer 5xx.
func (h *WebhookHandler) Payments(c *fiber.Ctx) error {
	if len(h.Secret) == 0 {
		applog.Error(c, "webhook.payments.unconfigured", errors.New("WEBHOOK_SECRET not set"), nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "webhooks not configured"})
	}
	body := append([]byte(nil), c.Body()...)
	if err := webhook.Verify(h.Secret, c.Get(webhook.Header), body, h.now(), webhook.DefaultTolerance); err != nil {
		applog.Security(c, "webhook.payments.reject", map[string]any{"reason": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid signature"})
	}
	e, err := webhook.Decode(body)
	if err != nil {
		applog.Security(c, "webhook.payments.reject", map[string]any{"reason": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed event"})
	}

	out, err := h.Service.Process(c.UserContext(), e)
	fields := map[string]any{"event_id": e.ID, "type": e.Type}
	if err != nil {
		if permanent(err) {
			applog.Security(c, "webhook.payments.unprocessable", mergeFields(fields, "reason", err.Error()))
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		applog.Error(c, "webhook.payments.fail", err, fields)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing failed"})
	}
	applog.Audit(c, "webhook.payments."+string(out), fields)
	return c.JSON(fiber.Map{"received": true, "outcome": out})
}

func permanent(err error) bool {
	for _, target := range []error{
		services.ErrAmountMismatch, services.ErrUnknownOrder, services.ErrBadPatron,
		repos.ErrBadTransition, webhook.ErrBadEvent,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func mergeFields(m map[string]any, k string, v any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for key, val := range m {
		out[key] = val
	}
	out[k] = v
	return out
}
