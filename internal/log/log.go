// Package log writes one JSON object per line through the standard logger.
package log

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"encore/internal/domain"
)

const (
	levelInfo  = "info"
	levelAudit = "audit"
	levelWarn  = "warn"
	levelError = "error"
)

type entry struct {
	TS        string         `json:"ts"`
	Level     string         `json:"level"`
	ReqID     string         `json:"req_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Action    string         `json:"action,omitempty"`
	Status    int            `json:"status,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// request copies what the middlewares left on c into e.
func (e *entry) request(c *fiber.Ctx) {
	e.IP, e.Method, e.Path = c.IP(), c.Method(), c.Path()
	e.Status = c.Response().StatusCode()
	if rid, ok := c.Locals("requestid").(string); ok {
		e.ReqID = rid
	}
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		e.UserID = u.ID
	}
	if start, ok := c.Locals("started").(time.Time); ok {
		e.LatencyMs = time.Since(start).Milliseconds()
	}
}

func emit(level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	e := entry{TS: time.Now().UTC().Format(time.RFC3339), Level: level, Action: action, Fields: fields}
	if c != nil {
		e.request(c)
	}
	if err != nil {
		e.Err = err.Error()
	}
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { emit(levelInfo, c, action, nil, fields) }

// Audit records a state change an operator may need to trace later.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	emit(levelAudit, c, action, nil, fields)
}

// Security records refused or suspicious requests.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	emit(levelWarn, c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	emit(levelError, c, action, err, fields)
}

// System logs outside a request (startup, shutdown, background work).
func System(action string, err error, fields map[string]any) {
	level := levelInfo
	if err != nil {
		level = levelError
	}
	emit(level, nil, action, err, fields)
}
