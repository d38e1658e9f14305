package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"encore/internal/chat"
	"encore/internal/config"
	"encore/internal/http/handlers"
	"encore/internal/repos"
	"encore/internal/services"
)

const templatesDir = "../../web/templates"

// testApp is the site's route table without the global limiters.
type testApp struct {
	app   *fiber.App
	db    *sqlx.DB
	users *repos.UserRepo
	hub   *chat.Hub
	deps  *handlers.Deps
}

func newTestApp(t *testing.T, tweak ...func(*config.Config)) *testApp {
	t.Helper()
	cfg := config.Config{DBDSN: ":memory:", MediaDir: "../../web/media", ChatHistory: 50}
	for _, f := range tweak {
		f(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo, Patrons: services.NewPatronService(repos.NewPatronRepo(db))}
	authH := &handlers.AuthHandler{Auth: authSvc}
	hub := chat.NewHub(cfg.ChatHistory)
	t.Cleanup(hub.Close)

	app := fiber.New(fiber.Config{Views: html.New(templatesDir, ".html"), ErrorHandler: handlers.ErrorHandler})
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Next:           func(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/v1/webhooks/") },
	}))

	deps := handlers.NewDeps(db, cfg, authSvc, hub, nil)
	app.Get("/search", deps.SearchHandler.Search)
	app.Get("/product/:id", deps.ProductHandler.Detail)
	app.Get("/about", deps.TimelineHandler.About)
	app.Get("/tracks", deps.TrackHandler.List)
	app.Get("/tracks/:id", deps.TrackHandler.Detail)
	app.Get("/tracks/:id/lyrics.srt", deps.TrackHandler.Lyrics)
	app.Get("/audio/:id", deps.TrackHandler.Audio)
	app.Get("/live", deps.ChatHandler.Page)
	app.Get("/favorites", deps.FavoritesHandler.List)
	app.Post("/favorites", deps.FavoritesHandler.Save)
	app.Post("/favorites/delete", deps.FavoritesHandler.Unsave)

	api := app.Group("/api/v1")
	api.Get("/availability", deps.InventoryHandler.Check)
	api.Get("/timeline", deps.TimelineHandler.API)
	api.Get("/chat", deps.ChatHandler.History)
	api.Get("/chat/stream", deps.ChatHandler.Stream)
	api.Post("/chat", handlers.RequireUserAPI(authSvc), deps.ChatHandler.Post)
	api.Post("/webhooks/payments", deps.WebhookHandler.Payments)

	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/orders", deps.OrderHandler.Place)
	app.Get("/order/:id", deps.OrderHandler.View)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", authH.Login)

	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", deps.AdminHandler.Dashboard)
	admin.Post("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)
	admin.Post("/inventory", deps.AdminHandler.UpdateInventory)
	admin.Get("/sync/:trackId", deps.SyncHandler.Editor)
	admin.Post("/sync/:trackId/lyrics", deps.SyncHandler.SetLyrics)
	admin.Post("/sync/:trackId/events", deps.SyncHandler.Event)
	admin.Get("/sync/:trackId/srt", deps.SyncHandler.Download)
	admin.Post("/sync/:trackId/publish", deps.SyncHandler.Publish)

	return &testApp{app: app, db: db, users: userRepo, hub: hub, deps: deps}
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// csrfToken fetches a token the way a browser would, from the login page.
func csrfToken(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	tok := cookieValue(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return tok
}

// session binds a fresh sid to userID.
func (ta *testApp) session(t *testing.T, sid, userID string) string {
	t.Helper()
	if err := ta.users.BindSession(sid, userID); err != nil {
		t.Fatalf("bind session: %v", err)
	}
	return sid
}

func (ta *testApp) get(t *testing.T, path, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// postForm submits form with a valid CSRF token, as the site's pages do.
func (ta *testApp) postForm(t *testing.T, path string, form url.Values, sid string) *http.Response {
	t.Helper()
	tok := csrfToken(t, ta.app)
	form.Set("csrf", tok)
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// captureLogs swaps the standard logger output for the duration of fn.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
