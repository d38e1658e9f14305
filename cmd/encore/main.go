package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"

	"encore/internal/chat"
	"encore/internal/config"
	"encore/internal/http/handlers"
	applog "encore/internal/log"
	"encore/internal/repos"
	"encore/internal/services"
	"encore/internal/shutdown"
)

const webhookPrefix = "/api/v1/webhooks/"

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Webhook dedup: Redis when configured, else the events table.
	var events services.EventLog
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer rdb.Close()
		events = repos.NewRedisEventLog(rdb)
		log.Printf("[webhook] dedup via redis at %s", cfg.RedisAddr)
	}

	hub := chat.NewHub(cfg.ChatHistory)

	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo, Patrons: services.NewPatronService(repos.NewPatronRepo(db))}
	authH := &handlers.AuthHandler{Auth: authSvc}

	engine := html.New(cfg.TemplatesDir, ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool { return strings.HasSuffix(c.Path(), "/stream") },
	}))
	app.Use(helmet.New())
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/") ||
				strings.HasPrefix(p, "/audio/") || strings.HasPrefix(p, webhookPrefix)
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		// Processor callbacks are authenticated by their signature instead.
		Next: func(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), webhookPrefix) },
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf")})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	cfg.MediaDir = mediaDir
	log.Printf("[static] /static -> ./web/static")
	log.Printf("[static] /media  -> %s", mediaDir)

	app.Static("/static", "./web/static")
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc, hub, events)

	// Public pages
	app.Get("/", deps.CategoryHandler.Home)
	app.Get("/search", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), deps.SearchHandler.Search)
	app.Get("/category/:id", deps.CategoryHandler.List)
	app.Get("/product/:id", deps.ProductHandler.Detail)
	app.Get("/about", deps.TimelineHandler.About)
	app.Get("/patrons", deps.PatronHandler.Page)

	// Music
	app.Get("/tracks", deps.TrackHandler.List)
	app.Get("/tracks/:id", deps.TrackHandler.Detail)
	app.Get("/tracks/:id/lyrics.srt", deps.TrackHandler.Lyrics)
	app.Get("/audio/:id", deps.TrackHandler.Audio)
	app.Get("/favorites", deps.FavoritesHandler.List)
	app.Post("/favorites", deps.FavoritesHandler.Save)
	app.Post("/favorites/delete", deps.FavoritesHandler.Unsave)
	app.Get("/live", deps.ChatHandler.Page)

	// API
	api := app.Group("/api/v1")
	availLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/availability", availLimiter, deps.InventoryHandler.Check)
	api.Get("/timeline", deps.TimelineHandler.API)
	api.Get("/chat", deps.ChatHandler.History)
	api.Get("/chat/stream", deps.ChatHandler.Stream)
	api.Post("/chat", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|chat"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.chat.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "slow down"})
		},
	}), handlers.RequireUserAPI(authSvc), deps.ChatHandler.Post)
	api.Post("/webhooks/payments", deps.WebhookHandler.Payments)

	// Cart & Orders
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/cart/delete", deps.CartHandler.Remove)
	app.Get("/checkout", deps.OrderHandler.Checkout)
	app.Post("/orders", deps.OrderHandler.Place)
	app.Get("/order/:id", deps.OrderHandler.View)
	app.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.History)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Admin
	adminH := deps.AdminHandler
	syncH := deps.SyncHandler
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", adminH.Dashboard)
	admin.Get("/orders", adminH.OrdersPage)
	admin.Post("/orders/:id/status", adminH.UpdateOrderStatus)
	admin.Get("/inventory", adminH.Inventory)
	admin.Post("/inventory", adminH.UpdateInventory)
	admin.Get("/users", adminH.UsersPage)
	admin.Post("/users/:id/delete", adminH.DeleteUser)
	admin.Get("/sync/:trackId", syncH.Editor)
	admin.Post("/sync/:trackId/lyrics", syncH.SetLyrics)
	admin.Post("/sync/:trackId/events", syncH.Event)
	admin.Get("/sync/:trackId/srt", syncH.Download)
	admin.Post("/sync/:trackId/publish", syncH.Publish)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			applog.System("server.listen", err, map[string]any{"port": cfg.Port})
			cancel()
		}
	}()

	<-ctx.Done()
	applog.System("server.shutdown", nil, nil)
	// Open SSE streams end when the hub closes.
	hub.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		applog.System("server.shutdown", err, nil)
	}
}
