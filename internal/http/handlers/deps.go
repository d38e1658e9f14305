package handlers

import (
	"github.com/jmoiron/sqlx"

	"encore/internal/chat"
	"encore/internal/config"
	"encore/internal/repos"
	"encore/internal/services"
)

type Deps struct {
	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	SearchHandler    *SearchHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	FavoritesHandler *FavoritesHandler
	TrackHandler     *TrackHandler
	PatronHandler    *PatronHandler
	ChatHandler      *ChatHandler
	TimelineHandler  *TimelineHandler
	WebhookHandler   *WebhookHandler
	AdminHandler     *AdminHandler
	SyncHandler      *SyncHandler
}

// NewDeps wires repos and services for every handler. events may be nil, in
// which case webhook dedup uses the database.
func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, hub *chat.Hub, events services.EventLog) *Deps {
	secureCookies = cfg.CookieSecure

	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	favRepo := repos.NewFavoritesRepo(db)
	trackRepo := repos.NewTrackRepo(db)
	lyricRepo := repos.NewLyricRepo(db)
	patronRepo := repos.NewPatronRepo(db)
	timelineRepo := repos.NewTimelineRepo(db)
	if events == nil {
		events = repos.NewEventRepo(db)
	}

	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	invSvc := services.NewInventoryService(invRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	orderSvc := services.NewOrderService(cartRepo, orderRepo, prodRepo)
	favSvc := services.NewFavoritesService(favRepo)
	trackSvc := services.NewTrackService(trackRepo, lyricRepo, cfg.MediaDir)
	patronSvc := services.NewPatronService(patronRepo)
	paySvc := services.NewPaymentsService(events, orderRepo, patronRepo)
	syncSvc := services.NewSyncService(trackRepo, lyricRepo)

	return &Deps{
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc, Tracks: trackSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc, Inv: invSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		SearchHandler:    &SearchHandler{Catalog: catalogSvc, Tracks: trackSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		OrderHandler:     &OrderHandler{Cart: cartSvc, Order: orderSvc, Repo: orderRepo, Auth: auth},
		FavoritesHandler: &FavoritesHandler{Fav: favSvc, Tracks: trackSvc},
		TrackHandler:     &TrackHandler{Tracks: trackSvc, Patrons: patronSvc},
		PatronHandler:    &PatronHandler{Patrons: patronSvc},
		ChatHandler:      &ChatHandler{Hub: hub},
		TimelineHandler:  &TimelineHandler{Repo: timelineRepo},
		WebhookHandler:   &WebhookHandler{Service: paySvc, Secret: []byte(cfg.WebhookSecret)},
		AdminHandler: &AdminHandler{
			OrderRepo: orderRepo, Inv: invRepo, Users: repos.NewUserRepo(db),
			Patrons: patronRepo, Tracks: trackSvc,
		},
		SyncHandler: &SyncHandler{Sync: syncSvc},
	}
}
