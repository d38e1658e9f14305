package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

type Product struct {
	ID          string          `db:"id"`
	CategoryID  string          `db:"category_id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Kind        string          `db:"kind"` // APPAREL | VINYL | CD | CASSETTE | ACCESSORY
	Price       decimal.Decimal `db:"price"`
	ImagesJSON  string          `db:"images_json"`
	Active      bool            `db:"active"`
	CreatedAt   string          `db:"created_at"`
	UpdatedAt   string          `db:"updated_at"`
}

type Availability struct {
	Status  string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Variant string `json:"variant"`
	Qty     int    `json:"qty,omitempty"`
}

// Order statuses.
const (
	OrderPendingPayment = "PENDING_PAYMENT"
	OrderPaid           = "PAID"
	OrderFulfilled      = "FULFILLED"
	OrderCanceled       = "CANCELED"
	OrderRefunded       = "REFUNDED"
)

var orderTransitions = map[string][]string{
	OrderPendingPayment: {OrderPaid, OrderCanceled},
	OrderPaid:           {OrderFulfilled, OrderRefunded},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Track struct {
	ID         string `db:"id"`
	Title      string `db:"title"`
	Album      string `db:"album"`
	DurationMs int64  `db:"duration_ms"`
	AudioPath  string `db:"audio_path"`
	MinTier    Tier   `db:"min_tier"`
	HasLyrics  bool   `db:"has_lyrics"`
	Position   int    `db:"position"`
}

type TimelineEvent struct {
	ID         string `db:"id" json:"id"`
	OccurredOn string `db:"occurred_on" json:"occurred_on"`
	Title      string `db:"title" json:"title"`
	Body       string `db:"body" json:"body"`
}
