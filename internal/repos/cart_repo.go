package repos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

type CartItemRow struct {
	ProductID  string          `db:"product_id"`
	Title      string          `db:"title"`
	Kind       string          `db:"kind"`
	Variant    string          `db:"variant"`
	Qty        int             `db:"qty"`
	PriceAtAdd decimal.Decimal `db:"price_at_add"`
	Subtotal   decimal.Decimal `db:"subtotal"`
}

func (r *CartRepo) EnsureCart(sessionID string) (string, error) {
	var cartID string
	if err := r.db.Get(&cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID); err == nil {
		return cartID, nil
	}
	_, err := r.db.Exec(`INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (r *CartRepo) UpsertItem(cartID, productID, variant string, qty int, price decimal.Decimal) error {
	_, err := r.db.Exec(`
		INSERT INTO cart_items(cart_id,product_id,variant,qty,price_at_add,created_at)
		VALUES(?,?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(cart_id,product_id,variant) DO UPDATE
		SET qty = MIN(cart_items.qty + excluded.qty, 50), updated_at = CURRENT_TIMESTAMP
	`, cartID, productID, variant, qty, price.InexactFloat64())
	return err
}

func (r *CartRepo) RemoveItem(cartID, productID, variant string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id=? AND product_id=? AND variant=?`,
		cartID, productID, variant)
	return err
}

// View lists the cart at current catalog prices.
func (r *CartRepo) View(cartID string) ([]CartItemRow, decimal.Decimal, error) {
	rows := []CartItemRow{}
	if err := r.db.Select(&rows, `
	  SELECT ci.product_id, p.title, p.kind, ci.variant, ci.qty, p.price AS price_at_add,
	         (ci.qty*p.price) AS subtotal
	  FROM cart_items ci JOIN products p ON p.id=ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY p.title, ci.variant
	`, cartID); err != nil {
		return nil, decimal.Zero, err
	}
	total := decimal.Zero
	for _, it := range rows {
		total = total.Add(it.Subtotal)
	}
	return rows, total, nil
}

type CartItem struct {
	ProductID  string          `db:"product_id"`
	Variant    string          `db:"variant"`
	Qty        int             `db:"qty"`
	PriceAtAdd decimal.Decimal `db:"price_at_add"`
}

func (r *CartRepo) Items(cartID string) ([]CartItem, error) {
	var out []CartItem
	err := r.db.Select(&out, `
	  SELECT product_id, variant, qty, price_at_add FROM cart_items WHERE cart_id = ? ORDER BY product_id, variant
	`, cartID)
	return out, err
}

func (r *CartRepo) Clear(cartID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}
