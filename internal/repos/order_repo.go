package repos

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"encore/internal/domain"
)

var ErrBadTransition = errors.New("order status change not allowed")

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// ---------- Admin list summary ----------
type OrderSummary struct {
	ID            string          `db:"id"`
	SessionID     string          `db:"session_id"`
	CustomerName  string          `db:"customer_name"`
	CustomerEmail string          `db:"customer_email"`
	Total         decimal.Decimal `db:"total"`
	Status        string          `db:"status"`
	CreatedAt     string          `db:"created_at"`
}

// ---------- Order detail (used by /order/:id) ----------
type OrderRow struct {
	ID          string          `db:"id"`
	SessionID   string          `db:"session_id"`
	UserID      string          `db:"user_id"`
	Country     string          `db:"country"`
	Fulfillment string          `db:"fulfillment"`
	Customer    string          `db:"customer_name"`
	Email       string          `db:"customer_email"`
	Total       decimal.Decimal `db:"total"`
	Status      string          `db:"status"`
	CreatedAt   string          `db:"created_at"`
}

type OrderItemRow struct {
	ProductID string          `db:"product_id"`
	Title     string          `db:"title"`
	Kind      string          `db:"kind"`
	Variant   string          `db:"variant"`
	Qty       int             `db:"qty"`
	Price     decimal.Decimal `db:"price"`
	Subtotal  decimal.Decimal `db:"subtotal"`
}

type NewOrder struct {
	ID          string
	SessionID   string
	Country     string
	Fulfillment string
	Name        string
	Email       string
	Total       decimal.Decimal
}

type NewOrderItem struct {
	ProductID string
	Variant   string
	Qty       int
	Price     decimal.Decimal
	Kind      string
}

// CreateWithHold takes stock for every line, writes the order and empties the
// cart in one transaction. Nothing is written if any line is short.
func (r *OrderRepo) CreateWithHold(o NewOrder, items []NewOrderItem, cartID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, it := range items {
		if err := decrement(tx, it.ProductID, it.Variant, it.Qty); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`
	  INSERT INTO orders
	    (id, session_id, country, fulfillment, customer_name, customer_email, total, status, created_at)
	  VALUES
	    (?,  ?,          ?,       ?,           ?,             ?,              ?,     ?,      CURRENT_TIMESTAMP)
	`, o.ID, o.SessionID, o.Country, o.Fulfillment, o.Name, o.Email, o.Total.InexactFloat64(), domain.OrderPendingPayment); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, product_id, variant, qty, price, kind)
		  VALUES(?, ?, ?, ?, ?, ?)
		`, o.ID, it.ProductID, it.Variant, it.Qty, it.Price.InexactFloat64(), it.Kind); err != nil {
			return err
		}
	}
	if cartID != "" {
		if _, err := tx.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) Get(orderID string) (OrderRow, []OrderItemRow, error) {
	var o OrderRow
	if err := r.db.Get(&o, `
		SELECT o.id, COALESCE(o.session_id,'') AS session_id, COALESCE(s.user_id,'') AS user_id,
		       o.country, o.fulfillment, COALESCE(o.customer_name,'') AS customer_name,
		       COALESCE(o.customer_email,'') AS customer_email, o.total, o.status, o.created_at
		FROM orders o
		LEFT JOIN sessions s ON s.id = o.session_id
		WHERE o.id = ?
	`, orderID); err != nil {
		return OrderRow{}, nil, err
	}

	items := []OrderItemRow{}
	if err := r.db.Select(&items, `
		SELECT oi.product_id, p.title, oi.kind, oi.variant, oi.qty, oi.price, (oi.qty * oi.price) AS subtotal
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY p.title, oi.variant
	`, orderID); err != nil {
		return OrderRow{}, nil, err
	}

	return o, items, nil
}

const summaryCols = `o.id, COALESCE(o.session_id,'') AS session_id, COALESCE(o.customer_name,'') AS customer_name,
		       COALESCE(o.customer_email,'') AS customer_email, o.total, o.status, o.created_at`

func (r *OrderRepo) ListLatest(limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT `+summaryCols+`
		FROM orders o
		ORDER BY datetime(o.created_at) DESC
		LIMIT ?
	`, limit)
	return out, err
}

// ListByUser returns orders for a given user via session linkage.
func (r *OrderRepo) ListByUser(userID string) ([]OrderSummary, error) {
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT `+summaryCols+`
		FROM orders o
		JOIN sessions s ON s.id = o.session_id
		WHERE s.user_id = ?
		ORDER BY datetime(o.created_at) DESC
	`, userID)
	return out, err
}

// ListBySession returns orders tied to a session id (anonymous or pre-login orders).
func (r *OrderRepo) ListBySession(sessionID string) ([]OrderSummary, error) {
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT `+summaryCols+`
		FROM orders o
		WHERE o.session_id = ?
		ORDER BY datetime(o.created_at) DESC
	`, sessionID)
	return out, err
}

// Transition moves an order to status `to` if the status machine allows it.
// Canceling a pending order puts its stock back.
func (r *OrderRepo) Transition(id, to string) (from string, err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if from, err = transition(tx, id, to); err != nil {
		return from, err
	}
	return from, tx.Commit()
}

// Payment is a processor charge or refund. Zero AmountCents on a refund
// means the full charged amount.
type Payment struct {
	EventID     string
	Kind        string
	AmountCents int64
}

const (
	PaymentCharge = "CHARGE"
	PaymentRefund = "REFUND"
)

// Settle applies a status change together with the payment that caused it.
// Either both are stored or neither is.
func (r *OrderRepo) Settle(id, to string, p Payment) (from string, err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if from, err = transition(tx, id, to); err != nil {
		return from, err
	}
	amount := p.AmountCents
	if amount == 0 && p.Kind == PaymentRefund {
		if amount, err = paidCents(tx, id); err != nil {
			return from, err
		}
	}
	if _, err := tx.Exec(`
		INSERT INTO payments(event_id, order_id, kind, amount_cents) VALUES(?,?,?,?)
		ON CONFLICT(event_id) DO NOTHING
	`, p.EventID, id, p.Kind, amount); err != nil {
		return from, err
	}
	return from, tx.Commit()
}

func transition(tx *sqlx.Tx, id, to string) (from string, err error) {
	if err := tx.Get(&from, `SELECT status FROM orders WHERE id = ?`, id); err != nil {
		return "", err
	}
	if !domain.CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrBadTransition, from, to)
	}
	if _, err := tx.Exec(`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, to, id); err != nil {
		return from, err
	}
	if to != domain.OrderCanceled {
		return from, nil
	}
	var lines []struct {
		ProductID string `db:"product_id"`
		Variant   string `db:"variant"`
		Qty       int    `db:"qty"`
	}
	if err := tx.Select(&lines, `SELECT product_id, variant, qty FROM order_items WHERE order_id = ?`, id); err != nil {
		return from, err
	}
	for _, l := range lines {
		if err := restock(tx, l.ProductID, l.Variant, l.Qty); err != nil {
			return from, err
		}
	}
	return from, nil
}

func paidCents(q sqlx.Queryer, orderID string) (int64, error) {
	var n sql.NullInt64
	err := sqlx.Get(q, &n, `SELECT SUM(amount_cents) FROM payments WHERE order_id = ? AND kind = 'CHARGE'`, orderID)
	return n.Int64, err
}

func (r *OrderRepo) PaidCents(orderID string) (int64, error) { return paidCents(r.db, orderID) }

func (r *OrderRepo) CountByStatus() (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.Select(&rows, `SELECT status, COUNT(*) AS n FROM orders GROUP BY status`); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
