package repos

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Row used by admin inventory pages
type InventoryRow struct {
	ProductID string `db:"product_id"`
	Title     string `db:"title"`
	Variant   string `db:"variant"`
	Qty       int    `db:"qty"`
}

func (r *InventoryRepo) ListAll() ([]InventoryRow, error) {
	var rows []InventoryRow
	err := r.db.Select(&rows, `
		SELECT i.product_id, p.title, i.variant, i.qty
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		ORDER BY p.title, i.variant
	`)
	return rows, err
}

// Qty returns current stock for a product variant.
// If no row exists, it returns sql.ErrNoRows from sqlx.Get.
func (r *InventoryRepo) Qty(productID, variant string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `
		SELECT qty FROM inventory
		WHERE product_id = ? AND variant = ?
	`, productID, variant)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// UpsertQty sets qty for (productID, variant) creating the row if needed.
func (r *InventoryRepo) UpsertQty(productID, variant string, qty int) error {
	_, err := r.db.Exec(`
		INSERT INTO inventory(product_id, variant, qty, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(product_id, variant) DO UPDATE SET qty = excluded.qty, updated_at = CURRENT_TIMESTAMP
	`, productID, variant, qty)
	return err
}

// decrement subtracts by units inside tx when enough stock exists.
func decrement(tx *sqlx.Tx, productID, variant string, by int) error {
	res, err := tx.Exec(`
		UPDATE inventory
		SET qty = qty - ?, updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND variant = ? AND qty >= ?
	`, by, productID, variant, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w for %s/%s", ErrInsufficientStock, productID, variant)
	}
	return nil
}

func restock(tx *sqlx.Tx, productID, variant string, by int) error {
	_, err := tx.Exec(`
		INSERT INTO inventory(product_id, variant, qty, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(product_id, variant) DO UPDATE SET qty = qty + excluded.qty, updated_at = CURRENT_TIMESTAMP
	`, productID, variant, by)
	return err
}
