package repos

import (
	"github.com/jmoiron/sqlx"

	"encore/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, category_id, title, COALESCE(description,'') AS description, kind, price,
    COALESCE(images_json,'[]') AS images_json, active,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) ListByCategory(catID string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT`+productCols+`
	  FROM products
	  WHERE category_id = ? AND active = 1
	  ORDER BY title
	  LIMIT ? OFFSET ?
	`, catID, limit, offset)
	return out, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT`+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

func (r *ProductRepo) Search(q, catID, kind string, limit, offset int) ([]domain.Product, error) {
	where := `active = 1`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if catID != "" {
		where += ` AND category_id = ?`
		args = append(args, catID)
	}
	if kind != "" {
		where += ` AND kind = ?`
		args = append(args, kind)
	}
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT`+productCols+`
	  FROM products
	  WHERE `+where+`
	  ORDER BY title
	  LIMIT ? OFFSET ?`, args...)
	return out, err
}

// Variants lists the sizes a product is stocked in, including sold-out ones.
func (r *ProductRepo) Variants(productID string) ([]string, error) {
	var out []string
	err := r.db.Select(&out, `
	  SELECT variant FROM inventory WHERE product_id = ?
	  ORDER BY CASE variant
	    WHEN 'XS' THEN 0 WHEN 'S' THEN 1 WHEN 'M' THEN 2 WHEN 'L' THEN 3
	    WHEN 'XL' THEN 4 WHEN 'XXL' THEN 5 ELSE 6 END
	`, productID)
	return out, err
}
