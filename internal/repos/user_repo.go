package repos

import (
	"github.com/jmoiron/sqlx"

	"encore/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT id,email,name,password_hash,role FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT id,email,name,password_hash,role FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type UserRow struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Role  string `db:"role"`
}

// ListCustomers lists non-admin accounts.
func (r *UserRepo) ListCustomers() ([]UserRow, error) {
	var out []UserRow
	err := r.DB.Select(&out, `SELECT id,email,name,role FROM users WHERE role != 'ADMIN' ORDER BY email`)
	return out, err
}

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT u.id,u.email,u.name,u.password_hash,u.role
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}

// DeleteUserCascade deletes a user with their sessions, carts and favorites.
// Unpaid orders from those sessions are canceled and their stock released;
// every order row is kept for bookkeeping.
func (r *UserRepo) DeleteUserCascade(userID string) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var sessionIDs []string
	if err := tx.Select(&sessionIDs, `SELECT id FROM sessions WHERE user_id=?`, userID); err != nil {
		return err
	}

	if len(sessionIDs) > 0 {
		var pending []struct {
			ProductID string `db:"product_id"`
			Variant   string `db:"variant"`
			Qty       int    `db:"qty"`
		}
		query, args, err := sqlx.In(`
			SELECT oi.product_id, oi.variant, oi.qty
			FROM order_items oi JOIN orders o ON o.id = oi.order_id
			WHERE o.status = 'PENDING_PAYMENT' AND o.session_id IN (?)`, sessionIDs)
		if err != nil {
			return err
		}
		if err := tx.Select(&pending, query, args...); err != nil {
			return err
		}
		for _, p := range pending {
			if err := restock(tx, p.ProductID, p.Variant, p.Qty); err != nil {
				return err
			}
		}

		stmts := []string{
			`UPDATE orders SET status='CANCELED', updated_at=CURRENT_TIMESTAMP WHERE status='PENDING_PAYMENT' AND session_id IN (?)`,
			`DELETE FROM carts WHERE session_id IN (?)`,
			`DELETE FROM favorites WHERE session_id IN (?)`,
			`DELETE FROM sessions WHERE id IN (?)`,
		}
		for _, s := range stmts {
			query, args, err := sqlx.In(s, sessionIDs)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(query, args...); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(`DELETE FROM users WHERE id=?`, userID); err != nil {
		return err
	}

	return tx.Commit()
}
