package repos

import (
	"github.com/jmoiron/sqlx"

	"encore/internal/domain"
)

type PatronRepo struct{ db *sqlx.DB }

func NewPatronRepo(db *sqlx.DB) *PatronRepo { return &PatronRepo{db: db} }

func (r *PatronRepo) Tiers() ([]domain.TierInfo, error) {
	var out []domain.TierInfo
	err := r.db.Select(&out, `SELECT tier, name, monthly, perks FROM patron_tiers ORDER BY position`)
	return out, err
}

// ByEmail returns sql.ErrNoRows for someone who never subscribed.
func (r *PatronRepo) ByEmail(email string) (domain.Patron, error) {
	var p domain.Patron
	err := r.db.Get(&p, `
		SELECT email, tier, status, period_end, COALESCE(updated_at,'') AS updated_at
		FROM patrons WHERE email = ?`, email)
	return p, err
}

func (r *PatronRepo) Upsert(p domain.Patron) error {
	_, err := r.db.Exec(`
		INSERT INTO patrons(email, tier, status, period_end, updated_at)
		VALUES(?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(email) DO UPDATE SET tier=excluded.tier, status=excluded.status,
		  period_end=excluded.period_end, updated_at=CURRENT_TIMESTAMP
	`, p.Email, string(p.Tier), p.Status, p.PeriodEnd)
	return err
}

func (r *PatronRepo) Cancel(email string) error {
	_, err := r.db.Exec(`UPDATE patrons SET status='CANCELED', updated_at=CURRENT_TIMESTAMP WHERE email=?`, email)
	return err
}

func (r *PatronRepo) CountActive(now int64) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM patrons WHERE status='ACTIVE' AND period_end > ?`, now)
	return n, err
}
