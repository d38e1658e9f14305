package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// EventRepo remembers which processor events were already handled.
type EventRepo struct{ db *sqlx.DB }

func NewEventRepo(db *sqlx.DB) *EventRepo { return &EventRepo{db: db} }

// Claim records id and reports whether this call was the first to see it.
func (r *EventRepo) Claim(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO webhook_events(id) VALUES(?) ON CONFLICT(id) DO NOTHING`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release forgets id so a retried delivery is processed again.
func (r *EventRepo) Release(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM webhook_events WHERE id = ?`, id)
	return err
}
