package repos

import (
	"github.com/jmoiron/sqlx"

	"encore/internal/domain"
)

type TimelineRepo struct{ db *sqlx.DB }

func NewTimelineRepo(db *sqlx.DB) *TimelineRepo { return &TimelineRepo{db: db} }

func (r *TimelineRepo) List() ([]domain.TimelineEvent, error) {
	out := []domain.TimelineEvent{}
	err := r.db.Select(&out, `SELECT id, occurred_on, title, body FROM timeline_events ORDER BY occurred_on, id`)
	return out, err
}
