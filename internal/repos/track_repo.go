package repos

import (
	"github.com/jmoiron/sqlx"

	"encore/internal/domain"
)

type TrackRepo struct{ db *sqlx.DB }

func NewTrackRepo(db *sqlx.DB) *TrackRepo { return &TrackRepo{db: db} }

const trackCols = `t.id, t.title, t.album, t.duration_ms, t.audio_path, t.min_tier, t.position,
	EXISTS(SELECT 1 FROM lyric_sheets l WHERE l.track_id = t.id AND l.published_srt != '') AS has_lyrics`

func (r *TrackRepo) List() ([]domain.Track, error) {
	var out []domain.Track
	err := r.db.Select(&out, `SELECT `+trackCols+` FROM tracks t ORDER BY t.position, t.title`)
	return out, err
}

func (r *TrackRepo) Get(id string) (domain.Track, error) {
	var t domain.Track
	err := r.db.Get(&t, `SELECT `+trackCols+` FROM tracks t WHERE t.id = ?`, id)
	return t, err
}
