package repos

import (
	"time"

	"github.com/jmoiron/sqlx"
)

type FavoritesRepo struct{ db *sqlx.DB }

func NewFavoritesRepo(db *sqlx.DB) *FavoritesRepo { return &FavoritesRepo{db: db} }

func (r *FavoritesRepo) Ensure(sessionID string) (string, error) {
	var id string
	if err := r.db.Get(&id, `SELECT id FROM favorites WHERE session_id=?`, sessionID); err == nil {
		return id, nil
	}
	_, err := r.db.Exec(`INSERT INTO favorites(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (r *FavoritesRepo) Add(favID, trackID string) error {
	_, err := r.db.Exec(`
	  INSERT INTO favorite_items(favorites_id, track_id, created_at)
	  VALUES(?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(favorites_id, track_id) DO NOTHING
	`, favID, trackID)
	return err
}

func (r *FavoritesRepo) Remove(favID, trackID string) error {
	_, err := r.db.Exec(`DELETE FROM favorite_items WHERE favorites_id=? AND track_id=?`, favID, trackID)
	return err
}

type FavoriteRow struct {
	TrackID string `db:"track_id"`
	Title   string `db:"title"`
	Album   string `db:"album"`
	MinTier string `db:"min_tier"`
}

func (r *FavoritesRepo) List(favID string) ([]FavoriteRow, error) {
	out := []FavoriteRow{}
	err := r.db.Select(&out, `
	  SELECT t.id AS track_id, t.title, t.album, t.min_tier
	  FROM favorite_items fi
	  JOIN tracks t ON t.id = fi.track_id
	  WHERE fi.favorites_id = ?
	  ORDER BY t.position
	`, favID)
	return out, err
}
