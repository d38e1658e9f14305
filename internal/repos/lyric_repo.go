package repos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"encore/internal/lyricsync"
)

type LyricRepo struct{ db *sqlx.DB }

func NewLyricRepo(db *sqlx.DB) *LyricRepo { return &LyricRepo{db: db} }

// SyncState is the persisted form of a lyric-sync session.
type SyncState struct {
	TrackID     string
	Lyrics      string
	Cues        []lyricsync.Cue
	Pending     *time.Duration
	Published   bool
	PublishedAt string
}

type cueRow struct {
	Line    int   `db:"line"`
	StartMs int64 `db:"start_ms"`
	EndMs   int64 `db:"end_ms"`
}

// Load returns the sheet for a track; a track with no sheet yet yields an
// empty state rather than an error.
func (r *LyricRepo) Load(trackID string) (SyncState, error) {
	st := SyncState{TrackID: trackID}
	var sheet struct {
		Lyrics      string        `db:"lyrics"`
		PendingMs   sql.NullInt64 `db:"pending_ms"`
		SRT         string        `db:"published_srt"`
		PublishedAt string        `db:"published_at"`
	}
	err := r.db.Get(&sheet, `
		SELECT lyrics, pending_ms, published_srt, COALESCE(published_at,'') AS published_at
		FROM lyric_sheets WHERE track_id = ?`, trackID)
	if err == sql.ErrNoRows {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.Lyrics = sheet.Lyrics
	st.Published = sheet.SRT != ""
	st.PublishedAt = sheet.PublishedAt
	if sheet.PendingMs.Valid {
		d := time.Duration(sheet.PendingMs.Int64) * time.Millisecond
		st.Pending = &d
	}

	var rows []cueRow
	if err := r.db.Select(&rows, `SELECT line, start_ms, end_ms FROM lyric_cues WHERE track_id = ? ORDER BY line`, trackID); err != nil {
		return st, err
	}
	for _, c := range rows {
		st.Cues = append(st.Cues, lyricsync.Cue{
			Line:  c.Line,
			Start: time.Duration(c.StartMs) * time.Millisecond,
			End:   time.Duration(c.EndMs) * time.Millisecond,
		})
	}
	return st, nil
}

// SaveLyrics replaces the lyric text and discards recorded timing.
func (r *LyricRepo) SaveLyrics(trackID, lyrics string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`
		INSERT INTO lyric_sheets(track_id, lyrics, pending_ms, updated_at) VALUES(?,?,NULL,CURRENT_TIMESTAMP)
		ON CONFLICT(track_id) DO UPDATE SET lyrics=excluded.lyrics, pending_ms=NULL, updated_at=CURRENT_TIMESTAMP
	`, trackID, lyrics); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM lyric_cues WHERE track_id = ?`, trackID); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveSession writes the session's cues and pending press.
func (r *LyricRepo) SaveSession(trackID string, s *lyricsync.Session) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var pending any
	if at, ok := s.Pending(); ok {
		pending = at.Milliseconds()
	}
	if _, err := tx.Exec(`UPDATE lyric_sheets SET pending_ms=?, updated_at=CURRENT_TIMESTAMP WHERE track_id=?`,
		pending, trackID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM lyric_cues WHERE track_id = ?`, trackID); err != nil {
		return err
	}
	for _, c := range s.Cues() {
		if _, err := tx.Exec(`INSERT INTO lyric_cues(track_id,line,start_ms,end_ms) VALUES(?,?,?,?)`,
			trackID, c.Line, c.Start.Milliseconds(), c.End.Milliseconds()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *LyricRepo) Publish(trackID string, srt []byte) error {
	_, err := r.db.Exec(`
		UPDATE lyric_sheets SET published_srt=?, published_at=CURRENT_TIMESTAMP WHERE track_id=?
	`, string(srt), trackID)
	return err
}

// Published returns the live SRT for a track, or sql.ErrNoRows.
func (r *LyricRepo) Published(trackID string) ([]byte, error) {
	var s string
	err := r.db.Get(&s, `SELECT published_srt FROM lyric_sheets WHERE track_id=? AND published_srt != ''`, trackID)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
