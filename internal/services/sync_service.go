package services

import (
	"errors"
	"fmt"
	"sync"

	"encore/internal/lyricsync"
	"encore/internal/repos"
	"encore/internal/srt"
)

var ErrSyncIncomplete = errors.New("every lyric line must be timed before publishing")

// SyncService drives lyric-sync sessions stored in the database. Each call
// loads, mutates and saves the whole session under one lock.
type SyncService struct {
	Tracks *repos.TrackRepo
	Lyrics *repos.LyricRepo

	mu sync.Mutex
}

func NewSyncService(tracks *repos.TrackRepo, lyrics *repos.LyricRepo) *SyncService {
	return &SyncService{Tracks: tracks, Lyrics: lyrics}
}

type CueView struct {
	Line    int    `json:"line"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Text    string `json:"text"`
}

type SyncView struct {
	TrackID   string    `json:"track_id"`
	Title     string    `json:"title"`
	Lyrics    string    `json:"-"`
	Lines     []string  `json:"lines"`
	Cues      []CueView `json:"cues"`
	Cursor    int       `json:"cursor"`
	Current   string    `json:"current"`
	PendingMs *int64    `json:"pending_ms"`
	Done      bool      `json:"done"`
	Published bool      `json:"published"`
}

func (s *SyncService) load(trackID string) (repos.SyncState, *lyricsync.Session, error) {
	st, err := s.Lyrics.Load(trackID)
	if err != nil {
		return st, nil, err
	}
	sess, err := lyricsync.Restore(lyricsync.SplitLyrics(st.Lyrics), st.Cues, st.Pending)
	if err != nil {
		return st, nil, fmt.Errorf("stored sync state for %s: %w", trackID, err)
	}
	return st, sess, nil
}

func (s *SyncService) view(trackID string, st repos.SyncState, sess *lyricsync.Session) (SyncView, error) {
	t, err := s.Tracks.Get(trackID)
	if err != nil {
		return SyncView{}, err
	}
	v := SyncView{
		TrackID:   trackID,
		Title:     t.Title,
		Lyrics:    st.Lyrics,
		Lines:     sess.Lines(),
		Cues:      []CueView{},
		Cursor:    sess.Cursor(),
		Done:      sess.Done(),
		Published: st.Published,
	}
	if v.Lines == nil {
		v.Lines = []string{}
	}
	v.Current, _ = sess.Current()
	if at, ok := sess.Pending(); ok {
		ms := at.Milliseconds()
		v.PendingMs = &ms
	}
	for _, c := range sess.Cues() {
		v.Cues = append(v.Cues, CueView{
			Line: c.Line, StartMs: c.Start.Milliseconds(), EndMs: c.End.Milliseconds(),
			Start: srt.FormatTimestamp(c.Start), End: srt.FormatTimestamp(c.End), Text: c.Text,
		})
	}
	return v, nil
}

func (s *SyncService) Load(trackID string) (SyncView, error) {
	if _, err := s.Tracks.Get(trackID); err != nil {
		return SyncView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, sess, err := s.load(trackID)
	if err != nil {
		return SyncView{}, err
	}
	return s.view(trackID, st, sess)
}

// SetLyrics replaces the text being synced; recorded timing is discarded.
func (s *SyncService) SetLyrics(trackID, text string) (SyncView, error) {
	if _, err := s.Tracks.Get(trackID); err != nil {
		return SyncView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Lyrics.SaveLyrics(trackID, text); err != nil {
		return SyncView{}, err
	}
	st, sess, err := s.load(trackID)
	if err != nil {
		return SyncView{}, err
	}
	return s.view(trackID, st, sess)
}

// Apply records one operator event. State is saved only when the event is
// accepted.
func (s *SyncService) Apply(trackID string, e lyricsync.Event) (SyncView, error) {
	if _, err := s.Tracks.Get(trackID); err != nil {
		return SyncView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, sess, err := s.load(trackID)
	if err != nil {
		return SyncView{}, err
	}
	if err := sess.Apply(e); err != nil {
		return SyncView{}, err
	}
	if err := s.Lyrics.SaveSession(trackID, sess); err != nil {
		return SyncView{}, err
	}
	return s.view(trackID, st, sess)
}

// SRT renders the cues recorded so far.
func (s *SyncService) SRT(trackID string) ([]byte, error) {
	if _, err := s.Tracks.Get(trackID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, sess, err := s.load(trackID)
	if err != nil {
		return nil, err
	}
	return sess.SRT(), nil
}

// Publish makes the recorded timing the track's public lyrics.
func (s *SyncService) Publish(trackID string) error {
	if _, err := s.Tracks.Get(trackID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, sess, err := s.load(trackID)
	if err != nil {
		return err
	}
	if done, total := sess.Progress(); total == 0 || done < total {
		return ErrSyncIncomplete
	}
	cues := sess.SRTCues()
	if err := srt.Validate(cues); err != nil {
		return err
	}
	return s.Lyrics.Publish(trackID, srt.Marshal(cues))
}
