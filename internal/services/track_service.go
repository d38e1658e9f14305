package services

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"

	"encore/internal/domain"
	"encore/internal/repos"
)

var (
	ErrTrackNotFound = errors.New("track not found")
	ErrTierRequired  = errors.New("patron tier required")
)

type TrackService struct {
	Tracks   *repos.TrackRepo
	Lyrics   *repos.LyricRepo
	MediaDir string
}

func NewTrackService(tracks *repos.TrackRepo, lyrics *repos.LyricRepo, mediaDir string) *TrackService {
	return &TrackService{Tracks: tracks, Lyrics: lyrics, MediaDir: mediaDir}
}

func (s *TrackService) List() ([]domain.Track, error) { return s.Tracks.List() }

// Search matches q against track titles and albums. q is expected lower-case.
func (s *TrackService) Search(q string) ([]domain.Track, error) {
	all, err := s.Tracks.List()
	if err != nil {
		return nil, err
	}
	out := []domain.Track{}
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Album), q) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *TrackService) Get(id string) (domain.Track, error) {
	t, err := s.Tracks.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrTrackNotFound
	}
	return t, err
}

// Authorize loads a track and checks the listener's tier against it.
func (s *TrackService) Authorize(id string, tier domain.Tier) (domain.Track, error) {
	t, err := s.Get(id)
	if err != nil {
		return t, err
	}
	if !tier.Includes(t.MinTier) {
		return t, ErrTierRequired
	}
	return t, nil
}

// AudioFile resolves a track's file under the media directory. Stored paths
// that escape the directory are refused.
func (s *TrackService) AudioFile(t domain.Track) (string, error) {
	clean := filepath.Clean(t.AudioPath)
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", ErrTrackNotFound
	}
	return filepath.Join(s.MediaDir, clean), nil
}

// PublishedLyrics returns the synced lyrics for a track the listener may hear.
func (s *TrackService) PublishedLyrics(id string, tier domain.Tier) ([]byte, error) {
	if _, err := s.Authorize(id, tier); err != nil {
		return nil, err
	}
	b, err := s.Lyrics.Published(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrackNotFound
	}
	return b, err
}
