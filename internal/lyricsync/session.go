// Package lyricsync records the timing of lyric lines from key presses.
//
// An operator plays the track and holds a key while each line is sung: the
// press marks the start of the current line, the release marks its end and
// moves on to the next line. Undo steps back one action.
package lyricsync

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"encore/internal/srt"
)

var (
	ErrNoLines        = errors.New("lyricsync: no lyric lines")
	ErrFinished       = errors.New("lyricsync: every line is already timed")
	ErrAlreadyPressed = errors.New("lyricsync: line already started")
	ErrNotPressed     = errors.New("lyricsync: no line started")
	ErrNegativeTime   = errors.New("lyricsync: negative timestamp")
	ErrBeforePrevious = errors.New("lyricsync: press is earlier than the previous line's end")
	ErrTooShort       = errors.New("lyricsync: release must come after press")
	ErrNothingToUndo  = errors.New("lyricsync: nothing to undo")
	ErrUnknownEvent   = errors.New("lyricsync: unknown event")
)

type Kind string

const (
	Press   Kind = "press"
	Release Kind = "release"
	Undo    Kind = "undo"
	Reset   Kind = "reset"
)

// Event is one operator action at playback position At.
type Event struct {
	Kind Kind
	At   time.Duration
}

// Cue is a timed lyric line. Line is the index into the session's lines.
type Cue struct {
	Line  int
	Start time.Duration
	End   time.Duration
	Text  string
}

type Session struct {
	lines   []string
	cues    []Cue
	pending *time.Duration
}

// SplitLyrics breaks raw lyric text into trimmed, non-empty lines.
func SplitLyrics(text string) []string {
	var out []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func New(lines []string) *Session {
	cp := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			cp = append(cp, l)
		}
	}
	return &Session{lines: cp}
}

// Restore rebuilds a session from persisted state by replaying it, so a
// corrupted row is reported instead of loaded.
func Restore(lines []string, cues []Cue, pending *time.Duration) (*Session, error) {
	s := New(lines)
	for i, c := range cues {
		if err := s.Press(c.Start); err != nil {
			return nil, fmt.Errorf("restore cue %d: %w", i+1, err)
		}
		if err := s.Release(c.End); err != nil {
			return nil, fmt.Errorf("restore cue %d: %w", i+1, err)
		}
	}
	if pending != nil {
		if err := s.Press(*pending); err != nil {
			return nil, fmt.Errorf("restore pending press: %w", err)
		}
	}
	return s, nil
}

func (s *Session) Press(at time.Duration) error {
	switch {
	case len(s.lines) == 0:
		return ErrNoLines
	case s.Done():
		return ErrFinished
	case s.pending != nil:
		return ErrAlreadyPressed
	case at < 0:
		return ErrNegativeTime
	}
	if n := len(s.cues); n > 0 && at < s.cues[n-1].End {
		return ErrBeforePrevious
	}
	s.pending = &at
	return nil
}

func (s *Session) Release(at time.Duration) error {
	if s.pending == nil {
		return ErrNotPressed
	}
	if at <= *s.pending {
		return ErrTooShort
	}
	i := len(s.cues)
	s.cues = append(s.cues, Cue{Line: i, Start: *s.pending, End: at, Text: s.lines[i]})
	s.pending = nil
	return nil
}

// Undo cancels a pending press, or else removes the last timed line.
func (s *Session) Undo() error {
	if s.pending != nil {
		s.pending = nil
		return nil
	}
	if len(s.cues) == 0 {
		return ErrNothingToUndo
	}
	s.cues = s.cues[:len(s.cues)-1]
	return nil
}

func (s *Session) Reset() {
	s.cues = nil
	s.pending = nil
}

func (s *Session) Apply(e Event) error {
	switch e.Kind {
	case Press:
		return s.Press(e.At)
	case Release:
		return s.Release(e.At)
	case Undo:
		return s.Undo()
	case Reset:
		s.Reset()
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Kind)
}

func (s *Session) Lines() []string { return append([]string(nil), s.lines...) }
func (s *Session) Cues() []Cue     { return append([]Cue(nil), s.cues...) }

// Cursor is the index of the next line to be timed.
func (s *Session) Cursor() int { return len(s.cues) }

func (s *Session) Done() bool { return len(s.cues) >= len(s.lines) }

// Current returns the line the next press or release applies to.
func (s *Session) Current() (string, bool) {
	if s.Done() {
		return "", false
	}
	return s.lines[len(s.cues)], true
}

func (s *Session) Pending() (time.Duration, bool) {
	if s.pending == nil {
		return 0, false
	}
	return *s.pending, true
}

// Progress reports timed and total line counts.
func (s *Session) Progress() (int, int) { return len(s.cues), len(s.lines) }

func (s *Session) SRTCues() []srt.Cue {
	out := make([]srt.Cue, len(s.cues))
	for i, c := range s.cues {
		out[i] = srt.Cue{Index: i + 1, Start: c.Start, End: c.End, Text: c.Text}
	}
	return out
}

func (s *Session) SRT() []byte { return srt.Marshal(s.SRTCues()) }
