package lyricsync

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// maxTapSeconds bounds tap times to a day of playback.
const maxTapSeconds = 24 * 60 * 60

// ParseTaps reads a recorded tap log, one event per line:
//
//	press 1.250
//	release 3.5
//	undo
//	reset
//
// Times are seconds of playback. Blank lines and lines starting with # are
// skipped.
func ParseTaps(r io.Reader) ([]Event, error) {
	var out []Event
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		e := Event{Kind: Kind(strings.ToLower(fields[0]))}
		switch e.Kind {
		case Press, Release:
			if len(fields) != 2 {
				return nil, fmt.Errorf("taps line %d: %s needs a time", n, e.Kind)
			}
			secs, err := strconv.ParseFloat(fields[1], 64)
			if err != nil || math.IsNaN(secs) || secs < 0 || secs > maxTapSeconds {
				return nil, fmt.Errorf("taps line %d: bad time %q", n, fields[1])
			}
			e.At = time.Duration(secs*1000+0.5) * time.Millisecond
		case Undo, Reset:
			if len(fields) != 1 {
				return nil, fmt.Errorf("taps line %d: %s takes no arguments", n, e.Kind)
			}
		default:
			return nil, fmt.Errorf("taps line %d: %w: %q", n, ErrUnknownEvent, fields[0])
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// Replay applies events in order to a new session over lines.
func Replay(lines []string, events []Event) (*Session, error) {
	s := New(lines)
	for i, e := range events {
		if err := s.Apply(e); err != nil {
			return s, fmt.Errorf("event %d (%s): %w", i+1, e.Kind, err)
		}
	}
	return s, nil
}
