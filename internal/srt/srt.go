// Package srt reads and writes SubRip (.srt) subtitle files.
package srt

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Cue is one subtitle block.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

const arrow = " --> "

// maxHours keeps HH:MM:SS,mmm inside time.Duration.
const maxHours = math.MaxInt64/int64(time.Hour) - 1

var (
	ErrBadTimestamp = errors.New("srt: malformed timestamp")
	ErrEmptyText    = errors.New("srt: cue has no text")
	ErrBadRange     = errors.New("srt: cue ends before it starts")
	ErrOverlap      = errors.New("srt: cues overlap or are out of order")
)

// ParseError reports the input line a parse failure happened on.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("srt: line %d: %v", e.Line, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// FormatTimestamp renders d as HH:MM:SS,mmm. Negative values render as zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp accepts HH:MM:SS,mmm and the HH:MM:SS.mmm variant.
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	sep := strings.LastIndexAny(s, ",.")
	if sep < 0 || len(s)-sep-1 != 3 {
		return 0, ErrBadTimestamp
	}
	clock := strings.Split(s[:sep], ":")
	if len(clock) != 3 {
		return 0, ErrBadTimestamp
	}
	h, err := atoiStrict(clock[0])
	if err != nil || int64(h) > maxHours {
		return 0, ErrBadTimestamp
	}
	m, err := atoiStrict(clock[1])
	if err != nil || m > 59 || len(clock[1]) != 2 {
		return 0, ErrBadTimestamp
	}
	sec, err := atoiStrict(clock[2])
	if err != nil || sec > 59 || len(clock[2]) != 2 {
		return 0, ErrBadTimestamp
	}
	ms, err := atoiStrict(s[sep+1:])
	if err != nil {
		return 0, ErrBadTimestamp
	}
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

func atoiStrict(s string) (int, error) {
	if s == "" {
		return 0, ErrBadTimestamp
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrBadTimestamp
		}
	}
	return strconv.Atoi(s)
}

// Write serialises cues, renumbering them 1..n in slice order.
func Write(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for i, c := range cues {
		if _, err := fmt.Fprintf(bw, "%d\n%s%s%s\n%s\n\n",
			i+1, FormatTimestamp(c.Start), arrow, FormatTimestamp(c.End), cueText(c.Text)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// cueText drops blank lines, which would end the block early on read.
func cueText(s string) string {
	lines := strings.Split(strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, strings.TrimRight(l, " \t\r"))
		}
	}
	return strings.Join(kept, "\n")
}

// Marshal is Write into a byte slice.
func Marshal(cues []Cue) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, cues)
	return buf.Bytes()
}

// Parse reads SRT blocks. It tolerates a UTF-8 BOM, CRLF line endings, runs of
// blank lines and a missing final blank line.
func Parse(r io.Reader) ([]Cue, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		out    []Cue
		cur    *Cue
		text   []string
		state  int // 0 expect index, 1 expect timing, 2 text
		lineNo int
	)
	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(text, "\n")
			out = append(out, *cur)
		}
		cur, text, state = nil, nil, 0
	}

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		switch state {
		case 0:
			if strings.TrimSpace(line) == "" {
				continue
			}
			idx, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: fmt.Errorf("expected cue index, got %q", line)}
			}
			cur = &Cue{Index: idx}
			state = 1
		case 1:
			start, end, ok := strings.Cut(line, "-->")
			if !ok {
				return nil, &ParseError{Line: lineNo, Err: fmt.Errorf("expected timing line, got %q", line)}
			}
			// Position hints may follow the end timestamp.
			if f := strings.Fields(end); len(f) > 0 {
				end = f[0]
			}
			var err error
			if cur.Start, err = ParseTimestamp(start); err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			if cur.End, err = ParseTimestamp(end); err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			state = 2
		case 2:
			if strings.TrimSpace(line) == "" {
				flush()
				continue
			}
			text = append(text, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if state == 1 {
		return nil, &ParseError{Line: lineNo, Err: errors.New("cue has no timing line")}
	}
	flush()
	return out, nil
}

// Validate checks the ordering rules a lyric track relies on: each cue has
// text and positive length, and no cue starts before the previous one ends.
func Validate(cues []Cue) error {
	for i, c := range cues {
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("cue %d: %w", i+1, ErrEmptyText)
		}
		if c.Start < 0 || c.End <= c.Start {
			return fmt.Errorf("cue %d: %w", i+1, ErrBadRange)
		}
		if i > 0 && c.Start < cues[i-1].End {
			return fmt.Errorf("cue %d: %w", i+1, ErrOverlap)
		}
	}
	return nil
}

// Shift moves every cue by offset. Times clamp at zero and cues that end up
// with no duration are dropped. Indices are renumbered.
func Shift(cues []Cue, offset time.Duration) []Cue {
	out := make([]Cue, 0, len(cues))
	for _, c := range cues {
		c.Start = max(c.Start+offset, 0)
		c.End = max(c.End+offset, 0)
		if c.End <= c.Start {
			continue
		}
		c.Index = len(out) + 1
		out = append(out, c)
	}
	return out
}
