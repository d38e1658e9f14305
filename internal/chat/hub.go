// Package chat relays live-stream chat messages to connected viewers.
package chat

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

const MaxBodyRunes = 280

var (
	ErrEmpty   = errors.New("chat: empty message")
	ErrTooLong = errors.New("chat: message too long")
	ErrClosed  = errors.New("chat: hub closed")
)

type Message struct {
	ID     int64     `json:"id"`
	Author string    `json:"author"`
	Body   string    `json:"body"`
	At     time.Time `json:"at"`
}

// Hub keeps a bounded history and fans new messages out to subscribers.
// Sends to subscribers never block: a subscriber whose buffer is full misses
// the message and can catch up through Since.
type Hub struct {
	mu     sync.RWMutex
	hist   []Message
	start  int
	size   int
	nextID int64
	subs   map[chan Message]struct{}
	closed bool
	now    func() time.Time
}

func NewHub(history int) *Hub {
	if history <= 0 {
		history = 200
	}
	return &Hub{
		hist:   make([]Message, history),
		nextID: 1,
		subs:   make(map[chan Message]struct{}),
		now:    time.Now,
	}
}

// Clean strips control characters and surrounding space, then enforces length.
func Clean(body string) (string, error) {
	body = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, body)
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmpty
	}
	if utf8.RuneCountInString(body) > MaxBodyRunes {
		return "", ErrTooLong
	}
	return body, nil
}

func (h *Hub) Post(author, body string) (Message, error) {
	body, err := Clean(body)
	if err != nil {
		return Message{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return Message{}, ErrClosed
	}
	m := Message{ID: h.nextID, Author: author, Body: body, At: h.now().UTC()}
	h.nextID++

	if h.size < len(h.hist) {
		h.hist[(h.start+h.size)%len(h.hist)] = m
		h.size++
	} else {
		h.hist[h.start] = m
		h.start = (h.start + 1) % len(h.hist)
	}

	for ch := range h.subs {
		select {
		case ch <- m:
		default:
		}
	}
	return m, nil
}

// Since returns retained messages with ID greater than after, oldest first.
func (h *Hub) Since(after int64) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := []Message{}
	for i := 0; i < h.size; i++ {
		m := h.hist[(h.start+i)%len(h.hist)]
		if m.ID > after {
			out = append(out, m)
		}
	}
	return out
}

// Subscribe registers a listener. The returned cancel func must be called
// once the listener is done; it closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Message, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Message, buffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription; later posts fail with ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
