// Package webhook verifies and decodes payment processor callbacks.
//
// Signatures follow the common "t=<unix>,v1=<hex>" header layout where the
// MAC is HMAC-SHA256 over "<t>.<raw body>".
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Header           = "Encore-Signature"
	DefaultTolerance = 5 * time.Minute
)

var (
	ErrNoSignature  = errors.New("webhook: missing signature")
	ErrBadHeader    = errors.New("webhook: malformed signature header")
	ErrBadSignature = errors.New("webhook: signature mismatch")
	ErrStale        = errors.New("webhook: timestamp outside tolerance")
	ErrBadEvent     = errors.New("webhook: malformed event")
)

func mac(secret []byte, ts int64, body []byte) []byte {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(strconv.FormatInt(ts, 10)))
	m.Write([]byte("."))
	m.Write(body)
	return m.Sum(nil)
}

// Sign builds the header value for body at time ts.
func Sign(secret []byte, ts time.Time, body []byte) string {
	t := ts.Unix()
	return fmt.Sprintf("t=%d,v1=%s", t, hex.EncodeToString(mac(secret, t, body)))
}

// Verify checks header against body. Several v1 entries may be present while
// the processor rotates secrets; any match is accepted.
func Verify(secret []byte, header string, body []byte, now time.Time, tolerance time.Duration) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrNoSignature
	}
	var (
		ts    int64
		haveT bool
		sigs  [][]byte
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return ErrBadHeader
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrBadHeader
			}
			ts, haveT = n, true
		case "v1":
			b, err := hex.DecodeString(v)
			if err != nil {
				return ErrBadHeader
			}
			sigs = append(sigs, b)
		}
	}
	if !haveT || len(sigs) == 0 {
		return ErrBadHeader
	}
	if tolerance > 0 {
		age := now.Sub(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return ErrStale
		}
	}
	want := mac(secret, ts, body)
	for _, s := range sigs {
		if hmac.Equal(s, want) {
			return nil
		}
	}
	return ErrBadSignature
}

// Event is the envelope every callback carries.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    json.RawMessage `json:"data"`
}

func Decode(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Type) == "" {
		return Event{}, fmt.Errorf("%w: id and type are required", ErrBadEvent)
	}
	return e, nil
}

// Event types the site acts on.
const (
	CheckoutCompleted   = "checkout.completed"
	CheckoutExpired     = "checkout.expired"
	ChargeRefunded      = "charge.refunded"
	SubscriptionUpdated = "subscription.updated"
	SubscriptionDeleted = "subscription.deleted"
)

type CheckoutData struct {
	OrderID     string `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
}

type SubscriptionData struct {
	Email     string `json:"email"`
	Tier      string `json:"tier"`
	Status    string `json:"status"`
	PeriodEnd int64  `json:"period_end"`
}
