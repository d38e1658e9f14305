package webhook

import (
	"errors"
	"testing"
	"time"
)

var secret = []byte("whsec_test")

func TestSignVerify(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	body := []byte(`{"id":"evt_1","type":"checkout.completed"}`)
	h := Sign(secret, now, body)

	if err := Verify(secret, h, body, now.Add(time.Minute), DefaultTolerance); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := Verify(secret, h, []byte(`{"id":"evt_2"}`), now, DefaultTolerance); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("tampered body: %v", err)
	}
	if err := Verify([]byte("other"), h, body, now, DefaultTolerance); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("wrong secret: %v", err)
	}
	if err := Verify(secret, h, body, now.Add(10*time.Minute), DefaultTolerance); !errors.Is(err, ErrStale) {
		t.Fatalf("stale: %v", err)
	}
}

func TestVerifyRotatedSecrets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	body := []byte(`{}`)
	good := Sign(secret, now, body)
	old := Sign([]byte("old"), now, body)
	// "t=..,v1=old,v1=good"
	h := old + "," + good[len("t=1700000000,"):]
	if err := Verify(secret, h, body, now, DefaultTolerance); err != nil {
		t.Fatalf("rotated header rejected: %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	now := time.Now()
	cases := map[string]error{
		"":             ErrNoSignature,
		"garbage":      ErrBadHeader,
		"t=abc,v1=00":  ErrBadHeader,
		"t=1,v1=zz":    ErrBadHeader,
		"v1=00":        ErrBadHeader,
		"t=1700000000": ErrBadHeader,
	}
	for h, want := range cases {
		if err := Verify(secret, h, nil, now, DefaultTolerance); !errors.Is(err, want) {
			t.Errorf("Verify(%q) = %v, want %v", h, err, want)
		}
	}
}

func TestDecode(t *testing.T) {
	e, err := Decode([]byte(`{"id":"evt_9","type":"checkout.expired","data":{"order_id":"o1"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != "evt_9" || e.Type != CheckoutExpired || len(e.Data) == 0 {
		t.Fatalf("decoded %+v", e)
	}
	if _, err := Decode([]byte(`{"type":"x"}`)); !errors.Is(err, ErrBadEvent) {
		t.Fatalf("missing id: %v", err)
	}
	if _, err := Decode([]byte(`not json`)); !errors.Is(err, ErrBadEvent) {
		t.Fatalf("bad json: %v", err)
	}
}
