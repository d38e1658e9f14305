package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"encore/internal/config"
	"encore/internal/webhook"
)

const testSecret = "whsec_test"

func withSecret(c *config.Config) { c.WebhookSecret = testSecret }

type webhookReply struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
	Error    string `json:"error"`
}

// deliver posts body the way the processor does, signed unless header is set.
func deliver(t *testing.T, ta *testApp, body []byte, header string) (int, webhookReply) {
	t.Helper()
	if header == "" {
		header = webhook.Sign([]byte(testSecret), time.Now(), body)
	}
	req := httptest.NewRequest("POST", "/api/v1/webhooks/payments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.Header, header)
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	var r webhookReply
	_ = json.NewDecoder(resp.Body).Decode(&r)
	return resp.StatusCode, r
}

func orderStatus(t *testing.T, ta *testApp, oid string) string {
	t.Helper()
	var s string
	if err := ta.db.Get(&s, `SELECT status FROM orders WHERE id = ?`, oid); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestWebhookCompletesOrderOnce(t *testing.T) {
	ta := newTestApp(t, withSecret)
	oid := placeOrder(t, ta, "sid-buyer")
	body := []byte(fmt.Sprintf(`{"id":"evt_1","type":"checkout.completed","data":{"order_id":%q,"amount_cents":5600}}`, oid))

	code, r := deliver(t, ta, body, "")
	if code != http.StatusOK || !r.Received || r.Outcome != "processed" {
		t.Fatalf("first delivery: %d %+v", code, r)
	}
	if s := orderStatus(t, ta, oid); s != "PAID" {
		t.Fatalf("status after payment = %s", s)
	}

	code, r = deliver(t, ta, body, "")
	if code != http.StatusOK || r.Outcome != "duplicate" {
		t.Fatalf("redelivery: %d %+v", code, r)
	}
	var charges int
	if err := ta.db.Get(&charges, `SELECT COUNT(*) FROM payments WHERE order_id = ?`, oid); err != nil {
		t.Fatal(err)
	}
	if charges != 1 {
		t.Fatalf("payments recorded = %d", charges)
	}
}

func TestWebhookRejectsBadSignatures(t *testing.T) {
	ta := newTestApp(t, withSecret)
	oid := placeOrder(t, ta, "sid-buyer")
	body := []byte(fmt.Sprintf(`{"id":"evt_2","type":"checkout.completed","data":{"order_id":%q,"amount_cents":5600}}`, oid))

	forged := webhook.Sign([]byte("not-the-secret"), time.Now(), body)
	stale := webhook.Sign([]byte(testSecret), time.Now().Add(-time.Hour), body)
	for name, h := range map[string]string{"forged": forged, "stale": stale, "garbage": "t=x"} {
		if code, _ := deliver(t, ta, body, h); code != http.StatusBadRequest {
			t.Errorf("%s signature: expected 400, got %d", name, code)
		}
	}
	if s := orderStatus(t, ta, oid); s != "PENDING_PAYMENT" {
		t.Fatalf("order changed by rejected callbacks: %s", s)
	}

	// A correctly signed body that is not an event.
	if code, _ := deliver(t, ta, []byte(`{"type":"checkout.completed"}`), ""); code != http.StatusBadRequest {
		t.Fatalf("malformed event: expected 400, got %d", code)
	}
}

func TestWebhookAmountMismatchIsUnprocessable(t *testing.T) {
	ta := newTestApp(t, withSecret)
	oid := placeOrder(t, ta, "sid-buyer")
	short := []byte(fmt.Sprintf(`{"id":"evt_3","type":"checkout.completed","data":{"order_id":%q,"amount_cents":100}}`, oid))

	if code, r := deliver(t, ta, short, ""); code != http.StatusUnprocessableEntity {
		t.Fatalf("mismatch: %d %+v", code, r)
	}
	if s := orderStatus(t, ta, oid); s != "PENDING_PAYMENT" {
		t.Fatalf("status after mismatch = %s", s)
	}
	unknown := []byte(`{"id":"evt_4","type":"checkout.completed","data":{"order_id":"nope","amount_cents":100}}`)
	if code, _ := deliver(t, ta, unknown, ""); code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown order: expected 422, got %d", code)
	}
}

func TestWebhookExpiryReleasesStock(t *testing.T) {
	ta := newTestApp(t, withSecret)
	oid := placeOrder(t, ta, "sid-buyer")
	body := []byte(fmt.Sprintf(`{"id":"evt_5","type":"checkout.expired","data":{"order_id":%q}}`, oid))

	if code, r := deliver(t, ta, body, ""); code != http.StatusOK || r.Outcome != "processed" {
		t.Fatalf("expiry: %d %+v", code, r)
	}
	var qty int
	if err := ta.db.Get(&qty, `SELECT qty FROM inventory WHERE product_id='tee-tour-24' AND variant='M'`); err != nil {
		t.Fatal(err)
	}
	if qty != 20 {
		t.Fatalf("stock after expiry = %d, want 20", qty)
	}
}

func TestWebhookSubscriptionUpdatesPatron(t *testing.T) {
	ta := newTestApp(t, withSecret)
	end := time.Now().Add(30 * 24 * time.Hour).Unix()
	body := []byte(fmt.Sprintf(`{"id":"evt_6","type":"subscription.updated","data":{"email":"alice@encore.test","tier":"SUPERFAN","status":"ACTIVE","period_end":%d}}`, end))

	if code, r := deliver(t, ta, body, ""); code != http.StatusOK || r.Outcome != "processed" {
		t.Fatalf("subscription: %d %+v", code, r)
	}
	var tier string
	if err := ta.db.Get(&tier, `SELECT tier FROM patrons WHERE email = 'alice@encore.test'`); err != nil {
		t.Fatal(err)
	}
	if tier != "SUPERFAN" {
		t.Fatalf("tier = %s", tier)
	}

	ignored := []byte(`{"id":"evt_7","type":"customer.created","data":{}}`)
	if code, r := deliver(t, ta, ignored, ""); code != http.StatusOK || r.Outcome != "ignored" {
		t.Fatalf("unknown type: %d %+v", code, r)
	}
}

func TestWebhookUnconfigured(t *testing.T) {
	ta := newTestApp(t)
	if code, _ := deliver(t, ta, []byte(`{}`), "t=1,v1=00"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a secret, got %d", code)
	}
}
