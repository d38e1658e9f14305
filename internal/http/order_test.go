package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"encore/internal/repos"
)

var checkoutForm = url.Values{
	"country":     {"US"},
	"email":       {"alice@encore.test"},
	"name":        {"Alice"},
	"fulfillment": {"ship"},
}

func withForm(base url.Values, kv ...string) url.Values {
	out := url.Values{}
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out.Set(kv[i], kv[i+1])
	}
	return out
}

// placeOrder buys two tour tees in size M for sid and returns the order id.
func placeOrder(t *testing.T, ta *testApp, sid string) string {
	t.Helper()
	resp := ta.postForm(t, "/cart", url.Values{"productId": {"tee-tour-24"}, "variant": {"M"}, "qty": {"2"}}, sid)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("cart add: %d %s", resp.StatusCode, readBody(t, resp))
	}
	resp = ta.postForm(t, "/orders", withForm(checkoutForm), sid)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("place order: %d %s", resp.StatusCode, readBody(t, resp))
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/order/") {
		t.Fatalf("unexpected redirect %q", loc)
	}
	return strings.TrimPrefix(loc, "/order/")
}

func TestOrderTotalsRecomputed(t *testing.T) {
	ta := newTestApp(t)

	// A cart row carrying a tampered price.
	sid := "sid-tamper"
	_, _ = ta.db.Exec(`INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,CURRENT_TIMESTAMP)`, sid, sid)
	_, _ = ta.db.Exec(`INSERT INTO cart_items(cart_id, product_id, variant, qty, price_at_add, created_at) VALUES(?,?,?,?,?,CURRENT_TIMESTAMP)`,
		sid, "tee-tour-24", "M", 2, 1.00)

	resp := ta.postForm(t, "/orders", withForm(checkoutForm), sid)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect on order, got %d body=%s", resp.StatusCode, readBody(t, resp))
	}
	oid := strings.TrimPrefix(resp.Header.Get("Location"), "/order/")

	ord, items, err := repos.NewOrderRepo(ta.db).Get(oid)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if want := decimal.RequireFromString("56.00"); !ord.Total.Equal(want) {
		t.Fatalf("order total not recomputed; got %s want %s", ord.Total, want)
	}
	if len(items) != 1 || items[0].Variant != "M" || items[0].Qty != 2 {
		t.Fatalf("items = %+v", items)
	}
	if ord.Status != "PENDING_PAYMENT" {
		t.Fatalf("new order status = %s", ord.Status)
	}
}

func TestCheckoutHoldsStockAndShowsOrder(t *testing.T) {
	ta := newTestApp(t)
	oid := placeOrder(t, ta, "sid-buyer")

	var qty int
	if err := ta.db.Get(&qty, `SELECT qty FROM inventory WHERE product_id='tee-tour-24' AND variant='M'`); err != nil {
		t.Fatal(err)
	}
	if qty != 18 {
		t.Fatalf("stock after checkout = %d, want 18", qty)
	}

	resp := ta.get(t, "/order/"+oid, "sid-buyer")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner view: %d", resp.StatusCode)
	}
	if !strings.Contains(body, "56.00") || !strings.Contains(body, "5600") {
		t.Fatalf("order page missing total; body=%s", body)
	}

	if resp := ta.get(t, "/order/"+oid, "sid-stranger"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stranger view expected 404, got %d", resp.StatusCode)
	}
	admin := ta.session(t, "sid-admin", "u-admin")
	if resp := ta.get(t, "/order/"+oid, admin); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin view expected 200, got %d", resp.StatusCode)
	}
}

func TestCheckoutRejectsShortStock(t *testing.T) {
	ta := newTestApp(t)
	sid := "sid-greedy"
	// L has 4 in stock.
	resp := ta.postForm(t, "/cart", url.Values{"productId": {"tee-tour-24"}, "variant": {"L"}, "qty": {"5"}}, sid)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("cart add: %d", resp.StatusCode)
	}
	resp = ta.postForm(t, "/orders", withForm(checkoutForm), sid)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short stock expected 400, got %d", resp.StatusCode)
	}
	var n int
	if err := ta.db.Get(&n, `SELECT COUNT(*) FROM orders`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("orders written on failure: %d", n)
	}
}

func TestCartRejectsUnknownSize(t *testing.T) {
	ta := newTestApp(t)
	// The LP only comes in ONE.
	resp := ta.postForm(t, "/cart", url.Values{"productId": {"lp-night-drive"}, "variant": {"M"}, "qty": {"1"}}, "sid-x")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown variant expected 400, got %d", resp.StatusCode)
	}
	resp = ta.postForm(t, "/cart", url.Values{"productId": {"lp-night-drive"}, "qty": {"1"}}, "sid-x")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("sizeless add expected redirect, got %d body=%s", resp.StatusCode, readBody(t, resp))
	}
}
