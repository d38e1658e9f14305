package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"encore/internal/domain"
)

func TestValidationBadInputs(t *testing.T) {
	ta := newTestApp(t)

	cases := []struct {
		name, path string
	}{
		{"availability without product", "/api/v1/availability?variant=M"},
		{"availability with bad size", "/api/v1/availability?productId=tee-tour-24&variant=HUGE"},
		{"search with markup", "/search?q=%3Cscript%3E"},
		{"search with bad kind", "/search?q=tee&kind=POSTER"},
	}
	for _, tc := range cases {
		if resp := ta.get(t, tc.path, ""); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, resp.StatusCode)
		}
	}

	sid := "sid-val"
	resp := ta.postForm(t, "/cart", url.Values{"productId": {"tee-tour-24"}, "variant": {"S"}, "qty": {"1"}}, sid)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("cart add: %d", resp.StatusCode)
	}
	bad := map[string]url.Values{
		"country":     withForm(checkoutForm, "country", "USA"),
		"email":       withForm(checkoutForm, "email", "not-an-email"),
		"name":        withForm(checkoutForm, "name", strings.Repeat("x", 41)),
		"fulfillment": withForm(checkoutForm, "fulfillment", "drone"),
	}
	for field, form := range bad {
		resp := ta.postForm(t, "/orders", form, sid)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("bad %s: expected 400, got %d body=%s", field, resp.StatusCode, readBody(t, resp))
		}
	}
}

func TestAvailabilityPerSize(t *testing.T) {
	ta := newTestApp(t)
	for variant, want := range map[string]string{"M": "IN_STOCK", "L": "LOW_STOCK", "XL": "OUT_OF_STOCK"} {
		resp := ta.get(t, "/api/v1/availability?productId=tee-tour-24&variant="+variant, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", variant, resp.StatusCode)
		}
		var a domain.Availability
		if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
			t.Fatal(err)
		}
		if a.Status != want || a.Variant != variant {
			t.Errorf("%s: got %+v want %s", variant, a, want)
		}
	}
}

func TestTemplateAutoEscape(t *testing.T) {
	ta := newTestApp(t)
	_, _ = ta.db.Exec(`
		INSERT INTO products(id,category_id,title,description,kind,price,images_json,active)
		VALUES('xss-1','accessories','<script>alert(1)</script>','<b>desc</b>','ACCESSORY',9.99,'[]',1)
	`)

	resp := ta.get(t, "/product/xss-1", "")
	s := readBody(t, resp)
	if strings.Contains(s, "<script>alert(1)</script>") {
		t.Fatalf("found unescaped script tag in output")
	}
	if !strings.Contains(s, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatalf("escaped script not found; output=%s", s)
	}
}
