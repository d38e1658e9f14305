package validate

import (
	"strings"
	"testing"
)

func TestCountry(t *testing.T) {
	for in, want := range map[string]bool{"us": true, " GB ": true, "USA": false, "1A": false, "": false} {
		if _, ok := Country(in); ok != want {
			t.Errorf("Country(%q) ok=%v", in, ok)
		}
	}
	if c, _ := Country("de"); c != "DE" {
		t.Fatalf("not upper-cased: %s", c)
	}
}

func TestVariantAndKind(t *testing.T) {
	if v, ok := Variant(""); !ok || v != "ONE" {
		t.Fatalf("empty variant = %q %v", v, ok)
	}
	if v, ok := Variant("xl"); !ok || v != "XL" {
		t.Fatalf("xl = %q %v", v, ok)
	}
	if _, ok := Variant("XXXL"); ok {
		t.Fatal("XXXL accepted")
	}
	if _, ok := Kind("vinyl"); !ok {
		t.Fatal("vinyl rejected")
	}
	if _, ok := Kind("'; DROP"); ok {
		t.Fatal("injection accepted as kind")
	}
}

func TestFulfillmentStatusTier(t *testing.T) {
	if f, ok := Fulfillment(""); !ok || f != "ship" {
		t.Fatalf("default fulfillment = %q", f)
	}
	if _, ok := Fulfillment("drone"); ok {
		t.Fatal("drone accepted")
	}
	if s, ok := Status("paid"); !ok || s != "PAID" {
		t.Fatalf("status = %q", s)
	}
	if _, ok := Status("LOST"); ok {
		t.Fatal("LOST accepted")
	}
	if _, ok := Tier("superfan"); !ok {
		t.Fatal("superfan rejected")
	}
}

func TestLyricsAndAtMs(t *testing.T) {
	if _, ok := Lyrics("  \n "); ok {
		t.Fatal("blank lyrics accepted")
	}
	if _, ok := Lyrics(strings.Repeat("la ", MaxLyricsBytes)); ok {
		t.Fatal("oversized lyrics accepted")
	}
	if n, ok := AtMs("1250"); !ok || n != 1250 {
		t.Fatalf("AtMs = %d %v", n, ok)
	}
	for _, bad := range []string{"-1", "abc", "", "99999999999"} {
		if _, ok := AtMs(bad); ok {
			t.Errorf("AtMs(%q) accepted", bad)
		}
	}
}

func TestQtyClamp(t *testing.T) {
	cases := map[string]int{"": 1, "0": 1, "3": 3, "500": 50, "x": 1}
	for in, want := range cases {
		if got := Qty(in); got != want {
			t.Errorf("Qty(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestPassword(t *testing.T) {
	if !Password("Passw0rd!") {
		t.Fatal("seed password rejected")
	}
	if Password("password") {
		t.Fatal("weak password accepted")
	}
}
