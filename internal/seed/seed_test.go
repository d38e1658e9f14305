package seed

import "testing"

func TestDefaultCatalogParses(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Categories) == 0 || len(c.Products) == 0 || len(c.Tracks) == 0 || len(c.Tiers) == 0 {
		t.Fatalf("catalog looks empty: %+v", c)
	}
	cats := map[string]bool{}
	for _, cat := range c.Categories {
		cats[cat.ID] = true
	}
	for _, p := range c.Products {
		if !cats[p.Category] {
			t.Errorf("product %s references unknown category %s", p.ID, p.Category)
		}
		if len(p.Stock) == 0 {
			t.Errorf("product %s has no stock rows", p.ID)
		}
	}
}

func TestParseRejectsBadPrice(t *testing.T) {
	_, err := Parse([]byte("products:\n  - id: x\n    price: \"twelve\"\n"))
	if err == nil {
		t.Fatal("expected price error")
	}
}
