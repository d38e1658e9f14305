// Package seed holds the static catalog the site ships with: merch, tracks,
// patron tiers and the band timeline.
package seed

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Catalog struct {
	Categories []Category      `yaml:"categories"`
	Products   []Product       `yaml:"products"`
	Tiers      []Tier          `yaml:"tiers"`
	Tracks     []Track         `yaml:"tracks"`
	Timeline   []TimelineEntry `yaml:"timeline"`
}

type Category struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Product struct {
	ID          string         `yaml:"id"`
	Category    string         `yaml:"category"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Kind        string         `yaml:"kind"`
	Price       string         `yaml:"price"`
	Images      []string       `yaml:"images"`
	Stock       map[string]int `yaml:"stock"`
}

type Tier struct {
	Tier    string `yaml:"tier"`
	Name    string `yaml:"name"`
	Monthly string `yaml:"monthly"`
	Perks   string `yaml:"perks"`
}

type Track struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	Album      string `yaml:"album"`
	DurationMs int64  `yaml:"duration_ms"`
	Audio      string `yaml:"audio"`
	MinTier    string `yaml:"min_tier"`
	Lyrics     string `yaml:"lyrics"`
}

type TimelineEntry struct {
	ID    string `yaml:"id"`
	Date  string `yaml:"date"`
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

// Default returns the embedded catalog.
func Default() (Catalog, error) { return Parse(catalogYAML) }

func Parse(b []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Catalog{}, fmt.Errorf("seed: %w", err)
	}
	for _, p := range c.Products {
		if _, err := decimal.NewFromString(p.Price); err != nil {
			return Catalog{}, fmt.Errorf("seed: product %s price %q: %w", p.ID, p.Price, err)
		}
	}
	for _, t := range c.Tiers {
		if _, err := decimal.NewFromString(t.Monthly); err != nil {
			return Catalog{}, fmt.Errorf("seed: tier %s monthly %q: %w", t.Tier, t.Monthly, err)
		}
	}
	return c, nil
}
