package repos

import (
	"encoding/json"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"encore/internal/domain"
	"encore/internal/seed"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: SQLite serialises writers anyway, and ":memory:" is
	// per-connection.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	cat, err := seed.Default()
	if err != nil {
		return nil, err
	}
	// Idempotent; safe to run on every start.
	if err := applyCatalog(db, cat); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Merch catalog
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  title TEXT NOT NULL,
  description TEXT,
  kind TEXT NOT NULL CHECK (kind IN ('APPAREL','VINYL','CD','CASSETTE','ACCESSORY')),
  price NUMERIC NOT NULL CHECK (price >= 0),
  images_json TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_title      ON products(LOWER(title));
CREATE INDEX IF NOT EXISTS idx_products_kind       ON products(kind);

-- Stock per size (or ONE for unsized goods)
CREATE TABLE IF NOT EXISTS inventory(
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  variant TEXT NOT NULL,
  qty INTEGER NOT NULL DEFAULT 0 CHECK (qty >= 0),
  updated_at TEXT,
  PRIMARY KEY(product_id, variant)
);

-- Carts
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  session_id TEXT UNIQUE NOT NULL,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS cart_items(
  cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  variant    TEXT NOT NULL,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  price_at_add NUMERIC NOT NULL,
  created_at TEXT,
  updated_at TEXT,
  PRIMARY KEY (cart_id, product_id, variant)
);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  session_id TEXT,
  country TEXT NOT NULL,
  fulfillment TEXT NOT NULL,       -- ship|venue_pickup
  customer_name TEXT,
  customer_email TEXT,
  total NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING_PAYMENT',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id  TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  variant TEXT NOT NULL,
  qty INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  kind TEXT NOT NULL,
  PRIMARY KEY (order_id, product_id, variant)
);

-- Processor callbacks
CREATE TABLE IF NOT EXISTS webhook_events(
  id TEXT PRIMARY KEY,
  received_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS payments(
  event_id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id),
  kind TEXT NOT NULL,              -- CHARGE|REFUND
  amount_cents INTEGER NOT NULL,
  received_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Patrons
CREATE TABLE IF NOT EXISTS patron_tiers(
  tier TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  monthly NUMERIC NOT NULL,
  perks TEXT NOT NULL DEFAULT '',
  position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS patrons(
  email TEXT PRIMARY KEY COLLATE NOCASE,
  tier TEXT NOT NULL CHECK (tier IN ('NONE','SUPPORTER','SUPERFAN')),
  status TEXT NOT NULL CHECK (status IN ('ACTIVE','PAST_DUE','CANCELED')),
  period_end INTEGER NOT NULL DEFAULT 0,
  updated_at TEXT
);

-- Music
CREATE TABLE IF NOT EXISTS tracks(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  album TEXT NOT NULL DEFAULT '',
  duration_ms INTEGER NOT NULL DEFAULT 0,
  audio_path TEXT NOT NULL,
  min_tier TEXT NOT NULL DEFAULT 'NONE' CHECK (min_tier IN ('NONE','SUPPORTER','SUPERFAN')),
  position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS lyric_sheets(
  track_id TEXT PRIMARY KEY REFERENCES tracks(id) ON DELETE CASCADE,
  lyrics TEXT NOT NULL DEFAULT '',
  pending_ms INTEGER,              -- press recorded, release not yet
  published_srt TEXT NOT NULL DEFAULT '',
  published_at TEXT,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS lyric_cues(
  track_id TEXT NOT NULL REFERENCES lyric_sheets(track_id) ON DELETE CASCADE,
  line INTEGER NOT NULL,
  start_ms INTEGER NOT NULL,
  end_ms INTEGER NOT NULL,
  PRIMARY KEY(track_id, line)
);

-- Favorites
CREATE TABLE IF NOT EXISTS favorites(
  id TEXT PRIMARY KEY,
  session_id TEXT UNIQUE NOT NULL,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS favorite_items(
  favorites_id TEXT NOT NULL REFERENCES favorites(id) ON DELETE CASCADE,
  track_id TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
  created_at TEXT,
  PRIMARY KEY (favorites_id, track_id)
);

-- Band history
CREATE TABLE IF NOT EXISTS timeline_events(
  id TEXT PRIMARY KEY,
  occurred_on TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT NOT NULL DEFAULT ''
);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

// applyCatalog inserts whatever part of the static catalog is missing. Rows
// already present (including stock counts edited by an admin) are left alone.
func applyCatalog(db *sqlx.DB, c seed.Catalog) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, cat := range c.Categories {
		if _, err := tx.Exec(`INSERT INTO categories(id,name) VALUES(?,?) ON CONFLICT(id) DO NOTHING`,
			cat.ID, cat.Name); err != nil {
			return err
		}
	}
	for _, p := range c.Products {
		price, _ := decimal.NewFromString(p.Price)
		images, _ := json.Marshal(p.Images)
		if _, err := tx.Exec(`
			INSERT INTO products(id,category_id,title,description,kind,price,images_json,active)
			VALUES(?,?,?,?,?,?,?,1)
			ON CONFLICT(id) DO NOTHING
		`, p.ID, p.Category, p.Title, p.Description, p.Kind, price.InexactFloat64(), string(images)); err != nil {
			return err
		}
		for variant, qty := range p.Stock {
			if _, err := tx.Exec(`
				INSERT INTO inventory(product_id,variant,qty,updated_at)
				VALUES(?,?,?,CURRENT_TIMESTAMP)
				ON CONFLICT(product_id,variant) DO NOTHING
			`, p.ID, variant, qty); err != nil {
				return err
			}
		}
	}
	for i, t := range c.Tiers {
		monthly, _ := decimal.NewFromString(t.Monthly)
		if _, err := tx.Exec(`
			INSERT INTO patron_tiers(tier,name,monthly,perks,position) VALUES(?,?,?,?,?)
			ON CONFLICT(tier) DO UPDATE SET name=excluded.name, monthly=excluded.monthly,
			  perks=excluded.perks, position=excluded.position
		`, t.Tier, t.Name, monthly.InexactFloat64(), t.Perks, i); err != nil {
			return err
		}
	}
	for i, t := range c.Tracks {
		minTier := t.MinTier
		if minTier == "" {
			minTier = "NONE"
		}
		if _, err := tx.Exec(`
			INSERT INTO tracks(id,title,album,duration_ms,audio_path,min_tier,position)
			VALUES(?,?,?,?,?,?,?)
			ON CONFLICT(id) DO NOTHING
		`, t.ID, t.Title, t.Album, t.DurationMs, t.Audio, minTier, i); err != nil {
			return err
		}
		if t.Lyrics != "" {
			if _, err := tx.Exec(`
				INSERT INTO lyric_sheets(track_id,lyrics,updated_at) VALUES(?,?,CURRENT_TIMESTAMP)
				ON CONFLICT(track_id) DO NOTHING
			`, t.ID, t.Lyrics); err != nil {
				return err
			}
		}
	}
	for _, e := range c.Timeline {
		if _, err := tx.Exec(`
			INSERT INTO timeline_events(id,occurred_on,title,body) VALUES(?,?,?,?)
			ON CONFLICT(id) DO NOTHING
		`, e.ID, e.Date, e.Title, e.Body); err != nil {
			return err
		}
	}
	log.Printf("[seed] catalog applied: %d products, %d tracks, %d timeline events",
		len(c.Products), len(c.Tracks), len(c.Timeline))
	return tx.Commit()
}

// seedUsers ensures two USERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-alice", "alice@encore.test", "Alice", domain.RoleUser, "Passw0rd!"),
		mk("u-bob", "bob@encore.test", "Bob", domain.RoleUser, "Passw0rd!"),
		mk("u-admin", "admin@encore.test", "Admin", domain.RoleAdmin, "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
