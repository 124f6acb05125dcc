// Package prefs persists the small key-value state the studio keeps across
// restarts: the theme preference and brand-kit presets. Values are
// reconstructed with defaults whenever a stored value fails to parse, so no
// schema versioning is needed.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS prefs (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS brand_kits (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    logo TEXT,
    primary_color TEXT NOT NULL DEFAULT '#000000',
    font TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const (
	themeKey     = "theme"
	DefaultTheme = "light"
)

// Theme values are a closed enum.
var validThemes = map[string]bool{"light": true, "dark": true}

// BrandKit is one saved brand preset.
type BrandKit struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Logo         *string   `json:"logo"`
	PrimaryColor string    `json:"primary_color"`
	Font         string    `json:"font"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store wraps the sqlite database file.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and parent directory) if needed and
// applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prefs: ensure directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("prefs: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prefs: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Theme returns the stored theme, falling back to the default when the value
// is missing or not a valid theme.
func (s *Store) Theme(ctx context.Context) string {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, themeKey).Scan(&value)
	if err != nil || !validThemes[value] {
		return DefaultTheme
	}
	return value
}

// SetTheme stores the theme preference.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	if !validThemes[theme] {
		return fmt.Errorf("prefs: invalid theme %q", theme)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prefs (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		themeKey, theme)
	if err != nil {
		return fmt.Errorf("prefs: set theme: %w", err)
	}
	return nil
}

// SaveBrandKit inserts or replaces a brand kit. A missing ID gets a fresh
// one.
func (s *Store) SaveBrandKit(ctx context.Context, kit BrandKit) (BrandKit, error) {
	if kit.ID == "" {
		kit.ID = uuid.NewString()
	}
	if kit.Name == "" {
		return BrandKit{}, errors.New("prefs: brand kit name is required")
	}
	if kit.PrimaryColor == "" {
		kit.PrimaryColor = "#000000"
	}
	if kit.CreatedAt.IsZero() {
		kit.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO brand_kits (id, name, logo, primary_color, font, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, logo = excluded.logo,
		   primary_color = excluded.primary_color, font = excluded.font`,
		kit.ID, kit.Name, kit.Logo, kit.PrimaryColor, kit.Font, kit.CreatedAt)
	if err != nil {
		return BrandKit{}, fmt.Errorf("prefs: save brand kit: %w", err)
	}
	return kit, nil
}

// ListBrandKits returns every saved preset, newest first. Rows that fail to
// scan are skipped rather than failing the listing.
func (s *Store) ListBrandKits(ctx context.Context) ([]BrandKit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, logo, primary_color, font, created_at FROM brand_kits ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("prefs: list brand kits: %w", err)
	}
	defer rows.Close()

	var kits []BrandKit
	for rows.Next() {
		var kit BrandKit
		if err := rows.Scan(&kit.ID, &kit.Name, &kit.Logo, &kit.PrimaryColor, &kit.Font, &kit.CreatedAt); err != nil {
			continue
		}
		kits = append(kits, kit)
	}
	return kits, rows.Err()
}

// DeleteBrandKit removes one preset.
func (s *Store) DeleteBrandKit(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM brand_kits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("prefs: delete brand kit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
