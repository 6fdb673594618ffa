// Package sqlite provides a local tenant store for development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/tjfontaine/receptionist-gateway/internal/domain"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant"
)

// Store reads company records from a SQLite database. Columns beyond
// id/name/tone/greeting live in the attributes JSON object.
type Store struct {
	db *sql.DB
}

var _ tenant.Store = (*Store)(nil)

// New opens (creating if needed) the database at dbPath and ensures the
// companies table exists.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); !strings.HasPrefix(dbPath, "file:") && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		tone TEXT,
		greeting TEXT,
		attributes TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// DB exposes the underlying handle, used to provision records.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Name() string { return "sqlite" }

func (s *Store) Lookup(ctx context.Context, id string) ([]*domain.Tenant, error) {
	query := `SELECT id, name, tone, greeting, attributes
	          FROM companies WHERE id = ? LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, id, tenant.LookupLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		var (
			t          domain.Tenant
			tone       sql.NullString
			greeting   sql.NullString
			attributes sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Name, &tone, &greeting, &attributes); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		if tone.Valid {
			t.Tone = &tone.String
		}
		if greeting.Valid {
			t.Greeting = &greeting.String
		}
		if attributes.Valid && attributes.String != "" {
			var attrs map[string]json.RawMessage
			if err := json.Unmarshal([]byte(attributes.String), &attrs); err != nil {
				return nil, fmt.Errorf("company %s: invalid attributes: %w", t.ID, err)
			}
			t.SetAttributes(attrs)
		}
		tenants = append(tenants, &t)
	}

	return tenants, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
