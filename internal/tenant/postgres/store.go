// Package postgres provides a tenant store that queries the hosted Postgres
// database directly over the wire protocol.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tjfontaine/receptionist-gateway/internal/domain"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant"
)

// Store reads company rows with pgx. Each row is returned as a JSON object
// so columns unknown to this service pass through untouched.
type Store struct {
	pool  *pgxpool.Pool
	query string
}

var _ tenant.Store = (*Store)(nil)

// New creates a pool for dsn. The pool connects lazily, so an unreachable
// database surfaces on Lookup/Ping rather than here. An empty dsn yields a
// store whose every call fails with tenant.ErrNotConfigured.
func New(ctx context.Context, dsn, table string) (*Store, error) {
	if table == "" {
		table = tenant.DefaultTable
	}
	s := &Store{
		query: fmt.Sprintf(`SELECT to_jsonb(c) FROM %s c WHERE c.id::text = $1 LIMIT %d`,
			pgx.Identifier{table}.Sanitize(), tenant.LookupLimit),
	}
	if dsn == "" {
		return s, nil
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Lookup(ctx context.Context, id string) ([]*domain.Tenant, error) {
	if s.pool == nil {
		return nil, tenant.ErrNotConfigured
	}

	rows, err := s.pool.Query(ctx, s.query, id)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		var t domain.Tenant
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode company: %w", err)
		}
		tenants = append(tenants, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read companies: %w", err)
	}
	return tenants, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return tenant.ErrNotConfigured
	}
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
