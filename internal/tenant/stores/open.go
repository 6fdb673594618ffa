// Package stores opens the tenant store selected in configuration.
package stores

import (
	"context"
	"fmt"

	"github.com/tjfontaine/receptionist-gateway/internal/config"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant/memory"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant/postgres"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant/sqlite"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant/supabase"
)

// Open returns the store for cfg.Driver. Remote stores missing connection
// settings are still returned; they report tenant.ErrNotConfigured per call.
func Open(ctx context.Context, cfg config.StoreConfig) (tenant.Store, error) {
	switch cfg.Driver {
	case config.StoreSupabase:
		return supabase.New(cfg.Supabase.URL, cfg.Supabase.ServiceKey,
			supabase.WithTable(cfg.Supabase.Table)), nil
	case config.StorePostgres:
		return postgres.New(ctx, cfg.Postgres.DSN, cfg.Postgres.Table)
	case config.StoreSQLite:
		return sqlite.New(cfg.SQLite.Path)
	case config.StoreMemory:
		return memory.New(cfg.Memory.Tenants)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
