// Package memory provides a tenant store backed by records declared in
// configuration.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tjfontaine/receptionist-gateway/internal/domain"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant"
)

// Store is an in-memory tenant store. Records are kept in declaration order
// and ids are not deduplicated, mirroring a table without a uniqueness
// constraint. The record set can be swapped atomically with Replace.
type Store struct {
	mu      sync.RWMutex
	tenants []*domain.Tenant
}

var _ tenant.Store = (*Store)(nil)

// New creates a store from raw company records, as decoded from YAML or JSON.
func New(records []map[string]any) (*Store, error) {
	tenants, err := decode(records)
	if err != nil {
		return nil, err
	}
	return &Store{tenants: tenants}, nil
}

// NewFromTenants creates a store holding the given tenants.
func NewFromTenants(tenants ...*domain.Tenant) *Store {
	return &Store{tenants: tenants}
}

// Replace swaps in a new record set. On error the current set is kept.
func (s *Store) Replace(records []map[string]any) error {
	tenants, err := decode(records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tenants = tenants
	s.mu.Unlock()
	return nil
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants)
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Lookup(ctx context.Context, id string) ([]*domain.Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*domain.Tenant
	for _, t := range s.tenants {
		if t.ID != id {
			continue
		}
		matches = append(matches, t)
		if len(matches) == tenant.LookupLimit {
			break
		}
	}
	return matches, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func decode(records []map[string]any) ([]*domain.Tenant, error) {
	tenants := make([]*domain.Tenant, 0, len(records))
	for i, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("tenant %d: %w", i, err)
		}
		var t domain.Tenant
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("tenant %d: %w", i, err)
		}
		if t.ID == "" {
			return nil, fmt.Errorf("tenant %d: missing id", i)
		}
		tenants = append(tenants, &t)
	}
	return tenants, nil
}
