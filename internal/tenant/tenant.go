// Package tenant resolves company records that parameterize the receptionist.
package tenant

import (
	"context"
	"errors"

	"github.com/tjfontaine/receptionist-gateway/internal/domain"
)

// DefaultTable is the collection holding company records.
const DefaultTable = "companies"

// LookupLimit is the number of records a Store fetches per lookup. Two is
// enough to tell a unique match from a duplicated id.
const LookupLimit = 2

// ErrNotConfigured is returned by stores started without connection settings.
var ErrNotConfigured = errors.New("tenant store not configured")

// Store is a read-only source of company records.
type Store interface {
	// Name identifies the backend in logs and readiness output.
	Name() string

	// Lookup returns up to LookupLimit records whose id equals id.
	// No match is an empty slice, not an error.
	Lookup(ctx context.Context, id string) ([]*domain.Tenant, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}
