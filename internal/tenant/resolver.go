package tenant

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tjfontaine/receptionist-gateway/internal/domain"
)

// Resolver turns store lookups into exactly one tenant or a canonical error.
type Resolver struct {
	store  Store
	logger *slog.Logger
}

// NewResolver creates a resolver over store.
func NewResolver(store Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve returns the tenant whose id equals id.
//
// No match yields a not_found error. More than one match means the store's
// id uniqueness is broken; it is logged and reported as a server error
// rather than picking one of the records.
func (r *Resolver) Resolve(ctx context.Context, id string) (*domain.Tenant, error) {
	matches, err := r.store.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return nil, domain.ErrInfrastructure("tenant store is not configured").
				WithCode(domain.ErrorCodeNotConfigured).
				WithCause(err)
		}
		return nil, domain.ErrInfrastructure("tenant store unavailable").
			WithCode(domain.ErrorCodeStoreUnavailable).
			WithCause(err)
	}

	switch len(matches) {
	case 0:
		return nil, domain.ErrNotFound("Company not found")
	case 1:
		return matches[0], nil
	default:
		r.logger.ErrorContext(ctx, "tenant id matched multiple records",
			slog.String("tenant_id", id),
			slog.Int("matches", len(matches)),
			slog.String("store", r.store.Name()),
		)
		return nil, domain.ErrServer("tenant lookup returned more than one record").
			WithCode(domain.ErrorCodeAmbiguousTenant)
	}
}
