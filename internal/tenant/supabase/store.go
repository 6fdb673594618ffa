// Package supabase reads company records through the Supabase PostgREST API.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/receptionist-gateway/internal/domain"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant"
)

// invalidTextRepresentation is the Postgres code returned when the id filter
// cannot be cast to the column type, e.g. a non-uuid string on a uuid column.
const invalidTextRepresentation = "22P02"

// Option configures the store.
type Option func(*Store)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *Store) {
		s.httpClient = httpClient
	}
}

// WithTable overrides the table queried for company records.
func WithTable(table string) Option {
	return func(s *Store) {
		if table != "" {
			s.table = table
		}
	}
}

// Store is a tenant.Store backed by the project's REST endpoint.
type Store struct {
	baseURL    string
	serviceKey string
	table      string
	httpClient *http.Client
}

var _ tenant.Store = (*Store)(nil)

// New creates a store for the project at baseURL. An empty baseURL or
// serviceKey yields a store that fails every call with
// tenant.ErrNotConfigured.
func New(baseURL, serviceKey string, opts ...Option) *Store {
	s := &Store{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
		table:      tenant.DefaultTable,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Name() string { return "supabase" }

func (s *Store) configured() bool {
	return s.baseURL != "" && s.serviceKey != ""
}

func (s *Store) Lookup(ctx context.Context, id string) ([]*domain.Tenant, error) {
	if !s.configured() {
		return nil, tenant.ErrNotConfigured
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	q.Set("limit", strconv.Itoa(tenant.LookupLimit))

	body, status, err := s.get(ctx, q)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		perr := parseError(status, body)
		if perr.Code == invalidTextRepresentation {
			return nil, nil
		}
		return nil, perr
	}

	var tenants []*domain.Tenant
	if err := json.Unmarshal(body, &tenants); err != nil {
		return nil, fmt.Errorf("decode companies: %w", err)
	}
	return tenants, nil
}

// Ping issues a minimal select against the table.
func (s *Store) Ping(ctx context.Context) error {
	if !s.configured() {
		return tenant.ErrNotConfigured
	}

	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")

	body, status, err := s.get(ctx, q)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return parseError(status, body)
	}
	return nil
}

func (s *Store) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *Store) get(ctx context.Context, q url.Values) ([]byte, int, error) {
	endpoint := s.baseURL + "/rest/v1/" + url.PathEscape(s.table) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// Error is a PostgREST error payload.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase status %d: %s", e.Status, e.Message)
}

func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}
	if err := json.Unmarshal(body, e); err != nil || e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}
