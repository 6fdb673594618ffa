package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/tjfontaine/receptionist-gateway/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "tenants.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Lookup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.DB().ExecContext(ctx,
		`INSERT INTO companies (id, name, tone, greeting, attributes) VALUES (?, ?, ?, ?, ?)`,
		"t1", "Acme Dental", "warm", "Hi, welcome to Acme!", `{"phone":"555-0100"}`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	matches, err := store.Lookup(ctx, "t1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Lookup() returned %d records, want 1", len(matches))
	}

	got := matches[0]
	if got.ID != "t1" || got.Name != "Acme Dental" {
		t.Errorf("Lookup() = %+v", got)
	}
	if got.ToneOrDefault() != "warm" {
		t.Errorf("tone = %q, want warm", got.ToneOrDefault())
	}
	if got.GreetingOrDefault() != "Hi, welcome to Acme!" {
		t.Errorf("greeting = %q", got.GreetingOrDefault())
	}
	if string(got.Attributes["phone"]) != `"555-0100"` {
		t.Errorf("phone attribute = %s", got.Attributes["phone"])
	}
}

func TestSQLiteStore_LookupNullOptionalFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.DB().ExecContext(ctx,
		`INSERT INTO companies (id, name) VALUES (?, ?)`, "t2", "Bare Co"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	matches, err := store.Lookup(ctx, "t2")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Lookup() returned %d records, want 1", len(matches))
	}
	if matches[0].Tone != nil || matches[0].Greeting != nil {
		t.Errorf("expected nil tone/greeting, got %v / %v", matches[0].Tone, matches[0].Greeting)
	}
	if matches[0].Attributes != nil {
		t.Errorf("expected no attributes, got %v", matches[0].Attributes)
	}
}

func TestSQLiteStore_LookupDropsReservedAttributes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.DB().ExecContext(ctx,
		`INSERT INTO companies (id, name, attributes) VALUES (?, ?, ?)`,
		"t3", "Quiet Co", `{"tone":"shouty","greeting":"Yo","phone":"555-0199"}`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	matches, err := store.Lookup(ctx, "t3")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Lookup() returned %d records, want 1", len(matches))
	}

	got := matches[0]
	if got.ToneOrDefault() != domain.DefaultTone || got.GreetingOrDefault() != domain.DefaultGreeting {
		t.Errorf("tone/greeting = %q / %q, want defaults", got.ToneOrDefault(), got.GreetingOrDefault())
	}
	if _, ok := got.Attributes["tone"]; ok {
		t.Error("tone leaked into attributes")
	}
	if _, ok := got.Attributes["greeting"]; ok {
		t.Error("greeting leaked into attributes")
	}

	out, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"id":"t3","name":"Quiet Co","phone":"555-0199"}`
	if string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}

func TestSQLiteStore_LookupMissing(t *testing.T) {
	store := newTestStore(t)

	matches, err := store.Lookup(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Lookup() returned %d records, want 0", len(matches))
	}
}

func TestSQLiteStore_Ping(t *testing.T) {
	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestSQLiteStore_ClosedLookupFails(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "closed.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	store.Close()

	if _, err := store.Lookup(context.Background(), "t1"); err == nil {
		t.Error("Lookup() on closed store expected error")
	}
}
