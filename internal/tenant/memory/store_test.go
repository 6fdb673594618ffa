package memory

import (
	"context"
	"testing"

	"github.com/tjfontaine/receptionist-gateway/internal/domain"
)

func TestNew(t *testing.T) {
	store, err := New([]map[string]any{
		{"id": "t1", "name": "Acme Dental", "tone": "warm", "phone": "555-0100"},
		{"id": 2, "name": "Numbered"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	matches, err := store.Lookup(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Lookup(t1) returned %d records, want 1", len(matches))
	}
	if matches[0].Name != "Acme Dental" || matches[0].ToneOrDefault() != "warm" {
		t.Errorf("Lookup(t1) = %+v", matches[0])
	}
	if string(matches[0].Attributes["phone"]) != `"555-0100"` {
		t.Errorf("phone attribute = %s", matches[0].Attributes["phone"])
	}

	matches, err = store.Lookup(context.Background(), "2")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("Lookup(2) returned %d records, want 1", len(matches))
	}
}

func TestNew_MissingID(t *testing.T) {
	if _, err := New([]map[string]any{{"name": "No ID"}}); err == nil {
		t.Fatal("New() expected error for record without id")
	}
}

func TestLookup_NoMatch(t *testing.T) {
	store := NewFromTenants(&domain.Tenant{ID: "t1", Name: "Acme"})

	matches, err := store.Lookup(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Lookup(missing) returned %d records, want 0", len(matches))
	}
}

func TestLookup_StopsAtLimit(t *testing.T) {
	store := NewFromTenants(
		&domain.Tenant{ID: "dup", Name: "One"},
		&domain.Tenant{ID: "dup", Name: "Two"},
		&domain.Tenant{ID: "dup", Name: "Three"},
	)

	matches, err := store.Lookup(context.Background(), "dup")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Lookup(dup) returned %d records, want 2", len(matches))
	}
}

func TestLookup_CancelledContext(t *testing.T) {
	store := NewFromTenants(&domain.Tenant{ID: "t1", Name: "Acme"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Lookup(ctx, "t1"); err == nil {
		t.Error("Lookup() expected error for cancelled context")
	}
}

func TestReplace(t *testing.T) {
	store := NewFromTenants(&domain.Tenant{ID: "old", Name: "Old Co"})

	if err := store.Replace([]map[string]any{{"id": "new", "name": "New Co"}}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}

	matches, _ := store.Lookup(context.Background(), "old")
	if len(matches) != 0 {
		t.Errorf("Lookup(old) returned %d records after Replace", len(matches))
	}
	matches, _ = store.Lookup(context.Background(), "new")
	if len(matches) != 1 {
		t.Errorf("Lookup(new) returned %d records, want 1", len(matches))
	}
}

func TestReplace_InvalidKeepsCurrent(t *testing.T) {
	store := NewFromTenants(&domain.Tenant{ID: "t1", Name: "Acme"})

	if err := store.Replace([]map[string]any{{"name": "No ID"}}); err == nil {
		t.Fatal("Replace() expected error for record without id")
	}
	matches, _ := store.Lookup(context.Background(), "t1")
	if len(matches) != 1 {
		t.Errorf("Lookup(t1) returned %d records, want current set kept", len(matches))
	}
}
