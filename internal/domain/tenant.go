package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// DefaultTone is used when a tenant has no tone configured.
	DefaultTone = "friendly and professional"

	// DefaultGreeting is used when a tenant has no greeting configured.
	DefaultGreeting = "Welcome in! How can I help you today?"
)

// Tenant is a company record read from the tenant store. Only id, name,
// tone and greeting are interpreted; every other column is carried in
// Attributes and returned to the caller unchanged.
type Tenant struct {
	ID       string
	Name     string
	Tone     *string
	Greeting *string

	// Attributes holds the columns this service does not interpret.
	Attributes map[string]json.RawMessage

	// rawID keeps the store's encoding of id (number, uuid string, ...).
	rawID json.RawMessage
}

// ToneOrDefault returns the configured tone, or DefaultTone when absent or empty.
func (t *Tenant) ToneOrDefault() string {
	if t.Tone == nil || *t.Tone == "" {
		return DefaultTone
	}
	return *t.Tone
}

// GreetingOrDefault returns the configured greeting, or DefaultGreeting when
// absent or empty.
func (t *Tenant) GreetingOrDefault() string {
	if t.Greeting == nil || *t.Greeting == "" {
		return DefaultGreeting
	}
	return *t.Greeting
}

// SetAttributes replaces Attributes with attrs minus the interpreted keys,
// which only ever come from the typed fields.
func (t *Tenant) SetAttributes(attrs map[string]json.RawMessage) {
	t.Attributes = nil
	for k, v := range attrs {
		if _, reserved := reservedTenantKeys[k]; reserved {
			continue
		}
		if t.Attributes == nil {
			t.Attributes = make(map[string]json.RawMessage, len(attrs))
		}
		t.Attributes[k] = v
	}
}

var reservedTenantKeys = map[string]struct{}{
	"id":       {},
	"name":     {},
	"tone":     {},
	"greeting": {},
}

// UnmarshalJSON decodes a tenant row as returned by the store.
func (t *Tenant) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("tenant record is null")
	}

	*t = Tenant{}

	if raw, ok := fields["id"]; ok && !isNull(raw) {
		id, err := idText(raw)
		if err != nil {
			return fmt.Errorf("tenant id: %w", err)
		}
		t.ID = id
		t.rawID = append(json.RawMessage(nil), raw...)
	}

	if raw, ok := fields["name"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &t.Name); err != nil {
			return fmt.Errorf("tenant name: %w", err)
		}
	}

	var err error
	if t.Tone, err = optionalString(fields, "tone"); err != nil {
		return err
	}
	if t.Greeting, err = optionalString(fields, "greeting"); err != nil {
		return err
	}

	t.SetAttributes(fields)
	return nil
}

// MarshalJSON renders the full tenant record, opaque attributes included.
func (t Tenant) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(t.Attributes)+4)
	for k, v := range t.Attributes {
		if _, reserved := reservedTenantKeys[k]; reserved {
			continue
		}
		out[k] = v
	}

	id := t.rawID
	if len(id) == 0 {
		encoded, err := json.Marshal(t.ID)
		if err != nil {
			return nil, err
		}
		id = encoded
	}
	out["id"] = id

	name, err := json.Marshal(t.Name)
	if err != nil {
		return nil, err
	}
	out["name"] = name

	if t.Tone != nil {
		if out["tone"], err = json.Marshal(*t.Tone); err != nil {
			return nil, err
		}
	}
	if t.Greeting != nil {
		if out["greeting"], err = json.Marshal(*t.Greeting); err != nil {
			return nil, err
		}
	}

	return json.Marshal(out)
}

func optionalString(fields map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("tenant %s: %w", key, err)
	}
	return &s, nil
}

// idText returns the text form of an id column that may be encoded as a
// JSON string or number.
func idText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", fmt.Errorf("unsupported id encoding %s", string(trimmed))
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
