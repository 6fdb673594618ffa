// Package prompt renders the receptionist system prompt for a tenant.
package prompt

import (
	"errors"
	"fmt"

	"github.com/tjfontaine/receptionist-gateway/internal/domain"
)

// ErrMissingName is returned for tenants without a display name.
var ErrMissingName = errors.New("tenant has no name")

const template = "You are the AI receptionist for %s. Use a %s tone. Greet users with '%s'. " +
	"Answer questions, handle check-ins, and gather names or contact info when relevant."

// Compose returns the system prompt for t. Tone and greeting fall back to
// the domain defaults when unset.
func Compose(t *domain.Tenant) (string, error) {
	if t == nil || t.Name == "" {
		return "", ErrMissingName
	}
	return fmt.Sprintf(template, t.Name, t.ToneOrDefault(), t.GreetingOrDefault()), nil
}
