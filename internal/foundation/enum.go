// Package foundation holds small generic helpers shared by configuration and
// API code.
package foundation

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
)

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalizer maps user spellings of an enumerated setting, aliases included,
// to canonical values. Lookups ignore case and surrounding whitespace.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
}

// NewNormalizer creates a normalizer from spelling->value pairs. fallback is
// returned by Normalize for unknown input.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[normalizeKey(k)] = v
	}
	return &Normalizer[T]{values: normalized, fallback: fallback}
}

// Lookup returns the value for raw and whether it is known.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[normalizeKey(raw)]
	return v, ok
}

// Normalize returns the value for raw, or the fallback.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.Lookup(raw); ok {
		return v
	}
	return n.fallback
}

// NormalizeWithError returns a validation error for unknown input.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if v, ok := n.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, errors.ValidationError(fmt.Sprintf("invalid value: %s", raw)).Build()
}
