// Package tags implements the shared tag registry: canonical tag names,
// race-safe find-or-create, and tag browsing.
package tags

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNameLength bounds a canonical tag name, in characters.
const MaxNameLength = 50

// Tag is a canonical, shared label. Name is unique across all tags.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Normalize returns the canonical form of name: trimmed and lower-cased.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Canonicalize normalizes names, collapses duplicates, and returns the set
// sorted. A name that is blank or longer than MaxNameLength after
// normalization fails with ErrInvalidName.
func Canonicalize(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, raw := range names {
		name := Normalize(raw)
		if name == "" {
			return nil, fmt.Errorf("%w: blank tag name", ErrInvalidName)
		}
		if utf8.RuneCountInString(name) > MaxNameLength {
			return nil, fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidName, name, MaxNameLength)
		}
		out = append(out, name)
	}

	slices.Sort(out)
	return slices.Compact(out), nil
}

// FilterNames normalizes names for use as a search filter. Blank entries are
// dropped rather than rejected, and duplicates collapse.
func FilterNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, raw := range names {
		if name := Normalize(raw); name != "" {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Names returns the names of ts, sorted, without modifying ts.
func Names(ts []Tag) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	slices.Sort(out)
	return out
}
