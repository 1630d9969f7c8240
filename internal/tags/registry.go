package tags

import (
	"context"
	"errors"
	"fmt"
)

const maxAttempts = 3

// Store is the persistence contract the registry needs. InsertTag must
// return ErrConflict when another writer created the same name first.
type Store interface {
	FindTagByName(ctx context.Context, name string) (*Tag, error)
	InsertTag(ctx context.Context, name string) (*Tag, error)
}

// FindOrCreate resolves names to tags, creating any that do not exist.
// Names are canonicalized first, so the result holds one tag per distinct
// canonical name, sorted by name. A concurrent insert of the same name is
// resolved by looking the tag up again, up to three attempts per name.
func FindOrCreate(ctx context.Context, s Store, names []string) ([]Tag, error) {
	canonical, err := Canonicalize(names)
	if err != nil {
		return nil, err
	}

	out := make([]Tag, 0, len(canonical))
	for _, name := range canonical {
		t, err := findOrCreate(ctx, s, name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func findOrCreate(ctx context.Context, s Store, name string) (Tag, error) {
	for range maxAttempts {
		t, err := s.FindTagByName(ctx, name)
		if err == nil {
			return *t, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Tag{}, fmt.Errorf("find tag %q: %w", name, err)
		}

		t, err = s.InsertTag(ctx, name)
		if err == nil {
			return *t, nil
		}
		if !errors.Is(err, ErrConflict) {
			return Tag{}, fmt.Errorf("insert tag %q: %w", name, err)
		}
	}
	return Tag{}, fmt.Errorf("tag %q: still conflicting after %d attempts", name, maxAttempts)
}
