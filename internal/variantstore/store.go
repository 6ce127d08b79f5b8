// Package variantstore persists variant definitions so that a deployment can
// serve variants that were imported once from YAML, or edited since, without
// shipping the files alongside the binary.
//
// The [Store] interface has two implementations: [MemStore] for tests and
// file-only deployments, and [PostgresStore], which keeps each variant as a
// JSONB document in a single recruit_variants table.
package variantstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrWong99/recruitgraph/internal/variant"
)

// ErrNotFound is returned by Get and Delete when no variant with the
// requested name exists.
var ErrNotFound = errors.New("variantstore: variant not found")

// Record is one stored variant.
type Record struct {
	Name        string
	Description string
	Definition  *variant.File
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store manages persisted variant definitions keyed by variant name.
// All implementations must be safe for concurrent use.
type Store interface {
	// Save validates f and creates or replaces the variant named
	// f.Variant.Name.
	Save(ctx context.Context, f *variant.File) (Record, error)

	// Get retrieves a variant by name.
	// Returns [ErrNotFound] when it does not exist.
	Get(ctx context.Context, name string) (Record, error)

	// List returns every stored variant ordered by name.
	List(ctx context.Context) ([]Record, error)

	// Delete removes a variant by name.
	// Returns [ErrNotFound] when it does not exist.
	Delete(ctx context.Context, name string) error
}

// ImportFiles saves every file into store and returns how many were saved.
// An error aborts the import and returns the count so far.
func ImportFiles(ctx context.Context, store Store, files []*variant.File) (int, error) {
	for i, f := range files {
		if f == nil {
			return i, fmt.Errorf("variantstore: import: file %d is nil", i)
		}
		if _, err := store.Save(ctx, f); err != nil {
			return i, fmt.Errorf("variantstore: import %q: %w", f.Variant.Name, err)
		}
	}
	return len(files), nil
}

func validate(f *variant.File) error {
	if f == nil {
		return errors.New("variantstore: variant must not be nil")
	}
	if err := variant.Validate(f); err != nil {
		return fmt.Errorf("variantstore: invalid variant %q: %w", f.Variant.Name, err)
	}
	return nil
}
