package variantstore

import (
	"context"
	"errors"

	"github.com/MrWong99/recruitgraph/internal/resilience"
	"github.com/MrWong99/recruitgraph/internal/variant"
)

// GuardedStore routes every call of an inner [Store] through a circuit
// breaker. [ErrNotFound] is an answer, not a backend fault, and never trips
// it. Invalid variants are rejected before reaching the breaker.
type GuardedStore struct {
	inner   Store
	breaker *resilience.Breaker
}

var _ Store = (*GuardedStore)(nil)

// Guard wraps inner with a breaker built from cfg. cfg.IsFailure is
// replaced.
func Guard(inner Store, cfg resilience.Config) *GuardedStore {
	cfg.IsFailure = isBackendFailure
	return &GuardedStore{inner: inner, breaker: resilience.New(cfg)}
}

// Breaker returns the breaker guarding the store.
func (g *GuardedStore) Breaker() *resilience.Breaker { return g.breaker }

func isBackendFailure(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrNotFound) &&
		!errors.Is(err, context.Canceled)
}

// Save implements [Store.Save].
func (g *GuardedStore) Save(ctx context.Context, f *variant.File) (Record, error) {
	if err := validate(f); err != nil {
		return Record{}, err
	}
	var rec Record
	err := g.breaker.Do(ctx, func(ctx context.Context) (err error) {
		rec, err = g.inner.Save(ctx, f)
		return err
	})
	return rec, err
}

// Get implements [Store.Get].
func (g *GuardedStore) Get(ctx context.Context, name string) (Record, error) {
	var rec Record
	err := g.breaker.Do(ctx, func(ctx context.Context) (err error) {
		rec, err = g.inner.Get(ctx, name)
		return err
	})
	return rec, err
}

// List implements [Store.List].
func (g *GuardedStore) List(ctx context.Context) ([]Record, error) {
	var recs []Record
	err := g.breaker.Do(ctx, func(ctx context.Context) (err error) {
		recs, err = g.inner.List(ctx)
		return err
	})
	return recs, err
}

// Delete implements [Store.Delete].
func (g *GuardedStore) Delete(ctx context.Context, name string) error {
	return g.breaker.Do(ctx, func(ctx context.Context) error {
		return g.inner.Delete(ctx, name)
	})
}
