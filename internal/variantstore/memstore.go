package variantstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MrWong99/recruitgraph/internal/variant"
)

var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// The zero value is ready to use.
type MemStore struct {
	mu       sync.RWMutex
	variants map[string]Record
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{variants: make(map[string]Record)}
}

// Save implements [Store.Save].
func (s *MemStore) Save(_ context.Context, f *variant.File) (Record, error) {
	if err := validate(f); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.variants == nil {
		s.variants = make(map[string]Record)
	}

	now := time.Now().UTC()
	rec := Record{
		Name:        f.Variant.Name,
		Description: f.Variant.Description,
		Definition:  clone(f),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if prev, ok := s.variants[rec.Name]; ok {
		rec.CreatedAt = prev.CreatedAt
	}
	s.variants[rec.Name] = rec
	return rec, nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(_ context.Context, name string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.variants[name]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Definition = clone(rec.Definition)
	return rec, nil
}

// List implements [Store.List].
func (s *MemStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.variants))
	for _, rec := range s.variants {
		rec.Definition = clone(rec.Definition)
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b Record) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// Delete implements [Store.Delete].
func (s *MemStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.variants[name]; !ok {
		return ErrNotFound
	}
	delete(s.variants, name)
	return nil
}

// clone deep-copies f so callers cannot mutate stored state.
func clone(f *variant.File) *variant.File {
	if f == nil {
		return nil
	}
	c := *f
	c.Creatures = slices.Clone(f.Creatures)
	c.Terrains = slices.Clone(f.Terrains)
	for i := range c.Terrains {
		c.Terrains[i].Recruits = slices.Clone(c.Terrains[i].Recruits)
	}
	c.SpecialRules = slices.Clone(f.SpecialRules)
	for i := range c.SpecialRules {
		c.SpecialRules[i].Recruits = slices.Clone(c.SpecialRules[i].Recruits)
	}
	return &c
}
