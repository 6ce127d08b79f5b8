package caretaker_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/MrWong99/recruitgraph/internal/caretaker"
	"github.com/MrWong99/recruitgraph/internal/variant"
	"github.com/MrWong99/recruitgraph/pkg/recruit"
)

func newCaretaker() *caretaker.Caretaker {
	return caretaker.New(variant.NewCatalog(&variant.File{
		Variant: variant.Meta{Name: "Test"},
		Creatures: []variant.CreatureDef{
			{Name: "Titan", PointValue: 24, Count: 6, Lord: true},
			{Name: "Guardian", PointValue: 24, Count: 6, DemiLord: true},
			{Name: "Centaur", PointValue: 12, Count: 25},
			{Name: "Lion", PointValue: 15, Count: 3},
		},
	}))
}

func TestCaretaker_InitialStock(t *testing.T) {
	t.Parallel()

	c := newCaretaker()
	tests := []struct {
		name string
		want int
	}{
		{"Titan", 6},
		{"Centaur", 25},
		{"Lion", 3},
		{"Griffon", 0},
	}
	for _, tc := range tests {
		if got := c.RemainingCount(tc.name); got != tc.want {
			t.Errorf("RemainingCount(%q): expected %d, got %d", tc.name, tc.want, got)
		}
	}
	if !c.IsLord("Titan") || !c.IsDemiLord("Guardian") || c.IsLord("Centaur") {
		t.Error("classification not delegated to the catalog")
	}
}

func TestCaretaker_Take(t *testing.T) {
	t.Parallel()

	t.Run("reduces stock", func(t *testing.T) {
		t.Parallel()
		c := newCaretaker()
		left, err := c.Take("Lion", 2)
		if err != nil {
			t.Fatalf("Take: unexpected error: %v", err)
		}
		if left != 1 || c.RemainingCount("Lion") != 1 {
			t.Errorf("Take: expected 1 left, got %d (stock %d)", left, c.RemainingCount("Lion"))
		}
	})

	t.Run("exhausted stock is unchanged", func(t *testing.T) {
		t.Parallel()
		c := newCaretaker()
		_, err := c.Take("Lion", 4)
		if !errors.Is(err, caretaker.ErrExhausted) {
			t.Fatalf("Take: expected ErrExhausted, got %v", err)
		}
		if got := c.RemainingCount("Lion"); got != 3 {
			t.Errorf("stock changed on failed Take: %d", got)
		}
	})

	t.Run("unknown creature", func(t *testing.T) {
		t.Parallel()
		c := newCaretaker()
		if _, err := c.Take("Griffon", 1); !errors.Is(err, caretaker.ErrUnknownCreature) {
			t.Fatalf("Take: expected ErrUnknownCreature, got %v", err)
		}
	})

	t.Run("non-positive count", func(t *testing.T) {
		t.Parallel()
		c := newCaretaker()
		if _, err := c.Take("Lion", 0); !errors.Is(err, caretaker.ErrInvalidCount) {
			t.Fatalf("Take: expected ErrInvalidCount, got %v", err)
		}
	})
}

func TestCaretaker_ReturnCapped(t *testing.T) {
	t.Parallel()

	c := newCaretaker()
	if _, err := c.Take("Lion", 3); err != nil {
		t.Fatalf("Take: %v", err)
	}
	left, err := c.Return("Lion", 5)
	if err != nil {
		t.Fatalf("Return: unexpected error: %v", err)
	}
	if left != 3 {
		t.Errorf("Return: expected stock capped at 3, got %d", left)
	}
	if _, err := c.Return("Griffon", 1); !errors.Is(err, caretaker.ErrUnknownCreature) {
		t.Errorf("Return: expected ErrUnknownCreature, got %v", err)
	}
}

func TestCaretaker_SetAndReset(t *testing.T) {
	t.Parallel()

	c := newCaretaker()
	if err := c.Set("Centaur", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("Lion", 100); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("Titan", -4); err != nil {
		t.Fatalf("Set: %v", err)
	}
	snap := c.Snapshot()
	if snap["Centaur"] != 0 || snap["Lion"] != 3 || snap["Titan"] != 0 {
		t.Errorf("Snapshot after Set: unexpected %v", snap)
	}

	// Snapshots are copies.
	snap["Centaur"] = 99
	if c.RemainingCount("Centaur") != 0 {
		t.Error("Snapshot aliases the live stock")
	}

	c.Reset()
	if got := c.RemainingCount("Centaur"); got != 25 {
		t.Errorf("after Reset: expected 25 Centaurs, got %d", got)
	}
	if err := c.Set("Griffon", 1); !errors.Is(err, caretaker.ErrUnknownCreature) {
		t.Errorf("Set: expected ErrUnknownCreature, got %v", err)
	}
}

func TestCaretaker_ConcurrentTake(t *testing.T) {
	t.Parallel()

	c := newCaretaker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Take("Centaur", 1); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 25 {
		t.Errorf("expected exactly 25 successful takes, got %d", success)
	}
	if got := c.RemainingCount("Centaur"); got != 0 {
		t.Errorf("expected empty stock, got %d", got)
	}
}

func TestCaretaker_GatesGraphTraversal(t *testing.T) {
	t.Parallel()

	c := newCaretaker()
	g := recruit.New(recruit.WithAvailability(c))
	g.AddEdge("Centaur", "Lion", 2, "Plains")

	if got := g.Reachable("Centaur", nil); len(got) != 2 {
		t.Fatalf("Reachable with stock: expected 2 creatures, got %v", got)
	}
	if _, err := c.Take("Lion", 3); err != nil {
		t.Fatalf("Take: %v", err)
	}
	if got := g.Reachable("Centaur", nil); len(got) != 1 {
		t.Errorf("Reachable without Lions: expected only Centaur, got %v", got)
	}
}
