// Package inspector serves recruit graph queries for one variant to HTTP and
// MCP callers.
//
// A [Service] owns the graph, the creature catalog and the live stock of a
// single game. The graph itself is single-threaded, so every query runs under
// the service mutex; queries are traced with [observe.StartQuerySpan] and
// counted in [observe.Metrics].
package inspector

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MrWong99/recruitgraph/internal/caretaker"
	"github.com/MrWong99/recruitgraph/internal/observe"
	"github.com/MrWong99/recruitgraph/internal/variant"
	"github.com/MrWong99/recruitgraph/pkg/recruit"
)

// DefaultDistance is the recruit distance used when a caller gives none.
const DefaultDistance = 2

var (
	// ErrUnknownCreature is returned for creature names the active variant
	// does not declare. Errors carrying it are [*UnknownCreatureError].
	ErrUnknownCreature = errors.New("inspector: unknown creature")

	// ErrUnknownTerrain is returned for terrains the active variant does not
	// declare.
	ErrUnknownTerrain = errors.New("inspector: unknown terrain")

	// ErrInvalidArgument is returned for malformed query arguments.
	ErrInvalidArgument = errors.New("inspector: invalid argument")
)

// UnknownCreatureError names the rejected creature and the closest known
// name, if any.
type UnknownCreatureError struct {
	Name       string
	Suggestion string
}

func (e *UnknownCreatureError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("%v: %q", ErrUnknownCreature, e.Name)
	}
	return fmt.Sprintf("%v: %q (did you mean %q?)", ErrUnknownCreature, e.Name, e.Suggestion)
}

// Is reports ErrUnknownCreature as the sentinel.
func (e *UnknownCreatureError) Is(target error) bool { return target == ErrUnknownCreature }

// Creature describes one creature type of the active variant.
type Creature struct {
	Name       string `json:"name"`
	PointValue int    `json:"point_value"`
	Count      int    `json:"count"`
	Remaining  int    `json:"remaining"`
	Lord       bool   `json:"lord,omitempty"`
	DemiLord   bool   `json:"demi_lord,omitempty"`
	MaxUseful  int    `json:"max_useful"`
}

// BestRecruit is the answer of [Service.BestRecruit].
type BestRecruit struct {
	Best      string   `json:"best"`
	Reachable []string `json:"reachable"`
}

// Option configures a [Service].
type Option func(*Service)

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDefaultDistance sets the distance used by [Service.RecruitDistance]
// when called with a negative distance.
func WithDefaultDistance(d int) Option {
	return func(s *Service) { s.defaultDistance = d }
}

// WithDefaultHex sets the hex label passed to special rules when a caller
// gives none.
func WithDefaultHex(hex string) Option {
	return func(s *Service) { s.defaultHex = hex }
}

// Service answers recruit queries for one variant. It is safe for
// concurrent use.
type Service struct {
	metrics *observe.Metrics

	mu              sync.Mutex
	defaultDistance int
	defaultHex      string
	file            *variant.File
	catalog         *variant.Catalog
	stock           *caretaker.Caretaker
	graph           *recruit.Graph
	terrains        map[recruit.Terrain]bool
}

// New builds a service over f, which must pass [variant.Validate].
func New(ctx context.Context, f *variant.File, opts ...Option) (*Service, error) {
	s := &Service{defaultDistance: DefaultDistance}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if err := s.Rebuild(ctx, f); err != nil {
		return nil, err
	}
	return s, nil
}

// Rebuild replaces the active variant with f. The graph is rebuilt and the
// stock reset to full box counts. On error the previous variant stays
// active.
func (s *Service) Rebuild(ctx context.Context, f *variant.File) error {
	if err := variant.Validate(f); err != nil {
		return fmt.Errorf("inspector: rebuild: %w", err)
	}

	catalog := variant.NewCatalog(f)
	stock := caretaker.New(catalog)
	graph := variant.NewGraph(f, recruit.WithAvailability(stock))
	terrains := make(map[recruit.Terrain]bool, len(f.Terrains))
	for _, t := range f.Terrains {
		terrains[recruit.Terrain(t.Name)] = true
	}

	s.mu.Lock()
	s.file, s.catalog, s.stock, s.graph, s.terrains = f, catalog, stock, graph, terrains
	s.mu.Unlock()

	s.metrics.RecordGraphSize(ctx, f.Variant.Name, graph.Len(), graph.EdgeCount())
	observe.Logger(ctx).Info("inspector: variant active",
		"variant", f.Variant.Name,
		"creatures", graph.Len(),
		"edges", graph.EdgeCount(),
	)
	return nil
}

// SetDefaults replaces the default recruit distance and hex label.
func (s *Service) SetDefaults(distance int, hex string) {
	s.mu.Lock()
	s.defaultDistance, s.defaultHex = distance, hex
	s.mu.Unlock()
}

// Variant returns the name of the active variant.
func (s *Service) Variant() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Variant.Name
}

// Size returns the number of graph vertices.
func (s *Service) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Len()
}

// query runs fn under the service lock inside a query span and records its
// outcome.
func query[T any](ctx context.Context, s *Service, name string, fn func() (T, error), attrs ...attribute.KeyValue) (T, error) {
	ctx, span := observe.StartQuerySpan(ctx, name, attrs...)
	start := time.Now()

	s.mu.Lock()
	v, err := fn()
	s.mu.Unlock()

	s.metrics.RecordQuery(ctx, name, observe.StatusOf(err), time.Since(start))
	observe.EndSpan(span, err)
	if err != nil {
		observe.Logger(ctx).Debug("inspector: query rejected", "query", name, "err", err)
	}
	return v, err
}

// creature checks name against the catalog. Callers hold s.mu.
func (s *Service) creature(name string) error {
	if s.catalog.Has(name) {
		return nil
	}
	return &UnknownCreatureError{Name: name, Suggestion: Suggest(name, s.catalog.Names())}
}

// terrain checks t against the variant. Callers hold s.mu.
func (s *Service) terrain(t recruit.Terrain) error {
	if s.terrains[t] {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownTerrain, t)
}

// Creatures lists every creature of the active variant in file order.
func (s *Service) Creatures(ctx context.Context) []Creature {
	out, _ := query(ctx, s, "creatures", func() ([]Creature, error) {
		names := s.catalog.Names()
		out := make([]Creature, 0, len(names))
		for _, name := range names {
			pv, _ := s.catalog.PointValue(name)
			count, _ := s.catalog.Count(name)
			maxUseful := -1
			if s.graph.Has(name) {
				maxUseful = s.graph.MaximumUsefulNumber(name)
			}
			out = append(out, Creature{
				Name:       name,
				PointValue: pv,
				Count:      count,
				Remaining:  s.stock.RemainingCount(name),
				Lord:       s.catalog.IsLord(name),
				DemiLord:   s.catalog.IsDemiLord(name),
				MaxUseful:  maxUseful,
			})
		}
		return out, nil
	})
	return out
}

// RecruitableBy lists what name can recruit, in every terrain.
func (s *Service) RecruitableBy(ctx context.Context, name string) ([]recruit.RecruitOption, error) {
	return query(ctx, s, "recruitable_by", func() ([]recruit.RecruitOption, error) {
		if err := s.creature(name); err != nil {
			return nil, err
		}
		return s.graph.RecruitableBy(name), nil
	}, observe.Attr("creature", name))
}

// RecruitersOf lists what can recruit name, in every terrain.
func (s *Service) RecruitersOf(ctx context.Context, name string) ([]recruit.RecruitOption, error) {
	return query(ctx, s, "recruiters_of", func() ([]recruit.RecruitOption, error) {
		if err := s.creature(name); err != nil {
			return nil, err
		}
		return s.graph.RecruitersOf(name), nil
	}, observe.Attr("creature", name))
}

// MaximumUsefulNumber returns the largest number of name that still
// recruits something, or -1.
func (s *Service) MaximumUsefulNumber(ctx context.Context, name string) (int, error) {
	return query(ctx, s, "max_useful", func() (int, error) {
		if err := s.creature(name); err != nil {
			return 0, err
		}
		return s.graph.MaximumUsefulNumber(name), nil
	}, observe.Attr("creature", name))
}

// TerrainsWhereNumberRecruits lists the terrains where exactly number
// creatures of name recruit something.
func (s *Service) TerrainsWhereNumberRecruits(ctx context.Context, name string, number int) ([]recruit.Terrain, error) {
	return query(ctx, s, "terrains", func() ([]recruit.Terrain, error) {
		if err := s.creature(name); err != nil {
			return nil, err
		}
		return s.graph.TerrainsWhereNumberRecruits(name, number), nil
	}, observe.Attr("creature", name))
}

// NumberOfRecruiterNeeded returns how many recruiters are needed to muster
// recruit in terrain, or [recruit.BigNum]. An empty hex uses the configured
// default.
func (s *Service) NumberOfRecruiterNeeded(ctx context.Context, recruiter, target string, terrain recruit.Terrain, hex string) (int, error) {
	return query(ctx, s, "recruiters_needed", func() (int, error) {
		if err := errors.Join(s.creature(recruiter), s.creature(target), s.terrain(terrain)); err != nil {
			return 0, err
		}
		if hex == "" {
			hex = s.defaultHex
		}
		return s.graph.NumberOfRecruiterNeeded(recruiter, target, terrain, hex), nil
	}, observe.Attr("recruiter", recruiter), observe.Attr("recruit", target), observe.Attr("terrain", string(terrain)))
}

// RecruitFor returns the creature number recruiters muster in terrain.
func (s *Service) RecruitFor(ctx context.Context, recruiter string, terrain recruit.Terrain, number int) (string, bool, error) {
	type found struct {
		name string
		ok   bool
	}
	r, err := query(ctx, s, "recruit_for", func() (found, error) {
		if err := errors.Join(s.creature(recruiter), s.terrain(terrain)); err != nil {
			return found{}, err
		}
		name, ok := s.graph.RecruitFromRecruiterTerrainNumber(recruiter, terrain, number)
		return found{name, ok}, nil
	}, observe.Attr("recruiter", recruiter), observe.Attr("terrain", string(terrain)))
	return r.name, r.ok, err
}

// BestRecruit returns the highest valued creature reachable from creature
// given the live stock and the legion contents.
func (s *Service) BestRecruit(ctx context.Context, creature string, legion map[string]int) (BestRecruit, error) {
	res, err := query(ctx, s, "best_recruit", func() (BestRecruit, error) {
		if err := s.creature(creature); err != nil {
			return BestRecruit{}, err
		}
		var errs []error
		for _, name := range slices.Sorted(maps.Keys(legion)) {
			errs = append(errs, s.creature(name))
		}
		if err := errors.Join(errs...); err != nil {
			return BestRecruit{}, err
		}
		l, err := caretaker.NewLegion("", s.defaultHex, legion)
		if err != nil {
			return BestRecruit{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		return BestRecruit{
			Best:      s.graph.BestPossibleRecruitEver(creature, l),
			Reachable: s.graph.Reachable(creature, l),
		}, nil
	}, observe.Attr("creature", creature))
	if err == nil {
		s.metrics.RecordTraversal(ctx, len(res.Reachable))
	}
	return res, err
}

// RecruitDistance reports whether greater is within distance recruit steps
// of lesser. A negative distance uses the configured default.
func (s *Service) RecruitDistance(ctx context.Context, lesser, greater string, distance int) (bool, error) {
	return query(ctx, s, "recruit_distance", func() (bool, error) {
		if err := errors.Join(s.creature(lesser), s.creature(greater)); err != nil {
			return false, err
		}
		if distance < 0 {
			distance = s.defaultDistance
		}
		return s.graph.IsRecruitDistanceLessThan(lesser, greater, distance), nil
	}, observe.Attr("lesser", lesser), observe.Attr("greater", greater))
}

// Take removes n creatures of name from the stock and returns what is left.
func (s *Service) Take(ctx context.Context, name string, n int) (int, error) {
	left, err := query(ctx, s, "stock_take", func() (int, error) {
		if err := s.creature(name); err != nil {
			return 0, err
		}
		return s.stock.Take(name, n)
	}, observe.Attr("creature", name))
	if err == nil {
		s.metrics.RecordStockChange(ctx, name, "take", n)
	}
	return left, err
}

// Return puts n creatures of name back and returns what is left.
func (s *Service) Return(ctx context.Context, name string, n int) (int, error) {
	left, err := query(ctx, s, "stock_return", func() (int, error) {
		if err := s.creature(name); err != nil {
			return 0, err
		}
		return s.stock.Return(name, n)
	}, observe.Attr("creature", name))
	if err == nil {
		s.metrics.RecordStockChange(ctx, name, "return", n)
	}
	return left, err
}

// Stock returns a copy of the live stock.
func (s *Service) Stock(ctx context.Context) map[string]int {
	out, _ := query(ctx, s, "stock", func() (map[string]int, error) {
		return s.stock.Snapshot(), nil
	})
	return out
}

// ResetStock restores every creature to its box count.
func (s *Service) ResetStock(ctx context.Context) {
	_, _ = query(ctx, s, "stock_reset", func() (struct{}, error) {
		s.stock.Reset()
		return struct{}{}, nil
	})
}
