package variant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrWong99/recruitgraph/pkg/recruit"
)

// Validate checks a parsed variant file for consistency and reports every
// problem found, joined with [errors.Join].
//
// Rules:
//   - The variant name must be non-empty.
//   - Creature names must be non-empty, unique and must not collide with a
//     recruiter keyword. Point values and counts must not be negative, and a
//     creature cannot be both lord and demi-lord.
//   - Terrain names must be non-empty and unique.
//   - Every recruit entry must name a known creature, a recruiter keyword or
//     a declared special rule. Negative numbers are not allowed in terrains
//     with regular_recruit.
//   - Special rule names must carry the "Special:" prefix, be unique and
//     list only known creatures.
func Validate(f *File) error {
	if f == nil {
		return errors.New("variant: file must not be nil")
	}

	var errs []error

	if f.Variant.Name == "" {
		errs = append(errs, errors.New("variant name must not be empty"))
	}

	creatures := make(map[string]bool, len(f.Creatures))
	for i, c := range f.Creatures {
		switch {
		case c.Name == "":
			errs = append(errs, fmt.Errorf("creatures[%d]: name must not be empty", i))
			continue
		case recruit.IsKeyword(c.Name):
			errs = append(errs, fmt.Errorf("creatures[%d]: %q is a reserved recruiter name", i, c.Name))
		case creatures[c.Name]:
			errs = append(errs, fmt.Errorf("creatures[%d]: duplicate creature %q", i, c.Name))
		}
		creatures[c.Name] = true

		if c.PointValue < 0 {
			errs = append(errs, fmt.Errorf("creature %q: point_value must not be negative", c.Name))
		}
		if c.Count < 0 {
			errs = append(errs, fmt.Errorf("creature %q: count must not be negative", c.Name))
		}
		if c.Lord && c.DemiLord {
			errs = append(errs, fmt.Errorf("creature %q: cannot be both lord and demi_lord", c.Name))
		}
	}

	rules := make(map[string]bool, len(f.SpecialRules))
	for i, r := range f.SpecialRules {
		if !strings.HasPrefix(r.Name, recruit.SpecialPrefix) || r.Name == recruit.SpecialPrefix {
			errs = append(errs, fmt.Errorf("special_rules[%d]: name %q must start with %q", i, r.Name, recruit.SpecialPrefix))
		}
		if rules[r.Name] {
			errs = append(errs, fmt.Errorf("special_rules[%d]: duplicate rule %q", i, r.Name))
		}
		rules[r.Name] = true

		if r.RecruitersNeeded < 0 {
			errs = append(errs, fmt.Errorf("rule %q: recruiters_needed must not be negative", r.Name))
		}
		for _, name := range r.Recruits {
			if !creatures[name] {
				errs = append(errs, fmt.Errorf("rule %q: unknown recruit %q", r.Name, name))
			}
		}
	}

	terrains := make(map[string]bool, len(f.Terrains))
	for i, t := range f.Terrains {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("terrains[%d]: name must not be empty", i))
		} else if terrains[t.Name] {
			errs = append(errs, fmt.Errorf("terrains[%d]: duplicate terrain %q", i, t.Name))
		}
		terrains[t.Name] = true

		for j, e := range t.Recruits {
			r := recruit.ParseRecruiter(e.Name)
			switch {
			case e.Name == "":
				errs = append(errs, fmt.Errorf("terrain %q: recruits[%d]: name must not be empty", t.Name, j))
			case r.Kind == recruit.RecruiterSpecial:
				if !rules[e.Name] {
					errs = append(errs, fmt.Errorf("terrain %q: recruits[%d]: undeclared special rule %q", t.Name, j, e.Name))
				}
			case r.IsConcrete() && !creatures[e.Name]:
				errs = append(errs, fmt.Errorf("terrain %q: recruits[%d]: unknown creature %q", t.Name, j, e.Name))
			}
			if e.Number < 0 && t.RegularRecruit {
				errs = append(errs, fmt.Errorf("terrain %q: recruits[%d]: negative number not allowed with regular_recruit", t.Name, j))
			}
		}
	}

	return errors.Join(errs...)
}
