package inspector

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	// phoneticThreshold applies to names whose Double Metaphone codes
	// overlap with the input ("Sentaur" vs "Centaur").
	phoneticThreshold = 0.70

	// fuzzyThreshold applies to everything else.
	fuzzyThreshold = 0.85
)

// Suggest returns the known name closest to name, or "" when nothing is
// close enough. Matching is case-insensitive; a sounds-alike name wins at a
// lower similarity than a plain typo.
func Suggest(name string, known []string) string {
	in := strings.ToLower(strings.TrimSpace(name))
	if in == "" {
		return ""
	}
	inCodes := metaphone(in)

	best, bestScore := "", 0.0
	for _, k := range known {
		kl := strings.ToLower(k)
		if kl == in {
			return k
		}
		score := matchr.JaroWinkler(in, kl, false)
		threshold := fuzzyThreshold
		if overlaps(inCodes, metaphone(kl)) {
			threshold = phoneticThreshold
		}
		if score >= threshold && score > bestScore {
			best, bestScore = k, score
		}
	}
	return best
}

func metaphone(s string) [2]string {
	p, alt := matchr.DoubleMetaphone(s)
	return [2]string{p, alt}
}

func overlaps(a, b [2]string) bool {
	for _, x := range a {
		if x == "" {
			continue
		}
		if x == b[0] || x == b[1] {
			return true
		}
	}
	return false
}
