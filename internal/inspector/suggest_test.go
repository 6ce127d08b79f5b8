package inspector_test

import (
	"testing"

	"github.com/MrWong99/recruitgraph/internal/inspector"
)

func TestSuggest(t *testing.T) {
	t.Parallel()

	known := []string{"Titan", "Centaur", "Lion", "Ranger", "Serpent", "Behemoth"}
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"case-insensitive exact", "centaur", "Centaur"},
		{"transposition", "Centuar", "Centaur"},
		{"vowel typo", "Serpant", "Serpent"},
		{"surrounding space", "  Lion ", "Lion"},
		{"nothing close", "Xyzzy", ""},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := inspector.Suggest(tc.in, known); got != tc.want {
				t.Errorf("Suggest(%q): expected %q, got %q", tc.in, tc.want, got)
			}
		})
	}
}
