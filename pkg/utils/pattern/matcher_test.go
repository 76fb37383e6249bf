package pattern_test

import (
	"testing"

	"github.com/forgelight/membudget/pkg/utils/pattern"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		str     string
		want    bool
	}{
		{"*", "tex_wall_01", true},
		{"tex_?all_01", "tex_wall_01", true},
		{"tex_*", "tex_wall_01", true},
		{"mesh_*", "tex_wall_01", false},
		{"[aeiou]", "a", true},
		{"[aeiou]", "b", false},
		{"h[aeiou]llo", "hello", true},
		{"h[aeiou]llo", "hxllo", false},
		{"exact", "exact", true},
		{"exact", "other", false},
		{"\\*", "*", true},
		{"\\?", "?", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.str, func(t *testing.T) {
			got := pattern.Match(tt.pattern, tt.str)
			if got != tt.want {
				t.Errorf("Match(%q, %q) = %v; want %v", tt.pattern, tt.str, got, tt.want)
			}
		})
	}
}

func TestMatchCached(t *testing.T) {
	matcher := pattern.NewMatcher()

	tests := []struct {
		pattern string
		str     string
		want    bool
	}{
		{"*", "audio_theme", true},
		{"audio_*", "audio_theme", true},
		{"audio_*", "mesh_rock", false},
		{"mesh_rock", "mesh_rock", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.str, func(t *testing.T) {
			got := matcher.MatchCached(tt.pattern, tt.str)
			if got != tt.want {
				t.Errorf("MatchCached(%q, %q) = %v; want %v", tt.pattern, tt.str, got, tt.want)
			}
		})
	}

	// Cached second pass returns the same results.
	for _, tt := range tests {
		if got := matcher.MatchCached(tt.pattern, tt.str); got != tt.want {
			t.Errorf("cached MatchCached(%q, %q) = %v; want %v", tt.pattern, tt.str, got, tt.want)
		}
	}
}

func TestIsPattern(t *testing.T) {
	tests := []struct {
		str  string
		want bool
	}{
		{"tex_*", true},
		{"tex_?", true},
		{"tex_[ab]", true},
		{"tex_wall", false},
		{"tex\\*", false},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := pattern.IsPattern(tt.str); got != tt.want {
				t.Errorf("IsPattern(%q) = %v; want %v", tt.str, got, tt.want)
			}
		})
	}
}
