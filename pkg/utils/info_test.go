package util_test

import (
	"sort"
	"strings"
	"testing"

	util "github.com/forgelight/membudget/pkg/utils"
)

func TestFormatInfo(t *testing.T) {
	tests := []struct {
		info map[string]string
		want string
	}{
		{
			info: map[string]string{
				"gc_runs":            "3",
				"total_allocated_mb": "60.00",
				"resource_count":     "2",
			},
			want: "gc_runs:3\nresource_count:2\ntotal_allocated_mb:60.00\n",
		},
		{
			info: map[string]string{
				"alpha": "beta",
				"gamma": "delta",
			},
			want: "alpha:beta\ngamma:delta\n",
		},
		{
			info: map[string]string{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(strings.Join(keysFromMap(tt.info), ","), func(t *testing.T) {
			got := util.FormatInfo(tt.info)
			if got != tt.want {
				t.Errorf("FormatInfo(%v) = %q; want %q", tt.info, got, tt.want)
			}
		})
	}
}

// keysFromMap retrieves keys from a map as a sorted slice
func keysFromMap(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
