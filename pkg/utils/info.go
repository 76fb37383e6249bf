package util

import (
	"sort"
	"strings"
)

// FormatInfo renders a map of info key-values as sorted key:value lines.
func FormatInfo(info map[string]string) string {
	var builder strings.Builder
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(":")
		builder.WriteString(info[k])
		builder.WriteString("\n")
	}
	return builder.String()
}
