package security

import (
	"sort"
	"strings"
)

const replacement = "_"

// SanitizeKey neutralises operator-injection keys: a leading "$" and every
// "." are replaced.
func SanitizeKey(key string) string {
	if strings.HasPrefix(key, "$") {
		key = replacement + key[1:]
	}
	return strings.ReplaceAll(key, ".", replacement)
}

// SanitizeValue rewrites injection keys in nested maps and slices in place
// and returns the original keys it rewrote, sorted.
func SanitizeValue(v any) []string {
	var rewritten []string
	sanitize(v, &rewritten)
	sort.Strings(rewritten)
	return rewritten
}

func sanitize(v any, rewritten *[]string) {
	switch t := v.(type) {
	case map[string]any:
		for key, child := range t {
			sanitize(child, rewritten)
			if clean := SanitizeKey(key); clean != key {
				delete(t, key)
				t[clean] = child
				*rewritten = append(*rewritten, key)
			}
		}
	case []any:
		for _, child := range t {
			sanitize(child, rewritten)
		}
	}
}
