package shared

import (
	"sort"
	"strings"
)

// MatchesQuery reports whether any field contains query, ignoring case and
// surrounding whitespace. An empty query matches everything.
func MatchesQuery(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// DistinctSorted returns the non-empty distinct values in ascending order.
func DistinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// DigitsOnly strips every non-digit and truncates the result to max runes
// when max is positive.
func DigitsOnly(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		if max > 0 && b.Len() >= max {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}
