package aggregate

import (
	"sort"
	"strings"
)

// DomainPriority resolves a domain's trust score against the priority
// table: exact match wins, a suffix match scores one point below the
// matched entry, anything else scores zero. Suffix candidates are
// tried in sorted key order so the score never depends on map
// iteration order.
func DomainPriority(domain string, table map[string]int) int {
	domain = strings.ToLower(domain)
	if p, ok := table[domain]; ok {
		return p
	}
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.HasSuffix(domain, key) {
			return table[key] - 1
		}
	}
	return 0
}

// Prioritize assigns a trust priority to every candidate and sorts the
// slice by priority descending. The sort is stable so candidates with
// equal trust keep their discovery order.
func Prioritize(candidates []Candidate, table map[string]int) {
	for i := range candidates {
		candidates[i].Priority = DomainPriority(candidates[i].Domain, table)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})
}
