// Package planner turns a natural-language request plus optional
// location and lookback hints into an immutable QueryPlan, and expands
// that plan into the bounded set of refined queries the aggregator will
// issue. Everything here is a pure transformation so the heuristics can
// be unit-tested without network access.
package planner

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
	"unicode"

	"livesearch/internal/config"
	"livesearch/internal/core"
)

// MaxRefinedQueries bounds how many query variants one plan expands to.
const MaxRefinedQueries = 5

// Request carries the planner inputs for one pipeline run.
type Request struct {
	Query         string
	Location      string
	LookbackHours int // 0 means no explicit lookback
}

// BuildPlan derives the API query, trusted-domain set, per-query result
// budget, and date restriction for a request. Rules apply in order and
// later rules may override earlier ones. An empty query degrades to a
// pass-through plan.
func BuildPlan(req Request, cfg *config.Config, now time.Time) core.QueryPlan {
	query := strings.TrimSpace(req.Query)
	queryLower := strings.ToLower(query)
	locationLower := strings.ToLower(req.Location)

	plan := core.QueryPlan{
		APIQuery:        query,
		ResultsPerQuery: cfg.Search.ResultsPerQuery,
	}
	plan.TrustedDomains = append(plan.TrustedDomains, cfg.Domains.TrustedGeneral...)

	if query == "" {
		plan.TrustedDomains = dedupe(plan.TrustedDomains)
		return plan
	}

	// Rule 1: work the location into the query unless already present.
	// Recency-flavored queries read better location-first.
	if req.Location != "" && !strings.Contains(queryLower, locationLower) {
		if core.HasRecencyWords(query) {
			plan.APIQuery = req.Location + " " + query
		} else {
			plan.APIQuery = query + " in " + req.Location
		}
	}

	// Rule 2: location-specific trusted domains.
	if req.Location != "" {
		for keyword, domains := range cfg.Domains.TrustedByPlace {
			if strings.Contains(locationLower, keyword) {
				plan.TrustedDomains = append(plan.TrustedDomains, domains...)
			}
		}
	}

	// Rule 3: date restriction from explicit lookback hours, then from
	// phrases in the query text, then from generic recency words.
	switch {
	case req.LookbackHours > 0:
		plan.DateRestrict = restrictForLookback(req.LookbackHours)
	case strings.Contains(queryLower, "last 24 hours") || strings.Contains(queryLower, "today"):
		plan.DateRestrict = "d1"
	case strings.Contains(queryLower, "last week") || strings.Contains(queryLower, "past week"):
		plan.DateRestrict = "w1"
	case strings.Contains(queryLower, "last month") || strings.Contains(queryLower, "past month"):
		plan.DateRestrict = "m1"
	case core.HasRecencyWords(query):
		plan.DateRestrict = "d7"
	}

	// Rule 4: a query pinned to the current calendar year with no
	// recency wording should not be artificially windowed. A
	// restriction already set by rule 3 wins over the year literal.
	currentYear := strconv.Itoa(now.Year())
	if plan.DateRestrict == "" && strings.Contains(query, currentYear) &&
		!strings.Contains(queryLower, "latest") && !strings.Contains(queryLower, "current") {
		plan.DateRestrict = ""
	}

	// Rule 5: topic-specific trusted domains.
	for keyword, domains := range cfg.Domains.TrustedByTopic {
		if strings.Contains(queryLower, keyword) {
			plan.TrustedDomains = append(plan.TrustedDomains, domains...)
		}
	}

	// Rule 6: news context trades fewer refined queries for more
	// results per query.
	if plan.DateRestrict != "" || core.HasRecencyWords(query) {
		floor := plan.ResultsPerQuery
		if floor < 7 {
			floor = 7
		}
		if floor > 10 {
			floor = 10
		}
		plan.ResultsPerQuery = floor
	}

	// Rule 7: entity heuristic. A longer unquoted query whose words are
	// mostly capitalized is treated as a proper-noun search and quoted.
	if isEntityQuery(query) {
		quoted := `"` + query + `"`
		if req.Location != "" && !strings.Contains(strings.ToLower(quoted), locationLower) {
			plan.APIQuery = quoted + " in " + req.Location
		} else {
			plan.APIQuery = quoted
		}
	}

	plan.TrustedDomains = dedupe(plan.TrustedDomains)
	return plan
}

// restrictForLookback maps explicit lookback hours to a dateRestrict
// bucket: up to a day, a week, a month; anything longer is unrestricted.
func restrictForLookback(hours int) string {
	switch {
	case hours <= 24:
		return "d1"
	case hours <= 24*7:
		return "w1"
	case hours <= 24*30:
		return "m1"
	default:
		return ""
	}
}

// isEntityQuery reports whether a query looks like a proper-noun search:
// more than two words, not already quoted, and a capitalized majority.
func isEntityQuery(query string) bool {
	if strings.HasPrefix(query, `"`) && strings.HasSuffix(query, `"`) {
		return false
	}
	words := strings.Fields(query)
	if len(words) <= 2 {
		return false
	}
	capitalized := 0
	for _, w := range words {
		r := []rune(w)
		if len(r) > 0 && unicode.IsUpper(r[0]) {
			capitalized++
		}
	}
	return capitalized*2 > len(words)
}

// RefinedQueries expands a plan into at most MaxRefinedQueries search
// queries, base query first. Site-restricted variants draw from a
// shuffled copy of the trusted-domain set so no single source dominates
// across runs. A nil rng falls back to the global source.
func RefinedQueries(plan core.QueryPlan, rng *rand.Rand) []string {
	queries := []string{plan.APIQuery}
	seen := map[string]bool{plan.APIQuery: true}
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q != "" && !seen[q] {
			seen[q] = true
			queries = append(queries, q)
		}
	}

	entity := plan.IsEntitySearch()
	coreQuery := plan.APIQuery
	if entity {
		coreQuery = strings.ReplaceAll(plan.APIQuery, `"`, "")
		add(coreQuery)
		// The quoted entity may carry an " in <location>" suffix; try
		// the bare entity too.
		if i := strings.Index(coreQuery, " in "); i > 0 {
			add(coreQuery[:i])
		}
	}

	if !core.HasRecencyWords(coreQuery) {
		add(coreQuery + " latest news")
		add(coreQuery + " updates")
	}

	siteBudget := 2
	if entity {
		siteBudget = 1
	}
	for _, domain := range shuffled(plan.TrustedDomains, rng) {
		if siteBudget == 0 {
			break
		}
		add(fmt.Sprintf("%s site:%s", coreQuery, strings.TrimSpace(domain)))
		siteBudget--
	}

	if len(queries) > MaxRefinedQueries {
		queries = queries[:MaxRefinedQueries]
	}
	return queries
}

// shuffled returns a shuffled copy, leaving the plan's domain set intact.
func shuffled(domains []string, rng *rand.Rand) []string {
	out := make([]string, len(domains))
	copy(out, domains)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if rng != nil {
		rng.Shuffle(len(out), swap)
	} else {
		rand.Shuffle(len(out), swap)
	}
	return out
}

// dedupe removes duplicate domains preserving first-seen order.
func dedupe(domains []string) []string {
	seen := make(map[string]bool, len(domains))
	out := domains[:0]
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
