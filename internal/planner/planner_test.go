package planner

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"livesearch/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Search: config.Search{ResultsPerQuery: 5, MaxArticles: 10},
		Domains: config.Domains{
			TrustedGeneral: []string{"timesofindia.indiatimes.com", "hindustantimes.com"},
			TrustedByTopic: map[string][]string{"cricket": {"espncricinfo.com"}},
			TrustedByPlace: map[string][]string{"lucknow": {"amarujala.com"}},
		},
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
}

func TestBuildPlanLookbackBuckets(t *testing.T) {
	cases := []struct {
		hours    int
		expected string
	}{
		{1, "d1"},
		{24, "d1"},
		{25, "w1"},
		{168, "w1"},
		{169, "m1"},
		{720, "m1"},
		{721, ""},
	}
	for _, c := range cases {
		plan := BuildPlan(Request{Query: "city events", LookbackHours: c.hours}, testConfig(), fixedNow())
		if plan.DateRestrict != c.expected {
			t.Errorf("Expected dateRestrict %q for %d hours, got %q", c.expected, c.hours, plan.DateRestrict)
		}
	}
}

func TestBuildPlanPhraseRestrictions(t *testing.T) {
	cases := map[string]string{
		"what happened in the last 24 hours": "d1",
		"stories from the past week":         "w1",
		"summary of last month":              "m1",
		"latest developments":                "d7",
		"how compilers work":                 "",
	}
	for query, expected := range cases {
		plan := BuildPlan(Request{Query: query}, testConfig(), fixedNow())
		if plan.DateRestrict != expected {
			t.Errorf("Expected dateRestrict %q for query %q, got %q", expected, query, plan.DateRestrict)
		}
	}
}

func TestBuildPlanCurrentYearClearsRestriction(t *testing.T) {
	// A bare current-year query has no recency signal and so no window.
	plan := BuildPlan(Request{Query: "ipl 2025 final squad"}, testConfig(), fixedNow())
	if plan.DateRestrict != "" {
		t.Errorf("Expected no date restriction for a bare year query, got %q", plan.DateRestrict)
	}

	// A restriction set from a phrase survives the year literal.
	plan = BuildPlan(Request{Query: "ipl 2025 results today"}, testConfig(), fixedNow())
	if plan.DateRestrict != "d1" {
		t.Errorf("Expected 'today' to keep its daily window despite the year, got %q", plan.DateRestrict)
	}

	// So does the generic-recency default.
	plan = BuildPlan(Request{Query: "ipl 2025 news"}, testConfig(), fixedNow())
	if plan.DateRestrict != "d7" {
		t.Errorf("Expected 'news' to keep the weekly default despite the year, got %q", plan.DateRestrict)
	}

	// "latest" keeps the window even alongside the year.
	plan = BuildPlan(Request{Query: "latest ipl 2025 results"}, testConfig(), fixedNow())
	if plan.DateRestrict == "" {
		t.Error("Expected 'latest' to keep the date restriction despite the year")
	}

	// An explicit lookback always wins.
	plan = BuildPlan(Request{Query: "ipl 2025 results", LookbackHours: 24}, testConfig(), fixedNow())
	if plan.DateRestrict != "d1" {
		t.Errorf("Expected explicit lookback to survive the year rule, got %q", plan.DateRestrict)
	}
}

func TestBuildPlanLocation(t *testing.T) {
	plan := BuildPlan(Request{Query: "weather updates", Location: "lucknow"}, testConfig(), fixedNow())
	if plan.APIQuery != "lucknow weather updates" {
		t.Errorf("Expected location prefix for recency query, got %q", plan.APIQuery)
	}

	plan = BuildPlan(Request{Query: "best street food", Location: "lucknow"}, testConfig(), fixedNow())
	if plan.APIQuery != "best street food in lucknow" {
		t.Errorf("Expected location suffix for neutral query, got %q", plan.APIQuery)
	}

	plan = BuildPlan(Request{Query: "lucknow metro timings", Location: "Lucknow"}, testConfig(), fixedNow())
	if plan.APIQuery != "lucknow metro timings" {
		t.Errorf("Expected query already naming the location to be untouched, got %q", plan.APIQuery)
	}

	found := false
	for _, d := range plan.TrustedDomains {
		if d == "amarujala.com" {
			found = true
		}
	}
	if !found {
		t.Error("Expected location-specific trusted domains to be merged into the plan")
	}
}

func TestBuildPlanTopicDomains(t *testing.T) {
	plan := BuildPlan(Request{Query: "cricket score analysis"}, testConfig(), fixedNow())
	found := false
	for _, d := range plan.TrustedDomains {
		if d == "espncricinfo.com" {
			found = true
		}
	}
	if !found {
		t.Error("Expected topic-specific trusted domains to be merged into the plan")
	}
}

func TestBuildPlanNewsResultFloor(t *testing.T) {
	plan := BuildPlan(Request{Query: "latest tech news"}, testConfig(), fixedNow())
	if plan.ResultsPerQuery != 7 {
		t.Errorf("Expected news-flavored plan to request at least 7 results, got %d", plan.ResultsPerQuery)
	}

	plan = BuildPlan(Request{Query: "how compilers work"}, testConfig(), fixedNow())
	if plan.ResultsPerQuery != 5 {
		t.Errorf("Expected neutral plan to keep the configured budget, got %d", plan.ResultsPerQuery)
	}
}

func TestBuildPlanEntityQuoting(t *testing.T) {
	plan := BuildPlan(Request{Query: "Elon Musk SpaceX Launch"}, testConfig(), fixedNow())
	if plan.APIQuery != `"Elon Musk SpaceX Launch"` {
		t.Errorf("Expected entity query to be quoted, got %q", plan.APIQuery)
	}
	if !plan.IsEntitySearch() {
		t.Error("Expected quoted plan to report as entity search")
	}

	plan = BuildPlan(Request{Query: "Elon Musk SpaceX Launch", Location: "texas"}, testConfig(), fixedNow())
	if plan.APIQuery != `"Elon Musk SpaceX Launch" in texas` {
		t.Errorf("Expected quoted entity with location suffix, got %q", plan.APIQuery)
	}

	// Two words are not enough for the heuristic.
	plan = BuildPlan(Request{Query: "Elon Musk"}, testConfig(), fixedNow())
	if strings.Contains(plan.APIQuery, `"`) {
		t.Errorf("Expected two-word query to stay unquoted, got %q", plan.APIQuery)
	}

	// Lowercase majority is not an entity.
	plan = BuildPlan(Request{Query: "how does SpaceX land rockets"}, testConfig(), fixedNow())
	if strings.Contains(plan.APIQuery, `"`) {
		t.Errorf("Expected lowercase-majority query to stay unquoted, got %q", plan.APIQuery)
	}
}

func TestBuildPlanEmptyQuery(t *testing.T) {
	plan := BuildPlan(Request{Query: "  "}, testConfig(), fixedNow())
	if plan.APIQuery != "" {
		t.Errorf("Expected empty query to pass through, got %q", plan.APIQuery)
	}
	if plan.DateRestrict != "" {
		t.Errorf("Expected no date restriction for empty query, got %q", plan.DateRestrict)
	}
}

func TestRefinedQueriesBaseFirstAndBounded(t *testing.T) {
	plan := BuildPlan(Request{Query: "semiconductor supply chain"}, testConfig(), fixedNow())
	rng := rand.New(rand.NewSource(1))
	queries := RefinedQueries(plan, rng)

	if len(queries) == 0 || queries[0] != plan.APIQuery {
		t.Fatalf("Expected base query first, got %v", queries)
	}
	if len(queries) > MaxRefinedQueries {
		t.Errorf("Expected at most %d refined queries, got %d", MaxRefinedQueries, len(queries))
	}

	seen := map[string]bool{}
	for _, q := range queries {
		if seen[q] {
			t.Errorf("Expected refined queries to be unique, got duplicate %q", q)
		}
		seen[q] = true
	}

	siteCount := 0
	for _, q := range queries {
		if strings.Contains(q, "site:") {
			siteCount++
		}
	}
	if siteCount == 0 {
		t.Error("Expected at least one site-restricted variant")
	}
	if siteCount > 2 {
		t.Errorf("Expected at most two site-restricted variants, got %d", siteCount)
	}
}

func TestRefinedQueriesRecencyQuerySkipsNewsVariants(t *testing.T) {
	plan := BuildPlan(Request{Query: "latest semiconductor news"}, testConfig(), fixedNow())
	for _, q := range RefinedQueries(plan, rand.New(rand.NewSource(1))) {
		if strings.HasSuffix(q, "latest news") && q != plan.APIQuery {
			t.Errorf("Expected no 'latest news' variant for a recency query, got %q", q)
		}
	}
}

func TestRefinedQueriesEntity(t *testing.T) {
	plan := BuildPlan(Request{Query: "Elon Musk SpaceX Launch", Location: "texas"}, testConfig(), fixedNow())
	queries := RefinedQueries(plan, rand.New(rand.NewSource(1)))

	if queries[0] != `"Elon Musk SpaceX Launch" in texas` {
		t.Fatalf("Expected quoted base query first, got %q", queries[0])
	}

	foundBare := false
	for _, q := range queries {
		if q == "Elon Musk SpaceX Launch" {
			foundBare = true
		}
	}
	if !foundBare {
		t.Errorf("Expected bare entity without location among refinements, got %v", queries)
	}

	siteCount := 0
	for _, q := range queries {
		if strings.Contains(q, "site:") {
			siteCount++
		}
	}
	if siteCount > 1 {
		t.Errorf("Expected entity plans to budget one site-restricted variant, got %d", siteCount)
	}
}
