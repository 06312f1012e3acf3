// Package aggregate runs the refined-query loop against the search
// provider and turns raw search results into a bounded, deduplicated,
// trust-ranked candidate list.
package aggregate

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"livesearch/internal/config"
	"livesearch/internal/core"
	"livesearch/internal/logger"
	"livesearch/internal/search"
)

// Candidate is a search result that survived filtering, carrying the
// trust priority computed for news-flavored plans.
type Candidate struct {
	core.SearchCandidate
	Priority int
}

// fileExtensions are direct file links never worth fetching as articles.
var fileExtensions = []string{".pdf", ".doc", ".xls", ".ppt", ".zip", ".exe", ".jpg", ".png", ".gif"}

// Collector issues refined queries against one provider and gathers
// unique candidate URLs up to the processing cap.
type Collector struct {
	provider search.Provider
	cfg      *config.Config
	sleep    func(time.Duration)
	now      func() time.Time
}

// NewCollector creates a collector over the given provider.
func NewCollector(provider search.Provider, cfg *config.Config) *Collector {
	return &Collector{
		provider: provider,
		cfg:      cfg,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Collect runs every refined query in order until the candidate cap is
// reached, deduplicating by exact URL (first occurrence wins). Provider
// errors abandon the current query but never the loop. For news-flavored
// plans the result is sorted by domain trust; otherwise discovery order
// is preserved. Returns at most cfg.Search.MaxArticles candidates.
func (c *Collector) Collect(ctx context.Context, plan core.QueryPlan, queries []string) []Candidate {
	if c.provider == nil {
		logger.Error("search provider not configured, returning no candidates", search.ErrMissingAPIKey)
		return nil
	}

	limit := c.cfg.Search.MaxArticles
	entity := plan.IsEntitySearch()
	seen := make(map[string]bool)
	var collected []Candidate

	for i, query := range queries {
		if len(collected) >= limit {
			logger.Info("candidate cap reached, stopping refined-query loop", "cap", limit)
			break
		}

		results := c.searchWithRetry(ctx, query, c.requestCount(query, queries[0], entity), plan.DateRestrict)
		for _, cand := range c.filterResults(results, plan) {
			if seen[cand.URL] {
				continue
			}
			seen[cand.URL] = true
			collected = append(collected, Candidate{SearchCandidate: cand})
			if len(collected) >= limit {
				break
			}
		}

		// Polite pause between refined-query calls.
		if i < len(queries)-1 {
			c.sleep(c.cfg.Search.QueryDelayDuration())
		}
	}

	if plan.NewsFlavored() {
		Prioritize(collected, c.cfg.Domains.Priority)
	}

	if len(collected) > limit {
		collected = collected[:limit]
	}
	logger.Info("collected unique candidates", "count", len(collected), "queries", len(queries))
	return collected
}

// requestCount sizes the per-call result request: the entity base query
// gets a small bonus, site-restricted variants are halved.
func (c *Collector) requestCount(query, baseQuery string, entity bool) int {
	n := c.cfg.Search.ResultsPerQuery
	switch {
	case entity && query == baseQuery:
		if n+2 < 10 {
			n = n + 2
		} else {
			n = 10
		}
	case strings.Contains(query, "site:"):
		n = n / 2
		if n < 1 {
			n = 1
		}
	}
	return n
}

// searchWithRetry retries only when the API answers with zero results;
// hard errors are logged and the query abandoned.
func (c *Collector) searchWithRetry(ctx context.Context, query string, count int, dateRestrict string) []search.Result {
	searchCfg := search.Config{MaxResults: count, DateRestrict: dateRestrict}
	for attempt := 0; attempt < c.cfg.Search.MaxRetries; attempt++ {
		results, err := c.provider.Search(ctx, query, searchCfg)
		if err != nil && !errors.Is(err, search.ErrNoResults) {
			if errors.Is(err, search.ErrRateLimited) {
				logger.Warn("search quota or rate limit hit", "query", query)
			}
			logger.Error("search query failed, abandoning", err, "query", query)
			return nil
		}
		if len(results) > 0 {
			return results
		}
		logger.Warn("search returned no results", "query", query, "attempt", attempt+1)
		if attempt < c.cfg.Search.MaxRetries-1 {
			c.sleep(time.Duration(c.cfg.Search.BackoffSeconds) * time.Second * (1 << attempt))
		}
	}
	return nil
}

// filterResults applies the URL quality heuristics to one batch of
// provider results.
func (c *Collector) filterResults(results []search.Result, plan core.QueryPlan) []core.SearchCandidate {
	news := plan.NewsFlavored()
	var out []core.SearchCandidate
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		parsed, err := url.Parse(r.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			continue
		}
		if isFileLink(r.URL) {
			logger.Debug("skipping direct file link", "url", r.URL)
			continue
		}
		domain := strings.ToLower(parsed.Hostname())
		if news && c.isLowQuality(domain) {
			logger.Debug("skipping low-quality news source", "url", r.URL)
			continue
		}
		if !c.acceptPath(parsed, domain, r.Snippet, plan, news) {
			logger.Debug("skipping by homepage/path heuristic", "url", r.URL)
			continue
		}
		out = append(out, core.SearchCandidate{
			URL:     r.URL,
			Title:   r.Title,
			Domain:  domain,
			Snippet: r.Snippet,
		})
	}
	return out
}

// acceptPath decides whether a URL plausibly points at an article rather
// than a homepage or section index. News-flavored queries are strict
// about shallow paths unless the snippet clearly matches the query or
// the domain is whitelisted as always-article.
func (c *Collector) acceptPath(parsed *url.URL, domain, snippet string, plan core.QueryPlan, news bool) bool {
	year := strconv.Itoa(c.now().Year())
	lastYear := strconv.Itoa(c.now().Year() - 1)
	raw := parsed.String()

	likelyArticle := strings.Contains(raw, "articleshow") ||
		strings.Contains(raw, "/news/") ||
		strings.Contains(raw, "/"+year+"/") ||
		strings.Contains(raw, "/"+lastYear+"/") ||
		len(strings.Split(parsed.Path, "/")) > 3

	for _, d := range c.cfg.Domains.AlwaysArticle {
		if domain == strings.ToLower(d) {
			likelyArticle = true
		}
	}

	if likelyArticle {
		return true
	}
	if !news {
		return true
	}

	// Shallow path on a news query: only keep it when the snippet
	// carries a significant query keyword.
	if parsed.Path == "" || parsed.Path == "/" || len(strings.Split(parsed.Path, "/")) <= 2 {
		snippetLower := strings.ToLower(snippet)
		for _, kw := range strings.Fields(strings.ToLower(plan.APIQuery)) {
			kw = strings.Trim(kw, `"`)
			if len(kw) > 3 && strings.Contains(snippetLower, kw) {
				return true
			}
		}
	}
	return false
}

func (c *Collector) isLowQuality(domain string) bool {
	for _, d := range c.cfg.Domains.LowQualityNews {
		if domain == strings.ToLower(d) || strings.HasSuffix(domain, "."+strings.ToLower(d)) {
			return true
		}
	}
	return false
}

func isFileLink(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range fileExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
