// Package pipeline wires planning, search, fetching, extraction and
// filtering into a single run. Each stage is an interface so tests can
// substitute any piece.
package pipeline

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"livesearch/internal/aggregate"
	"livesearch/internal/config"
	"livesearch/internal/core"
	"livesearch/internal/extract"
	"livesearch/internal/fetch"
	"livesearch/internal/filter"
	"livesearch/internal/logger"
	"livesearch/internal/planner"
	"livesearch/internal/search"
)

// Collector turns a query plan into deduplicated search candidates.
type Collector interface {
	Collect(ctx context.Context, plan core.QueryPlan, queries []string) []aggregate.Candidate
}

// Fetcher downloads raw HTML for a candidate URL. An empty string
// means the download failed after all attempts.
type Fetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Extractor turns a candidate plus its HTML into an article record.
type Extractor interface {
	Extract(cand core.SearchCandidate, html string) core.Article
}

// Filter applies the lookback window and result cap to the extracted
// set.
type Filter interface {
	Apply(articles []core.Article, lookbackHours int) []core.Article
}

// Request describes one search run.
type Request struct {
	Query         string
	Location      string
	LookbackHours int
}

// Result is what a run produced. Articles may be empty; a run that
// found nothing is still a successful run.
type Result struct {
	RunID    string
	Plan     core.QueryPlan
	Queries  []string
	Articles []core.Article
}

// Engine executes search runs.
type Engine struct {
	cfg       *config.Config
	collector Collector
	fetcher   Fetcher
	extractor Extractor
	filter    Filter

	now func() time.Time
	rng *rand.Rand
}

// New assembles an engine from explicit stages.
func New(cfg *config.Config, collector Collector, fetcher Fetcher, extractor Extractor, f Filter) *Engine {
	return &Engine{
		cfg:       cfg,
		collector: collector,
		fetcher:   fetcher,
		extractor: extractor,
		filter:    f,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewDefault assembles an engine with the production stages built from
// configuration: the collector on the given search provider, the HTTP
// fetcher, the extraction cascade and the recency filter.
func NewDefault(cfg *config.Config, provider search.Provider) *Engine {
	return New(cfg,
		aggregate.NewCollector(provider, cfg),
		fetch.NewClient(cfg.Fetch),
		extract.NewExtractor(cfg.Extract.MinContentLength, extract.NewRegistry()),
		filter.New(cfg.Extract.MinContentLength, cfg.Search.MaxArticles),
	)
}

// Run executes the full pipeline for one request. Individual page
// failures are contained; the worst case is a shorter or empty article
// list. The returned error is non-nil only when the context is done.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	result := Result{RunID: uuid.NewString()}
	logger.Info("starting search run",
		"run_id", result.RunID,
		"query", req.Query,
		"location", req.Location,
		"lookback_hours", req.LookbackHours)

	result.Plan = planner.BuildPlan(planner.Request{
		Query:         req.Query,
		Location:      req.Location,
		LookbackHours: req.LookbackHours,
	}, e.cfg, e.now())
	result.Queries = planner.RefinedQueries(result.Plan, e.rng)

	candidates := e.collector.Collect(ctx, result.Plan, result.Queries)
	logger.Info("collected candidates", "run_id", result.RunID, "count", len(candidates))

	var articles []core.Article
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		html := e.fetcher.Fetch(ctx, cand.URL)
		article := e.extractor.Extract(cand.SearchCandidate, html)
		article.Priority = cand.Priority
		articles = append(articles, article)
	}

	// Trending detection only makes sense when the request is after
	// recent news; a neutral query keeps its discovery order.
	if result.Plan.NewsFlavored() || req.LookbackHours > 0 {
		topics := filter.DetectTrending(articles)
		filter.ScoreTrending(articles, topics)
		if len(topics) > 0 {
			filter.SortByTrending(articles)
		}
	}

	result.Articles = e.filter.Apply(articles, req.LookbackHours)
	logger.Info("search run finished",
		"run_id", result.RunID,
		"extracted", len(articles),
		"retained", len(result.Articles))
	return result, nil
}
