package core

import (
	"strings"
	"time"
)

// ExtractionMethod identifies which stage of the extraction cascade
// produced an article's text.
type ExtractionMethod string

const (
	ExtractionNone             ExtractionMethod = "none"
	ExtractionCustom           ExtractionMethod = "custom"
	ExtractionReadability      ExtractionMethod = "readability"
	ExtractionReadabilityShort ExtractionMethod = "readability_short"
	ExtractionGoquery          ExtractionMethod = "goquery"
	ExtractionGoqueryShort     ExtractionMethod = "goquery_short"
)

// SearchCandidate is a single hit returned by the search provider,
// before any content has been fetched. Candidates live only for the
// duration of one pipeline run.
type SearchCandidate struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Domain  string `json:"domain"`
	Snippet string `json:"snippet"`
}

// Article is the central record of the pipeline: a search candidate
// enriched with fetched and extracted content. URL is the unique key
// within a run; nothing is persisted past the run.
type Article struct {
	ID               string           `json:"id"`                // Unique identifier for the article
	URL              string           `json:"url"`               // Source URL, dedupe key within a run
	Title            string           `json:"title"`             // Best available title (search result, extractor, or synthesized)
	Text             string           `json:"text"`              // Extracted body text; empty means extraction failed
	PublishDate      *time.Time       `json:"publish_date"`      // Publish timestamp in UTC, nil when unknown
	Domain           string           `json:"domain"`            // Lowercased host
	ExtractionMethod ExtractionMethod `json:"extraction_method"` // Which cascade stage produced Text
	ExtractionNote   string           `json:"extraction_note"`   // Append-only diagnostic trail across stages
	Priority         int              `json:"priority"`          // Domain trust score, set for recency-flavored queries
	TrendingScore    int              `json:"trending_score"`    // Trending-topic score, set when trending detection runs
}

// Usable reports whether the article carries enough extracted text to be
// used as a primary result. Records below the threshold survive only as
// a last-resort fallback pool.
func (a *Article) Usable(minContentLength int) bool {
	return len(a.Text) >= minContentLength
}

// AppendNote adds a diagnostic note to the article's extraction trail.
// Notes are never overwritten, only appended.
func (a *Article) AppendNote(note string) {
	if note == "" {
		return
	}
	if a.ExtractionNote == "" {
		a.ExtractionNote = note
		return
	}
	a.ExtractionNote = a.ExtractionNote + " | " + note
}

// SetPublishDate stores a publish date, normalizing to UTC. A nil or
// zero time clears the date back to unknown.
func (a *Article) SetPublishDate(t *time.Time) {
	if t == nil || t.IsZero() {
		a.PublishDate = nil
		return
	}
	utc := t.UTC()
	a.PublishDate = &utc
}

// QueryPlan is the immutable output of the query planner: what to ask
// the search API and under which constraints.
type QueryPlan struct {
	APIQuery        string   `json:"api_query"`         // The (possibly rewritten) query sent to the search API
	TrustedDomains  []string `json:"trusted_domains"`   // Domains preferred for site-restricted refinement
	ResultsPerQuery int      `json:"results_per_query"` // Requested results per API call
	DateRestrict    string   `json:"date_restrict"`     // CSE dateRestrict code ("d1", "w1", "m1", "d7") or "" for none
}

// IsEntitySearch reports whether the planned query was wrapped in quotes
// by the proper-noun heuristic.
func (p QueryPlan) IsEntitySearch() bool {
	return strings.Count(p.APIQuery, `"`) >= 2
}

// NewsFlavored reports whether the plan targets recent news, either via
// an explicit date restriction or recency wording in the query itself.
func (p QueryPlan) NewsFlavored() bool {
	if p.DateRestrict != "" {
		return true
	}
	return HasRecencyWords(p.APIQuery)
}

// HasRecencyWords reports whether the text contains generic "give me
// something new" wording.
func HasRecencyWords(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range []string{"news", "latest", "updates", "current"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
