// Package filter post-processes extracted articles: it detects
// trending topics across titles, scores each article against them, and
// applies the lookback window with a rescue pass for articles whose
// publish date could not be recovered.
package filter

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"livesearch/internal/core"
	"livesearch/internal/logger"
)

const (
	// maxTrendingTopics caps how many repeated title words count as trending.
	maxTrendingTopics = 5
	// trendingBodyWindow is how much leading body text participates in scoring.
	trendingBodyWindow = 500
	// rescueScanWindow is how much leading body text is scanned for recency cues.
	rescueScanWindow = 1000
)

// topicWordRe keeps words of at least four letters; shorter function
// words are never meaningful topics.
var topicWordRe = regexp.MustCompile(`[a-z]{4,}`)

// stopwords are domain-generic and location-generic words that never
// count as trending topics.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "this": {}, "with": {},
	"from": {}, "what": {}, "have": {}, "news": {}, "latest": {}, "updates": {},
	"google": {}, "search": {}, "results": {}, "article": {}, "articles": {},
	"content": {}, "more": {}, "about": {}, "also": {}, "been": {}, "could": {},
	"after": {}, "into": {}, "their": {}, "them": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "were": {}, "will": {}, "would": {}, "year": {},
	"years": {}, "says": {}, "said": {}, "like": {}, "just": {}, "city": {},
	"today": {}, "time": {}, "times": {}, "india": {}, "indian": {},
	"lucknow": {}, "delhi": {}, "mumbai": {}, "sport": {}, "sports": {},
	"cricket": {}, "team": {}, "teams": {}, "live": {}, "highlights": {},
	"match": {}, "points": {}, "table": {}, "current": {}, "situation": {},
	"check": {}, "schedule": {}, "player": {}, "result": {}, "ranking": {},
	"review": {}, "official": {}, "information": {}, "guide": {},
	"explained": {}, "beyond": {}, "future": {}, "trends": {}, "state": {},
	"report": {}, "event": {}, "events": {}, "technology": {},
	"technologies": {}, "service": {}, "services": {}, "blog": {},
}

// recencyCues are phrases that mark undated content as probably fresh.
var recencyCues = []string{
	"today", "breaking", "latest", "hours ago", "just now",
	"this morning", "this afternoon", "this evening", "yesterday",
}

// DetectTrending tokenizes all article titles into words of at least
// four letters, drops stopwords, and returns the top words appearing
// more than once, keyed by occurrence count.
func DetectTrending(articles []core.Article) map[string]int {
	counts := make(map[string]int)
	for _, a := range articles {
		for _, word := range topicWordRe.FindAllString(strings.ToLower(a.Title), -1) {
			if _, stop := stopwords[word]; stop {
				continue
			}
			counts[word]++
		}
	}

	type wc struct {
		word  string
		count int
	}
	var repeated []wc
	for word, count := range counts {
		if count > 1 {
			repeated = append(repeated, wc{word, count})
		}
	}
	sort.Slice(repeated, func(i, j int) bool {
		if repeated[i].count != repeated[j].count {
			return repeated[i].count > repeated[j].count
		}
		return repeated[i].word < repeated[j].word
	})
	if len(repeated) > maxTrendingTopics {
		repeated = repeated[:maxTrendingTopics]
	}

	trending := make(map[string]int, len(repeated))
	for _, t := range repeated {
		trending[t.word] = t.count
	}
	if len(trending) > 0 {
		logger.Info("detected trending topics", "topics", trending)
	}
	return trending
}

// ScoreTrending sets every article's trending score to the sum of topic
// counts for topics found in its title plus the leading body text.
func ScoreTrending(articles []core.Article, topics map[string]int) {
	if len(topics) == 0 {
		return
	}
	for i := range articles {
		body := articles[i].Text
		if len(body) > trendingBodyWindow {
			body = body[:trendingBodyWindow]
		}
		haystack := strings.ToLower(articles[i].Title + " " + body)
		score := 0
		for topic, count := range topics {
			if strings.Contains(haystack, topic) {
				score += count
			}
		}
		articles[i].TrendingScore = score
	}
}

// SortByTrending orders articles by trending score, breaking ties in
// favor of records with a known publish date. The sort is stable.
func SortByTrending(articles []core.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].TrendingScore != articles[j].TrendingScore {
			return articles[i].TrendingScore > articles[j].TrendingScore
		}
		return articles[i].PublishDate != nil && articles[j].PublishDate == nil
	})
}

// Filter applies the lookback window and content threshold to the
// extracted article set.
type Filter struct {
	minContentLength int
	maxArticles      int

	// Now is the clock used for cutoff computation; replaceable in tests.
	Now func() time.Time
}

// New creates a filter with the given content threshold and result cap.
func New(minContentLength, maxArticles int) *Filter {
	return &Filter{
		minContentLength: minContentLength,
		maxArticles:      maxArticles,
		Now:              time.Now,
	}
}

// Apply selects and orders the final article set. Without a lookback
// constraint it keeps every usable record, sorted by trending score
// when scores were computed. With a lookback constraint, records with
// an in-window publish date are kept outright and undated records get
// a rescue pass gated on recency cues or a positive trending score.
// Applying the filter to its own output yields the identical list.
func (f *Filter) Apply(articles []core.Article, lookbackHours int) []core.Article {
	var final []core.Article

	if lookbackHours <= 0 {
		for _, a := range articles {
			if a.Usable(f.minContentLength) {
				final = append(final, a)
			}
		}
		if anyTrending(final) {
			SortByTrending(final)
		}
		return f.truncate(final)
	}

	now := f.Now().UTC()
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	var undated []core.Article
	for _, a := range articles {
		if a.PublishDate != nil {
			if !a.PublishDate.Before(cutoff) {
				final = append(final, a)
			} else {
				logger.Debug("filtered out by date", "url", a.URL, "published", a.PublishDate)
			}
			continue
		}
		undated = append(undated, a)
	}

	if len(final) < f.maxArticles {
		final = append(final, f.rescue(undated, now, f.maxArticles-len(final))...)
	}

	logger.Info("retained articles after lookback filter", "count", len(final), "lookback_hours", lookbackHours)
	return f.truncate(final)
}

// rescue admits undated articles, best first, when they carry enough
// content and either a recency-language cue in the leading text or a
// positive trending score. The two conditions are independent.
func (f *Filter) rescue(undated []core.Article, now time.Time, budget int) []core.Article {
	sort.SliceStable(undated, func(i, j int) bool {
		if undated[i].TrendingScore != undated[j].TrendingScore {
			return undated[i].TrendingScore > undated[j].TrendingScore
		}
		return len(undated[i].Text) > len(undated[j].Text)
	})

	cues := append([]string{}, recencyCues...)
	for _, day := range []time.Time{now, now.AddDate(0, 0, -1)} {
		cues = append(cues,
			strings.ToLower(day.Format("January 2")),
			strings.ToLower(day.Format("2 January")),
			strings.ToLower(day.Format("January 02")),
			strings.ToLower(day.Format("02 January")),
		)
	}

	var admitted []core.Article
	for _, a := range undated {
		if len(admitted) >= budget {
			break
		}
		if !a.Usable(f.minContentLength) {
			logger.Debug("filtered out undated article with insufficient content", "url", a.URL)
			continue
		}
		switch {
		case hasAnyCue(a.Text, cues):
			logger.Warn("keeping undated article on recency cues", "url", a.URL)
			admitted = append(admitted, a)
		case a.TrendingScore > 0:
			logger.Warn("keeping undated article on trending score", "url", a.URL, "score", a.TrendingScore)
			admitted = append(admitted, a)
		default:
			logger.Debug("filtered out undated article without recency evidence", "url", a.URL)
		}
	}
	return admitted
}

func (f *Filter) truncate(articles []core.Article) []core.Article {
	if len(articles) > f.maxArticles {
		return articles[:f.maxArticles]
	}
	return articles
}

func hasAnyCue(text string, cues []string) bool {
	window := text
	if len(window) > rescueScanWindow {
		window = window[:rescueScanWindow]
	}
	window = strings.ToLower(window)
	for _, cue := range cues {
		if strings.Contains(window, cue) {
			return true
		}
	}
	return false
}

func anyTrending(articles []core.Article) bool {
	for _, a := range articles {
		if a.TrendingScore > 0 {
			return true
		}
	}
	return false
}
