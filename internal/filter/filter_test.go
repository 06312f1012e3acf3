package filter

import (
	"strings"
	"testing"
	"time"

	"livesearch/internal/core"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
}

func newTestFilter(minLen, maxArticles int) *Filter {
	f := New(minLen, maxArticles)
	f.Now = fixedNow
	return f
}

func datedArticle(title string, text string, published time.Time) core.Article {
	return core.Article{Title: title, Text: text, PublishDate: &published}
}

func TestDetectTrending(t *testing.T) {
	articles := []core.Article{
		{Title: "Missile facility inaugurated in state capital"},
		{Title: "New missile plant to produce 100 units"},
		{Title: "Missile production begins"},
		{Title: "Zoo closed after outbreak"},
		{Title: "Unrelated single story"},
	}

	topics := DetectTrending(articles)
	if topics["missile"] != 3 {
		t.Errorf("Expected 'missile' counted 3 times, got %d", topics["missile"])
	}
	if _, ok := topics["zoo"]; ok {
		t.Error("Expected three-letter words to be excluded")
	}
	if _, ok := topics["unrelated"]; ok {
		t.Error("Expected single-occurrence words to be excluded")
	}
	if _, ok := topics["news"]; ok {
		t.Error("Expected stopwords to be excluded")
	}
}

func TestDetectTrendingTopFive(t *testing.T) {
	var articles []core.Article
	words := []string{"alpha", "bravo", "charlie", "delta", "echos", "foxtrot", "golfs"}
	for _, w := range words {
		articles = append(articles, core.Article{Title: w + " first"}, core.Article{Title: w + " again"})
	}

	topics := DetectTrending(articles)
	if len(topics) > 5 {
		t.Errorf("Expected at most 5 trending topics, got %d", len(topics))
	}
}

func TestScoreTrending(t *testing.T) {
	articles := []core.Article{
		{Title: "Missile plant opens", Text: "The missile facility will produce units."},
		{Title: "Cooking tips", Text: "Nothing related here."},
	}
	topics := map[string]int{"missile": 3, "facility": 2}

	ScoreTrending(articles, topics)
	if articles[0].TrendingScore != 5 {
		t.Errorf("Expected score 5 for matching title and body, got %d", articles[0].TrendingScore)
	}
	if articles[1].TrendingScore != 0 {
		t.Errorf("Expected score 0 for unrelated article, got %d", articles[1].TrendingScore)
	}
}

func TestScoreTrendingBodyWindow(t *testing.T) {
	padding := strings.Repeat("x ", 300) // pushes the topic past the scored window
	articles := []core.Article{{Title: "plain title", Text: padding + "missile"}}

	ScoreTrending(articles, map[string]int{"missile": 2})
	if articles[0].TrendingScore != 0 {
		t.Errorf("Expected topic beyond the leading window not to score, got %d", articles[0].TrendingScore)
	}
}

func TestSortByTrending(t *testing.T) {
	published := fixedNow()
	articles := []core.Article{
		{Title: "low", TrendingScore: 1},
		{Title: "high", TrendingScore: 5},
		{Title: "dated", TrendingScore: 5, PublishDate: &published},
	}

	SortByTrending(articles)
	if articles[0].Title != "dated" {
		t.Errorf("Expected equal scores to favor dated articles, got %q first", articles[0].Title)
	}
	if articles[2].Title != "low" {
		t.Errorf("Expected lowest score last, got %q", articles[2].Title)
	}
}

func TestApplyNoLookback(t *testing.T) {
	long := strings.Repeat("body ", 60)
	articles := []core.Article{
		{Title: "keep", Text: long},
		{Title: "drop", Text: "too short"},
	}

	f := newTestFilter(250, 10)
	final := f.Apply(articles, 0)

	if len(final) != 1 || final[0].Title != "keep" {
		t.Errorf("Expected only usable articles to survive, got %v", final)
	}
}

func TestApplyLookbackKeepsDatedInWindow(t *testing.T) {
	long := strings.Repeat("body ", 60)
	fresh := datedArticle("fresh", long, fixedNow().Add(-2*time.Hour))
	stale := datedArticle("stale", long, fixedNow().Add(-72*time.Hour))

	f := newTestFilter(250, 10)
	final := f.Apply([]core.Article{fresh, stale}, 24)

	if len(final) != 1 || final[0].Title != "fresh" {
		t.Errorf("Expected only in-window article to survive, got %v", final)
	}
}

func TestApplyRescuesUndatedOnRecencyCues(t *testing.T) {
	long := strings.Repeat("body ", 60)
	undated := core.Article{Title: "undated", Text: "Breaking: something happened today. " + long}
	silent := core.Article{Title: "silent", Text: long}

	f := newTestFilter(250, 10)
	final := f.Apply([]core.Article{undated, silent}, 24)

	if len(final) != 1 || final[0].Title != "undated" {
		t.Errorf("Expected only the cued undated article to be rescued, got %d articles", len(final))
	}
}

func TestApplyRescuesUndatedOnTrendingScore(t *testing.T) {
	long := strings.Repeat("neutral body text ", 30)
	trending := core.Article{Title: "trending", Text: long, TrendingScore: 4}
	silent := core.Article{Title: "silent", Text: long}

	f := newTestFilter(250, 10)
	final := f.Apply([]core.Article{trending, silent}, 24)

	if len(final) != 1 || final[0].Title != "trending" {
		t.Errorf("Expected the trending undated article to be rescued, got %d articles", len(final))
	}
}

func TestApplyRescueRespectsFormattedDates(t *testing.T) {
	long := strings.Repeat("body ", 60)
	// The fixed clock is June 5; a mention of "June 5" counts as fresh.
	undated := core.Article{Title: "undated", Text: "Reported on June 5 by correspondents. " + long}

	f := newTestFilter(250, 10)
	final := f.Apply([]core.Article{undated}, 24)

	if len(final) != 1 {
		t.Errorf("Expected formatted current date to rescue the article, got %d articles", len(final))
	}
}

func TestApplyRescueRequiresMinLength(t *testing.T) {
	undated := core.Article{Title: "thin", Text: "breaking news today but tiny"}

	f := newTestFilter(250, 10)
	final := f.Apply([]core.Article{undated}, 24)

	if len(final) != 0 {
		t.Errorf("Expected thin undated article to be dropped, got %d articles", len(final))
	}
}

func TestApplyTruncatesToCap(t *testing.T) {
	long := strings.Repeat("body ", 60)
	var articles []core.Article
	for i := 0; i < 6; i++ {
		articles = append(articles, datedArticle("a", long, fixedNow().Add(-time.Hour)))
	}

	f := newTestFilter(250, 3)
	final := f.Apply(articles, 24)
	if len(final) != 3 {
		t.Errorf("Expected result truncated to 3, got %d", len(final))
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	long := strings.Repeat("body ", 60)
	articles := []core.Article{
		datedArticle("dated", long, fixedNow().Add(-time.Hour)),
		{Title: "rescued", Text: "breaking update today. " + long, TrendingScore: 2},
	}

	f := newTestFilter(250, 10)
	once := f.Apply(articles, 24)
	twice := f.Apply(once, 24)

	if len(once) != len(twice) {
		t.Fatalf("Expected idempotent filtering, got %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Title != twice[i].Title {
			t.Errorf("Expected stable order, position %d changed from %q to %q", i, once[i].Title, twice[i].Title)
		}
	}
}
