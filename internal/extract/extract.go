// Package extract converts raw HTML into normalized article records via
// a cascade of strategies ordered by reliability: domain-specific
// extractors, a structural article parser, and a generic
// markup-stripping fallback. Stages that fall short still contribute
// their text when it is the longest seen so far, so the best available
// content survives even when nothing clears the threshold.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/google/uuid"

	"livesearch/internal/core"
	"livesearch/internal/logger"
)

// mainContentSelectors is the ranked list of likely article containers
// tried by the markup-stripping fallback.
var mainContentSelectors = []string{
	`article[class*="content"]`, `div[class*="content"]`,
	`article[id*="content"]`, `div[id*="content"]`,
	"article", "main", ".main-content", "#main",
	".post-body", ".entry-content", ".td-post-content", ".story-content",
	`[role="main"]`, ".article-body", ".articleBody",
}

// removeSelectors matches elements stripped before the fallback looks
// for content.
const removeSelectors = "script, style, nav, footer, aside, header, form, button, input, " +
	"iframe, noscript, img, figure, figcaption, link, meta, " +
	".sidebar, #sidebar, .ad, .advertisement, .cookie-banner, .popup, .modal"

// titleWordBudget caps how many leading words a synthesized title takes.
const titleWordBudget = 12

// Extractor runs the extraction cascade over fetched HTML.
type Extractor struct {
	registry         *Registry
	minContentLength int
}

// NewExtractor creates an extractor. A nil registry behaves as empty.
func NewExtractor(minContentLength int, registry *Registry) *Extractor {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Extractor{registry: registry, minContentLength: minContentLength}
}

// Extract enriches a search candidate into an article record. It never
// fails: the worst case is a record with empty text and a diagnostic
// note trail. Empty HTML short-circuits with a download-failure note.
func (e *Extractor) Extract(cand core.SearchCandidate, html string) core.Article {
	article := core.Article{
		ID:               uuid.NewString(),
		URL:              cand.URL,
		Title:            strings.TrimSpace(cand.Title),
		Domain:           strings.ToLower(cand.Domain),
		ExtractionMethod: core.ExtractionNone,
	}

	if strings.TrimSpace(html) == "" {
		article.AppendNote("failed to download HTML content after all attempts")
		return article
	}

	if !e.tryCustom(&article, html) {
		if !e.tryReadability(&article, html) {
			e.tryGoquery(&article, html)
		}
	}

	e.finishTitle(&article)
	return article
}

// tryCustom runs the domain-specific extractor when one is registered.
// Returns true when the stage produced enough text to stop the cascade.
func (e *Extractor) tryCustom(article *core.Article, html string) bool {
	fn, ok := e.registry.Lookup(article.Domain)
	if !ok {
		return false
	}

	partial, err := fn(html, article.URL)
	if err != nil {
		logger.Warn("custom extractor failed", "domain", article.Domain, "url", article.URL, "error", err.Error())
		article.AppendNote(fmt.Sprintf("custom extractor error for %s", article.Domain))
		return false
	}

	if partial.Title != "" {
		article.Title = strings.TrimSpace(partial.Title)
	}
	if partial.PublishDate != nil {
		article.SetPublishDate(partial.PublishDate)
	}

	text := strings.TrimSpace(partial.Text)
	if len(text) >= e.minContentLength {
		article.Text = text
		article.ExtractionMethod = core.ExtractionCustom
		note := partial.Note
		if note == "" {
			note = fmt.Sprintf("success (custom) ~%d chars", len(text))
		}
		article.AppendNote(note)
		logger.Debug("custom extractor succeeded", "domain", article.Domain, "url", article.URL, "length", len(text))
		return true
	}

	retainLongest(article, text, core.ExtractionCustom,
		fmt.Sprintf("custom extractor short text (%d chars)", len(text)))
	return false
}

// tryReadability runs the heuristic full-document article parser. It
// also supplies title and publish date when the record lacks better
// values; a candidate title gives way only to one at least as long.
func (e *Extractor) tryReadability(article *core.Article, html string) bool {
	pageURL, _ := url.Parse(article.URL)
	parsed, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		logger.Warn("readability parse failed", "url", article.URL, "error", err.Error())
		article.AppendNote(fmt.Sprintf("readability error: %s", truncate(err.Error(), 100)))
		return false
	}

	if t := strings.TrimSpace(parsed.Title); t != "" && len(t) >= len(article.Title) {
		article.Title = t
	}
	if article.PublishDate == nil && parsed.PublishedTime != nil {
		article.SetPublishDate(NormalizeTime(*parsed.PublishedTime))
	}

	text := strings.TrimSpace(parsed.TextContent)
	if len(text) >= e.minContentLength {
		article.Text = text
		article.ExtractionMethod = core.ExtractionReadability
		article.AppendNote(fmt.Sprintf("success (readability) ~%d chars", len(text)))
		logger.Debug("readability extraction succeeded", "url", article.URL, "length", len(text))
		return true
	}
	if text != "" {
		retainLongest(article, text, core.ExtractionReadabilityShort,
			fmt.Sprintf("readability short text (%d chars)", len(text)))
	} else {
		article.AppendNote("readability extracted no text")
	}
	return false
}

// tryGoquery is the generic markup-stripping fallback: remove
// non-content elements, walk the ranked main-content selectors, and as
// a last resort take the whole body text, preferring the best selector
// text unless it is drastically shorter than a third of the body.
func (e *Extractor) tryGoquery(article *core.Article, html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warn("goquery parse failed", "url", article.URL, "error", err.Error())
		article.AppendNote(fmt.Sprintf("goquery error: %s", truncate(err.Error(), 100)))
		return
	}

	doc.Find(removeSelectors).Remove()

	var mainText string
	for _, selector := range mainContentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		mainText = collapseWhitespace(sel.Text())
		if len(mainText) >= e.minContentLength {
			logger.Debug("fallback selector matched", "url", article.URL, "selector", selector)
			break
		}
	}

	finalText := mainText
	if len(mainText) < e.minContentLength {
		bodyText := collapseWhitespace(doc.Find("body").Text())
		if mainText == "" || len(mainText) <= len(bodyText)/3 {
			finalText = bodyText
		}
	}

	switch {
	case len(finalText) >= e.minContentLength:
		article.Text = finalText
		article.ExtractionMethod = core.ExtractionGoquery
		article.AppendNote(fmt.Sprintf("success (goquery) ~%d chars", len(finalText)))
		logger.Debug("goquery fallback succeeded", "url", article.URL, "length", len(finalText))
	case finalText != "":
		retainLongest(article, finalText, core.ExtractionGoqueryShort,
			fmt.Sprintf("goquery short text (%d chars)", len(finalText)))
	default:
		article.AppendNote("goquery found no significant text")
	}
}

// finishTitle synthesizes a title from the leading words of the text
// when no stage ever produced one.
func (e *Extractor) finishTitle(article *core.Article) {
	if strings.TrimSpace(article.Title) != "" || strings.TrimSpace(article.Text) == "" {
		return
	}
	words := strings.Fields(article.Text)
	if len(words) > titleWordBudget {
		article.Title = strings.Join(words[:titleWordBudget], " ") + "..."
	} else {
		article.Title = strings.Join(words, " ")
	}
}

// retainLongest keeps a stage's output only when it beats the longest
// text seen so far, so degraded runs still surface the best content.
// The note is appended regardless.
func retainLongest(article *core.Article, text string, method core.ExtractionMethod, note string) {
	if len(text) > len(article.Text) {
		article.Text = text
		article.ExtractionMethod = method
	}
	article.AppendNote(note)
}

// collapseWhitespace flattens all runs of whitespace to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
