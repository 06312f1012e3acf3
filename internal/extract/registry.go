package extract

import (
	"strings"
	"time"
)

// Partial is the result contributed by a single extraction strategy.
// Empty fields leave the article's current values untouched.
type Partial struct {
	Title       string
	Text        string
	PublishDate *time.Time
	Note        string
}

// DomainExtractor is a site-specific extraction strategy. It receives
// the raw HTML and the page URL and returns whatever it could recover.
type DomainExtractor func(html, url string) (Partial, error)

// Registry maps domains to site-specific extractors. The registry is
// the highest-trust stage of the cascade; an empty registry is valid
// and skips straight to the general parser.
type Registry struct {
	extractors map[string]DomainExtractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]DomainExtractor)}
}

// Register installs an extractor for a domain, replacing any previous one.
func (r *Registry) Register(domain string, fn DomainExtractor) {
	r.extractors[strings.ToLower(domain)] = fn
}

// Lookup returns the extractor registered for a domain, if any.
func (r *Registry) Lookup(domain string) (DomainExtractor, bool) {
	fn, ok := r.extractors[strings.ToLower(domain)]
	return fn, ok
}
