package search

import (
	"context"
)

// MockProvider implements Provider for testing purposes. Results can be
// keyed per query or shared across all queries.
type MockProvider struct {
	name          string
	results       []Result
	resultsByTerm map[string][]Result
	err           error
	Queries       []string // Record of queries received, in order
}

// NewMockProvider creates a new mock search provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name: "Mock",
		results: []Result{
			{
				URL:     "https://example.com/news/2025/article1",
				Title:   "Example Article 1",
				Snippet: "This is a mock search result for testing purposes.",
				Domain:  "example.com",
				Source:  "Mock",
				Rank:    1,
			},
			{
				URL:     "https://test.org/stories/article2",
				Title:   "Test Article 2",
				Snippet: "Another mock search result with different content.",
				Domain:  "test.org",
				Source:  "Mock",
				Rank:    2,
			},
		},
	}
}

// GetName returns the name of this provider
func (m *MockProvider) GetName() string {
	return m.name
}

// Search returns the configured mock results
func (m *MockProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	m.Queries = append(m.Queries, query)
	if m.err != nil {
		return nil, m.err
	}

	results := m.results
	if m.resultsByTerm != nil {
		results = m.resultsByTerm[query]
	}

	maxResults := config.MaxResults
	if maxResults <= 0 || maxResults > len(results) {
		maxResults = len(results)
	}
	out := make([]Result, maxResults)
	copy(out, results[:maxResults])
	return out, nil
}

// SetResults replaces the shared mock results
func (m *MockProvider) SetResults(results []Result) {
	m.results = results
	m.resultsByTerm = nil
}

// SetResultsForQuery configures results returned for one exact query
func (m *MockProvider) SetResultsForQuery(query string, results []Result) {
	if m.resultsByTerm == nil {
		m.resultsByTerm = map[string][]Result{}
	}
	m.resultsByTerm[query] = results
}

// SetError makes every search fail with the given error
func (m *MockProvider) SetError(err error) {
	m.err = err
}
