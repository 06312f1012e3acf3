package search

import (
	"context"
	"errors"
	"testing"
)

func TestProviderTypeConstants(t *testing.T) {
	expectedTypes := map[ProviderType]string{
		ProviderTypeGoogle: "google",
		ProviderTypeMock:   "mock",
	}

	for providerType, expectedValue := range expectedTypes {
		if string(providerType) != expectedValue {
			t.Errorf("Expected %s to be %s, got %s", providerType, expectedValue, string(providerType))
		}
	}
}

func TestNewProviderFactory(t *testing.T) {
	factory := NewProviderFactory()
	if factory == nil {
		t.Error("Expected NewProviderFactory to return non-nil factory")
	}
}

func TestCreateMockProvider(t *testing.T) {
	factory := NewProviderFactory()

	provider, err := factory.CreateProvider(ProviderTypeMock, map[string]string{})
	if err != nil {
		t.Fatalf("Expected no error creating mock provider, got %v", err)
	}
	if provider == nil {
		t.Fatal("Expected non-nil provider")
	}
	if provider.GetName() != "Mock" {
		t.Errorf("Expected provider name to be 'Mock', got %s", provider.GetName())
	}
}

func TestCreateGoogleProviderMissingAPIKey(t *testing.T) {
	factory := NewProviderFactory()

	provider, err := factory.CreateProvider(ProviderTypeGoogle, map[string]string{
		"search_id": "test-search-id",
	})
	if err == nil {
		t.Error("Expected error when creating Google provider without API key")
	}
	if provider != nil {
		t.Error("Expected nil provider when creation fails")
	}
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestCreateGoogleProviderMissingSearchID(t *testing.T) {
	factory := NewProviderFactory()

	_, err := factory.CreateProvider(ProviderTypeGoogle, map[string]string{
		"api_key": "test-key",
	})
	if !errors.Is(err, ErrMissingSearchID) {
		t.Errorf("Expected ErrMissingSearchID, got %v", err)
	}
}

func TestCreateUnsupportedProvider(t *testing.T) {
	factory := NewProviderFactory()

	_, err := factory.CreateProvider(ProviderType("bing"), map[string]string{})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("Expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestMockProviderRecordsQueries(t *testing.T) {
	provider := NewMockProvider()

	_, err := provider.Search(context.Background(), "first query", Config{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	_, _ = provider.Search(context.Background(), "second query", Config{})

	if len(provider.Queries) != 2 {
		t.Fatalf("Expected 2 recorded queries, got %d", len(provider.Queries))
	}
	if provider.Queries[0] != "first query" || provider.Queries[1] != "second query" {
		t.Errorf("Expected queries recorded in order, got %v", provider.Queries)
	}
}

func TestMockProviderResultsByQuery(t *testing.T) {
	provider := NewMockProvider()
	provider.SetResultsForQuery("cricket", []Result{
		{URL: "https://example.com/cricket/2025/final", Title: "Final"},
	})

	results, err := provider.Search(context.Background(), "cricket", Config{MaxResults: 5})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 1 || results[0].Title != "Final" {
		t.Errorf("Expected per-query results, got %v", results)
	}

	results, _ = provider.Search(context.Background(), "unrelated", Config{MaxResults: 5})
	if len(results) != 0 {
		t.Errorf("Expected no results for unmatched query, got %d", len(results))
	}
}

func TestMockProviderMaxResults(t *testing.T) {
	provider := NewMockProvider()
	results, err := provider.Search(context.Background(), "anything", Config{MaxResults: 1})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected results truncated to 1, got %d", len(results))
	}
}

func TestMockProviderError(t *testing.T) {
	provider := NewMockProvider()
	provider.SetError(ErrNoResults)

	_, err := provider.Search(context.Background(), "anything", Config{})
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("Expected configured error, got %v", err)
	}
}
