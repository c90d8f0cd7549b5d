package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"scout/internal/websearch"
)

const defaultSearchResults = 5

// Searcher is the slice of the search client the tools need.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]websearch.Result, error)
	SearchNews(ctx context.Context, query string, count int) ([]websearch.Result, error)
}

type WebSearchTool struct {
	searcher   Searcher
	log        *logrus.Logger
	maxResults int
}

func NewWebSearchTool(searcher Searcher, log *logrus.Logger, maxResults int) *WebSearchTool {
	if maxResults <= 0 {
		maxResults = defaultSearchResults
	}
	return &WebSearchTool{searcher: searcher, log: log, maxResults: maxResults}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for current information on any topic. " +
		"Use this tool to find recent articles, documentation, tutorials, and technical resources. " +
		"Input should be a clear search query."
}

func (t *WebSearchTool) Run(ctx context.Context, input string) string {
	query := strings.TrimSpace(input)
	if query == "" {
		return "Error: search query is empty."
	}

	t.log.WithFields(logrus.Fields{"query": query, "max_results": t.maxResults}).Info("executing web search")

	results, err := t.searcher.Search(ctx, query, t.maxResults)
	if err != nil {
		t.log.WithError(err).Error("web search failed")
		return fmt.Sprintf("Error performing search: %s", err)
	}
	if len(results) == 0 {
		return "No results found for the query."
	}

	var builder strings.Builder
	for i, result := range results {
		fmt.Fprintf(&builder, "Result %d:\nTitle: %s\nURL: %s\nSnippet: %s\n\n",
			i+1, valueOr(result.Title, "N/A"), valueOr(result.URL, "N/A"), valueOr(result.Snippet, "N/A"))
	}
	return strings.TrimRight(builder.String(), "\n")
}

type NewsSearchTool struct {
	searcher   Searcher
	log        *logrus.Logger
	maxResults int
}

func NewNewsSearchTool(searcher Searcher, log *logrus.Logger, maxResults int) *NewsSearchTool {
	if maxResults <= 0 {
		maxResults = defaultSearchResults
	}
	return &NewsSearchTool{searcher: searcher, log: log, maxResults: maxResults}
}

func (t *NewsSearchTool) Name() string { return "news_search" }

func (t *NewsSearchTool) Description() string {
	return "Search for recent news articles and developments. " +
		"Use this tool when you need current events, recent announcements, or the latest information on a topic. " +
		"Input should be a news-related search query."
}

func (t *NewsSearchTool) Run(ctx context.Context, input string) string {
	query := strings.TrimSpace(input)
	if query == "" {
		return "Error: search query is empty."
	}

	t.log.WithField("query", query).Info("executing news search")

	results, err := t.searcher.SearchNews(ctx, query, t.maxResults)
	if err != nil {
		t.log.WithError(err).Error("news search failed")
		return fmt.Sprintf("Error performing news search: %s", err)
	}
	if len(results) == 0 {
		return "No news articles found for the query."
	}

	var builder strings.Builder
	for i, result := range results {
		fmt.Fprintf(&builder, "News %d:\nTitle: %s\nURL: %s\nPublished: %s\nSummary: %s\n\n",
			i+1, valueOr(result.Title, "N/A"), valueOr(result.URL, "N/A"), valueOr(result.Age, "N/A"), valueOr(result.Snippet, "N/A"))
	}
	return strings.TrimRight(builder.String(), "\n")
}

func valueOr(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
