package websearch

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/askweb/tools/websearch/brave"
	"github.com/mohammad-safakhou/askweb/tools/websearch/models"
	"github.com/mohammad-safakhou/askweb/tools/websearch/serper"
)

// DefaultResults is the provider cap applied when callers pass k <= 0.
const DefaultResults = 10

// Searcher issues one query against a web search provider and returns
// normalized results. A provider failure is surfaced once, verbatim; there
// are no retries at this layer.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("websearch: unsupported provider")

// NewSearcher builds the configured provider client.
func NewSearcher(provider Provider, apiKey string) (Searcher, error) {
	switch provider {
	case SerperProvider:
		return &serper.Search{APIKey: apiKey}, nil
	case BraveProvider:
		return &brave.Search{APIKey: apiKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
