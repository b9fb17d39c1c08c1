package webfetch

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxChars = 20000
)

// Result is the readable content extracted from one URL.
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Text    string `json:"text"`
	Status  int    `json:"status,omitempty"`
	Elapsed int    `json:"elapsed_ms,omitempty"`
}

// Fetcher retrieves one URL and extracts its main textual content. Any
// failure (network, timeout, non-text content, extraction) is returned as an
// error; the caller decides how to isolate it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Result, error)
}

type Kind string

const (
	HTTPKind     Kind = "http"
	ChromedpKind Kind = "chromedp"
)

var ErrUnsupportedKind = errors.New("webfetch: unsupported fetcher kind")

// Options tune a fetcher. Zero values take the package defaults.
type Options struct {
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
	if o.UserAgent == "" {
		o.UserAgent = "askweb/1.0"
	}
	return o
}

// New builds the configured fetcher. The plain HTTP fetcher is the default;
// chromedp renders JavaScript-heavy pages at the cost of a headless browser.
func New(kind Kind, opts Options) (Fetcher, error) {
	switch kind {
	case HTTPKind, "":
		return NewHTTPFetcher(opts), nil
	case ChromedpKind:
		return NewChromedpFetcher(opts), nil
	default:
		return nil, ErrUnsupportedKind
	}
}
