package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/askweb/internal/helpers"
)

// maxBodyBytes caps how much of a response is read before extraction.
const maxBodyBytes = 4 << 20

// HTTPFetcher retrieves pages with a plain HTTP GET and extracts the main
// article text with readability.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxChars  int
	userAgent string
}

func NewHTTPFetcher(opts Options) *HTTPFetcher {
	opts = opts.withDefaults()
	return &HTTPFetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		timeout:   opts.Timeout,
		maxChars:  opts.MaxChars,
		userAgent: opts.UserAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, raw string) (Result, error) {
	target, err := helpers.NormalizeURL(raw)
	if err != nil {
		return Result{}, fmt.Errorf("invalid url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	t0 := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	ctype := resp.Header.Get("Content-Type")
	mediaType := ""
	if ctype != "" {
		mediaType, _, _ = mime.ParseMediaType(ctype)
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	var title, text string
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		article, err := readability.FromReader(body, mustParse(target))
		if err != nil {
			return Result{}, fmt.Errorf("extract content: %w", err)
		}
		title = strings.TrimSpace(article.Title)
		text = strings.TrimSpace(article.TextContent)
	case mediaType == "text/plain":
		b, err := io.ReadAll(body)
		if err != nil {
			return Result{}, err
		}
		text = strings.TrimSpace(string(b))
	default:
		return Result{}, fmt.Errorf("unsupported content type %q", mediaType)
	}

	if text == "" {
		return Result{}, errors.New("no readable content")
	}

	return Result{
		URL:     raw,
		Title:   title,
		Text:    helpers.TruncateRunes(text, f.maxChars),
		Status:  resp.StatusCode,
		Elapsed: int(time.Since(t0) / time.Millisecond),
	}, nil
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
