package webfetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/askweb/internal/helpers"
)

// ChromedpFetcher renders pages in headless Chrome before extraction, for
// sites whose content only exists after JavaScript runs.
type ChromedpFetcher struct {
	timeout   time.Duration
	maxChars  int
	userAgent string
}

func NewChromedpFetcher(opts Options) *ChromedpFetcher {
	opts = opts.withDefaults()
	return &ChromedpFetcher{timeout: opts.Timeout, maxChars: opts.MaxChars, userAgent: opts.UserAgent}
}

func (f *ChromedpFetcher) Fetch(ctx context.Context, raw string) (Result, error) {
	target, err := helpers.NormalizeURL(raw)
	if err != nil {
		return Result{}, fmt.Errorf("invalid url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	t0 := time.Now()

	html, err := f.renderHTML(ctx, target)
	if err != nil {
		return Result{}, fmt.Errorf("render page: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(html), mustParse(target))
	if err != nil {
		return Result{}, fmt.Errorf("extract content: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return Result{}, fmt.Errorf("no readable content")
	}

	return Result{
		URL:     raw,
		Title:   strings.TrimSpace(article.Title),
		Text:    helpers.TruncateRunes(text, f.maxChars),
		Status:  200,
		Elapsed: int(time.Since(t0) / time.Millisecond),
	}, nil
}

func (f *ChromedpFetcher) renderHTML(ctx context.Context, target string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(f.userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
