package webscrape

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mohammad-safakhou/askweb/internal/telemetry"
	"github.com/mohammad-safakhou/askweb/tools/webfetch"
)

// DefaultConcurrency bounds simultaneous fetches regardless of batch size.
const DefaultConcurrency = 5

// Outcome is the result of fetching one URL. Exactly one of Data/Error is
// populated: Data when Success, Error otherwise. URL always echoes the
// caller's input verbatim.
type Outcome struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Title   string `json:"title,omitempty"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResult aggregates one crawl batch. Outcomes holds one entry per input
// URL in input order; Success is true only when every outcome succeeded.
type BatchResult struct {
	Success  bool      `json:"success"`
	Outcomes []Outcome `json:"outcomes"`
}

// Engine fans a URL list out across the fetcher with bounded concurrency.
// One URL's failure never aborts the batch; cancellation degrades unfinished
// work to per-URL failures and the batch still returns.
type Engine struct {
	Fetcher     webfetch.Fetcher
	Concurrency int
	Logger      *log.Logger
	Metrics     *telemetry.Metrics
}

// NewEngine builds an engine with the given fetcher and concurrency cap.
func NewEngine(f webfetch.Fetcher, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Engine{Fetcher: f, Concurrency: concurrency}
}

// CrawlAll fetches every URL and waits for all of them to settle. It never
// returns an error: failures live inside the outcomes.
func (e *Engine) CrawlAll(ctx context.Context, urls []string) BatchResult {
	outcomes := make([]Outcome, len(urls))
	limit := e.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				outcomes[i] = Outcome{URL: u, Error: "cancelled"}
				return
			}
			defer func() { <-sem }()
			outcomes[i] = e.fetchOne(ctx, u)
		}(i, u)
	}
	wg.Wait()

	all := true
	for _, o := range outcomes {
		if !o.Success {
			all = false
			break
		}
	}
	return BatchResult{Success: all, Outcomes: outcomes}
}

func (e *Engine) fetchOne(ctx context.Context, u string) Outcome {
	if ctx.Err() != nil {
		return Outcome{URL: u, Error: "cancelled"}
	}
	t0 := time.Now()
	res, err := e.Fetcher.Fetch(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			e.observe("cancelled", t0)
			return Outcome{URL: u, Error: "cancelled"}
		}
		if e.Logger != nil {
			e.Logger.Printf("fetch %s failed: %v", u, err)
		}
		e.observe("failure", t0)
		return Outcome{URL: u, Error: err.Error()}
	}
	e.observe("success", t0)
	return Outcome{URL: u, Success: true, Title: res.Title, Data: res.Text}
}

func (e *Engine) observe(outcome string, t0 time.Time) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.FetchDuration.WithLabelValues(outcome).Observe(time.Since(t0).Seconds())
}
