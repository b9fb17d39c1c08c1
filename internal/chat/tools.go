package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mohammad-safakhou/askweb/tools/websearch"
	"github.com/mohammad-safakhou/askweb/tools/webscrape"
)

// SearchWebTool exposes the search adapter to the model.
type SearchWebTool struct {
	Searcher   websearch.Searcher
	MaxResults int
}

func (t *SearchWebTool) Name() string { return "searchWeb" }

func (t *SearchWebTool) Description() string {
	return "Search the web for current information. Returns a list of results with title, link and snippet."
}

func (t *SearchWebTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query.",
			},
		},
		"required":             []string{"query"},
		"additionalProperties": false,
	}
}

func (t *SearchWebTool) Exec(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}
	k := t.MaxResults
	if k <= 0 {
		k = websearch.DefaultResults
	}
	results, err := t.Searcher.Search(ctx, in.Query, k)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ScrapePagesTool exposes the crawl engine to the model.
type ScrapePagesTool struct {
	Engine *webscrape.Engine
}

func (t *ScrapePagesTool) Name() string { return "scrapePages" }

func (t *ScrapePagesTool) Description() string {
	return "Fetch one or more web pages and return their readable text content. Failed pages carry an error description instead of content."
}

func (t *ScrapePagesTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"urls": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    1,
				"description": "The URLs to fetch.",
			},
		},
		"required":             []string{"urls"},
		"additionalProperties": false,
	}
}

// ScrapePage is one entry of the scrapePages tool output.
type ScrapePage struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ScrapeResponse is the scrapePages tool output. Error is present only when
// the batch was not fully successful.
type ScrapeResponse struct {
	Results []ScrapePage `json:"results"`
	Error   string       `json:"error,omitempty"`
}

func (t *ScrapePagesTool) Exec(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		URLs []string `json:"urls"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}

	batch := t.Engine.CrawlAll(ctx, in.URLs)

	out := ScrapeResponse{Results: make([]ScrapePage, len(batch.Outcomes))}
	failed := 0
	for i, o := range batch.Outcomes {
		out.Results[i] = ScrapePage{URL: o.URL, Success: o.Success, Data: o.Data, Error: o.Error}
		if !o.Success {
			failed++
		}
	}
	if !batch.Success {
		out.Error = fmt.Sprintf("failed to fetch %d of %d pages", failed, len(batch.Outcomes))
	}
	return out, nil
}
