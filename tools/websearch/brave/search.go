package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mohammad-safakhou/askweb/tools/websearch/models"
)

const defaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Search queries the Brave web search API.
// https://api.search.brave.com/app/documentation/web-search
type Search struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

func (s *Search) Search(ctx context.Context, q string, k int) ([]models.Result, error) {
	if k <= 0 || k > 10 {
		k = 10
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	u := fmt.Sprintf("%s?q=%s&count=%d", endpoint, url.QueryEscape(q), k)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave: status %d", resp.StatusCode)
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
				Age     string `json:"age"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("brave: decode response: %w", err)
	}

	out := make([]models.Result, 0, len(raw.Web.Results))
	for i, r := range raw.Web.Results {
		if i >= k {
			break
		}
		out = append(out, models.Result{Title: r.Title, Link: r.URL, Snippet: r.Snippet, Date: r.Age})
	}
	return out, nil
}
