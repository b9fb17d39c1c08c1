package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mohammad-safakhou/askweb/tools/websearch/models"
)

const defaultEndpoint = "https://google.serper.dev/search"

// Search queries https://serper.dev/. Endpoint and Client are overridable
// for tests; zero values use the public API with http.DefaultClient.
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

	body, err := json.Marshal(map[string]any{"q": q, "num": k})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper: status %d", resp.StatusCode)
	}

	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
			Date    string `json:"date"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("serper: decode response: %w", err)
	}

	out := make([]models.Result, 0, len(raw.Organic))
	for i, item := range raw.Organic {
		if i >= k {
			break
		}
		out = append(out, models.Result{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
			Date:    item.Date,
		})
	}
	return out, nil
}
