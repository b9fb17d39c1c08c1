package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func webPayload(n int) map[string]any {
	items := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, map[string]any{
			"title":       fmt.Sprintf("Title %d", i),
			"url":         fmt.Sprintf("https://example.com/%d", i),
			"description": fmt.Sprintf("Snippet %d", i),
			"age":         "January 2, 2024",
			"profile":     map[string]any{"name": "Example"}, // raw provider field, must not leak
		})
	}
	return map[string]any{"web": map[string]any{"results": items}}
}

func TestSearch_NormalizesResults(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Subscription-Token")
		if q := r.URL.Query().Get("q"); q != "foo" {
			t.Errorf("query = %q, want foo", q)
		}
		if c := r.URL.Query().Get("count"); c != "10" {
			t.Errorf("count = %q, want 10", c)
		}
		_ = json.NewEncoder(w).Encode(webPayload(10))
	}))
	defer srv.Close()

	s := &Search{APIKey: "test-token", Endpoint: srv.URL}
	results, err := s.Search(context.Background(), "foo", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotToken != "test-token" {
		t.Errorf("subscription token header = %q", gotToken)
	}
	if len(results) != 10 {
		t.Fatalf("got %d results, want 10", len(results))
	}
	for i, r := range results {
		if r.Title != fmt.Sprintf("Title %d", i) || r.Link != fmt.Sprintf("https://example.com/%d", i) || r.Snippet != fmt.Sprintf("Snippet %d", i) {
			t.Errorf("result %d not copied verbatim: %+v", i, r)
		}
		if r.Date != "January 2, 2024" {
			t.Errorf("result %d date = %q", i, r.Date)
		}
	}
}

func TestSearch_CapsResultCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(webPayload(10))
	}))
	defer srv.Close()

	s := &Search{APIKey: "k", Endpoint: srv.URL}
	results, err := s.Search(context.Background(), "foo", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
}

func TestSearch_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := &Search{APIKey: "k", Endpoint: srv.URL}
	if _, err := s.Search(context.Background(), "foo", 5); err == nil {
		t.Fatal("expected provider error")
	}
}
