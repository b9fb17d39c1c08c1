package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/askweb/models"
	"github.com/mohammad-safakhou/askweb/tools/webfetch"
	"github.com/mohammad-safakhou/askweb/tools/webscrape"
	searchmodels "github.com/mohammad-safakhou/askweb/tools/websearch/models"
)

type stubSearcher struct {
	query   string
	k       int
	results []searchmodels.Result
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, query string, k int) ([]searchmodels.Result, error) {
	s.query, s.k = query, k
	return s.results, s.err
}

type stubFetcher struct {
	texts map[string]string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (webfetch.Result, error) {
	text, ok := f.texts[url]
	if !ok {
		return webfetch.Result{}, errors.New("connection refused")
	}
	return webfetch.Result{URL: url, Text: text}, nil
}

func TestSearchWebToolDispatch(t *testing.T) {
	s := &stubSearcher{results: []searchmodels.Result{
		{Title: "Go", Link: "https://go.dev", Snippet: "The Go programming language"},
	}}
	reg := newTestRegistry(t, &SearchWebTool{Searcher: s, MaxResults: 5})

	payload, err := reg.Dispatch(context.Background(), "searchWeb", json.RawMessage(`{"query":"golang"}`))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if s.query != "golang" || s.k != 5 {
		t.Fatalf("searcher got query=%q k=%d", s.query, s.k)
	}
	var out []searchmodels.Result
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(out) != 1 || out[0].Link != "https://go.dev" {
		t.Fatalf("payload = %+v", out)
	}
}

func TestSearchWebToolRejectsMissingQuery(t *testing.T) {
	reg := newTestRegistry(t, &SearchWebTool{Searcher: &stubSearcher{}})

	_, err := reg.Dispatch(context.Background(), "searchWeb", json.RawMessage(`{}`))
	if kind := dispatchKind(t, err); kind != KindInvalidArguments {
		t.Fatalf("kind = %s, want %s", kind, KindInvalidArguments)
	}
}

func TestScrapePagesToolPartialFailure(t *testing.T) {
	engine := webscrape.NewEngine(&stubFetcher{texts: map[string]string{
		"https://a.example/": "alpha",
		"https://c.example/": "gamma",
	}}, 2)
	reg := newTestRegistry(t, &ScrapePagesTool{Engine: engine})

	args := `{"urls":["https://a.example/","https://b.example/","https://c.example/"]}`
	payload, err := reg.Dispatch(context.Background(), "scrapePages", json.RawMessage(args))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	var out ScrapeResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(out.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(out.Results))
	}
	if !out.Results[0].Success || out.Results[0].Data != "alpha" {
		t.Fatalf("result[0] = %+v", out.Results[0])
	}
	if out.Results[1].Success || out.Results[1].Error == "" {
		t.Fatalf("result[1] should carry an error: %+v", out.Results[1])
	}
	if !out.Results[2].Success || out.Results[2].Data != "gamma" {
		t.Fatalf("result[2] = %+v", out.Results[2])
	}
	if out.Error != "failed to fetch 1 of 3 pages" {
		t.Fatalf("batch error = %q", out.Error)
	}
}

func TestScrapePagesToolAllSuccess(t *testing.T) {
	engine := webscrape.NewEngine(&stubFetcher{texts: map[string]string{
		"https://a.example/": "alpha",
	}}, 2)
	reg := newTestRegistry(t, &ScrapePagesTool{Engine: engine})

	payload, err := reg.Dispatch(context.Background(), "scrapePages", json.RawMessage(`{"urls":["https://a.example/"]}`))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	var out ScrapeResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if out.Error != "" {
		t.Fatalf("unexpected batch error %q", out.Error)
	}
}

func TestSearchThenAnswerStreamsLinkBeforeDone(t *testing.T) {
	s := &stubSearcher{results: []searchmodels.Result{
		{Title: "Rust 1.80 released", Link: "https://blog.rust-lang.org/1.80", Snippet: "Announcing Rust 1.80"},
	}}
	answer := "The latest Rust version is 1.80 ([announcement](https://blog.rust-lang.org/1.80))."
	p := &fakeProvider{responses: []models.Message{
		models.NewToolCallMessage([]models.ToolCall{
			{ID: "call_1", Name: "searchWeb", Args: json.RawMessage(`{"query":"latest Rust version"}`)},
		}),
		models.NewTextMessage(models.RoleAssistant, answer),
	}}
	d := newTestDriver(t, p, &SearchWebTool{Searcher: s, MaxResults: 5})

	history := []models.Message{models.NewTextMessage(models.RoleUser, "What's the latest version of Rust?")}
	events := collect(t, d.Run(context.Background(), history))

	linkSeen := false
	var streamed strings.Builder
	for _, ev := range events {
		switch ev.Type {
		case EventText:
			streamed.WriteString(ev.Text)
			if strings.Contains(streamed.String(), "https://blog.rust-lang.org/1.80") {
				linkSeen = true
			}
		case EventDone:
			if !linkSeen {
				t.Fatal("done arrived before the link text was streamed")
			}
			if ev.Text != answer {
				t.Fatalf("final text = %q", ev.Text)
			}
		}
	}
	if !linkSeen {
		t.Fatal("link never streamed")
	}
	if s.query != "latest Rust version" {
		t.Fatalf("searcher query = %q", s.query)
	}
}

func TestScrapePagesToolRejectsEmptyList(t *testing.T) {
	engine := webscrape.NewEngine(&stubFetcher{}, 2)
	reg := newTestRegistry(t, &ScrapePagesTool{Engine: engine})

	_, err := reg.Dispatch(context.Background(), "scrapePages", json.RawMessage(`{"urls":[]}`))
	if kind := dispatchKind(t, err); kind != KindInvalidArguments {
		t.Fatalf("kind = %s, want %s", kind, KindInvalidArguments)
	}
}
