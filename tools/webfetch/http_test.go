package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Go 1.24 Released</title></head>
<body>
<nav><a href="/">Home</a><a href="/about">About</a></nav>
<article>
<h1>Go 1.24 Released</h1>
<p>The Go team is happy to announce the release of Go 1.24. This release
includes improvements to the runtime, the compiler, and the standard
library. As always the release maintains the compatibility promise.</p>
<p>Read the release notes for details about the many small improvements
that landed in this cycle, and report any problems on the issue tracker.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestHTTPFetcher_ExtractsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Options{})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.URL != srv.URL {
		t.Errorf("URL = %q, want input %q", res.URL, srv.URL)
	}
	if !strings.Contains(res.Text, "announce the release of Go 1.24") {
		t.Errorf("extracted text missing article body: %q", res.Text)
	}
	if strings.Contains(res.Text, "<p>") {
		t.Errorf("extracted text contains markup: %q", res.Text)
	}
}

func TestHTTPFetcher_CapsLength(t *testing.T) {
	long := strings.Repeat("word and more filler content here ", 2000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Options{MaxChars: 100})
	res, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len([]rune(res.Text)) != 100 {
		t.Errorf("text length = %d runes, want 100", len([]rune(res.Text)))
	}
}

func TestHTTPFetcher_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/binary":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte{0x00, 0x01})
		case "/empty":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body></body></html>"))
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Options{})
	for _, path := range []string{"/missing", "/binary", "/empty"} {
		if _, err := f.Fetch(context.Background(), srv.URL+path); err == nil {
			t.Errorf("Fetch(%s): expected error", path)
		}
	}

	if _, err := f.Fetch(context.Background(), "ftp://example.com"); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Options{Timeout: 30 * time.Millisecond})
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected timeout error")
	}
}
