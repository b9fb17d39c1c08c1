package helpers

import "testing"

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://example.com/a", want: "https://example.com/a"},
		{in: "  http://example.com ", want: "http://example.com"},
		{in: "//cdn.example.com/x", want: "https://cdn.example.com/x"},
		{in: "example.com/path", want: "https://example.com/path"},
		{in: "https://example.com/a#frag", want: "https://example.com/a"},
		{in: "ftp://example.com", wantErr: true},
		{in: "", wantErr: true},
		{in: "https://", wantErr: true},
	}
	for _, tc := range cases {
		got, err := NormalizeURL(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeURL(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeURL(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("hello", 10); got != "hello" {
		t.Errorf("short string should pass through, got %q", got)
	}
	if got := TruncateRunes("hello", 3); got != "hel" {
		t.Errorf("got %q", got)
	}
	// multi-byte characters must not be split
	if got := TruncateRunes("héllo wörld", 4); got != "héll" {
		t.Errorf("got %q", got)
	}
	if got := TruncateRunes("abc", 0); got != "abc" {
		t.Errorf("max<=0 disables truncation, got %q", got)
	}
}
