package helpers

import (
	"errors"
	"net/url"
	"strings"
)

// NormalizeURL validates and normalises a URL for fetching. Protocol-relative
// and schemeless inputs default to https; anything that is not http(s) with a
// host is rejected. The returned string is what should be fetched; callers
// that must echo the input back verbatim keep their own copy.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" {
		parsed, err = url.Parse("https://" + raw)
		if err != nil {
			return "", err
		}
	}
	switch parsed.Scheme {
	case "http", "https":
	default:
		return "", errors.New("unsupported scheme: " + parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("url missing host")
	}
	parsed.Fragment = ""
	return parsed.String(), nil
}

// TruncateRunes caps s at max runes without splitting a multi-byte character.
func TruncateRunes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
