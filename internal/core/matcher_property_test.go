package core

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// Any http URL is exempt when the pattern list contains its own host
// wrapped in wildcards, regardless of case.
func TestMatcherSelfPatternProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := NewMatcher("focal://home", "about:newtab")

		host := rapid.StringMatching(`[a-z0-9]{1,12}\.[a-z]{2,6}`).Draw(t, "host")
		path := rapid.StringMatching(`[a-z0-9/]{0,16}`).Draw(t, "path")
		url := "http://" + host + "/" + path

		pattern := "*" + host + "*"
		if m.IsBlockable(url, []string{pattern}) {
			t.Fatalf("URL %q should be exempt under pattern %q", url, pattern)
		}
		if m.IsBlockable(strings.ToUpper(url), []string{pattern}) {
			t.Fatalf("uppercased URL %q should be exempt under pattern %q", url, pattern)
		}
	})
}

// With no patterns, every well-formed http/https URL is blockable and
// every other scheme is not.
func TestMatcherSchemeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := NewMatcher("focal://home", "about:newtab")

		host := rapid.StringMatching(`[a-z0-9]{1,12}\.[a-z]{2,6}`).Draw(t, "host")
		scheme := rapid.SampledFrom([]string{"http", "https", "ftp", "chrome", "about", "file"}).Draw(t, "scheme")
		url := scheme + "://" + host

		blockable := m.IsBlockable(url, nil)
		wantBlockable := scheme == "http" || scheme == "https"
		if blockable != wantBlockable {
			t.Fatalf("IsBlockable(%q) = %v, want %v", url, blockable, wantBlockable)
		}
	})
}
