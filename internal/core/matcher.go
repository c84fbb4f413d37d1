package core

import (
	"net/url"
	"regexp"
	"strings"
)

// Matcher decides whether a URL may be blocked while no focus session is
// running. Browser-internal pages, the focal home surface, and the
// new-tab page are never blockable.
type Matcher struct {
	homeURL   string
	newTabURL string
}

// NewMatcher creates a Matcher that exempts the given home and new-tab
// URLs from blocking.
func NewMatcher(homeURL, newTabURL string) *Matcher {
	return &Matcher{homeURL: homeURL, newTabURL: newTabURL}
}

// CompilePatterns turns wildcard exclusion patterns into anchored,
// case-insensitive regular expressions. Every regex metacharacter is
// escaped except `*`, which matches any sequence. The pattern list is
// small, so no caching is done.
func CompilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		expr := "(?i)^" + strings.ReplaceAll(regexp.QuoteMeta(p), `\*`, ".*") + "$"
		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

// IsBlockable reports whether the URL is subject to blocking given the
// exclusion patterns. A URL matching any pattern is NOT blockable; with
// an empty pattern list every http/https non-internal URL is blockable.
func (m *Matcher) IsBlockable(rawURL string, patterns []string) bool {
	if rawURL == m.homeURL || rawURL == m.newTabURL {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}

	for _, re := range CompilePatterns(patterns) {
		if re.MatchString(rawURL) {
			return false
		}
	}
	return true
}
