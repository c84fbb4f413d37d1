package core

import "testing"

func TestIsBlockableEmptyPatternList(t *testing.T) {
	m := NewMatcher("focal://home", "about:newtab")

	if !m.IsBlockable("http://example.com", nil) {
		t.Error("expected http URL to be blockable with empty pattern list")
	}
	if !m.IsBlockable("https://news.ycombinator.com/item?id=1", nil) {
		t.Error("expected https URL to be blockable with empty pattern list")
	}
}

func TestIsBlockableInternalPages(t *testing.T) {
	m := NewMatcher("focal://home", "about:newtab")

	internal := []string{
		"chrome://extensions/",
		"about:blank",
		"file:///etc/hosts",
		"focal://home",
		"about:newtab",
	}
	for _, u := range internal {
		if m.IsBlockable(u, nil) {
			t.Errorf("expected %q not to be blockable", u)
		}
	}
}

func TestIsBlockableMatchingPatternExempts(t *testing.T) {
	m := NewMatcher("focal://home", "about:newtab")
	patterns := []string{"*example.com*"}

	if m.IsBlockable("http://example.com", patterns) {
		t.Error("expected URL matching a pattern not to be blockable")
	}
	if m.IsBlockable("https://sub.example.com/path?q=1", patterns) {
		t.Error("expected subdomain URL matching a pattern not to be blockable")
	}
	if !m.IsBlockable("http://other.org", patterns) {
		t.Error("expected non-matching URL to remain blockable")
	}
}

func TestIsBlockableCaseInsensitive(t *testing.T) {
	m := NewMatcher("focal://home", "about:newtab")

	if m.IsBlockable("http://EXAMPLE.COM", []string{"*example.com*"}) {
		t.Error("expected pattern matching to be case-insensitive")
	}
	if m.IsBlockable("http://example.com", []string{"*EXAMPLE.COM*"}) {
		t.Error("expected pattern matching to be case-insensitive")
	}
}

func TestIsBlockableAnchoredPatterns(t *testing.T) {
	m := NewMatcher("focal://home", "about:newtab")

	// Without wildcards the pattern must match the whole URL.
	if m.IsBlockable("http://example.com", []string{"http://example.com"}) {
		t.Error("expected exact-URL pattern to match")
	}
	if !m.IsBlockable("http://example.com/page", []string{"http://example.com"}) {
		t.Error("expected anchored pattern not to match a longer URL")
	}
}

func TestIsBlockableEscapesMetacharacters(t *testing.T) {
	m := NewMatcher("focal://home", "about:newtab")

	// A dot in the pattern is literal, not "any character".
	if !m.IsBlockable("http://exampleXcom", []string{"*example.com*"}) {
		t.Error("expected dot in pattern to be treated literally")
	}
}

func TestCompilePatterns(t *testing.T) {
	compiled := CompilePatterns([]string{"*reddit.com*", "http://a.b"})
	if len(compiled) != 2 {
		t.Fatalf("expected 2 compiled patterns, got %d", len(compiled))
	}
	if !compiled[0].MatchString("https://www.reddit.com/r/golang") {
		t.Error("expected wildcard pattern to match")
	}
	if compiled[1].MatchString("http://a.bc") {
		t.Error("expected anchored pattern not to match a longer string")
	}
}
