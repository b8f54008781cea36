// Package policy implements the admission checks applied to URLs before they
// are fetched, rendered, or merged: normalization, origin scoping, substring
// filters, and robots.txt rules.
package policy

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize strips the fragment from a URL, leaving scheme, host, path, and
// query untouched. Two URLs naming the same visitable resource normalize to
// the same string. Normalize is idempotent.
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// SameOrigin reports whether two URLs share scheme and host:port exactly.
// There is no suffix or wildcard matching; "docs.example.com" and
// "example.com" are different origins.
func SameOrigin(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) && strings.EqualFold(ua.Host, ub.Host)
}

// Filter holds the include/exclude substring rules for a run.
// An empty Includes list allows every URL.
type Filter struct {
	Includes []string
	Excludes []string
}

// Match reports whether the URL passes the substring rules: at least one
// include substring must be present (unless Includes is empty) and no exclude
// substring may be present.
func (f Filter) Match(rawURL string) bool {
	if len(f.Includes) > 0 {
		matched := false
		for _, s := range f.Includes {
			if strings.Contains(rawURL, s) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, s := range f.Excludes {
		if strings.Contains(rawURL, s) {
			return false
		}
	}
	return true
}
