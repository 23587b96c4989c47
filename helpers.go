package mindflow

import (
	"net/url"
	"path"
	"strings"
)

// Slugify converts a title to a URL-safe slug: lowercased, with runs of
// non-alphanumeric characters collapsed into single hyphens.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// DefaultSlug derives a slug from a title when the form leaves the slug
// field empty: lower-cased with spaces turned into hyphens. Unlike Slugify
// it keeps other characters intact, matching the create-post contract.
func DefaultSlug(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	return u.String()
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
