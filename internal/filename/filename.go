// Package filename derives the stable, filesystem-safe base name an episode is stored
// under, using the same regexp-based slugification approach other podcast downloaders
// use for turning an episode title into a safe filename.
package filename

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"podsync/internal/feed"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

const maxSlugLen = 100
const defaultExt = "mp3"

// BaseName returns the deterministic base such that the episode's audio path is
// "<base>.<ext>" and its sidecar is "<base>.json". Two calls over an equal Episode
// value always produce the same result.
func BaseName(e feed.Episode) string {
	var b strings.Builder
	if e.PubDate != nil {
		b.WriteString(e.PubDate.UTC().Format("2006-01-02"))
		b.WriteString("-")
	}
	b.WriteString(slugify(e.Title))
	return b.String()
}

// Extension returns the file extension to store an episode's audio under, derived
// from the enclosure URL's path suffix (query string and fragment ignored), lowercased.
// It defaults to "mp3" only when the path has no suffix; any other suffix is returned
// as is, without checking it against a list of audio extensions.
func Extension(e feed.Episode) string {
	urlPath := e.Enclosure.URL
	if u, err := url.Parse(e.Enclosure.URL); err == nil {
		urlPath = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(urlPath), "."))
	if ext == "" {
		return defaultExt
	}
	return ext
}

// slugify lowercases s, collapses any run of non [a-z0-9] characters to a single "-",
// trims leading/trailing "-", and truncates to maxSlugLen at a "-" boundary.
func slugify(s string) string {
	lower := strings.ToLower(s)
	slug := nonSlugRun.ReplaceAllString(lower, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "untitled"
	}
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
		if idx := strings.LastIndex(slug, "-"); idx > 0 {
			slug = slug[:idx]
		}
		slug = strings.Trim(slug, "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}
