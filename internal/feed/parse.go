package feed

import (
	"encoding/xml"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
)

// parse converts raw XML bytes into a Podcast. feedURL is the normalized source
// identifier stored on the result. The returned dropped count is the number of items
// excluded before they ever became Episodes (missing enclosure, duplicate identity
// within the feed) — the caller folds this into the sync's skipped count alongside
// episodes already present on disk.
func parse(data []byte, feedURL string) (Podcast, []string, int, error) {
	var raw rawRSS
	if err := xml.Unmarshal(data, &raw); err != nil {
		return Podcast{}, nil, 0, &Error{Kind: Parse, Err: fmt.Errorf("unmarshal rss: %w", err)}
	}
	if strings.TrimSpace(raw.Channel.Title) == "" {
		return Podcast{}, nil, 0, &Error{Kind: Parse, Err: fmt.Errorf("channel missing required title")}
	}

	p := Podcast{
		Title:    decodeText(raw.Channel.Title),
		FeedURL:  feedURL,
		Link:     optionalText(raw.Channel.Link),
		Author:   optionalText(raw.Channel.ItunesAuthor),
		ImageURL: imageURL(raw.Channel),
	}
	if d := optionalText(raw.Channel.Description); d != nil {
		p.Description = d
	}

	var diagnostics []string
	dropped := 0
	seen := make(map[string]bool, len(raw.Channel.Items))

	for _, item := range raw.Channel.Items {
		if item.Enclosure == nil || strings.TrimSpace(item.Enclosure.URL) == "" {
			diagnostics = append(diagnostics, fmt.Sprintf("item %q dropped: missing enclosure", displayTitle(item.Title)))
			dropped++
			continue
		}

		ep := Episode{
			Title:       decodeText(item.Title),
			Description: optionalText(item.Description),
			PubDate:     parsePubDate(item.PubDate),
			GUID:        optionalText(item.GUID.Value),
			Enclosure: Enclosure{
				URL:    item.Enclosure.URL,
				Length: parseLength(item.Enclosure.Length),
				Type:   optionalText(item.Enclosure.Type),
			},
			Duration:      optionalText(item.ItunesDuration),
			EpisodeNumber: parseIntPtr(item.ItunesEpisode),
			SeasonNumber:  parseIntPtr(item.ItunesSeason),
		}

		key := IdentityKey(ep)
		if key != "" && seen[key] {
			diagnostics = append(diagnostics, fmt.Sprintf("item %q dropped: duplicate identity %q within feed", displayTitle(item.Title), key))
			dropped++
			continue
		}
		if key != "" {
			seen[key] = true
		}

		p.Episodes = append(p.Episodes, ep)
	}

	return p, diagnostics, dropped, nil
}

func displayTitle(raw string) string {
	if t := decodeText(raw); t != "" {
		return t
	}
	return "Untitled"
}

func decodeText(raw string) string {
	return html.UnescapeString(strings.TrimSpace(raw))
}

func optionalText(raw string) *string {
	t := decodeText(raw)
	if t == "" {
		return nil
	}
	return &t
}

func imageURL(ch rawChannel) *string {
	if ch.ItunesImage.Href != "" {
		return optionalText(ch.ItunesImage.Href)
	}
	return optionalText(ch.Image.URL)
}

// parsePubDate parses an RFC 822 publication date. An unparseable date is treated as
// absent, never as an error.
func parsePubDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

func parseLength(raw string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func parseIntPtr(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &n
}
