// Package feed loads an RSS 2.0 (+ iTunes) feed and parses it into the Podcast/Episode
// model the rest of the sync engine operates on. The RSS/Channel/Item/Enclosure/GUID
// XML struct shapes are repurposed here for parsing an input feed rather than
// generating an output one.
package feed

import "time"

// Podcast is the parsed feed, once per sync run.
type Podcast struct {
	Title       string
	Description *string
	Link        *string
	Author      *string
	ImageURL    *string
	// FeedURL is the normalized source identifier: the original URL for remote feeds,
	// or a synthesized file:// form for local files.
	FeedURL  string
	Episodes []Episode
}

// Episode is one feed item.
type Episode struct {
	Title         string
	Description   *string
	PubDate       *time.Time
	GUID          *string
	Enclosure     Enclosure
	Duration      *string
	EpisodeNumber *int
	SeasonNumber  *int
}

// Enclosure is the audio payload reference carried by an Episode.
type Enclosure struct {
	URL    string
	Length *int64
	Type   *string
}

// IdentityKey returns the value the scanner and planner use to decide whether an
// episode is already downloaded: the GUID when present, else the enclosure URL.
func IdentityKey(e Episode) string {
	if e.GUID != nil && *e.GUID != "" {
		return *e.GUID
	}
	return e.Enclosure.URL
}
