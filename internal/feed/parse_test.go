package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>My &amp; Podcast</title>
    <description>A show about things</description>
    <link>https://example.com</link>
    <itunes:author>Jane Host</itunes:author>
    <itunes:image href="https://example.com/art.jpg" />
    <item>
      <title>Episode One</title>
      <description>First episode</description>
      <pubDate>Fri, 01 Mar 2024 12:00:00 +0000</pubDate>
      <guid isPermaLink="false">guid-1</guid>
      <enclosure url="https://example.com/ep1.mp3" type="audio/mpeg" length="1024" />
      <itunes:duration>01:02:03</itunes:duration>
      <itunes:episode>1</itunes:episode>
      <itunes:season>1</itunes:season>
    </item>
    <item>
      <title>No Enclosure</title>
      <pubDate>Thu, 15 Feb 2024 12:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Bad Date</title>
      <pubDate>not a date</pubDate>
      <enclosure url="https://example.com/ep3.mp3" />
    </item>
  </channel>
</rss>`

func TestParse(t *testing.T) {
	podcast, diagnostics, dropped, err := parse([]byte(sampleFeed), "https://example.com/feed.xml")
	require.NoError(t, err)

	assert.Equal(t, "My & Podcast", podcast.Title)
	require.NotNil(t, podcast.Author)
	assert.Equal(t, "Jane Host", *podcast.Author)
	require.NotNil(t, podcast.ImageURL)
	assert.Equal(t, "https://example.com/art.jpg", *podcast.ImageURL)

	require.Len(t, diagnostics, 1)
	assert.Contains(t, diagnostics[0], "missing enclosure")
	assert.Equal(t, 1, dropped)

	require.Len(t, podcast.Episodes, 2)

	first := podcast.Episodes[0]
	assert.Equal(t, "Episode One", first.Title)
	require.NotNil(t, first.GUID)
	assert.Equal(t, "guid-1", *first.GUID)
	require.NotNil(t, first.PubDate)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), *first.PubDate)
	require.NotNil(t, first.Enclosure.Length)
	assert.EqualValues(t, 1024, *first.Enclosure.Length)
	require.NotNil(t, first.Duration)
	assert.Equal(t, "01:02:03", *first.Duration)
	require.NotNil(t, first.EpisodeNumber)
	assert.Equal(t, 1, *first.EpisodeNumber)

	second := podcast.Episodes[1]
	assert.Equal(t, "Bad Date", second.Title)
	assert.Nil(t, second.PubDate, "unparseable pub date must be treated as absent, not an error")
}

func TestParseMissingTitleFails(t *testing.T) {
	const noTitle = `<rss version="2.0"><channel><description>d</description></channel></rss>`
	_, _, _, err := parse([]byte(noTitle), "u")
	require.Error(t, err)
	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, Parse, ferr.Kind)
}

func TestParseEmptyItemListIsValid(t *testing.T) {
	const empty = `<rss version="2.0"><channel><title>Empty</title></channel></rss>`
	podcast, _, dropped, err := parse([]byte(empty), "u")
	require.NoError(t, err)
	assert.Empty(t, podcast.Episodes)
	assert.Equal(t, 0, dropped)
}

func TestParseDuplicateIdentityWithinFeedIsDropped(t *testing.T) {
	const dup = `<rss version="2.0"><channel><title>Dup</title>
    <item><title>A</title><guid>same</guid><enclosure url="https://example.com/a.mp3" /></item>
    <item><title>B</title><guid>same</guid><enclosure url="https://example.com/b.mp3" /></item>
    </channel></rss>`
	podcast, diagnostics, dropped, err := parse([]byte(dup), "u")
	require.NoError(t, err)
	require.Len(t, podcast.Episodes, 1)
	assert.Equal(t, "A", podcast.Episodes[0].Title)
	require.Len(t, diagnostics, 1)
	assert.Contains(t, diagnostics[0], "duplicate identity")
	assert.Equal(t, 1, dropped)
}

func TestIdentityKey(t *testing.T) {
	guid := "g1"
	withGUID := Episode{GUID: &guid, Enclosure: Enclosure{URL: "https://example.com/a.mp3"}}
	assert.Equal(t, "g1", IdentityKey(withGUID))

	withoutGUID := Episode{Enclosure: Enclosure{URL: "https://example.com/a.mp3"}}
	assert.Equal(t, "https://example.com/a.mp3", IdentityKey(withoutGUID))
}
