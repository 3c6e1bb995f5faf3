package feed

import "encoding/xml"

// Raw XML shapes for RSS 2.0 + iTunes namespace extensions. iTunes elements are
// addressed by the iTunes namespace URL in the struct tags, since encoding/xml matches
// elements by namespace URL and local name, never by the literal "itunes:" prefix,
// extended here with the duration/episode/season/image fields a generation-only RSS type
// never needed to carry. ItunesImage precedes Image so that <itunes:image> is not taken
// by the namespace-less "image" tag.
type rawRSS struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rawChannel `xml:"channel"`
}

type rawChannel struct {
	Title       string       `xml:"title"`
	Description string       `xml:"description"`
	Link        string       `xml:"link"`
	ItunesAuthor string      `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd author"`
	ItunesImage rawItunesImage `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
	Image       rawImage     `xml:"image"`
	Items       []rawItem    `xml:"item"`
}

type rawImage struct {
	URL string `xml:"url"`
}

type rawItunesImage struct {
	Href string `xml:"href,attr"`
}

type rawItem struct {
	Title        string        `xml:"title"`
	Description  string        `xml:"description"`
	PubDate      string        `xml:"pubDate"`
	GUID         rawGUID       `xml:"guid"`
	Enclosure    *rawEnclosure `xml:"enclosure"`
	ItunesDuration string      `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
	ItunesEpisode  string      `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd episode"`
	ItunesSeason   string      `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd season"`
}

type rawGUID struct {
	Value string `xml:",chardata"`
}

type rawEnclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length string `xml:"length,attr"`
}
