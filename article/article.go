// Package article defines the normalized record produced for every feed item
// and the raw item shape returned by the conversion service.
package article

import (
	"strings"
	"time"
)

// Characteristic is a content tag derived from an article's title and
// description.
type Characteristic string

// Known characteristics. Articles never carry any other tag.
const (
	Data     Characteristic = "data"
	Breaking Characteristic = "breaking"
	LongRead Characteristic = "longread"
	Tech     Characteristic = "tech"
)

// AllCharacteristics returns every characteristic in canonical order.
func AllCharacteristics() []Characteristic {
	return []Characteristic{Data, Breaking, LongRead, Tech}
}

// RawItem is a feed item as returned by the conversion service, before any
// normalization.
type RawItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
}

// Article is the canonical normalized record written to the snapshot.
type Article struct {
	Title           string           `json:"title"`
	Link            string           `json:"link"`
	Description     string           `json:"description"`
	FullDescription string           `json:"fullDescription"`
	PubDate         string           `json:"pubDate"`
	Source          string           `json:"source"`
	Category        string           `json:"category"`
	ReadingTime     int              `json:"readingTime"`
	Characteristics []Characteristic `json:"characteristics"`
	ContentLength   int              `json:"contentLength"`
}

// HasCharacteristic reports whether the article carries the given tag.
func (a Article) HasCharacteristic(c Characteristic) bool {
	for _, have := range a.Characteristics {
		if have == c {
			return true
		}
	}
	return false
}

// Published returns the parsed publication time. Articles whose pubDate cannot
// be parsed report the Unix epoch so they order after every dated article.
func (a Article) Published() time.Time {
	if t, ok := ParseDate(a.PubDate); ok {
		return t
	}
	return time.Unix(0, 0).UTC()
}

// dateLayouts lists the publication date formats accepted from upstream:
// RFC 822/1123 variants as found in RSS, ISO 8601 as found in Atom, and the
// "YYYY-MM-DD hh:mm:ss" form the conversion service emits (UTC).
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses a publication date leniently. The second return value is
// false when no known layout matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return applyZoneOffset(t), true
		}
	}

	return time.Time{}, false
}

// rfc822Zones holds the offsets of the zone names RFC 822 defines.
var rfc822Zones = map[string]int{
	"UT":  0,
	"UTC": 0,
	"GMT": 0,
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

// applyZoneOffset pins RFC 822 zone names to their defined offsets.
// time.Parse reads an abbreviation it does not know as a zero offset, and one
// it finds in the local zone database with the local meaning.
func applyZoneOffset(t time.Time) time.Time {
	name, offset := t.Zone()
	known, ok := rfc822Zones[name]
	if !ok || known == offset {
		return t
	}

	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(),
		t.Nanosecond(), time.FixedZone(name, known))
}
