package sources

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Custom errors for feed descriptors
var (
	ErrInvalidFeed   = errors.New("invalid feed descriptor")
	ErrDuplicateURL  = errors.New("feed with this URL already listed")
	ErrDuplicateName = errors.New("feed with this name already listed")
)

// Descriptor identifies one RSS source by name, URL and category. A
// descriptor is immutable for the duration of a run.
type Descriptor struct {
	Name     string `json:"name" yaml:"name"`
	URL      string `json:"url" yaml:"url"`
	Category string `json:"category" yaml:"category"`
}

// defaultFeeds is the compiled-in feed list used when the configuration does
// not provide one.
var defaultFeeds = []Descriptor{
	{Name: "Hacker News", URL: "https://news.ycombinator.com/rss", Category: "tech"},
	{Name: "TechCrunch", URL: "https://techcrunch.com/feed/", Category: "tech"},
	{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml", Category: "tech"},
	{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index", Category: "tech"},
	{Name: "BBC News", URL: "https://feeds.bbci.co.uk/news/rss.xml", Category: "news"},
	{Name: "NPR News", URL: "https://feeds.npr.org/1001/rss.xml", Category: "news"},
	{Name: "The Guardian World", URL: "https://www.theguardian.com/world/rss", Category: "news"},
	{Name: "CNBC Top News", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html", Category: "business"},
	{Name: "MarketWatch", URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories", Category: "business"},
	{Name: "ScienceDaily", URL: "https://www.sciencedaily.com/rss/all.xml", Category: "science"},
	{Name: "NASA Breaking News", URL: "https://www.nasa.gov/rss/dyn/breaking_news.rss", Category: "science"},
}

// Default returns a copy of the compiled-in feed list.
func Default() []Descriptor {
	feeds := make([]Descriptor, len(defaultFeeds))
	copy(feeds, defaultFeeds)
	return feeds
}

// SanitizeURL trims whitespace and strips stray quote and backtick characters
// that tend to survive copy and paste into configuration.
func SanitizeURL(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.NewReplacer(`"`, "", "'", "", "`", "").Replace(cleaned)
	return strings.TrimSpace(cleaned)
}

// Host returns the host part of a feed URL, or the sanitized URL itself if it
// cannot be parsed.
func Host(feedURL string) string {
	cleaned := SanitizeURL(feedURL)
	u, err := url.Parse(cleaned)
	if err != nil || u.Host == "" {
		return cleaned
	}
	return u.Host
}

// Validate checks a feed list: every descriptor needs a name, a category and
// an absolute http(s) URL, and neither names nor URLs may repeat.
func Validate(feeds []Descriptor) error {
	names := make(map[string]bool, len(feeds))
	urls := make(map[string]bool, len(feeds))

	for i, feed := range feeds {
		if strings.TrimSpace(feed.Name) == "" {
			return fmt.Errorf("%w: feed %d has no name", ErrInvalidFeed, i)
		}
		if strings.TrimSpace(feed.Category) == "" {
			return fmt.Errorf("%w: feed %q has no category", ErrInvalidFeed, feed.Name)
		}

		cleaned := SanitizeURL(feed.URL)
		u, err := url.Parse(cleaned)
		if err != nil {
			return fmt.Errorf("%w: feed %q: %v", ErrInvalidFeed, feed.Name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: feed %q: url must be absolute http(s)", ErrInvalidFeed, feed.Name)
		}

		if names[feed.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateName, feed.Name)
		}
		if urls[cleaned] {
			return fmt.Errorf("%w: %s", ErrDuplicateURL, cleaned)
		}
		names[feed.Name] = true
		urls[cleaned] = true
	}

	return nil
}
