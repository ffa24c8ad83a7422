package aggregator

import (
	"testing"

	"github.com/pevans/feedsnap/article"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDedupe_FirstFeedWins verifies duplicates across sources keep the
// article from the earlier feed
func TestDedupe_FirstFeedWins(t *testing.T) {
	results := []FeedResult{
		{Feed: testFeeds("first")[0], Articles: []article.Article{{Link: "https://x/1", Source: "first"}}},
		{Feed: testFeeds("second")[0], Articles: []article.Article{
			{Link: "https://x/1", Source: "second"},
			{Link: "https://x/2", Source: "second"},
		}},
	}

	items := Merge(results)

	require.Len(t, items, 2)
	var found []article.Article
	for _, a := range items {
		if a.Link == "https://x/1" {
			found = append(found, a)
		}
	}
	require.Len(t, found, 1)
	assert.Equal(t, "first", found[0].Source)
}

// TestDedupe_QueryStringsDiffer verifies links are compared exactly
func TestDedupe_QueryStringsDiffer(t *testing.T) {
	items := Dedupe([]article.Article{
		{Link: "https://x/1"},
		{Link: "https://x/1?utm_source=rss"},
	})
	assert.Len(t, items, 2)
}

// TestSortByDate_NewestFirst verifies ordering across date formats with
// unparseable dates last
func TestSortByDate_NewestFirst(t *testing.T) {
	items := []article.Article{
		{Link: "bad-1", PubDate: "whenever"},
		{Link: "old", PubDate: "Mon, 15 Jan 2024 08:00:00 +0000"},
		{Link: "new", PubDate: "2024-01-15T12:00:00Z"},
		{Link: "bad-2", PubDate: ""},
		{Link: "mid", PubDate: "2024-01-15 10:00:00"},
	}

	SortByDate(items)

	links := make([]string, len(items))
	for i, a := range items {
		links[i] = a.Link
	}
	assert.Equal(t, []string{"new", "mid", "old", "bad-1", "bad-2"}, links)
}

// TestSortByDate_NonIncreasing verifies adjacent articles never increase in
// date
func TestSortByDate_NonIncreasing(t *testing.T) {
	items := []article.Article{
		{Link: "1", PubDate: "2024-03-01 00:00:00"},
		{Link: "2", PubDate: "2023-03-01 00:00:00"},
		{Link: "3", PubDate: "2025-03-01 00:00:00"},
		{Link: "4", PubDate: "2024-03-01 00:00:00"},
		{Link: "5", PubDate: "nope"},
		{Link: "6", PubDate: "2024-07-01T00:00:00+05:00"},
	}

	SortByDate(items)

	for i := 1; i < len(items); i++ {
		prev, cur := items[i-1].Published(), items[i].Published()
		assert.False(t, cur.After(prev), "items %d and %d out of order", i-1, i)
	}
}

func TestFlatten_KeepsFeedOrder(t *testing.T) {
	results := []FeedResult{
		{Articles: []article.Article{{Link: "a1"}, {Link: "a2"}}},
		{Articles: []article.Article{}},
		{Articles: []article.Article{{Link: "c1"}}},
	}

	flat := Flatten(results)

	require.Len(t, flat, 3)
	assert.Equal(t, "a1", flat[0].Link)
	assert.Equal(t, "a2", flat[1].Link)
	assert.Equal(t, "c1", flat[2].Link)
}

// TestMerge_LinksUnique verifies no two merged articles share a link
func TestMerge_LinksUnique(t *testing.T) {
	results := []FeedResult{
		{Articles: []article.Article{{Link: "a"}, {Link: "b"}, {Link: "a"}}},
		{Articles: []article.Article{{Link: "b"}, {Link: "c"}}},
	}

	items := Merge(results)

	seen := map[string]bool{}
	for _, a := range items {
		assert.False(t, seen[a.Link], "duplicate link %s", a.Link)
		seen[a.Link] = true
	}
	assert.Len(t, items, 3)
}
