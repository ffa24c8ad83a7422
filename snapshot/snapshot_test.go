package snapshot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pevans/feedsnap/aggregator"
	"github.com/pevans/feedsnap/article"
	"github.com/pevans/feedsnap/sources"
	"github.com/pevans/feedsnap/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingBlob rejects every write.
type failingBlob struct{ MemoryBlob }

func (f *failingBlob) Put(context.Context, string, []byte, PutOptions) error {
	return errors.New("bucket unavailable")
}

// Test helper: create a small snapshot from two feeds, one failed
func createSampleSnapshot() *Snapshot {
	feedA := sources.Descriptor{Name: "A", URL: "https://a.example/rss", Category: "tech"}
	feedB := sources.Descriptor{Name: "B", URL: "https://b.example/rss", Category: "news"}
	feedC := sources.Descriptor{Name: "C", URL: "https://c.example/rss", Category: "news"}

	items := []article.Article{
		{Title: "one", Link: "https://x/1", Source: "A", Category: "tech", Characteristics: []article.Characteristic{}},
		{Title: "two", Link: "https://x/2", Source: "B", Category: "news", Characteristics: []article.Characteristic{}},
		{Title: "three", Link: "https://x/3", Source: "A", Category: "tech", Characteristics: []article.Characteristic{}},
	}
	results := []aggregator.FeedResult{
		{Feed: feedA, Articles: []article.Article{items[0], items[2]}},
		{Feed: feedB, Articles: items[1:2]},
		{Feed: feedC, Articles: []article.Article{}, Err: errors.New("timeout")},
	}

	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(1500 * time.Millisecond)
	st := stats.Compute(items, finished)

	return Build(items, results, st, started, finished, "run-1")
}

// TestBuild_Summary verifies totals, timing and per-source counts
func TestBuild_Summary(t *testing.T) {
	snap := createSampleSnapshot()

	assert.Equal(t, 3, snap.Summary.Total)
	assert.Equal(t, len(snap.Items), snap.Summary.Total)
	assert.Equal(t, "2024-06-01T12:00:01.500Z", snap.Summary.Timestamp)
	assert.Equal(t, int64(1500), snap.Summary.FetchDuration)
	assert.Equal(t, "run-1", snap.Summary.RunID)
	assert.Equal(t, map[string]int{"tech": 2, "news": 1}, snap.Summary.CategoryCounts)

	require.Len(t, snap.Summary.Sources, 3)
	assert.Equal(t, SourceCount{Name: "A", Category: "tech", Count: 2}, snap.Summary.Sources[0])
	assert.Equal(t, SourceCount{Name: "B", Category: "news", Count: 1}, snap.Summary.Sources[1])
	assert.Equal(t, SourceCount{Name: "C", Category: "news", Count: 0, Failed: true}, snap.Summary.Sources[2])
}

// TestBuild_SourceCountsSumToTotal verifies per-source counts are conserved
func TestBuild_SourceCountsSumToTotal(t *testing.T) {
	snap := createSampleSnapshot()

	sum := 0
	for _, s := range snap.Summary.Sources {
		sum += s.Count
	}
	assert.Equal(t, snap.Summary.Total, sum)
}

// TestBuild_DuplicateFeedNames verifies feeds sharing a name are counted
// separately
func TestBuild_DuplicateFeedNames(t *testing.T) {
	first := sources.Descriptor{Name: "Same", URL: "https://one.example/rss", Category: "news"}
	second := sources.Descriptor{Name: "Same", URL: "https://two.example/rss", Category: "tech"}

	items := []article.Article{
		{Link: "https://x/1", Source: "Same", Category: "news"},
		{Link: "https://x/2", Source: "Same", Category: "tech"},
		{Link: "https://x/3", Source: "Same", Category: "tech"},
	}
	results := []aggregator.FeedResult{
		{Feed: first, Articles: items[:1]},
		// https://x/1 repeats and was dropped by deduplication
		{Feed: second, Articles: []article.Article{items[1], items[2], {Link: "https://x/1", Source: "Same"}}},
	}

	now := time.Now()
	snap := Build(items, results, stats.Stats{}, now, now, "")

	require.Len(t, snap.Summary.Sources, 2)
	assert.Equal(t, 1, snap.Summary.Sources[0].Count)
	assert.Equal(t, 2, snap.Summary.Sources[1].Count)
	assert.Equal(t, snap.Summary.Total, snap.Summary.Sources[0].Count+snap.Summary.Sources[1].Count)
}

// TestBuild_EmptyRun verifies a run with nothing fetched still produces
// well-formed JSON collections
func TestBuild_EmptyRun(t *testing.T) {
	now := time.Now()
	snap := Build(nil, nil, stats.Stats{}, now, now, "")

	assert.NotNil(t, snap.Items)
	assert.NotNil(t, snap.Summary.Sources)
	assert.NotNil(t, snap.Summary.CategoryCounts)
	assert.NotNil(t, snap.Summary.TrendingTopics)
	assert.Equal(t, 0, snap.Summary.Total)
}

// TestWriter_Save verifies the key, metadata and JSON layout of the stored
// object
func TestWriter_Save(t *testing.T) {
	blob := NewMemoryBlob()
	writer := NewWriter(blob)

	require.NoError(t, writer.Save(context.Background(), createSampleSnapshot()))

	obj, err := blob.Get(context.Background(), Key)
	require.NoError(t, err)
	assert.Equal(t, "application/json", obj.Options.ContentType)
	assert.Equal(t, "public, max-age=300", obj.Options.CacheControl)

	body := string(obj.Data)
	assert.True(t, strings.HasPrefix(body, "{\n  \"items\": ["), "should use two-space indentation")
	for _, field := range []string{
		`"summary"`, `"total"`, `"timestamp"`, `"fetchDuration"`, `"sources"`,
		`"categoryCounts"`, `"trendingTopics"`, `"freshContent"`,
		`"fullDescription"`, `"readingTime"`, `"characteristics"`, `"contentLength"`, `"pubDate"`,
	} {
		assert.Contains(t, body, field)
	}
	assert.NotContains(t, body, `"Stats"`, "stats fields should be flattened into the summary")
}

// TestWriter_SaveOverwrites verifies a later run replaces the earlier
// snapshot
func TestWriter_SaveOverwrites(t *testing.T) {
	writer := NewWriter(NewMemoryBlob())
	ctx := context.Background()

	first := createSampleSnapshot()
	require.NoError(t, writer.Save(ctx, first))

	second := Build(nil, nil, stats.Stats{}, time.Now(), time.Now(), "run-2")
	require.NoError(t, writer.Save(ctx, second))

	loaded, ok := writer.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "run-2", loaded.Summary.RunID)
	assert.Empty(t, loaded.Items)
}

// TestWriter_SaveError verifies blob failures propagate
func TestWriter_SaveError(t *testing.T) {
	writer := NewWriter(&failingBlob{})

	err := writer.Save(context.Background(), createSampleSnapshot())
	assert.ErrorContains(t, err, "bucket unavailable")
}

// TestWriter_LoadStored verifies a saved snapshot can be read back
func TestWriter_LoadStored(t *testing.T) {
	writer := NewWriter(NewMemoryBlob())
	snap := createSampleSnapshot()
	require.NoError(t, writer.Save(context.Background(), snap))

	loaded, ok := writer.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, snap.Summary.Total, loaded.Summary.Total)
	assert.Equal(t, snap.Summary.Sources, loaded.Summary.Sources)
	assert.Equal(t, snap.Items[0].Link, loaded.Items[0].Link)
}

// TestWriter_LoadWithOptions verifies the stored metadata comes back with
// the snapshot
func TestWriter_LoadWithOptions(t *testing.T) {
	writer := NewWriter(NewMemoryBlob())
	require.NoError(t, writer.Save(context.Background(), createSampleSnapshot()))

	loaded, opts, ok := writer.LoadWithOptions(context.Background())
	require.True(t, ok)
	assert.Equal(t, 3, loaded.Summary.Total)
	assert.Equal(t, PutOptions{ContentType: ContentType, CacheControl: CacheControl}, opts)
}

// TestWriter_LoadMissing verifies a missing snapshot is not an error
func TestWriter_LoadMissing(t *testing.T) {
	loaded, ok := NewWriter(NewMemoryBlob()).Load(context.Background())
	assert.False(t, ok)
	assert.Nil(t, loaded)
}

// TestWriter_LoadCorrupted verifies undecodable content reads as no snapshot
func TestWriter_LoadCorrupted(t *testing.T) {
	blob := NewMemoryBlob()
	require.NoError(t, blob.Put(context.Background(), Key, []byte("{not json"), PutOptions{}))

	loaded, ok := NewWriter(blob).Load(context.Background())
	assert.False(t, ok)
	assert.Nil(t, loaded)
}
