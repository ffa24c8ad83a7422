// Package snapshot assembles the consolidated aggregation result and persists
// it to a blob store.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pevans/feedsnap/aggregator"
	"github.com/pevans/feedsnap/article"
	"github.com/pevans/feedsnap/stats"
)

// Storage settings for the snapshot object.
const (
	Key          = "rss-data.json"
	ContentType  = "application/json"
	CacheControl = "public, max-age=300"
)

// TimestampLayout is ISO 8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// SourceCount reports how many snapshot items came from one feed.
type SourceCount struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Count    int    `json:"count"`
	Failed   bool   `json:"failed,omitempty"`
}

// Summary describes a snapshot. The statistics are embedded so they appear
// at the top level of the summary object.
type Summary struct {
	Total         int           `json:"total"`
	Timestamp     string        `json:"timestamp"`
	FetchDuration int64         `json:"fetchDuration"`
	Sources       []SourceCount `json:"sources"`
	stats.Stats
	RunID string `json:"runId,omitempty"`
}

// Snapshot is the single object written per run.
type Snapshot struct {
	Items   []article.Article `json:"items"`
	Summary Summary           `json:"summary"`
}

// Build assembles a snapshot from the final item list and the per-feed
// results. Every feed appears in Sources, in feed order, with the number of
// items it contributed after deduplication, so the counts sum to the total
// even when two feeds share a name.
func Build(
	items []article.Article,
	results []aggregator.FeedResult,
	st stats.Stats,
	started, finished time.Time,
	runID string,
) *Snapshot {
	if items == nil {
		items = []article.Article{}
	}

	// The first feed to publish a link owns it, matching deduplication.
	owner := make(map[string]int)
	for i, r := range results {
		for _, a := range r.Articles {
			if _, ok := owner[a.Link]; !ok {
				owner[a.Link] = i
			}
		}
	}

	counts := make([]int, len(results))
	for _, a := range items {
		if i, ok := owner[a.Link]; ok {
			counts[i]++
		}
	}

	sources := make([]SourceCount, 0, len(results))
	for i, r := range results {
		sources = append(sources, SourceCount{
			Name:     r.Feed.Name,
			Category: r.Feed.Category,
			Count:    counts[i],
			Failed:   r.Failed(),
		})
	}

	if st.CategoryCounts == nil {
		st.CategoryCounts = map[string]int{}
	}
	if st.TrendingTopics == nil {
		st.TrendingTopics = []stats.TopicCount{}
	}

	return &Snapshot{
		Items: items,
		Summary: Summary{
			Total:         len(items),
			Timestamp:     finished.UTC().Format(TimestampLayout),
			FetchDuration: finished.Sub(started).Milliseconds(),
			Sources:       sources,
			Stats:         st,
			RunID:         runID,
		},
	}
}

// Writer saves and loads the snapshot object.
type Writer struct {
	blob Blob
}

// NewWriter creates a writer backed by blob.
func NewWriter(blob Blob) *Writer {
	return &Writer{blob: blob}
}

// Save serializes the snapshot and replaces the stored object.
func (w *Writer) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	opts := PutOptions{ContentType: ContentType, CacheControl: CacheControl}
	if err := w.blob.Put(ctx, Key, data, opts); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

// Load returns the stored snapshot. A missing, unreadable or undecodable
// object is reported as no snapshot rather than an error.
func (w *Writer) Load(ctx context.Context) (*Snapshot, bool) {
	snap, _, ok := w.LoadWithOptions(ctx)
	return snap, ok
}

// LoadWithOptions is Load that also returns the metadata the snapshot was
// stored with.
func (w *Writer) LoadWithOptions(ctx context.Context) (*Snapshot, PutOptions, bool) {
	obj, err := w.blob.Get(ctx, Key)
	if errors.Is(err, ErrNotFound) {
		log.Printf("INFO: No snapshot stored at %s", Key)
		return nil, PutOptions{}, false
	}
	if err != nil {
		log.Printf("INFO: Snapshot at %s unreadable: %v", Key, err)
		return nil, PutOptions{}, false
	}

	var snap Snapshot
	if err := json.Unmarshal(obj.Data, &snap); err != nil {
		log.Printf("INFO: Snapshot at %s undecodable: %v", Key, err)
		return nil, PutOptions{}, false
	}

	return &snap, obj.Options, true
}
