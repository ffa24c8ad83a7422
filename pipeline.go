// Package feedsnap runs the aggregation pipeline and serves it over HTTP.
package feedsnap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/feedsnap/aggregator"
	"github.com/pevans/feedsnap/config"
	"github.com/pevans/feedsnap/rss2json"
	"github.com/pevans/feedsnap/snapshot"
	"github.com/pevans/feedsnap/sources"
	"github.com/pevans/feedsnap/stats"
)

// Pipeline fetches every configured feed and replaces the stored snapshot.
// Nothing is kept between runs.
type Pipeline struct {
	feeds     []sources.Descriptor
	fetcher   aggregator.Fetcher
	aggConfig aggregator.Config
	writer    *snapshot.Writer

	now   func() time.Time
	newID func() string
}

// Result is the outcome of a successful run.
type Result struct {
	RunID    string
	Snapshot *snapshot.Snapshot
	Feeds    []aggregator.FeedResult
}

// NewPipeline creates a pipeline. A nil aggConfig uses the aggregator
// defaults.
func NewPipeline(
	feeds []sources.Descriptor,
	fetcher aggregator.Fetcher,
	aggConfig *aggregator.Config,
	writer *snapshot.Writer,
) *Pipeline {
	if aggConfig == nil {
		aggConfig = aggregator.DefaultConfig()
	}

	return &Pipeline{
		feeds:     feeds,
		fetcher:   fetcher,
		aggConfig: *aggConfig,
		writer:    writer,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// NewPipelineFromConfig wires the conversion service client and the
// configured feed list into a pipeline writing through writer.
func NewPipelineFromConfig(cfg *config.Config, writer *snapshot.Writer) *Pipeline {
	client := rss2json.NewClient(cfg.ClientConfig())
	return NewPipeline(cfg.FeedList(), client, cfg.AggregatorConfig(), writer)
}

// Feeds returns the feeds fetched on every run.
func (p *Pipeline) Feeds() []sources.Descriptor {
	return p.feeds
}

// Run executes one aggregation: collect, merge, compute statistics, build
// the snapshot and save it. Feed failures are logged and tolerated; only a
// failed save is returned as an error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := p.newID()
	logger := log.New(log.Writer(), "run="+runID+" ", log.Flags()|log.Lmsgprefix)

	started := p.now()
	logger.Printf("INFO: Fetching %d feeds", len(p.feeds))

	aggConfig := p.aggConfig
	aggConfig.Logger = logger
	results := aggregator.New(p.fetcher, &aggConfig).Collect(ctx, p.feeds)

	items := aggregator.Merge(results)
	finished := p.now()

	st := stats.Compute(items, finished)
	snap := snapshot.Build(items, results, st, started, finished, runID)

	if err := p.writer.Save(ctx, snap); err != nil {
		logger.Printf("ERROR: Failed to save snapshot: %v", err)
		return nil, fmt.Errorf("failed to save snapshot for run %s: %w", runID, err)
	}

	logger.Printf("INFO: Saved snapshot with %d items in %dms", snap.Summary.Total, snap.Summary.FetchDuration)

	return &Result{
		RunID:    runID,
		Snapshot: snap,
		Feeds:    results,
	}, nil
}

// NewBlob opens the blob store named by cfg.Storage. Callers should close
// the result when it implements io.Closer.
func NewBlob(cfg *config.Config) (snapshot.Blob, error) {
	log.Printf("INFO: Using %s storage for bucket %s (region %s)", cfg.Storage.Type, cfg.Bucket, cfg.Region)

	switch cfg.Storage.Type {
	case config.StorageFile:
		return snapshot.NewFileBlob(cfg.Storage.DSN, cfg.Bucket)
	case config.StorageSQLite:
		return snapshot.NewSQLiteBlob(cfg.Storage.DSN, cfg.Bucket)
	case config.StorageMemory:
		return snapshot.NewMemoryBlob(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorage, cfg.Storage.Type)
	}
}
