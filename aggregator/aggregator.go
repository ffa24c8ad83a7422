// Package aggregator collects articles from many feeds while pacing requests
// to the upstream service, then merges them into one deduplicated, ordered
// list.
package aggregator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pevans/feedsnap/article"
	"github.com/pevans/feedsnap/sources"
)

// DefaultPacing is the minimum gap between two fetch starts against the same
// upstream host.
const DefaultPacing = 500 * time.Millisecond

// sharedUpstream is the gate key used when no upstream host is configured.
const sharedUpstream = "upstream"

// Fetcher fetches and normalizes one feed.
type Fetcher interface {
	FetchFeed(ctx context.Context, feed sources.Descriptor) ([]article.Article, error)
}

// Config holds settings for an Aggregator.
type Config struct {
	// Minimum gap between fetch starts to one upstream host
	Pacing time.Duration
	// Number of feeds fetched at once; 1 fetches strictly in sequence
	Concurrency int
	// Host every fetch goes through. When empty, all fetches share one
	// unnamed upstream and are paced together.
	Upstream string
	// Destination for progress and failure logs; nil uses the standard logger
	Logger *log.Logger
}

// DefaultConfig returns the sequential, paced configuration.
func DefaultConfig() *Config {
	return &Config{
		Pacing:      DefaultPacing,
		Concurrency: 1,
	}
}

// FeedResult is the outcome of fetching one feed. Articles is empty, never
// nil, when Err is set.
type FeedResult struct {
	Feed     sources.Descriptor
	Articles []article.Article
	Err      error
	Duration time.Duration
}

// Failed reports whether the feed could not be fetched.
func (r FeedResult) Failed() bool {
	return r.Err != nil
}

// Aggregator fetches a list of feeds with per-feed failure isolation.
type Aggregator struct {
	fetcher Fetcher
	config  *Config
	gate    *startGate
	logger  *log.Logger
}

// New creates an aggregator. A nil config uses DefaultConfig.
func New(fetcher Fetcher, config *Config) *Aggregator {
	if config == nil {
		config = DefaultConfig()
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Aggregator{
		fetcher: fetcher,
		config:  config,
		gate:    newStartGate(config.Pacing),
		logger:  logger,
	}
}

// Collect fetches every feed and returns one result per feed in input order,
// regardless of how fetches were scheduled. A failing feed yields an empty
// article list and never stops the others. Feeds not started before ctx is
// done are reported with the context error.
func (a *Aggregator) Collect(ctx context.Context, feeds []sources.Descriptor) []FeedResult {
	results := make([]FeedResult, len(feeds))
	if len(feeds) == 0 {
		return results
	}

	if a.config.Concurrency <= 1 {
		a.collectSequential(ctx, feeds, results)
	} else {
		a.collectParallel(ctx, feeds, results)
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	a.logger.Printf("INFO: Collected %d feeds (%d failed)", len(feeds), failed)

	return results
}

// collectSequential fetches feeds one at a time.
func (a *Aggregator) collectSequential(ctx context.Context, feeds []sources.Descriptor, results []FeedResult) {
	for i, feed := range feeds {
		if err := ctx.Err(); err != nil {
			a.logger.Printf("WARN: Collection cancelled after %d/%d feeds", i, len(feeds))
			for j := i; j < len(feeds); j++ {
				results[j] = cancelled(feeds[j], err)
			}
			return
		}
		results[i] = a.collectOne(ctx, feed)
	}
}

// collectParallel fetches feeds with a bounded worker pool. Results are
// stored by feed index so the output order matches the input.
func (a *Aggregator) collectParallel(ctx context.Context, feeds []sources.Descriptor, results []FeedResult) {
	var wg sync.WaitGroup
	jobs := make(chan int)

	workers := a.config.Concurrency
	if workers > len(feeds) {
		workers = len(feeds)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.collectOne(ctx, feeds[i])
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(feeds); next++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(feeds); i++ {
		results[i] = cancelled(feeds[i], ctx.Err())
	}
}

// collectOne waits for the pacing gate, fetches one feed and logs the
// outcome. It never returns nil Articles.
func (a *Aggregator) collectOne(ctx context.Context, feed sources.Descriptor) FeedResult {
	if err := a.gate.wait(ctx, a.upstream()); err != nil {
		return cancelled(feed, err)
	}

	start := time.Now()
	articles, err := a.fetcher.FetchFeed(ctx, feed)
	duration := time.Since(start)

	if err != nil {
		a.logger.Printf("ERROR: Failed to fetch %s (%s): %v", feed.Name, feed.URL, err)
		return FeedResult{Feed: feed, Articles: []article.Article{}, Err: err, Duration: duration}
	}
	if articles == nil {
		articles = []article.Article{}
	}

	a.logger.Printf("INFO: Fetched %s: %d items in %v", feed.Name, len(articles), duration)
	return FeedResult{Feed: feed, Articles: articles, Duration: duration}
}

// upstream returns the key every fetch is paced under. Feeds are fetched
// through one conversion service, so their own hosts never matter.
func (a *Aggregator) upstream() string {
	if a.config.Upstream != "" {
		return a.config.Upstream
	}
	return sharedUpstream
}

func cancelled(feed sources.Descriptor, err error) FeedResult {
	return FeedResult{Feed: feed, Articles: []article.Article{}, Err: err}
}

// startGate spaces out fetch starts per host. Each caller reserves the next
// free start slot for its host, so concurrent callers never start closer
// together than the interval.
type startGate struct {
	mu       sync.Mutex
	interval time.Duration
	next     map[string]time.Time
}

func newStartGate(interval time.Duration) *startGate {
	return &startGate{
		interval: interval,
		next:     make(map[string]time.Time),
	}
}

// wait blocks until the caller's reserved slot for host arrives.
func (g *startGate) wait(ctx context.Context, host string) error {
	if g.interval <= 0 {
		return ctx.Err()
	}

	g.mu.Lock()
	now := time.Now()
	slot := g.next[host]
	if slot.Before(now) {
		slot = now
	}
	g.next[host] = slot.Add(g.interval)
	g.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
