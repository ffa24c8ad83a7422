package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pevans/feedsnap"
	"github.com/pevans/feedsnap/config"
	"github.com/pevans/feedsnap/snapshot"
)

// loadConfig loads the config file or exits
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openWriter opens the configured blob store. The returned function closes
// it and is safe to call more than once.
func openWriter(cfg *config.Config) (*snapshot.Writer, func()) {
	blob, err := feedsnap.NewBlob(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open storage: %v\n", err)
		os.Exit(1)
	}

	closed := false
	closeBlob := func() {
		if closed {
			return
		}
		closed = true
		if closer, ok := blob.(io.Closer); ok {
			closer.Close()
		}
	}

	return snapshot.NewWriter(blob), closeBlob
}

// truncate shortens s to at most n characters
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// formatDuration formats a duration in human-readable form
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
