package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func handleShow(configPath string, args []string) {
	// Parse flags for show command
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	format := fs.String("format", "table", "Output format (table, compact, or json)")
	limit := fs.Int("limit", 20, "Maximum number of items to display")
	fs.Parse(args)

	cfg := loadConfig(configPath)
	writer, closeBlob := openWriter(cfg)
	defer closeBlob()

	snap, ok := writer.Load(context.Background())
	if !ok {
		fmt.Println("No snapshot stored yet. Run 'feedsnap run' first.")
		return
	}

	switch *format {
	case "table":
		printSummary(snap)
		printItemsTable(snap.Items, *limit)
	case "compact":
		printItemsCompact(snap.Items, *limit)
	case "json":
		printJSON(snap)
	default:
		fmt.Fprintf(os.Stderr, "Error: --format must be 'table', 'compact', or 'json'\n")
		os.Exit(1)
	}
}

func handleFeeds(configPath string, args []string) {
	// Parse flags for feeds command
	fs := flag.NewFlagSet("feeds", flag.ExitOnError)
	format := fs.String("format", "table", "Output format (table or json)")
	fs.Parse(args)

	cfg := loadConfig(configPath)
	feeds := cfg.FeedList()

	if *format == "json" {
		printJSON(feeds)
		return
	}

	fmt.Printf("%-24s %-10s %s\n", "NAME", "CATEGORY", "URL")
	fmt.Println("--------------------------------------------------------------------------------")
	for _, feed := range feeds {
		fmt.Printf("%-24s %-10s %s\n", truncate(feed.Name, 24), feed.Category, feed.URL)
	}
}
