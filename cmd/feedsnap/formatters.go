package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pevans/feedsnap"
	"github.com/pevans/feedsnap/article"
	"github.com/pevans/feedsnap/snapshot"
)

// printJSON prints v as indented JSON
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(data))
}

// printRunSummary prints the outcome of a run, one line per feed
func printRunSummary(result *feedsnap.Result) {
	summary := result.Snapshot.Summary

	fmt.Printf("✓ Run %s saved %d items in %s\n", result.RunID, summary.Total,
		formatDuration(time.Duration(summary.FetchDuration)*time.Millisecond))
	fmt.Println()

	for _, feed := range result.Feeds {
		if feed.Failed() {
			fmt.Printf("  ✗ %-24s %v\n", truncate(feed.Feed.Name, 24), feed.Err)
			continue
		}
		fmt.Printf("  ✓ %-24s %d items (%s)\n", truncate(feed.Feed.Name, 24), len(feed.Articles), formatDuration(feed.Duration))
	}
}

// printSummary prints snapshot statistics
func printSummary(snap *snapshot.Snapshot) {
	summary := snap.Summary

	fmt.Printf("Snapshot from %s (%d items, fetched in %dms)\n", summary.Timestamp, summary.Total, summary.FetchDuration)
	if summary.RunID != "" {
		fmt.Printf("Run: %s\n", summary.RunID)
	}
	fmt.Printf("Fresh in the last 2h: %d\n", summary.FreshContent)
	fmt.Println()

	categories := make([]string, 0, len(summary.CategoryCounts))
	for category := range summary.CategoryCounts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	fmt.Println("Categories:")
	for _, category := range categories {
		fmt.Printf("  %-12s %d\n", category, summary.CategoryCounts[category])
	}

	if len(summary.TrendingTopics) > 0 {
		topics := make([]string, 0, len(summary.TrendingTopics))
		for _, topic := range summary.TrendingTopics {
			topics = append(topics, fmt.Sprintf("%s (%d)", topic.Word, topic.Count))
		}
		fmt.Println()
		fmt.Println(wrapText("Trending: "+strings.Join(topics, ", "), 80))
	}

	fmt.Println()
	fmt.Println("Sources:")
	for _, source := range summary.Sources {
		status := ""
		if source.Failed {
			status = " (failed)"
		}
		fmt.Printf("  %-24s %-10s %d%s\n", truncate(source.Name, 24), source.Category, source.Count, status)
	}
	fmt.Println()
}

// printItemsTable prints up to limit items in human-readable form
func printItemsTable(items []article.Article, limit int) {
	if len(items) == 0 {
		fmt.Println("No items to display.")
		return
	}

	shown := items
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	fmt.Printf("Showing %d of %d items\n\n", len(shown), len(items))

	for _, item := range shown {
		fmt.Printf("%s\n", truncate(item.Title, 70))
		fmt.Printf("   %s | %s | %s | %d min read\n", item.Source, item.Category, item.PubDate, item.ReadingTime)
		if item.Description != "" {
			fmt.Printf("%s\n", indent(wrapText(item.Description, 77), "   "))
		}
		if len(item.Characteristics) > 0 {
			tags := make([]string, 0, len(item.Characteristics))
			for _, c := range item.Characteristics {
				tags = append(tags, string(c))
			}
			fmt.Printf("   Tags: %s\n", strings.Join(tags, ", "))
		}
		fmt.Printf("   URL: %s\n", item.Link)
		fmt.Println()
	}
}

// printItemsCompact prints one line per item
func printItemsCompact(items []article.Article, limit int) {
	if len(items) == 0 {
		fmt.Println("No items to display.")
		return
	}

	for i, item := range items {
		if limit > 0 && i >= limit {
			break
		}
		fmt.Printf("%s (%s)\n", truncate(item.Title, 70), item.Source)
	}
}

// wrapText wraps text to a maximum line width
func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n")
}

// indent prefixes every line of text
func indent(text, prefix string) string {
	return prefix + strings.ReplaceAll(text, "\n", "\n"+prefix)
}
