package main

import (
	"fmt"
	"os"

	"github.com/pevans/feedsnap/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configPath := config.PathFromEnv()

	// Get subcommand
	subcommand := os.Args[1]
	args := os.Args[2:]

	switch subcommand {
	case "run":
		handleRun(configPath, args)
	case "serve":
		handleServe(configPath, args)
	case "show":
		handleShow(configPath, args)
	case "feeds":
		handleFeeds(configPath, args)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("feedsnap - RSS aggregation snapshots")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  feedsnap <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run        Fetch all feeds once and write the snapshot")
	fmt.Println("  serve      Serve the invocation endpoint over HTTP")
	fmt.Println("  show       Show the stored snapshot")
	fmt.Println("  feeds      List the configured feeds")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  FEEDSNAP_CONFIG        Path to config file (default: feedsnap.yaml)")
	fmt.Println("  FEEDSNAP_BUCKET        Snapshot bucket (default: rss-aggregator)")
	fmt.Println("  FEEDSNAP_REGION        Storage region (default: us-east-1)")
	fmt.Println("  FEEDSNAP_STORAGE_TYPE  file, sqlite, or memory (default: file)")
	fmt.Println("  FEEDSNAP_STORAGE_DSN   Storage directory or database path (default: .feedsnap)")
	fmt.Println("  FEEDSNAP_ADDR          Listen address for serve (default: localhost:8080)")
	fmt.Println("  RSS2JSON_API_KEY       Conversion service API key")
}
