package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pevans/feedsnap"
)

func handleRun(configPath string, args []string) {
	// Parse flags for run command
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	format := fs.String("format", "text", "Output format (text or json)")
	fs.Parse(args)

	if *format != "text" && *format != "json" {
		fmt.Fprintf(os.Stderr, "Error: --format must be 'text' or 'json'\n")
		os.Exit(1)
	}

	cfg := loadConfig(configPath)
	writer, closeBlob := openWriter(cfg)
	defer closeBlob()

	pipeline := feedsnap.NewPipelineFromConfig(cfg, writer)

	ctx := context.Background()
	if cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Budget)
		defer cancel()
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeBlob()
		os.Exit(1)
	}

	if *format == "json" {
		printJSON(feedsnap.NewInvokeResponse(result))
		return
	}
	printRunSummary(result)
}

func handleServe(configPath string, args []string) {
	// Parse flags for serve command
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (overrides config)")
	fs.Parse(args)

	cfg := loadConfig(configPath)
	if *addr != "" {
		cfg.Addr = *addr
	}

	writer, closeBlob := openWriter(cfg)
	defer closeBlob()

	server := feedsnap.NewAPIServer(feedsnap.NewPipelineFromConfig(cfg, writer), writer, cfg.Budget)
	router := server.SetupRouter()

	log.Printf("Starting feedsnap server on http://%s/", cfg.Addr)

	if err := router.Run(cfg.Addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
