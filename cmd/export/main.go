// Command export prints the configured board as JSON or YAML.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"pepeboard/internal/cache"
	"pepeboard/internal/config"
	"pepeboard/internal/export"
	"pepeboard/internal/middleware"
	"pepeboard/internal/models"
	"pepeboard/internal/store"
)

func main() {
	format := flag.String("format", export.FormatYAML, "Output format: json or yaml")
	sortOrder := flag.String("sort", "", "Post order: stored, newest, likes, comments, random")
	flag.Parse()

	order, err := models.ParsePostOrder(*sortOrder)
	if err != nil {
		log.Fatalf("Invalid sort order %q", *sortOrder)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// Keep stdout for the document.
	middleware.InitLogger(cfg.Env, cfg.LogLevel, os.Stderr)

	ctx := context.Background()
	rdb := cache.ConnectOptional(ctx, cfg.RedisURL)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	st, err := store.Open(ctx, cfg, rdb, middleware.Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	posts, err := st.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load board: %v", err)
	}

	if err := export.Write(os.Stdout, models.SortPosts(posts, order, rand.New(rand.NewSource(time.Now().UnixNano()))), *format); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
}
