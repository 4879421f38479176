// Command seed fills the configured board store with fake posts.
package main

import (
	"context"
	"flag"
	"log"

	"pepeboard/internal/cache"
	"pepeboard/internal/config"
	"pepeboard/internal/middleware"
	"pepeboard/internal/seed"
	"pepeboard/internal/store"
)

func main() {
	defaults := seed.DefaultOptions()

	// Parse command line flags
	numPosts := flag.Int("posts", defaults.Posts, "Number of posts to create")
	maxComments := flag.Int("comments", defaults.MaxCommentsPerPost, "Maximum comments per post")
	maxLikes := flag.Int("likes", defaults.MaxLikes, "Maximum likes per post")
	shouldClean := flag.Bool("clean", false, "Clear the board before seeding")
	seedValue := flag.Int64("seed", 0, "Random seed (0 = time based)")
	flag.Parse()

	log.Println("🌱 Board Seeder")
	log.Println("===============")
	log.Printf("Target: %d posts, clean=%v\n", *numPosts, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

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

	s := seed.NewSeeder(st, seed.Options{
		Posts:              *numPosts,
		MaxCommentsPerPost: *maxComments,
		MaxLikes:           *maxLikes,
		MaxDays:            defaults.MaxDays,
		Seed:               *seedValue,
	})

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if _, err := s.SeedPosts(ctx); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Running servers pick the posts up on their next read.")
}
