package seed

import (
	"context"
	"fmt"
	"log"

	"pepeboard/internal/models"
	"pepeboard/internal/store"
)

// Seeder writes generated posts through a store.
type Seeder struct {
	store   store.Store
	factory *Factory
	opts    Options
}

// NewSeeder creates a Seeder bound to st.
func NewSeeder(st store.Store, opts Options) *Seeder {
	return &Seeder{store: st, factory: NewFactory(opts), opts: opts}
}

// ClearAll replaces the board with an empty collection.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🧹 Clearing board...")
	if err := s.store.Save(ctx, models.Collection{}); err != nil {
		return fmt.Errorf("clear board: %w", err)
	}
	return nil
}

// SeedPosts appends opts.Posts generated posts to the stored board and
// returns the new posts.
func (s *Seeder) SeedPosts(ctx context.Context) (models.Collection, error) {
	posts, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}

	var maxID int64
	for _, p := range posts {
		maxID = max(maxID, p.ID)
	}

	added := make(models.Collection, 0, s.opts.Posts)
	for i := 1; i <= s.opts.Posts; i++ {
		post := s.factory.BuildPost(maxID + int64(i))
		posts = append(posts, post)
		added = append(added, post)
	}

	if err := s.store.Save(ctx, posts); err != nil {
		return nil, fmt.Errorf("save board: %w", err)
	}
	log.Printf("✅ Seeded %d posts into %s store", len(added), s.store.Name())
	return added, nil
}
