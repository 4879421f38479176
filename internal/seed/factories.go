// Package seed fills a board with fake posts for demos and local
// development. It is not used by the server.
package seed

import (
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"pepeboard/internal/models"
	"pepeboard/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
)

// Options controls how much data the seeder generates.
type Options struct {
	Posts              int
	MaxCommentsPerPost int
	MaxLikes           int
	// MaxDays spreads post dates over the given number of past days.
	MaxDays int
	// Seed makes generation deterministic when non-zero.
	Seed int64
}

// DefaultOptions returns the options used by cmd/seed.
func DefaultOptions() Options {
	return Options{
		Posts:              25,
		MaxCommentsPerPost: 6,
		MaxLikes:           40,
		MaxDays:            30,
	}
}

// Factory builds board entities that pass the same validation as user input.
type Factory struct {
	opts  Options
	faker *gofakeit.Faker
	rng   *rand.Rand
	now   time.Time
}

// NewFactory creates a Factory. A zero opts.Seed seeds from the clock.
func NewFactory(opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	return &Factory{
		opts:  opts,
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)),
		now:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

// BuildPost constructs a post with a realistic date spread, likes and
// comments. id must be unique in the target collection.
func (f *Factory) BuildPost(id int64) *models.Post {
	date := f.now.Add(-time.Duration(f.rng.Intn(f.opts.MaxDays*24*60)) * time.Minute)

	post := &models.Post{
		ID:       id,
		Title:    clip(f.faker.HipsterWord()+" "+f.faker.Noun(), validation.MaxTitleLength),
		Content:  clip(f.faker.HipsterSentence(12), validation.MaxContentLength),
		Date:     date,
		Comments: []*models.Comment{},
	}
	if f.opts.MaxLikes > 0 {
		post.Likes = f.rng.Intn(f.opts.MaxLikes + 1)
	}

	n := 0
	if f.opts.MaxCommentsPerPost > 0 {
		n = f.rng.Intn(f.opts.MaxCommentsPerPost + 1)
	}
	commentDate := date
	for i := 0; i < n; i++ {
		// Strictly increasing so every comment date is unique within the post.
		commentDate = commentDate.Add(time.Duration(1+f.rng.Intn(180)) * time.Minute)
		post.Comments = append(post.Comments, f.BuildComment(id, int64(i+1), commentDate))
	}
	return post
}

// BuildComment constructs a comment on postID.
func (f *Factory) BuildComment(postID, id int64, date time.Time) *models.Comment {
	c := &models.Comment{
		ID:       id,
		PostID:   postID,
		Username: clip(f.faker.Username(), validation.MaxUsernameLength),
		Comment:  clip(f.faker.Phrase(), validation.MaxCommentLength),
		Date:     date,
	}
	if f.opts.MaxLikes > 0 {
		c.Likes = f.rng.Intn(f.opts.MaxLikes/2 + 1)
	}
	return c
}

// clip trims s and cuts it to at most max runes.
func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		if s == "" {
			return "pepe"
		}
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}
