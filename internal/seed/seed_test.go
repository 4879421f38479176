package seed

import (
	"context"
	"testing"
	"unicode/utf8"

	"pepeboard/internal/models"
	"pepeboard/internal/store"
	"pepeboard/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_BuildPostPassesValidation(t *testing.T) {
	f := NewFactory(Options{MaxCommentsPerPost: 8, MaxLikes: 10, MaxDays: 5, Seed: 42})

	for i := int64(1); i <= 50; i++ {
		post := f.BuildPost(i)
		assert.Equal(t, i, post.ID)

		_, _, err := validation.ValidatePost(post.Title, post.Content)
		require.NoError(t, err, "title %q", post.Title)
		assert.LessOrEqual(t, post.Likes, 10)
		assert.NotNil(t, post.Comments)

		seen := map[int64]bool{}
		for j, c := range post.Comments {
			_, _, err := validation.ValidateComment(c.Username, c.Comment)
			require.NoError(t, err)
			assert.Equal(t, post.ID, c.PostID)
			assert.True(t, c.Date.After(post.Date))
			assert.False(t, seen[c.Date.UnixMilli()], "comment dates must be unique")
			seen[c.Date.UnixMilli()] = true
			if j > 0 {
				assert.True(t, c.Date.After(post.Comments[j-1].Date))
			}
		}
	}
}

func TestFactory_DeterministicWithSeed(t *testing.T) {
	a := NewFactory(Options{MaxCommentsPerPost: 3, Seed: 7}).BuildPost(1)
	b := NewFactory(Options{MaxCommentsPerPost: 3, Seed: 7}).BuildPost(1)

	assert.Equal(t, a.Title, b.Title)
	assert.Equal(t, a.Content, b.Content)
	assert.Len(t, b.Comments, len(a.Comments))
}

func TestSeeder_AppendsAfterExistingPosts(t *testing.T) {
	st := store.NewMemoryStore(models.Collection{{ID: 100, Title: "kept", Content: "x"}})
	s := NewSeeder(st, Options{Posts: 5, MaxCommentsPerPost: 2, Seed: 1})

	added, err := s.SeedPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, added, 5)
	assert.Equal(t, int64(101), added[0].ID)
	assert.Equal(t, int64(105), added[4].ID)

	posts, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 6)
	assert.Equal(t, "kept", posts[0].Title)
}

func TestSeeder_ClearAll(t *testing.T) {
	st := store.NewMemoryStore(models.Collection{{ID: 1, Title: "gone"}})
	s := NewSeeder(st, DefaultOptions())

	require.NoError(t, s.ClearAll(context.Background()))
	posts, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestClip(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abc", clip("  abc ", 5))
	assert.Equal(t, 4, utf8.RuneCountInString(clip("ñandú grande", 4)))
	assert.Equal(t, "pepe", clip("   ", 5))
}
