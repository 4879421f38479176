package models

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSortComments_TopOrder(t *testing.T) {
	comments := []*Comment{
		{ID: 0, Likes: 5, Date: day("2024-01-02")},
		{ID: 1, Likes: 5, Date: day("2024-01-01")},
		{ID: 2, Likes: 2, Date: day("2024-01-03")},
	}

	sorted := SortComments(comments, CommentOrderTop)

	require.Len(t, sorted, 3)
	assert.Equal(t, []int64{0, 1, 2}, commentIDs(sorted))
}

func TestSortComments_LaterDateWinsTie(t *testing.T) {
	t1 := day("2024-01-01")
	t3 := day("2024-01-03")
	comments := []*Comment{
		{ID: 1, Likes: 3, Date: t1},
		{ID: 2, Likes: 1, Date: day("2024-01-02")},
		{ID: 3, Likes: 3, Date: t3},
	}

	sorted := SortComments(comments, CommentOrderTop)
	assert.Equal(t, []int64{3, 1, 2}, commentIDs(sorted))
}

func TestSortComments_DoesNotMutateInput(t *testing.T) {
	comments := []*Comment{
		{ID: 1, Likes: 0, Date: day("2024-01-01")},
		{ID: 2, Likes: 9, Date: day("2024-01-02")},
	}

	_ = SortComments(comments, CommentOrderTop)
	assert.Equal(t, []int64{1, 2}, commentIDs(comments))
}

func TestSortComments_Deterministic(t *testing.T) {
	same := day("2024-05-05")
	comments := []*Comment{
		{ID: 10, Likes: 1, Date: same},
		{ID: 11, Likes: 1, Date: same},
		{ID: 12, Likes: 1, Date: same},
	}

	first := commentIDs(SortComments(comments, CommentOrderTop))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, commentIDs(SortComments(comments, CommentOrderTop)))
	}
	assert.Equal(t, []int64{10, 11, 12}, first)
}

func TestSortComments_Newest(t *testing.T) {
	comments := []*Comment{
		{ID: 1, Likes: 9, Date: day("2024-01-01")},
		{ID: 2, Likes: 0, Date: day("2024-01-03")},
		{ID: 3, Likes: 4, Date: day("2024-01-02")},
	}

	assert.Equal(t, []int64{2, 3, 1}, commentIDs(SortComments(comments, CommentOrderNewest)))
}

func TestSortPosts(t *testing.T) {
	posts := Collection{
		{ID: 1, Likes: 2, Date: day("2024-01-01"), Comments: []*Comment{{}, {}}},
		{ID: 2, Likes: 7, Date: day("2024-01-03")},
		{ID: 3, Likes: 2, Date: day("2024-01-02"), Comments: []*Comment{{}}},
	}

	tests := []struct {
		order PostOrder
		want  []int64
	}{
		{PostOrderStored, []int64{1, 2, 3}},
		{PostOrderNewest, []int64{2, 3, 1}},
		{PostOrderLikes, []int64{2, 3, 1}},
		{PostOrderComments, []int64{1, 3, 2}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			assert.Equal(t, tt.want, postIDs(SortPosts(posts, tt.order, nil)))
		})
	}

	assert.Equal(t, []int64{1, 2, 3}, postIDs(posts), "input must keep storage order")
}

func TestSortPosts_RandomIsPermutation(t *testing.T) {
	posts := Collection{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}

	shuffled := SortPosts(posts, PostOrderRandom, rand.New(rand.NewSource(42)))
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5}, postIDs(shuffled))

	again := SortPosts(posts, PostOrderRandom, rand.New(rand.NewSource(42)))
	assert.Equal(t, postIDs(shuffled), postIDs(again))
}

func TestParseOrders(t *testing.T) {
	order, err := ParsePostOrder("")
	require.NoError(t, err)
	assert.Equal(t, PostOrderStored, order)

	order, err = ParsePostOrder(" Likes ")
	require.NoError(t, err)
	assert.Equal(t, PostOrderLikes, order)

	_, err = ParsePostOrder("oldest")
	require.Error(t, err)
	assert.Equal(t, 400, StatusCode(err))

	co, err := ParseCommentOrder("")
	require.NoError(t, err)
	assert.Equal(t, CommentOrderTop, co)

	co, err = ParseCommentOrder("newest")
	require.NoError(t, err)
	assert.Equal(t, CommentOrderNewest, co)

	_, err = ParseCommentOrder("bogus")
	assert.Error(t, err)
}

func commentIDs(comments []*Comment) []int64 {
	ids := make([]int64, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return ids
}

func postIDs(posts Collection) []int64 {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
