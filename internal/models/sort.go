package models

import (
	"math/rand"
	"sort"
	"strings"
)

// CommentOrder selects how comments are arranged for display.
type CommentOrder string

const (
	// CommentOrderTop sorts by likes, most liked first, newer comments winning ties.
	CommentOrderTop CommentOrder = "top"
	// CommentOrderNewest sorts by date, most recent first.
	CommentOrderNewest CommentOrder = "newest"
)

// PostOrder selects how posts are arranged when listing the board.
type PostOrder string

const (
	PostOrderStored   PostOrder = "stored"
	PostOrderNewest   PostOrder = "newest"
	PostOrderLikes    PostOrder = "likes"
	PostOrderComments PostOrder = "comments"
	PostOrderRandom   PostOrder = "random"
)

// ParseCommentOrder parses a query value. Empty means CommentOrderTop.
func ParseCommentOrder(raw string) (CommentOrder, error) {
	switch CommentOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CommentOrderTop, "likes":
		return CommentOrderTop, nil
	case CommentOrderNewest, "date":
		return CommentOrderNewest, nil
	}
	return "", NewValidationError("Invalid comment sort order")
}

// ParsePostOrder parses a query value. Empty means PostOrderStored.
func ParsePostOrder(raw string) (PostOrder, error) {
	order := PostOrder(strings.ToLower(strings.TrimSpace(raw)))
	switch order {
	case "":
		return PostOrderStored, nil
	case PostOrderStored, PostOrderNewest, PostOrderLikes, PostOrderComments, PostOrderRandom:
		return order, nil
	}
	return "", NewValidationError("Invalid sort order")
}

// SortComments returns a sorted copy of comments. The input is not modified.
func SortComments(comments []*Comment, order CommentOrder) []*Comment {
	out := make([]*Comment, len(comments))
	copy(out, comments)

	switch order {
	case CommentOrderNewest:
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].Date.Equal(out[j].Date) {
				return out[i].Date.After(out[j].Date)
			}
			return out[i].ID > out[j].ID
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Likes != out[j].Likes {
				return out[i].Likes > out[j].Likes
			}
			return out[i].Date.After(out[j].Date)
		})
	}
	return out
}

// SortPosts returns a sorted copy of posts. rng is only used for
// PostOrderRandom and may be nil otherwise.
func SortPosts(posts Collection, order PostOrder, rng *rand.Rand) Collection {
	out := make(Collection, len(posts))
	copy(out, posts)

	newer := func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	}

	switch order {
	case PostOrderNewest:
		sort.SliceStable(out, newer)
	case PostOrderLikes:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Likes != out[j].Likes {
				return out[i].Likes > out[j].Likes
			}
			return newer(i, j)
		})
	case PostOrderComments:
		sort.SliceStable(out, func(i, j int) bool {
			if len(out[i].Comments) != len(out[j].Comments) {
				return len(out[i].Comments) > len(out[j].Comments)
			}
			return newer(i, j)
		})
	case PostOrderRandom:
		if rng != nil {
			rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		} else {
			rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		}
	}
	return out
}
