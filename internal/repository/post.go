// Package repository provides the in-memory operations applied to a loaded
// post collection. Nothing here performs I/O; persistence belongs to the store.
package repository

import (
	"fmt"
	"time"

	"pepeboard/internal/models"
)

// Timestamps are kept at millisecond precision so that dates echoed back by
// browser clients still match exactly.
const timestampResolution = time.Millisecond

// PostRepository defines the interface for post collection operations
type PostRepository interface {
	Find(posts models.Collection, id int64) (*models.Post, error)
	Create(posts *models.Collection, title, content string) *models.Post
	Like(posts models.Collection, id int64) (*models.Post, error)
	AddComment(posts models.Collection, postID int64, username, text string) (*models.Post, error)
	LikeComment(posts models.Collection, postID int64, date time.Time) (*models.Post, error)
	LikeCommentByID(posts models.Collection, postID, commentID int64) (*models.Post, error)
	Delete(posts *models.Collection, id int64) error
}

// postRepository implements PostRepository
type postRepository struct {
	now func() time.Time
}

// NewPostRepository creates a new post repository. A nil clock means time.Now.
func NewPostRepository(clock func() time.Time) PostRepository {
	if clock == nil {
		clock = time.Now
	}
	return &postRepository{now: clock}
}

func (r *postRepository) timestamp() time.Time {
	return r.now().Round(0).UTC().Truncate(timestampResolution)
}

func (r *postRepository) Find(posts models.Collection, id int64) (*models.Post, error) {
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, models.NewPostNotFoundError(id)
}

func (r *postRepository) Create(posts *models.Collection, title, content string) *models.Post {
	now := r.timestamp()

	var maxID int64
	for _, p := range *posts {
		maxID = max(maxID, p.ID)
	}

	post := &models.Post{
		ID:       nextID(now, maxID),
		Title:    title,
		Content:  content,
		Likes:    0,
		Date:     now,
		Comments: []*models.Comment{},
	}
	*posts = append(*posts, post)
	return post
}

func (r *postRepository) Like(posts models.Collection, id int64) (*models.Post, error) {
	post, err := r.Find(posts, id)
	if err != nil {
		return nil, err
	}
	post.Likes++
	return post, nil
}

func (r *postRepository) AddComment(posts models.Collection, postID int64, username, text string) (*models.Post, error) {
	post, err := r.Find(posts, postID)
	if err != nil {
		return nil, err
	}

	now := r.timestamp()

	var maxID int64
	for _, p := range posts {
		for _, c := range p.Comments {
			maxID = max(maxID, c.ID)
		}
	}

	// Dates identify comments on the like-by-date route, so keep them unique
	// within the post.
	date := now
	for _, c := range post.Comments {
		if !c.Date.Before(date) {
			date = c.Date.Add(timestampResolution)
		}
	}

	post.Comments = append(post.Comments, &models.Comment{
		ID:       nextID(now, maxID),
		PostID:   post.ID,
		Username: username,
		Comment:  text,
		Date:     date,
		Likes:    0,
	})
	return post, nil
}

func (r *postRepository) LikeComment(posts models.Collection, postID int64, date time.Time) (*models.Post, error) {
	post, err := r.Find(posts, postID)
	if err != nil {
		return nil, err
	}
	// Dates compare at millisecond precision, the resolution they are
	// stored and served with.
	want := date.Truncate(time.Millisecond)
	for _, c := range post.Comments {
		if c.Date.Truncate(time.Millisecond).Equal(want) {
			c.Likes++
			return post, nil
		}
	}
	return nil, models.NewCommentNotFoundError(date.UTC().Format(time.RFC3339Nano))
}

func (r *postRepository) LikeCommentByID(posts models.Collection, postID, commentID int64) (*models.Post, error) {
	post, err := r.Find(posts, postID)
	if err != nil {
		return nil, err
	}
	for _, c := range post.Comments {
		if c.ID == commentID {
			c.Likes++
			return post, nil
		}
	}
	return nil, models.NewCommentNotFoundError(fmt.Sprintf("id %d", commentID))
}

func (r *postRepository) Delete(posts *models.Collection, id int64) error {
	for i, p := range *posts {
		if p.ID == id {
			*posts = append((*posts)[:i:i], (*posts)[i+1:]...)
			return nil
		}
	}
	return models.NewPostNotFoundError(id)
}

// nextID derives an id from the creation time, bumped past the current
// maximum so ids stay unique and increasing.
func nextID(now time.Time, currentMax int64) int64 {
	id := now.UnixMilli()
	if id <= currentMax {
		id = currentMax + 1
	}
	return id
}
