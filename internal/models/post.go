// Package models contains data structures for the board's domain models.
package models

import (
	"encoding/json"
	"time"
)

// Post represents a single entry on the board. Comments are embedded and are
// removed together with the post.
type Post struct {
	ID       int64      `json:"id" yaml:"id"`
	Title    string     `json:"title" yaml:"title"`
	Content  string     `json:"content" yaml:"content"`
	Likes    int        `json:"likes" yaml:"likes"`
	Date     time.Time  `json:"date" yaml:"date"`
	Comments []*Comment `json:"comments" yaml:"comments"`
}

// Comment is a reply attached to a post. Date doubles as the external
// identifier used by the like-by-date route.
type Comment struct {
	ID       int64     `json:"id" yaml:"id"`
	PostID   int64     `json:"postId" yaml:"postId"`
	Username string    `json:"username" yaml:"username"`
	Comment  string    `json:"comment" yaml:"comment"`
	Date     time.Time `json:"date" yaml:"date"`
	Likes    int       `json:"likes" yaml:"likes"`
}

// MarshalJSON keeps comments as an array even when the post has none.
func (p Post) MarshalJSON() ([]byte, error) {
	type alias Post
	out := alias(p)
	if out.Comments == nil {
		out.Comments = []*Comment{}
	}
	return json.Marshal(out)
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	out := *p
	out.Comments = make([]*Comment, len(p.Comments))
	for i, c := range p.Comments {
		if c == nil {
			continue
		}
		cc := *c
		out.Comments[i] = &cc
	}
	return &out
}

// Collection is the full ordered set of posts persisted as one document.
// Storage order is insertion order.
type Collection []*Post

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return Collection{}
	}
	out := make(Collection, len(c))
	for i, p := range c {
		out[i] = p.Clone()
	}
	return out
}

// Normalize drops null posts and comments from a decoded document and gives
// every post a non-nil comment slice.
func (c Collection) Normalize() Collection {
	out := make(Collection, 0, len(c))
	for _, p := range c {
		if p == nil {
			continue
		}
		comments := make([]*Comment, 0, len(p.Comments))
		for _, cm := range p.Comments {
			if cm != nil {
				comments = append(comments, cm)
			}
		}
		p.Comments = comments
		out = append(out, p)
	}
	return out
}
