// Package service orchestrates board reads and writes over the store.
package service

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"pepeboard/internal/middleware"
	"pepeboard/internal/models"
	"pepeboard/internal/observability"
	"pepeboard/internal/repository"
	"pepeboard/internal/store"
	"pepeboard/internal/validation"
)

// Publisher receives committed changes. Implementations must not block.
type Publisher interface {
	PostUpdated(ctx context.Context, post *models.Post)
	PostDeleted(ctx context.Context, id int64)
}

// PostService applies one repository operation per write inside a
// load, mutate, save cycle and publishes the result.
//
// Writes are serialized by mu so two requests in this process can never
// read the same state and overwrite each other. Publishing happens under the
// same lock, which keeps broadcast order equal to commit order.
type PostService struct {
	store     store.Store
	repo      repository.PostRepository
	publisher Publisher
	logger    *slog.Logger

	mu sync.Mutex

	rngMu sync.Mutex
	rng   *rand.Rand
}

type CreatePostInput struct {
	Title   string
	Content string
}

type AddCommentInput struct {
	PostID   int64
	Username string
	Comment  string
}

type ListPostsInput struct {
	Order models.PostOrder
}

func NewPostService(st store.Store, repo repository.PostRepository, publisher Publisher) *PostService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &PostService{
		store:     st,
		repo:      repo,
		publisher: publisher,
		logger:    middleware.Logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (models.Collection, error) {
	posts, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if in.Order == models.PostOrderRandom {
		s.rngMu.Lock()
		defer s.rngMu.Unlock()
		return models.SortPosts(posts, in.Order, s.rng), nil
	}
	return models.SortPosts(posts, in.Order, nil), nil
}

func (s *PostService) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	posts, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.Find(posts, id)
}

// ListComments returns the post's comments in display order.
func (s *PostService) ListComments(ctx context.Context, postID int64, order models.CommentOrder) ([]*models.Comment, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return models.SortComments(post.Comments, order), nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title, content, err := validation.ValidatePost(in.Title, in.Content)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	return s.mutate(ctx, "create_post", func(posts *models.Collection) (*models.Post, error) {
		return s.repo.Create(posts, title, content), nil
	})
}

func (s *PostService) LikePost(ctx context.Context, id int64) (*models.Post, error) {
	return s.mutate(ctx, "like_post", func(posts *models.Collection) (*models.Post, error) {
		return s.repo.Like(*posts, id)
	})
}

func (s *PostService) AddComment(ctx context.Context, in AddCommentInput) (*models.Post, error) {
	username, comment, err := validation.ValidateComment(in.Username, in.Comment)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	return s.mutate(ctx, "add_comment", func(posts *models.Collection) (*models.Post, error) {
		return s.repo.AddComment(*posts, in.PostID, username, comment)
	})
}

// LikeComment likes the first comment on the post whose date equals date.
func (s *PostService) LikeComment(ctx context.Context, postID int64, date time.Time) (*models.Post, error) {
	return s.mutate(ctx, "like_comment", func(posts *models.Collection) (*models.Post, error) {
		return s.repo.LikeComment(*posts, postID, date)
	})
}

func (s *PostService) LikeCommentByID(ctx context.Context, postID, commentID int64) (*models.Post, error) {
	return s.mutate(ctx, "like_comment", func(posts *models.Collection) (*models.Post, error) {
		return s.repo.LikeCommentByID(*posts, postID, commentID)
	})
}

func (s *PostService) DeletePost(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(&posts, id); err != nil {
		return err
	}
	if err := s.store.Save(ctx, posts); err != nil {
		return err
	}

	observability.PostMutations.WithLabelValues("delete_post").Inc()
	s.logger.InfoContext(ctx, "post mutated",
		slog.String("op", "delete_post"),
		slog.Int64("post_id", id),
	)
	s.publisher.PostDeleted(ctx, id)
	return nil
}

// mutate runs one write: lock, load, apply, save, publish. Nothing is
// published when any step fails.
func (s *PostService) mutate(ctx context.Context, op string, apply func(*models.Collection) (*models.Post, error)) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	post, err := apply(&posts)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, posts); err != nil {
		return nil, err
	}

	observability.PostMutations.WithLabelValues(op).Inc()
	s.logger.InfoContext(ctx, "post mutated",
		slog.String("op", op),
		slog.Int64("post_id", post.ID),
		slog.Int("likes", post.Likes),
		slog.Int("comments", len(post.Comments)),
	)

	// Callers and subscribers must not share the stored pointers.
	s.publisher.PostUpdated(ctx, post.Clone())
	return post, nil
}

type noopPublisher struct{}

func (noopPublisher) PostUpdated(context.Context, *models.Post) {}
func (noopPublisher) PostDeleted(context.Context, int64)        {}
