package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pepeboard/internal/models"
	"pepeboard/internal/repository"
	"pepeboard/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// storeStub is a stub for store.Store.
type storeStub struct {
	loadFn func(context.Context) (models.Collection, error)
	saveFn func(context.Context, models.Collection) error
}

func (s *storeStub) Name() string { return "stub" }
func (s *storeStub) Load(ctx context.Context) (models.Collection, error) {
	return s.loadFn(ctx)
}
func (s *storeStub) Save(ctx context.Context, posts models.Collection) error {
	return s.saveFn(ctx, posts)
}
func (s *storeStub) Close() error { return nil }

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PostUpdated(ctx context.Context, post *models.Post) {
	m.Called(ctx, post)
}

func (m *MockPublisher) PostDeleted(ctx context.Context, id int64) {
	m.Called(ctx, id)
}

// recordingPublisher keeps events in publish order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	posts  []*models.Post
}

func (p *recordingPublisher) PostUpdated(_ context.Context, post *models.Post) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "updatePost")
	p.posts = append(p.posts, post)
}

func (p *recordingPublisher) PostDeleted(_ context.Context, _ int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "deletePost")
}

func (p *recordingPublisher) snapshot() ([]string, []*models.Post) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...), append([]*models.Post(nil), p.posts...)
}

func newTestService(t *testing.T) (*PostService, *store.MemoryStore, *recordingPublisher) {
	t.Helper()
	st := store.NewMemoryStore(nil)
	pub := &recordingPublisher{}
	return NewPostService(st, repository.NewPostRepository(nil), pub), st, pub
}

func TestCreatePost(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{Title: " Hi ", Content: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hi", post.Title)
	assert.Equal(t, 0, post.Likes)
	assert.Empty(t, post.Comments)

	stored, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, post.ID, stored[0].ID)

	events, posts := pub.snapshot()
	assert.Equal(t, []string{"updatePost"}, events)
	assert.Equal(t, post.ID, posts[0].ID)
}

func TestCreatePost_Validation(t *testing.T) {
	svc, st, pub := newTestService(t)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{Title: "", Content: "x"})
	require.Error(t, err)
	assert.Equal(t, 400, models.StatusCode(err))

	_, err = svc.CreatePost(context.Background(), CreatePostInput{Title: "this title is way too long", Content: "x"})
	assert.Equal(t, 400, models.StatusCode(err))

	stored, _ := st.Load(context.Background())
	assert.Empty(t, stored)
	events, _ := pub.snapshot()
	assert.Empty(t, events)
}

func TestLikePost_IncrementsExactlyN(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		liked, err := svc.LikePost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, i, liked.Likes)
	}

	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Likes)

	events, _ := pub.snapshot()
	assert.Len(t, events, 6)
}

func TestLikePost_ConcurrentNoLostUpdates(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LikePost(ctx, post.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.Likes)

	// Broadcast order equals commit order: likes strictly increase.
	_, posts := pub.snapshot()
	require.Len(t, posts, n+1)
	for i := 1; i < len(posts); i++ {
		assert.Equal(t, i, posts[i].Likes)
	}
}

func TestLikePost_NotFound(t *testing.T) {
	svc, _, pub := newTestService(t)

	_, err := svc.LikePost(context.Background(), 12345)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrPostNotFound))
	assert.Equal(t, 404, models.StatusCode(err))

	events, _ := pub.snapshot()
	assert.Empty(t, events)
}

func TestAddComment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, CreatePostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	updated, err := svc.AddComment(ctx, AddCommentInput{PostID: post.ID, Username: "bob", Comment: "nice"})
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, post.ID, updated.Comments[0].PostID)

	_, err = svc.AddComment(ctx, AddCommentInput{PostID: post.ID, Username: "", Comment: "nice"})
	assert.Equal(t, 400, models.StatusCode(err))

	_, err = svc.AddComment(ctx, AddCommentInput{PostID: post.ID + 1, Username: "bob", Comment: "nice"})
	assert.True(t, errors.Is(err, models.ErrPostNotFound))
}

func TestLikeComment_ByDateAndID(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	post, _ := svc.CreatePost(ctx, CreatePostInput{Title: "t", Content: "c"})
	_, _ = svc.AddComment(ctx, AddCommentInput{PostID: post.ID, Username: "a", Comment: "1"})
	updated, err := svc.AddComment(ctx, AddCommentInput{PostID: post.ID, Username: "b", Comment: "2"})
	require.NoError(t, err)

	first, second := updated.Comments[0], updated.Comments[1]

	liked, err := svc.LikeComment(ctx, post.ID, second.Date)
	require.NoError(t, err)
	assert.Equal(t, 0, liked.Comments[0].Likes)
	assert.Equal(t, 1, liked.Comments[1].Likes)

	liked, err = svc.LikeCommentByID(ctx, post.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Comments[0].Likes)
	assert.Equal(t, 1, liked.Comments[1].Likes)

	_, err = svc.LikeComment(ctx, post.ID, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, models.ErrCommentNotFound))
}

func TestListComments_DisplayOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	post, _ := svc.CreatePost(ctx, CreatePostInput{Title: "t", Content: "c"})
	_, _ = svc.AddComment(ctx, AddCommentInput{PostID: post.ID, Username: "a", Comment: "1"})
	updated, _ := svc.AddComment(ctx, AddCommentInput{PostID: post.ID, Username: "b", Comment: "2"})
	_, err := svc.LikeCommentByID(ctx, post.ID, updated.Comments[0].ID)
	require.NoError(t, err)

	top, err := svc.ListComments(ctx, post.ID, models.CommentOrderTop)
	require.NoError(t, err)
	assert.Equal(t, "a", top[0].Username)

	newest, err := svc.ListComments(ctx, post.ID, models.CommentOrderNewest)
	require.NoError(t, err)
	assert.Equal(t, "b", newest[0].Username)
}

func TestListPosts_Orders(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.CreatePost(ctx, CreatePostInput{Title: "a", Content: "c"})
	b, _ := svc.CreatePost(ctx, CreatePostInput{Title: "b", Content: "c"})
	_, _ = svc.LikePost(ctx, a.ID)

	stored, err := svc.ListPosts(ctx, ListPostsInput{Order: models.PostOrderStored})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, []int64{stored[0].ID, stored[1].ID})

	liked, err := svc.ListPosts(ctx, ListPostsInput{Order: models.PostOrderLikes})
	require.NoError(t, err)
	assert.Equal(t, a.ID, liked[0].ID)

	random, err := svc.ListPosts(ctx, ListPostsInput{Order: models.PostOrderRandom})
	require.NoError(t, err)
	assert.Len(t, random, 2)
}

func TestDeletePost(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	post, _ := svc.CreatePost(ctx, CreatePostInput{Title: "t", Content: "c"})
	_, _ = svc.AddComment(ctx, AddCommentInput{PostID: post.ID, Username: "a", Comment: "1"})

	require.NoError(t, svc.DeletePost(ctx, post.ID))

	_, err := svc.GetPost(ctx, post.ID)
	assert.True(t, errors.Is(err, models.ErrPostNotFound))

	err = svc.DeletePost(ctx, post.ID)
	assert.True(t, errors.Is(err, models.ErrPostNotFound))

	stored, _ := st.Load(ctx)
	assert.Empty(t, stored)

	events, _ := pub.snapshot()
	assert.Equal(t, []string{"updatePost", "updatePost", "deletePost"}, events)
}

func TestStorageFailure_NoPublish(t *testing.T) {
	existing := models.Collection{{ID: 1, Title: "t", Content: "c", Comments: []*models.Comment{}}}
	saveErr := models.NewStorageError(errors.New("disk full"))

	tests := []struct {
		name  string
		store *storeStub
		run   func(*PostService) error
	}{
		{
			name: "load fails on like",
			store: &storeStub{
				loadFn: func(context.Context) (models.Collection, error) {
					return nil, models.NewStorageError(errors.New("read failed"))
				},
				saveFn: func(context.Context, models.Collection) error {
					t.Fatal("save must not run after a failed load")
					return nil
				},
			},
			run: func(s *PostService) error { _, err := s.LikePost(context.Background(), 1); return err },
		},
		{
			name: "save fails on create",
			store: &storeStub{
				loadFn: func(context.Context) (models.Collection, error) { return existing.Clone(), nil },
				saveFn: func(context.Context, models.Collection) error { return saveErr },
			},
			run: func(s *PostService) error {
				_, err := s.CreatePost(context.Background(), CreatePostInput{Title: "t", Content: "c"})
				return err
			},
		},
		{
			name: "save fails on delete",
			store: &storeStub{
				loadFn: func(context.Context) (models.Collection, error) { return existing.Clone(), nil },
				saveFn: func(context.Context, models.Collection) error { return saveErr },
			},
			run: func(s *PostService) error { return s.DeletePost(context.Background(), 1) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := new(MockPublisher)
			svc := NewPostService(tt.store, repository.NewPostRepository(nil), pub)

			err := tt.run(svc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrStorage))
			assert.Equal(t, 500, models.StatusCode(err))

			pub.AssertNotCalled(t, "PostUpdated", mock.Anything, mock.Anything)
			pub.AssertNotCalled(t, "PostDeleted", mock.Anything, mock.Anything)
		})
	}
}

func TestPublishedPostIsDetached(t *testing.T) {
	st := store.NewMemoryStore(nil)
	pub := new(MockPublisher)
	svc := NewPostService(st, repository.NewPostRepository(nil), pub)

	var published *models.Post
	pub.On("PostUpdated", mock.Anything, mock.AnythingOfType("*models.Post")).
		Run(func(args mock.Arguments) { published = args.Get(1).(*models.Post) }).
		Once()

	post, err := svc.CreatePost(context.Background(), CreatePostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.NotNil(t, published)

	assert.Equal(t, post.ID, published.ID)
	assert.NotSame(t, post, published)
	pub.AssertExpectations(t)
}

func TestNilPublisher(t *testing.T) {
	svc := NewPostService(store.NewMemoryStore(nil), repository.NewPostRepository(nil), nil)
	_, err := svc.CreatePost(context.Background(), CreatePostInput{Title: "t", Content: "c"})
	assert.NoError(t, err)
}
