package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dfryer1193/portfolio/blog/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ domain.PostRepository = (*MemoryPostRepository)(nil)

// MemoryPostRepository keeps posts in process memory. It issues and validates ids exactly like
// the MongoDB repository, so callers see the same not-found and invalid-id behaviour.
// Contents are lost on restart; it is meant for local development and tests.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts []*domain.Post
	byID  map[string]*domain.Post

	// InsertErr, when set, is returned by InsertPost instead of storing anything
	InsertErr error
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		byID: make(map[string]*domain.Post),
	}
}

func (r *MemoryPostRepository) ListPosts(ctx context.Context, page int, pageSize int) ([]*domain.Post, int64, error) {
	if pageSize <= 0 {
		return nil, 0, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	if page < 1 {
		page = 1
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	total := int64(len(r.posts))
	start := int64(page-1) * int64(pageSize)
	posts := make([]*domain.Post, 0)
	if start >= total {
		return posts, total, nil
	}

	end := start + int64(pageSize)
	if end > total {
		end = total
	}
	for _, p := range r.posts[start:end] {
		posts = append(posts, clonePost(p))
	}

	return posts, total, nil
}

func (r *MemoryPostRepository) CountPosts(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.posts)), nil
}

func (r *MemoryPostRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPostID, id)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
	}
	return clonePost(p), nil
}

func (r *MemoryPostRepository) InsertPost(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	if p == nil {
		return nil, fmt.Errorf("post cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.InsertErr != nil {
		return nil, r.InsertErr
	}

	stored := clonePost(p)
	stored.ID = primitive.NewObjectID().Hex()
	stored.UploadDate = stored.UploadDate.UTC().Truncate(time.Millisecond)

	r.posts = append(r.posts, stored)
	r.byID[stored.ID] = stored
	sort.SliceStable(r.posts, func(i, j int) bool {
		return r.posts[i].UploadDate.After(r.posts[j].UploadDate)
	})

	return clonePost(stored), nil
}

func (r *MemoryPostRepository) Ping(ctx context.Context) error {
	return nil
}

func clonePost(p *domain.Post) *domain.Post {
	c := *p
	c.Tags = append([]string{}, p.Tags...)
	return &c
}
