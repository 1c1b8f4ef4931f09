package domain

import (
	"context"
	"time"
)

// Post represents a blog post.
// Posts are append-only: the store assigns the ID on insert and nothing mutates or removes a
// post afterwards. UploadDate is set by the server and is the only sort key for listings.
type Post struct {
	ID          string
	Title       string
	Description string
	Tags        []string
	Content     string
	ImageURL    string
	UploadDate  time.Time
}

// PostPage is one window of posts, newest first, along with the counts needed to page through
// the rest.
type PostPage struct {
	Posts      []*Post
	Total      int64
	Page       int
	TotalPages int64
}

type PostRepository interface {
	// ListPosts returns the posts on the given 1-indexed page, ordered by UploadDate descending,
	// together with the total number of posts. A page past the end yields an empty slice.
	ListPosts(ctx context.Context, page int, pageSize int) ([]*Post, int64, error)
	CountPosts(ctx context.Context) (int64, error)

	// GetPost returns ErrInvalidPostID when id is not in the store's native format and
	// ErrPostNotFound when no post has that id.
	GetPost(ctx context.Context, id string) (*Post, error)

	// InsertPost persists p and returns the stored post, including its generated ID.
	InsertPost(ctx context.Context, p *Post) (*Post, error)
}
