package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/dfryer1193/portfolio/internal/metrics"
	"github.com/rs/zerolog/log"
)

const (
	// PageSize is the fixed number of posts per listing page
	PageSize = 100

	discardTimeout = 10 * time.Second
)

// NewPost is the author's input for a new post, before any server-side processing
type NewPost struct {
	Title       string
	Description string
	// Tags is the raw comma separated tag string
	Tags    string
	Content string
	Format  ContentFormat

	// Image is the optional cover image; nil when none was submitted
	Image *domain.Image
}

type PostService struct {
	repo     domain.PostRepository
	media    domain.MediaUploader
	markdown MarkdownRenderer

	now func() time.Time
}

// NewPostService wires the service. media may be nil, in which case creating a post with an
// image fails with domain.ErrUploadFailed.
func NewPostService(repo domain.PostRepository, media domain.MediaUploader, markdown MarkdownRenderer) *PostService {
	return &PostService{
		repo:     repo,
		media:    media,
		markdown: markdown,
		now:      time.Now,
	}
}

// ListPosts returns a page of posts, newest first. Pages below 1 are treated as 1.
func (s *PostService) ListPosts(ctx context.Context, page int) (*domain.PostPage, error) {
	if page < 1 {
		page = 1
	}

	posts, total, err := s.repo.ListPosts(ctx, page, PageSize)
	if err != nil {
		return nil, fmt.Errorf("could not list posts for page %d: %w", page, err)
	}

	return &domain.PostPage{
		Posts:      posts,
		Total:      total,
		Page:       page,
		TotalPages: TotalPages(total, PageSize),
	}, nil
}

// GetPost resolves a single post. The repository's distinction between a malformed id and a
// missing post is preserved in the returned error.
func (s *PostService) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not get post %q: %w", id, err)
	}
	return post, nil
}

// CreatePost uploads the cover image if there is one and then persists the post.
// Nothing is persisted if the upload fails. If the insert fails after a successful upload,
// the upload is discarded so it is not left without an owning post.
func (s *PostService) CreatePost(ctx context.Context, in *NewPost) (*domain.Post, error) {
	content := in.Content
	if in.Format == FormatMarkdown {
		rendered, err := s.markdown.Render([]byte(in.Content))
		if err != nil {
			return nil, err
		}
		content = string(rendered)
	}

	var uploaded *domain.UploadedImage
	if in.Image != nil {
		var err error
		uploaded, err = s.uploadImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
	}

	post := &domain.Post{
		Title:       in.Title,
		Description: in.Description,
		Tags:        SplitTags(in.Tags),
		Content:     content,
		UploadDate:  s.now().UTC(),
	}
	if uploaded != nil {
		post.ImageURL = uploaded.URL
	}

	stored, err := s.repo.InsertPost(ctx, post)
	if err != nil {
		if uploaded != nil {
			s.discardUpload(ctx, uploaded)
		}
		return nil, fmt.Errorf("could not insert post: %w", err)
	}

	metrics.PostsCreated.Inc()
	log.Info().Str("postID", stored.ID).Bool("image", uploaded != nil).Msg("Created post")

	return stored, nil
}

func (s *PostService) uploadImage(ctx context.Context, img *domain.Image) (*domain.UploadedImage, error) {
	if s.media == nil {
		metrics.ImageUploads.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: no media backend configured", domain.ErrUploadFailed)
	}

	uploaded, err := s.media.Upload(ctx, img)
	if err != nil {
		metrics.ImageUploads.WithLabelValues("failed").Inc()
		if !errors.Is(err, domain.ErrUploadFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
		}
		return nil, err
	}

	metrics.ImageUploads.WithLabelValues("ok").Inc()
	return uploaded, nil
}

// discardUpload is best-effort; the caller's error is what gets reported either way
func (s *PostService) discardUpload(ctx context.Context, img *domain.UploadedImage) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()

	if err := s.media.Discard(dctx, img); err != nil {
		metrics.OrphanedUploads.WithLabelValues("leaked").Inc()
		log.Error().Err(err).Str("url", img.URL).Msg("Failed to discard orphaned upload")
		return
	}

	metrics.OrphanedUploads.WithLabelValues("discarded").Inc()
	log.Warn().Str("url", img.URL).Msg("Discarded upload after failed insert")
}

// SplitTags splits a comma separated tag string and trims each token.
// Empty tokens are kept, so "a," yields ["a", ""] and "" yields [""].
func SplitTags(raw string) []string {
	tags := strings.Split(raw, ",")
	for i, t := range tags {
		tags[i] = strings.TrimSpace(t)
	}
	return tags
}

// TotalPages is ceil(total / pageSize), and 0 when there are no posts
func TotalPages(total int64, pageSize int) int64 {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	return (total + size - 1) / size
}
