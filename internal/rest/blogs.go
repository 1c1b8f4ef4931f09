package rest

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/dfryer1193/portfolio/api"
	"github.com/dfryer1193/portfolio/blog/application"
	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	msgConfigMissing    = "Environment variables not set"
	msgUploadFailed     = "Image upload failed"
	msgInsertFailed     = "Failed to insert blog"
	msgListFailed       = "Failed to fetch blogs"
	msgGetFailed        = "Failed to fetch blog"
	msgStoreUnavailable = "Database unavailable"
)

type PostService interface {
	ListPosts(ctx context.Context, page int) (*domain.PostPage, error)
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	CreatePost(ctx context.Context, in *application.NewPost) (*domain.Post, error)
}

// HealthChecker reports whether the content store can be reached
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Options struct {
	// SiteURL is the public base URL used for canonical and OpenGraph links
	SiteURL string

	// ConfigErr is the startup validation failure of the content store configuration.
	// When set, every blog route answers with the fixed configuration error and the store is
	// never contacted.
	ConfigErr error
}

type BlogHandler struct {
	posts     PostService
	health    HealthChecker
	siteURL   string
	configErr error
}

func NewBlogHandler(posts PostService, health HealthChecker, opts Options) *BlogHandler {
	return &BlogHandler{
		posts:     posts,
		health:    health,
		siteURL:   opts.SiteURL,
		configErr: opts.ConfigErr,
	}
}

func (h *BlogHandler) requireConfig(c *gin.Context) {
	if h.configErr != nil || h.posts == nil {
		log.Error().Err(h.configErr).Str("path", c.Request.URL.Path).Msg("Blog route called without store configuration")
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Error: msgConfigMissing})
		return
	}
	c.Next()
}

// ListBlogs handles GET /blogs?page=N. A missing, non-numeric or non-positive page is page 1.
func (h *BlogHandler) ListBlogs(c *gin.Context) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.posts.ListPosts(c.Request.Context(), page)
	if err != nil {
		log.Error().Err(err).Int("page", page).Msg("Failed to list posts")
		if errors.Is(err, domain.ErrStoreUnavailable) {
			c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: msgStoreUnavailable})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: msgListFailed})
		return
	}

	blogs := make([]api.Blog, 0, len(result.Posts))
	for _, p := range result.Posts {
		blogs = append(blogs, toBlog(p))
	}

	c.JSON(http.StatusOK, api.ListBlogsResponse{
		Blogs:      blogs,
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	})
}

// CreateBlog handles the multipart POST /blogs. Missing text fields are stored as empty
// strings; only a failed upload or a failed insert is an error.
func (h *BlogHandler) CreateBlog(c *gin.Context) {
	in := &application.NewPost{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Tags:        c.PostForm("tags"),
		Content:     c.PostForm("content"),
		Format:      application.ParseContentFormat(c.PostForm("format")),
	}

	img, err := readImage(c)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read image from request")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: msgUploadFailed})
		return
	}
	in.Image = img

	post, err := h.posts.CreatePost(c.Request.Context(), in)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create post")
		if errors.Is(err, domain.ErrUploadFailed) {
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: msgUploadFailed})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: msgInsertFailed})
		return
	}

	c.JSON(http.StatusOK, api.CreateBlogResponse{
		Success: true,
		BlogID:  post.ID,
		Blog:    toBlog(post),
	})
}

// readImage returns the optional "image" file part, or nil when the request has none
func readImage(c *gin.Context) (*domain.Image, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse image part: %w", err)
	}

	content, err := readFileHeader(fh)
	if err != nil {
		return nil, err
	}

	return &domain.Image{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open image part: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image part: %w", err)
	}
	return content, nil
}

type postPage struct {
	Meta    application.PostMetadata
	Post    *domain.Post
	Content template.HTML
}

// GetBlogPage handles GET /blogs/:id, rendering the post as an HTML page. Malformed and
// unknown ids both render the not-found page.
func (h *BlogHandler) GetBlogPage(c *gin.Context) {
	id := c.Param("id")

	post, err := h.posts.GetPost(c.Request.Context(), id)
	if err != nil {
		fallback := postPage{Meta: application.NewPostMetadata(nil, h.siteURL)}
		if isNotFound(err) {
			log.Debug().Err(err).Str("postID", id).Msg("Post not found")
			c.HTML(http.StatusNotFound, "not_found.html", fallback)
			return
		}

		log.Error().Err(err).Str("postID", id).Msg("Failed to load post")
		c.HTML(storeErrorStatus(err), "error.html", fallback)
		return
	}

	c.HTML(http.StatusOK, "post.html", postPage{
		Meta: application.NewPostMetadata(post, h.siteURL),
		Post: post,
		// Post bodies are author-supplied HTML and are rendered as-is
		Content: template.HTML(post.Content),
	})
}

// GetBlogMetadata handles GET /blogs/:id/metadata, the link-preview description of a post
func (h *BlogHandler) GetBlogMetadata(c *gin.Context) {
	id := c.Param("id")

	post, err := h.posts.GetPost(c.Request.Context(), id)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, toMetadata(application.NewPostMetadata(nil, h.siteURL)))
			return
		}

		log.Error().Err(err).Str("postID", id).Msg("Failed to load post metadata")
		status := storeErrorStatus(err)
		msg := msgGetFailed
		if status == http.StatusServiceUnavailable {
			msg = msgStoreUnavailable
		}
		c.JSON(status, api.ErrorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusOK, toMetadata(application.NewPostMetadata(post, h.siteURL)))
}

// Health handles GET /healthz
func (h *BlogHandler) Health(c *gin.Context) {
	if h.configErr != nil || h.health == nil {
		c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "unconfigured"})
		return
	}

	if err := h.health.Ping(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "unavailable"})
		return
	}

	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrPostNotFound) || errors.Is(err, domain.ErrInvalidPostID)
}

func storeErrorStatus(err error) int {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func toBlog(p *domain.Post) api.Blog {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	return api.Blog{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Tags:        tags,
		Content:     p.Content,
		ImageURL:    p.ImageURL,
		UploadDate:  p.UploadDate,
	}
}

func toMetadata(m application.PostMetadata) api.Metadata {
	return api.Metadata{
		Title:       m.Title,
		Description: m.Description,
		URL:         m.URL,
		Image:       m.Image,
		Found:       m.Found,
	}
}
