package application

import (
	"net/url"
	"strings"

	"github.com/dfryer1193/portfolio/blog/domain"
)

const (
	FallbackTitle       = "Blog not found"
	FallbackDescription = "The requested blog post could not be found."
)

// PostMetadata is what a post exposes to link previews (page title, OpenGraph, Twitter cards)
type PostMetadata struct {
	Found       bool
	Title       string
	Description string
	// URL is the canonical page URL; empty when no site URL is configured
	URL   string
	Image string
}

// NewPostMetadata builds preview metadata for post. A nil post yields the generic fallback.
func NewPostMetadata(post *domain.Post, siteURL string) PostMetadata {
	if post == nil {
		return PostMetadata{
			Title:       FallbackTitle,
			Description: FallbackDescription,
		}
	}

	meta := PostMetadata{
		Found:       true,
		Title:       post.Title,
		Description: post.Description,
		Image:       post.ImageURL,
	}
	if siteURL = strings.TrimRight(siteURL, "/"); siteURL != "" {
		meta.URL = siteURL + "/blogs/" + url.PathEscape(post.ID)
	}

	return meta
}
