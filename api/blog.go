package api

import "time"

type Blog struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Content     string    `json:"content"`
	ImageURL    string    `json:"imageUrl"`
	UploadDate  time.Time `json:"uploadDate"`
}

type ListBlogsResponse struct {
	Blogs      []Blog `json:"blogs"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	TotalPages int64  `json:"totalPages"`
}

type CreateBlogResponse struct {
	Success bool   `json:"success"`
	BlogID  string `json:"blogId"`
	Blog    Blog   `json:"blog"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Metadata is the link-preview description of a post page
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
	Image       string `json:"image,omitempty"`
	Found       bool   `json:"found"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
