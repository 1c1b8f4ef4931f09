package rest

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

func loadTemplates() (*template.Template, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return tmpl, nil
}

func NewApi(router *gin.Engine, blogs *BlogHandler) error {
	tmpl, err := loadTemplates()
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/healthz", blogs.Health)

	blogsGroup := router.Group("/blogs", blogs.requireConfig)
	{
		blogsGroup.GET("", blogs.ListBlogs)
		blogsGroup.POST("", blogs.CreateBlog)
		blogsGroup.GET("/:id", blogs.GetBlogPage)
		blogsGroup.GET("/:id/metadata", blogs.GetBlogMetadata)
	}

	return nil
}
