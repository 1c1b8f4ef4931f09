package application

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ContentFormat names the markup a post body was submitted in
type ContentFormat string

const (
	FormatHTML     ContentFormat = "html"
	FormatMarkdown ContentFormat = "markdown"
)

// ParseContentFormat maps a form value to a ContentFormat. Anything unrecognised is HTML,
// which is stored verbatim.
func ParseContentFormat(v string) ContentFormat {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "markdown", "md":
		return FormatMarkdown
	default:
		return FormatHTML
	}
}

// rootLinkTransformer turns root-relative links and images into absolute URLs on the site, so
// that content still resolves when it is shown somewhere other than the site itself.
type rootLinkTransformer struct {
	siteURL string
}

func (t *rootLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Link:
			if isRootRelative(string(v.Destination)) {
				v.Destination = []byte(t.siteURL + string(v.Destination))
			}
		case *ast.Image:
			if isRootRelative(string(v.Destination)) {
				v.Destination = []byte(t.siteURL + string(v.Destination))
			}
		}

		return ast.WalkContinue, nil
	})
}

func isRootRelative(dest string) bool {
	return strings.HasPrefix(dest, "/") && !strings.HasPrefix(dest, "//")
}

// MarkdownRenderer defines the interface for converting markdown to HTML.
type MarkdownRenderer interface {
	Render(markdown []byte) ([]byte, error)
}

type MarkdownRendererImpl struct {
	renderer goldmark.Markdown
}

// NewMarkdownRenderer builds a GFM renderer. Raw HTML in the source is passed through, since
// post bodies are author-controlled. When siteURL is set, root-relative links are made
// absolute against it.
func NewMarkdownRenderer(siteURL string) MarkdownRenderer {
	parserOpts := []parser.Option{parser.WithAutoHeadingID()}
	if siteURL = strings.TrimRight(siteURL, "/"); siteURL != "" {
		parserOpts = append(parserOpts, parser.WithASTTransformers(
			util.Prioritized(&rootLinkTransformer{siteURL: siteURL}, 100),
		))
	}

	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	return &MarkdownRendererImpl{
		renderer: renderer,
	}
}

func (r *MarkdownRendererImpl) Render(markdown []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.renderer.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return buf.Bytes(), nil
}
