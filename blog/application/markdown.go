package application

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/dfryer1193/blogo/blog/domain"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const untitledPost = "Untitled Post"

// relativeLinkTransformer points relative links and images at the public blog.
// Links to markdown files become links to the post they define.
type relativeLinkTransformer struct {
	baseURL string
}

func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Image:
			if dest := string(v.Destination); isRelativeLink(dest) {
				v.Destination = []byte(t.baseURL + "/images/" + path.Base(dest))
			}
		case *ast.Link:
			if dest := string(v.Destination); isRelativeLink(dest) {
				v.Destination = []byte(t.linkTarget(dest))
			}
		}

		return ast.WalkContinue, nil
	})
}

func (t *relativeLinkTransformer) linkTarget(dest string) string {
	if strings.HasSuffix(dest, ".md") {
		return t.baseURL + (&domain.Post{Slug: slugFromPostPath(dest)}).AbsoluteURL()
	}
	return t.baseURL + path.Clean("/"+strings.TrimSuffix(dest, ".html"))
}

func isRelativeLink(dest string) bool {
	if strings.HasPrefix(dest, "#") {
		return false
	}

	if strings.HasPrefix(dest, "/") {
		return !strings.HasPrefix(dest, "//")
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	return !strings.Contains(dest, ":")
}

// MarkdownRenderer converts post content to HTML fragments.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer builds a renderer resolving relative links against baseURL.
func NewMarkdownRenderer(baseURL string) *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&relativeLinkTransformer{baseURL: strings.TrimSuffix(baseURL, "/")}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	return &MarkdownRenderer{md: md}
}

// Render converts markdown to HTML. Empty input renders to the empty string.
func (r *MarkdownRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return buf.String(), nil
}

// RenderFunc adapts the renderer to domain.RenderFunc. Conversion errors are logged
// and produce an empty fragment.
func (r *MarkdownRenderer) RenderFunc() domain.RenderFunc {
	return func(text string) string {
		out, err := r.Render(text)
		if err != nil {
			log.Error().Err(err).Int("length", len(text)).Msg("Failed to render content")
			return ""
		}
		return out
	}
}

// ExtractTitle returns the text of a leading "# " heading, or "Untitled Post".
func ExtractTitle(markdown string) string {
	firstLine, _, _ := strings.Cut(markdown, "\n")
	title, found := strings.CutPrefix(strings.TrimSpace(firstLine), "# ")
	if !found || strings.TrimSpace(title) == "" {
		return untitledPost
	}

	return strings.TrimSpace(title)
}

// StripTitle removes a leading "# " heading and the blank lines after it.
func StripTitle(markdown string) string {
	firstLine, rest, _ := strings.Cut(markdown, "\n")
	if !strings.HasPrefix(strings.TrimSpace(firstLine), "# ") {
		return markdown
	}
	return strings.TrimLeft(rest, "\r\n")
}
