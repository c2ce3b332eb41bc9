// Package markdown converts post bodies submitted as Markdown into the HTML
// the blog store persists.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Format names accepted from the admin forms.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
		extension.Strikethrough,
		extension.Table,
	),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	// Post bodies come from the admin only and may embed raw HTML.
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// Render returns the HTML for src.
func Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// ToHTML renders content according to format. HTML (or an empty format) is
// returned unchanged.
func ToHTML(content, format string) (string, error) {
	switch format {
	case "", FormatHTML:
		return content, nil
	case FormatMarkdown:
		return Render(content)
	default:
		return "", fmt.Errorf("unknown content format %q", format)
	}
}
