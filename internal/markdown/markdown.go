// Package markdown converts Markdown page bodies to HTML.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Options controls Markdown conversion.
type Options struct {
	// Unsafe lets raw HTML in the source through to the output.
	Unsafe bool
}

// New returns a goldmark converter configured with GFM extensions.
func New(opts Options) goldmark.Markdown {
	rendererOpts := []goldmark.Option{
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return goldmark.New(rendererOpts...)
}

// ToHTML converts a Markdown body to HTML.
func ToHTML(md goldmark.Markdown, body []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
