// Package templates provides the template engine capability used to render
// pages, and the cache that compiles each template file once.
//
// An Engine turns template source into a RenderFunc, a pure function from a
// data map to output text. HTMLEngine uses html/template; MarkdownEngine runs
// text/template and converts the result with goldmark; ExtEngine picks one by
// file extension.
package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/pagegen/internal/markdown"
)

// RenderFunc renders a compiled template with data.
type RenderFunc func(data map[string]any) (string, error)

// CompileOptions accompany template source.
type CompileOptions struct {
	// FilePath names the template, for error messages and extension dispatch.
	FilePath string
	// Options carries engine-specific settings.
	Options map[string]any
}

// Engine compiles template source.
type Engine interface {
	Compile(source string, opts CompileOptions) (RenderFunc, error)
}

// Funcs are available to every template.
func Funcs() map[string]any {
	return map[string]any{
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
		"join":  strings.Join,
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}

// HTMLEngine compiles html/template sources.
type HTMLEngine struct{}

// Compile implements Engine.
func (HTMLEngine) Compile(source string, opts CompileOptions) (RenderFunc, error) {
	tpl, err := template.New(nameOf(opts)).Funcs(Funcs()).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", opts.FilePath, err)
	}
	return func(data map[string]any) (string, error) {
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("render template %s: %w", opts.FilePath, err)
		}
		return buf.String(), nil
	}, nil
}

// MarkdownEngine executes text/template over Markdown source, then converts
// the result to HTML. Option "unsafe": true lets raw HTML through.
type MarkdownEngine struct{}

// Compile implements Engine.
func (MarkdownEngine) Compile(source string, opts CompileOptions) (RenderFunc, error) {
	tpl, err := texttemplate.New(nameOf(opts)).Funcs(Funcs()).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", opts.FilePath, err)
	}
	unsafe, _ := opts.Options["unsafe"].(bool)
	var md goldmark.Markdown = markdown.New(markdown.Options{Unsafe: unsafe})

	return func(data map[string]any) (string, error) {
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, data); err != nil {
			return "", fmt.Errorf("render template %s: %w", opts.FilePath, err)
		}
		return markdown.ToHTML(md, buf.Bytes())
	}, nil
}

// ExtEngine dispatches on the template file extension.
type ExtEngine struct {
	ByExt   map[string]Engine
	Default Engine
}

// DefaultEngine handles .md with MarkdownEngine and everything else with
// HTMLEngine.
func DefaultEngine() *ExtEngine {
	return &ExtEngine{
		ByExt: map[string]Engine{
			".md":       MarkdownEngine{},
			".markdown": MarkdownEngine{},
		},
		Default: HTMLEngine{},
	}
}

// Compile implements Engine.
func (e *ExtEngine) Compile(source string, opts CompileOptions) (RenderFunc, error) {
	ext := strings.ToLower(filepath.Ext(opts.FilePath))
	if eng, ok := e.ByExt[ext]; ok {
		return eng.Compile(source, opts)
	}
	if e.Default == nil {
		return nil, fmt.Errorf("no template engine for %q", opts.FilePath)
	}
	return e.Default.Compile(source, opts)
}

func nameOf(opts CompileOptions) string {
	if opts.FilePath == "" {
		return "page"
	}
	return filepath.Base(opts.FilePath)
}
