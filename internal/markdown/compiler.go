// Package markdown compiles entity bodies to HTML.
//
// The compiler is a goldmark pipeline with GFM, footnotes and syntax
// highlighting, plus AST transformers that add heading anchors, mark
// external links, lazy-load images and wrap titled images in figures. The
// table of contents is collected from the same parse and returned next to
// the HTML.
package markdown

import (
	"bytes"
	"unicode/utf8"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
)

// Options configures a Compiler.
type Options struct {
	// HighlightStyle is a chroma style name. Empty uses "github".
	HighlightStyle string
	LineNumbers    bool
	// SiteHost is the host considered internal when classifying links.
	SiteHost string
	// HeadingLinks appends a self link to every heading with an id.
	HeadingLinks bool
}

// DefaultOptions matches the site's production settings.
func DefaultOptions() Options {
	return Options{HighlightStyle: "github", HeadingLinks: true}
}

// Document is the result of compiling one Markdown body.
type Document struct {
	HTML  string     `json:"html"`
	Toc   []TocEntry `json:"toc"`
	Links []Link     `json:"-"`
}

// Compiler turns Markdown into HTML. It is safe for concurrent use.
type Compiler struct {
	md   goldmark.Markdown
	opts Options
}

// New builds a compiler.
func New(opts Options) *Compiler {
	if opts.HighlightStyle == "" {
		opts.HighlightStyle = "github"
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(opts.HighlightStyle),
				highlighting.WithFormatOptions(chromahtml.WithLineNumbers(opts.LineNumbers)),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&documentTransformer{opts: opts}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&figureRenderer{}, 500)),
		),
	)
	return &Compiler{md: md, opts: opts}
}

// Compile renders src. Invalid UTF-8 and renderer failures are returned as
// compile errors.
func (c *Compiler) Compile(src []byte) (*Document, error) {
	if !utf8.Valid(src) {
		return nil, ferrors.CompileError("markdown source is not valid UTF-8").Build()
	}

	pc := parser.NewContext()
	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf, parser.WithContext(pc)); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryCompile, "markdown conversion failed").Fatal().Build()
	}

	doc := &Document{HTML: buf.String(), Toc: []TocEntry{}}
	if toc, ok := pc.Get(tocKey).([]TocEntry); ok && toc != nil {
		doc.Toc = toc
	}
	if links, ok := pc.Get(linksKey).([]Link); ok {
		doc.Links = links
	}
	return doc, nil
}

// CompileString is Compile for string input.
func (c *Compiler) CompileString(src string) (*Document, error) {
	return c.Compile([]byte(src))
}
