package markdown

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	tocKey   = parser.NewContextKey()
	linksKey = parser.NewContextKey()
)

// LinkKind classifies a link found in a compiled document.
type LinkKind string

const (
	LinkInternal LinkKind = "internal"
	LinkExternal LinkKind = "external"
	LinkAnchor   LinkKind = "anchor"
	LinkImage    LinkKind = "image"
)

// Link is a destination referenced by a document.
type Link struct {
	Kind        LinkKind
	Destination string
}

// documentTransformer runs once per parse. It records the table of
// contents and outgoing links, then rewrites the tree for rendering.
type documentTransformer struct {
	opts Options
}

func (t *documentTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	src := reader.Source()

	var (
		headings []*ast.Heading
		flat     []flatHeading
		links    []Link
		figures  []*ast.Paragraph
	)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			headings = append(headings, node)
			flat = append(flat, flatHeading{value: plainText(node, src), depth: node.Level, id: headingID(node)})
		case *ast.Link:
			kind := t.classify(string(node.Destination))
			links = append(links, Link{Kind: kind, Destination: string(node.Destination)})
			if kind == LinkExternal {
				markExternal(node)
			}
		case *ast.AutoLink:
			dest := string(node.URL(src))
			if node.AutoLinkType == ast.AutoLinkEmail {
				links = append(links, Link{Kind: LinkExternal, Destination: "mailto:" + dest})
				break
			}
			kind := t.classify(dest)
			links = append(links, Link{Kind: kind, Destination: dest})
			if kind == LinkExternal {
				markExternal(node)
			}
		case *ast.Image:
			links = append(links, Link{Kind: LinkImage, Destination: string(node.Destination)})
			node.SetAttributeString("loading", []byte("lazy"))
			node.SetAttributeString("decoding", []byte("async"))
		case *ast.Paragraph:
			if img, ok := node.FirstChild().(*ast.Image); ok && node.ChildCount() == 1 && len(img.Title) > 0 {
				figures = append(figures, node)
			}
		}
		return ast.WalkContinue, nil
	})

	pc.Set(tocKey, nestHeadings(flat))
	pc.Set(linksKey, links)

	for _, p := range figures {
		wrapFigure(p)
	}
	if t.opts.HeadingLinks {
		for _, h := range headings {
			appendHeadingLink(h)
		}
	}
}

func (t *documentTransformer) classify(dest string) LinkKind {
	if strings.HasPrefix(dest, "#") {
		return LinkAnchor
	}
	u, err := url.Parse(dest)
	if err != nil || u.Host == "" {
		return LinkInternal
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return LinkExternal
	}
	if t.opts.SiteHost != "" && strings.EqualFold(u.Hostname(), t.opts.SiteHost) {
		return LinkInternal
	}
	return LinkExternal
}

func markExternal(n ast.Node) {
	n.SetAttributeString("rel", []byte("noopener noreferrer"))
	n.SetAttributeString("target", []byte("_blank"))
}

func appendHeadingLink(h *ast.Heading) {
	id := headingID(h)
	if id == "" {
		return
	}
	link := ast.NewLink()
	link.Destination = []byte("#" + id)
	link.SetAttributeString("class", []byte("heading-link"))
	link.AppendChild(link, ast.NewString([]byte("#")))
	h.AppendChild(h, link)
}

func wrapFigure(p *ast.Paragraph) {
	img := p.FirstChild().(*ast.Image)
	fig := &Figure{Caption: append([]byte(nil), img.Title...)}
	parent := p.Parent()
	if parent == nil {
		return
	}
	parent.ReplaceChild(parent, p, fig)
	p.RemoveChild(p, img)
	fig.AppendChild(fig, img)
}
