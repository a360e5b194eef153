package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
)

// TocEntry is one heading in the table of contents. Deeper headings nest
// under the closest preceding shallower one.
type TocEntry struct {
	Value    string     `json:"value"`
	Depth    int        `json:"depth"`
	ID       string     `json:"id,omitempty"`
	Children []TocEntry `json:"children,omitempty"`
}

type flatHeading struct {
	value string
	depth int
	id    string
}

// nestHeadings builds the tree from headings in document order.
func nestHeadings(flat []flatHeading) []TocEntry {
	var build func(i, parentDepth int) ([]TocEntry, int)
	build = func(i, parentDepth int) ([]TocEntry, int) {
		var out []TocEntry
		for i < len(flat) && flat[i].depth > parentDepth {
			h := flat[i]
			entry := TocEntry{Value: h.value, Depth: h.depth, ID: h.id}
			entry.Children, i = build(i+1, h.depth)
			out = append(out, entry)
		}
		return out, i
	}
	toc, _ := build(0, 0)
	return toc
}

// plainText concatenates the text content below n.
func plainText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func headingID(h *ast.Heading) string {
	v, ok := h.AttributeString("id")
	if !ok {
		return ""
	}
	switch id := v.(type) {
	case []byte:
		return string(id)
	case string:
		return id
	}
	return ""
}
