package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// KindFigure is the node kind of Figure.
var KindFigure = ast.NewNodeKind("Figure")

// Figure wraps an image that stood alone in its paragraph and carried a
// title. The title becomes the caption.
type Figure struct {
	ast.BaseBlock
	Caption []byte
}

func (n *Figure) Kind() ast.NodeKind { return KindFigure }

func (n *Figure) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Caption": string(n.Caption)}, nil)
}

type figureRenderer struct{}

func (r *figureRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindFigure, r.renderFigure)
}

func (r *figureRenderer) renderFigure(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<figure>")
		return ast.WalkContinue, nil
	}
	fig := node.(*Figure)
	_, _ = w.WriteString("<figcaption>")
	_, _ = w.Write(util.EscapeHTML(fig.Caption))
	_, _ = w.WriteString("</figcaption></figure>\n")
	return ast.WalkContinue, nil
}
