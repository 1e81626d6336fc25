package transform

import (
	"github.com/yuin/goldmark/renderer"
)

// BlockRenderer writes code and diagram nodes into HTML output.
type BlockRenderer struct{}

// NewBlockRenderer returns a renderer for the nodes produced by
// ClassifyTransformer.
func NewBlockRenderer() renderer.NodeRenderer {
	return &BlockRenderer{}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *BlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindCodeBlock, r.renderCodeBlock)
	reg.Register(KindPlainCodeBlock, r.renderPlainCodeBlock)
	reg.Register(KindDiagramBlock, r.renderDiagramBlock)
}
