package reconciler

import (
	"github.com/jamesrr39/ownmap-stylesync/livestyle"
)

// LayerNode is a declared layer: the native layer to materialize plus where to put it.
type LayerNode struct {
	Layer  livestyle.Layer
	Anchor Anchor
	added  bool
}

func NewLayerNode(layer livestyle.Layer, anchor Anchor) *LayerNode {
	return &LayerNode{Layer: layer, Anchor: anchor}
}

func (n *LayerNode) ID() string {
	return n.Layer.LayerID()
}

// IsAdded reports whether the layer is currently materialized in the live style
func (n *LayerNode) IsAdded() bool {
	return n.added
}
