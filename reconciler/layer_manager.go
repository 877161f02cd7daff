package reconciler

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/livestyle"
)

type replaceState struct {
	hiddenOriginal livestyle.Layer
	occupancy      int
}

// LayerManager keeps the declared layers in declared order and materializes them in the live style.
//
// Declared layers are grouped by anchor. Within a group, a layer declared earlier sits lower in the
// live style. Layers are only added to the live style in ApplyChanges; removals happen immediately.
type LayerManager struct {
	logger         *logpkg.Logger
	style          livestyle.Style
	baseLayerIDs   map[string]bool
	declaredLayers []*LayerNode
	declaredIDs    map[string]*LayerNode
	// keyed by the ID of the replaced base layer
	replaced map[string]*replaceState
}

func NewLayerManager(logger *logpkg.Logger, style livestyle.Style, baseLayers []livestyle.Layer) *LayerManager {
	m := &LayerManager{
		logger:       logger,
		style:        style,
		baseLayerIDs: make(map[string]bool),
		declaredIDs:  make(map[string]*LayerNode),
		replaced:     make(map[string]*replaceState),
	}

	for _, layer := range baseLayers {
		m.baseLayerIDs[layer.LayerID()] = true
	}

	return m
}

func (m *LayerManager) IsBaseLayer(id string) bool {
	return m.baseLayerIDs[id]
}

// DeclaredLayers returns the declared layers in declared order
func (m *LayerManager) DeclaredLayers() []*LayerNode {
	nodes := make([]*LayerNode, len(m.declaredLayers))
	copy(nodes, m.declaredLayers)
	return nodes
}

// AddLayer declares node at index in the declared order. The layer is materialized by the next ApplyChanges.
func (m *LayerManager) AddLayer(node *LayerNode, index int) errorsx.Error {
	id := node.ID()
	if m.baseLayerIDs[id] {
		return errorsx.Wrap(ErrIDCollision, "layerID", id, "reason", "id belongs to a base layer")
	}

	if _, ok := m.declaredIDs[id]; ok {
		return errorsx.Wrap(ErrIDCollision, "layerID", id, "reason", "a layer with this id is already declared")
	}

	err := m.validateAnchor(node.Anchor)
	if err != nil {
		return errorsx.Wrap(err, "layerID", id)
	}

	if index < 0 || index > len(m.declaredLayers) {
		return errorsx.Wrap(ErrInvalidIndex, "layerID", id, "index", index, "declaredLayerCount", len(m.declaredLayers))
	}

	node.added = false
	m.insertDeclared(node, index)
	m.declaredIDs[id] = node

	return nil
}

// RemoveLayer removes the node declared at index, and takes it out of the live style if it was materialized.
// If it was the last layer occupying a replace anchor, the replaced base layer is put back where the node was.
func (m *LayerManager) RemoveLayer(node *LayerNode, index int) errorsx.Error {
	m.mustBeDeclaredAt(node, index)

	m.removeDeclared(index)
	delete(m.declaredIDs, node.ID())

	if !node.added {
		return nil
	}

	if node.Anchor.Type == AnchorTypeReplace {
		err := m.releaseReplaceOccupant(node)
		if err != nil {
			return errorsx.Wrap(err)
		}
	}

	err := m.style.RemoveLayer(node.Layer)
	if err != nil {
		return errorsx.Wrap(err, "layerID", node.ID())
	}

	m.logger.Debug("removed layer %q (anchor %s)", node.ID(), node.Anchor)
	node.added = false

	return nil
}

// MoveLayer moves node from oldIndex to newIndex of the declared order.
// It is a RemoveLayer followed by an AddLayer, except for the only materialized layer of a replace anchor:
// that one is only moved in the declared order, so the replaced base layer doesn't come back mid-move.
func (m *LayerManager) MoveLayer(node *LayerNode, oldIndex, newIndex int) errorsx.Error {
	m.mustBeDeclaredAt(node, oldIndex)

	if newIndex < 0 || newIndex >= len(m.declaredLayers) {
		return errorsx.Wrap(ErrInvalidIndex, "layerID", node.ID(), "index", newIndex, "declaredLayerCount", len(m.declaredLayers))
	}

	if node.added && node.Anchor.Type == AnchorTypeReplace {
		state := m.replaced[node.Anchor.LayerID]
		if state != nil && state.occupancy == 1 {
			m.removeDeclared(oldIndex)
			m.insertDeclared(node, newIndex)
			return nil
		}
	}

	err := m.RemoveLayer(node, oldIndex)
	if err != nil {
		return errorsx.Wrap(err)
	}

	err = m.AddLayer(node, newIndex)
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

// ApplyChanges adds every declared layer that isn't in the live style yet.
//
// Declared layers are walked in order, tracking per anchor the top-most layer placed so far (the tail).
// A new layer goes directly above its anchor's tail. If its anchor has no tail yet, the layer is queued
// until a layer of the same anchor that is already in the style comes along; the queued layers then go
// directly below that one. Anchors that still have queued layers after the walk have no layer in the
// style at all: the last queued layer is placed using the anchor's own position, and the others directly
// below it.
func (m *LayerManager) ApplyChanges() errorsx.Error {
	tails := make(map[Anchor]string)
	missed := make(map[Anchor][]*LayerNode)
	var missedOrder []Anchor

	for _, node := range m.declaredLayers {
		anchor := node.Anchor

		if node.added {
			for _, missedNode := range missed[anchor] {
				err := m.style.AddLayerBelow(node.ID(), missedNode.Layer)
				if err != nil {
					return errorsx.Wrap(err, "layerID", missedNode.ID())
				}
				m.markAdded(missedNode)
			}
			delete(missed, anchor)
			tails[anchor] = node.ID()
			continue
		}

		tailID, ok := tails[anchor]
		if ok {
			err := m.style.AddLayerAbove(tailID, node.Layer)
			if err != nil {
				return errorsx.Wrap(err, "layerID", node.ID())
			}
			m.markAdded(node)
			tails[anchor] = node.ID()
			continue
		}

		if _, ok := missed[anchor]; !ok {
			missedOrder = append(missedOrder, anchor)
		}
		missed[anchor] = append(missed[anchor], node)
	}

	for _, anchor := range missedOrder {
		queue := missed[anchor]
		if len(queue) == 0 {
			continue
		}

		head := queue[len(queue)-1]
		err := m.placeFirstOfAnchor(head)
		if err != nil {
			return errorsx.Wrap(err, "layerID", head.ID())
		}
		m.markAdded(head)

		for _, node := range queue[:len(queue)-1] {
			err := m.style.AddLayerBelow(head.ID(), node.Layer)
			if err != nil {
				return errorsx.Wrap(err, "layerID", node.ID())
			}
			m.markAdded(node)
		}
	}

	return nil
}

func (m *LayerManager) validateAnchor(anchor Anchor) errorsx.Error {
	switch anchor.Type {
	case AnchorTypeTop, AnchorTypeBottom:
		return nil
	case AnchorTypeAbove, AnchorTypeBelow, AnchorTypeReplace:
		if !m.baseLayerIDs[anchor.LayerID] {
			return errorsx.Wrap(ErrNotFound, "anchor", anchor.String(), "reason", "anchor references a layer that is not a base layer")
		}
		return nil
	default:
		return errorsx.Wrap(ErrInvalidOperation, "anchor", anchor.String(), "reason", "unknown anchor type")
	}
}

// placeFirstOfAnchor puts the first layer of an anchor group into the live style
func (m *LayerManager) placeFirstOfAnchor(node *LayerNode) errorsx.Error {
	anchor := node.Anchor

	switch anchor.Type {
	case AnchorTypeTop:
		return m.style.AddLayer(node.Layer)
	case AnchorTypeBottom:
		return m.style.AddLayerAt(0, node.Layer)
	case AnchorTypeAbove:
		return m.style.AddLayerAbove(m.referenceLayerID(anchor.LayerID, true), node.Layer)
	case AnchorTypeBelow:
		return m.style.AddLayerBelow(m.referenceLayerID(anchor.LayerID, false), node.Layer)
	case AnchorTypeReplace:
		if _, ok := m.replaced[anchor.LayerID]; ok {
			panicPreconditionViolation("base layer is already replaced", "anchor", anchor.String())
		}

		original := m.style.GetLayer(anchor.LayerID)
		if original == nil {
			panicPreconditionViolation("base layer to replace is not in the live style", "anchor", anchor.String())
		}

		err := m.style.AddLayerAbove(anchor.LayerID, node.Layer)
		if err != nil {
			return errorsx.Wrap(err)
		}

		err = m.style.RemoveLayer(original)
		if err != nil {
			return errorsx.Wrap(err)
		}

		m.replaced[anchor.LayerID] = &replaceState{hiddenOriginal: original}
		m.logger.Debug("replaced base layer %q", anchor.LayerID)
		return nil
	default:
		panicPreconditionViolation("unknown anchor type", "anchor", anchor.String())
		return nil
	}
}

// referenceLayerID gives the layer to position relative to for an above/below anchor on baseLayerID.
// While the base layer is replaced, the replacing group stands in for it.
func (m *LayerManager) referenceLayerID(baseLayerID string, above bool) string {
	if _, hidden := m.replaced[baseLayerID]; !hidden {
		return baseLayerID
	}

	replaceAnchor := AnchorReplace(baseLayerID)
	var occupants []*LayerNode
	for _, node := range m.declaredLayers {
		if node.added && node.Anchor == replaceAnchor {
			occupants = append(occupants, node)
		}
	}

	if len(occupants) == 0 {
		panicPreconditionViolation("base layer is replaced but nothing occupies its place", "layerID", baseLayerID)
	}

	if above {
		return occupants[len(occupants)-1].ID()
	}
	return occupants[0].ID()
}

func (m *LayerManager) markAdded(node *LayerNode) {
	node.added = true
	m.logger.Debug("added layer %q (anchor %s)", node.ID(), node.Anchor)

	if node.Anchor.Type != AnchorTypeReplace {
		return
	}

	state := m.replaced[node.Anchor.LayerID]
	if state == nil {
		panicPreconditionViolation("layer added under a replace anchor without replace bookkeeping", "layerID", node.ID(), "anchor", node.Anchor.String())
	}
	state.occupancy++
}

func (m *LayerManager) releaseReplaceOccupant(node *LayerNode) errorsx.Error {
	baseLayerID := node.Anchor.LayerID

	state := m.replaced[baseLayerID]
	if state == nil || state.occupancy <= 0 {
		panicPreconditionViolation("replace occupancy released without an occupant", "layerID", node.ID(), "anchor", node.Anchor.String())
	}

	state.occupancy--
	if state.occupancy > 0 {
		return nil
	}

	err := m.style.AddLayerBelow(node.ID(), state.hiddenOriginal)
	if err != nil {
		return errorsx.Wrap(err, "restoredLayerID", baseLayerID)
	}

	delete(m.replaced, baseLayerID)
	m.logger.Debug("restored base layer %q", baseLayerID)

	return nil
}

func (m *LayerManager) mustBeDeclaredAt(node *LayerNode, index int) {
	if index < 0 || index >= len(m.declaredLayers) || m.declaredLayers[index] != node {
		panicPreconditionViolation("layer is not declared at the given index", "layerID", node.ID(), "index", index)
	}
}

func (m *LayerManager) insertDeclared(node *LayerNode, index int) {
	m.declaredLayers = append(m.declaredLayers, nil)
	copy(m.declaredLayers[index+1:], m.declaredLayers[index:])
	m.declaredLayers[index] = node
}

func (m *LayerManager) removeDeclared(index int) {
	m.declaredLayers = append(m.declaredLayers[:index], m.declaredLayers[index+1:]...)
}
