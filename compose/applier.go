package compose

import (
	"fmt"
	"reflect"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/livestyle"
	"github.com/jamesrr39/ownmap-stylesync/reconciler"
	"github.com/jamesrr39/ownmap-stylesync/styling/mapboxglstyle"
)

var (
	_ livestyle.Layer  = (*mapboxglstyle.Layer)(nil)
	_ livestyle.Source = (*mapboxglstyle.Source)(nil)
	_ livestyle.Image  = (*mapboxglstyle.StyleImage)(nil)
)

type PassSummary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Moved   int `json:"moved"`
}

func (s PassSummary) String() string {
	return fmt.Sprintf("added: %d, removed: %d, moved: %d", s.Added, s.Removed, s.Moved)
}

type appliedLayer struct {
	decl *LayerDeclaration
	node *reconciler.LayerNode
	// nil when the layer draws from a base source, or from no source
	source *mapboxglstyle.Source
	images []*mapboxglstyle.StyleImage
}

// Applier applies a sequence of scenes to a live style. Each Apply call is one reconciliation pass,
// changing only what differs from the previous scene.
// An Applier is not safe for concurrent use.
type Applier struct {
	logger  *logpkg.Logger
	manager *reconciler.StyleManager
	layers  map[string]*appliedLayer
	sources map[string]*mapboxglstyle.Source
	images  map[string]*mapboxglstyle.StyleImage
}

func NewApplier(logger *logpkg.Logger, manager *reconciler.StyleManager) *Applier {
	return &Applier{
		logger:  logger,
		manager: manager,
		layers:  make(map[string]*appliedLayer),
		sources: make(map[string]*mapboxglstyle.Source),
		images:  make(map[string]*mapboxglstyle.StyleImage),
	}
}

func (a *Applier) StyleManager() *reconciler.StyleManager {
	return a.manager
}

// Apply makes scene the declared state of the style.
// Layers whose definition, anchor, source or images changed are removed and added again; layers only
// moved within the declared order are moved. A scene that fails validation changes nothing.
func (a *Applier) Apply(scene *Scene) (PassSummary, errorsx.Error) {
	var summary PassSummary

	err := a.validate(scene)
	if err != nil {
		return summary, errorsx.Wrap(err)
	}

	sources := a.resolveSources(scene)
	images := a.resolveImages(scene)

	wanted := make(map[string]*appliedLayer)
	for _, decl := range scene.Layers {
		wanted[decl.Layer.ID] = &appliedLayer{
			decl:   decl,
			source: sources[decl.Layer.Source],
			images: layerImages(decl, images),
		}
	}

	// removals
	for _, node := range a.manager.DeclaredLayers() {
		current := a.layers[node.ID()]
		next, ok := wanted[node.ID()]
		if ok && current.sameAs(next) {
			next.node = current.node
			next.decl = current.decl
			continue
		}

		err = a.removeLayer(current)
		if err != nil {
			return summary, errorsx.Wrap(err)
		}
		summary.Removed++
	}

	// moves, bringing the kept layers into the scene's order
	var keptIDs []string
	for _, decl := range scene.Layers {
		if wanted[decl.Layer.ID].node != nil {
			keptIDs = append(keptIDs, decl.Layer.ID)
		}
	}

	for targetIndex, id := range keptIDs {
		node := wanted[id].node
		currentIndex := indexOfNode(a.manager.DeclaredLayers(), node)
		if currentIndex == targetIndex {
			continue
		}

		err = a.manager.MoveLayer(node, currentIndex, targetIndex)
		if err != nil {
			return summary, errorsx.Wrap(err, "layerID", id)
		}
		summary.Moved++
	}

	// additions, in declared order so each index is final when it is used
	for index, decl := range scene.Layers {
		layer := wanted[decl.Layer.ID]
		if layer.node != nil {
			continue
		}

		err = a.addLayer(layer, index)
		if err != nil {
			return summary, errorsx.Wrap(err)
		}
		summary.Added++
	}

	a.layers = wanted
	a.sources = sources
	a.images = images

	err = a.manager.ApplyChanges()
	if err != nil {
		return summary, errorsx.Wrap(err)
	}

	a.logger.Info("applied scene (%s)", summary)

	return summary, nil
}

func (a *Applier) removeLayer(layer *appliedLayer) errorsx.Error {
	index := indexOfNode(a.manager.DeclaredLayers(), layer.node)

	err := a.manager.RemoveLayer(layer.node, index)
	if err != nil {
		return errorsx.Wrap(err, "layerID", layer.node.ID())
	}

	if layer.source != nil {
		err = a.manager.RemoveSourceReference(layer.source)
		if err != nil {
			return errorsx.Wrap(err, "layerID", layer.node.ID())
		}
	}

	for _, image := range layer.images {
		err = a.manager.RemoveImageReference(image)
		if err != nil {
			return errorsx.Wrap(err, "layerID", layer.node.ID())
		}
	}

	return nil
}

func (a *Applier) addLayer(layer *appliedLayer, index int) errorsx.Error {
	id := layer.decl.Layer.ID

	if layer.source != nil {
		err := a.manager.AddSourceReference(layer.source)
		if err != nil {
			return errorsx.Wrap(err, "layerID", id)
		}
	}

	for _, image := range layer.images {
		err := a.manager.AddImageReference(image)
		if err != nil {
			return errorsx.Wrap(err, "layerID", id)
		}
	}

	node := reconciler.NewLayerNode(layer.decl.Layer, layer.decl.Anchor)
	err := a.manager.AddLayer(node, index)
	if err != nil {
		return errorsx.Wrap(err, "layerID", id)
	}

	layer.node = node
	return nil
}

// resolveSources keeps the previous source object for every scene source whose definition didn't change,
// so the layers using it can stay in the style.
func (a *Applier) resolveSources(scene *Scene) map[string]*mapboxglstyle.Source {
	sources := make(map[string]*mapboxglstyle.Source)
	for id, source := range scene.Sources {
		previous, ok := a.sources[id]
		if ok && previous.Equal(source) {
			sources[id] = previous
			continue
		}
		sources[id] = source
	}
	return sources
}

func (a *Applier) resolveImages(scene *Scene) map[string]*mapboxglstyle.StyleImage {
	images := make(map[string]*mapboxglstyle.StyleImage)
	for id, image := range scene.Images {
		previous, ok := a.images[id]
		if ok && reflect.DeepEqual(previous, image) {
			images[id] = previous
			continue
		}
		images[id] = image
	}
	return images
}

// validate checks the whole scene up front, so a pass is either fully applied or not started
func (a *Applier) validate(scene *Scene) errorsx.Error {
	for id, source := range scene.Sources {
		if source.ID != id {
			return errorsx.Wrap(ErrInvalidScene, "sourceID", id, "reason", fmt.Sprintf("source stored under %q has id %q", id, source.ID))
		}
		if a.manager.IsBaseSource(id) {
			return errorsx.Wrap(reconciler.ErrIDCollision, "sourceID", id, "reason", "scene source has the id of a base source")
		}
		err := source.Validate()
		if err != nil {
			return errorsx.Wrap(ErrInvalidScene, "sourceID", id, "reason", err.Error())
		}
	}

	for id, image := range scene.Images {
		if image.ID != id {
			return errorsx.Wrap(ErrInvalidScene, "imageID", id, "reason", fmt.Sprintf("image stored under %q has id %q", id, image.ID))
		}
		if a.manager.IsBaseImage(id) {
			return errorsx.Wrap(reconciler.ErrIDCollision, "imageID", id, "reason", "scene image has the id of a base image")
		}
		err := image.Validate()
		if err != nil {
			return errorsx.Wrap(ErrInvalidScene, "imageID", id, "reason", err.Error())
		}
	}

	seenLayerIDs := make(map[string]bool)
	for _, decl := range scene.Layers {
		if decl.Layer == nil {
			return errorsx.Wrap(ErrInvalidScene, "reason", "layer declaration without a layer")
		}

		id := decl.Layer.ID
		err := decl.Layer.Validate()
		if err != nil {
			return errorsx.Wrap(ErrInvalidScene, "layerID", id, "reason", err.Error())
		}

		if seenLayerIDs[id] {
			return errorsx.Wrap(reconciler.ErrIDCollision, "layerID", id, "reason", "layer declared twice in the scene")
		}
		seenLayerIDs[id] = true

		if a.manager.IsBaseLayer(id) {
			return errorsx.Wrap(reconciler.ErrIDCollision, "layerID", id, "reason", "scene layer has the id of a base layer")
		}

		if decl.Anchor.ReferencesBaseLayer() && !a.manager.IsBaseLayer(decl.Anchor.LayerID) {
			return errorsx.Wrap(reconciler.ErrNotFound, "layerID", id, "anchor", decl.Anchor.String())
		}

		sourceID := decl.Layer.Source
		if sourceID != "" {
			_, isSceneSource := scene.Sources[sourceID]
			if !isSceneSource && !a.manager.IsBaseSource(sourceID) {
				return errorsx.Wrap(reconciler.ErrNotFound, "layerID", id, "sourceID", sourceID)
			}
		}

		for _, imageID := range decl.Images {
			_, isSceneImage := scene.Images[imageID]
			if !isSceneImage && !a.manager.IsBaseImage(imageID) {
				return errorsx.Wrap(reconciler.ErrNotFound, "layerID", id, "imageID", imageID)
			}
		}
	}

	return nil
}

func (l *appliedLayer) sameAs(other *appliedLayer) bool {
	if l.decl.Anchor != other.decl.Anchor {
		return false
	}

	if !l.decl.Layer.Equal(other.decl.Layer) {
		return false
	}

	if l.source != other.source {
		return false
	}

	if len(l.images) != len(other.images) {
		return false
	}
	for idx := range l.images {
		if l.images[idx] != other.images[idx] {
			return false
		}
	}

	return true
}

// layerImages gives the scene images the layer references: the declared ones, plus its icon-image.
// Base images are not reference counted.
func layerImages(decl *LayerDeclaration, images map[string]*mapboxglstyle.StyleImage) []*mapboxglstyle.StyleImage {
	var layerImages []*mapboxglstyle.StyleImage
	seen := make(map[string]bool)

	imageIDs := decl.Images
	iconImage, ok := decl.Layer.Layout.IconImage()
	if ok {
		imageIDs = append(append([]string{}, imageIDs...), iconImage)
	}

	for _, id := range imageIDs {
		image, ok := images[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		layerImages = append(layerImages, image)
	}

	return layerImages
}

func indexOfNode(nodes []*reconciler.LayerNode, node *reconciler.LayerNode) int {
	for idx, n := range nodes {
		if n == node {
			return idx
		}
	}
	return -1
}
