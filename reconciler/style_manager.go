// Package reconciler keeps a live style in line with a declared set of layers, sources and images.
//
// Callers describe the layers they want as LayerNodes with an Anchor, and take references to the sources
// and images those layers use. Mutations are recorded straight away, removals hit the live style straight
// away, and additions are batched until ApplyChanges. Resources the style had when it was loaded (the base
// set) are never removed, except for a base layer that is hidden while a replace anchor occupies it.
package reconciler

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/livestyle"
)

type StyleManager struct {
	logger        *logpkg.Logger
	style         livestyle.Style
	baseLayers    map[string]livestyle.Layer
	layerManager  *LayerManager
	sourceManager *SourceManager
	imageManager  *ImageManager
	corruptedBy   errorsx.Error
}

// NewStyleManager snapshots the layers, sources and images currently in style as its base set.
func NewStyleManager(logger *logpkg.Logger, style livestyle.Style) *StyleManager {
	baseLayers := style.GetLayers()

	baseLayerMap := make(map[string]livestyle.Layer)
	for _, layer := range baseLayers {
		baseLayerMap[layer.LayerID()] = layer
	}

	return &StyleManager{
		logger:        logger,
		style:         style,
		baseLayers:    baseLayerMap,
		layerManager:  NewLayerManager(logger, style, baseLayers),
		sourceManager: NewSourceManager(logger, style, style.GetSources()),
		imageManager:  NewImageManager(logger, style, style.GetImages()),
	}
}

func (m *StyleManager) Style() livestyle.Style {
	return m.style
}

func (m *StyleManager) IsBaseLayer(id string) bool {
	_, ok := m.baseLayers[id]
	return ok
}

func (m *StyleManager) GetBaseLayer(id string) (livestyle.Layer, errorsx.Error) {
	layer, ok := m.baseLayers[id]
	if !ok {
		return nil, errorsx.Wrap(ErrNotFound, "layerID", id)
	}

	return layer, nil
}

func (m *StyleManager) GetBaseSource(id string) (livestyle.Source, errorsx.Error) {
	return m.sourceManager.GetBaseSource(id)
}

func (m *StyleManager) IsBaseSource(id string) bool {
	return m.sourceManager.IsBaseSource(id)
}

func (m *StyleManager) IsBaseImage(id string) bool {
	return m.imageManager.IsBaseImage(id)
}

func (m *StyleManager) DeclaredLayers() []*LayerNode {
	return m.layerManager.DeclaredLayers()
}

func (m *StyleManager) SourceReferenceCount(id string) int {
	return m.sourceManager.ReferenceCount(id)
}

func (m *StyleManager) ImageReferenceCount(id string) int {
	return m.imageManager.ReferenceCount(id)
}

func (m *StyleManager) ReferencedSourceCount() int {
	return m.sourceManager.ReferencedSourceCount()
}

func (m *StyleManager) ReferencedImageIDs() []string {
	return m.imageManager.ReferencedImageIDs()
}

func (m *StyleManager) AddLayer(node *LayerNode, index int) errorsx.Error {
	err := m.checkNotCorrupted()
	if err != nil {
		return err
	}

	return m.layerManager.AddLayer(node, index)
}

func (m *StyleManager) RemoveLayer(node *LayerNode, index int) errorsx.Error {
	err := m.checkNotCorrupted()
	if err != nil {
		return err
	}

	return m.markCorruptedOnFailure(m.layerManager.RemoveLayer(node, index))
}

func (m *StyleManager) MoveLayer(node *LayerNode, oldIndex, newIndex int) errorsx.Error {
	err := m.checkNotCorrupted()
	if err != nil {
		return err
	}

	return m.markCorruptedOnFailure(m.layerManager.MoveLayer(node, oldIndex, newIndex))
}

func (m *StyleManager) AddSourceReference(source livestyle.Source) errorsx.Error {
	err := m.checkNotCorrupted()
	if err != nil {
		return err
	}

	return m.sourceManager.AddReference(source)
}

func (m *StyleManager) RemoveSourceReference(source livestyle.Source) errorsx.Error {
	err := m.checkNotCorrupted()
	if err != nil {
		return err
	}

	return m.sourceManager.RemoveReference(source)
}

func (m *StyleManager) AddImageReference(image livestyle.Image) errorsx.Error {
	err := m.checkNotCorrupted()
	if err != nil {
		return err
	}

	return m.imageManager.AddReference(image)
}

func (m *StyleManager) RemoveImageReference(image livestyle.Image) errorsx.Error {
	err := m.checkNotCorrupted()
	if err != nil {
		return err
	}

	return m.imageManager.RemoveReference(image)
}

// ApplyChanges adds the queued sources, then the queued images, then the layers waiting to be placed.
// If the live style rejects an operation, the manager stops accepting work and returns ErrStyleCorrupted from then on.
func (m *StyleManager) ApplyChanges() errorsx.Error {
	err := m.checkNotCorrupted()
	if err != nil {
		return err
	}

	err = m.sourceManager.ApplyChanges()
	if err != nil {
		return m.markCorruptedOnFailure(err)
	}

	err = m.imageManager.ApplyChanges()
	if err != nil {
		return m.markCorruptedOnFailure(err)
	}

	err = m.layerManager.ApplyChanges()
	if err != nil {
		return m.markCorruptedOnFailure(err)
	}

	return nil
}

func (m *StyleManager) checkNotCorrupted() errorsx.Error {
	if m.corruptedBy != nil {
		return errorsx.Wrap(ErrStyleCorrupted, "cause", m.corruptedBy.Error())
	}
	return nil
}

func (m *StyleManager) markCorruptedOnFailure(err errorsx.Error) errorsx.Error {
	if err == nil || IsValidationError(err) {
		return err
	}

	m.logger.Error("live style rejected an operation, no further changes will be made. Error: %q\nStack:\n%s", err.Error(), err.Stack())
	m.corruptedBy = err
	return err
}
