package livestyle

import (
	"fmt"
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/styling/mapboxglstyle"
)

type OperationType string

const (
	OperationTypeAddLayer      OperationType = "addLayer"
	OperationTypeAddLayerAt    OperationType = "addLayerAt"
	OperationTypeAddLayerAbove OperationType = "addLayerAbove"
	OperationTypeAddLayerBelow OperationType = "addLayerBelow"
	OperationTypeRemoveLayer   OperationType = "removeLayer"
	OperationTypeAddSource     OperationType = "addSource"
	OperationTypeRemoveSource  OperationType = "removeSource"
	OperationTypeAddImage      OperationType = "addImage"
	OperationTypeRemoveImage   OperationType = "removeImage"
)

// Operation is a record of a native mutation applied to a MemoryStyle
type Operation struct {
	Type        OperationType
	ID          string
	ReferenceID string // for addLayerAbove/addLayerBelow
	Index       int    // for addLayerAt
}

func (o Operation) String() string {
	switch o.Type {
	case OperationTypeAddLayerAt:
		return fmt.Sprintf("%s(%d, %s)", o.Type, o.Index, o.ID)
	case OperationTypeAddLayerAbove, OperationTypeAddLayerBelow:
		return fmt.Sprintf("%s(%s, %s)", o.Type, o.ReferenceID, o.ID)
	default:
		return fmt.Sprintf("%s(%s)", o.Type, o.ID)
	}
}

// MemoryStyle is an in-memory live style. It enforces the same preconditions a rendering engine does
// (unique IDs, sources present before the layers that use them, no removal of sources in use)
// and keeps a log of every mutation applied to it.
type MemoryStyle struct {
	logger     *logpkg.Logger
	base       mapboxglstyle.StyleDocument
	layers     []Layer
	sources    []Source
	images     []Image
	operations []Operation
}

// NewMemoryStyle creates a live style holding the layers and sources of doc.
// The document is not modified; the style holds the same layer and source objects.
func NewMemoryStyle(logger *logpkg.Logger, doc *mapboxglstyle.StyleDocument) *MemoryStyle {
	style := &MemoryStyle{
		logger: logger,
		base:   *doc,
	}
	style.base.Layers = nil
	style.base.Sources = nil

	var sourceIDs []string
	for id := range doc.Sources {
		sourceIDs = append(sourceIDs, id)
	}
	sort.Strings(sourceIDs)

	for _, id := range sourceIDs {
		style.sources = append(style.sources, doc.Sources[id])
	}

	for _, layer := range doc.Layers {
		style.layers = append(style.layers, layer)
	}

	return style
}

func (s *MemoryStyle) GetLayers() []Layer {
	layers := make([]Layer, len(s.layers))
	copy(layers, s.layers)
	return layers
}

func (s *MemoryStyle) GetSources() []Source {
	sources := make([]Source, len(s.sources))
	copy(sources, s.sources)
	return sources
}

func (s *MemoryStyle) GetImages() []Image {
	images := make([]Image, len(s.images))
	copy(images, s.images)
	return images
}

func (s *MemoryStyle) GetLayer(id string) Layer {
	idx := s.layerIndex(id)
	if idx < 0 {
		return nil
	}
	return s.layers[idx]
}

func (s *MemoryStyle) GetSource(id string) Source {
	idx := s.sourceIndex(id)
	if idx < 0 {
		return nil
	}
	return s.sources[idx]
}

func (s *MemoryStyle) AddLayer(layer Layer) errorsx.Error {
	err := s.insertLayer(len(s.layers), layer)
	if err != nil {
		return errorsx.Wrap(err)
	}

	s.record(Operation{Type: OperationTypeAddLayer, ID: layer.LayerID()})
	return nil
}

func (s *MemoryStyle) AddLayerAt(index int, layer Layer) errorsx.Error {
	if index < 0 || index > len(s.layers) {
		return errorsx.Wrap(ErrIndexOutOfRange, "index", index, "layerCount", len(s.layers))
	}

	err := s.insertLayer(index, layer)
	if err != nil {
		return errorsx.Wrap(err)
	}

	s.record(Operation{Type: OperationTypeAddLayerAt, ID: layer.LayerID(), Index: index})
	return nil
}

func (s *MemoryStyle) AddLayerAbove(id string, layer Layer) errorsx.Error {
	idx := s.layerIndex(id)
	if idx < 0 {
		return errorsx.Wrap(ErrLayerNotFound, "referenceLayerID", id)
	}

	err := s.insertLayer(idx+1, layer)
	if err != nil {
		return errorsx.Wrap(err)
	}

	s.record(Operation{Type: OperationTypeAddLayerAbove, ID: layer.LayerID(), ReferenceID: id})
	return nil
}

func (s *MemoryStyle) AddLayerBelow(id string, layer Layer) errorsx.Error {
	idx := s.layerIndex(id)
	if idx < 0 {
		return errorsx.Wrap(ErrLayerNotFound, "referenceLayerID", id)
	}

	err := s.insertLayer(idx, layer)
	if err != nil {
		return errorsx.Wrap(err)
	}

	s.record(Operation{Type: OperationTypeAddLayerBelow, ID: layer.LayerID(), ReferenceID: id})
	return nil
}

func (s *MemoryStyle) RemoveLayer(layer Layer) errorsx.Error {
	idx := s.layerIndex(layer.LayerID())
	if idx < 0 {
		return errorsx.Wrap(ErrLayerNotFound, "layerID", layer.LayerID())
	}

	s.layers = append(s.layers[:idx], s.layers[idx+1:]...)

	s.record(Operation{Type: OperationTypeRemoveLayer, ID: layer.LayerID()})
	return nil
}

func (s *MemoryStyle) AddSource(source Source) errorsx.Error {
	if s.sourceIndex(source.SourceID()) >= 0 {
		return errorsx.Wrap(ErrSourceExists, "sourceID", source.SourceID())
	}

	s.sources = append(s.sources, source)

	s.record(Operation{Type: OperationTypeAddSource, ID: source.SourceID()})
	return nil
}

func (s *MemoryStyle) RemoveSource(source Source) errorsx.Error {
	idx := s.sourceIndex(source.SourceID())
	if idx < 0 {
		return errorsx.Wrap(ErrSourceNotFound, "sourceID", source.SourceID())
	}

	for _, layer := range s.layers {
		if layer.SourceID() == source.SourceID() {
			return errorsx.Wrap(ErrSourceInUse, "sourceID", source.SourceID(), "layerID", layer.LayerID())
		}
	}

	s.sources = append(s.sources[:idx], s.sources[idx+1:]...)

	s.record(Operation{Type: OperationTypeRemoveSource, ID: source.SourceID()})
	return nil
}

func (s *MemoryStyle) AddImage(image Image) errorsx.Error {
	if s.imageIndex(image.ImageID()) >= 0 {
		return errorsx.Wrap(ErrImageExists, "imageID", image.ImageID())
	}

	s.images = append(s.images, image)

	s.record(Operation{Type: OperationTypeAddImage, ID: image.ImageID()})
	return nil
}

func (s *MemoryStyle) RemoveImage(image Image) errorsx.Error {
	idx := s.imageIndex(image.ImageID())
	if idx < 0 {
		return errorsx.Wrap(ErrImageNotFound, "imageID", image.ImageID())
	}

	s.images = append(s.images[:idx], s.images[idx+1:]...)

	s.record(Operation{Type: OperationTypeRemoveImage, ID: image.ImageID()})
	return nil
}

// LayerIDs returns the IDs of the layers in the style, bottom to top
func (s *MemoryStyle) LayerIDs() []string {
	ids := make([]string, 0, len(s.layers))
	for _, layer := range s.layers {
		ids = append(ids, layer.LayerID())
	}
	return ids
}

func (s *MemoryStyle) SourceIDs() []string {
	ids := make([]string, 0, len(s.sources))
	for _, source := range s.sources {
		ids = append(ids, source.SourceID())
	}
	return ids
}

func (s *MemoryStyle) ImageIDs() []string {
	ids := make([]string, 0, len(s.images))
	for _, image := range s.images {
		ids = append(ids, image.ImageID())
	}
	return ids
}

func (s *MemoryStyle) Operations() []Operation {
	operations := make([]Operation, len(s.operations))
	copy(operations, s.operations)
	return operations
}

func (s *MemoryStyle) ClearOperations() {
	s.operations = nil
}

// Document renders the current state of the style as a style document.
// Layers and sources that are not mapboxglstyle values are written out with their ID only.
func (s *MemoryStyle) Document() *mapboxglstyle.StyleDocument {
	doc := s.base
	doc.Sources = make(mapboxglstyle.Sources)
	doc.Layers = []*mapboxglstyle.Layer{}

	for _, source := range s.sources {
		glSource, ok := source.(*mapboxglstyle.Source)
		if !ok {
			glSource = &mapboxglstyle.Source{ID: source.SourceID()}
		}
		doc.Sources[source.SourceID()] = glSource
	}

	for _, layer := range s.layers {
		glLayer, ok := layer.(*mapboxglstyle.Layer)
		if !ok {
			glLayer = &mapboxglstyle.Layer{ID: layer.LayerID(), Source: layer.SourceID()}
		}
		doc.Layers = append(doc.Layers, glLayer)
	}

	return &doc
}

func (s *MemoryStyle) insertLayer(index int, layer Layer) errorsx.Error {
	if s.layerIndex(layer.LayerID()) >= 0 {
		return errorsx.Wrap(ErrLayerExists, "layerID", layer.LayerID())
	}

	sourceID := layer.SourceID()
	if sourceID != "" && s.sourceIndex(sourceID) < 0 {
		return errorsx.Wrap(ErrSourceNotFound, "sourceID", sourceID, "layerID", layer.LayerID())
	}

	s.layers = append(s.layers, nil)
	copy(s.layers[index+1:], s.layers[index:])
	s.layers[index] = layer

	return nil
}

func (s *MemoryStyle) record(operation Operation) {
	if s.logger != nil {
		s.logger.Debug("live style: %s", operation)
	}
	s.operations = append(s.operations, operation)
}

func (s *MemoryStyle) layerIndex(id string) int {
	for idx, layer := range s.layers {
		if layer.LayerID() == id {
			return idx
		}
	}
	return -1
}

func (s *MemoryStyle) sourceIndex(id string) int {
	for idx, source := range s.sources {
		if source.SourceID() == id {
			return idx
		}
	}
	return -1
}

func (s *MemoryStyle) imageIndex(id string) int {
	for idx, image := range s.images {
		if image.ImageID() == id {
			return idx
		}
	}
	return -1
}
