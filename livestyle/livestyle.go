// Package livestyle describes the imperative style object owned by a rendering engine,
// and provides an in-memory implementation of it.
package livestyle

import (
	"errors"

	"github.com/jamesrr39/goutil/errorsx"
)

var (
	ErrLayerExists     = errors.New("layer already exists in style")
	ErrLayerNotFound   = errors.New("layer not found in style")
	ErrSourceExists    = errors.New("source already exists in style")
	ErrSourceNotFound  = errors.New("source not found in style")
	ErrSourceInUse     = errors.New("source is in use by a layer")
	ErrImageExists     = errors.New("image already exists in style")
	ErrImageNotFound   = errors.New("image not found in style")
	ErrIndexOutOfRange = errors.New("layer index out of range")
)

type Layer interface {
	LayerID() string
	// SourceID is "" for layers that don't draw from a source
	SourceID() string
}

type Source interface {
	SourceID() string
}

type Image interface {
	ImageID() string
}

// Style is a live, imperative style. Layers are ordered bottom to top.
// Implementations are not expected to be safe for concurrent use.
type Style interface {
	GetLayers() []Layer
	GetSources() []Source
	GetImages() []Image
	// GetLayer returns nil if there is no layer with this ID
	GetLayer(id string) Layer
	// GetSource returns nil if there is no source with this ID
	GetSource(id string) Source

	// AddLayer adds the layer on top of all other layers
	AddLayer(layer Layer) errorsx.Error
	AddLayerAt(index int, layer Layer) errorsx.Error
	AddLayerAbove(id string, layer Layer) errorsx.Error
	AddLayerBelow(id string, layer Layer) errorsx.Error
	RemoveLayer(layer Layer) errorsx.Error

	AddSource(source Source) errorsx.Error
	RemoveSource(source Source) errorsx.Error

	AddImage(image Image) errorsx.Error
	RemoveImage(image Image) errorsx.Error
}
