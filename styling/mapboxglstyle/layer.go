package mapboxglstyle

import (
	"reflect"

	"github.com/jamesrr39/goutil/errorsx"
)

type LayerType string

const (
	LayerTypeBackground    LayerType = "background"
	LayerTypeFill          LayerType = "fill"
	LayerTypeLine          LayerType = "line"
	LayerTypeSymbol        LayerType = "symbol"
	LayerTypeRaster        LayerType = "raster"
	LayerTypeCircle        LayerType = "circle"
	LayerTypeFillExtrusion LayerType = "fill-extrusion"
	LayerTypeHeatmap       LayerType = "heatmap"
	LayerTypeHillshade     LayerType = "hillshade"
)

var knownLayerTypes = map[LayerType]bool{
	LayerTypeBackground:    true,
	LayerTypeFill:          true,
	LayerTypeLine:          true,
	LayerTypeSymbol:        true,
	LayerTypeRaster:        true,
	LayerTypeCircle:        true,
	LayerTypeFillExtrusion: true,
	LayerTypeHeatmap:       true,
	LayerTypeHillshade:     true,
}

const (
	MinZoom float64 = 0
	MaxZoom float64 = 24
)

type Metadata map[string]interface{}

// Layer is a single layer of a Mapbox GL style.
// Layout and paint property values (and the filter) are carried as-is; they are expressions
// owned by the renderer, not evaluated here.
type Layer struct {
	ID          string     `json:"id" yaml:"id"`
	Type        LayerType  `json:"type" yaml:"type"`
	Source      string     `json:"source,omitempty" yaml:"source,omitempty"`
	SourceLayer string     `json:"source-layer,omitempty" yaml:"source-layer,omitempty"`
	MinZoom     *float64   `json:"minzoom,omitempty" yaml:"minzoom,omitempty"`
	MaxZoom     *float64   `json:"maxzoom,omitempty" yaml:"maxzoom,omitempty"`
	Filter      Filter     `json:"filter,omitempty" yaml:"filter,omitempty"`
	Layout      Properties `json:"layout,omitempty" yaml:"layout,omitempty"`
	Paint       Properties `json:"paint,omitempty" yaml:"paint,omitempty"`
	Metadata    Metadata   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func (l *Layer) LayerID() string {
	return l.ID
}

// SourceID returns the ID of the source this layer draws from, or "" for layers without a source (background).
func (l *Layer) SourceID() string {
	return l.Source
}

func (l *Layer) Validate() errorsx.Error {
	if l.ID == "" {
		return errorsx.Errorf("layer has no id")
	}

	if !knownLayerTypes[l.Type] {
		return errorsx.Errorf("layer %q has unknown type %q", l.ID, l.Type)
	}

	if l.Type != LayerTypeBackground && l.Source == "" {
		return errorsx.Errorf("layer %q of type %q requires a source", l.ID, l.Type)
	}

	if l.MaxZoom != nil && (*l.MaxZoom < MinZoom || *l.MaxZoom > MaxZoom) {
		return errorsx.Errorf("max zoom must be between 0 and 24 (inclusive) but was %f", *l.MaxZoom)
	}

	if l.MinZoom != nil && (*l.MinZoom < MinZoom || *l.MinZoom > MaxZoom) {
		return errorsx.Errorf("min zoom must be between 0 and 24 (inclusive) but was %f", *l.MinZoom)
	}

	if l.MaxZoom != nil && l.MinZoom != nil {
		if *l.MaxZoom < *l.MinZoom {
			return errorsx.Errorf("max zoom is smaller than min zoom")
		}
	}

	err := ValidateFilter(l.Filter)
	if err != nil {
		return errorsx.Wrap(err, "layerID", l.ID)
	}

	return nil
}

// IsVisible reports whether the layer's layout visibility lets it be drawn.
func (l *Layer) IsVisible() bool {
	return l.Layout.Visibility() == VisibilityVisible
}

// Equal compares the full definition of two layers.
func (l *Layer) Equal(other *Layer) bool {
	if l == nil || other == nil {
		return l == other
	}
	return reflect.DeepEqual(l, other)
}
