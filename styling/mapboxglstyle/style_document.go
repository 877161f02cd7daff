package mapboxglstyle

import (
	"encoding/json"
	"io"

	"github.com/jamesrr39/goutil/errorsx"
)

const StyleSpecVersion = 8

// StyleDocument is a style.json document, following the Mapbox GL style spec (version 8).
// Layers are ordered bottom to top.
type StyleDocument struct {
	Version  int       `json:"version"`
	Name     string    `json:"name,omitempty"`
	Metadata Metadata  `json:"metadata,omitempty"`
	Sprite   string    `json:"sprite,omitempty"`
	Glyphs   string    `json:"glyphs,omitempty"`
	Center   []float64 `json:"center,omitempty"`
	Zoom     *float64  `json:"zoom,omitempty"`
	Sources  Sources   `json:"sources"`
	Layers   []*Layer  `json:"layers"`
}

func Parse(reader io.Reader) (*StyleDocument, errorsx.Error) {
	doc := new(StyleDocument)
	err := json.NewDecoder(reader).Decode(doc)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	for id, source := range doc.Sources {
		if source == nil {
			return nil, errorsx.Errorf("source %q is null", id)
		}
		source.ID = id
	}

	err = doc.Validate()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return doc, nil
}

func (d *StyleDocument) Validate() errorsx.Error {
	if d.Version != StyleSpecVersion {
		return errorsx.Errorf("unsupported style version %d (expected %d)", d.Version, StyleSpecVersion)
	}

	for id, source := range d.Sources {
		if source.ID != id {
			return errorsx.Errorf("source stored under %q has id %q", id, source.ID)
		}
		err := source.Validate()
		if err != nil {
			return errorsx.Wrap(err)
		}
	}

	seenLayerIDs := make(map[string]bool)
	for _, layer := range d.Layers {
		err := layer.Validate()
		if err != nil {
			return errorsx.Wrap(err)
		}

		if seenLayerIDs[layer.ID] {
			return errorsx.Errorf("duplicate layer ID found: %q", layer.ID)
		}
		seenLayerIDs[layer.ID] = true

		if layer.Source != "" {
			_, ok := d.Sources[layer.Source]
			if !ok {
				return errorsx.Errorf("layer %q references unknown source %q", layer.ID, layer.Source)
			}
		}
	}

	return nil
}

func (d *StyleDocument) GetLayerByID(id string) *Layer {
	for _, layer := range d.Layers {
		if layer.ID == id {
			return layer
		}
	}
	return nil
}

func (d *StyleDocument) LayerIDs() []string {
	ids := make([]string, 0, len(d.Layers))
	for _, layer := range d.Layers {
		ids = append(ids, layer.ID)
	}
	return ids
}
