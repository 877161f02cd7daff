package mapboxglstyle

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStyleJSON = `{
	"version": 8,
	"name": "test",
	"sources": {
		"openmaptiles": {"type": "vector", "url": "https://example.com/tiles.json"},
		"parks": {"type": "geojson", "data": {"type": "Point", "coordinates": [10.7, 59.9]}}
	},
	"layers": [
		{"id": "background", "type": "background", "paint": {"background-color": "#f8f4f0"}},
		{"id": "water", "type": "fill", "source": "openmaptiles", "source-layer": "water", "filter": ["==", "$type", "Polygon"]},
		{"id": "parks", "type": "circle", "source": "parks", "minzoom": 4, "maxzoom": 18}
	]
}`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(testStyleJSON))
	require.NoError(t, err)

	assert.Equal(t, "test", doc.Name)
	assert.Equal(t, []string{"background", "water", "parks"}, doc.LayerIDs())
	assert.Equal(t, "openmaptiles", doc.Sources["openmaptiles"].ID)
	assert.Equal(t, "water", doc.GetLayerByID("water").SourceLayer)
	assert.Nil(t, doc.GetLayerByID("nonexistent"))

	fc, err := doc.Sources["parks"].GeoJSONData()
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Point", fc.Features[0].Geometry.GeoJSONType())
}

func TestParse_roundTripKeepsLayerOrder(t *testing.T) {
	doc, err := Parse(strings.NewReader(testStyleJSON))
	require.NoError(t, err)

	b, marshalErr := json.Marshal(doc)
	require.NoError(t, marshalErr)

	doc2, err := Parse(bytes.NewReader(b))
	require.NoError(t, err)

	assert.Equal(t, doc.LayerIDs(), doc2.LayerIDs())
	assert.True(t, doc.GetLayerByID("water").Equal(doc2.GetLayerByID("water")))
}

func TestParse_invalid(t *testing.T) {
	tests := []struct {
		name      string
		styleJSON string
	}{
		{"wrong version", `{"version": 7, "sources": {}, "layers": []}`},
		{"duplicate layer", `{"version": 8, "sources": {}, "layers": [{"id": "a", "type": "background"}, {"id": "a", "type": "background"}]}`},
		{"unknown source", `{"version": 8, "sources": {}, "layers": [{"id": "a", "type": "fill", "source": "nope"}]}`},
		{"unknown layer type", `{"version": 8, "sources": {}, "layers": [{"id": "a", "type": "sparkles"}]}`},
		{"min zoom above max zoom", `{"version": 8, "sources": {"s": {"type": "vector", "url": "x"}}, "layers": [{"id": "a", "type": "fill", "source": "s", "minzoom": 10, "maxzoom": 5}]}`},
		{"source without url", `{"version": 8, "sources": {"s": {"type": "raster"}}, "layers": []}`},
		{"bad filter", `{"version": 8, "sources": {"s": {"type": "vector", "url": "x"}}, "layers": [{"id": "a", "type": "fill", "source": "s", "filter": ["==", "$type"]}]}`},
		{"not json", `{"version": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.styleJSON))
			assert.Error(t, err)
		})
	}
}

func TestSource_OSMBounds(t *testing.T) {
	source := &Source{ID: "s", Type: SourceTypeVector, URL: "x", Bounds: []float64{-1, 50, 2, 52}}
	bounds, err := source.OSMBounds()
	require.NoError(t, err)
	assert.Equal(t, -1.0, bounds.MinLon)
	assert.Equal(t, 50.0, bounds.MinLat)
	assert.Equal(t, 2.0, bounds.MaxLon)
	assert.Equal(t, 52.0, bounds.MaxLat)

	wholeWorld, err := (&Source{ID: "w", Type: SourceTypeVector, URL: "x"}).OSMBounds()
	require.NoError(t, err)
	assert.Equal(t, 90.0, wholeWorld.MaxLat)

	_, err = (&Source{ID: "bad", Bounds: []float64{1, 2}}).OSMBounds()
	assert.Error(t, err)
}

func TestSource_GeoJSONData(t *testing.T) {
	urlSource := &Source{ID: "u", Type: SourceTypeGeoJSON, Data: "https://example.com/data.geojson"}
	fc, err := urlSource.GeoJSONData()
	require.NoError(t, err)
	assert.Nil(t, fc)

	featureSource := &Source{ID: "f", Type: SourceTypeGeoJSON, Data: map[string]interface{}{
		"type":       "Feature",
		"properties": map[string]interface{}{"name": "park"},
		"geometry":   map[string]interface{}{"type": "Point", "coordinates": []interface{}{1.0, 2.0}},
	}}
	fc, err = featureSource.GeoJSONData()
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "park", fc.Features[0].Properties["name"])

	badSource := &Source{ID: "b", Type: SourceTypeGeoJSON, Data: map[string]interface{}{"type": "Nonsense"}}
	_, err = badSource.GeoJSONData()
	assert.Error(t, err)
	assert.Error(t, badSource.Validate())
}

func TestValidateFilter(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{"nil", nil, false},
		{"equals", []interface{}{"==", "$type", "Point"}, false},
		{"nested all", []interface{}{"all", []interface{}{"==", "$type", "Polygon"}, []interface{}{"in", "class", "a", "b"}}, false},
		{"not an array", "==", true},
		{"empty", []interface{}{}, true},
		{"non-string operator", []interface{}{1, 2}, true},
		{"nested error", []interface{}{"any", []interface{}{"has"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err errorsx.Error = ValidateFilter(tt.filter)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
