package compose

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/ownmap-stylesync/reconciler"
	"github.com/jamesrr39/ownmap-stylesync/styling/mapboxglstyle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSceneYAML = `
sources:
  points:
    type: geojson
    data:
      type: FeatureCollection
      features: []
images:
  marker:
    path: marker.png
    pixelRatio: 2
layers:
  - id: water-overlay
    type: fill
    source: base
    anchor: replace:bar
    paint:
      fill-color: "#0000ff"
  - id: poi
    type: symbol
    source: points
    minzoom: 12
    layout:
      icon-image: marker
  - id: shade
    type: background
    anchor: bottom
`

func TestParseScene_yaml(t *testing.T) {
	scene, err := ParseScene(strings.NewReader(testSceneYAML), SceneFormatYAML)
	require.NoError(t, err)

	assert.Equal(t, []string{"water-overlay", "poi", "shade"}, scene.LayerIDs())

	assert.Equal(t, reconciler.AnchorReplace("bar"), scene.Layers[0].Anchor)
	assert.Equal(t, reconciler.AnchorTop(), scene.Layers[1].Anchor)
	assert.Equal(t, reconciler.AnchorBottom(), scene.Layers[2].Anchor)

	assert.Equal(t, mapboxglstyle.LayerTypeFill, scene.Layers[0].Layer.Type)
	assert.Equal(t, "#0000ff", scene.Layers[0].Layer.Paint["fill-color"])
	require.NotNil(t, scene.Layers[1].Layer.MinZoom)
	assert.Equal(t, 12.0, *scene.Layers[1].Layer.MinZoom)

	iconImage, ok := scene.Layers[1].Layer.Layout.IconImage()
	assert.True(t, ok)
	assert.Equal(t, "marker", iconImage)

	require.Contains(t, scene.Sources, "points")
	assert.Equal(t, "points", scene.Sources["points"].ID)
	require.NoError(t, scene.Sources["points"].Validate())

	require.Contains(t, scene.Images, "marker")
	assert.Equal(t, 2.0, scene.Images["marker"].PixelRatio)
	assert.Nil(t, scene.Images["marker"].Image)
}

func TestParseScene_json(t *testing.T) {
	const sceneJSON = `{
		"sources": {"overlay": {"type": "raster", "tiles": ["https://example.com/{z}/{x}/{y}.png"], "tileSize": 256}},
		"layers": [
			{"id": "overlay", "type": "raster", "source": "overlay", "anchor": "above:foo"}
		]
	}`

	scene, err := ParseScene(strings.NewReader(sceneJSON), SceneFormatJSON)
	require.NoError(t, err)

	require.Len(t, scene.Layers, 1)
	assert.Equal(t, reconciler.AnchorAbove("foo"), scene.Layers[0].Anchor)
	assert.Equal(t, "overlay", scene.Layers[0].Layer.Source)
	assert.Equal(t, 256, scene.Sources["overlay"].TileSize)
	assert.Empty(t, scene.Images)
}

func TestParseScene_empty(t *testing.T) {
	scene, err := ParseScene(strings.NewReader(""), SceneFormatYAML)
	require.NoError(t, err)

	assert.Empty(t, scene.Layers)
	assert.Empty(t, scene.Sources)
}

func TestParseScene_invalid(t *testing.T) {
	tests := []struct {
		name   string
		format SceneFormat
		doc    string
	}{
		{"bad yaml", SceneFormatYAML, "layers: [\n"},
		{"bad json", SceneFormatJSON, `{"layers": `},
		{"unknown anchor type", SceneFormatYAML, "layers:\n  - id: a\n    type: background\n    anchor: sideways\n"},
		{"anchor without layer id", SceneFormatYAML, "layers:\n  - id: a\n    type: background\n    anchor: 'above:'\n"},
		{"image without path", SceneFormatYAML, "images:\n  marker:\n    pixelRatio: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScene(strings.NewReader(tt.doc), tt.format)
			require.Error(t, err)
			assert.Equal(t, ErrInvalidScene, errorsx.Cause(err))
		})
	}
}

func TestSceneFormatFromPath(t *testing.T) {
	assert.Equal(t, SceneFormatJSON, SceneFormatFromPath("/scenes/a.json"))
	assert.Equal(t, SceneFormatJSON, SceneFormatFromPath("/scenes/a.JSON"))
	assert.Equal(t, SceneFormatYAML, SceneFormatFromPath("/scenes/a.yaml"))
	assert.Equal(t, SceneFormatYAML, SceneFormatFromPath("/scenes/a.yml"))
}

func encodeTestPNG(t *testing.T) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestLoadScene(t *testing.T) {
	fs := mockfs.NewMockFs()
	require.NoError(t, fs.MkdirAll("/scenes", 0755))
	require.NoError(t, fs.WriteFile("/scenes/scene.yaml", []byte(testSceneYAML), 0644))
	require.NoError(t, fs.WriteFile("/scenes/marker.png", encodeTestPNG(t), 0644))

	scene, err := LoadScene(fs, "/scenes/scene.yaml")
	require.NoError(t, err)

	marker := scene.Images["marker"]
	require.NotNil(t, marker.Image)
	assert.Equal(t, image.Rect(0, 0, 2, 2), marker.Image.Bounds())
	require.NoError(t, marker.Validate())
}

func TestLoadScene_missingImageFile(t *testing.T) {
	fs := mockfs.NewMockFs()
	require.NoError(t, fs.MkdirAll("/scenes", 0755))
	require.NoError(t, fs.WriteFile("/scenes/scene.yaml", []byte(testSceneYAML), 0644))

	_, err := LoadScene(fs, "/scenes/scene.yaml")
	require.Error(t, err)
}

func TestLoadScene_undecodableImage(t *testing.T) {
	fs := mockfs.NewMockFs()
	require.NoError(t, fs.MkdirAll("/scenes", 0755))
	require.NoError(t, fs.WriteFile("/scenes/scene.yaml", []byte(testSceneYAML), 0644))
	require.NoError(t, fs.WriteFile("/scenes/marker.png", []byte("not an image"), 0644))

	_, err := LoadScene(fs, "/scenes/scene.yaml")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidScene, errorsx.Cause(err))
}
