package webservices

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/compose"
	"github.com/jamesrr39/ownmap-stylesync/styling"
	"github.com/jamesrr39/ownmap-stylesync/styling/mapboxglstyle"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) chi.Router {
	return newTestRouterWithFs(t, mockfs.NewMockFs())
}

func newTestRouterWithFs(t *testing.T, fs gofs.Fs) chi.Router {
	doc := &mapboxglstyle.StyleDocument{
		Version: mapboxglstyle.StyleSpecVersion,
		Sources: mapboxglstyle.Sources{
			"base": {ID: "base", Type: mapboxglstyle.SourceTypeVector, URL: "https://example.com/tiles.json"},
		},
		Layers: []*mapboxglstyle.Layer{
			{ID: "foo", Type: mapboxglstyle.LayerTypeBackground},
			{ID: "bar", Type: mapboxglstyle.LayerTypeFill, Source: "base"},
			{ID: "baz", Type: mapboxglstyle.LayerTypeLine, Source: "base", Layout: mapboxglstyle.Properties{
				mapboxglstyle.LayoutVisibility: mapboxglstyle.VisibilityNone,
			}},
		},
	}
	require.NoError(t, doc.Validate())

	baseStyle := &styling.Style{ID: "test", Document: doc}
	styleSet, err := styling.NewStyleSet([]*styling.Style{styling.BuiltinStyle(), baseStyle}, "test")
	require.NoError(t, err)

	logger := logpkg.NewLogger(new(bytes.Buffer), logpkg.LogLevelDebug)
	session := NewStyleSession(logger, fs, "/scenes", baseStyle)

	router := chi.NewRouter()
	router.Mount("/style", NewStyleService(logger, session))
	router.Mount("/info", NewInfoService(logger, styleSet, session))

	return router
}

func doRequest(t *testing.T, router http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func getLayerIDs(t *testing.T, router http.Handler) []string {
	w := doRequest(t, router, http.MethodGet, "/style/layers", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var layerIDs []string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&layerIDs))
	return layerIDs
}

const overlaySceneYAML = `
sources:
  points:
    type: geojson
    data:
      type: Point
      coordinates: [10.75, 59.91]
layers:
  - id: points-circle
    type: circle
    source: points
  - id: bar-replacement
    type: fill
    source: base
    anchor: replace:bar
`

func TestStyleService_putScene(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodPut, "/style/scene", "application/yaml", overlaySceneYAML)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary compose.PassSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
	assert.Equal(t, compose.PassSummary{Added: 2}, summary)

	assert.Equal(t, []string{"foo", "bar-replacement", "baz", "points-circle"}, getLayerIDs(t, router))

	w = doRequest(t, router, http.MethodGet, "/style/", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := mapboxglstyle.Parse(w.Body)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar-replacement", "baz", "points-circle"}, doc.LayerIDs())
	assert.Contains(t, doc.Sources, "points")

	// an empty scene takes the style back to the base style
	w = doRequest(t, router, http.MethodPut, "/style/scene?format=json", "", `{}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"foo", "bar", "baz"}, getLayerIDs(t, router))
}

func TestStyleService_putInvalidScene(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"unparseable", "application/json", `{"layers": [`},
		{"unknown anchor target", "application/yaml", "layers:\n  - id: x\n    type: line\n    source: base\n    anchor: above:nope\n"},
		{"base layer id", "application/yaml", "layers:\n  - id: bar\n    type: line\n    source: base\n"},
		{"unknown source", "application/json", `{"layers": [{"id": "x", "type": "line", "source": "nope"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t)

			w := doRequest(t, router, http.MethodPut, "/style/scene", tt.contentType, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var errMessage struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&errMessage))
			assert.NotEmpty(t, errMessage.Message)

			assert.Equal(t, []string{"foo", "bar", "baz"}, getLayerIDs(t, router))
		})
	}
}

func TestInfoService(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodPut, "/style/scene", "application/yaml", overlaySceneYAML)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/info/", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info infoType
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))

	assert.Equal(t, "test", info.Style.CurrentStyleID)
	assert.Equal(t, []string{styling.BUILTIN_STYLEID, "test"}, info.Style.StyleIDs)
	assert.Equal(t, 4, info.LayerCount)
	// baz is hidden through its layout
	assert.Equal(t, 3, info.VisibleLayerCount)
	assert.Equal(t, []string{"points-circle", "bar-replacement"}, info.DeclaredLayerIDs)
	assert.Equal(t, 1, info.DeclaredSourceCount)
	assert.Equal(t, []string{}, info.DeclaredImageIDs)

	require.Len(t, info.Sources, 2)
	assert.Equal(t, "base", info.Sources[0].ID)
	assert.True(t, info.Sources[0].Base)
	assert.Equal(t, 0, info.Sources[0].References)

	assert.Equal(t, "points", info.Sources[1].ID)
	assert.False(t, info.Sources[1].Base)
	assert.Equal(t, 1, info.Sources[1].References)
	assert.Equal(t, mapboxglstyle.SourceTypeGeoJSON, info.Sources[1].Type)
	assert.Equal(t, osm.Bounds{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}, info.Sources[1].Bounds)
	assert.Equal(t, TileRange{Zoom: 0}, info.Sources[1].TileRange)
	assert.Equal(t, 1, info.Sources[1].TileCount)
}

func writeTestPNG(t *testing.T, fs gofs.Fs, path string) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))

	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, fs.WriteFile(path, buf.Bytes(), 0644))
}

const imageSceneTemplate = `
images:
  marker:
    path: %s
layers:
  - id: markers
    type: symbol
    source: base
    layout:
      icon-image: marker
`

func TestStyleService_putSceneImageInScenesDir(t *testing.T) {
	fs := mockfs.NewMockFs()
	writeTestPNG(t, fs, "/scenes/icons/marker.png")

	router := newTestRouterWithFs(t, fs)

	w := doRequest(t, router, http.MethodPut, "/style/scene", "application/yaml", fmt.Sprintf(imageSceneTemplate, "icons/marker.png"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"foo", "bar", "baz", "markers"}, getLayerIDs(t, router))

	w = doRequest(t, router, http.MethodGet, "/info/", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info infoType
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, []string{"marker"}, info.DeclaredImageIDs)
}

func TestStyleService_putSceneImageOutsideScenesDir(t *testing.T) {
	tests := []struct {
		name      string
		imagePath string
	}{
		{"traverse up", "../private/secret.png"},
		{"traverse up from a sub directory", "icons/../../private/secret.png"},
		{"absolute path", "/private/secret.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mockfs.NewMockFs()
			writeTestPNG(t, fs, "/private/secret.png")

			router := newTestRouterWithFs(t, fs)

			w := doRequest(t, router, http.MethodPut, "/style/scene", "application/yaml", fmt.Sprintf(imageSceneTemplate, tt.imagePath))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			assert.Equal(t, []string{"foo", "bar", "baz"}, getLayerIDs(t, router))
		})
	}
}

func TestTileRangeForBounds(t *testing.T) {
	wholeWorld := TileRangeForBounds(osm.Bounds{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}, 2)
	assert.Equal(t, TileRange{Zoom: 2, MinX: 0, MinY: 0, MaxX: 3, MaxY: 3}, wholeWorld)
	assert.Equal(t, 16, wholeWorld.TileCount())

	northEast := TileRangeForBounds(osm.Bounds{MinLat: 10, MaxLat: 20, MinLon: 10, MaxLon: 20}, 1)
	assert.Equal(t, TileRange{Zoom: 1, MinX: 1, MinY: 0, MaxX: 1, MaxY: 0}, northEast)
	assert.Equal(t, 1, northEast.TileCount())
}
