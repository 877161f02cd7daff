package styling

import (
	"github.com/jamesrr39/ownmap-stylesync/styling/mapboxglstyle"
)

const builtinSourceID = "openmaptiles"

var builtinLineDashPath = []interface{}{1.0, 2.0, 3.0}

// BuiltinStyle is a basic OpenMapTiles based style, available without any style files on disk.
func BuiltinStyle() *Style {
	placeLabelsMinZoom := 8.0

	doc := &mapboxglstyle.StyleDocument{
		Version: mapboxglstyle.StyleSpecVersion,
		Name:    "ownmap basic",
		Glyphs:  "https://fonts.openmaptiles.org/{fontstack}/{range}.pbf",
		Sources: mapboxglstyle.Sources{
			builtinSourceID: {
				ID:          builtinSourceID,
				Type:        mapboxglstyle.SourceTypeVector,
				URL:         "https://api.maptiler.com/tiles/v3-openmaptiles/tiles.json",
				Attribution: "© OpenMapTiles © OpenStreetMap contributors",
			},
		},
		Layers: []*mapboxglstyle.Layer{
			{
				ID:    "background",
				Type:  mapboxglstyle.LayerTypeBackground,
				Paint: mapboxglstyle.Properties{"background-color": "rgb(255, 255, 255)"},
			},
			{
				ID:          "landcover-forest",
				Type:        mapboxglstyle.LayerTypeFill,
				Source:      builtinSourceID,
				SourceLayer: "landcover",
				Filter:      []interface{}{"==", "class", "wood"},
				Paint:       mapboxglstyle.Properties{"fill-color": "rgb(172, 200, 160)"},
			},
			{
				ID:          "landuse-residential",
				Type:        mapboxglstyle.LayerTypeFill,
				Source:      builtinSourceID,
				SourceLayer: "landuse",
				Filter:      []interface{}{"==", "class", "residential"},
				Paint:       mapboxglstyle.Properties{"fill-color": "rgb(223, 223, 223)"},
			},
			{
				ID:          "railway",
				Type:        mapboxglstyle.LayerTypeLine,
				Source:      builtinSourceID,
				SourceLayer: "transportation",
				Filter:      []interface{}{"==", "class", "rail"},
				Paint:       mapboxglstyle.Properties{"line-color": "rgb(190, 190, 190)", "line-width": 3.0},
			},
			{
				ID:          "highway-path",
				Type:        mapboxglstyle.LayerTypeLine,
				Source:      builtinSourceID,
				SourceLayer: "transportation",
				Filter:      []interface{}{"==", "class", "path"},
				Paint:       mapboxglstyle.Properties{"line-color": "#00ff00", "line-dasharray": builtinLineDashPath},
			},
			{
				ID:          "highway-minor",
				Type:        mapboxglstyle.LayerTypeLine,
				Source:      builtinSourceID,
				SourceLayer: "transportation",
				Filter:      []interface{}{"in", "class", "minor", "service", "track"},
				Paint:       mapboxglstyle.Properties{"line-color": "#bcaca5"},
			},
			{
				ID:          "highway-secondary-tertiary",
				Type:        mapboxglstyle.LayerTypeLine,
				Source:      builtinSourceID,
				SourceLayer: "transportation",
				Filter:      []interface{}{"in", "class", "secondary", "tertiary"},
				Paint:       mapboxglstyle.Properties{"line-color": "#f6f9bf"},
			},
			{
				ID:          "highway-primary",
				Type:        mapboxglstyle.LayerTypeLine,
				Source:      builtinSourceID,
				SourceLayer: "transportation",
				Filter:      []interface{}{"==", "class", "primary"},
				Paint:       mapboxglstyle.Properties{"line-color": "#ffd4a5"},
			},
			{
				ID:          "highway-trunk",
				Type:        mapboxglstyle.LayerTypeLine,
				Source:      builtinSourceID,
				SourceLayer: "transportation",
				Filter:      []interface{}{"==", "class", "trunk"},
				Paint:       mapboxglstyle.Properties{"line-color": "#ffae9b"},
			},
			{
				ID:          "highway-motorway",
				Type:        mapboxglstyle.LayerTypeLine,
				Source:      builtinSourceID,
				SourceLayer: "transportation",
				Filter:      []interface{}{"==", "class", "motorway"},
				Paint:       mapboxglstyle.Properties{"line-color": "#f38d9e"},
			},
			{
				ID:          "place-labels",
				Type:        mapboxglstyle.LayerTypeSymbol,
				Source:      builtinSourceID,
				SourceLayer: "place",
				MinZoom:     &placeLabelsMinZoom,
				Layout: mapboxglstyle.Properties{
					mapboxglstyle.LayoutTextField: "{name}",
					mapboxglstyle.LayoutTextFont:  []interface{}{"Noto Sans Regular"},
					mapboxglstyle.LayoutTextSize:  16.0,
				},
				Paint: mapboxglstyle.Properties{"text-color": "#000000"},
			},
		},
	}

	return &Style{ID: BUILTIN_STYLEID, Document: doc}
}
