package mapboxglstyle

import (
	"encoding/json"
	"reflect"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
)

type SourceType string

const (
	SourceTypeVector    SourceType = "vector"
	SourceTypeRaster    SourceType = "raster"
	SourceTypeRasterDEM SourceType = "raster-dem"
	SourceTypeGeoJSON   SourceType = "geojson"
	SourceTypeImage     SourceType = "image"
	SourceTypeVideo     SourceType = "video"
)

// Source is a data source of a style. The ID is not part of the source JSON object;
// it is the key the source is stored under in the style's "sources" object.
type Source struct {
	ID          string      `json:"-" yaml:"-"`
	Type        SourceType  `json:"type" yaml:"type"`
	URL         string      `json:"url,omitempty" yaml:"url,omitempty"`
	Tiles       []string    `json:"tiles,omitempty" yaml:"tiles,omitempty"`
	Data        interface{} `json:"data,omitempty" yaml:"data,omitempty"` // URL string or inline GeoJSON
	Bounds      []float64   `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	MinZoom     *float64    `json:"minzoom,omitempty" yaml:"minzoom,omitempty"`
	MaxZoom     *float64    `json:"maxzoom,omitempty" yaml:"maxzoom,omitempty"`
	TileSize    int         `json:"tileSize,omitempty" yaml:"tileSize,omitempty"`
	Attribution string      `json:"attribution,omitempty" yaml:"attribution,omitempty"`
}

func (s *Source) SourceID() string {
	return s.ID
}

func (s *Source) Validate() errorsx.Error {
	if s.ID == "" {
		return errorsx.Errorf("source has no id")
	}

	switch s.Type {
	case SourceTypeVector, SourceTypeRaster, SourceTypeRasterDEM:
		if s.URL == "" && len(s.Tiles) == 0 {
			return errorsx.Errorf("source %q of type %q needs either a url or tiles", s.ID, s.Type)
		}
	case SourceTypeGeoJSON:
		if s.Data == nil {
			return errorsx.Errorf("geojson source %q has no data", s.ID)
		}
		_, err := s.GeoJSONData()
		if err != nil {
			return errorsx.Wrap(err, "sourceID", s.ID)
		}
	case SourceTypeImage, SourceTypeVideo:
		if s.URL == "" && s.Data == nil {
			return errorsx.Errorf("source %q of type %q has no url", s.ID, s.Type)
		}
	default:
		return errorsx.Errorf("source %q has unknown type %q", s.ID, s.Type)
	}

	if s.Bounds != nil && len(s.Bounds) != 4 {
		return errorsx.Errorf("source %q: expected 4 bounds ([W,S,E,N]), but found %d", s.ID, len(s.Bounds))
	}

	return nil
}

// GeoJSONData decodes inline GeoJSON data into a feature collection.
// A single feature or a bare geometry is wrapped in a collection.
// If the data is a URL rather than inline data, (nil, nil) is returned.
func (s *Source) GeoJSONData() (*geojson.FeatureCollection, errorsx.Error) {
	if s.Data == nil {
		return nil, nil
	}

	if _, isURL := s.Data.(string); isURL {
		return nil, nil
	}

	b, err := json.Marshal(s.Data)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	var header struct {
		Type string `json:"type"`
	}
	err = json.Unmarshal(b, &header)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	switch header.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(b)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		return fc, nil
	case "Feature":
		feature, err := geojson.UnmarshalFeature(b)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		return geojson.NewFeatureCollection().Append(feature), nil
	default:
		geometry, err := geojson.UnmarshalGeometry(b)
		if err != nil {
			return nil, errorsx.Wrap(err, "geojsonType", header.Type)
		}
		return geojson.NewFeatureCollection().Append(geojson.NewFeature(geometry.Geometry())), nil
	}
}

// OSMBounds returns the source bounds. Sources without bounds cover the whole world.
func (s *Source) OSMBounds() (osm.Bounds, errorsx.Error) {
	if len(s.Bounds) == 0 {
		return osm.Bounds{
			MaxLat: 90,
			MinLat: -90,
			MaxLon: 180,
			MinLon: -180,
		}, nil
	}

	if len(s.Bounds) != 4 {
		return osm.Bounds{}, errorsx.Errorf("expected 4 (or 0) bounds, but found %d", len(s.Bounds))
	}

	return osm.Bounds{
		MinLon: s.Bounds[0],
		MinLat: s.Bounds[1],
		MaxLon: s.Bounds[2],
		MaxLat: s.Bounds[3],
	}, nil
}

// Equal compares the definitions of two sources, including their IDs.
func (s *Source) Equal(other *Source) bool {
	if s == nil || other == nil {
		return s == other
	}
	return reflect.DeepEqual(s, other)
}

type Sources map[string]*Source
