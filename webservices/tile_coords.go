package webservices

import (
	"math"

	"github.com/paulmach/osm"
)

// web mercator can't show the poles
const maxMercatorLat = 85.0511287798

func Deg2num(lat, lon float64, zoomLevel int) (x, y int) {
	x = int(
		math.Floor((lon + 180.0) / 360.0 * (math.Exp2(float64(zoomLevel)))),
	)
	y = int(
		math.Floor(
			(1.0 - math.Log(
				math.Tan(lat*math.Pi/180.0)+1.0/math.Cos(lat*math.Pi/180.0))/math.Pi) / 2.0 * (math.Exp2(float64(zoomLevel))),
		),
	)
	return
}

// TileRange is the (inclusive) range of XYZ tiles at one zoom level
type TileRange struct {
	Zoom int `json:"zoom"`
	MinX int `json:"minX"`
	MinY int `json:"minY"`
	MaxX int `json:"maxX"`
	MaxY int `json:"maxY"`
}

func (tr TileRange) TileCount() int {
	return (tr.MaxX - tr.MinX + 1) * (tr.MaxY - tr.MinY + 1)
}

// TileRangeForBounds gives the tiles covering bounds at zoomLevel
func TileRangeForBounds(bounds osm.Bounds, zoomLevel int) TileRange {
	maxTile := int(math.Exp2(float64(zoomLevel))) - 1

	minX, minY := Deg2num(clampLat(bounds.MaxLat), bounds.MinLon, zoomLevel)
	maxX, maxY := Deg2num(clampLat(bounds.MinLat), bounds.MaxLon, zoomLevel)

	return TileRange{
		Zoom: zoomLevel,
		MinX: clampTile(minX, maxTile),
		MinY: clampTile(minY, maxTile),
		MaxX: clampTile(maxX, maxTile),
		MaxY: clampTile(maxY, maxTile),
	}
}

func clampLat(lat float64) float64 {
	return math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
}

func clampTile(n, maxTile int) int {
	if n < 0 {
		return 0
	}
	if n > maxTile {
		return maxTile
	}
	return n
}
