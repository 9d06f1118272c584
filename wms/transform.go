package wms

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
)

// GeoPoint WGS84 经纬度
type GeoPoint struct {
	Lon float64
	Lat float64
}

// Point returns the point as an orb.Point (lon, lat)
func (g GeoPoint) Point() orb.Point {
	return orb.Point{g.Lon, g.Lat}
}

// ProjectedPoint 球面墨卡托坐标, 单位米
type ProjectedPoint struct {
	X float64
	Y float64
}

// TileIndex 瓦片行列号, y 向南递增
type TileIndex struct {
	X int
	Y int
}

// MapTile converts the index to an orb maptile at zoom z.
// Negative indices are not representable and clamp to 0.
func (t TileIndex) MapTile(z int) maptile.Tile {
	x, y := t.X, t.Y
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z))
}

// Projection converts between WGS84 degrees and a planar projected system
type Projection interface {
	ToProjected(GeoPoint) ProjectedPoint
	ToGeo(ProjectedPoint) GeoPoint
}

// Mercator is the spherical mercator projection (EPSG:900913 / EPSG:3857)
var Mercator Projection = mercatorProjection{}

type mercatorProjection struct{}

func (mercatorProjection) ToProjected(g GeoPoint) ProjectedPoint {
	return GeoToProjected(g)
}

func (mercatorProjection) ToGeo(p ProjectedPoint) GeoPoint {
	return ProjectedToGeo(p)
}

// TileToGeo returns the north west corner of a tile.
// Indices outside the grid extrapolate along the same formula.
func TileToGeo(tileX, tileY, zoom int) GeoPoint {
	n := math.Exp2(float64(zoom))
	lon := float64(tileX)/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(tileY)/n)))
	return GeoPoint{Lon: lon, Lat: latRad * 180.0 / math.Pi}
}

// GeoToTile returns the tile containing lon/lat at zoom.
// A point on a tile's north or west edge belongs to that tile, judged
// against the corners TileToGeo returns so anchors always map back.
func GeoToTile(lon, lat float64, zoom int) TileIndex {
	n := math.Exp2(float64(zoom))
	latRad := lat * math.Pi / 180.0
	x := int(math.Floor((lon + 180.0) / 360.0 * n))
	y := int(math.Floor((1.0 - math.Asinh(math.Tan(latRad))/math.Pi) / 2.0 * n))

	// the formula is off by at most one tile near an edge
	switch {
	case lon >= TileToGeo(x+1, y, zoom).Lon:
		x++
	case lon < TileToGeo(x, y, zoom).Lon:
		x--
	}
	switch {
	case lat <= TileToGeo(x, y+1, zoom).Lat:
		y++
	case lat > TileToGeo(x, y, zoom).Lat:
		y--
	}
	return TileIndex{X: x, Y: y}
}

// GeoToProjected projects WGS84 degrees to spherical mercator meters
func GeoToProjected(g GeoPoint) ProjectedPoint {
	p := project.WGS84.ToMercator(g.Point())
	return ProjectedPoint{X: p[0], Y: p[1]}
}

// ProjectedToGeo is the inverse of GeoToProjected
func ProjectedToGeo(p ProjectedPoint) GeoPoint {
	g := project.Mercator.ToWGS84(orb.Point{p.X, p.Y})
	return GeoPoint{Lon: g.Lon(), Lat: g.Lat()}
}
