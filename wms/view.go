package wms

import "math"

const (
	earthRadius = 6378137.0
	// DefaultTileResolution 默认瓦片像素大小
	DefaultTileResolution = 256
)

// Map is what the tile layer needs to know about the map it belongs to
type Map interface {
	RoundedZoom() int
	CenterWGS84() GeoPoint
	CenterProjected() ProjectedPoint
	// TileResolution is the tile edge in pixels
	TileResolution() int
	RoundedMetersPerPixel() float64
	Scale() Scale
	Projection() Projection
}

// View is a static Map: a center, an integer zoom and a tile size
type View struct {
	Center     GeoPoint
	Zoom       int
	Resolution int
	// TileWorldSize is the edge of one tile in world units
	TileWorldSize float64
}

var _ Map = View{}

// NewView returns a view with 256px tiles that are one world unit wide
func NewView(center GeoPoint, zoom int) View {
	return View{
		Center:        center,
		Zoom:          zoom,
		Resolution:    DefaultTileResolution,
		TileWorldSize: 1,
	}
}

func (v View) RoundedZoom() int {
	return v.Zoom
}

func (v View) CenterWGS84() GeoPoint {
	return v.Center
}

func (v View) CenterProjected() ProjectedPoint {
	return Mercator.ToProjected(v.Center)
}

func (v View) TileResolution() int {
	if v.Resolution <= 0 {
		return DefaultTileResolution
	}
	return v.Resolution
}

// MetersPerPixel 球面墨卡托下某级别每像素代表的米数
func MetersPerPixel(zoom, tileResolution int) float64 {
	return 2 * math.Pi * earthRadius / (float64(tileResolution) * math.Exp2(float64(zoom)))
}

func (v View) RoundedMetersPerPixel() float64 {
	return MetersPerPixel(v.Zoom, v.TileResolution())
}

func (v View) Scale() Scale {
	size := v.TileWorldSize
	if size <= 0 {
		size = 1
	}
	tileMeters := float64(v.TileResolution()) * v.RoundedMetersPerPixel()
	return Scale{TileWorldSize: size, MetersToWorld: size / tileMeters}
}

func (v View) Projection() Projection {
	return Mercator
}
