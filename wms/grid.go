package wms

// Direction 相邻瓦片方向
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

var directionNames = [...]string{"north", "south", "east", "west"}

func (d Direction) String() string {
	if d < North || d > West {
		return "unknown"
	}
	return directionNames[d]
}

// Directions in the order the walk expands them
var Directions = []Direction{North, South, East, West}

// TileOffset 瓦片相对地图视觉中心的世界坐标偏移
type TileOffset struct {
	X float32
	Z float32
}

// Scale maps projected meters onto the renderer's world units
type Scale struct {
	// TileWorldSize is the edge length of one tile in world units
	TileWorldSize float64
	// MetersToWorld converts projected meters to world units
	MetersToWorld float64
}

// PlacedTile is a tile index together with its world offset.
//
// Offset is always derived from the offset of the tile the steps started at
// plus a whole number of steps, so walking away and back restores it bit for bit.
type PlacedTile struct {
	Index  TileIndex
	Offset TileOffset

	anchored     bool
	origin       TileOffset
	stepX, stepZ int
}

// Place anchors idx at offset, the starting point for NeighbourTile and Walk
func Place(idx TileIndex, offset TileOffset) PlacedTile {
	return PlacedTile{Index: idx, Offset: offset, anchored: true, origin: offset}
}

func (t PlacedTile) anchor() PlacedTile {
	if t.anchored {
		return t
	}
	return Place(t.Index, t.Offset)
}

func (t PlacedTile) moved(dx, dy int, step float64) PlacedTile {
	t.Index.X += dx
	t.Index.Y += dy
	t.stepX += dx
	// Z grows north while y grows south
	t.stepZ -= dy
	t.Offset = TileOffset{
		X: float32(float64(t.origin.X) + float64(t.stepX)*step),
		Z: float32(float64(t.origin.Z) + float64(t.stepZ)*step),
	}
	return t
}

// TileCountPerAxis 某级别下每个轴的瓦片数
func TileCountPerAxis(zoom int) int {
	return 1 << uint(zoom)
}

// CenterTile returns the tile under the map center and where that tile sits
// relative to the center. X grows east, Z grows north.
func CenterTile(centerGeo GeoPoint, centerProjected ProjectedPoint, zoom int, scale Scale, proj Projection) (TileIndex, TileOffset) {
	idx := GeoToTile(centerGeo.Lon, centerGeo.Lat, zoom)
	anchor := proj.ToProjected(TileToGeo(idx.X, idx.Y, zoom))

	half := scale.TileWorldSize / 2.0
	offset := TileOffset{
		X: float32(half - (centerProjected.X-anchor.X)*scale.MetersToWorld),
		Z: float32(-half - (centerProjected.Y-anchor.Y)*scale.MetersToWorld),
	}
	return idx, offset
}

// NeighbourTile steps one tile in dir. ok is false when the step leaves the grid.
func NeighbourTile(t PlacedTile, tileCountOnX, tileCountOnY int, dir Direction, step float64) (n PlacedTile, ok bool) {
	t = t.anchor()
	switch dir {
	case South:
		if t.Index.Y+1 < tileCountOnY {
			return t.moved(0, 1, step), true
		}
	case North:
		if t.Index.Y > 0 {
			return t.moved(0, -1, step), true
		}
	case East:
		if t.Index.X+1 < tileCountOnX {
			return t.moved(1, 0, step), true
		}
	case West:
		if t.Index.X > 0 {
			return t.moved(-1, 0, step), true
		}
	}
	return PlacedTile{}, false
}

// Walk pages in the tiles around start breadth first through NeighbourTile.
// Every tile within radius (Chebyshev distance, in tiles) is visited once;
// start comes first. A negative radius yields nothing.
func Walk(start PlacedTile, tileCountOnX, tileCountOnY, radius int, step float64) []PlacedTile {
	if radius < 0 {
		return nil
	}
	side := 2*radius + 1
	start = start.anchor()
	visited := make(map[TileIndex]struct{}, side*side)
	visited[start.Index] = struct{}{}

	queue := []PlacedTile{start}
	res := make([]PlacedTile, 0, side*side)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		res = append(res, cur)

		for _, dir := range Directions {
			n, ok := NeighbourTile(cur, tileCountOnX, tileCountOnY, dir, step)
			if !ok {
				continue
			}
			if abs(n.Index.X-start.Index.X) > radius || abs(n.Index.Y-start.Index.Y) > radius {
				continue
			}
			if _, seen := visited[n.Index]; seen {
				continue
			}
			visited[n.Index] = struct{}{}
			queue = append(queue, n)
		}
	}
	return res
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
