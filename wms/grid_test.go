package wms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileCountPerAxis(t *testing.T) {
	want := 1
	for zoom := 0; zoom <= 20; zoom++ {
		require.Equal(t, want, TileCountPerAxis(zoom), "zoom %d", zoom)
		want *= 2
	}
}

func TestNeighbourTileBoundaries(t *testing.T) {
	const count = 4
	off := TileOffset{X: 0.5, Z: -0.5}
	var tests = []struct {
		idx TileIndex
		dir Direction
		ok  bool
	}{
		0: {idx: TileIndex{0, 2}, dir: West, ok: false},
		1: {idx: TileIndex{count - 1, 2}, dir: East, ok: false},
		2: {idx: TileIndex{2, 0}, dir: North, ok: false},
		3: {idx: TileIndex{2, count - 1}, dir: South, ok: false},
		4: {idx: TileIndex{0, 0}, dir: East, ok: true},
		5: {idx: TileIndex{0, 0}, dir: South, ok: true},
		6: {idx: TileIndex{count - 1, count - 1}, dir: West, ok: true},
		7: {idx: TileIndex{count - 1, count - 1}, dir: North, ok: true},
		8: {idx: TileIndex{1, 1}, dir: Direction(42), ok: false},
	}

	for k, test := range tests {
		_, ok := NeighbourTile(Place(test.idx, off), count, count, test.dir, 1)
		assert.Equalf(t, test.ok, ok, "test: %d (%s)", k, test.dir)
	}
}

func TestNeighbourTileSteps(t *testing.T) {
	start := TileIndex{X: 5, Y: 5}
	off := TileOffset{X: 1.5, Z: -2.5}
	var tests = []struct {
		dir    Direction
		idx    TileIndex
		offset TileOffset
	}{
		0: {dir: South, idx: TileIndex{5, 6}, offset: TileOffset{1.5, -4.5}},
		1: {dir: North, idx: TileIndex{5, 4}, offset: TileOffset{1.5, -0.5}},
		2: {dir: East, idx: TileIndex{6, 5}, offset: TileOffset{3.5, -2.5}},
		3: {dir: West, idx: TileIndex{4, 5}, offset: TileOffset{-0.5, -2.5}},
	}

	for k, test := range tests {
		n, ok := NeighbourTile(Place(start, off), 16, 16, test.dir, 2)
		require.Truef(t, ok, "test: %d", k)
		assert.Equalf(t, test.idx, n.Index, "test: %d", k)
		assert.Equalf(t, test.offset, n.Offset, "test: %d", k)
	}
}

func TestNeighbourTileInverse(t *testing.T) {
	pairs := [][2]Direction{{South, North}, {North, South}, {East, West}, {West, East}}
	centers := []GeoPoint{
		{Lon: 2.3522, Lat: 48.8566},
		{Lon: -71.0589, Lat: 42.3601},
		{Lon: 139.6917, Lat: 35.6895},
		{Lon: -43.1729, Lat: -22.9068},
	}

	for k, c := range centers {
		for _, zoom := range []int{5, 10, 17} {
			tileMeters := float64(DefaultTileResolution) * MetersPerPixel(zoom, DefaultTileResolution)
			for _, size := range []float64{1, 0.1, 3.7} {
				scale := Scale{TileWorldSize: size, MetersToWorld: size / tileMeters}
				idx, off := CenterTile(c, GeoToProjected(c), zoom, scale, Mercator)
				start := Place(idx, off)
				n := TileCountPerAxis(zoom)

				for _, pair := range pairs {
					there, ok := NeighbourTile(start, n, n, pair[0], size)
					require.True(t, ok)
					back, ok := NeighbourTile(there, n, n, pair[1], size)
					require.True(t, ok)
					assert.Equalf(t, start, back, "center: %d zoom %d size %v: %s then %s", k, zoom, size, pair[0], pair[1])
				}

				// a longer loop comes home too
				cur := start
				for _, dir := range []Direction{South, South, East, North, East, North, West, West} {
					var ok bool
					cur, ok = NeighbourTile(cur, n, n, dir, size)
					require.True(t, ok)
				}
				assert.Equalf(t, start, cur, "center: %d zoom %d size %v", k, zoom, size)
			}
		}
	}
}

func TestNeighbourTileUnanchored(t *testing.T) {
	start := PlacedTile{Index: TileIndex{2, 2}, Offset: TileOffset{X: 0.1, Z: -0.3}}

	there, ok := NeighbourTile(start, 8, 8, East, 0.7)
	require.True(t, ok)
	back, ok := NeighbourTile(there, 8, 8, West, 0.7)
	require.True(t, ok)
	assert.Equal(t, start.Index, back.Index)
	assert.Equal(t, start.Offset, back.Offset)
}

func TestCenterTile(t *testing.T) {
	const zoom = 10
	idx := TileIndex{X: 300, Y: 400}
	anchor := GeoToProjected(TileToGeo(idx.X, idx.Y, zoom))
	tileMeters := float64(DefaultTileResolution) * MetersPerPixel(zoom, DefaultTileResolution)
	scale := Scale{TileWorldSize: 10, MetersToWorld: 10 / tileMeters}

	// the middle of the tile sits right on the center
	center := ProjectedPoint{X: anchor.X + tileMeters/2, Y: anchor.Y - tileMeters/2}
	gotIdx, gotOff := CenterTile(ProjectedToGeo(center), center, zoom, scale, Mercator)
	assert.Equal(t, idx, gotIdx)
	assert.InDelta(t, 0, gotOff.X, 1e-3)
	assert.InDelta(t, 0, gotOff.Z, 1e-3)

	// center a quarter tile east of the middle: the tile shifts west
	center.X += tileMeters / 4
	gotIdx, gotOff = CenterTile(ProjectedToGeo(center), center, zoom, scale, Mercator)
	assert.Equal(t, idx, gotIdx)
	assert.InDelta(t, -2.5, gotOff.X, 1e-3)
	assert.InDelta(t, 0, gotOff.Z, 1e-3)

	// center a quarter tile north of the middle: the tile shifts south
	center.X -= tileMeters / 4
	center.Y += tileMeters / 4
	gotIdx, gotOff = CenterTile(ProjectedToGeo(center), center, zoom, scale, Mercator)
	assert.Equal(t, idx, gotIdx)
	assert.InDelta(t, 0, gotOff.X, 1e-3)
	assert.InDelta(t, -2.5, gotOff.Z, 1e-3)
}

func TestWalk(t *testing.T) {
	start := Place(TileIndex{4, 4}, TileOffset{})

	tiles := Walk(start, 16, 16, 1, 1)
	require.Len(t, tiles, 9)
	assert.Equal(t, start, tiles[0])

	seen := make(map[TileIndex]TileOffset)
	for _, tile := range tiles {
		_, dup := seen[tile.Index]
		require.False(t, dup, "tile %v visited twice", tile.Index)
		seen[tile.Index] = tile.Offset
	}
	assert.Equal(t, TileOffset{X: 1, Z: 1}, seen[TileIndex{5, 3}])
	assert.Equal(t, TileOffset{X: -1, Z: -1}, seen[TileIndex{3, 5}])
}

func TestWalkClipsAtGridEdge(t *testing.T) {
	start := PlacedTile{Index: TileIndex{0, 0}}
	assert.Len(t, Walk(start, 4, 4, 2, 1), 9)
	assert.Len(t, Walk(start, 1, 1, 3, 1), 1)
	assert.Len(t, Walk(start, 4, 4, 0, 1), 1)
	assert.Nil(t, Walk(start, 4, 4, -1, 1))
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "north", North.String())
	assert.Equal(t, "west", West.String())
	assert.Equal(t, "unknown", Direction(-1).String())
}
