package catalog

import "strings"

// Town grid dimensions. Fixed for every town; the persisted seed is
// serialized into snapshots but does not alter geometry yet.
const (
	TownWidth  = 32
	TownHeight = 20
)

// Terrain codes.
const (
	TileWall   = 'W'
	TileGrass  = 'G'
	TilePath   = 'P'
	TileBridge = 'B'
)

// Tiles builds the town grid as one string per row. The layout is a pure
// function of the constants above: walled perimeter, path rows/columns,
// three building rectangles, and two bridge openings into the halls.
func Tiles(seed int64) []string {
	_ = seed // reserved for future procedural decoration

	rows := make([]string, 0, TownHeight)
	for y := 0; y < TownHeight; y++ {
		var b strings.Builder
		b.Grow(TownWidth)
		for x := 0; x < TownWidth; x++ {
			switch {
			case x == 0 || y == 0 || x == TownWidth-1 || y == TownHeight-1:
				b.WriteByte(TileWall)
			case y == 6 || y == 10 || y == 14 || x == 8 || x == 16 || x == 24:
				b.WriteByte(TilePath)
			case 12 <= x && x <= 14 && 1 <= y && y <= 5:
				b.WriteByte(TileWall)
			case 25 <= x && x <= 30 && 12 <= y && y <= 15:
				b.WriteByte(TileWall)
			case 2 <= x && x <= 5 && 9 <= y && y <= 11:
				b.WriteByte(TileWall)
			default:
				b.WriteByte(TileGrass)
			}
		}
		rows = append(rows, b.String())
	}

	// Bridge openings punch through the y=10 wall segments for the halls.
	r := []byte(rows[10])
	r[2] = TileBridge
	r[30] = TileBridge
	rows[10] = string(r)

	return rows
}

// Passable reports whether (x,y) is inside the grid and on walkable terrain.
func Passable(tiles []string, x, y int) bool {
	if y < 0 || y >= len(tiles) {
		return false
	}
	if x < 0 || x >= len(tiles[y]) {
		return false
	}
	switch tiles[y][x] {
	case TileGrass, TilePath, TileBridge:
		return true
	}
	return false
}
