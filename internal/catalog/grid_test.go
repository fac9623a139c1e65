package catalog

import "testing"

func TestTiles_Shape(t *testing.T) {
	tiles := Tiles(42)
	if len(tiles) != TownHeight {
		t.Fatalf("rows = %d, want %d", len(tiles), TownHeight)
	}
	for y, row := range tiles {
		if len(row) != TownWidth {
			t.Fatalf("row %d width = %d, want %d", y, len(row), TownWidth)
		}
	}
}

func TestTiles_PerimeterImpassable(t *testing.T) {
	tiles := Tiles(0)
	for x := 0; x < TownWidth; x++ {
		if tiles[0][x] != TileWall || tiles[TownHeight-1][x] != TileWall {
			t.Fatalf("perimeter open at x=%d", x)
		}
	}
	for y := 0; y < TownHeight; y++ {
		if tiles[y][0] != TileWall || tiles[y][TownWidth-1] != TileWall {
			t.Fatalf("perimeter open at y=%d", y)
		}
	}
}

func TestTiles_SeedDoesNotChangeGeometry(t *testing.T) {
	a := Tiles(1)
	b := Tiles(987654321)
	for y := range a {
		if a[y] != b[y] {
			t.Fatalf("row %d differs across seeds: %q vs %q", y, a[y], b[y])
		}
	}
}

func TestTiles_BridgesAndWalls(t *testing.T) {
	tiles := Tiles(7)

	if tiles[10][2] != TileBridge {
		t.Fatalf("tile (2,10) = %c, want bridge", tiles[10][2])
	}
	if tiles[10][30] != TileBridge {
		t.Fatalf("tile (30,10) = %c, want bridge", tiles[10][30])
	}

	// Building interiors stay walled.
	walls := [][2]int{{13, 3}, {27, 13}, {3, 9}}
	for _, p := range walls {
		if tiles[p[1]][p[0]] != TileWall {
			t.Fatalf("tile (%d,%d) = %c, want wall", p[0], p[1], tiles[p[1]][p[0]])
		}
	}

	// Path rows and columns.
	if tiles[6][5] != TilePath {
		t.Fatalf("tile (5,6) = %c, want path", tiles[6][5])
	}
	if tiles[3][8] != TilePath {
		t.Fatalf("tile (8,3) = %c, want path", tiles[3][8])
	}
}

func TestPassable(t *testing.T) {
	tiles := Tiles(0)

	cases := []struct {
		x, y int
		want bool
	}{
		{1, 1, true},    // grass
		{5, 6, true},    // path
		{2, 10, true},   // bridge
		{0, 0, false},   // perimeter
		{13, 3, false},  // building
		{-1, 5, false},  // out of bounds
		{5, -1, false},  // out of bounds
		{32, 5, false},  // out of bounds
		{5, 20, false},  // out of bounds
	}
	for _, c := range cases {
		if got := Passable(tiles, c.x, c.y); got != c.want {
			t.Errorf("Passable(%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}
