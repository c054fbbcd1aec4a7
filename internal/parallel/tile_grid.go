package parallel

import "image"

// TileGrid divides an image into tiles.
//
// Edge tiles may have smaller dimensions when the image is not evenly
// divisible by the tile size. Tiles are stored in a flat slice, accessed via
// index calculation: index = ty * tilesX + tx.
//
// Thread safety: TileGrid is NOT thread-safe. Use external synchronization
// for concurrent access.
type TileGrid struct {
	// tiles is a flat slice of all tiles (row-major order).
	tiles []*Tile

	// tilesX is the number of tiles horizontally.
	tilesX int

	// tilesY is the number of tiles vertically.
	tilesY int

	// width is the image width in pixels.
	width int

	// height is the image height in pixels.
	height int

	// size is the tile edge length in pixels.
	size int
}

// NewTileGrid creates a tile grid covering a width×height image with tiles
// of size×size pixels. A non-positive size selects DefaultTileSize.
func NewTileGrid(width, height, size int) *TileGrid {
	if size <= 0 {
		size = DefaultTileSize
	}
	if width <= 0 || height <= 0 {
		return &TileGrid{size: size}
	}

	g := &TileGrid{
		tilesX: (width + size - 1) / size,
		tilesY: (height + size - 1) / size,
		width:  width,
		height: height,
		size:   size,
	}
	g.tiles = make([]*Tile, g.tilesX*g.tilesY)

	for ty := 0; ty < g.tilesY; ty++ {
		for tx := 0; tx < g.tilesX; tx++ {
			x0, y0 := tx*size, ty*size
			g.tiles[ty*g.tilesX+tx] = &Tile{
				X:    tx,
				Y:    ty,
				Rect: image.Rect(x0, y0, min(x0+size, width), min(y0+size, height)),
			}
		}
	}
	return g
}

// TilesInRect returns all tiles that intersect r in row-major order.
// Returns nil if r is completely outside the image.
func (g *TileGrid) TilesInRect(r image.Rectangle) []*Tile {
	r = r.Intersect(image.Rect(0, 0, g.width, g.height))
	if r.Empty() {
		return nil
	}

	tx1, ty1 := r.Min.X/g.size, r.Min.Y/g.size
	tx2, ty2 := (r.Max.X-1)/g.size, (r.Max.Y-1)/g.size

	result := make([]*Tile, 0, (tx2-tx1+1)*(ty2-ty1+1))
	for ty := ty1; ty <= ty2; ty++ {
		for tx := tx1; tx <= tx2; tx++ {
			result = append(result, g.tiles[ty*g.tilesX+tx])
		}
	}
	return result
}

// TileCount returns the total number of tiles in the grid.
func (g *TileGrid) TileCount() int {
	return len(g.tiles)
}

// TilesX returns the number of tiles horizontally.
func (g *TileGrid) TilesX() int {
	return g.tilesX
}

// TilesY returns the number of tiles vertically.
func (g *TileGrid) TilesY() int {
	return g.tilesY
}
