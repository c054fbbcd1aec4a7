// Package parallel provides tile-based parallel computation infrastructure
// for terrain.
//
// An output image is divided into square tiles that can be computed
// independently. TileGrid selects the tiles of a region and WorkerPool runs
// one task per tile with work stealing, so slow tiles (dense DEM areas, many triangles)
// do not hold back the rest.
//
// Thread safety: TileGrid is NOT thread-safe. WorkerPool is.
package parallel

import "image"

// DefaultTileSize is the edge length used when a grid is created with a
// non-positive tile size. A 64-pixel tile gives a 66x66 float64 patch of
// about 34KB.
const DefaultTileSize = 64

// Tile is one rectangular region of an image.
//
// Edge tiles may be smaller than the grid's tile size when the image is not
// evenly divisible by it.
type Tile struct {
	// X is the tile column index (0-based).
	X int

	// Y is the tile row index (0-based).
	Y int

	// Rect is the tile's pixel rectangle in image space.
	Rect image.Rectangle
}
