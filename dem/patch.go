package dem

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/gogpu/terrain/geodesy"
)

// Patch holds the elevations of a tile plus a one-pixel border.
// Data[j][i] is the elevation at the centre of scene pixel
// (X0-1+i, Y0-1+j).
type Patch struct {
	X0, Y0        int
	Width, Height int
	NoData        float64
	Data          [][]float64
}

func newPatch(x0, y0, w, h int, noData float64) *Patch {
	cols, rows := w+2, h+2
	buf := make([]float64, cols*rows)
	for i := range buf {
		buf[i] = noData
	}
	p := &Patch{X0: x0, Y0: y0, Width: w, Height: h, NoData: noData, Data: make([][]float64, rows)}
	for j := range p.Data {
		p.Data[j] = buf[j*cols : (j+1)*cols]
	}
	return p
}

// Rect returns the scene rectangle covered by Data, border included.
func (p *Patch) Rect() image.Rectangle {
	return image.Rect(p.X0-1, p.Y0-1, p.X0+p.Width+1, p.Y0+p.Height+1)
}

// At returns the elevation of scene pixel (x, y), or NoData outside the
// patch.
func (p *Patch) At(x, y int) float64 {
	i, j := x-p.X0+1, y-p.Y0+1
	if j < 0 || j >= len(p.Data) || i < 0 || i >= len(p.Data[j]) {
		return p.NoData
	}
	return p.Data[j][i]
}

// Valid reports whether any cell holds an elevation.
func (p *Patch) Valid() bool {
	for _, row := range p.Data {
		for _, v := range row {
			if v != p.NoData {
				return true
			}
		}
	}
	return false
}

// MinMax returns the range of the cells that hold an elevation.
func (p *Patch) MinMax() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range p.Data {
		for _, v := range row {
			if v == p.NoData {
				continue
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
			ok = true
		}
	}
	return lo, hi, ok
}

// Quicklook renders the patch as a w×h grayscale image stretched between
// its lowest (gray 1) and highest (gray 255) elevation. No-data cells are
// black. A non-positive w or h keeps one image pixel per cell, border
// included.
func (p *Patch) Quicklook(w, h int) *image.Gray {
	lo, hi, _ := p.MinMax()
	return p.QuicklookRange(w, h, lo, hi)
}

// QuicklookRange is Quicklook with a fixed stretch from lo to hi, so that
// the images of neighbouring tiles share one gray scale.
func (p *Patch) QuicklookRange(w, h int, lo, hi float64) *image.Gray {
	src := image.NewGray(image.Rect(0, 0, p.Width+2, p.Height+2))
	for j, row := range p.Data {
		for i, v := range row {
			if v == p.NoData {
				continue
			}
			src.Pix[j*src.Stride+i] = gray(v, lo, hi)
		}
	}
	return scaleGray(src, w, h)
}

// Mosaic assembles the tiles of a width×height scene into one quicklook
// stretched over the elevation range of all tiles, resized to w×h when
// both are positive. Failed tiles stay black.
func Mosaic(width, height int, results []TileResult, w, h int) *image.Gray {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, t := range results {
		if t.Patch == nil {
			continue
		}
		if l, u, ok := t.Patch.MinMax(); ok {
			lo, hi = math.Min(lo, l), math.Max(hi, u)
		}
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for _, t := range results {
		if t.Patch == nil {
			continue
		}
		// Patch images carry a one-pixel border.
		draw.Draw(img, t.Rect, t.Patch.QuicklookRange(0, 0, lo, hi), image.Pt(1, 1), draw.Src)
	}
	return scaleGray(img, w, h)
}

func gray(v, lo, hi float64) uint8 {
	if hi <= lo {
		return 255
	}
	g := 1 + 254*(v-lo)/(hi-lo)
	return uint8(math.Round(math.Max(1, math.Min(255, g))))
}

func scaleGray(src *image.Gray, w, h int) *image.Gray {
	if w <= 0 || h <= 0 || src.Bounds().Size() == image.Pt(w, h) {
		return src
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func geoPos(lat, lon float64) geodesy.GeoPos {
	return geodesy.GeoPos{Lat: lat, Lon: lon}
}
