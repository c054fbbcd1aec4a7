// Command demgrid resamples a synthetic DEM onto a north-up image and
// reports the per-tile results.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/gogpu/terrain"
	"github.com/gogpu/terrain/dem"
)

func main() {
	var (
		width     = flag.Int("width", 512, "image width")
		height    = flag.Int("height", 512, "image height")
		tileSize  = flag.Int("tile", 64, "tile size in pixels")
		method    = flag.String("method", "direct", "resampling method: direct or delaunay")
		workers   = flag.Int("workers", 0, "worker goroutines (0 = GOMAXPROCS)")
		res       = flag.Float64("res", 0.001, "pixel size in degrees")
		lat0      = flag.Float64("lat0", 46.5, "latitude of the upper image edge")
		lon0      = flag.Float64("lon0", 179.8, "longitude of the left image edge")
		geoidPath = flag.String("geoid", "", "geoid table; a constant 20 m geoid is used when empty")
		atSea     = flag.Bool("nodata-at-sea", false, "keep DEM gaps as no-data")
		output    = flag.String("png", "", "write a grayscale quicklook of the scene")
		pngWidth  = flag.Int("png-width", 0, "quicklook width; 0 keeps one pixel per image pixel")
		verbose   = flag.Bool("v", false, "debug logging")
		version   = flag.Bool("version", false, "print the library version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println("terrain", terrain.Version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	terrain.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	m, err := dem.ParseMethod(*method)
	if err != nil {
		log.Fatal(err)
	}

	var geoid dem.Geoid = dem.ConstantGeoid(20)
	if *geoidPath != "" {
		f, err := os.Open(*geoidPath)
		if err != nil {
			log.Fatal(err)
		}
		g, err := dem.ReadGeoidGrid(f)
		_ = f.Close()
		if err != nil {
			log.Fatalf("Failed to read geoid: %v", err)
		}
		geoid = g
	}

	model, err := dem.NewCachedModel(syntheticSource(), dem.ResampleBilinear, dem.DefaultCacheConfig)
	if err != nil {
		log.Fatal(err)
	}
	defer model.Close()

	georef := dem.NewAffineGeoref(*lat0, *lon0, *res, *res, *width, *height)
	r := dem.NewResampler(model, georef,
		dem.WithMethod(m),
		dem.WithWorkers(*workers),
		dem.WithGeoid(geoid),
		dem.WithNodataAtSea(*atSea),
		dem.WithGeometry(georef))

	start := time.Now()
	results := r.Scene(*width, *height, *tileSize)
	elapsed := time.Since(start)

	var valid, failed int
	for _, t := range results {
		switch {
		case t.Err != nil:
			failed++
			terrain.Logger().Error("tile failed", "tile", t.Rect, "error", t.Err)
		case t.Valid:
			valid++
			lo, hi, _ := t.Patch.MinMax()
			terrain.Logger().Debug("tile", "tile", t.Rect, "min", lo, "max", hi)
		default:
			terrain.Logger().Debug("tile has no data", "tile", t.Rect)
		}
	}
	terrain.Logger().Info("scene done",
		"method", m, "tiles", len(results), "valid", valid, "failed", failed,
		"blocks", model.Loads(), "elapsed", elapsed)

	if *output != "" {
		w, h := 0, 0
		if *pngWidth > 0 {
			w, h = *pngWidth, max(1, *pngWidth * *height / max(1, *width))
		}
		if err := writeQuicklook(*output, dem.Mosaic(*width, *height, results, w, h)); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		terrain.Logger().Info("quicklook saved", "path", *output)
	}
}

// syntheticSource is a global 30 arc-second DEM of rolling hills with a
// sea where the terrain would fall below zero.
func syntheticSource() dem.FuncSource {
	const noData = -32768
	return dem.FuncSource{
		Grid: dem.GridSpec{
			North: 90, West: -180,
			LatStep: 1.0 / 120, LonStep: 1.0 / 120,
			Cols: 360 * 120, Rows: 180*120 + 1,
			NoData: noData,
		},
		Block: 256,
		F: func(lat, lon float64) float64 {
			h := 400*math.Sin(lat*7*math.Pi/180)*math.Cos(lon*11*math.Pi/180) + 150
			if h < 0 {
				return noData
			}
			return h
		},
	}
}

func writeQuicklook(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
