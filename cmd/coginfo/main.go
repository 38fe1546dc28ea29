// Command coginfo prints a Cloud Optimized GeoTIFF's parsed header: dtype,
// nodata, the resolution pyramid, GDAL statistics, and a sample of pixel
// values from the first chunk of the main image.
package main

import (
	"fmt"
	"os"

	"github.com/pspoerri/geotiff2raster/internal/cog"
	"github.com/pspoerri/geotiff2raster/internal/raster"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: coginfo <file.tif>\n")
		os.Exit(1)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	meta, err := cog.Open(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File: %s\n", os.Args[1])
	fmt.Printf("DType: %s\n", meta.DType)
	if meta.Nodata != nil {
		fmt.Printf("Nodata: %g\n", *meta.Nodata)
	} else {
		fmt.Printf("Nodata: (none)\n")
	}
	if meta.HasMaxZoom {
		fmt.Printf("Declared max zoom: %d\n", meta.MaxZoom)
	}
	if meta.Stats.HasStats {
		fmt.Printf("Stats: min=%g max=%g mean=%g stddev=%g valid=%.1f%%\n",
			meta.Stats.Minimum, meta.Stats.Maximum, meta.Stats.Mean, meta.Stats.StdDev, meta.Stats.ValidPercent)
	}

	fmt.Printf("Levels: %d (1 main + %d overviews)\n", len(meta.Levels), len(meta.Levels)-1)
	for i, lvl := range meta.Levels {
		pw, ph := lvl.Geo.PixelSize()
		fmt.Printf("  level %d: %dx%d px, chunk %dx%d, grid %dx%d chunks, pixel size %g x %g, CRS %s\n",
			i, lvl.Width, lvl.Height, lvl.ChunkWidth, lvl.ChunkHeight, lvl.ChunksAcross, lvl.ChunksDown, pw, ph, lvl.Geo.CRS)

		b := raster.BoundsOf(lvl.Geo, lvl.Height, lvl.Width)
		fmt.Printf("    bounds: [%g, %g, %g, %g]\n", b.MinX, b.MinY, b.MaxX, b.MaxY)

		if i == 0 {
			arr, err := cog.DecodeChunk(f, meta, &lvl, 0, 0, nil)
			if err != nil {
				fmt.Printf("    chunk (0,0): ERROR: %v\n", err)
				continue
			}
			samplePixels(arr, 5)
		}
	}
}

func samplePixels(a raster.AnyArray, count int) {
	m := a.Metadata()
	if m.Cols == 0 || m.Rows == 0 {
		fmt.Printf("    chunk (0,0): empty (sparse)\n")
		return
	}
	step := m.Cols / (count + 1)
	if step < 1 {
		step = 1
	}
	fmt.Printf("    sample pixels (diagonal of chunk 0,0):\n")
	for i := 1; i <= count; i++ {
		x := i * step
		y := i * step
		if x >= m.Cols || y >= m.Rows {
			break
		}
		idx := y*m.Cols + x
		v, ok := valueAt(a, idx)
		if !ok {
			fmt.Printf("      (%d,%d): nodata\n", x, y)
			continue
		}
		fmt.Printf("      (%d,%d): %g\n", x, y, v)
	}
}

// valueAt returns the value at flat index idx as a float64, and false if idx
// is out of range for the populated variant.
func valueAt(a raster.AnyArray, idx int) (float64, bool) {
	switch a.DType {
	case raster.I8:
		return valueOf(a.I8.Data.Values(), idx)
	case raster.U8:
		return valueOf(a.U8.Data.Values(), idx)
	case raster.I16:
		return valueOf(a.I16.Data.Values(), idx)
	case raster.U16:
		return valueOf(a.U16.Data.Values(), idx)
	case raster.I32:
		return valueOf(a.I32.Data.Values(), idx)
	case raster.U32:
		return valueOf(a.U32.Data.Values(), idx)
	case raster.I64:
		return valueOf(a.I64.Data.Values(), idx)
	case raster.U64:
		return valueOf(a.U64.Data.Values(), idx)
	case raster.F32:
		return valueOf(a.F32.Data.Values(), idx)
	case raster.F64:
		return valueOf(a.F64.Data.Values(), idx)
	default:
		return 0, false
	}
}

func valueOf[T raster.Pixel](values []T, idx int) (float64, bool) {
	if idx < 0 || idx >= len(values) {
		return 0, false
	}
	return float64(values[idx]), true
}
