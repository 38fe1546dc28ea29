// Command cogtile converts a Cloud Optimized GeoTIFF into an MBTiles
// archive of raster-tile blobs, or extracts a single stitched raster for a
// lat/lon viewport, via internal/provider, internal/tilebuild and
// internal/reassemble.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pspoerri/geotiff2raster/internal/cog"
	"github.com/pspoerri/geotiff2raster/internal/mbtiles"
	"github.com/pspoerri/geotiff2raster/internal/provider"
	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/reassemble"
	"github.com/pspoerri/geotiff2raster/internal/rastertile"
	"github.com/pspoerri/geotiff2raster/internal/tilebuild"
)

// openReaderAt prefers a memory-mapped view of path for DecodeChunk's random
// chunk reads, falling back to f itself (already open for header parsing)
// on platforms or filesystems where mmap isn't available. The returned
// closer releases whichever backing store was actually used; f stays open
// either way since callers defer their own Close on it.
func openReaderAt(path string, f *os.File, verbose bool) (io.ReaderAt, func()) {
	m, err := cog.OpenMmapped(path)
	if err != nil {
		if verbose {
			log.Printf("mmap unavailable for %s, falling back to ordinary reads: %v", path, err)
		}
		return f, func() {}
	}
	return m, func() { m.Close() }
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "tile":
		runTile(os.Args[2:])
	case "extract":
		runExtract(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: cogtile <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  tile     <input.tif> <output.mbtiles>   convert a COG into an MBTiles archive\n")
	fmt.Fprintf(os.Stderr, "  extract  <input.tif> <output.rastertile> stitch a lat/lon viewport into one raster-tile blob\n")
}

func runTile(args []string) {
	fs := flag.NewFlagSet("tile", flag.ExitOnError)
	var (
		minZoom     int
		maxZoom     int
		tileSize    int
		concurrency int
		scheme      string
		verbose     bool
	)
	fs.IntVar(&minZoom, "min-zoom", -1, "Minimum zoom level (default: max-zoom minus 6)")
	fs.IntVar(&maxZoom, "max-zoom", -1, "Maximum zoom level (default: auto from source resolution)")
	fs.IntVar(&tileSize, "tile-size", 256, "Output tile edge in pixels")
	fs.IntVar(&concurrency, "concurrency", runtime.NumCPU(), "Number of parallel render workers")
	fs.StringVar(&scheme, "scheme", "xyz", "Tile row axis convention stored on disk: xyz or tms")
	fs.BoolVar(&verbose, "verbose", false, "Verbose progress output")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: cogtile tile [flags] <input.tif> <output.mbtiles>\n")
		fs.PrintDefaults()
		os.Exit(1)
	}
	inputPath, outputPath := rest[0], rest[1]

	sch := mbtiles.XYZ
	if strings.EqualFold(scheme, "tms") {
		sch = mbtiles.TMS
	} else if !strings.EqualFold(scheme, "xyz") {
		log.Fatalf("Unknown scheme %q (want xyz or tms)", scheme)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		log.Fatalf("Opening %s: %v", inputPath, err)
	}
	defer f.Close()

	start := time.Now()
	meta, err := cog.Open(f)
	if err != nil {
		log.Fatalf("Parsing COG: %v", err)
	}

	src, closeSrc := openReaderAt(inputPath, f, verbose)
	defer closeSrc()

	p := provider.New()
	const layerID = "layer"
	if err := p.AddLayer(layerID, src, meta, tileSize, provider.LayerMetadata{
		Name:       layerID,
		SourcePath: inputPath,
	}); err != nil {
		log.Fatalf("Registering layer: %v", err)
	}
	layer, err := p.Layer(layerID)
	if err != nil {
		log.Fatalf("Layer: %v", err)
	}

	if maxZoom < 0 {
		maxZoom = layer.MaxZoom
	}
	if minZoom < 0 {
		minZoom = maxZoom - 6
		if minZoom < layer.MinZoom {
			minZoom = layer.MinZoom
		}
	}
	if verbose {
		log.Printf("Opened %s in %v; zoom range %d-%d (layer native max %d)",
			inputPath, time.Since(start).Round(time.Millisecond), minZoom, maxZoom, layer.MaxZoom)
	}

	w, err := mbtiles.Open(outputPath, sch)
	if err != nil {
		log.Fatalf("Creating MBTiles writer: %v", err)
	}

	buildOpts := tilebuild.Options{
		LayerID:     layerID,
		MinZoom:     minZoom,
		MaxZoom:     maxZoom,
		Edge:        tileSize,
		Concurrency: concurrency,
		Scheme:      sch,
	}
	buildMeta := map[string]string{
		"name":    layerID,
		"format":  "raster-tile",
		"bounds":  fmt.Sprintf("%g,%g,%g,%g", layer.BoundsWGS84.MinX, layer.BoundsWGS84.MinY, layer.BoundsWGS84.MaxX, layer.BoundsWGS84.MaxY),
		"minzoom": strconv.Itoa(minZoom),
		"maxzoom": strconv.Itoa(maxZoom),
	}

	if err := tilebuild.Build(p, buildOpts, w, buildMeta, nil); err != nil {
		w.Rollback()
		w.Close()
		log.Fatalf("Building tiles: %v", err)
	}
	if err := w.Close(); err != nil {
		log.Fatalf("Closing MBTiles file: %v", err)
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	fi, _ := os.Stat(outputPath)
	fmt.Printf("Done: zoom %d-%d, %s, %v -> %s\n", minZoom, maxZoom, humanSize(fi.Size()), elapsed, outputPath)
}

func runExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	var (
		nwLat, nwLon, seLat, seLon float64
		zoom                       int
		tileSize                   int
	)
	fs.Float64Var(&nwLat, "nw-lat", 0, "Northwest corner latitude")
	fs.Float64Var(&nwLon, "nw-lon", 0, "Northwest corner longitude")
	fs.Float64Var(&seLat, "se-lat", 0, "Southeast corner latitude")
	fs.Float64Var(&seLon, "se-lon", 0, "Southeast corner longitude")
	fs.IntVar(&zoom, "zoom", 10, "Zoom level to stitch at")
	fs.IntVar(&tileSize, "tile-size", 256, "Tile edge in pixels")
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: cogtile extract [flags] <input.tif> <output.rastertile>\n")
		fs.PrintDefaults()
		os.Exit(1)
	}
	inputPath, outputPath := rest[0], rest[1]

	f, err := os.Open(inputPath)
	if err != nil {
		log.Fatalf("Opening %s: %v", inputPath, err)
	}
	defer f.Close()

	meta, err := cog.Open(f)
	if err != nil {
		log.Fatalf("Parsing COG: %v", err)
	}

	src, closeSrc := openReaderAt(inputPath, f, false)
	defer closeSrc()

	p := provider.New()
	const layerID = "layer"
	if err := p.AddLayer(layerID, src, meta, tileSize, provider.LayerMetadata{Name: layerID, SourcePath: inputPath}); err != nil {
		log.Fatalf("Registering layer: %v", err)
	}

	bounds := reassemble.LatLonBounds{NWLat: nwLat, NWLon: nwLon, SELat: seLat, SELon: seLon}
	fetch := func(z, x, y int) (raster.AnyArray, error) {
		blob, err := p.Tile(layerID, provider.TileRequest{Z: z, X: x, Y: y, Edge: tileSize})
		if err != nil {
			return raster.AnyArray{}, err
		}
		return rastertile.Decode(blob)
	}

	out, geo, err := reassemble.Reassemble(bounds, zoom, tileSize, meta.DType, fetch, nil)
	if err != nil {
		log.Fatalf("Reassembling: %v", err)
	}
	blob, err := rastertile.Encode(out)
	if err != nil {
		log.Fatalf("Encoding raster-tile blob: %v", err)
	}
	if err := os.WriteFile(outputPath, blob, 0o644); err != nil {
		log.Fatalf("Writing %s: %v", outputPath, err)
	}

	m := out.Metadata()
	fmt.Printf("Done: %dx%d px, origin (%g,%g), pixel size %g -> %s\n", m.Cols, m.Rows, geo.Affine[0], geo.Affine[3], geo.Affine[1], outputPath)
}

func humanSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
