package provider

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/pspoerri/geotiff2raster/internal/cog"
	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/tilemath"
)

const testEdge = 256

// singleChunkU8Layer builds a one-level, one-chunk Web Mercator COG whose
// every pixel is fill, registered as id in p.
func singleChunkU8Layer(t *testing.T, p *Provider, id string, z, x, y int, fill uint8) {
	t.Helper()
	pixelSize := tilemath.PixelSize(z, testEdge)
	minX, _, _, maxY := tilemath.TileBoundsMerc(tilemath.ZXY{Z: z, X: x, Y: y})

	raw := make([]byte, testEdge*testEdge)
	for i := range raw {
		raw[i] = fill
	}
	level := cog.Level{
		Width: testEdge, Height: testEdge,
		ChunkWidth: testEdge, ChunkHeight: testEdge,
		ChunksAcross: 1, ChunksDown: 1,
		Compression: 1, Predictor: 1, // TIFF codes: no compression, no predictor
		Chunks: []cog.ChunkLocation{{Offset: 0, Size: uint64(len(raw))}},
		Geo:    raster.NewAxisAlignedGeoref(minX, pixelSize, maxY, pixelSize, "EPSG:3857"),
	}
	meta := &cog.Metadata{DType: raster.U8, Levels: []cog.Level{level}}

	if err := p.AddLayer(id, bytes.NewReader(raw), meta, testEdge, LayerMetadata{Name: id}); err != nil {
		t.Fatalf("AddLayer: %v", err)
	}
}

func TestLayersAndLayer(t *testing.T) {
	p := New()
	singleChunkU8Layer(t, p, "elevation", 10, 5, 7, 100)

	layers := p.Layers()
	if len(layers) != 1 {
		t.Fatalf("Layers() = %d entries, want 1", len(layers))
	}

	meta, err := p.Layer("elevation")
	if err != nil {
		t.Fatalf("Layer: %v", err)
	}
	if meta.MinZoom != 10 || meta.MaxZoom != 10 {
		t.Errorf("zoom range = [%d,%d], want [10,10]", meta.MinZoom, meta.MaxZoom)
	}

	if _, err := p.Layer("missing"); err == nil {
		t.Fatal("expected error for unknown layer id")
	}
}

func TestTileRoundTripsThroughRasterTileBlob(t *testing.T) {
	p := New()
	singleChunkU8Layer(t, p, "elevation", 10, 5, 7, 42)

	blob, err := p.Tile("elevation", TileRequest{Z: 10, X: 5, Y: 7, Edge: testEdge})
	if err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if len(blob) == 0 {
		t.Fatal("expected non-empty blob")
	}
}

func TestValueRangeScansNonNodataPixels(t *testing.T) {
	p := New()
	singleChunkU8Layer(t, p, "elevation", 10, 5, 7, 77)

	minLon, minLat, maxLon, maxLat := tilemath.TileBounds(tilemath.ZXY{Z: 10, X: 5, Y: 7})
	// Nudge inward so the query rectangle lands unambiguously inside tile
	// (5,7) regardless of floating-point rounding at the shared edge with
	// neighboring tiles.
	lonPad := (maxLon - minLon) * 0.01
	latPad := (maxLat - minLat) * 0.01
	bounds := raster.Bounds{MinX: minLon + lonPad, MinY: minLat + latPad, MaxX: maxLon - lonPad, MaxY: maxLat - latPad}

	min, max, found, err := p.ValueRange("elevation", bounds, nil)
	if err != nil {
		t.Fatalf("ValueRange: %v", err)
	}
	if !found {
		t.Fatal("expected data in range")
	}
	if min != 77 || max != 77 {
		t.Errorf("range = [%v,%v], want [77,77]", min, max)
	}
}

func TestPixelValueReadsSampledPixel(t *testing.T) {
	p := New()
	singleChunkU8Layer(t, p, "elevation", 10, 5, 7, 77)

	minLon, minLat, maxLon, maxLat := tilemath.TileBounds(tilemath.ZXY{Z: 10, X: 5, Y: 7})
	centerLon := (minLon + maxLon) / 2
	centerLat := (minLat + maxLat) / 2

	v, err := p.PixelValue("elevation", centerLon, centerLat, 1)
	if err != nil {
		t.Fatalf("PixelValue: %v", err)
	}
	if v == nil {
		t.Fatal("expected a sampled value, got nil")
	}
	if *v != 77 {
		t.Errorf("value = %v, want 77", *v)
	}
}

func TestPixelValueUnknownLayerIsError(t *testing.T) {
	p := New()
	if _, err := p.PixelValue("missing-layer", 0, 0, 1); err == nil {
		t.Fatal("expected error for unknown layer")
	}
}

func TestColoredTileProducesPNGBytes(t *testing.T) {
	p := New()
	singleChunkU8Layer(t, p, "elevation", 10, 5, 7, 128)

	legend := Legend{
		Min:   0,
		Max:   255,
		Stops: []color.RGBA{{0, 0, 0, 255}, {255, 255, 255, 255}},
	}
	blob, err := p.ColoredTile("elevation", ColoredTileRequest{
		TileRequest: TileRequest{Z: 10, X: 5, Y: 7, Edge: testEdge},
		Legend:      legend,
		Format:      "png",
	})
	if err != nil {
		t.Fatalf("ColoredTile: %v", err)
	}
	if len(blob) < 8 || string(blob[1:4]) != "PNG" {
		t.Fatalf("expected a PNG signature, got %d bytes", len(blob))
	}
}

func TestSampleRampEndpoints(t *testing.T) {
	stops := []color.RGBA{{0, 0, 0, 255}, {100, 150, 200, 255}}
	if c := sampleRamp(stops, 0); c != stops[0] {
		t.Errorf("t=0: got %v, want %v", c, stops[0])
	}
	if c := sampleRamp(stops, 1); c != stops[1] {
		t.Errorf("t=1: got %v, want %v", c, stops[1])
	}
	mid := sampleRamp(stops, 0.5)
	if mid.R != 50 || mid.G != 75 || mid.B != 100 {
		t.Errorf("t=0.5: got %v, want midpoint", mid)
	}
}
