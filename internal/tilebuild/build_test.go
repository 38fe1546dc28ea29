package tilebuild

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/pspoerri/geotiff2raster/internal/cog"
	"github.com/pspoerri/geotiff2raster/internal/mbtiles"
	"github.com/pspoerri/geotiff2raster/internal/provider"
	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/tilemath"

	_ "github.com/mattn/go-sqlite3"
)

const testEdge = 256

func singleChunkU8Layer(t *testing.T, p *provider.Provider, id string, z, x, y int, fill uint8) {
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

	if err := p.AddLayer(id, bytes.NewReader(raw), meta, testEdge, provider.LayerMetadata{Name: id}); err != nil {
		t.Fatalf("AddLayer: %v", err)
	}
}

func TestBuildWritesOneTilePerZoom(t *testing.T) {
	p := provider.New()
	singleChunkU8Layer(t, p, "elevation", 10, 5, 7, 42)

	dbPath := filepath.Join(t.TempDir(), "out.mbtiles")
	w, err := mbtiles.Open(dbPath, mbtiles.XYZ)
	if err != nil {
		t.Fatalf("mbtiles.Open: %v", err)
	}

	err = Build(p, Options{
		LayerID:     "elevation",
		MinZoom:     10,
		MaxZoom:     10,
		Edge:        testEdge,
		Concurrency: 4,
		Scheme:      mbtiles.XYZ,
	}, w, map[string]string{"name": "elevation", "format": "tile"}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("select count(*) from tiles").Scan(&count); err != nil {
		t.Fatalf("count tiles: %v", err)
	}
	if count != 1 {
		t.Fatalf("tiles count = %d, want 1", count)
	}

	var name string
	if err := db.QueryRow("select value from metadata where name='name'").Scan(&name); err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if name != "elevation" {
		t.Fatalf("metadata name = %q, want %q", name, "elevation")
	}
}

func TestBuildRejectsInvertedZoomRange(t *testing.T) {
	p := provider.New()
	singleChunkU8Layer(t, p, "elevation", 10, 5, 7, 1)

	dbPath := filepath.Join(t.TempDir(), "out.mbtiles")
	w, err := mbtiles.Open(dbPath, mbtiles.XYZ)
	if err != nil {
		t.Fatalf("mbtiles.Open: %v", err)
	}
	defer w.Rollback()
	defer w.Close()

	err = Build(p, Options{LayerID: "elevation", MinZoom: 10, MaxZoom: 5, Edge: testEdge}, w, nil, nil)
	if err == nil {
		t.Fatal("expected error for max zoom below min zoom")
	}
}
