package mbtiles

import (
	"database/sql"
	"path/filepath"
	"testing"
)

type fakeProgress struct {
	ticks    int
	cancelAt int
}

func (p *fakeProgress) Tick() { p.ticks++ }
func (p *fakeProgress) Cancelled() bool {
	return p.cancelAt > 0 && p.ticks >= p.cancelAt
}

func countRows(t *testing.T, path, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("select count(*) from " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestBuildInsertsAllTilesAndMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mbtiles")
	w, err := Open(path, XYZ)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ch := make(chan Tile, 3)
	ch <- Tile{Z: 5, X: 1, Y: 2, Blob: []byte("a")}
	ch <- Tile{Z: 5, X: 1, Y: 3, Blob: []byte("b")}
	ch <- Tile{Z: 5, X: 2, Y: 2, Blob: []byte("c")}
	close(ch)

	meta := map[string]string{"name": "test", "format": "raster", "minzoom": "0", "maxzoom": "5"}
	if err := w.Build(ch, meta, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if n := countRows(t, path, "tiles"); n != 3 {
		t.Errorf("tiles rows = %d, want 3", n)
	}
	if n := countRows(t, path, "metadata"); n != len(meta) {
		t.Errorf("metadata rows = %d, want %d", n, len(meta))
	}
}

func TestBuildXYZStoresRowVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xyz.mbtiles")
	w, err := Open(path, XYZ)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ch := make(chan Tile, 1)
	ch <- Tile{Z: 4, X: 3, Y: 7, Blob: []byte("x")}
	close(ch)
	if err := w.Build(ch, nil, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	w.Close()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var row int
	if err := db.QueryRow("select tile_row from tiles where zoom_level=4 and tile_column=3").Scan(&row); err != nil {
		t.Fatalf("query: %v", err)
	}
	if row != 7 {
		t.Errorf("tile_row = %d, want 7 (xyz verbatim)", row)
	}
}

func TestBuildTMSFlipsRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tms.mbtiles")
	w, err := Open(path, TMS)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ch := make(chan Tile, 1)
	ch <- Tile{Z: 4, X: 3, Y: 7, Blob: []byte("x")}
	close(ch)
	if err := w.Build(ch, nil, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	w.Close()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var row int
	if err := db.QueryRow("select tile_row from tiles where zoom_level=4 and tile_column=3").Scan(&row); err != nil {
		t.Fatalf("query: %v", err)
	}
	want := (1 << 4) - 1 - 7 // 2^z-1-googleY
	if row != want {
		t.Errorf("tile_row = %d, want %d (tms flipped)", row, want)
	}
}

func TestBuildCancellationCommitsPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.mbtiles")
	w, err := Open(path, XYZ)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ch := make(chan Tile, 5)
	for i := 0; i < 5; i++ {
		ch <- Tile{Z: 3, X: i, Y: 0, Blob: []byte{byte(i)}}
	}
	close(ch)

	progress := &fakeProgress{cancelAt: 2}
	if err := w.Build(ch, nil, progress); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Cancellation after the 2nd tick still commits whatever was written,
	// rather than rolling back or returning an error.
	n := countRows(t, path, "tiles")
	if n == 0 || n >= 5 {
		t.Errorf("tiles rows = %d, want a partial commit strictly between 0 and 5", n)
	}
}

func TestBuildMissingTileLookupReturnsEmptyNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.mbtiles")
	w, err := Open(path, XYZ)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ch := make(chan Tile)
	close(ch)
	if err := w.Build(ch, nil, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	w.Close()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var blob []byte
	err = db.QueryRow("select tile_data from tiles where zoom_level=9 and tile_column=9 and tile_row=9").Scan(&blob)
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows for a tile absent from the archive, got %v", err)
	}
}
