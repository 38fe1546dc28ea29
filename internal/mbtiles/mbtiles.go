// Package mbtiles writes tiles into an MBTiles-schema SQLite database
// (§4.M, boundary-only). It is grounded on the mbtiles writers elsewhere in
// the retrieved pack (ragsagar-mbtilego's setupMBTileTables/addToMBTile,
// tarkov-database-tileserver's core/mbtiles): a single-writer transaction
// batching every tile and metadata row insert, with SQLITE_BUSY retry
// around each statement.
package mbtiles

import (
	"database/sql"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/pspoerri/geotiff2raster/internal/rastererr"
)

// Scheme selects the on-disk row axis for tiles(tile_row), per spec §8:
// TMS flips the row index (y = 2^z-1-googleY); XYZ stores it verbatim.
type Scheme string

const (
	XYZ Scheme = "xyz"
	TMS Scheme = "tms"
)

// Tile is one encoded tile queued for insertion.
type Tile struct {
	Z, X, Y int
	Blob    []byte
}

// Progress receives one Tick per tile drained from the queue and is
// polled for cancellation; see Writer.Build's commit-partial policy.
type Progress interface {
	Tick()
	Cancelled() bool
}

const (
	maxBusyRetries = 8
	busyBackoff    = 2 * time.Millisecond
)

// Writer owns a single SQLite connection and the open transaction used to
// batch every tile and metadata row insert.
type Writer struct {
	db      *sql.DB
	tx      *sql.Tx
	insert  *sql.Stmt
	scheme  Scheme
}

// Open creates the MBTiles file at path if absent (an existing file is
// opened and its rows kept), creates its schema
// if absent, and begins the single transaction every subsequent insert
// runs in. The connection pool is capped at one: MBTiles writing is a
// single-writer affair and a second connection would just contend for the
// same SQLITE_BUSY lock this package already retries around.
func Open(path string, scheme Scheme) (*Writer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, rastererr.IOf("mbtiles.Open", "%v", err)
	}
	db.SetMaxOpenConns(1)

	if err := execRetry(db, nil, "create table if not exists metadata (name text, value text);"); err != nil {
		db.Close()
		return nil, err
	}
	if err := execRetry(db, nil, "create unique index if not exists metadata_name on metadata (name);"); err != nil {
		db.Close()
		return nil, err
	}
	if err := execRetry(db, nil, "create table if not exists tiles (zoom_level integer, tile_column integer, tile_row integer, tile_data blob);"); err != nil {
		db.Close()
		return nil, err
	}
	if err := execRetry(db, nil, "create unique index if not exists tiles_zxy on tiles (zoom_level, tile_column, tile_row);"); err != nil {
		db.Close()
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, rastererr.IOf("mbtiles.Open", "%v", err)
	}
	stmt, err := tx.Prepare("insert or replace into tiles (zoom_level, tile_column, tile_row, tile_data) values (?, ?, ?, ?);")
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, rastererr.IOf("mbtiles.Open", "%v", err)
	}

	return &Writer{db: db, tx: tx, insert: stmt, scheme: scheme}, nil
}

// Build drains tiles in arrival order, the single consumer of whatever
// worker pool produced them (§5's "tile emission is serialized through a
// single-consumer channel"). After progress reports cancellation, the
// remaining queued tiles are drained and discarded rather than inserted,
// and Build still commits whatever was written so far: MBTiles accepts a
// commit-partial archive, unlike the reassembler's all-or-nothing raster.
func (w *Writer) Build(tiles <-chan Tile, meta map[string]string, progress Progress) error {
	cancelled := false
	for t := range tiles {
		if cancelled {
			continue
		}
		if err := w.putTile(t); err != nil {
			return err
		}
		if progress != nil {
			progress.Tick()
			if progress.Cancelled() {
				cancelled = true
			}
		}
	}

	if err := w.putMetadata(meta); err != nil {
		return err
	}
	if err := w.insert.Close(); err != nil {
		return rastererr.IOf("mbtiles.Build", "%v", err)
	}
	if err := w.tx.Commit(); err != nil {
		return rastererr.IOf("mbtiles.Build", "%v", err)
	}
	return nil
}

func (w *Writer) putTile(t Tile) error {
	row := t.Y
	if w.scheme == TMS {
		row = (1<<uint(t.Z) - 1) - t.Y
	}
	return stmtExecRetry(w.insert, t.Z, t.X, row, t.Blob)
}

func (w *Writer) putMetadata(meta map[string]string) error {
	for name, value := range meta {
		if err := execRetry(nil, w.tx, "insert into metadata (name, value) values (?, ?);", name, value); err != nil {
			return err
		}
	}
	return nil
}

// Close finalizes resources without committing; callers that abort before
// reaching Build's final commit (e.g. on an Open-time schema error, or a
// decision to discard the whole archive) should Rollback then Close.
func (w *Writer) Close() error {
	return w.db.Close()
}

// Rollback discards the open transaction instead of committing it.
func (w *Writer) Rollback() error {
	if err := w.insert.Close(); err != nil {
		return rastererr.IOf("mbtiles.Rollback", "%v", err)
	}
	return w.tx.Rollback()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func execRetry(db *sql.DB, tx *sql.Tx, query string, args ...any) error {
	var exec execer
	if tx != nil {
		exec = tx
	} else {
		exec = db
	}
	var lastErr error
	for attempt := 0; attempt < maxBusyRetries; attempt++ {
		_, err := exec.Exec(query, args...)
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return rastererr.IOf("mbtiles", "%v", err)
		}
		lastErr = err
		time.Sleep(busyBackoff * time.Duration(attempt+1))
	}
	return rastererr.IOf("mbtiles", "database locked after %d retries: %v", maxBusyRetries, lastErr)
}

func stmtExecRetry(stmt *sql.Stmt, args ...any) error {
	var lastErr error
	for attempt := 0; attempt < maxBusyRetries; attempt++ {
		_, err := stmt.Exec(args...)
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return rastererr.Runtimef("mbtiles.putTile", "%v", err)
		}
		lastErr = err
		time.Sleep(busyBackoff * time.Duration(attempt+1))
	}
	return rastererr.IOf("mbtiles.putTile", "database locked after %d retries: %v", maxBusyRetries, lastErr)
}

func isBusy(err error) bool {
	sqliteErr, ok := err.(sqlite3.Error)
	if !ok {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}
