// Package reassemble builds a single georeferenced raster from a rectangular
// bundle of web tiles fetched on demand (§4.L). The caller supplies however
// it wants to obtain a decoded tile (a raster-tile blob over the network, a
// cached COG read, ...) through a fetcher callback; this package owns only
// the stitching and the cancellation/progress plumbing.
package reassemble

import (
	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/rastererr"
	"github.com/pspoerri/geotiff2raster/internal/tilemath"
)

// LatLonBounds is a WGS84 bounding box expressed as its northwest and
// southeast corners, matching how map UIs typically report a viewport.
type LatLonBounds struct {
	NWLat, NWLon float64
	SELat, SELon float64
}

// Fetcher returns the decoded tile at (z,x,y): either exactly edge*edge
// pixels of the raster's dtype, or the designated empty array for an
// off-source tile. A non-nil error aborts the reassembly.
type Fetcher func(z, x, y int) (raster.AnyArray, error)

// Progress receives one Tick per processed tile and is polled for
// cancellation after each tile (§5 cancellation policy).
type Progress interface {
	Tick()
	Cancelled() bool
}

// Reassemble stitches every tile at zoom z intersecting bounds into one
// raster, filled with dtype's nodata sentinel where no tile contributes.
// Cancellation yields a distinct Cancelled error and no partial raster,
// per §5 (the reassembler's policy differs from the MBTiles builder's
// commit-partial policy).
func Reassemble(bounds LatLonBounds, z, edge int, dtype raster.DType, fetch Fetcher, progress Progress) (raster.AnyArray, *raster.Georeference, error) {
	tlX, tlY := tilemath.LonLatToTile(bounds.NWLon, bounds.NWLat, z)
	brX, brY := tilemath.LonLatToTile(bounds.SELon, bounds.SELat, z)
	if brX < tlX {
		brX = tlX
	}
	if brY < tlY {
		brY = tlY
	}

	tilesWide := brX - tlX + 1
	tilesHigh := brY - tlY + 1
	rows := tilesHigh * edge
	cols := tilesWide * edge

	out, err := newFilledAny(dtype, rows, cols, nil)
	if err != nil {
		return raster.AnyArray{}, nil, rastererr.Runtimef("reassemble.Reassemble", "%v", err)
	}

	for ty := tlY; ty <= brY; ty++ {
		for tx := tlX; tx <= brX; tx++ {
			tile, err := fetch(z, tx, ty)
			if err != nil {
				return raster.AnyArray{}, nil, err
			}
			if !isEmptyAny(tile) {
				rows, cols := rowsColsOf(tile)
				if rows != edge || cols != edge {
					return raster.AnyArray{}, nil, rastererr.Runtimef("reassemble.Reassemble", "tile (%d,%d,%d) is %dx%d, want %dx%d", z, tx, ty, rows, cols, edge, edge)
				}
				pasteAny(out, tile, (tx-tlX)*edge, (ty-tlY)*edge)
			}

			if progress != nil {
				progress.Tick()
				if progress.Cancelled() {
					return raster.AnyArray{}, nil, rastererr.CancelledErr("reassemble.Reassemble")
				}
			}
		}
	}

	pixelSize := tilemath.PixelSize(z, edge)
	// Anchored from the top-left participating tile's northwest corner,
	// keeping sy negative consistent with the rest of this codebase's
	// affine convention (see webtile's equivalent resolution).
	originX, _, _, originY := tilemath.TileBoundsMerc(tilemath.ZXY{Z: z, X: tlX, Y: tlY})
	geo := raster.NewAxisAlignedGeoref(originX, pixelSize, originY, pixelSize, "EPSG:3857")
	return out, &geo, nil
}
