// Package webtile maps a Web Mercator (z,x,y) tile request onto one or more
// chunks of an open COG and stitches them into a single georeferenced output
// tile (§4.J). A source restricted to the GoogleMapsCompatible tiling scheme
// shares the output tile grid's pixel size exactly, so this is a direct
// chunk-intersection paste rather than a per-pixel reprojection: no
// resampling is needed, only integer pixel offsets between the tile and the
// chosen overview level.
package webtile

import (
	"io"
	"math"

	"github.com/pspoerri/geotiff2raster/internal/cog"
	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/rastererr"
	"github.com/pspoerri/geotiff2raster/internal/tilemath"
)

// webMercatorCRS is the only source CRS this reader accepts; anything else
// is refused rather than reprojected (§9 open question: this spec declares
// refusal).
const webMercatorCRS = "EPSG:3857"

// Reader answers web-tile requests against a single open COG. It is safe
// for concurrent use: Metadata is immutable once parsed and Source is only
// ever read through positioned reads (§5 shared resource policy).
type Reader struct {
	Source io.ReaderAt
	Meta   *cog.Metadata

	zmax int
	zmin int
}

// Open validates meta's main level is in Web Mercator and derives the
// source's canonical zoom range, ready to answer Tile requests.
func Open(src io.ReaderAt, meta *cog.Metadata, edge int) (*Reader, error) {
	if len(meta.Levels) == 0 {
		return nil, rastererr.Format("webtile.Open", "COG has no resolution levels")
	}
	main := &meta.Levels[0]
	if main.Geo.CRS != webMercatorCRS {
		return nil, rastererr.Format("webtile.Open", "source CRS %q is not Web Mercator; reprojection is out of scope", main.Geo.CRS)
	}

	zmax := zoomForCellSize(main.CellSize(), edge)
	zmin := zmax - (len(meta.Levels) - 1)
	if zmin < 0 {
		zmin = 0
	}

	return &Reader{Source: src, Meta: meta, zmax: zmax, zmin: zmin}, nil
}

// zoomForCellSize returns the integer web-map zoom whose pixel_size(z,edge)
// equals cellSize, per §4.J step 1.
func zoomForCellSize(cellSize float64, edge int) int {
	if cellSize <= 0 {
		return 0
	}
	return int(math.Round(math.Log2(tilemath.EarthCircumference / (float64(edge) * cellSize))))
}

// Zmax and Zmin report the reader's supported zoom range.
func (r *Reader) Zmax() int { return r.zmax }
func (r *Reader) Zmin() int { return r.zmin }

// Tile decodes the edge x edge output tile at (z,x,y), paste-stitched from
// the source chunks that intersect it at the matching overview level. It
// returns the designated empty array (no error) if the tile is outside
// [Zmin,Zmax] or off the source's raster extent.
func (r *Reader) Tile(z, x, y, edge int) (raster.AnyArray, *raster.Georeference, error) {
	if z < r.zmin || z > r.zmax {
		return raster.NewAnyEmpty(r.Meta.DType), nil, nil
	}
	n := 1 << uint(z)
	if x < 0 || x >= n || y < 0 || y >= n {
		return raster.AnyArray{}, nil, rastererr.Invalid("webtile.Tile", "tile (%d,%d) out of range for zoom %d", x, y, z)
	}

	levelIdx := r.zmax - z
	level := &r.Meta.Levels[levelIdx]

	minX, _, _, maxY := tilemath.TileBoundsMerc(tilemath.ZXY{Z: z, X: x, Y: y})

	// Assumes the source pixel size equals the tile's (GoogleMapsCompatible
	// alignment, §4.G/§6): the tile's top-left corner maps to an (almost)
	// integer source pixel coordinate.
	col0F, row0F, err := level.Geo.PointToCell(minX, maxY)
	if err != nil {
		return raster.AnyArray{}, nil, rastererr.Runtimef("webtile.Tile", "%v", err)
	}
	col0 := int(math.Round(col0F))
	row0 := int(math.Round(row0F))
	col1 := col0 + edge
	row1 := row0 + edge

	// Clip against the level's pixel grid.
	clipC0, clipC1 := clampRange(col0, col1, 0, level.Width)
	clipR0, clipR1 := clampRange(row0, row1, 0, level.Height)
	if clipC0 >= clipC1 || clipR0 >= clipR1 {
		return raster.NewAnyEmpty(r.Meta.DType), nil, nil
	}

	out, err := newFilledAny(r.Meta.DType, edge, edge, r.Meta.Nodata)
	if err != nil {
		return raster.AnyArray{}, nil, rastererr.Runtimef("webtile.Tile", "%v", err)
	}

	firstChunkCol := clipC0 / level.ChunkWidth
	lastChunkCol := (clipC1 - 1) / level.ChunkWidth
	firstChunkRow := clipR0 / level.ChunkHeight
	lastChunkRow := (clipR1 - 1) / level.ChunkHeight

	for crow := firstChunkRow; crow <= lastChunkRow; crow++ {
		chunkR0 := crow * level.ChunkHeight
		chunkR1 := chunkR0 + level.ChunkHeight
		rowLo, rowHi := clampRange(clipR0, clipR1, chunkR0, chunkR1)
		if rowLo >= rowHi {
			continue
		}
		for ccol := firstChunkCol; ccol <= lastChunkCol; ccol++ {
			chunkC0 := ccol * level.ChunkWidth
			chunkC1 := chunkC0 + level.ChunkWidth
			colLo, colHi := clampRange(clipC0, clipC1, chunkC0, chunkC1)
			if colLo >= colHi {
				continue
			}

			cutout := &cog.Cutout{
				X0: colLo - chunkC0,
				Y0: rowLo - chunkR0,
				W:  colHi - colLo,
				H:  rowHi - rowLo,
			}
			part, err := cog.DecodeChunk(r.Source, r.Meta, level, ccol, crow, cutout)
			if err != nil {
				return raster.AnyArray{}, nil, err
			}
			if err := pasteAny(out, part, colLo-col0, rowLo-row0); err != nil {
				return raster.AnyArray{}, nil, rastererr.Runtimef("webtile.Tile", "%v", err)
			}
		}
	}

	pixelSize := tilemath.PixelSize(z, edge)
	geo := raster.NewAxisAlignedGeoref(minX, pixelSize, maxY, pixelSize, webMercatorCRS)
	return out, &geo, nil
}

// clampRange intersects [lo,hi) with [boundLo,boundHi), returning an empty
// (lo==hi) range if disjoint.
func clampRange(lo, hi, boundLo, boundHi int) (int, int) {
	if lo < boundLo {
		lo = boundLo
	}
	if hi > boundHi {
		hi = boundHi
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}
