package raster

import (
	"fmt"
	"math"
)

// Georeference attaches an affine cell<->point transform and a CRS
// identifier to a raster. Coefficients are [ox, sx, rx, oy, ry, sy]: cell
// (col,row) -> point (ox+sx*col+rx*row, oy+ry*col+sy*row). sy is typically
// negative (rows increase downward, Y increases upward).
type Georeference struct {
	Affine [6]float64
	CRS    string
}

// NewAxisAlignedGeoref builds a Georeference with no rotation terms.
func NewAxisAlignedGeoref(originX, pixelWidth, originY, pixelHeight float64, crs string) Georeference {
	return Georeference{
		Affine: [6]float64{originX, pixelWidth, 0, originY, 0, -pixelHeight},
		CRS:    crs,
	}
}

// CellToPoint maps a (col,row) cell coordinate (can be fractional, e.g.
// col+0.5 for a cell center) to a CRS point.
func (g Georeference) CellToPoint(col, row float64) (x, y float64) {
	a := g.Affine
	x = a[0] + a[1]*col + a[2]*row
	y = a[3] + a[4]*col + a[5]*row
	return
}

// PointToCell is the inverse of CellToPoint. Returns an error if the
// transform's determinant is too small to invert reliably.
func (g Georeference) PointToCell(x, y float64) (col, row float64, err error) {
	a := g.Affine
	sx, rx, ry, sy := a[1], a[2], a[4], a[5]
	det := sx*sy - rx*ry
	maxCoeff := math.Max(math.Max(math.Abs(sx), math.Abs(rx)), math.Max(math.Abs(ry), math.Abs(sy)))
	if math.Abs(det) <= 1e-10*maxCoeff*maxCoeff {
		return 0, 0, fmt.Errorf("raster: affine transform is not invertible (det=%g)", det)
	}
	dx := x - a[0]
	dy := y - a[3]
	col = (sy*dx - rx*dy) / det
	row = (sx*dy - ry*dx) / det
	return col, row, nil
}

// PixelSize returns the (width, height) of one cell in CRS units: the
// lengths of the column and row step vectors, rotation terms included.
func (g Georeference) PixelSize() (w, h float64) {
	return math.Hypot(g.Affine[1], g.Affine[4]), math.Hypot(g.Affine[2], g.Affine[5])
}

// Bounds describes a CRS-space rectangle.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether b has no area (used as the canonical empty bounds).
func (b Bounds) Empty() bool {
	return b.MaxX <= b.MinX || b.MaxY <= b.MinY
}

// Intersect returns the overlap of b and other, or the empty Bounds if
// disjoint.
func (b Bounds) Intersect(other Bounds) Bounds {
	r := Bounds{
		MinX: math.Max(b.MinX, other.MinX),
		MinY: math.Max(b.MinY, other.MinY),
		MaxX: math.Min(b.MaxX, other.MaxX),
		MaxY: math.Min(b.MaxY, other.MaxY),
	}
	if r.Empty() {
		return Bounds{}
	}
	return r
}

// BoundsOf returns the CRS-space bounding box of a rows x cols grid under g.
// Handles sy<0 (the common north-up case) as well as sy>0.
func BoundsOf(g Georeference, rows, cols int) Bounds {
	corners := [4][2]float64{
		{0, 0}, {float64(cols), 0}, {0, float64(rows)}, {float64(cols), float64(rows)},
	}
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, c := range corners {
		x, y := g.CellToPoint(c[0], c[1])
		b.MinX = math.Min(b.MinX, x)
		b.MaxX = math.Max(b.MaxX, x)
		b.MinY = math.Min(b.MinY, y)
		b.MaxY = math.Max(b.MaxY, y)
	}
	return b
}

// IsAlignedTo reports whether g's origin and pixel size line up on an
// integer grid relative to ref's pixel size, e.g. whether a COG overview is
// already aligned to the web-tile grid.
func (g Georeference) IsAlignedTo(ref Georeference, tol float64) bool {
	gw, gh := g.PixelSize()
	rw, rh := ref.PixelSize()
	if rw == 0 || rh == 0 {
		return false
	}
	if math.Abs(gw-rw) > tol*rw || math.Abs(gh-rh) > tol*rh {
		return false
	}
	dx := (g.Affine[0] - ref.Affine[0]) / rw
	dy := (g.Affine[3] - ref.Affine[3]) / rh
	return math.Abs(dx-math.Round(dx)) < tol && math.Abs(dy-math.Round(dy)) < tol
}

// Metadata describes a raster's shape and (optionally) its nodata sentinel
// and georeference. A Metadata with no Geo is the "plain" variant; one with
// Geo set is the "georeferenced" variant.
type Metadata struct {
	Rows, Cols int
	Nodata     *float64
	Geo        *Georeference
}

// PlainMetadata returns ungeoreferenced metadata.
func PlainMetadata(rows, cols int, nodata *float64) Metadata {
	return Metadata{Rows: rows, Cols: cols, Nodata: nodata}
}

// GeoMetadata returns georeferenced metadata.
func GeoMetadata(rows, cols int, nodata *float64, geo Georeference) Metadata {
	return Metadata{Rows: rows, Cols: cols, Nodata: nodata, Geo: &geo}
}
