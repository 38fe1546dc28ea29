package raster

import "fmt"

// Array is a row-major typed pixel grid with attached metadata. The
// invariant data.Len() == Meta.Rows*Meta.Cols holds for every non-empty
// array; the designated Empty value has zero rows, zero cols and empty
// data, used to represent sparse/missing tiles without a nil check at every
// call site.
type Array[T Pixel] struct {
	Meta Metadata
	Data AlignedBuffer[T]
}

// Empty returns the canonical empty array for T.
func Empty[T Pixel]() Array[T] {
	return Array[T]{Meta: Metadata{}, Data: NewCommitted[T](nil)}
}

// IsEmpty reports whether a is the designated empty array.
func (a Array[T]) IsEmpty() bool {
	return a.Meta.Rows == 0 && a.Meta.Cols == 0
}

// NewArray builds an array from committed values, rewriting any raw value
// equal to the declared nodata to T's default nodata sentinel per the
// dtype's DefaultNodata (spec §3's nodata-coercion-on-construction rule).
func NewArray[T Pixel](dtype DType, meta Metadata, values []T) (Array[T], error) {
	if len(values) != meta.Rows*meta.Cols {
		return Array[T]{}, fmt.Errorf("raster: array data length %d != rows*cols %d", len(values), meta.Rows*meta.Cols)
	}
	buf := NewCommitted(values)
	coerceNodata(dtype, meta, buf.Values())
	return Array[T]{Meta: meta, Data: buf}, nil
}

// FromSealed wraps an already-sealed AlignedBuffer as an Array without
// copying, after validating its length against meta.
func FromSealed[T Pixel](dtype DType, meta Metadata, buf AlignedBuffer[T]) (Array[T], error) {
	if buf.Len() != meta.Rows*meta.Cols {
		return Array[T]{}, fmt.Errorf("raster: sealed buffer length %d != rows*cols %d", buf.Len(), meta.Rows*meta.Cols)
	}
	coerceNodata(dtype, meta, buf.Values())
	return Array[T]{Meta: meta, Data: buf}, nil
}

// coerceNodata rewrites any raw sample equal to the metadata's declared
// nodata value to the dtype's default nodata sentinel, in place.
func coerceNodata[T Pixel](dtype DType, meta Metadata, values []T) {
	if meta.Nodata == nil {
		return
	}
	declared := T(*meta.Nodata)
	sentinel := T(dtype.DefaultNodata())
	if declared == sentinel {
		return
	}
	for i, v := range values {
		if v == declared {
			values[i] = sentinel
		}
	}
}

// Fill overwrites every element of a with v. Used to initialize an output
// raster to nodata before pasting tiles into it.
func Fill[T Pixel](a Array[T], v T) {
	vals := a.Data.Values()
	for i := range vals {
		vals[i] = v
	}
}

// Window copies the rectangular sub-region [x0,x0+w) x [y0,y0+h) of a into
// a freshly allocated array. Out-of-range requests are a programming error
// (callers are expected to have already intersected against a's bounds).
func Window[T Pixel](a Array[T], x0, y0, w, h int) (Array[T], error) {
	if x0 < 0 || y0 < 0 || w < 0 || h < 0 || x0+w > a.Meta.Cols || y0+h > a.Meta.Rows {
		return Array[T]{}, fmt.Errorf("raster: window [%d,%d)x[%d,%d) out of bounds for %dx%d array", x0, x0+w, y0, y0+h, a.Meta.Cols, a.Meta.Rows)
	}
	out := make([]T, w*h)
	src := a.Data.Values()
	for row := 0; row < h; row++ {
		srcOff := (y0+row)*a.Meta.Cols + x0
		copy(out[row*w:(row+1)*w], src[srcOff:srcOff+w])
	}
	meta := Metadata{Rows: h, Cols: w, Nodata: a.Meta.Nodata}
	return Array[T]{Meta: meta, Data: NewCommitted(out)}, nil
}

// PasteInto copies src into dst at cell offset (dstX, dstY), clipping
// against dst's bounds. Used by the web-tile reader and reassembler to
// stitch partial chunk/tile intersections into an output raster.
func PasteInto[T Pixel](dst Array[T], src Array[T], dstX, dstY int) {
	if src.IsEmpty() {
		return
	}
	dstVals := dst.Data.Values()
	srcVals := src.Data.Values()
	for row := 0; row < src.Meta.Rows; row++ {
		dy := dstY + row
		if dy < 0 || dy >= dst.Meta.Rows {
			continue
		}
		for col := 0; col < src.Meta.Cols; col++ {
			dx := dstX + col
			if dx < 0 || dx >= dst.Meta.Cols {
				continue
			}
			dstVals[dy*dst.Meta.Cols+dx] = srcVals[row*src.Meta.Cols+col]
		}
	}
}

// Cast converts an Array[T] to Array[U] element-wise. If a declares a nodata
// value, the result's metadata nodata becomes toDtype's default; cells
// holding the old nodata value are converted like any other value and are
// not rewritten to the new one.
func Cast[T, U Pixel](a Array[T], toDtype DType) Array[U] {
	src := a.Data.Values()
	out := make([]U, len(src))
	for i, v := range src {
		out[i] = U(v)
	}
	meta := a.Meta
	if meta.Nodata != nil {
		nd := toDtype.DefaultNodata()
		meta.Nodata = &nd
	}
	return Array[U]{Meta: meta, Data: NewCommitted(out)}
}

// AnyArray is the closed tagged-union façade used at API boundaries so
// callers that don't know a COG's dtype ahead of time (the tile provider,
// the raster-tile blob codec) can dispatch once per operation instead of
// threading a type parameter through the whole call stack.
type AnyArray struct {
	DType DType
	I8    Array[int8]
	U8    Array[uint8]
	I16   Array[int16]
	U16   Array[uint16]
	I32   Array[int32]
	U32   Array[uint32]
	I64   Array[int64]
	U64   Array[uint64]
	F32   Array[float32]
	F64   Array[float64]
}

// Metadata returns the metadata of whichever variant is populated.
func (a AnyArray) Metadata() Metadata {
	switch a.DType {
	case I8:
		return a.I8.Meta
	case U8:
		return a.U8.Meta
	case I16:
		return a.I16.Meta
	case U16:
		return a.U16.Meta
	case I32:
		return a.I32.Meta
	case U32:
		return a.U32.Meta
	case I64:
		return a.I64.Meta
	case U64:
		return a.U64.Meta
	case F32:
		return a.F32.Meta
	case F64:
		return a.F64.Meta
	default:
		return Metadata{}
	}
}

// Bytes returns the raw byte view of whichever variant is populated, for
// codecs that operate on undifferentiated byte slabs (LZW, LZ4, predictors).
func (a AnyArray) Bytes() []byte {
	switch a.DType {
	case I8:
		return a.I8.Data.Bytes()
	case U8:
		return a.U8.Data.Bytes()
	case I16:
		return a.I16.Data.Bytes()
	case U16:
		return a.U16.Data.Bytes()
	case I32:
		return a.I32.Data.Bytes()
	case U32:
		return a.U32.Data.Bytes()
	case I64:
		return a.I64.Data.Bytes()
	case U64:
		return a.U64.Data.Bytes()
	case F32:
		return a.F32.Data.Bytes()
	case F64:
		return a.F64.Data.Bytes()
	default:
		return nil
	}
}

// NewAnyEmpty returns the tagged-union empty array for dtype.
func NewAnyEmpty(dtype DType) AnyArray {
	a := AnyArray{DType: dtype}
	switch dtype {
	case I8:
		a.I8 = Empty[int8]()
	case U8:
		a.U8 = Empty[uint8]()
	case I16:
		a.I16 = Empty[int16]()
	case U16:
		a.U16 = Empty[uint16]()
	case I32:
		a.I32 = Empty[int32]()
	case U32:
		a.U32 = Empty[uint32]()
	case I64:
		a.I64 = Empty[int64]()
	case U64:
		a.U64 = Empty[uint64]()
	case F32:
		a.F32 = Empty[float32]()
	case F64:
		a.F64 = Empty[float64]()
	}
	return a
}
