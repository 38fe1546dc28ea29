package webtile

import (
	"fmt"

	"github.com/pspoerri/geotiff2raster/internal/raster"
)

// newFilledAny allocates a rows x cols array of dtype filled with its
// default nodata sentinel (§4.J step 6: "cells outside any source chunk
// remain at the output dtype's nodata sentinel").
func newFilledAny(dtype raster.DType, rows, cols int, nodata *float64) (raster.AnyArray, error) {
	meta := raster.PlainMetadata(rows, cols, nodata)
	return fillAny(dtype, meta, rows*cols)
}

// fillAny is the actual (non-generic-return) dispatcher: Go generics can't
// return a type parameterized on a runtime-selected dtype, so each branch
// builds its own Array[T] and wraps it in the AnyArray union directly.
func fillAny(dtype raster.DType, meta raster.Metadata, n int) (raster.AnyArray, error) {
	switch dtype {
	case raster.I8:
		vals := fillSlice[int8](n, int8(dtype.DefaultNodata()))
		a, err := raster.NewArray(dtype, meta, vals)
		return raster.AnyArray{DType: dtype, I8: a}, err
	case raster.U8:
		vals := fillSlice[uint8](n, uint8(dtype.DefaultNodata()))
		a, err := raster.NewArray(dtype, meta, vals)
		return raster.AnyArray{DType: dtype, U8: a}, err
	case raster.I16:
		vals := fillSlice[int16](n, int16(dtype.DefaultNodata()))
		a, err := raster.NewArray(dtype, meta, vals)
		return raster.AnyArray{DType: dtype, I16: a}, err
	case raster.U16:
		vals := fillSlice[uint16](n, uint16(dtype.DefaultNodata()))
		a, err := raster.NewArray(dtype, meta, vals)
		return raster.AnyArray{DType: dtype, U16: a}, err
	case raster.I32:
		vals := fillSlice[int32](n, int32(dtype.DefaultNodata()))
		a, err := raster.NewArray(dtype, meta, vals)
		return raster.AnyArray{DType: dtype, I32: a}, err
	case raster.U32:
		vals := fillSlice[uint32](n, uint32(dtype.DefaultNodata()))
		a, err := raster.NewArray(dtype, meta, vals)
		return raster.AnyArray{DType: dtype, U32: a}, err
	case raster.I64:
		vals := fillSlice[int64](n, int64(dtype.DefaultNodata()))
		a, err := raster.NewArray(dtype, meta, vals)
		return raster.AnyArray{DType: dtype, I64: a}, err
	case raster.U64:
		vals := fillSlice[uint64](n, uint64(dtype.DefaultNodata()))
		a, err := raster.NewArray(dtype, meta, vals)
		return raster.AnyArray{DType: dtype, U64: a}, err
	case raster.F32:
		vals := fillSlice[float32](n, float32(dtype.DefaultNodata()))
		a, err := raster.NewArray(dtype, meta, vals)
		return raster.AnyArray{DType: dtype, F32: a}, err
	case raster.F64:
		vals := fillSlice[float64](n, dtype.DefaultNodata())
		a, err := raster.NewArray(dtype, meta, vals)
		return raster.AnyArray{DType: dtype, F64: a}, err
	default:
		return raster.AnyArray{}, fmt.Errorf("webtile: unknown dtype %v", dtype)
	}
}

func fillSlice[T raster.Pixel](n int, v T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// pasteAny pastes src into dst at cell offset (x,y), dispatching once on
// dst's dtype. Both arrays must share the same dtype (always true here:
// both come from the same Metadata.DType).
func pasteAny(dst, src raster.AnyArray, x, y int) error {
	if dst.DType != src.DType {
		return fmt.Errorf("webtile: dtype mismatch pasting %v into %v", src.DType, dst.DType)
	}
	switch dst.DType {
	case raster.I8:
		raster.PasteInto(dst.I8, src.I8, x, y)
	case raster.U8:
		raster.PasteInto(dst.U8, src.U8, x, y)
	case raster.I16:
		raster.PasteInto(dst.I16, src.I16, x, y)
	case raster.U16:
		raster.PasteInto(dst.U16, src.U16, x, y)
	case raster.I32:
		raster.PasteInto(dst.I32, src.I32, x, y)
	case raster.U32:
		raster.PasteInto(dst.U32, src.U32, x, y)
	case raster.I64:
		raster.PasteInto(dst.I64, src.I64, x, y)
	case raster.U64:
		raster.PasteInto(dst.U64, src.U64, x, y)
	case raster.F32:
		raster.PasteInto(dst.F32, src.F32, x, y)
	case raster.F64:
		raster.PasteInto(dst.F64, src.F64, x, y)
	default:
		return fmt.Errorf("webtile: unknown dtype %v", dst.DType)
	}
	return nil
}
