package reassemble

import (
	"fmt"

	"github.com/pspoerri/geotiff2raster/internal/raster"
)

// newFilledAny allocates a rows x cols array of dtype filled with its
// default nodata sentinel, used to seed the output raster before pasting
// (§4.L step 2).
func newFilledAny(dtype raster.DType, rows, cols int, nodata *float64) (raster.AnyArray, error) {
	meta := raster.PlainMetadata(rows, cols, nodata)
	n := rows * cols
	switch dtype {
	case raster.I8:
		a, err := raster.NewArray(dtype, meta, fillSlice[int8](n, int8(dtype.DefaultNodata())))
		return raster.AnyArray{DType: dtype, I8: a}, err
	case raster.U8:
		a, err := raster.NewArray(dtype, meta, fillSlice[uint8](n, uint8(dtype.DefaultNodata())))
		return raster.AnyArray{DType: dtype, U8: a}, err
	case raster.I16:
		a, err := raster.NewArray(dtype, meta, fillSlice[int16](n, int16(dtype.DefaultNodata())))
		return raster.AnyArray{DType: dtype, I16: a}, err
	case raster.U16:
		a, err := raster.NewArray(dtype, meta, fillSlice[uint16](n, uint16(dtype.DefaultNodata())))
		return raster.AnyArray{DType: dtype, U16: a}, err
	case raster.I32:
		a, err := raster.NewArray(dtype, meta, fillSlice[int32](n, int32(dtype.DefaultNodata())))
		return raster.AnyArray{DType: dtype, I32: a}, err
	case raster.U32:
		a, err := raster.NewArray(dtype, meta, fillSlice[uint32](n, uint32(dtype.DefaultNodata())))
		return raster.AnyArray{DType: dtype, U32: a}, err
	case raster.I64:
		a, err := raster.NewArray(dtype, meta, fillSlice[int64](n, int64(dtype.DefaultNodata())))
		return raster.AnyArray{DType: dtype, I64: a}, err
	case raster.U64:
		a, err := raster.NewArray(dtype, meta, fillSlice[uint64](n, uint64(dtype.DefaultNodata())))
		return raster.AnyArray{DType: dtype, U64: a}, err
	case raster.F32:
		a, err := raster.NewArray(dtype, meta, fillSlice[float32](n, float32(dtype.DefaultNodata())))
		return raster.AnyArray{DType: dtype, F32: a}, err
	case raster.F64:
		a, err := raster.NewArray(dtype, meta, fillSlice[float64](n, dtype.DefaultNodata()))
		return raster.AnyArray{DType: dtype, F64: a}, err
	default:
		return raster.AnyArray{}, fmt.Errorf("reassemble: unknown dtype %v", dtype)
	}
}

func fillSlice[T raster.Pixel](n int, v T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func isEmptyAny(a raster.AnyArray) bool {
	switch a.DType {
	case raster.I8:
		return a.I8.IsEmpty()
	case raster.U8:
		return a.U8.IsEmpty()
	case raster.I16:
		return a.I16.IsEmpty()
	case raster.U16:
		return a.U16.IsEmpty()
	case raster.I32:
		return a.I32.IsEmpty()
	case raster.U32:
		return a.U32.IsEmpty()
	case raster.I64:
		return a.I64.IsEmpty()
	case raster.U64:
		return a.U64.IsEmpty()
	case raster.F32:
		return a.F32.IsEmpty()
	case raster.F64:
		return a.F64.IsEmpty()
	default:
		return true
	}
}

func rowsColsOf(a raster.AnyArray) (rows, cols int) {
	m := a.Metadata()
	return m.Rows, m.Cols
}

func pasteAny(dst, src raster.AnyArray, x, y int) {
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
	}
}
