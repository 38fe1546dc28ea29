package rastertile

import (
	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/rastererr"
)

// arrayFromBytes reinterprets a decompressed byte slab as a typed dense
// array, dispatching once on dtype (mirrors cog.arrayFromBytes, which does
// the same reinterpretation for the chunk decoder).
func arrayFromBytes(dtype raster.DType, raw []byte, rows, cols int) (raster.AnyArray, error) {
	meta := raster.PlainMetadata(rows, cols, nil)
	switch dtype {
	case raster.I8:
		return wrap(dtype, meta, raw, func(buf raster.AlignedBuffer[int8]) raster.AnyArray {
			a, _ := raster.FromSealed[int8](dtype, meta, buf)
			return raster.AnyArray{DType: dtype, I8: a}
		})
	case raster.U8:
		return wrap(dtype, meta, raw, func(buf raster.AlignedBuffer[uint8]) raster.AnyArray {
			a, _ := raster.FromSealed[uint8](dtype, meta, buf)
			return raster.AnyArray{DType: dtype, U8: a}
		})
	case raster.I16:
		return wrap(dtype, meta, raw, func(buf raster.AlignedBuffer[int16]) raster.AnyArray {
			a, _ := raster.FromSealed[int16](dtype, meta, buf)
			return raster.AnyArray{DType: dtype, I16: a}
		})
	case raster.U16:
		return wrap(dtype, meta, raw, func(buf raster.AlignedBuffer[uint16]) raster.AnyArray {
			a, _ := raster.FromSealed[uint16](dtype, meta, buf)
			return raster.AnyArray{DType: dtype, U16: a}
		})
	case raster.I32:
		return wrap(dtype, meta, raw, func(buf raster.AlignedBuffer[int32]) raster.AnyArray {
			a, _ := raster.FromSealed[int32](dtype, meta, buf)
			return raster.AnyArray{DType: dtype, I32: a}
		})
	case raster.U32:
		return wrap(dtype, meta, raw, func(buf raster.AlignedBuffer[uint32]) raster.AnyArray {
			a, _ := raster.FromSealed[uint32](dtype, meta, buf)
			return raster.AnyArray{DType: dtype, U32: a}
		})
	case raster.I64:
		return wrap(dtype, meta, raw, func(buf raster.AlignedBuffer[int64]) raster.AnyArray {
			a, _ := raster.FromSealed[int64](dtype, meta, buf)
			return raster.AnyArray{DType: dtype, I64: a}
		})
	case raster.U64:
		return wrap(dtype, meta, raw, func(buf raster.AlignedBuffer[uint64]) raster.AnyArray {
			a, _ := raster.FromSealed[uint64](dtype, meta, buf)
			return raster.AnyArray{DType: dtype, U64: a}
		})
	case raster.F32:
		return wrap(dtype, meta, raw, func(buf raster.AlignedBuffer[float32]) raster.AnyArray {
			a, _ := raster.FromSealed[float32](dtype, meta, buf)
			return raster.AnyArray{DType: dtype, F32: a}
		})
	case raster.F64:
		return wrap(dtype, meta, raw, func(buf raster.AlignedBuffer[float64]) raster.AnyArray {
			a, _ := raster.FromSealed[float64](dtype, meta, buf)
			return raster.AnyArray{DType: dtype, F64: a}
		})
	default:
		return raster.AnyArray{}, rastererr.Format("rastertile.arrayFromBytes", "unknown dtype %v", dtype)
	}
}

// wrap turns a raw byte slab into an AlignedBuffer[T] and hands it to build,
// centralizing the FromBytes error path shared by all ten dtype branches.
func wrap[T raster.Pixel](dtype raster.DType, meta raster.Metadata, raw []byte, build func(raster.AlignedBuffer[T]) raster.AnyArray) (raster.AnyArray, error) {
	buf, err := raster.FromBytes[T](raw)
	if err != nil {
		return raster.AnyArray{}, rastererr.Runtimef("rastertile.arrayFromBytes", "%v", err)
	}
	return build(buf), nil
}
