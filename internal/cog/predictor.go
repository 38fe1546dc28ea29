package cog

import (
	"encoding/binary"
	"math"

	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/rastererr"
)

// applyPredictor reverses the TIFF predictor applied to one chunk's
// decompressed byte slab, in place, given the chunk's pixel width (for row
// boundaries) and the pixel dtype (for element width and wrap semantics).
func applyPredictor(predictor uint16, data []byte, width int, dtype raster.DType, bo binary.ByteOrder) error {
	switch predictor {
	case predictorNone:
		return nil
	case predictorHorizontal:
		return unpredictHorizontal(data, width, dtype, bo)
	case predictorFloatingPoint:
		return unpredictFloatingPoint(data, width, dtype, bo)
	default:
		return rastererr.Format("cog.applyPredictor", "unsupported predictor code %d", predictor)
	}
}

// unpredictHorizontal reverses the horizontal integer predictor
// (x[i] += x[i-1], wrapping, independently per row) for any of the 8/16/
// 32/64-bit integer or float dtypes, at pixel granularity (§4.H).
func unpredictHorizontal(data []byte, width int, dtype raster.DType, bo binary.ByteOrder) error {
	elemSize := dtype.Size()
	rowBytes := width * elemSize
	if rowBytes == 0 || len(data)%rowBytes != 0 {
		return rastererr.Format("cog.unpredictHorizontal", "row byte length %d does not divide buffer length %d", rowBytes, len(data))
	}

	for rowStart := 0; rowStart+rowBytes <= len(data); rowStart += rowBytes {
		row := data[rowStart : rowStart+rowBytes]
		switch elemSize {
		case 1:
			for i := 1; i < width; i++ {
				row[i] += row[i-1]
			}
		case 2:
			prev := bo.Uint16(row[0:2])
			for i := 1; i < width; i++ {
				off := i * 2
				v := bo.Uint16(row[off:off+2]) + prev
				bo.PutUint16(row[off:off+2], v)
				prev = v
			}
		case 4:
			if dtype.IsFloat() {
				prev := math.Float32frombits(bo.Uint32(row[0:4]))
				for i := 1; i < width; i++ {
					off := i * 4
					v := math.Float32frombits(bo.Uint32(row[off:off+4])) + prev
					bo.PutUint32(row[off:off+4], math.Float32bits(v))
					prev = v
				}
				break
			}
			prev := bo.Uint32(row[0:4])
			for i := 1; i < width; i++ {
				off := i * 4
				v := bo.Uint32(row[off:off+4]) + prev
				bo.PutUint32(row[off:off+4], v)
				prev = v
			}
		case 8:
			if dtype.IsFloat() {
				prev := math.Float64frombits(bo.Uint64(row[0:8]))
				for i := 1; i < width; i++ {
					off := i * 8
					v := math.Float64frombits(bo.Uint64(row[off:off+8])) + prev
					bo.PutUint64(row[off:off+8], math.Float64bits(v))
					prev = v
				}
				break
			}
			prev := bo.Uint64(row[0:8])
			for i := 1; i < width; i++ {
				off := i * 8
				v := bo.Uint64(row[off:off+8]) + prev
				bo.PutUint64(row[off:off+8], v)
				prev = v
			}
		}
	}
	return nil
}

// unpredictFloatingPoint reverses the TIFF floating-point predictor
// (§4.H): first undo the byte-granular horizontal differencing across the
// whole row, then de-shuffle from significance-grouped byte order back to
// native per-pixel byte order.
func unpredictFloatingPoint(data []byte, width int, dtype raster.DType, bo binary.ByteOrder) error {
	elemSize := dtype.Size()
	rowBytes := width * elemSize
	if rowBytes == 0 || len(data)%rowBytes != 0 {
		return rastererr.Format("cog.unpredictFloatingPoint", "row byte length %d does not divide buffer length %d", rowBytes, len(data))
	}

	shuffled := make([]byte, rowBytes)
	for rowStart := 0; rowStart+rowBytes <= len(data); rowStart += rowBytes {
		row := data[rowStart : rowStart+rowBytes]

		// Step 1: undo byte-granular horizontal differencing across the
		// full row.
		for i := 1; i < rowBytes; i++ {
			row[i] += row[i-1]
		}

		// Step 2: de-shuffle. The predictor stores byte 0 (most
		// significant, big-endian) of every pixel, then byte 1 of every
		// pixel, etc. Regroup into per-pixel big-endian runs, then
		// convert each run to native byte order.
		copy(shuffled, row)
		for px := 0; px < width; px++ {
			for b := 0; b < elemSize; b++ {
				row[px*elemSize+b] = shuffled[b*width+px]
			}
		}
		if bo == binary.LittleEndian {
			for px := 0; px < width; px++ {
				reverseBytes(row[px*elemSize : px*elemSize+elemSize])
			}
		}
	}
	return nil
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
