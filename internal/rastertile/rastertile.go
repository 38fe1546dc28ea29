// Package rastertile implements the raster-tile blob container (§3, §4.K):
// a small little-endian header identifying dtype and geometry, followed by
// an LZ4-block-compressed pixel payload, or a verbatim one when LZ4 can't
// shrink the input. This is the wire/storage format
// used when decoded tiles cross process boundaries (MBTiles rows, reassembly
// fetcher callbacks) on the typed-array core path; the PNG/JPEG/WebP
// encoders in internal/legacytile stay only for the colored-tile debug dump.
package rastertile

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"

	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/rastererr"
)

// signature is the fixed 4-byte ASCII magic "TILE".
const signature uint32 = 0x454C4954

// version is the only header version this package emits or accepts.
const version uint16 = 1

// compressionLZ4 marks an LZ4-block-compressed payload.
const compressionLZ4 uint8 = 0

// compressionStored marks a payload stored verbatim, uncompressed. Encode
// falls back to this when LZ4 declines to compress (incompressible input),
// keeping Encode total rather than lossy for any pixel buffer.
const compressionStored uint8 = 1

// headerSize is the fixed on-disk header length in bytes (§3 table:
// 4+2+1+1+2+2+4).
const headerSize = 16

// Encode reinterprets a's pixel slab as bytes, LZ4-block-compresses it, and
// emits the header (§3) followed by the compressed payload.
func Encode(a raster.AnyArray) ([]byte, error) {
	meta := a.Metadata()
	raw := a.Bytes()

	var payload []byte
	compression := compressionLZ4
	if len(raw) > 0 {
		bound := lz4.CompressBlockBound(len(raw))
		dst := make([]byte, bound)
		var c lz4.Compressor
		n, err := c.CompressBlock(raw, dst)
		if err != nil {
			return nil, rastererr.Runtimef("rastertile.Encode", "lz4 compress: %v", err)
		}
		if n == 0 || n >= len(raw) {
			// Incompressible input: the LZ4 block would be no shorter than
			// the source. Store it verbatim instead.
			compression = compressionStored
			payload = raw
		} else {
			payload = dst[:n]
		}
	}

	out := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], signature)
	binary.LittleEndian.PutUint16(out[4:6], version)
	out[6] = byte(a.DType)
	out[7] = compression
	binary.LittleEndian.PutUint16(out[8:10], uint16(meta.Cols))
	binary.LittleEndian.PutUint16(out[10:12], uint16(meta.Rows))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(payload)))
	copy(out[headerSize:], payload)
	return out, nil
}

// Decode validates the header and LZ4-decompresses the payload into a
// freshly allocated typed array (§4.K). A signature mismatch is reported
// distinctly so callers can fall back to another tile format (e.g. PNG).
func Decode(data []byte) (raster.AnyArray, error) {
	if len(data) < headerSize {
		return raster.AnyArray{}, rastererr.Format("rastertile.Decode", "blob shorter than header (%d bytes)", len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != signature {
		return raster.AnyArray{}, rastererr.Format("rastertile.Decode", "not a raster tile: bad signature")
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v == 0 || v > version {
		return raster.AnyArray{}, rastererr.Format("rastertile.Decode", "unsupported raster-tile version %d", v)
	}
	dtypeByte := data[6]
	if dtypeByte > byte(raster.F64) {
		return raster.AnyArray{}, rastererr.Format("rastertile.Decode", "dtype enum %d out of range", dtypeByte)
	}
	dtype := raster.DType(dtypeByte)
	compression := data[7]
	if compression != compressionLZ4 && compression != compressionStored {
		return raster.AnyArray{}, rastererr.Format("rastertile.Decode", "unsupported compression enum %d", data[7])
	}
	width := int(binary.LittleEndian.Uint16(data[8:10]))
	height := int(binary.LittleEndian.Uint16(data[10:12]))
	payloadSize := int(binary.LittleEndian.Uint32(data[12:16]))

	if len(data)-headerSize < payloadSize {
		return raster.AnyArray{}, rastererr.Format("rastertile.Decode", "truncated payload: have %d bytes, want %d", len(data)-headerSize, payloadSize)
	}
	payload := data[headerSize : headerSize+payloadSize]

	wantBytes := width * height * dtype.Size()
	if wantBytes == 0 {
		if payloadSize != 0 {
			return raster.AnyArray{}, rastererr.Format("rastertile.Decode", "non-empty payload for zero-size tile")
		}
		return raster.NewAnyEmpty(dtype), nil
	}

	if compression == compressionStored {
		if payloadSize != wantBytes {
			return raster.AnyArray{}, rastererr.Format("rastertile.Decode", "stored payload is %d bytes, want %d", payloadSize, wantBytes)
		}
		decoded := make([]byte, wantBytes)
		copy(decoded, payload)
		return arrayFromBytes(dtype, decoded, height, width)
	}

	decoded := make([]byte, wantBytes)
	n, err := lz4.UncompressBlock(payload, decoded)
	if err != nil {
		return raster.AnyArray{}, rastererr.Format("rastertile.Decode", "lz4 decompress: %v", err)
	}
	if n != wantBytes {
		return raster.AnyArray{}, rastererr.Runtimef("rastertile.Decode", "decompressed %d bytes, want %d", n, wantBytes)
	}

	return arrayFromBytes(dtype, decoded, height, width)
}
