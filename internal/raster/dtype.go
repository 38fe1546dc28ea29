// Package raster holds the pixel-dtype, buffer, dense-array and
// georeference primitives shared by the COG parser, tile decoder and
// raster-tile codec.
package raster

import "math"

// DType identifies one of the closed set of supported pixel element types.
type DType uint8

const (
	I8 DType = iota
	U8
	I16
	U16
	I32
	U32
	I64
	U64
	F32
	F64
)

// String returns the canonical lowercase name of d, used in error messages.
func (d DType) String() string {
	if int(d) < len(dtypeTable) {
		return dtypeTable[d].name
	}
	return "unknown"
}

// Size returns the size in bytes of a single sample of d.
func (d DType) Size() int {
	return dtypeTable[d].size
}

// SampleFormat returns the TIFF SampleFormat tag value for d:
// 1 = unsigned integer, 2 = signed integer, 3 = IEEE float.
func (d DType) SampleFormat() uint16 {
	return dtypeTable[d].sampleFormat
}

// BitsPerSample returns the TIFF BitsPerSample tag value for d.
func (d DType) BitsPerSample() uint16 {
	return uint16(dtypeTable[d].size * 8)
}

// DefaultNodata returns the dtype's default nodata sentinel as a float64:
// the signed minimum for signed integers, the unsigned maximum for unsigned
// integers, NaN for floats.
func (d DType) DefaultNodata() float64 {
	return dtypeTable[d].defaultNodata
}

// IsFloat reports whether d is a floating-point dtype.
func (d DType) IsFloat() bool {
	return d == F32 || d == F64
}

// IsSigned reports whether d is a signed integer dtype.
func (d DType) IsSigned() bool {
	switch d {
	case I8, I16, I32, I64:
		return true
	default:
		return false
	}
}

// DTypeFromTIFFTags maps a TIFF (SampleFormat, BitsPerSample) pair to a
// DType. SampleFormat 0 is treated as unsigned integer per the TIFF 6.0
// default. Returns false if the combination isn't in the closed set.
func DTypeFromTIFFTags(sampleFormat uint16, bitsPerSample uint16) (DType, bool) {
	if sampleFormat == 0 {
		sampleFormat = 1
	}
	for d, info := range dtypeTable {
		if info.sampleFormat == sampleFormat && info.size*8 == int(bitsPerSample) {
			return DType(d), true
		}
	}
	return 0, false
}

type dtypeInfo struct {
	name          string
	size          int
	sampleFormat  uint16
	defaultNodata float64
}

var dtypeTable = [...]dtypeInfo{
	I8:  {"i8", 1, 2, math.MinInt8},
	U8:  {"u8", 1, 1, math.MaxUint8},
	I16: {"i16", 2, 2, math.MinInt16},
	U16: {"u16", 2, 1, math.MaxUint16},
	I32: {"i32", 4, 2, math.MinInt32},
	U32: {"u32", 4, 1, math.MaxUint32},
	I64: {"i64", 8, 2, math.MinInt64},
	U64: {"u64", 8, 1, math.MaxUint64},
	F32: {"f32", 4, 3, float64(float32(math.NaN()))},
	F64: {"f64", 8, 3, math.NaN()},
}

// Pixel is the type-set of Go types that back a dtype's AlignedBuffer/Array.
type Pixel interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// NodataAdd adds a and b, propagating nodata: if either operand equals
// nodata, the result is nodata. Otherwise it is ordinary wrapping/IEEE
// addition depending on T.
func NodataAdd[T Pixel](a, b, nodata T) T {
	if a == nodata || b == nodata {
		return nodata
	}
	return a + b
}
