package raster

import (
	"math"
	"testing"
)

func TestDTypeSizeAndFormat(t *testing.T) {
	cases := []struct {
		d            DType
		name         string
		size         int
		sampleFormat uint16
		isFloat      bool
		isSigned     bool
	}{
		{I8, "i8", 1, 2, false, true},
		{U8, "u8", 1, 1, false, false},
		{I16, "i16", 2, 2, false, true},
		{U16, "u16", 2, 1, false, false},
		{I32, "i32", 4, 2, false, true},
		{U32, "u32", 4, 1, false, false},
		{I64, "i64", 8, 2, false, true},
		{U64, "u64", 8, 1, false, false},
		{F32, "f32", 4, 3, true, false},
		{F64, "f64", 8, 3, true, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.d.String(); got != c.name {
				t.Errorf("String() = %q, want %q", got, c.name)
			}
			if got := c.d.Size(); got != c.size {
				t.Errorf("Size() = %d, want %d", got, c.size)
			}
			if got := c.d.SampleFormat(); got != c.sampleFormat {
				t.Errorf("SampleFormat() = %d, want %d", got, c.sampleFormat)
			}
			if got := c.d.BitsPerSample(); got != uint16(c.size*8) {
				t.Errorf("BitsPerSample() = %d, want %d", got, c.size*8)
			}
			if got := c.d.IsFloat(); got != c.isFloat {
				t.Errorf("IsFloat() = %v, want %v", got, c.isFloat)
			}
			if got := c.d.IsSigned(); got != c.isSigned {
				t.Errorf("IsSigned() = %v, want %v", got, c.isSigned)
			}
		})
	}
}

func TestDTypeFromTIFFTags(t *testing.T) {
	cases := []struct {
		sf, bps uint16
		want    DType
		ok      bool
	}{
		{0, 8, U8, true},
		{1, 8, U8, true},
		{2, 8, I8, true},
		{1, 16, U16, true},
		{2, 32, I32, true},
		{3, 32, F32, true},
		{3, 64, F64, true},
		{1, 64, U64, true},
		{9, 8, 0, false},
		{1, 24, 0, false},
	}
	for _, c := range cases {
		got, ok := DTypeFromTIFFTags(c.sf, c.bps)
		if ok != c.ok {
			t.Fatalf("DTypeFromTIFFTags(%d,%d) ok=%v, want %v", c.sf, c.bps, ok, c.ok)
		}
		if ok && got != c.want {
			t.Errorf("DTypeFromTIFFTags(%d,%d) = %v, want %v", c.sf, c.bps, got, c.want)
		}
	}
}

func TestDefaultNodata(t *testing.T) {
	if I8.DefaultNodata() != math.MinInt8 {
		t.Errorf("I8 default nodata = %v, want %v", I8.DefaultNodata(), math.MinInt8)
	}
	if U8.DefaultNodata() != math.MaxUint8 {
		t.Errorf("U8 default nodata = %v, want %v", U8.DefaultNodata(), math.MaxUint8)
	}
	if !math.IsNaN(F64.DefaultNodata()) {
		t.Errorf("F64 default nodata = %v, want NaN", F64.DefaultNodata())
	}
}

func TestNodataAdd(t *testing.T) {
	const nodata = int32(-9999)
	if got := NodataAdd[int32](1, nodata, nodata); got != nodata {
		t.Errorf("NodataAdd(1, nodata) = %d, want nodata", got)
	}
	if got := NodataAdd[int32](2, 3, nodata); got != 5 {
		t.Errorf("NodataAdd(2,3) = %d, want 5", got)
	}
}
