package rastertile

import (
	"math/rand"
	"testing"

	"github.com/pspoerri/geotiff2raster/internal/raster"
	"github.com/pspoerri/geotiff2raster/internal/rastererr"
)

func TestEncodeDecodeRoundTripU8AllZeros(t *testing.T) {
	vals := make([]uint8, 256*256)
	arr, err := raster.NewArray(raster.U8, raster.PlainMetadata(256, 256, nil), vals)
	if err != nil {
		t.Fatalf("NewArray error: %v", err)
	}
	in := raster.AnyArray{DType: raster.U8, U8: arr}

	blob, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if len(blob) < headerSize {
		t.Fatalf("blob too short: %d bytes", len(blob))
	}
	if len(blob)-headerSize > 256 {
		t.Errorf("all-zero payload compressed to %d bytes, expected well under 256", len(blob)-headerSize)
	}

	out, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if out.DType != raster.U8 {
		t.Fatalf("DType = %v, want U8", out.DType)
	}
	if len(out.U8.Data.Values()) != 256*256 {
		t.Fatalf("decoded length = %d, want 65536", len(out.U8.Data.Values()))
	}
	for i, v := range out.U8.Data.Values() {
		if v != 0 {
			t.Fatalf("pixel[%d] = %d, want 0", i, v)
		}
	}
}

func TestEncodeDecodeRoundTripF32NonTrivial(t *testing.T) {
	vals := make([]float32, 64*32)
	for i := range vals {
		vals[i] = float32(i) * 1.5
	}
	arr, err := raster.NewArray(raster.F32, raster.PlainMetadata(32, 64, nil), vals)
	if err != nil {
		t.Fatalf("NewArray error: %v", err)
	}
	in := raster.AnyArray{DType: raster.F32, F32: arr}

	blob, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	out, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	got := out.F32.Data.Values()
	for i, v := range vals {
		if got[i] != v {
			t.Fatalf("pixel[%d] = %v, want %v", i, got[i], v)
		}
	}
}

func TestEncodeDecodeRoundTripIncompressiblePayload(t *testing.T) {
	vals := make([]uint8, 256*256)
	rng := rand.New(rand.NewSource(1))
	rng.Read(vals)
	arr, err := raster.NewArray(raster.U8, raster.PlainMetadata(256, 256, nil), vals)
	if err != nil {
		t.Fatalf("NewArray error: %v", err)
	}
	in := raster.AnyArray{DType: raster.U8, U8: arr}

	blob, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if blob[7] != compressionStored {
		t.Fatalf("compression byte = %d, want compressionStored (random bytes should be incompressible)", blob[7])
	}

	out, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	got := out.U8.Data.Values()
	for i, v := range vals {
		if got[i] != v {
			t.Fatalf("pixel[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestDecodeEmptyTile(t *testing.T) {
	in := raster.NewAnyEmpty(raster.U16)
	blob, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	out, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !out.U16.IsEmpty() {
		t.Fatal("expected empty array round trip")
	}
}

func TestDecodeBadSignatureIsFormatError(t *testing.T) {
	blob := make([]byte, headerSize)
	_, err := Decode(blob)
	kind, ok := rastererr.KindOf(err)
	if !ok || kind != rastererr.FormatError {
		t.Fatalf("err kind = %v (ok=%v), want FormatError", kind, ok)
	}
}

func TestDecodeTruncatedHeaderIsFormatError(t *testing.T) {
	_, err := Decode(make([]byte, 3))
	kind, ok := rastererr.KindOf(err)
	if !ok || kind != rastererr.FormatError {
		t.Fatalf("err kind = %v (ok=%v), want FormatError", kind, ok)
	}
}

func TestDecodeBadVersionIsFormatError(t *testing.T) {
	vals := make([]uint8, 4)
	arr, _ := raster.NewArray(raster.U8, raster.PlainMetadata(2, 2, nil), vals)
	blob, _ := Encode(raster.AnyArray{DType: raster.U8, U8: arr})
	blob[4] = 9 // bump version field past what Decode accepts
	_, err := Decode(blob)
	kind, ok := rastererr.KindOf(err)
	if !ok || kind != rastererr.FormatError {
		t.Fatalf("err kind = %v (ok=%v), want FormatError", kind, ok)
	}
}

func TestDecodeTruncatedPayloadIsFormatError(t *testing.T) {
	vals := make([]uint8, 256)
	arr, _ := raster.NewArray(raster.U8, raster.PlainMetadata(16, 16, nil), vals)
	blob, _ := Encode(raster.AnyArray{DType: raster.U8, U8: arr})
	truncated := blob[:len(blob)-1]
	_, err := Decode(truncated)
	kind, ok := rastererr.KindOf(err)
	if !ok || kind != rastererr.FormatError {
		t.Fatalf("err kind = %v (ok=%v), want FormatError", kind, ok)
	}
}
