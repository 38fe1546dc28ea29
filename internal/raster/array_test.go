package raster

import (
	"math"
	"testing"
)

func TestEmptyArray(t *testing.T) {
	a := Empty[int16]()
	if !a.IsEmpty() {
		t.Fatal("Empty() should report IsEmpty")
	}
	if a.Data.Len() != 0 {
		t.Errorf("Empty() data len = %d, want 0", a.Data.Len())
	}
}

func TestNewArrayNodataCoercion(t *testing.T) {
	declared := -9999.0
	meta := PlainMetadata(1, 4, &declared)
	arr, err := NewArray[int32](I32, meta, []int32{1, -9999, 3, -9999})
	if err != nil {
		t.Fatalf("NewArray error: %v", err)
	}
	vals := arr.Data.Values()
	sentinel := int32(I32.DefaultNodata())
	if vals[1] != sentinel || vals[3] != sentinel {
		t.Errorf("nodata not coerced: %v, want sentinel %d at idx 1,3", vals, sentinel)
	}
	if vals[0] != 1 || vals[2] != 3 {
		t.Errorf("non-nodata values mutated: %v", vals)
	}
}

func TestNewArrayLengthMismatch(t *testing.T) {
	meta := PlainMetadata(2, 2, nil)
	if _, err := NewArray[uint8](U8, meta, []uint8{1, 2, 3}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestWindow(t *testing.T) {
	meta := PlainMetadata(3, 3, nil)
	arr, err := NewArray[int32](I32, meta, []int32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	if err != nil {
		t.Fatalf("NewArray error: %v", err)
	}
	win, err := Window(arr, 1, 1, 2, 2)
	if err != nil {
		t.Fatalf("Window error: %v", err)
	}
	want := []int32{5, 6, 8, 9}
	got := win.Data.Values()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("window[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestWindowOutOfBounds(t *testing.T) {
	meta := PlainMetadata(2, 2, nil)
	arr, _ := NewArray[int8](I8, meta, []int8{1, 2, 3, 4})
	if _, err := Window(arr, 1, 1, 5, 5); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
}

func TestPasteIntoClips(t *testing.T) {
	dstMeta := PlainMetadata(2, 2, nil)
	dst, _ := NewArray[uint8](U8, dstMeta, []uint8{0, 0, 0, 0})
	srcMeta := PlainMetadata(2, 2, nil)
	src, _ := NewArray[uint8](U8, srcMeta, []uint8{1, 2, 3, 4})
	PasteInto(dst, src, 1, 1)
	got := dst.Data.Values()
	want := []uint8{0, 0, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paste[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFill(t *testing.T) {
	meta := PlainMetadata(1, 3, nil)
	arr, _ := NewArray[int16](I16, meta, []int16{1, 2, 3})
	Fill(arr, int16(-1))
	for _, v := range arr.Data.Values() {
		if v != -1 {
			t.Errorf("Fill left value %d, want -1", v)
		}
	}
}

func TestCastRemapsNodata(t *testing.T) {
	declared := U8.DefaultNodata()
	meta := PlainMetadata(1, 2, &declared)
	arr, _ := NewArray[uint8](U8, meta, []uint8{1, 255})
	out := Cast[uint8, float32](arr, F32)
	if out.Meta.Nodata == nil || !math.IsNaN(*out.Meta.Nodata) {
		t.Errorf("Cast nodata = %v, want NaN", out.Meta.Nodata)
	}
	got := out.Data.Values()
	if got[0] != 1 {
		t.Errorf("Cast value[0] = %v, want 1", got[0])
	}
}

func TestAnyArrayMetadataAndBytes(t *testing.T) {
	a := NewAnyEmpty(F32)
	if a.Metadata().Rows != 0 {
		t.Errorf("empty AnyArray metadata rows = %d, want 0", a.Metadata().Rows)
	}
	meta := PlainMetadata(1, 2, nil)
	arr, _ := NewArray[float32](F32, meta, []float32{1.5, 2.5})
	any := AnyArray{DType: F32, F32: arr}
	if any.Metadata().Cols != 2 {
		t.Errorf("Metadata().Cols = %d, want 2", any.Metadata().Cols)
	}
	if len(any.Bytes()) != 8 {
		t.Errorf("Bytes() len = %d, want 8", len(any.Bytes()))
	}
}
