package cog

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/pspoerri/geotiff2raster/internal/raster"
)

func predictHorizontal(data []byte, width int, elemSize int, bo binary.ByteOrder) {
	rowBytes := width * elemSize
	for rowStart := 0; rowStart+rowBytes <= len(data); rowStart += rowBytes {
		row := data[rowStart : rowStart+rowBytes]
		switch elemSize {
		case 1:
			for i := width - 1; i >= 1; i-- {
				row[i] -= row[i-1]
			}
		case 2:
			for i := width - 1; i >= 1; i-- {
				off := i * 2
				v := bo.Uint16(row[off:off+2]) - bo.Uint16(row[off-2:off])
				bo.PutUint16(row[off:off+2], v)
			}
		case 4:
			for i := width - 1; i >= 1; i-- {
				off := i * 4
				v := bo.Uint32(row[off:off+4]) - bo.Uint32(row[off-4:off])
				bo.PutUint32(row[off:off+4], v)
			}
		}
	}
}

func TestUnpredictHorizontalRoundTrip8Bit(t *testing.T) {
	original := []byte{10, 20, 30, 40, 5, 15, 25, 35}
	width := 4
	predicted := append([]byte(nil), original...)
	predictHorizontal(predicted, width, 1, binary.LittleEndian)

	if err := unpredictHorizontal(predicted, width, raster.U8, binary.LittleEndian); err != nil {
		t.Fatalf("unpredictHorizontal error: %v", err)
	}
	for i := range original {
		if predicted[i] != original[i] {
			t.Errorf("byte[%d] = %d, want %d", i, predicted[i], original[i])
		}
	}
}

func TestUnpredictHorizontalRoundTrip16Bit(t *testing.T) {
	width := 4
	orig := []uint16{1000, 1200, 900, 1500, 300, 310, 305, 290}
	buf := make([]byte, len(orig)*2)
	for i, v := range orig {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	predicted := append([]byte(nil), buf...)
	predictHorizontal(predicted, width, 2, binary.LittleEndian)

	if err := unpredictHorizontal(predicted, width, raster.U16, binary.LittleEndian); err != nil {
		t.Fatalf("unpredictHorizontal error: %v", err)
	}
	for i := range buf {
		if predicted[i] != buf[i] {
			t.Errorf("byte[%d] = %d, want %d", i, predicted[i], buf[i])
		}
	}
}

func TestUnpredictHorizontalWraps(t *testing.T) {
	// 250, 10 as uint8: predicted row is [250, (10-250)&0xFF] = [250, 16]
	predicted := []byte{250, 16}
	if err := unpredictHorizontal(predicted, 2, raster.U8, binary.LittleEndian); err != nil {
		t.Fatalf("unpredictHorizontal error: %v", err)
	}
	if predicted[0] != 250 || predicted[1] != 10 {
		t.Errorf("got %v, want [250 10]", predicted)
	}
}

// predictFloatingPoint mirrors the TIFF FP predictor's forward direction
// (shuffle by significance, then byte-horizontal-difference) so the test
// can build synthetic predicted input without relying on the decoder under
// test.
func predictFloatingPoint(row []byte, width, elemSize int, bo binary.ByteOrder) []byte {
	beBytes := make([]byte, len(row))
	copy(beBytes, row)
	if bo == binary.LittleEndian {
		for px := 0; px < width; px++ {
			reverseBytes(beBytes[px*elemSize : px*elemSize+elemSize])
		}
	}
	shuffled := make([]byte, len(row))
	for px := 0; px < width; px++ {
		for b := 0; b < elemSize; b++ {
			shuffled[b*width+px] = beBytes[px*elemSize+b]
		}
	}
	for i := len(shuffled) - 1; i >= 1; i-- {
		shuffled[i] -= shuffled[i-1]
	}
	return shuffled
}

func TestUnpredictFloatingPointRoundTrip32(t *testing.T) {
	width := 4
	values := []float32{1.5, 1.6, 1.55, 1.62}
	row := make([]byte, width*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(row[i*4:], math.Float32bits(v))
	}
	predicted := predictFloatingPoint(row, width, 4, binary.LittleEndian)

	if err := unpredictFloatingPoint(predicted, width, raster.F32, binary.LittleEndian); err != nil {
		t.Fatalf("unpredictFloatingPoint error: %v", err)
	}
	for i := range row {
		if predicted[i] != row[i] {
			t.Fatalf("byte[%d] = %d, want %d (full: got %v want %v)", i, predicted[i], row[i], predicted, row)
		}
	}
}
