package rastererr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfDirect(t *testing.T) {
	err := Format("cog.parseTIFF", "bad magic byte order %x", 0x1234)
	kind, ok := KindOf(err)
	if !ok || kind != FormatError {
		t.Fatalf("KindOf = (%v,%v), want (FormatError,true)", kind, ok)
	}
}

func TestKindOfWrapped(t *testing.T) {
	base := Invalid("webtile.Tile", "zoom %d out of range", 99)
	wrapped := fmt.Errorf("reading tile: %w", base)
	kind, ok := KindOf(wrapped)
	if !ok || kind != InvalidArgument {
		t.Fatalf("KindOf(wrapped) = (%v,%v), want (InvalidArgument,true)", kind, ok)
	}
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	if ok {
		t.Fatal("expected ok=false for a plain error")
	}
}

func TestErrorString(t *testing.T) {
	err := IO("cog.Open", errors.New("disk failure"))
	want := "cog.Open: io_error: disk failure"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := Runtimef("raster.PointToCell", "determinant too small")
	err.Err = inner
	if errors.Unwrap(err) != inner {
		t.Error("Unwrap did not return inner error")
	}
}
