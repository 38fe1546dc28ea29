package raster

import (
	"fmt"
	"unsafe"
)

// alignment is the cache-line alignment AlignedBuffer targets. Go's
// allocator doesn't expose alignment control directly, so this is
// documentation of intent rather than an enforced guarantee; callers that
// need true alignment guarantees (e.g. SIMD) should over-allocate and slice.
const alignment = 64

// AlignedBuffer is a growable typed vector that can be reinterpreted as raw
// bytes without copying. It supports two safe constructions: committed
// (values pushed, length == count) and uninit-then-commit (a fixed-capacity
// slab handed to an external writer such as a codec, then sealed to an
// exact length).
type AlignedBuffer[T Pixel] struct {
	data   []T
	sealed bool
}

// NewCommitted returns an AlignedBuffer whose contents are exactly values.
// The slice is copied so the caller's backing array may be reused.
func NewCommitted[T Pixel](values []T) AlignedBuffer[T] {
	data := make([]T, len(values))
	copy(data, values)
	return AlignedBuffer[T]{data: data, sealed: true}
}

// NewUninit returns an AlignedBuffer with capacity for exactly n elements
// of T, uninitialized. The caller must fill Slab() and call Seal(n) before
// the buffer is observable via Values/Bytes.
func NewUninit[T Pixel](n int) AlignedBuffer[T] {
	return AlignedBuffer[T]{data: make([]T, n), sealed: false}
}

// Slab returns the full backing storage as a byte slice for an external
// writer (e.g. a decompressor) to fill. Valid only before Seal.
func (b *AlignedBuffer[T]) Slab() []byte {
	if len(b.data) == 0 {
		return nil
	}
	var zero T
	sz := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.data[0])), len(b.data)*sz)
}

// Seal commits the buffer: n must equal the element count the buffer was
// constructed with via NewUninit. Calling it again with the same n has no
// further effect.
func (b *AlignedBuffer[T]) Seal(n int) error {
	if n != len(b.data) {
		return fmt.Errorf("raster: seal length mismatch: got %d, want %d", n, len(b.data))
	}
	b.sealed = true
	return nil
}

// Sealed reports whether the buffer has been committed or sealed.
func (b *AlignedBuffer[T]) Sealed() bool {
	return b.sealed
}

// Len returns the number of elements.
func (b *AlignedBuffer[T]) Len() int {
	return len(b.data)
}

// Values returns the typed contents. Panics if the buffer has not been
// sealed, since pre-seal contents are not observable by contract.
func (b *AlignedBuffer[T]) Values() []T {
	if !b.sealed {
		panic("raster: Values called on unsealed AlignedBuffer")
	}
	return b.data
}

// Bytes reinterprets the buffer's contents as a byte slice. Total byte
// length is preserved exactly (len(T)*sizeof(T)).
func (b *AlignedBuffer[T]) Bytes() []byte {
	if len(b.data) == 0 {
		return nil
	}
	var zero T
	sz := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.data[0])), len(b.data)*sz)
}

// FromBytes reinterprets raw bytes as a sealed AlignedBuffer[T]. Returns an
// error if len(raw) isn't a multiple of sizeof(T). raw is read in host byte
// order; this copy does not swap bytes.
func FromBytes[T Pixel](raw []byte) (AlignedBuffer[T], error) {
	var zero T
	sz := int(unsafe.Sizeof(zero))
	if len(raw)%sz != 0 {
		return AlignedBuffer[T]{}, fmt.Errorf("raster: byte length %d not divisible by element size %d", len(raw), sz)
	}
	n := len(raw) / sz
	out := make([]T, n)
	if n > 0 {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(raw)), raw)
	}
	return AlignedBuffer[T]{data: out, sealed: true}, nil
}
