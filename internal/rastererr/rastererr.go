// Package rastererr defines the error taxonomy shared across the COG
// parser, tile decoder, web-tile reader and raster-tile codec: a small set
// of wrapper kinds that callers can distinguish with errors.As/errors.Is
// without depending on any single package's concrete error types.
package rastererr

import "fmt"

// Kind identifies which taxonomy bucket an error belongs to.
type Kind int

const (
	// InvalidArgument is malformed input from the caller: bad coordinates,
	// wrong dtype, dimension mismatch. Surfaced verbatim, never retried.
	InvalidArgument Kind = iota
	// FormatError is a malformed COG/TIFF/blob, unsupported compression or
	// predictor, or a signature mismatch. Surfaced, never retried.
	FormatError
	// EOFPartial occurs only during header parsing; the caller retries with
	// a doubled buffer, repeatedly up to a size cap, before promoting it to
	// FormatError.
	EOFPartial
	// IOError is an underlying storage failure, surfaced unchanged.
	IOError
	// Cancelled means the progress reporter signalled cancellation. Distinct
	// from IOError; callers may treat it as a non-failure outcome.
	Cancelled
	// Runtime covers all other logic failures: size inconsistencies,
	// impossible numeric overflow, a determinant too small to invert.
	Runtime
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case FormatError:
		return "format_error"
	case EOFPartial:
		return "eof_partial"
	case IOError:
		return "io_error"
	case Cancelled:
		return "cancelled"
	case Runtime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Error is a taxonomy-tagged error. Wrap with %w via fmt.Errorf or the New*
// constructors below; use errors.As to recover the Kind at a call site.
type Error struct {
	Kind Kind
	Op   string // component/operation that raised it, e.g. "cog.parseTIFF"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind. Callers recover the Kind with
// errors.As (or KindOf) rather than errors.Is.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Invalid(op string, format string, args ...any) *Error {
	return New(InvalidArgument, op, fmt.Errorf(format, args...))
}

func Format(op string, format string, args ...any) *Error {
	return New(FormatError, op, fmt.Errorf(format, args...))
}

func EOF(op string, format string, args ...any) *Error {
	return New(EOFPartial, op, fmt.Errorf(format, args...))
}

func IO(op string, err error) *Error {
	return New(IOError, op, err)
}

// IOf is IO for call sites that want to format the underlying error,
// mirroring Format/Runtimef's format-string shape.
func IOf(op string, format string, args ...any) *Error {
	return New(IOError, op, fmt.Errorf(format, args...))
}

func CancelledErr(op string) *Error {
	return New(Cancelled, op, fmt.Errorf("operation cancelled"))
}

func Runtimef(op string, format string, args ...any) *Error {
	return New(Runtime, op, fmt.Errorf(format, args...))
}

// KindOf returns the Kind of err if it (or something it wraps) is an
// *Error, and ok=true; otherwise Runtime and ok=false.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind, true
	}
	return Runtime, false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
