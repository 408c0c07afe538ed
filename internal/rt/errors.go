package rt

import "errors"

// Sentinel errors raised by value operations (component C) and entity
// manager operations (component B). The VM (internal/vm) maps these onto
// the exception taxonomy in internal/xerr; rt itself stays independent of
// that machinery so it can be unit-tested without a running VM.
var (
	errCannotWeak     = errors.New("rt: value cannot be weakly referenced")
	errUnhashable     = errors.New("rt: value is not hashable")
	errNotIndexable   = errors.New("rt: value does not support indexing")
	errNotIterable    = errors.New("rt: value is not iterable")
	errIndexOutOfBounds = errors.New("rt: index out of bounds")
	errIndexNotInteger  = errors.New("rt: index is not an integer")
	errWrongType      = errors.New("rt: operand has the wrong type")
	errFrozen         = errors.New("rt: object is frozen")
	errNoSuchAttr     = errors.New("rt: no such attribute")
	errAttrNotDeletable = errors.New("rt: attribute cannot be deleted")
	errIndexNotDeletable = errors.New("rt: index cannot be deleted")
	errTableModified     = errors.New("rt: table modified during iteration")
)

// ErrMath is returned by arithmetic and comparison operations that hit a
// numeric-domain failure (division by zero, comparison against NaN).
// Exported so internal/vm can recognize it and raise the "math" kind
// from internal/xerr rather than the generic internal-error fallback
// every other rt sentinel maps to.
var ErrMath = errors.New("rt: math domain error")
