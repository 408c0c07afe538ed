// Package heapalloc implements the allocator façade described by the
// runtime spec's component A: a thin wrapper around a single pluggable
// alloc primitive, with live-byte accounting and an emergency-GC-and-retry
// hook on failure.
package heapalloc

import "errors"

// ErrOutOfMemory is returned when an allocation fails even after the
// emergency collection retry.
var ErrOutOfMemory = errors.New("heapalloc: out of memory")

// ErrOverflow is returned by typed allocation helpers when count*size
// would overflow a Size.
var ErrOverflow = errors.New("heapalloc: size overflow")

// Purpose tags an allocation for debug accounting and GC grouping.
type Purpose uint8

const (
	PurposeMisc Purpose = iota
	PurposeEntity
	PurposeArray
	PurposeBlob
	PurposeTable
	PurposeString
	PurposeFrame
	PurposeStrbuf
)

// Primitive is the single pluggable allocation function a host provides.
// newSize == 0 frees oldPtr; oldPtr == nil allocates fresh. It returns nil
// on failure (OOM), mirroring the realloc-style convention the spec
// requires.
type Primitive func(udata any, purpose Purpose, oldSize, newSize int, oldPtr []byte) []byte

// GCHook is invoked once, synchronously, when the primitive fails; if it
// frees enough memory the façade retries the allocation exactly once.
type GCHook func()

// Allocator wraps a Primitive, tracks an approximate live-byte total, and
// triggers GCHook on failure before giving up.
type Allocator struct {
	prim  Primitive
	gc    GCHook
	udata any

	used int64 // approximate; only shrinks are debited eagerly
}

// New creates an Allocator around prim. gc may be nil (no emergency
// collection is attempted).
func New(prim Primitive, gc GCHook, udata any) *Allocator {
	return &Allocator{prim: prim, gc: gc, udata: udata}
}

// Used returns the approximate number of live bytes tracked so far.
func (a *Allocator) Used() int64 { return a.used }

// Realloc grows, shrinks, or frees oldPtr to newSize bytes, purpose-tagged
// for the GC. On the first failure it runs the GC hook once and retries.
func (a *Allocator) Realloc(purpose Purpose, oldPtr []byte, newSize int) ([]byte, error) {
	oldSize := len(oldPtr)
	if newSize == 0 {
		if oldPtr != nil {
			a.debit(oldSize)
			a.prim(a.udata, purpose, oldSize, 0, oldPtr)
		}
		return nil, nil
	}
	p := a.prim(a.udata, purpose, oldSize, newSize, oldPtr)
	if p == nil && a.gc != nil {
		a.gc()
		p = a.prim(a.udata, purpose, oldSize, newSize, oldPtr)
	}
	if p == nil {
		return nil, ErrOutOfMemory
	}
	a.credit(newSize - oldSize)
	return p, nil
}

// Alloc is Realloc from nil.
func (a *Allocator) Alloc(purpose Purpose, size int) ([]byte, error) {
	return a.Realloc(purpose, nil, size)
}

// Free is Realloc to zero.
func (a *Allocator) Free(purpose Purpose, p []byte) {
	_, _ = a.Realloc(purpose, p, 0)
}

// AllocTyped allocates count*elemSize bytes, failing with ErrOverflow
// rather than wrapping if the product overflows.
func (a *Allocator) AllocTyped(purpose Purpose, count, elemSize int) ([]byte, error) {
	if count < 0 || elemSize < 0 {
		return nil, ErrOverflow
	}
	if elemSize != 0 && count > (1<<62)/elemSize {
		return nil, ErrOverflow
	}
	return a.Alloc(purpose, count*elemSize)
}

func (a *Allocator) credit(delta int) { a.used += int64(delta) }
func (a *Allocator) debit(size int)   { a.used -= int64(size) }

// DefaultPrimitive is a Go-native Primitive built on make/append; it never
// fails (Go's own runtime GC backs it), but purpose tagging and the
// oldSize/newSize contract are preserved so façade accounting still works
// when a host does plug in a failing allocator.
func DefaultPrimitive(_ any, _ Purpose, _, newSize int, oldPtr []byte) []byte {
	if newSize == 0 {
		return nil
	}
	p := make([]byte, newSize)
	copy(p, oldPtr)
	return p
}

// SecureZero overwrites b with zeros in a way that the compiler will not
// elide even though b is about to become garbage; used to scrub freed
// memory regions that may have held sensitive data.
func SecureZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtimeKeepAlive(b)
}

//go:noinline
func runtimeKeepAlive(b []byte) {
	if len(b) > 0 && b[0] != 0 {
		panic("heapalloc: SecureZero did not clear buffer")
	}
}
