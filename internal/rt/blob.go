package rt

// Blob is the mutable byte-buffer container backing TBlob entities,
// grounded on original_source/src/ublob.c. Unlike Array its elements are
// raw bytes, not Values, so it holds no GC children of its own.
type Blob struct {
	data []byte
}

// NewBlob wakes a fresh TBlob entity of the given size, zero-filled.
func NewBlob(w *World, v *View, size int) *Entity {
	e := w.Wake(v, TBlob)
	e.Payload = &Blob{data: make([]byte, size)}
	return e
}

// NewBlobFrom wakes a TBlob entity taking ownership of buf directly.
func NewBlobFrom(w *World, v *View, buf []byte) *Entity {
	e := w.Wake(v, TBlob)
	e.Payload = &Blob{data: buf}
	return e
}

func asBlob(e *Entity) *Blob {
	b, _ := e.Payload.(*Blob)
	return b
}

// Len returns the blob's size in bytes.
func (b *Blob) Len() int { return len(b.data) }

// Bytes returns the blob's backing storage. Callers must not retain the
// slice across a Resize.
func (b *Blob) Bytes() []byte { return b.data }

// Get returns the byte at i as an int in [0, 255].
func (b *Blob) Get(i int) (byte, error) {
	if i < 0 || i >= len(b.data) {
		return 0, errIndexOutOfBounds
	}
	return b.data[i], nil
}

// GetPermissive returns the byte at i as a Value int, or Null if out of
// bounds, per the get-at operation's permissive read mode.
func (b *Blob) GetPermissive(i int) Value {
	if i < 0 || i >= len(b.data) {
		return Null
	}
	return NewInt(int64(b.data[i]))
}

// Set overwrites the byte at i.
func (b *Blob) Set(i int, val byte) error {
	if i < 0 || i >= len(b.data) {
		return errIndexOutOfBounds
	}
	b.data[i] = val
	return nil
}

// Resize grows or shrinks the blob, zero-filling any new bytes.
func (b *Blob) Resize(n int) {
	if n <= len(b.data) {
		b.data = b.data[:n]
		return
	}
	grown := make([]byte, n)
	copy(grown, b.data)
	b.data = grown
}

// Slice returns a fresh Blob holding a copy of [lo, hi).
func (b *Blob) Slice(w *World, v *View, lo, hi int) (*Entity, error) {
	if lo < 0 || hi > len(b.data) || lo > hi {
		return nil, errIndexOutOfBounds
	}
	cut := make([]byte, hi-lo)
	copy(cut, b.data[lo:hi])
	return NewBlobFrom(w, v, cut), nil
}

// Children implements Payload: a blob references no Values.
func (b *Blob) Children(func(*Value)) {}

// Destroy implements Payload.
func (b *Blob) Destroy(*World) { b.data = nil }
