package heapalloc

// Strbuf is a growable byte buffer in the spirit of the spec's "strbuf":
// reserve, append, fill, reverse-append, compact, and swap, backed by an
// Allocator so its growth is visible to live-byte accounting.
type Strbuf struct {
	alloc *Allocator
	buf   []byte
}

// NewStrbuf creates an empty buffer backed by alloc.
func NewStrbuf(alloc *Allocator) *Strbuf {
	return &Strbuf{alloc: alloc}
}

// Len returns the number of bytes currently held.
func (s *Strbuf) Len() int { return len(s.buf) }

// Bytes returns the buffer's contents. The slice is only valid until the
// next mutating call.
func (s *Strbuf) Bytes() []byte { return s.buf }

// Reserve ensures capacity for at least n more bytes without changing Len.
func (s *Strbuf) Reserve(n int) error {
	want := len(s.buf) + n
	if cap(s.buf) >= want {
		return nil
	}
	grown, err := s.alloc.Realloc(PurposeStrbuf, s.buf[:cap(s.buf)], want)
	if err != nil {
		return err
	}
	s.buf = grown[:len(s.buf)]
	return nil
}

// Append adds p to the end of the buffer.
func (s *Strbuf) Append(p ...byte) error {
	if err := s.Reserve(len(p)); err != nil {
		return err
	}
	s.buf = append(s.buf, p...)
	return nil
}

// AppendString adds the bytes of str.
func (s *Strbuf) AppendString(str string) error {
	return s.Append([]byte(str)...)
}

// Fill appends n copies of b.
func (s *Strbuf) Fill(b byte, n int) error {
	if err := s.Reserve(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		s.buf = append(s.buf, b)
	}
	return nil
}

// ReverseAppend inserts p at the front of the buffer.
func (s *Strbuf) ReverseAppend(p ...byte) error {
	if err := s.Reserve(len(p)); err != nil {
		return err
	}
	s.buf = append(s.buf, make([]byte, len(p))...)
	copy(s.buf[len(p):], s.buf)
	copy(s.buf, p)
	return nil
}

// Compact shrinks the backing array to exactly fit Len bytes.
func (s *Strbuf) Compact() error {
	if cap(s.buf) == len(s.buf) {
		return nil
	}
	shrunk, err := s.alloc.Realloc(PurposeStrbuf, s.buf[:cap(s.buf)], len(s.buf))
	if err != nil {
		return err
	}
	s.buf = shrunk[:len(s.buf)]
	return nil
}

// Swap exchanges the contents of s and o in O(1).
func (s *Strbuf) Swap(o *Strbuf) {
	s.buf, o.buf = o.buf, s.buf
}

// Reset empties the buffer without releasing its backing array.
func (s *Strbuf) Reset() { s.buf = s.buf[:0] }

// String returns a copy of the buffer's contents as a string.
func (s *Strbuf) String() string { return string(s.buf) }
