package rt

import "unicode/utf8"

// Str is the immutable UTF-8 string payload backing TString entities.
// Strings are entity-backed (rather than a primitive Value field) so
// that large strings are shared by reference like every other container,
// per the data model; their content never changes after creation, so
// unlike Array/Table/Object they need no per-entity lock for reads.
type Str struct {
	b []byte
}

// NewString wakes a fresh TString entity copying s.
func NewString(w *World, v *View, s string) *Entity {
	e := w.Wake(v, TString)
	buf := make([]byte, len(s))
	copy(buf, s)
	e.Payload = &Str{b: buf}
	return e
}

// NewStringBytes wakes a fresh TString entity taking ownership of b.
func NewStringBytes(w *World, v *View, b []byte) *Entity {
	e := w.Wake(v, TString)
	e.Payload = &Str{b: b}
	return e
}

func asStr(e *Entity) *Str {
	s, _ := e.Payload.(*Str)
	return s
}

// Len returns the string's length in bytes.
func (s *Str) Len() int { return len(s.b) }

// Bytes returns the string's raw bytes. The caller must not mutate them.
func (s *Str) Bytes() []byte { return s.b }

// String returns a Go string copy of the content.
func (s *Str) String() string { return string(s.b) }

// RuneCount returns the string's length in Unicode code points, the unit
// the indexing operator counts in rather than raw bytes.
func (s *Str) RuneCount() int { return utf8.RuneCount(s.b) }

// RuneAt decodes the i'th code point (0-based), returning
// utf8.RuneError, false if i is out of range.
func (s *Str) RuneAt(i int) (rune, bool) {
	if i < 0 {
		return utf8.RuneError, false
	}
	b := s.b
	for n := 0; n < i; n++ {
		_, size := utf8.DecodeRune(b)
		if size == 0 {
			return utf8.RuneError, false
		}
		b = b[size:]
	}
	if len(b) == 0 {
		return utf8.RuneError, false
	}
	r, _ := utf8.DecodeRune(b)
	return r, true
}

// Children implements Payload: a string references no Values.
func (s *Str) Children(func(*Value)) {}

// Destroy implements Payload.
func (s *Str) Destroy(*World) { s.b = nil }
