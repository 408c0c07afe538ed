package rt

// Iterator is the runtime-side iteration protocol the VM's IITER/INEXT
// opcodes drive. Next returns ok=false once exhausted; it never panics,
// returning an error instead so a broken __iter hook surfaces as a
// catchable exception rather than crashing the host.
type Iterator interface {
	Next() (key, val Value, ok bool, err error)
}

// NewIteratorFor builds the appropriate Iterator for val: positional
// index iteration for string/blob/array, key/value iteration with
// generation checking for table, and a hook-driven stepper for
// object/opaque values exposing __iter.
func NewIteratorFor(w *World, v *View, val Value) (Iterator, error) {
	switch val.Type {
	case TArray:
		return &arrayIterator{a: asArray(val.E)}, nil
	case TBlob:
		return &blobIterator{b: asBlob(val.E)}, nil
	case TString:
		return &stringIterator{s: asStr(val.E)}, nil
	case TTable:
		t := asTable(val.E)
		return &tableIterator{t: t, gen: t.Generation()}, nil
	case TObject, TOpaque:
		fn, found := Get(val, HookIter, 0)
		if !found || w.CallHook == nil {
			return nil, errNotIterable
		}
		results, err := w.CallHook(w, v, fn, []Value{val})
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, errNotIterable
		}
		return &hookIterator{w: w, v: v, stepper: results[0]}, nil
	default:
		return nil, errNotIterable
	}
}

type arrayIterator struct {
	a *Array
	i int
}

func (it *arrayIterator) Next() (Value, Value, bool, error) {
	if it.i >= it.a.Len() {
		return Value{}, Value{}, false, nil
	}
	val, err := it.a.Get(it.i)
	if err != nil {
		return Value{}, Value{}, false, err
	}
	k := NewInt(int64(it.i))
	it.i++
	return k, val, true, nil
}

type blobIterator struct {
	b *Blob
	i int
}

func (it *blobIterator) Next() (Value, Value, bool, error) {
	if it.i >= it.b.Len() {
		return Value{}, Value{}, false, nil
	}
	by, err := it.b.Get(it.i)
	if err != nil {
		return Value{}, Value{}, false, err
	}
	k := NewInt(int64(it.i))
	it.i++
	return k, NewInt(int64(by)), true, nil
}

type stringIterator struct {
	s *Str
	i int
}

func (it *stringIterator) Next() (Value, Value, bool, error) {
	b := it.s.Bytes()
	if it.i >= len(b) {
		return Value{}, Value{}, false, nil
	}
	k := NewInt(int64(it.i))
	v := NewInt(int64(b[it.i]))
	it.i++
	return k, v, true, nil
}

// tableIterator snapshots the generation at creation and refuses to
// continue once the table has been structurally mutated, matching the
// spec's iterator-mutation-detection requirement.
type tableIterator struct {
	t   *Table
	gen uint64
	i   int
}

func (it *tableIterator) Next() (Value, Value, bool, error) {
	if it.t.Generation() != it.gen {
		return Value{}, Value{}, false, errTableModified
	}
	var k, v Value
	found := false
	idx := 0
	it.t.Each(func(key, val Value) bool {
		if idx == it.i {
			k, v, found = key, val, true
			return false
		}
		idx++
		return true
	})
	if !found {
		return Value{}, Value{}, false, nil
	}
	it.i++
	return k, v, true, nil
}

// hookIterator drives a user-provided stepper function one call at a
// time; the stepper returns no values to signal exhaustion, or
// (key, value) to continue.
type hookIterator struct {
	w       *World
	v       *View
	stepper Value
}

func (it *hookIterator) Next() (Value, Value, bool, error) {
	if it.w.CallHook == nil {
		return Value{}, Value{}, false, errNotIterable
	}
	results, err := it.w.CallHook(it.w, it.v, it.stepper, nil)
	if err != nil {
		return Value{}, Value{}, false, err
	}
	switch len(results) {
	case 0:
		return Value{}, Value{}, false, nil
	case 1:
		return Null, results[0], true, nil
	default:
		return results[0], results[1], true, nil
	}
}
