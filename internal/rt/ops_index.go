package rt

// Index implements `container[key]` for every built-in container; object
// and opaque operands dispatch to __getindex.
func Index(w *World, v *View, container, key Value) (Value, error) {
	switch container.Type {
	case TArray:
		i, err := indexAsInt(key)
		if err != nil {
			return Value{}, err
		}
		a := asArray(container.E)
		if i < 0 {
			i += a.Len()
		}
		val, err := a.Get(i)
		if err != nil {
			return Value{}, err
		}
		w.IncrefValue(val)
		return val, nil
	case TBlob:
		i, err := indexAsInt(key)
		if err != nil {
			return Value{}, err
		}
		b := asBlob(container.E)
		if i < 0 {
			i += b.Len()
		}
		Byt, err := b.Get(i)
		if err != nil {
			return Value{}, err
		}
		return NewInt(int64(Byt)), nil
	case TString:
		i, err := indexAsInt(key)
		if err != nil {
			return Value{}, err
		}
		s := asStr(container.E)
		if i < 0 {
			i += s.RuneCount()
		}
		r, ok := s.RuneAt(i)
		if !ok {
			return Value{}, errIndexOutOfBounds
		}
		return NewInt(int64(r)), nil
	case TTable:
		t := asTable(container.E)
		val, ok, err := t.Get(key)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return Null, nil
		}
		w.IncrefValue(val)
		return val, nil
	case TObject, TOpaque:
		if fn, found := Get(container, HookGetIdx, 0); found {
			if w.CallHook == nil {
				return Value{}, errNotIndexable
			}
			results, err := w.CallHook(w, v, fn, []Value{container, key})
			if err != nil {
				return Value{}, err
			}
			if len(results) == 0 {
				return Null, nil
			}
			return results[0], nil
		}
		return Value{}, errNotIndexable
	default:
		return Value{}, errNotIndexable
	}
}

// SetIndex implements `container[key] = value`.
func SetIndex(w *World, v *View, container, key, val Value) error {
	switch container.Type {
	case TArray:
		i, err := indexAsInt(key)
		if err != nil {
			return err
		}
		a := asArray(container.E)
		if i < 0 {
			i += a.Len()
		}
		return a.Set(v, i, val)
	case TBlob:
		i, err := indexAsInt(key)
		if err != nil {
			return err
		}
		if val.Type != TInt {
			return errWrongType
		}
		b := asBlob(container.E)
		if i < 0 {
			i += b.Len()
		}
		return b.Set(i, byte(val.I))
	case TTable:
		return asTable(container.E).Set(v, key, val)
	case TObject, TOpaque:
		if fn, found := Get(container, HookSetIdx, 0); found {
			if w.CallHook == nil {
				return errNotIndexable
			}
			_, err := w.CallHook(w, v, fn, []Value{container, key, val})
			return err
		}
		return errNotIndexable
	default:
		return errNotIndexable
	}
}

// DeleteIndex implements `delete container[key]`.
func DeleteIndex(w *World, v *View, container, key Value) error {
	switch container.Type {
	case TTable:
		_, err := asTable(container.E).Delete(v, key)
		return err
	case TObject, TOpaque:
		if fn, found := Get(container, HookDelIdx, 0); found {
			if w.CallHook == nil {
				return errNotIndexable
			}
			_, err := w.CallHook(w, v, fn, []Value{container, key})
			return err
		}
		return errNotIndexable
	default:
		return errIndexNotDeletable
	}
}

// IndexPermissive implements the get-at operation's permissive mode: an
// out-of-range array/blob index returns Null instead of raising
// errIndexOutOfBounds. Tables are already permissive by nature (a
// missing key yields Null via Index itself); object/opaque still
// dispatch to __getindex, which is free to raise. Used by library
// functions that expose a permissive accessor rather than by the `[]`
// operator itself, which always throws.
func IndexPermissive(w *World, v *View, container, key Value) (Value, error) {
	switch container.Type {
	case TArray:
		i, err := indexAsInt(key)
		if err != nil {
			return Value{}, err
		}
		a := asArray(container.E)
		if i < 0 {
			i += a.Len()
		}
		val := a.GetPermissive(i)
		w.IncrefValue(val)
		return val, nil
	case TBlob:
		i, err := indexAsInt(key)
		if err != nil {
			return Value{}, err
		}
		b := asBlob(container.E)
		if i < 0 {
			i += b.Len()
		}
		return b.GetPermissive(i), nil
	default:
		return Index(w, v, container, key)
	}
}

func indexAsInt(key Value) (int, error) {
	if key.Type != TInt {
		return 0, errIndexNotInteger
	}
	return int(key.I), nil
}
