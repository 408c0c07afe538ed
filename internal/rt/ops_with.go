package rt

// OpenResource implements the entry half of a `with` block: object and
// opaque values with an __open hook run it and yield its result as the
// bound name; anything else is used as-is (a plain file handle opaque
// that opens eagerly at construction, say).
func OpenResource(w *World, v *View, val Value) (Value, error) {
	if val.Type != TObject && val.Type != TOpaque {
		return val, nil
	}
	fn, found := Get(val, HookOpen, 0)
	if !found {
		return val, nil
	}
	if w.CallHook == nil {
		return Value{}, errNotIndexable
	}
	results, err := w.CallHook(w, v, fn, []Value{val})
	if err != nil {
		return Value{}, err
	}
	if len(results) == 0 {
		return val, nil
	}
	return results[0], nil
}

// CloseResource implements the exit half, run both on normal scope exit
// and while unwinding past a thrown exception.
func CloseResource(w *World, v *View, val Value) error {
	if val.Type != TObject && val.Type != TOpaque {
		return nil
	}
	fn, found := Get(val, HookClose, 0)
	if !found {
		return nil
	}
	if w.CallHook == nil {
		return nil
	}
	_, err := w.CallHook(w, v, fn, []Value{val})
	return err
}
