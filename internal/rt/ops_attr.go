package rt

// Metatable slot indices into World.Metatables: the built-in method
// tables consulted for attribute access on primitive container types
// that have no prototype field of their own.
const (
	MetaString = 0
	MetaBlob   = 1
	MetaArray  = 2
	MetaTable  = 3
	MetaIOFile = 4
)

func metaFor(w *World, t Type) (Value, bool) {
	var i int
	switch t {
	case TString:
		i = MetaString
	case TBlob:
		i = MetaBlob
	case TArray:
		i = MetaArray
	case TTable:
		i = MetaTable
	default:
		return Value{}, false
	}
	m := w.Metatables[i]
	return m, !m.IsNull()
}

// GetAttr implements `value.name`. Object and opaque values walk their
// own prototype chain; every other type falls back to its metatable, if
// one is registered. A function result found via the chain is wrapped in
// a bound function so `obj.method()` passes obj as the receiver.
func GetAttr(w *World, v *View, val Value, name string) (Value, error) {
	switch val.Type {
	case TObject, TOpaque:
		if attr, ok := Get(val, name, 0); ok {
			if attr.Type == TFunction {
				return FromEntity(NewBoundFunction(w, v, attr, val)), nil
			}
			w.IncrefValue(attr)
			return attr, nil
		}
		if fn, found := Get(val, HookGetAttr, 0); found && w.CallHook != nil {
			s := FromEntity(NewString(w, v, name))
			results, err := w.CallHook(w, v, fn, []Value{val, s})
			if err != nil {
				return Value{}, err
			}
			if len(results) == 0 {
				return Null, nil
			}
			return results[0], nil
		}
		return Value{}, errNoSuchAttr
	default:
		if m, ok := metaFor(w, val.Type); ok {
			if attr, found := Get(m, name, 0); found {
				if attr.Type == TFunction {
					return FromEntity(NewBoundFunction(w, v, attr, val)), nil
				}
				w.IncrefValue(attr)
				return attr, nil
			}
		}
		return Value{}, errNoSuchAttr
	}
}

// SetAttr implements `value.name = x`.
func SetAttr(w *World, v *View, val Value, name string, newVal Value) error {
	switch val.Type {
	case TObject:
		return asObject(val.E).SetOwn(v, name, newVal)
	case TOpaque:
		return asOpaque(val.E).SetOwn(v, name, newVal)
	default:
		return errAttrNotDeletable
	}
}

// DeleteAttr implements `delete value.name`.
func DeleteAttr(w *World, v *View, val Value, name string) error {
	if val.Type != TObject {
		return errAttrNotDeletable
	}
	ok, err := asObject(val.E).DeleteOwn(v, name)
	if err != nil {
		return err
	}
	if !ok {
		return errNoSuchAttr
	}
	return nil
}
