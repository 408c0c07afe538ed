package rt

// hashKey reduces a Value to a Go-comparable key suitable for use in a
// native map, implementing the spec's hashability rule: primitives and
// strings hash by content, weak/function/opaque values hash by identity,
// and the mutable containers (array, table, object, blob) are
// unhashable.
func hashKey(v Value) (any, error) {
	switch v.Type {
	case TNull:
		return nil, nil
	case TBool, TInt:
		return v.I, nil
	case TFloat:
		// Normalize -0.0 to 0.0 so it collides with positive zero, as
		// the language's equality operator treats them equal.
		if v.F == 0 {
			return float64(0), nil
		}
		return v.F, nil
	case TOpaquePtr:
		return v.P, nil
	case TString:
		return asStr(v.E).String(), nil
	case TWeakRef, TFunction, TBoundFunction, TOpaque:
		return v.E, nil
	default:
		return nil, errUnhashable
	}
}

// IsHashable reports whether v may be used as a table key.
func IsHashable(v Value) bool {
	_, err := hashKey(v)
	return err == nil
}
