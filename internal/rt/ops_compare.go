package rt

import (
	"bytes"
	"math"
)

// Equal implements value equality: numeric operands compare by value
// across int/float, strings compare by content, everything else by
// entity identity unless an __eq hook overrides it.
func Equal(w *World, v *View, lhs, rhs Value) (bool, error) {
	if isNumeric(lhs) && isNumeric(rhs) {
		return numericF(lhs) == numericF(rhs), nil
	}
	if lhs.Type != rhs.Type {
		if result, ok, err := callOverload2(w, v, HookEq, lhs, rhs); ok {
			if err != nil {
				return false, err
			}
			return result.Bool(), nil
		}
		return false, nil
	}
	switch lhs.Type {
	case TNull:
		return true, nil
	case TBool:
		return lhs.I == rhs.I, nil
	case TOpaquePtr:
		return lhs.P == rhs.P, nil
	case TString:
		return bytes.Equal(asStr(lhs.E).Bytes(), asStr(rhs.E).Bytes()), nil
	case TObject, TOpaque:
		if lhs.E == rhs.E {
			return true, nil
		}
		if result, ok, err := callOverload2(w, v, HookEq, lhs, rhs); ok {
			if err != nil {
				return false, err
			}
			return result.Bool(), nil
		}
		return false, nil
	default:
		return lhs.E == rhs.E, nil
	}
}

// Compare implements ordering: returns -1, 0, or 1. Strings compare
// lexicographically by byte value; numbers by value (NaN is an error, not
// an ordering); everything else must go through the __cmp overload or
// raise errWrongType.
func Compare(w *World, v *View, lhs, rhs Value) (int, error) {
	if isNumeric(lhs) && isNumeric(rhs) {
		a, b := numericF(lhs), numericF(rhs)
		if math.IsNaN(a) || math.IsNaN(b) {
			return 0, ErrMath
		}
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if lhs.Type == TString && rhs.Type == TString {
		return bytes.Compare(asStr(lhs.E).Bytes(), asStr(rhs.E).Bytes()), nil
	}
	if result, ok, err := callOverload2(w, v, HookCmp, lhs, rhs); ok {
		if err != nil {
			return 0, err
		}
		if !isNumeric(result) {
			return 0, errWrongType
		}
		c := numericF(result)
		switch {
		case c < 0:
			return -1, nil
		case c > 0:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, errWrongType
}
