package rt

// Bitwise implements the bitwise operators, which unlike arithmetic never
// promote to float: both operands must already be int, or the operator
// dispatches to its overload hook. and/or additionally fast-path a bool
// pair straight to a bool result: bool has no prototype to hang a hook
// off of, and the spec requires and/or to work on bools directly.
func Bitwise(w *World, v *View, hook string, op func(a, b int64) int64, lhs, rhs Value) (Value, error) {
	if lhs.Type == TInt && rhs.Type == TInt {
		return NewInt(op(lhs.I, rhs.I)), nil
	}
	if lhs.Type == TBool && rhs.Type == TBool && (hook == HookBAnd || hook == HookBOr) {
		return NewBool(op(lhs.I, rhs.I) != 0), nil
	}
	if result, ok, err := callOverload2(w, v, hook, lhs, rhs); ok {
		return result, err
	}
	return Value{}, errWrongType
}

func BAnd(a, b int64) int64 { return a & b }
func BOr(a, b int64) int64  { return a | b }
func BXor(a, b int64) int64 { return a ^ b }

// shiftAmount reduces a shift distance modulo the 64-bit word width: a
// shift of 65 behaves like a shift of 1, rather than clamping to an
// all-or-nothing 0/-1 result.
func shiftAmount(b int64) int64 {
	b %= 64
	if b < 0 {
		b += 64
	}
	return b
}

func Shl(a, b int64) int64 {
	if b < 0 {
		return Shr(a, -b)
	}
	return a << uint(shiftAmount(b))
}
func Shr(a, b int64) int64 {
	if b < 0 {
		return Shl(a, -b)
	}
	return a >> uint(shiftAmount(b))
}

// UnaryBNot implements bitwise complement.
func UnaryBNot(w *World, v *View, val Value) (Value, error) {
	if val.Type == TInt {
		return NewInt(^val.I), nil
	}
	if result, ok, err := callOverload1(w, v, HookBNot, val); ok {
		return result, err
	}
	return Value{}, errWrongType
}
