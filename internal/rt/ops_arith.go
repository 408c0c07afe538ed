package rt

import "math"

// callOverload1 invokes name on lhs's prototype chain with [lhs] as the
// only argument, if a hook is bound and a CallHook is wired. ok is false
// if no overload was found.
func callOverload1(w *World, v *View, name string, lhs Value) (Value, bool, error) {
	fn, found := Get(lhs, name, 0)
	if !found || w.CallHook == nil {
		return Value{}, false, nil
	}
	results, err := w.CallHook(w, v, fn, []Value{lhs})
	if err != nil {
		return Value{}, true, err
	}
	if len(results) == 0 {
		return Null, true, nil
	}
	return results[0], true, nil
}

// callOverload2 looks up name on lhs's prototype chain first; if absent,
// it falls back to the name+"2" hook on rhs's prototype chain (__add2,
// __cmp2, ...), the convention original_source/src/uvm.c's OPOVERLOAD
// macro uses so a foreign right operand can still handle a binary
// operator its left-hand partner doesn't recognize. Both hooks are
// called with the same [lhs, rhs] argument order.
func callOverload2(w *World, v *View, name string, lhs, rhs Value) (Value, bool, error) {
	fn, found := Get(lhs, name, 0)
	if !found {
		fn, found = Get(rhs, name+"2", 0)
	}
	if !found || w.CallHook == nil {
		return Value{}, false, nil
	}
	results, err := w.CallHook(w, v, fn, []Value{lhs, rhs})
	if err != nil {
		return Value{}, true, err
	}
	if len(results) == 0 {
		return Null, true, nil
	}
	return results[0], true, nil
}

// ArithOp describes one binary numeric operator's integer and float
// implementations, and which overload hook covers it for object operands.
// Exported so internal/vm can dispatch OpAdd/OpSub/... without rt needing
// to know the VM's opcode encoding.
type ArithOp struct {
	hook    string
	intOp   func(a, b int64) (int64, bool) // ok=false means "promote to float"
	floatOp func(a, b float64) float64
}

var (
	ArithAdd  = ArithOp{HookAdd, addInt, func(a, b float64) float64 { return a + b }}
	ArithSub  = ArithOp{HookSub, subInt, func(a, b float64) float64 { return a - b }}
	ArithMul  = ArithOp{HookMul, mulInt, func(a, b float64) float64 { return a * b }}
	ArithIDiv = ArithOp{HookIDiv, idivInt, func(a, b float64) float64 { return math.Floor(a / b) }}
	ArithMod  = ArithOp{HookMod, modInt, func(a, b float64) float64 {
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return r
	}}
)

// opAdd etc. retain their original unexported names for in-package test
// readability.
var (
	opAdd  = ArithAdd
	opSub  = ArithSub
	opMul  = ArithMul
	opIDiv = ArithIDiv
	opMod  = ArithMod
)

func addInt(a, b int64) (int64, bool) {
	r := a + b
	if (r > a) == (b > 0) {
		return r, true
	}
	return 0, false
}

func subInt(a, b int64) (int64, bool) {
	r := a - b
	if (r < a) == (b > 0) {
		return r, true
	}
	return 0, false
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == math.MinInt64 && b == -1) || (a == -1 && b == math.MinInt64) {
		return 0, false
	}
	r := a * b
	if r/b == a {
		return r, true
	}
	return 0, false
}

// idivInt implements floor division (rounds toward negative infinity),
// unlike Go's truncating /: -7 idiv 3 is -3, not -2.
func idivInt(a, b int64) (int64, bool) {
	if a == math.MinInt64 && b == -1 {
		return 0, false
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q, true
}

// modInt implements a modulo that matches the sign of the divisor
// (Euclidean-ish, per the divisor rather than the dividend), unlike
// Go's %: -7 mod 3 is 2, not -1.
func modInt(a, b int64) (int64, bool) {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r, true
}

// Arith evaluates a binary arithmetic operator over lhs and rhs: integer
// operands stay integers unless the exact operation overflows, in which
// case the result is silently promoted to float, per the spec's numeric
// tower rule. idiv/mod by zero is a math error rather than a promotion,
// for either operand type. Object/opaque operands dispatch to the
// operator's overload hook.
func Arith(w *World, v *View, op ArithOp, lhs, rhs Value) (Value, error) {
	switch {
	case isNumeric(lhs) && isNumeric(rhs) && (op.hook == HookIDiv || op.hook == HookMod) && numericF(rhs) == 0:
		return Value{}, ErrMath
	case lhs.Type == TInt && rhs.Type == TInt:
		if r, ok := op.intOp(lhs.I, rhs.I); ok {
			return NewInt(r), nil
		}
		return NewFloat(op.floatOp(float64(lhs.I), float64(rhs.I))), nil
	case isNumeric(lhs) && isNumeric(rhs):
		return NewFloat(op.floatOp(numericF(lhs), numericF(rhs))), nil
	default:
		if result, ok, err := callOverload2(w, v, op.hook, lhs, rhs); ok {
			return result, err
		}
		return Value{}, errWrongType
	}
}

// Div always produces a float, matching the language's true-division
// operator; integer division lives under IDiv (idiv/op.hook __idiv).
// Division by zero is a math error even for float operands, rather than
// the IEEE +-Inf/NaN that a bare lhs/rhs would silently produce.
func Div(w *World, v *View, lhs, rhs Value) (Value, error) {
	if isNumeric(lhs) && isNumeric(rhs) {
		if numericF(rhs) == 0 {
			return Value{}, ErrMath
		}
		return NewFloat(numericF(lhs) / numericF(rhs)), nil
	}
	if result, ok, err := callOverload2(w, v, HookDiv, lhs, rhs); ok {
		return result, err
	}
	return Value{}, errWrongType
}

// UnaryNeg negates v.
func UnaryNeg(w *World, vw *View, v Value) (Value, error) {
	switch v.Type {
	case TInt:
		if v.I == math.MinInt64 {
			return NewFloat(-float64(v.I)), nil
		}
		return NewInt(-v.I), nil
	case TFloat:
		return NewFloat(-v.F), nil
	default:
		if result, ok, err := callOverload1(w, vw, HookUnNeg, v); ok {
			return result, err
		}
		return Value{}, errWrongType
	}
}

func isNumeric(v Value) bool { return v.Type == TInt || v.Type == TFloat }

func numericF(v Value) float64 {
	if v.Type == TInt {
		return float64(v.I)
	}
	return v.F
}
