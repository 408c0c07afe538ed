package vm

import (
	"errors"

	"github.com/hisahi/uncil-go/internal/rt"
	"github.com/hisahi/uncil-go/internal/xerr"
)

var (
	opAddOp  = rt.ArithAdd
	opSubOp  = rt.ArithSub
	opMulOp  = rt.ArithMul
	opIDivOp = rt.ArithIDiv
	opModOp  = rt.ArithMod
)

func (v *VM) arith(f *Frame, instr Instr, op rt.ArithOp) (Status, bool) {
	res, err := rt.Arith(v.World, v.View, op, f.Regs[instr.B], f.Regs[instr.C])
	if err != nil {
		return v.fail(err)
	}
	f.Regs[instr.A] = res
	return 0, false
}

func (v *VM) bitwise(f *Frame, instr Instr, hook string, op func(a, b int64) int64) (Status, bool) {
	res, err := rt.Bitwise(v.World, v.View, hook, op, f.Regs[instr.B], f.Regs[instr.C])
	if err != nil {
		return v.fail(err)
	}
	f.Regs[instr.A] = res
	return 0, false
}

func mustString(v rt.Value) string {
	s, err := rt.AsString(v)
	if err != nil {
		return ""
	}
	return s.String()
}

// popFrame pops the top frame and, if a caller frame remains, delivers
// its lastResults into the caller's call-site registers. The call-site
// bookkeeping (which registers to fill) was stashed on the frame by
// dispatchCall.
func (v *VM) popFrame() {
	done := v.frames[len(v.frames)-1]
	v.frames = v.frames[:len(v.frames)-1]
	if len(v.frames) == 0 {
		return
	}
	caller := v.frames[len(v.frames)-1]
	if caller.pendingCall == nil {
		return
	}
	pc := caller.pendingCall
	caller.pendingCall = nil
	for i := 0; i < pc.numResults; i++ {
		if i < len(done.lastResults) {
			caller.Regs[pc.destReg+i] = done.lastResults[i]
		} else {
			caller.Regs[pc.destReg+i] = rt.Null
		}
	}
}

// pendingCallInfo records where a just-pushed callee's results must land
// in the caller's registers once it returns.
type pendingCallInfo struct {
	destReg    int
	numResults int
}

// dispatchCall implements OpCall/OpTailCall: resolves the callee in
// R[instr.A], and either pushes a fresh bytecode frame (flattening tail
// calls into the current frame instead), or performs a full Go-level
// call for native/bound/object callees.
func (v *VM) dispatchCall(f *Frame, instr Instr, tail bool) (Status, bool) {
	fnVal := f.Regs[instr.A]
	numArgs := int(instr.B)
	args := make([]rt.Value, numArgs)
	copy(args, f.Regs[int(instr.A)+1:int(instr.A)+1+numArgs])

	proto, bytecodeFn, directErr := v.resolveBytecodeCallee(fnVal)
	if directErr != nil {
		return v.fail(directErr)
	}

	if proto != nil {
		if err := checkArgc(proto.NumParams, proto.Variadic, len(args)); err != nil {
			return v.fail(err)
		}
		newFrame := newFrame(bytecodeFn, proto, args)
		newFrame.withMarkAtEntry = v.View.WithDepth()
		if tail {
			closeErr := v.View.UnwindWith(v.World, f.withMarkAtEntry)
			v.frames[len(v.frames)-1] = newFrame
			if closeErr != nil {
				return v.fail(closeErr)
			}
			return 0, true
		}
		if len(v.frames) >= v.View.RecursionLimit {
			return v.fail(xerr.StackOverflow())
		}
		f.pendingCall = &pendingCallInfo{destReg: int(instr.A), numResults: int(instr.C)}
		v.frames = append(v.frames, newFrame)
		return 0, true
	}

	// Native, bound, or object-with-__call callee: run it to completion
	// through the ordinary Go call path (may recurse into run()).
	results, err := v.callValue(v.World, v.View, fnVal, args)
	if err != nil {
		return v.fail(err)
	}
	for i := 0; i < int(instr.C); i++ {
		if i < len(results) {
			f.Regs[int(instr.A)+i] = results[i]
		} else {
			f.Regs[int(instr.A)+i] = rt.Null
		}
	}
	if tail {
		closeErr := v.View.UnwindWith(v.World, f.withMarkAtEntry)
		f.lastResults = results
		v.popFrame()
		if closeErr != nil {
			return v.fail(closeErr)
		}
		return StatusReturned, true
	}
	return 0, false
}

// resolveBytecodeCallee peels bound functions to find a directly
// flattenable bytecode Proto, or returns (nil, _, nil) when the callee
// must go through the general callValue path (native, or a __call
// hook).
func (v *VM) resolveBytecodeCallee(fnVal rt.Value) (*Proto, rt.Value, error) {
	switch fnVal.Type {
	case rt.TFunction:
		fn, err := rt.AsFunction(fnVal)
		if err != nil {
			return nil, rt.Value{}, err
		}
		if fn.IsNative() {
			return nil, rt.Value{}, nil
		}
		proto, _ := fn.Code.(*Proto)
		return proto, fnVal, nil
	default:
		return nil, rt.Value{}, nil
	}
}

// raiseGo converts a Go error into the VM's current exception and last
// error, building a script-visible exception object when err did not
// already carry one.
func (v *VM) raiseGo(err error) {
	if xe, ok := err.(*xerr.Error); ok {
		v.LastError = xe
		if xe.Script != nil {
			if sv, ok := xe.Script.(rt.Value); ok {
				v.Exception = sv
				return
			}
		}
		v.Exception = v.makeExceptionValue(xe.Kind.String(), xe.Error())
		return
	}
	if errors.Is(err, rt.ErrMath) {
		v.LastError = xerr.New(xerr.KindMath, "%s", err.Error())
		v.Exception = v.makeExceptionValue("math", err.Error())
		return
	}
	v.LastError = xerr.New(xerr.KindInternal, "%s", err.Error())
	v.Exception = v.makeExceptionValue("internal", err.Error())
}

// makeExceptionValue builds the {type, message, stack} object the spec's
// error taxonomy requires every thrown value to at least resemble when
// it originates from a host-raised error rather than a script `throw`.
func (v *VM) makeExceptionValue(kind, message string) rt.Value {
	obj := rt.NewObject(v.World, v.View, rt.Null)
	o, _ := rt.AsObject(rt.FromEntity(obj))
	_ = o.SetOwn(v.View, "type", rt.FromEntity(rt.NewString(v.World, v.View, kind)))
	_ = o.SetOwn(v.View, "message", rt.FromEntity(rt.NewString(v.World, v.View, message)))
	_ = o.SetOwn(v.View, "stack", rt.FromEntity(rt.NewArray(v.World, v.View, v.captureStack())))
	return rt.FromEntity(obj)
}

func (v *VM) captureStack() []rt.Value {
	frames := make([]rt.Value, 0, len(v.frames))
	for i := len(v.frames) - 1; i >= 0; i-- {
		name := v.frames[i].Proto.Name
		frames = append(frames, rt.FromEntity(rt.NewString(v.World, v.View, name)))
	}
	for _, fv := range frames {
		v.World.IncrefValue(fv)
	}
	return frames
}

// unwindThrow searches frames from the top down for a try handler able
// to catch exc, closing with-resources opened since each popped frame's
// entry as it goes. Returns true if a handler resumed execution.
func (v *VM) unwindThrow(exc rt.Value) bool {
	for len(v.frames) > 0 {
		f := v.frames[len(v.frames)-1]
		if h, ok := f.popHandler(); ok {
			v.View.UnwindWith(v.World, h.withMark)
			f.Regs[h.regBase] = exc
			f.PC = h.targetPC
			return true
		}
		v.View.UnwindWith(v.World, f.withMarkAtEntry)
		v.frames = v.frames[:len(v.frames)-1]
	}
	return false
}
