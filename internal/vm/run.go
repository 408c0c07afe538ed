package vm

import (
	"github.com/hisahi/uncil-go/internal/rt"
	"github.com/hisahi/uncil-go/internal/xerr"
)

// run executes one instruction at a time, re-selecting the top frame
// every iteration, until the frame count drops to (or below) the depth
// it started at. It is reentrant: a native function that calls back
// into bytecode invokes callProto, which calls run again with a deeper
// floor, so nested interpreter activations never share a single Go call
// frame's local state.
func (v *VM) run() Status {
	floor := len(v.frames) - 1

	for len(v.frames) > floor {
		f := v.frames[len(v.frames)-1]

		if f.PC < 0 || f.PC >= len(f.Proto.Code) {
			f.lastResults = nil
			v.popFrame()
			continue
		}

		instr := f.Proto.Code[f.PC]
		f.PC++

		if v.Gas > 0 {
			v.Gas--
			if v.Gas == 0 {
				v.raiseGo(xerr.New(xerr.KindRecursion, "instruction budget exhausted"))
				if !v.unwindThrow(v.Exception) {
					return StatusThrew
				}
				continue
			}
		}

		status, stop := v.dispatch(f, instr)
		if !stop {
			continue
		}
		switch status {
		case StatusThrew:
			if len(v.frames) <= floor {
				return StatusThrew
			}
			// A handler further down (but still above floor) caught it;
			// keep looping, the top frame has already moved there.
		case StatusPaused, StatusHalted:
			return status
		default:
			// A call pushed a frame, a return popped one, or a caught
			// throw repositioned PC: in every case just re-select the
			// new top frame and keep going.
		}
	}
	return StatusReturned
}

// dispatch executes a single decoded instruction against frame f.
// stop=true means the instruction ended the current run() iteration in a
// way other than "fall through to the next PC" (a call, a return, a
// throw, a pause, a halt); status is meaningful only when stop is true,
// except StatusThrew which additionally signals run() to check whether
// the throw was caught (frames popped down to a handler, execution
// already resumed there) or escaped to the floor.
func (v *VM) dispatch(f *Frame, instr Instr) (Status, bool) {
	switch instr.Op {
	case OpNop:
		return 0, false

	case OpLoadConst:
		f.Regs[instr.A] = f.Proto.Consts[instr.B]
	case OpLoadNull:
		f.Regs[instr.A] = rt.Null
	case OpLoadBool:
		f.Regs[instr.A] = rt.NewBool(instr.B != 0)
	case OpMove:
		f.Regs[instr.A] = f.Regs[instr.B]

	case OpGetUpval:
		fn, err := rt.AsFunction(f.Fn)
		if err != nil || int(instr.B) >= len(fn.Upvalues) {
			return v.fail(xerr.New(xerr.KindInternal, "bad upvalue index"))
		}
		f.Regs[instr.A] = fn.Upvalues[instr.B]
	case OpSetUpval:
		fn, err := rt.AsFunction(f.Fn)
		if err != nil || int(instr.B) >= len(fn.Upvalues) {
			return v.fail(xerr.New(xerr.KindInternal, "bad upvalue index"))
		}
		fn.Upvalues[instr.B] = f.Regs[instr.A]

	case OpGetGlobal:
		name := mustString(f.Proto.Consts[instr.B])
		v.World.PublicMu.Lock()
		val, ok := v.World.Public[name]
		v.World.PublicMu.Unlock()
		if !ok {
			val = rt.Null
		}
		f.Regs[instr.A] = val
	case OpSetGlobal:
		name := mustString(f.Proto.Consts[instr.B])
		v.World.PublicMu.Lock()
		v.World.Public[name] = f.Regs[instr.A]
		v.World.PublicMu.Unlock()

	case OpAdd:
		return v.arith(f, instr, opAddOp)
	case OpSub:
		return v.arith(f, instr, opSubOp)
	case OpMul:
		return v.arith(f, instr, opMulOp)
	case OpIDiv:
		return v.arith(f, instr, opIDivOp)
	case OpMod:
		return v.arith(f, instr, opModOp)
	case OpDiv:
		res, err := rt.Div(v.World, v.View, f.Regs[instr.B], f.Regs[instr.C])
		if err != nil {
			return v.fail(err)
		}
		f.Regs[instr.A] = res
	case OpBAnd:
		return v.bitwise(f, instr, rt.HookBAnd, rt.BAnd)
	case OpBOr:
		return v.bitwise(f, instr, rt.HookBOr, rt.BOr)
	case OpBXor:
		return v.bitwise(f, instr, rt.HookBXor, rt.BXor)
	case OpShl:
		return v.bitwise(f, instr, rt.HookShl, rt.Shl)
	case OpShr:
		return v.bitwise(f, instr, rt.HookShr, rt.Shr)

	case OpEq:
		eq, err := rt.Equal(v.World, v.View, f.Regs[instr.B], f.Regs[instr.C])
		if err != nil {
			return v.fail(err)
		}
		f.Regs[instr.A] = rt.NewBool(eq)
	case OpLt, OpLe:
		cmp, err := rt.Compare(v.World, v.View, f.Regs[instr.B], f.Regs[instr.C])
		if err != nil {
			return v.fail(err)
		}
		if instr.Op == OpLt {
			f.Regs[instr.A] = rt.NewBool(cmp < 0)
		} else {
			f.Regs[instr.A] = rt.NewBool(cmp <= 0)
		}
	case OpConcat:
		res, err := rt.Concat(v.World, v.View, f.Regs[instr.B], f.Regs[instr.C])
		if err != nil {
			return v.fail(err)
		}
		f.Regs[instr.A] = res

	case OpNeg:
		res, err := rt.UnaryNeg(v.World, v.View, f.Regs[instr.B])
		if err != nil {
			return v.fail(err)
		}
		f.Regs[instr.A] = res
	case OpNot:
		f.Regs[instr.A] = rt.NewBool(!f.Regs[instr.B].Bool())
	case OpBNot:
		res, err := rt.UnaryBNot(v.World, v.View, f.Regs[instr.B])
		if err != nil {
			return v.fail(err)
		}
		f.Regs[instr.A] = res

	case OpNewArray:
		n := int(instr.C)
		elems := make([]rt.Value, n)
		copy(elems, f.Regs[int(instr.B):int(instr.B)+n])
		for _, e := range elems {
			v.World.IncrefValue(e)
		}
		f.Regs[instr.A] = rt.FromEntity(rt.NewArray(v.World, v.View, elems))
	case OpNewTable:
		f.Regs[instr.A] = rt.FromEntity(rt.NewTable(v.World, v.View))
	case OpNewObject:
		f.Regs[instr.A] = rt.FromEntity(rt.NewObject(v.World, v.View, f.Regs[instr.B]))
	case OpGetIndex:
		res, err := rt.Index(v.World, v.View, f.Regs[instr.B], f.Regs[instr.C])
		if err != nil {
			return v.fail(err)
		}
		f.Regs[instr.A] = res
	case OpSetIndex:
		if err := rt.SetIndex(v.World, v.View, f.Regs[instr.A], f.Regs[instr.B], f.Regs[instr.C]); err != nil {
			return v.fail(err)
		}
	case OpDelIndex:
		if err := rt.DeleteIndex(v.World, v.View, f.Regs[instr.A], f.Regs[instr.B]); err != nil {
			return v.fail(err)
		}
	case OpGetAttr:
		name := mustString(f.Proto.Consts[instr.C])
		res, err := rt.GetAttr(v.World, v.View, f.Regs[instr.B], name)
		if err != nil {
			return v.fail(err)
		}
		f.Regs[instr.A] = res
	case OpSetAttr:
		name := mustString(f.Proto.Consts[instr.B])
		if err := rt.SetAttr(v.World, v.View, f.Regs[instr.A], name, f.Regs[instr.C]); err != nil {
			return v.fail(err)
		}
	case OpDelAttr:
		name := mustString(f.Proto.Consts[instr.B])
		if err := rt.DeleteAttr(v.World, v.View, f.Regs[instr.A], name); err != nil {
			return v.fail(err)
		}

	case OpJump:
		f.PC += int(instr.A)
	case OpJumpIfTrue:
		if f.Regs[instr.A].Bool() {
			f.PC += int(instr.B)
		}
	case OpJumpIfFalse:
		if !f.Regs[instr.A].Bool() {
			f.PC += int(instr.B)
		}

	case OpCall:
		return v.dispatchCall(f, instr, false)
	case OpTailCall:
		return v.dispatchCall(f, instr, true)

	case OpReturn:
		n := int(instr.B)
		results := make([]rt.Value, n)
		copy(results, f.Regs[int(instr.A):int(instr.A)+n])
		f.lastResults = results
		closeErr := v.View.UnwindWith(v.World, f.withMarkAtEntry)
		v.popFrame()
		if closeErr != nil {
			return v.fail(closeErr)
		}
		return StatusReturned, true

	case OpIterNew:
		it, err := rt.NewIteratorFor(v.World, v.View, f.Regs[instr.B])
		if err != nil {
			return v.fail(err)
		}
		if f.iterators == nil {
			f.iterators = make(map[int32]rt.Iterator)
		}
		f.iterators[instr.A] = it
	case OpIterNext:
		it := f.iterators[instr.B]
		if it == nil {
			return v.fail(xerr.New(xerr.KindInternal, "no iterator at register %d", instr.B))
		}
		key, val, ok, err := it.Next()
		if err != nil {
			return v.fail(err)
		}
		if !ok {
			f.PC += int(instr.C)
			return 0, false
		}
		f.Regs[instr.A] = key
		f.Regs[instr.A+1] = val

	case OpTryPush:
		f.pushHandler(f.PC+int(instr.B), v.View.WithDepth(), int(instr.A))
	case OpTryPop:
		f.popHandler()
	case OpThrow:
		exc := f.Regs[instr.A]
		if !v.unwindThrow(exc) {
			v.LastError = &xerr.Error{Kind: xerr.KindUncaught, Message: "uncaught script exception", Script: exc}
			v.Exception = exc
			return StatusThrew, true
		}
		return 0, true

	case OpWithOpen:
		res, err := rt.OpenResource(v.World, v.View, f.Regs[instr.B])
		if err != nil {
			return v.fail(err)
		}
		f.Regs[instr.A] = res
		v.View.PushWith(res)
	case OpWithClose:
		if val, ok := v.View.PopWith(); ok {
			if err := rt.CloseResource(v.World, v.View, val); err != nil {
				return v.fail(err)
			}
		}

	case OpCheckPause:
		if v.PauseRequested.Get() {
			return StatusPaused, true
		}
	case OpHalt:
		return StatusHalted, true
	}
	return 0, false
}

// fail records err as the VM's last error, attempts to find a handler
// for it (treating any Go error the same as a thrown script exception
// wrapping its message), and reports whether a handler was found.
func (v *VM) fail(err error) (Status, bool) {
	v.raiseGo(err)
	if v.unwindThrow(v.Exception) {
		return 0, true
	}
	return StatusThrew, true
}
