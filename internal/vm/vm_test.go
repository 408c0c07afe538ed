package vm

import (
	"testing"

	"github.com/hisahi/uncil-go/internal/rt"
	"github.com/hisahi/uncil-go/internal/xerr"
	"github.com/stretchr/testify/require"
)

// buildAdderProto compiles, by hand, the equivalent of `function(a, b)
// return a + b end`: R2 = R0 + R1; return R2.
func buildAdderProto() *Proto {
	return &Proto{
		Name:      "adder",
		NumParams: 2,
		NumRegs:   3,
		Code: []Instr{
			{Op: OpAdd, A: 2, B: 0, C: 1},
			{Op: OpReturn, A: 2, B: 1},
		},
	}
}

func TestCallFunctionRunsBytecodeAndReturns(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 1000)
	machine := New(world, view)

	fn := rt.FromEntity(rt.NewBytecodeFunction(world, view, "adder", buildAdderProto(), 2, false, nil))

	results, status := machine.CallFunction(fn, []rt.Value{rt.NewInt(3), rt.NewInt(4)})
	require.Equal(t, StatusReturned, status)
	require.Len(t, results, 1)
	require.Equal(t, int64(7), results[0].I)
}

// buildCallerProto calls another function value held in an upvalue with
// two constant arguments, then returns its single result.
func buildCallerProto() *Proto {
	return &Proto{
		Name:      "caller",
		NumParams: 0,
		NumRegs:   4,
		Consts:    []rt.Value{rt.NewInt(10), rt.NewInt(32)},
		Code: []Instr{
			{Op: OpGetUpval, A: 0, B: 0},
			{Op: OpLoadConst, A: 1, B: 0},
			{Op: OpLoadConst, A: 2, B: 1},
			{Op: OpCall, A: 0, B: 2, C: 1},
			{Op: OpReturn, A: 0, B: 1},
		},
	}
}

func TestNestedBytecodeCallFlattensThroughRegisters(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 1000)
	machine := New(world, view)

	adder := rt.FromEntity(rt.NewBytecodeFunction(world, view, "adder", buildAdderProto(), 2, false, nil))
	caller := rt.FromEntity(rt.NewBytecodeFunction(world, view, "caller", buildCallerProto(), 0, false, []rt.Value{adder}))

	results, status := machine.CallFunction(caller, nil)
	require.Equal(t, StatusReturned, status)
	require.Len(t, results, 1)
	require.Equal(t, int64(42), results[0].I)
}

func TestThrowCaughtByTryHandler(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 1000)
	machine := New(world, view)

	// try { throw 99 } catch (e) { return e }
	proto := &Proto{
		Name:    "thrower",
		NumRegs: 2,
		Code: []Instr{
			{Op: OpTryPush, A: 0, B: 2}, // on throw, jump +2 from here (PC already advanced past this instr)
			{Op: OpLoadConst, A: 1, B: 0},
			{Op: OpThrow, A: 1},
			{Op: OpReturn, A: 0, B: 1},
		},
		Consts: []rt.Value{rt.NewInt(99)},
	}

	fn := rt.FromEntity(rt.NewBytecodeFunction(world, view, "thrower", proto, 0, false, nil))
	results, status := machine.CallFunction(fn, nil)
	require.Equal(t, StatusReturned, status)
	require.Len(t, results, 1)
	require.Equal(t, int64(99), results[0].I)
}

// newOpenCloseResource builds an object whose __open hook returns it
// unchanged and whose __close hook flips *closed to true, for exercising
// OpWithOpen/OpWithClose.
func newOpenCloseResource(t *testing.T, world *rt.World, view *rt.View, closed *bool) rt.Value {
	objEnt := rt.NewObject(world, view, rt.Null)
	obj := rt.FromEntity(objEnt)

	openFn := rt.FromEntity(rt.NewNativeFunction(world, view, "__open", func(w *rt.World, v *rt.View, args []rt.Value) ([]rt.Value, error) {
		return []rt.Value{args[0]}, nil
	}, 1, false))
	closeFn := rt.FromEntity(rt.NewNativeFunction(world, view, "__close", func(w *rt.World, v *rt.View, args []rt.Value) ([]rt.Value, error) {
		*closed = true
		return nil, nil
	}, 1, false))

	require.NoError(t, rt.SetAttr(world, view, obj, "__open", openFn))
	require.NoError(t, rt.SetAttr(world, view, obj, "__close", closeFn))
	return obj
}

func TestWithOpenCloseRunsOnNormalReturn(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 1000)
	machine := New(world, view)

	closed := false
	resource := newOpenCloseResource(t, world, view, &closed)

	// with (R0) { return R1 } -- R1 is what OpWithOpen binds the opened
	// value to; the resource is closed automatically when the frame
	// unwinds at OpReturn.
	proto := &Proto{
		Name:    "withuser",
		NumRegs: 2,
		Consts:  []rt.Value{resource},
		Code: []Instr{
			{Op: OpLoadConst, A: 0, B: 0},
			{Op: OpWithOpen, A: 1, B: 0},
			{Op: OpReturn, A: 1, B: 1},
		},
	}

	fn := rt.FromEntity(rt.NewBytecodeFunction(world, view, "withuser", proto, 0, false, nil))
	_, status := machine.CallFunction(fn, nil)
	require.Equal(t, StatusReturned, status)
	require.True(t, closed, "resource should be closed once the with-block's frame returns")
}

func TestWithCloseRunsOnThrownException(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 1000)
	machine := New(world, view)

	closed := false
	resource := newOpenCloseResource(t, world, view, &closed)

	// with (R0) { throw 1 }, uncaught: the resource still closes while
	// the throw unwinds past the with-block's frame.
	proto := &Proto{
		Name:    "withthrower",
		NumRegs: 2,
		Consts:  []rt.Value{resource, rt.NewInt(1)},
		Code: []Instr{
			{Op: OpLoadConst, A: 0, B: 0},
			{Op: OpWithOpen, A: 1, B: 0},
			{Op: OpLoadConst, A: 1, B: 1},
			{Op: OpThrow, A: 1},
		},
	}

	fn := rt.FromEntity(rt.NewBytecodeFunction(world, view, "withthrower", proto, 0, false, nil))
	_, status := machine.CallFunction(fn, nil)
	require.Equal(t, StatusThrew, status)
	require.True(t, closed, "resource should close even when the with-block's frame unwinds via throw")
}

func TestIterNewIterNextWalksArrayAndExits(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 1000)
	machine := New(world, view)

	arrEnt := rt.NewArray(world, view, []rt.Value{rt.NewInt(10), rt.NewInt(20)})
	arr := rt.FromEntity(arrEnt)

	// R0 = array; R1 = iterator(R0); R4 = 0 (accumulator); loop:
	// R2,R3 = next(R1), jumping past the loop body when exhausted;
	// R4 += R3; jump back to the OpIterNext; done: return R4.
	//
	// Instruction indices: 0 load array, 1 iternew, 2 load 0,
	// 3 iternext (jumps to 6 on exhaustion), 4 add, 5 jump back to 3,
	// 6 return.
	proto := &Proto{
		Name:    "sumarray",
		NumRegs: 5,
		Consts:  []rt.Value{arr, rt.NewInt(0)},
		Code: []Instr{
			{Op: OpLoadConst, A: 0, B: 0},
			{Op: OpIterNew, A: 1, B: 0},
			{Op: OpLoadConst, A: 4, B: 1},
			{Op: OpIterNext, A: 2, B: 1, C: 2},
			{Op: OpAdd, A: 4, B: 4, C: 3},
			{Op: OpJump, A: -3},
			{Op: OpReturn, A: 4, B: 1},
		},
	}

	fn := rt.FromEntity(rt.NewBytecodeFunction(world, view, "sumarray", proto, 0, false, nil))
	results, status := machine.CallFunction(fn, nil)
	require.Equal(t, StatusReturned, status)
	require.Len(t, results, 1)
	require.Equal(t, int64(30), results[0].I)
}

func TestDivByZeroRaisesMathKindException(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 1000)
	machine := New(world, view)

	proto := &Proto{
		Name:    "divzero",
		NumRegs: 3,
		Consts:  []rt.Value{rt.NewInt(5), rt.NewInt(0)},
		Code: []Instr{
			{Op: OpLoadConst, A: 0, B: 0},
			{Op: OpLoadConst, A: 1, B: 1},
			{Op: OpDiv, A: 2, B: 0, C: 1},
			{Op: OpReturn, A: 2, B: 1},
		},
	}

	fn := rt.FromEntity(rt.NewBytecodeFunction(world, view, "divzero", proto, 0, false, nil))
	_, status := machine.CallFunction(fn, nil)
	require.Equal(t, StatusThrew, status)
	require.NotNil(t, machine.LastError)
	require.Equal(t, xerr.KindMath, machine.LastError.Kind)
}
