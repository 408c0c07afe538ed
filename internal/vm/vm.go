// Package vm implements the stack-of-frames bytecode interpreter
// (component G): the opcode dispatch loop, the call/tail-call/try-throw
// protocol, iterator resumption, and the cooperative-pause checkpoint.
// It is the one package that wires internal/rt's World.CallHook, since
// it is the only piece of the runtime that can actually execute a
// function body.
package vm

import (
	"sync/atomic"

	"github.com/hisahi/uncil-go/internal/rt"
	"github.com/hisahi/uncil-go/internal/xerr"
)

// Status is returned by Run to tell the embedder façade what stopped
// execution.
type Status int

const (
	StatusReturned Status = iota
	StatusPaused
	StatusHalted
	StatusThrew
)

// VM drives one View's call stack. A View may have at most one VM
// running at a time; coroutine-style concurrency is achieved by giving
// each goroutine its own View sharing a World, not by sharing a VM.
type VM struct {
	World *rt.World
	View  *rt.View

	frames []*Frame

	// Gas is decremented once per dispatched instruction when non-zero,
	// and trips a TOODEEP-style abort at zero; zero (the default) means
	// unmetered.
	Gas int64

	// PauseRequested is set by the host (via RequestPause, safe to call
	// from another goroutine) and observed at OpCheckPause.
	PauseRequested boolFlag

	LastError *xerr.Error
	Exception rt.Value
}

// boolFlag is a tiny atomic flag; a plain bool would race under the
// host's "pause from another goroutine" use case.
type boolFlag struct{ v int32 }

func (f *boolFlag) Set()      { atomic.StoreInt32(&f.v, 1) }
func (f *boolFlag) Clear()    { atomic.StoreInt32(&f.v, 0) }
func (f *boolFlag) Get() bool { return atomic.LoadInt32(&f.v) != 0 }

// New creates a VM bound to view, and wires World.CallHook so that
// internal/rt's overload dispatch (ops_arith.go, ops_index.go, ...) can
// invoke user-defined hook methods through this VM.
func New(world *rt.World, view *rt.View) *VM {
	v := &VM{World: world, View: view}
	world.CallHook = v.callValue
	return v
}

// RequestPause asks the VM to return StatusPaused at the next
// OpCheckPause, from any goroutine.
func (v *VM) RequestPause() { v.PauseRequested.Set() }

// Resume continues a VM previously stopped with StatusPaused; its frame
// stack was left exactly where execution stopped.
func (v *VM) Resume() Status { return v.run() }

// CallFunction is the embedder-facing entry point: push a new frame for
// fn(args...) and run it to completion (or pause).
func (v *VM) CallFunction(fn rt.Value, args []rt.Value) ([]rt.Value, Status) {
	results, err := v.callValue(v.World, v.View, fn, args)
	if err != nil {
		v.raiseGo(err)
		return nil, StatusThrew
	}
	if len(v.frames) > 0 {
		// A nested OpCheckPause fired; the frame stack is left intact
		// for a later Resume to pick back up.
		return nil, StatusPaused
	}
	return results, StatusReturned
}

// callValue implements the full calling convention: native functions run
// directly; bytecode functions get a pushed Frame and an inline run to
// completion; bound functions prepend their receiver; objects/opaques
// with a __call hook recurse through it.
func (v *VM) callValue(w *rt.World, view *rt.View, fn rt.Value, args []rt.Value) ([]rt.Value, error) {
	switch fn.Type {
	case rt.TBoundFunction:
		bf, err := rt.AsBoundFunction(fn)
		if err != nil {
			return nil, err
		}
		full := make([]rt.Value, 0, len(args)+1)
		full = append(full, bf.Self)
		full = append(full, args...)
		return v.callValue(w, view, bf.Fn, full)
	case rt.TFunction:
		f, err := rt.AsFunction(fn)
		if err != nil {
			return nil, err
		}
		if err := checkArgc(f.NumParams, f.Variadic, len(args)); err != nil {
			return nil, err
		}
		if f.IsNative() {
			mark := view.NativeMark()
			view.BeginNativeCall()
			defer view.EndNativeCall(mark)
			return f.Native(w, view, args)
		}
		proto, ok := f.Code.(*Proto)
		if !ok {
			return nil, xerr.New(xerr.KindInternal, "function has no compiled body")
		}
		return v.callProto(fn, proto, args)
	case rt.TObject, rt.TOpaque:
		if hook, found := rt.Get(fn, rt.HookCall, 0); found {
			return v.callValue(w, view, hook, append([]rt.Value{fn}, args...))
		}
		return nil, xerr.New(xerr.KindType, "value of type %s is not callable", fn.TypeName())
	default:
		return nil, xerr.New(xerr.KindType, "value of type %s is not callable", fn.TypeName())
	}
}

func checkArgc(numParams int, variadic bool, got int) error {
	if got < numParams {
		return xerr.New(xerr.KindCall, "expected at least %d arguments, got %d", numParams, got)
	}
	if !variadic && got > numParams {
		return xerr.New(xerr.KindCall, "expected %d arguments, got %d", numParams, got)
	}
	return nil
}

// callProto pushes a frame for proto and runs it to completion (never
// returns StatusPaused: nested calls opened from Go code always run to
// completion or exception; only the outermost CallFunction can pause).
func (v *VM) callProto(fn rt.Value, proto *Proto, args []rt.Value) ([]rt.Value, error) {
	if len(v.frames) >= v.View.RecursionLimit {
		return nil, xerr.StackOverflow()
	}
	frame := newFrame(fn, proto, args)
	frame.withMarkAtEntry = v.View.WithDepth()
	v.frames = append(v.frames, frame)
	status := v.run()
	if status == StatusThrew {
		err := v.LastError
		if err == nil {
			err = xerr.New(xerr.KindInternal, "exception raised with no error recorded")
		}
		return nil, err
	}
	return frame.lastResults, nil
}
