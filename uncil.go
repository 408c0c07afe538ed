// Package uncilgo is the embedder-facing façade tying together the
// entity manager (internal/rt), the tracing collector (internal/gcx),
// the bytecode interpreter (internal/vm), the module loader
// (internal/module), and the program image codec (internal/imagefmt)
// into the single API a host program links against: create a runtime,
// open views onto it, push values, call functions, and tear it down.
// Named and shaped after the teacher's probe-lang embedding surface —
// one constructor, one per-goroutine execution handle, plain Go method
// calls instead of a C-style opaque-handle/return-code protocol.
package uncilgo

import (
	"fmt"

	"github.com/hisahi/uncil-go/internal/config"
	"github.com/hisahi/uncil-go/internal/gcx"
	"github.com/hisahi/uncil-go/internal/module"
	"github.com/hisahi/uncil-go/internal/rt"
	"github.com/hisahi/uncil-go/internal/vm"
	"github.com/hisahi/uncil-go/internal/xerr"
	"github.com/hisahi/uncil-go/log"
)

// Status mirrors vm.Status for embedder code that does not otherwise
// need to import internal/vm.
type Status = vm.Status

const (
	StatusReturned = vm.StatusReturned
	StatusPaused   = vm.StatusPaused
	StatusHalted   = vm.StatusHalted
	StatusThrew    = vm.StatusThrew
)

// Value re-exports rt.Value: the tagged union every embedder call
// trades in.
type Value = rt.Value

// Null is the canonical null value.
var Null = rt.Null

// Runtime owns one World: the shared entity list, public/module tables,
// metatables, and tracing collector. Multiple Views share a Runtime the
// way the spec's "world" is shared by cooperating coroutines.
type Runtime struct {
	World      *rt.World
	Modules    *module.Registry
	Config     config.Config
	collector  *gcx.Collector
	nextViewID uint32
	log        *log.Logger
}

// Create builds a fresh Runtime: an empty World, a tracing collector
// wired to fire once the entity count crosses World.EntityLimit, and an
// empty module registry with the given source search path.
func Create(searchPath []string) *Runtime {
	return CreateFromConfig(config.Config{
		EntityLimit:    800,
		RecursionLimit: 1000,
		SearchPath:     searchPath,
		LogLevel:       "info",
	})
}

// CreateEx is Create with an explicit entity limit (0 disables
// automatic collection; the embedder must call Collect manually).
func CreateEx(searchPath []string, entityLimit int) *Runtime {
	cfg := config.Default()
	cfg.SearchPath = searchPath
	cfg.EntityLimit = entityLimit
	return CreateFromConfig(cfg)
}

// CreateFromConfig builds a Runtime from a fully-resolved Config,
// typically produced by config.Load against a TOML file on disk.
func CreateFromConfig(cfg config.Config) *Runtime {
	world := rt.NewWorld()
	world.EntityLimit = cfg.EntityLimit
	l := log.Root.With("component", "runtime")
	l.SetLevel(parseLevel(cfg.LogLevel))
	r := &Runtime{World: world, log: l, Config: cfg}
	roots := &liveRoots{world: world}
	r.collector = gcx.New(world, roots, 256)
	r.collector.Attach()
	r.Modules = module.New(world, nil, cfg.SearchPath)
	r.log.Info("runtime created", "entityLimit", world.EntityLimit, "recursionLimit", cfg.RecursionLimit)
	return r
}

func parseLevel(name string) log.Level {
	switch name {
	case "debug":
		return log.LvlDebug
	case "warn":
		return log.LvlWarn
	case "error":
		return log.LvlError
	case "crit":
		return log.LvlCrit
	default:
		return log.LvlInfo
	}
}

// Collect runs one tracing-collector pass immediately, returning the
// number of entities freed. Views normally never need to call this
// directly; World.Wake triggers it automatically at EntityLimit.
func (r *Runtime) Collect() int { return r.collector.Collect() }

// liveRoots implements gcx.Roots by walking every GC root a Runtime
// currently holds: the public table, the module cache, the metatables,
// and every live view's register files and operand/with stacks.
type liveRoots struct {
	world *rt.World
}

func (lr *liveRoots) Each(yield func(rt.Value)) {
	lr.world.PublicMu.Lock()
	for _, v := range lr.world.Public {
		yield(v)
	}
	for _, v := range lr.world.Modules {
		yield(v)
	}
	lr.world.PublicMu.Unlock()
	for _, v := range lr.world.Metatables {
		yield(v)
	}
	yield(lr.world.ExcOOM)
}

// View is one cooperative thread of execution: an rt.View (register
// stacks, recycle ring, with-resource stack) paired with the vm.VM that
// drives it. The embedder opens one View per goroutine that will run
// script code concurrently against a shared Runtime.
type View struct {
	rt  *rt.View
	vm  *vm.VM
	rte *Runtime
	err xerr.LastErrorContext
	log *log.Logger
}

// Fork opens a new View onto the Runtime with the given call-depth
// limit (0 selects the Runtime's configured default).
func (r *Runtime) Fork(recursionLimit int) *View {
	if recursionLimit <= 0 {
		recursionLimit = r.Config.RecursionLimit
	}
	r.nextViewID++
	id := r.nextViewID
	rv := rt.NewView(r.World, id, recursionLimit)
	v := &View{rt: rv, rte: r, log: r.log.With("view", id)}
	v.vm = vm.New(r.World, rv)
	v.log.Info("view opened", "recursionLimit", rv.RecursionLimit)
	return v
}

// Coinhabited reports whether two views share the same Runtime (and
// therefore the same entity manager and GC), mirroring the spec's
// "can these two views pass references to each other safely" check.
func (v *View) Coinhabited(other *View) bool { return v.rte.World == other.rte.World }

// Close tears the view down, draining its recycle ring.
func (v *View) Close() {
	v.rt.Close()
	v.log.Info("view closed")
}

// --- value construction -----------------------------------------------

func (v *View) NewString(s string) Value { return rt.FromEntity(rt.NewString(v.rte.World, v.rt, s)) }
func (v *View) NewBlob(size int) Value   { return rt.FromEntity(rt.NewBlob(v.rte.World, v.rt, size)) }
func (v *View) NewArray(elems []Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	for _, e := range cp {
		v.rte.World.IncrefValue(e)
	}
	return rt.FromEntity(rt.NewArray(v.rte.World, v.rt, cp))
}
func (v *View) NewTable() Value { return rt.FromEntity(rt.NewTable(v.rte.World, v.rt)) }
func (v *View) NewObject(proto Value) Value {
	return rt.FromEntity(rt.NewObject(v.rte.World, v.rt, proto))
}
func (v *View) NewOpaque(proto Value, host any, destroyer rt.OpaqueDestructor, refs []Value) Value {
	return rt.FromEntity(rt.NewOpaque(v.rte.World, v.rt, proto, host, destroyer, refs))
}
func (v *View) NewNativeFunction(name string, fn rt.NativeFunc, numParams int, variadic bool) Value {
	return rt.FromEntity(rt.NewNativeFunction(v.rte.World, v.rt, name, fn, numParams, variadic))
}

// --- reference management ---------------------------------------------

// Incref/Decref manage a Value's lifetime exactly like the spec's
// embedder reference-counting API: any Value handed across the
// embedder/VM boundary that the host holds onto past the call that
// produced it needs an Incref, and a matching Decref when the host is
// done with it.
func (v *View) Incref(val Value) { v.rte.World.IncrefValue(val) }
func (v *View) Decref(val Value) { v.rte.World.DecrefValue(val, v.rt) }

// MakeWeak returns a weak reference observing val.
func (v *View) MakeWeak(val Value) (Value, error) { return v.rte.World.MakeWeak(v.rt, val) }

// FetchWeak resolves a weak reference back to a strong one, or Null if
// the observed value has since been destroyed.
func (v *View) FetchWeak(weak Value) (Value, error) {
	if weak.Type != rt.TWeakRef {
		return Value{}, fmt.Errorf("uncil: FetchWeak requires a weak reference value")
	}
	return v.rte.World.FetchWeak(weak.E), nil
}

// --- attribute / index access -------------------------------------------

func (v *View) GetAttr(val Value, name string) (Value, error) {
	return rt.GetAttr(v.rte.World, v.rt, val, name)
}
func (v *View) SetAttr(val Value, name string, newVal Value) error {
	return rt.SetAttr(v.rte.World, v.rt, val, name, newVal)
}
func (v *View) DeleteAttr(val Value, name string) error {
	return rt.DeleteAttr(v.rte.World, v.rt, val, name)
}
func (v *View) GetIndex(container, key Value) (Value, error) {
	return rt.Index(v.rte.World, v.rt, container, key)
}
func (v *View) SetIndex(container, key, val Value) error {
	return rt.SetIndex(v.rte.World, v.rt, container, key, val)
}
func (v *View) DeleteIndex(container, key Value) error {
	return rt.DeleteIndex(v.rte.World, v.rt, container, key)
}

// --- public/module table access ----------------------------------------

// GetPublic reads a value out of the world's public-name table.
func (v *View) GetPublic(name string) (Value, bool) {
	v.rte.World.PublicMu.Lock()
	defer v.rte.World.PublicMu.Unlock()
	val, ok := v.rte.World.Public[name]
	return val, ok
}

// SetPublic binds name to val in the world's public-name table,
// increfing val (the table holds a strong reference for the Runtime's
// lifetime, matching the spec's "public" binding semantics).
func (v *View) SetPublic(name string, val Value) {
	v.rte.World.PublicMu.Lock()
	v.rte.World.IncrefValue(val)
	if old, ok := v.rte.World.Public[name]; ok {
		v.rte.World.DecrefValue(old, v.rt)
	}
	v.rte.World.Public[name] = val
	v.rte.World.PublicMu.Unlock()
}

// DeletePublic removes name from the public-name table.
func (v *View) DeletePublic(name string) {
	v.rte.World.PublicMu.Lock()
	if old, ok := v.rte.World.Public[name]; ok {
		v.rte.World.DecrefValue(old, v.rt)
		delete(v.rte.World.Public, name)
	}
	v.rte.World.PublicMu.Unlock()
}

// Require resolves and (if needed) loads a module, per internal/module's
// cache/source/builtin resolution order.
func (v *View) Require(name, fromFile string) (Value, error) {
	return v.rte.Modules.Require(v.rt, name, fromFile)
}

// --- calling -------------------------------------------------------------

// Call invokes fn(args...) to completion (or until it cooperatively
// pauses), returning its results, the stop Status, and an error when
// Status is StatusThrew (LastError/LastException mirror the same
// failure for callers that prefer the spec's get-last-error idiom).
func (v *View) Call(fn Value, args []Value) ([]Value, Status, error) {
	results, status := v.vm.CallFunction(fn, args)
	if status == StatusThrew {
		v.err.Set(v.vm.LastError)
		return nil, status, v.vm.LastError
	}
	return results, status, nil
}

// Resume continues a paused View from exactly where OpCheckPause left
// it.
func (v *View) Resume() (Status, error) {
	status := v.vm.Resume()
	if status == StatusThrew {
		v.err.Set(v.vm.LastError)
		return status, v.vm.LastError
	}
	return status, nil
}

// RequestPause asks a running View to stop at its next cooperative
// pause checkpoint; safe to call from another goroutine.
func (v *View) RequestPause() { v.vm.RequestPause() }

// LastError returns the most recently recorded failure (call or
// resume), or nil if none has occurred or it was cleared.
func (v *View) LastError() *xerr.Error { return v.err.Err }

// LastException returns the script-level exception Value that escaped
// the last failed Call/Resume, if any; Null otherwise.
func (v *View) LastException() Value { return v.vm.Exception }

// ExceptionToString renders val (normally LastException()) the way an
// uncaught exception is reported to a host console.
func (v *View) ExceptionToString(val Value) string { return rt.ToDisplayString(val) }

// ValueToString renders any Value the way the language's built-in
// string conversion would.
func (v *View) ValueToString(val Value) string { return rt.ToDisplayString(val) }
