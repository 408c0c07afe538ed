package rt

import (
	"sync"
	"sync/atomic"
)

// Mark colours for the tracing collector (component F). Values fit in the
// low bits of Entity.mark; 128 and above mean "sleeping" instead.
const (
	ColorRed    uint8 = 0 // unmarked
	ColorYellow uint8 = 1 // marked, children not yet visited
	ColorGreen  uint8 = 2 // marked, children visited
)

const sleepingBit uint8 = 128

// Payload is implemented by every container type that can back a
// reference-typed Value (Array, Blob, Table, Object, Opaque, Function,
// BoundFunction, weakSlot). It is the seam between the entity manager and
// the garbage collector: the GC never imports the container package,
// it only walks Payload.Children.
type Payload interface {
	// Children calls yield once per Value this payload directly
	// references, for GC root/mark propagation.
	Children(yield func(*Value))
	// Destroy releases the payload's own resources (decref'ing children,
	// closing native handles) as part of hibernation.
	Destroy(w *World)
}

// Entity is the heap header described by the spec's data model: an
// atomically refcounted, doubly-linked, mark-coloured node that backs
// every reference-typed Value.
type Entity struct {
	mu      sync.Mutex // per-entity light lock guarding Payload mutation
	refs    int64
	Type    Type
	mark    uint8
	creffed bool
	vid     uint32 // owner view id, meaningful only while creffed
	weak    *weakSlot
	prev    *Entity
	next    *Entity

	Payload Payload
}

// Lock acquires the per-entity light lock. Callers must keep the critical
// section short and must never call back into arbitrary user code while
// holding it.
func (e *Entity) Lock() { e.mu.Lock() }

// Unlock releases the per-entity light lock.
func (e *Entity) Unlock() { e.mu.Unlock() }

// Refs returns the current reference count.
func (e *Entity) Refs() int64 { return atomic.LoadInt64(&e.refs) }

// Sleeping reports whether the entity is parked in a recycle slot,
// pending reuse or final wreck.
func (e *Entity) Sleeping() bool { return e.mark >= sleepingBit }

// Creffed reports whether native code currently holds e live without a
// refcount edge (see View.BeginNativeCall).
func (e *Entity) Creffed() bool { return e.creffed }

// SetMark and GetMark expose the GC colour to internal/gcx, which cannot
// see the unexported field directly since it lives in a different
// package by design (the Payload interface is the only coupling between
// the two).
func SetMark(e *Entity, c uint8) { e.mark = c }
func GetMark(e *Entity) uint8    { return e.mark }

// weakSlot is the payload of a TWeakRef entity: a single back-pointer to
// the entity being observed, nulled out when that entity is wrecked.
type weakSlot struct {
	target *Entity
	owner  *Entity // the TWeakRef entity this slot backs
}

func (w *weakSlot) Children(func(*Value)) {}
func (w *weakSlot) Destroy(world *World) {
	if w.target != nil {
		w.target.weak = nil
		w.target = nil
	}
}

// World is the shared state spec.md calls the "world": the global entity
// list, the per-world locks, and the allocator. Multiple Views share one
// World.
type World struct {
	entityMu sync.Mutex // guards the list below, weak links, recycle clearing
	head     *Entity    // sentinel-free doubly linked list; nil when empty
	tail     *Entity
	liveCount int

	EntityLimit int // Wake() triggers a collection at this load (default 800)

	// CollectHook, if set, is invoked by Wake when the live-entity load
	// crosses EntityLimit. It is wired to gcx.Collect by the embedder
	// façade to avoid an import cycle between rt and gcx.
	CollectHook func(*World)

	// CallHook, if set, invokes a callable Value with args and returns
	// its results. The value operations (ops_*.go) use it to dispatch
	// overload hooks on objects and opaques without rt importing the VM
	// that actually executes bytecode.
	CallHook func(w *World, v *View, fn Value, args []Value) ([]Value, error)

	PublicMu sync.Mutex       // guards Public/Modules below
	Public   map[string]Value // the public-name table (root)
	Modules  map[string]Value // module cache (root)

	Metatables [5]Value // met_str, met_blob, met_arr, met_table, io_file (roots)
	ExcOOM     Value    // pre-allocated out-of-memory exception (root)

	views   []*View // viewsMu-guarded
	viewsMu sync.Mutex
}

// NewWorld creates an empty World with the spec's default entity limit.
func NewWorld() *World {
	return &World{
		EntityLimit: 800,
		Public:      make(map[string]Value),
		Modules:     make(map[string]Value),
	}
}

// link inserts e at the tail of the global entity list. Caller holds
// entityMu.
func (w *World) link(e *Entity) {
	e.prev = w.tail
	e.next = nil
	if w.tail != nil {
		w.tail.next = e
	} else {
		w.head = e
	}
	w.tail = e
	w.liveCount++
}

// unlink removes e from the global entity list. Caller holds entityMu.
func (w *World) unlink(e *Entity) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		w.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		w.tail = e.prev
	}
	e.prev, e.next = nil, nil
	w.liveCount--
}

// Each calls yield for every live entity in the global list, in list
// order. yield must not mutate the list.
func (w *World) Each(yield func(*Entity)) {
	w.entityMu.Lock()
	defer w.entityMu.Unlock()
	for e := w.head; e != nil; e = e.next {
		yield(e)
	}
}

// LiveCount returns the number of entities currently in the global list
// (including sleeping ones, which remain linked until wrecked).
func (w *World) LiveCount() int {
	w.entityMu.Lock()
	defer w.entityMu.Unlock()
	return w.liveCount
}

// Wake returns a new, zero-refcount, red-coloured entity of the given
// type, reusing a sleeping entity from v's recycle slots if one of a
// matching type is available. If v is mid-native-call (NativeDepth > 0),
// the entity comes back creffed, since native code that just woke it
// has not had a chance to incref it into anything yet.
func (w *World) Wake(v *View, typ Type) *Entity {
	if v != nil {
		if e := v.takeSleeper(typ); e != nil {
			if v.NativeDepth > 0 {
				v.creffWoken(e)
			}
			return e
		}
	}

	w.entityMu.Lock()
	e := &Entity{Type: typ}
	w.link(e)
	count := w.liveCount
	w.entityMu.Unlock()

	if v != nil && v.NativeDepth > 0 {
		v.creffWoken(e)
	}

	if w.CollectHook != nil && w.EntityLimit > 0 && count >= w.EntityLimit {
		w.CollectHook(w)
	}
	return e
}

// Incref atomically increments e's reference count.
func (w *World) Incref(e *Entity) {
	if e == nil {
		return
	}
	atomic.AddInt64(&e.refs, 1)
}

// IncrefValue increfs v's entity if v is a reference type.
func (w *World) IncrefValue(v Value) {
	if v.Type.IsReference() {
		w.Incref(v.E)
	}
}

// Decref atomically decrements e's reference count, hibernating it when
// the count reaches zero.
func (w *World) Decref(e *Entity, v *View) {
	if e == nil {
		return
	}
	if atomic.AddInt64(&e.refs, -1) <= 0 {
		w.Hibernate(e, v)
	}
}

// DecrefValue decrefs v's entity if v is a reference type.
func (w *World) DecrefValue(val Value, v *View) {
	if val.Type.IsReference() {
		w.Decref(val.E, v)
	}
}

const destroyRecursionFactor = 2

// Hibernate runs the entity's type-specific destructor, marks it
// SLEEPING, and offers it to v's recycle slot in round-robin fashion. The
// slot's previous occupant, if any, is wrecked.
func (w *World) Hibernate(e *Entity, v *View) {
	w.scrap(e, v, 0)
	e.mark = sleepingBit
	if v != nil {
		if evicted := v.offerSleeper(e); evicted != nil {
			w.Wreck(evicted)
		}
	}
}

// scrap runs e's destructor, detaching the payload first so a cycle that
// leads back to e does not destroy it twice. The depth cutoff below
// (recurselimit*2) is checked against the depth argument only; Hibernate
// always passes 0 and nested destruction reaches Hibernate again through
// Decref, so destructor recursion is not depth-limited.
func (w *World) scrap(e *Entity, v *View, depth int) {
	limit := 64
	if v != nil && v.RecursionLimit > 0 {
		limit = v.RecursionLimit * destroyRecursionFactor
	}
	if depth > limit {
		return
	}
	if p := e.Payload; p != nil {
		e.Payload = nil
		p.Destroy(w)
	}
}

// DestroyPayload runs e's destructor directly, without going through
// Hibernate's sleeping/recycle path. The tracing collector calls this on
// entities it finds unreachable (reference cycles refcounting alone
// cannot free) right before Wreck. Children that are themselves part of
// the same dead cycle may get decref'd to zero here and hibernate
// through the normal path; that is harmless; it just means the sweep
// below wrecks an already-payload-less entity.
func DestroyPayload(w *World, e *Entity) {
	if p := e.Payload; p != nil {
		e.Payload = nil
		p.Destroy(w)
	}
}

// Wreck unlinks and frees e. Entities must be SLEEPING (or otherwise
// fully destroyed) before being wrecked; the GC sweep phase is the other
// caller of this besides Hibernate's slot eviction.
func (w *World) Wreck(e *Entity) {
	if e.weak != nil {
		e.weak.target = nil
		e.weak = nil
	}
	w.entityMu.Lock()
	w.unlink(e)
	w.entityMu.Unlock()
}

// MakeWeak returns a weakref Value observing val's entity, creating (or
// reusing, per-entity) the backing weakSlot entity. Fails for
// non-reference values.
func (w *World) MakeWeak(v *View, val Value) (Value, error) {
	if !val.Type.IsReference() || val.E == nil {
		return Value{}, errCannotWeak
	}
	e := val.E

	w.entityMu.Lock()
	defer w.entityMu.Unlock()

	if e.weak != nil {
		// Reuse: find the weakref entity that owns this slot.
		return Value{Type: TWeakRef, E: weakOwnerLocked(e.weak)}, nil
	}

	slot := &weakSlot{target: e}
	we := &Entity{Type: TWeakRef, Payload: slot}
	w.link(we)
	e.weak = slot
	slot.owner = we
	return FromEntity(we), nil
}

// FetchWeak resolves a weakref entity to a new strong reference, or Null
// if the observed entity has been wrecked.
func (w *World) FetchWeak(we *Entity) Value {
	slot, _ := we.Payload.(*weakSlot)
	if slot == nil || slot.target == nil {
		return Null
	}
	w.Incref(slot.target)
	return FromEntity(slot.target)
}

// weakOwnerLocked returns the weakref Entity owning slot; entityMu must be
// held.
func weakOwnerLocked(slot *weakSlot) *Entity { return slot.owner }
