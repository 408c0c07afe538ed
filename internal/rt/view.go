package rt

// sleeperSlots is the number of per-view recycle slots for hibernated
// entities. A small ring keeps hot allocate/free cycles (loop bodies that
// build and discard one array per iteration, say) from round-tripping
// through the World's entity list and the host allocator every time.
const sleeperSlots = 8

// View is a single cooperative thread of execution sharing a World: its
// own value/frame/with-resource stacks, its own recycle ring, and the
// fields the VM's pause/resume protocol needs. The embedder façade calls
// this a "view" after the spec's term for the same concept.
type View struct {
	ID    uint32
	World *World

	// RecursionLimit bounds call depth (component G). scrap() also
	// derives a destructor cutoff from it (doubled), but nested
	// destruction always enters scrap() at depth 0, so that cutoff does
	// not limit it.
	RecursionLimit int

	sleeperRing [sleeperSlots]*Entity
	sleeperNext int

	// Halted is not set or read by any code in this module; the VM's
	// cooperative pause uses vm.VM.PauseRequested and OpCheckPause.
	Halted bool

	// NativeDepth counts nested BeginNativeCall sections, used to decide
	// whether creffed entities may be released back to ordinary refcounting
	// when the outermost native call returns.
	NativeDepth int
	nativeHeld  []*Entity

	// withStack tracks resources opened by `with` blocks still in scope,
	// so a thrown exception can close them in reverse order while
	// unwinding (component G's try/throw machinery).
	withStack []Value
}

// PushWith records a resource as entered, to be closed on scope exit.
func (v *View) PushWith(val Value) { v.withStack = append(v.withStack, val) }

// PopWith removes and returns the most recently entered resource.
func (v *View) PopWith() (Value, bool) {
	n := len(v.withStack)
	if n == 0 {
		return Value{}, false
	}
	val := v.withStack[n-1]
	v.withStack = v.withStack[:n-1]
	return val, true
}

// WithDepth returns the number of resources currently open, used as an
// unwind mark by the try/throw machinery.
func (v *View) WithDepth() int { return len(v.withStack) }

// UnwindWith closes every resource opened since mark, in reverse order,
// collecting the first error encountered (subsequent close calls still
// all run, matching the spec's best-effort unwind).
func (v *View) UnwindWith(w *World, mark int) error {
	var first error
	for len(v.withStack) > mark {
		val, _ := v.PopWith()
		if err := CloseResource(w, v, val); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewView creates a view bound to world with the given call-depth limit.
func NewView(world *World, id uint32, recursionLimit int) *View {
	if recursionLimit <= 0 {
		recursionLimit = 1000
	}
	v := &View{ID: id, World: world, RecursionLimit: recursionLimit}
	world.viewsMu.Lock()
	world.views = append(world.views, v)
	world.viewsMu.Unlock()
	return v
}

// takeSleeper removes and returns a recycled entity of the given type from
// the ring, or nil if none matches.
func (v *View) takeSleeper(typ Type) *Entity {
	for i := range v.sleeperRing {
		if e := v.sleeperRing[i]; e != nil && e.Type == typ {
			v.sleeperRing[i] = nil
			e.mark = ColorRed
			return e
		}
	}
	return nil
}

// offerSleeper places e in the next ring slot round-robin, returning the
// entity it displaced (nil if the slot was empty).
func (v *View) offerSleeper(e *Entity) *Entity {
	i := v.sleeperNext
	v.sleeperNext = (v.sleeperNext + 1) % sleeperSlots
	evicted := v.sleeperRing[i]
	v.sleeperRing[i] = e
	return evicted
}

// DrainSleepers wrecks every entity currently parked in the recycle ring;
// called when the view shuts down so nothing outlives it silently.
func (v *View) DrainSleepers() {
	for i := range v.sleeperRing {
		if e := v.sleeperRing[i]; e != nil {
			v.sleeperRing[i] = nil
			v.World.Wreck(e)
		}
	}
}

// BeginNativeCall enters a native-function call section, per the spec's
// creffed protocol: any entity World.Wake creates for this view while
// NativeDepth > 0 is automatically creffed (kept alive with no refcount
// edge) until the matching EndNativeCall runs (an incref does not clear
// the flag earlier), since native code routinely builds
// a new entity before it has anywhere to incref it into. It must be
// paired with EndNativeCall.
func (v *View) BeginNativeCall() {
	v.NativeDepth++
}

// EndNativeCall clears the creffed flag from every entity woken since the
// matching BeginNativeCall at this depth.
func (v *View) EndNativeCall(mark int) {
	for _, e := range v.nativeHeld[mark:] {
		e.creffed = false
	}
	v.nativeHeld = v.nativeHeld[:mark]
	v.NativeDepth--
}

// creffWoken marks e as creffed and registers it for release at the next
// EndNativeCall, called by World.Wake when this view is inside a native
// call section.
func (v *View) creffWoken(e *Entity) {
	e.creffed = true
	e.vid = v.ID
	v.nativeHeld = append(v.nativeHeld, e)
}

// NativeMark returns the current length of the creffed-holder list, to be
// passed back to EndNativeCall.
func (v *View) NativeMark() int { return len(v.nativeHeld) }

// Close tears the view down: drains the recycle ring and removes it from
// the owning World's view list.
func (v *View) Close() {
	v.DrainSleepers()
	w := v.World
	w.viewsMu.Lock()
	for i, other := range w.views {
		if other == v {
			w.views = append(w.views[:i], w.views[i+1:]...)
			break
		}
	}
	w.viewsMu.Unlock()
}
