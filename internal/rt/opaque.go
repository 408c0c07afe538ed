package rt

// OpaqueDestructor releases a host resource wrapped by an Opaque. It runs
// during Hibernate, so it must not touch other entities beyond decrefing
// the ones in Refs (which Destroy does automatically).
type OpaqueDestructor func(host any)

// Opaque is the host-resource container backing TOpaque entities: a Go
// value of the host's choosing (a *os.File, a net.Conn, ...) plus a set
// of attached Values the host wants kept alive alongside it, and an
// attribute table so opaques can carry the same prototype-dispatched
// methods (__open, __close, __getindex, ...) as Object. Grounded on the
// teacher's resourceState/linear-type handling in lang/types/linear.go,
// reinterpreted here as a runtime discipline instead of a static check.
type Opaque struct {
	world     *World
	Host      any
	Destroyer OpaqueDestructor
	Refs      []Value
	Prototype Value

	index map[string]int
	order []objAttr
}

// NewOpaque wakes a fresh TOpaque entity wrapping host.
func NewOpaque(w *World, v *View, proto Value, host any, destroyer OpaqueDestructor, refs []Value) *Entity {
	e := w.Wake(v, TOpaque)
	w.IncrefValue(proto)
	for _, r := range refs {
		w.IncrefValue(r)
	}
	e.Payload = &Opaque{
		world: w, Host: host, Destroyer: destroyer, Refs: refs,
		Prototype: proto, index: make(map[string]int),
	}
	return e
}

func asOpaque(e *Entity) *Opaque {
	o, _ := e.Payload.(*Opaque)
	return o
}

// GetOwn looks up a locally-set attribute, identical in shape to
// Object.GetOwn so Get's prototype walk can treat both uniformly.
func (o *Opaque) GetOwn(name string) (Value, bool) {
	i, ok := o.index[name]
	if !ok || o.order[i].deleted {
		return Value{}, false
	}
	return o.order[i].val, true
}

// SetOwn inserts or overwrites a locally-set attribute.
func (o *Opaque) SetOwn(vi *View, name string, val Value) error {
	if i, ok := o.index[name]; ok && !o.order[i].deleted {
		o.world.IncrefValue(val)
		old := o.order[i].val
		o.order[i].val = val
		o.world.DecrefValue(old, vi)
		return nil
	}
	o.world.IncrefValue(val)
	o.index[name] = len(o.order)
	o.order = append(o.order, objAttr{name: name, val: val})
	return nil
}

// Children implements Payload.
func (o *Opaque) Children(yield func(*Value)) {
	yield(&o.Prototype)
	for i := range o.Refs {
		yield(&o.Refs[i])
	}
	for i := range o.order {
		if !o.order[i].deleted {
			yield(&o.order[i].val)
		}
	}
}

// Destroy implements Payload: runs the host destructor, then decrefs the
// prototype, attached refs, and own attributes.
func (o *Opaque) Destroy(w *World) {
	if o.Destroyer != nil {
		o.Destroyer(o.Host)
		o.Destroyer = nil
	}
	o.Host = nil
	w.DecrefValue(o.Prototype, nil)
	o.Prototype = Null
	for _, r := range o.Refs {
		w.DecrefValue(r, nil)
	}
	o.Refs = nil
	for _, a := range o.order {
		if !a.deleted {
			w.DecrefValue(a.val, nil)
		}
	}
	o.order, o.index = nil, nil
}
