package rt

// objAttr is one attribute slot, kept in insertion order like Table so
// iteration and deletion behave the same way.
type objAttr struct {
	name    string
	val     Value
	deleted bool
}

// Object is the prototype-chained container backing TObject entities.
// Attribute lookup that misses locally walks Prototype, matching the
// spec's "ask your prototype" dispatch for both plain attributes and the
// overload hooks (__add, __getindex, and so on) looked up by the value
// operations in ops_*.go.
type Object struct {
	world     *World
	Prototype Value // Null or a TObject/TOpaque value
	index     map[string]int
	order     []objAttr
	Frozen    bool
}

// NewObject wakes a fresh TObject entity with the given prototype (Null
// for none).
func NewObject(w *World, v *View, proto Value) *Entity {
	e := w.Wake(v, TObject)
	w.IncrefValue(proto)
	e.Payload = &Object{world: w, Prototype: proto, index: make(map[string]int)}
	return e
}

func asObject(e *Entity) *Object {
	o, _ := e.Payload.(*Object)
	return o
}

// GetOwn looks up name in this object only, without consulting the
// prototype chain.
func (o *Object) GetOwn(name string) (Value, bool) {
	i, ok := o.index[name]
	if !ok || o.order[i].deleted {
		return Value{}, false
	}
	return o.order[i].val, true
}

// Get walks the prototype chain, returning the first matching attribute.
// depth bounds cycles in malformed prototype chains.
func Get(v Value, name string, depth int) (Value, bool) {
	if depth > 1000 || v.Type != TObject && v.Type != TOpaque {
		return Value{}, false
	}
	switch v.Type {
	case TObject:
		o := asObject(v.E)
		if val, ok := o.GetOwn(name); ok {
			return val, true
		}
		return Get(o.Prototype, name, depth+1)
	case TOpaque:
		op := asOpaque(v.E)
		if val, ok := op.GetOwn(name); ok {
			return val, true
		}
		return Get(op.Prototype, name, depth+1)
	}
	return Value{}, false
}

// SetOwn inserts or overwrites name in this object, failing if the
// object is frozen.
func (o *Object) SetOwn(vi *View, name string, val Value) error {
	if o.Frozen {
		return errFrozen
	}
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

// DeleteOwn removes name from this object.
func (o *Object) DeleteOwn(vi *View, name string) (bool, error) {
	if o.Frozen {
		return false, errFrozen
	}
	i, ok := o.index[name]
	if !ok || o.order[i].deleted {
		return false, nil
	}
	old := o.order[i].val
	o.order[i].deleted = true
	o.order[i].val = Value{}
	delete(o.index, name)
	o.world.DecrefValue(old, vi)
	return true, nil
}

// Each calls yield(name, value) for every live own attribute, in
// insertion order.
func (o *Object) Each(yield func(string, Value) bool) {
	for _, a := range o.order {
		if a.deleted {
			continue
		}
		if !yield(a.name, a.val) {
			return
		}
	}
}

// Children implements Payload.
func (o *Object) Children(yield func(*Value)) {
	yield(&o.Prototype)
	for i := range o.order {
		if o.order[i].deleted {
			continue
		}
		yield(&o.order[i].val)
	}
}

// Destroy implements Payload.
func (o *Object) Destroy(w *World) {
	w.DecrefValue(o.Prototype, nil)
	o.Prototype = Null
	for _, a := range o.order {
		if !a.deleted {
			w.DecrefValue(a.val, nil)
		}
	}
	o.order = nil
	o.index = nil
}
