package rt

// NativeFunc is a host-implemented function value. It receives the
// calling view directly (rather than through a narrower context
// interface) because native functions routinely need to allocate new
// entities, raise exceptions, or recurse into the VM via callback.
type NativeFunc func(w *World, v *View, args []Value) ([]Value, error)

// Function is the callable container backing TFunction entities. Exactly
// one of Native and Code is set: Native for a host builtin, Code for a
// compiled bytecode body. Code is an opaque handle supplied by the
// bytecode/module layer (internal/vm, internal/imagefmt) so that rt need
// not import either.
type Function struct {
	world     *World
	Name      string
	Native    NativeFunc
	Code      any // *vm.Proto, set by the loader; nil for Native functions
	NumParams int
	Variadic  bool
	Upvalues  []Value // closed-over cells, increfed on creation
}

// NewNativeFunction wakes a TFunction entity around a Go function.
func NewNativeFunction(w *World, v *View, name string, fn NativeFunc, numParams int, variadic bool) *Entity {
	e := w.Wake(v, TFunction)
	e.Payload = &Function{world: w, Name: name, Native: fn, NumParams: numParams, Variadic: variadic}
	return e
}

// NewBytecodeFunction wakes a TFunction entity around a compiled body and
// its closed-over upvalues.
func NewBytecodeFunction(w *World, v *View, name string, code any, numParams int, variadic bool, upvalues []Value) *Entity {
	e := w.Wake(v, TFunction)
	for _, u := range upvalues {
		w.IncrefValue(u)
	}
	e.Payload = &Function{
		world: w, Name: name, Code: code,
		NumParams: numParams, Variadic: variadic, Upvalues: upvalues,
	}
	return e
}

func asFunction(e *Entity) *Function {
	f, _ := e.Payload.(*Function)
	return f
}

// IsNative reports whether the function is a host builtin.
func (f *Function) IsNative() bool { return f.Native != nil }

// Children implements Payload.
func (f *Function) Children(yield func(*Value)) {
	for i := range f.Upvalues {
		yield(&f.Upvalues[i])
	}
}

// Destroy implements Payload.
func (f *Function) Destroy(w *World) {
	for _, u := range f.Upvalues {
		w.DecrefValue(u, nil)
	}
	f.Upvalues = nil
	f.Native = nil
	f.Code = nil
}

// BoundFunction is the container backing TBoundFunction entities: a
// function entity paired with a receiver Value supplied as an implicit
// first argument, produced by attribute lookups that resolve to a method
// on an object or opaque's prototype chain.
type BoundFunction struct {
	world *World
	Fn    Value // a TFunction value
	Self  Value // the bound receiver
}

// NewBoundFunction wakes a TBoundFunction entity.
func NewBoundFunction(w *World, v *View, fn, self Value) *Entity {
	e := w.Wake(v, TBoundFunction)
	w.IncrefValue(fn)
	w.IncrefValue(self)
	e.Payload = &BoundFunction{world: w, Fn: fn, Self: self}
	return e
}

func asBoundFunction(e *Entity) *BoundFunction {
	b, _ := e.Payload.(*BoundFunction)
	return b
}

// Children implements Payload.
func (b *BoundFunction) Children(yield func(*Value)) {
	yield(&b.Fn)
	yield(&b.Self)
}

// Destroy implements Payload.
func (b *BoundFunction) Destroy(w *World) {
	w.DecrefValue(b.Fn, nil)
	w.DecrefValue(b.Self, nil)
	b.Fn, b.Self = Null, Null
}
