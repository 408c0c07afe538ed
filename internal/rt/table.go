package rt

// tableEntry is one live key/value pair plus its position in the
// insertion-ordered slice, so deletions can be O(1) via tombstoning
// without breaking in-progress iteration.
type tableEntry struct {
	key, val Value
	deleted  bool
}

// Table is the hashed-map container backing TTable entities: a Go map
// from hashed key to a slot in an insertion-ordered slice. It keeps
// insertion order for iteration (deterministic for test expectations)
// and a generation counter so
// in-flight iterators can detect concurrent structural mutation.
type Table struct {
	world *World
	index map[any]int
	order []tableEntry
	live  int
	gen   uint64
}

// NewTable wakes a fresh, empty TTable entity.
func NewTable(w *World, v *View) *Entity {
	e := w.Wake(v, TTable)
	e.Payload = &Table{world: w, index: make(map[any]int)}
	return e
}

func asTable(e *Entity) *Table {
	t, _ := e.Payload.(*Table)
	return t
}

// Len returns the number of live entries.
func (t *Table) Len() int { return t.live }

// Generation returns the counter bumped on every structural mutation
// (insert of a new key, or delete); used by iterators to detect
// concurrent modification.
func (t *Table) Generation() uint64 { return t.gen }

// Get looks up key, returning (value, true) if present.
func (t *Table) Get(key Value) (Value, bool, error) {
	hk, err := hashKey(key)
	if err != nil {
		return Value{}, false, err
	}
	i, ok := t.index[hk]
	if !ok || t.order[i].deleted {
		return Value{}, false, nil
	}
	return t.order[i].val, true, nil
}

// Set inserts or overwrites key -> val.
func (t *Table) Set(v *View, key, val Value) error {
	hk, err := hashKey(key)
	if err != nil {
		return err
	}
	if i, ok := t.index[hk]; ok && !t.order[i].deleted {
		t.world.IncrefValue(val)
		old := t.order[i].val
		t.order[i].val = val
		t.world.DecrefValue(old, v)
		return nil
	}
	t.world.IncrefValue(key)
	t.world.IncrefValue(val)
	t.index[hk] = len(t.order)
	t.order = append(t.order, tableEntry{key: key, val: val})
	t.live++
	t.gen++
	return nil
}

// Delete removes key, decref'ing its key and value. Reports whether the
// key was present.
func (t *Table) Delete(v *View, key Value) (bool, error) {
	hk, err := hashKey(key)
	if err != nil {
		return false, err
	}
	i, ok := t.index[hk]
	if !ok || t.order[i].deleted {
		return false, nil
	}
	entry := t.order[i]
	t.order[i].deleted = true
	t.order[i].val = Value{}
	delete(t.index, hk)
	t.live--
	t.gen++
	t.world.DecrefValue(entry.key, v)
	t.world.DecrefValue(entry.val, v)
	return true, nil
}

// Each calls yield(key, value) for every live entry in insertion order.
// Mutating the table from within yield is undefined beyond what the caller explicitly coordinates, same
// as the spec's iterator contract.
func (t *Table) Each(yield func(Value, Value) bool) {
	for _, e := range t.order {
		if e.deleted {
			continue
		}
		if !yield(e.key, e.val) {
			return
		}
	}
}

// Children implements Payload.
func (t *Table) Children(yield func(*Value)) {
	for i := range t.order {
		if t.order[i].deleted {
			continue
		}
		yield(&t.order[i].key)
		yield(&t.order[i].val)
	}
}

// Destroy implements Payload.
func (t *Table) Destroy(w *World) {
	for _, e := range t.order {
		if e.deleted {
			continue
		}
		w.DecrefValue(e.key, nil)
		w.DecrefValue(e.val, nil)
	}
	t.order = nil
	t.index = nil
}
