// Package gcx implements the tracing collector that backs up the entity
// manager's reference counting: a red/yellow/green mark-sweep pass that
// finds and breaks reference cycles refcounting alone cannot free.
// Grounded on original_source/src/ugc.c's colour scheme and triggered
// the same way, off a live-entity threshold rather than a timer.
package gcx

import "github.com/hisahi/uncil-go/internal/rt"

// Roots supplies the collector's starting points: every entity reachable
// from a root is live, full stop, regardless of its refcount. The
// embedder façade builds this from the World's public table, module
// cache, metatables, and every View's register/value/with/frame stacks.
type Roots interface {
	Each(yield func(rt.Value))
}

// Collector runs one full mark-sweep pass over a World.
type Collector struct {
	world *rt.World
	roots Roots

	// RecursionLimit caps the mark depth. Marking is driven by an
	// explicit worklist rather than recursion; an entry reached deeper
	// than this limit is pushed back onto the worklist with its depth
	// reset to 0.
	RecursionLimit int
}

// New creates a Collector. roots must reflect the current set of GC
// roots at the time Collect is called; the embedder façade normally
// passes a thin wrapper that re-walks live Views each call.
func New(world *rt.World, roots Roots, recursionLimit int) *Collector {
	if recursionLimit <= 0 {
		recursionLimit = 256
	}
	return &Collector{world: world, roots: roots, RecursionLimit: recursionLimit}
}

// Attach wires c into world's CollectHook, so rt.World.Wake triggers a
// collection automatically once EntityLimit is crossed.
func (c *Collector) Attach() {
	c.world.CollectHook = func(*rt.World) { c.Collect() }
}

// Collect performs one root/mark/sweep pass, wrecking every entity left
// red (unreached) at the end. It returns the number of entities freed.
func (c *Collector) Collect() int {
	type worklistEntry struct {
		val  rt.Value
		depth int
	}

	c.world.Each(func(e *rt.Entity) {
		if !e.Sleeping() {
			rt.SetMark(e, rt.ColorRed)
		}
	})

	var worklist []worklistEntry
	markValue := func(v rt.Value, depth int) {
		if !v.Type.IsReference() || v.E == nil {
			return
		}
		if rt.GetMark(v.E) != rt.ColorRed {
			return
		}
		rt.SetMark(v.E, rt.ColorYellow)
		worklist = append(worklist, worklistEntry{val: v, depth: depth})
	}

	c.roots.Each(func(v rt.Value) { markValue(v, 0) })

	var walk func(v rt.Value, depth int)
	walk = func(v rt.Value, depth int) {
		e := v.E
		if rt.GetMark(e) != rt.ColorYellow {
			return
		}
		if depth > c.RecursionLimit {
			// Leave it yellow; the drain loop below will pick it back
			// up as part of the worklist.
			worklist = append(worklist, worklistEntry{val: v, depth: 0})
			return
		}
		if e.Payload != nil {
			e.Payload.Children(func(child *rt.Value) {
				markValue(*child, depth+1)
			})
		}
		rt.SetMark(e, rt.ColorGreen)
	}

	for len(worklist) > 0 {
		n := len(worklist) - 1
		item := worklist[n]
		worklist = worklist[:n]
		walk(item.val, item.depth)
	}

	freed := 0
	var dead []*rt.Entity
	c.world.Each(func(e *rt.Entity) {
		if !e.Sleeping() && rt.GetMark(e) == rt.ColorRed && !e.Creffed() {
			dead = append(dead, e)
		}
	})
	for _, e := range dead {
		rt.DestroyPayload(c.world, e)
		c.world.Wreck(e)
		freed++
	}
	return freed
}
