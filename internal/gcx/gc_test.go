package gcx

import (
	"testing"

	"github.com/hisahi/uncil-go/internal/rt"
	"github.com/stretchr/testify/require"
)

// noRoots reports no GC roots at all, useful for collecting a world
// whose only references are reachable through entity payloads (i.e. a
// reference cycle with nothing else pointing at it).
type noRoots struct{}

func (noRoots) Each(func(rt.Value)) {}

func TestCollectBreaksReferenceCycle(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 100)

	a := rt.NewArray(world, view, nil)
	b := rt.NewArray(world, view, nil)

	aArr, err := rt.AsArray(rt.FromEntity(a))
	require.NoError(t, err)
	bArr, err := rt.AsArray(rt.FromEntity(b))
	require.NoError(t, err)

	// a[0] = b; b[0] = a -- a cycle neither refcounting path will free.
	aArr.Push(rt.FromEntity(b))
	world.Incref(b)
	bArr.Push(rt.FromEntity(a))
	world.Incref(a)

	require.Equal(t, 2, world.LiveCount())

	c := New(world, noRoots{}, 64)
	freed := c.Collect()
	require.Equal(t, 2, freed)
}

func TestCollectKeepsRootedEntities(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 100)
	a := rt.NewArray(world, view, nil)
	world.Incref(a)

	roots := rootList{rt.FromEntity(a)}
	c := New(world, roots, 64)
	freed := c.Collect()
	require.Equal(t, 0, freed)
	require.Equal(t, 1, world.LiveCount())
}

type rootList []rt.Value

func (r rootList) Each(yield func(rt.Value)) {
	for _, v := range r {
		yield(v)
	}
}
