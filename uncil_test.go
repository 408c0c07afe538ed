package uncilgo

import (
	"testing"

	"github.com/hisahi/uncil-go/internal/rt"
	"github.com/stretchr/testify/require"
)

func TestCreateForkAndCallNativeFunction(t *testing.T) {
	r := Create(nil)
	v := r.Fork(100)
	defer v.Close()

	double := v.NewNativeFunction("double", func(w *rt.World, view *rt.View, args []rt.Value) ([]rt.Value, error) {
		return []rt.Value{rt.NewInt(args[0].I * 2)}, nil
	}, 1, false)

	results, status, err := v.Call(double, []Value{rt.NewInt(21)})
	require.NoError(t, err)
	require.Equal(t, StatusReturned, status)
	require.Equal(t, int64(42), results[0].I)
}

func TestPublicTableRoundTrips(t *testing.T) {
	r := Create(nil)
	v := r.Fork(100)
	defer v.Close()

	arr := v.NewArray([]Value{rt.NewInt(1), rt.NewInt(2), rt.NewInt(3)})
	v.SetPublic("nums", arr)

	got, ok := v.GetPublic("nums")
	require.True(t, ok)
	a, err := rt.AsArray(got)
	require.NoError(t, err)
	require.Equal(t, 3, a.Len())

	v.DeletePublic("nums")
	_, ok = v.GetPublic("nums")
	require.False(t, ok)
}

func TestGetSetIndexOnTable(t *testing.T) {
	r := Create(nil)
	v := r.Fork(100)
	defer v.Close()

	tbl := v.NewTable()
	key := v.NewString("k")
	require.NoError(t, v.SetIndex(tbl, key, rt.NewInt(7)))

	got, err := v.GetIndex(tbl, key)
	require.NoError(t, err)
	require.Equal(t, int64(7), got.I)
}

func TestCallThrowSurfacesLastError(t *testing.T) {
	r := Create(nil)
	v := r.Fork(100)
	defer v.Close()

	boom := v.NewNativeFunction("boom", func(w *rt.World, view *rt.View, args []rt.Value) ([]rt.Value, error) {
		return nil, errBoom
	}, 0, false)

	_, status, err := v.Call(boom, nil)
	require.Equal(t, StatusThrew, status)
	require.Error(t, err)
}

func TestCollectReclaimsUnrootedCycle(t *testing.T) {
	r := Create(nil)
	v := r.Fork(100)
	defer v.Close()

	a1 := v.NewArray(nil)
	a2 := v.NewArray(nil)
	arr1, _ := rt.AsArray(a1)
	arr2, _ := rt.AsArray(a2)
	arr1.Push(a2)
	arr2.Push(a1)
	// Both arrays now only reference each other; no root holds either.

	before := r.World.LiveCount()
	freed := r.Collect()
	require.True(t, freed > 0)
	require.True(t, r.World.LiveCount() < before)
}

var errBoom = boomErr{}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }
