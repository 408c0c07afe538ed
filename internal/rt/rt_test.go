package rt

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntityRefcountHibernatesAtZero(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	arr := NewArray(w, v, nil)
	w.Incref(arr)
	require.Equal(t, int64(1), arr.Refs())

	w.Decref(arr, v)
	require.True(t, arr.Sleeping())
}

func TestArrayPushGetSlice(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	e := NewArray(w, v, nil)
	a := asArray(e)
	a.Push(NewInt(1))
	a.Push(NewInt(2))
	a.Push(NewInt(3))
	require.Equal(t, 3, a.Len())

	val, err := a.Get(1)
	require.NoError(t, err)
	require.Equal(t, int64(2), val.I)

	sliceEnt, err := a.Slice(v, 1, 3)
	require.NoError(t, err)
	sl := asArray(sliceEnt)
	require.Equal(t, 2, sl.Len())
}

func TestTableSetGetDeleteAndHashability(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	e := NewTable(w, v)
	tbl := asTable(e)

	require.NoError(t, tbl.Set(v, NewString_(w, v, "x"), NewInt(42)))
	val, ok, err := tbl.Get(NewString_(w, v, "x"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(42), val.I)

	deleted, err := tbl.Delete(v, NewString_(w, v, "x"))
	require.NoError(t, err)
	require.True(t, deleted)

	arrKey := FromEntity(NewArray(w, v, nil))
	require.False(t, IsHashable(arrKey))
	_, err = tbl.Get(arrKey)
	require.Error(t, err)
}

func NewString_(w *World, v *View, s string) Value {
	return FromEntity(NewString(w, v, s))
}

func TestTableIteratorDetectsMutation(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)
	e := NewTable(w, v)
	tbl := asTable(e)
	require.NoError(t, tbl.Set(v, NewInt(1), NewInt(10)))
	require.NoError(t, tbl.Set(v, NewInt(2), NewInt(20)))

	it, err := NewIteratorFor(w, v, FromEntity(e))
	require.NoError(t, err)

	_, _, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, tbl.Set(v, NewInt(3), NewInt(30)))

	_, _, _, err = it.Next()
	require.ErrorIs(t, err, errTableModified)
}

func TestEqualNumericCrossesIntFloat(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)
	eq, err := Equal(w, v, NewInt(2), NewFloat(2.0))
	require.NoError(t, err)
	require.True(t, eq)
}

func TestArithOverflowPromotesToFloat(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)
	const maxInt = int64(1) << 62
	result, err := Arith(w, v, opAdd, NewInt(maxInt), NewInt(maxInt))
	require.NoError(t, err)
	require.Equal(t, TFloat, result.Type)
}

func TestObjectPrototypeAttributeLookup(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	protoEnt := NewObject(w, v, Null)
	proto := asObject(protoEnt)
	require.NoError(t, proto.SetOwn(v, "greeting", NewString_(w, v, "hi")))

	childEnt := NewObject(w, v, FromEntity(protoEnt))
	val, err := GetAttr(w, v, FromEntity(childEnt), "greeting")
	require.NoError(t, err)
	str, err := AsString(val)
	require.NoError(t, err)
	require.Equal(t, "hi", str.String())
}

func TestOpaqueRunsDestructorAndCarriesOwnAttributes(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	closed := false
	ref := NewInt(7)
	e := NewOpaque(w, v, Null, struct{ fd int }{fd: 3}, func(host any) {
		closed = true
	}, []Value{ref})
	o := asOpaque(e)

	require.NoError(t, o.SetOwn(v, "name", NewString_(w, v, "handle")))
	got, ok := o.GetOwn("name")
	require.True(t, ok)
	str, err := AsString(got)
	require.NoError(t, err)
	require.Equal(t, "handle", str.String())

	o.Destroy(w)
	require.True(t, closed)
	require.Nil(t, o.Host)
}

func TestBoundFunctionPairsReceiverWithFunction(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	fnEnt := NewNativeFunction(w, v, "greet", func(w *World, v *View, args []Value) ([]Value, error) {
		return args, nil
	}, 1, false)
	self := NewString_(w, v, "receiver")

	boundEnt := NewBoundFunction(w, v, FromEntity(fnEnt), self)
	bound := asBoundFunction(boundEnt)

	require.Equal(t, TFunction, bound.Fn.Type)
	str, err := AsString(bound.Self)
	require.NoError(t, err)
	require.Equal(t, "receiver", str.String())

	fn := asFunction(fnEnt)
	require.True(t, fn.IsNative())
	require.Equal(t, 1, fn.NumParams)
}

func TestMakeWeakFetchWeakTracksLifetime(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	arr := NewArray(w, v, nil)
	target := FromEntity(arr)
	w.IncrefValue(target)

	weak, err := w.MakeWeak(v, target)
	require.NoError(t, err)
	require.Equal(t, TWeakRef, weak.Type)

	resolved := w.FetchWeak(weak.E)
	require.Equal(t, TArray, resolved.Type)
	w.DecrefValue(resolved, v)

	w.DecrefValue(target, v)
	require.True(t, arr.Sleeping())

	// Hibernation alone (refcount reaching zero) doesn't sever the weak
	// link; only Wreck, run once the entity is actually reclaimed by the
	// recycle ring or a GC sweep, does.
	w.Wreck(arr)
	resolved = w.FetchWeak(weak.E)
	require.Equal(t, Null, resolved)
}

func TestMakeWeakRejectsPrimitive(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	_, err := w.MakeWeak(v, NewInt(5))
	require.Error(t, err)
}

func TestCompareRaisesOnNaN(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	nan := NewFloat(math.NaN())
	_, err := Compare(w, v, nan, NewFloat(1.0))
	require.ErrorIs(t, err, ErrMath)
}

func TestCompareOrdersNumbersAndStrings(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	c, err := Compare(w, v, NewInt(1), NewInt(2))
	require.NoError(t, err)
	require.Equal(t, -1, c)

	c, err = Compare(w, v, NewString_(w, v, "b"), NewString_(w, v, "a"))
	require.NoError(t, err)
	require.Equal(t, 1, c)
}

func TestDivByZeroRaisesMathError(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	_, err := Div(w, v, NewInt(5), NewInt(0))
	require.ErrorIs(t, err, ErrMath)

	_, err = Div(w, v, NewFloat(1), NewFloat(0))
	require.ErrorIs(t, err, ErrMath)
}

func TestIDivAndModMatchFlooredSemantics(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	q, err := Arith(w, v, opIDiv, NewInt(-7), NewInt(3))
	require.NoError(t, err)
	require.Equal(t, int64(-3), q.I)

	r, err := Arith(w, v, opMod, NewInt(-7), NewInt(3))
	require.NoError(t, err)
	require.Equal(t, int64(2), r.I)

	_, err = Arith(w, v, opIDiv, NewInt(5), NewInt(0))
	require.ErrorIs(t, err, ErrMath)

	_, err = Arith(w, v, opMod, NewInt(5), NewInt(0))
	require.ErrorIs(t, err, ErrMath)
}

func TestShiftWrapsAtWordWidth(t *testing.T) {
	require.Equal(t, Shl(1, 1), Shl(1, 65))
	require.Equal(t, int64(2), Shl(1, 65))
}

func TestBitwiseAndOrOnBoolPairsProduceBool(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	res, err := Bitwise(w, v, HookBAnd, BAnd, NewBool(true), NewBool(false))
	require.NoError(t, err)
	require.Equal(t, TBool, res.Type)
	require.False(t, res.Bool())

	res, err = Bitwise(w, v, HookBOr, BOr, NewBool(true), NewBool(false))
	require.NoError(t, err)
	require.Equal(t, TBool, res.Type)
	require.True(t, res.Bool())
}

func TestStringIndexDecodesCodePointNotByte(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	s := NewString_(w, v, "aéb")
	val, err := Index(w, v, s, NewInt(1))
	require.NoError(t, err)
	require.Equal(t, TInt, val.Type)
	require.Equal(t, int64(0xe9), val.I)
}

func TestArrayIndexPermissiveReturnsNullOutOfRange(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)

	e := NewArray(w, v, nil)
	a := asArray(e)
	a.Push(NewInt(1))

	val, err := IndexPermissive(w, v, FromEntity(e), NewInt(5))
	require.NoError(t, err)
	require.Equal(t, Null, val)

	_, err = Index(w, v, FromEntity(e), NewInt(5))
	require.Error(t, err)
}

func TestConcurrentIncrefIsRaceFree(t *testing.T) {
	w := NewWorld()
	v := NewView(w, 1, 100)
	e := NewArray(w, v, nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Incref(e)
		}()
	}
	wg.Wait()
	require.Equal(t, int64(100), e.Refs())
}
