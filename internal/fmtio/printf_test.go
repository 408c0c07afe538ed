package fmtio

import (
	"bytes"
	"testing"

	"github.com/hisahi/uncil-go/internal/rt"
	"github.com/stretchr/testify/require"
)

func TestPrintfBasicVerbs(t *testing.T) {
	var buf bytes.Buffer
	n, err := Printf(&buf, "%d-%5d-%-5d|%x %s", []rt.Value{
		rt.NewInt(7), rt.NewInt(7), rt.NewInt(7), rt.NewInt(255), rt.NewInt(1),
	})
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "7-    7-7    |ff 1", buf.String())
}

func TestPrintfStringAndPrecision(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 10)
	s := rt.FromEntity(rt.NewString(world, view, "hello"))

	var buf bytes.Buffer
	_, err := Printf(&buf, "%.3s", []rt.Value{s})
	require.NoError(t, err)
	require.Equal(t, "hel", buf.String())
}

func TestPrintfErrorsOnTypeMismatch(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 10)
	s := rt.FromEntity(rt.NewString(world, view, "nope"))

	var buf bytes.Buffer
	_, err := Printf(&buf, "%d", []rt.Value{s})
	require.Error(t, err)
}

func TestScanfParsesIntFloatAndWord(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 10)

	vals, err := Scanf(world, view, "  42  3.5 hello", "%d %f %s")
	require.NoError(t, err)
	require.Len(t, vals, 3)
	require.Equal(t, int64(42), vals[0].I)
	require.Equal(t, 3.5, vals[1].F)
	str, err := rt.AsString(vals[2])
	require.NoError(t, err)
	require.Equal(t, "hello", str.String())
}

func TestScanfMatchesLiteralsAndStopsOnMismatch(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 10)

	vals, err := Scanf(world, view, "x=7", "x=%d")
	require.NoError(t, err)
	require.Len(t, vals, 1)
	require.Equal(t, int64(7), vals[0].I)

	_, err = Scanf(world, view, "y=7", "x=%d")
	require.Error(t, err)
}
