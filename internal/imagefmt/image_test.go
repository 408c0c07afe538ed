package imagefmt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hisahi/uncil-go/internal/rt"
	"github.com/hisahi/uncil-go/internal/vm"
	"github.com/stretchr/testify/require"
)

func TestDumpLoadRoundTripsCodeAndConstants(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 10)

	proto := &vm.Proto{
		Name: "adder",
		Code: []vm.Instr{
			{Op: vm.OpAdd, A: 2, B: 0, C: 1},
			{Op: vm.OpReturn, A: 2, B: 1},
		},
		Consts:    []rt.Value{rt.NewInt(41), rt.NewFloat(1.5)},
		NumRegs:   3,
		NumParams: 2,
	}

	img, err := Dump(proto)
	require.NoError(t, err)
	require.True(t, len(img) > int(headerSize))

	loaded, err := Load(img, vm.Proto{Name: proto.Name, NumRegs: proto.NumRegs, NumParams: proto.NumParams}, world, view)
	require.NoError(t, err)
	if diff := cmp.Diff(proto.Code, loaded.Code); diff != "" {
		t.Fatalf("decoded instruction stream mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, int64(41), loaded.Consts[0].I)
	require.Equal(t, 1.5, loaded.Consts[1].F)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 10)

	proto := &vm.Proto{Code: []vm.Instr{{Op: vm.OpHalt}}}
	img, err := Dump(proto)
	require.NoError(t, err)

	img[0] ^= 0xFF
	_, err = Load(img, vm.Proto{}, world, view)
	require.ErrorIs(t, err, ErrIncompatible)
}

func TestDumpRoundTripsStringConstant(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 10)

	s := rt.FromEntity(rt.NewString(world, view, "hello"))
	proto := &vm.Proto{Code: []vm.Instr{{Op: vm.OpHalt}}, Consts: []rt.Value{s}}

	img, err := Dump(proto)
	require.NoError(t, err)

	loaded, err := Load(img, vm.Proto{}, world, view)
	require.NoError(t, err)
	str, err := rt.AsString(loaded.Consts[0])
	require.NoError(t, err)
	require.Equal(t, "hello", str.String())
}
