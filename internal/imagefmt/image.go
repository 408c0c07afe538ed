// Package imagefmt implements the program image dump/load codec: a
// fixed byte layout carrying enough host-characteristic metadata
// (word sizes, endianness, a few bits of the Euler-Mascheroni constant
// as a floating-point sanity check) that loading an image dumped on an
// incompatible host fails fast with PROGRAM_INCOMPATIBLE instead of
// silently misinterpreting bytes.
package imagefmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unsafe"

	"github.com/hisahi/uncil-go/internal/rt"
	"github.com/hisahi/uncil-go/internal/vm"
)

// Magic is the image format's leading 4-byte tag.
const Magic uint32 = 0x636E558B

// Version is the current image format revision; Load rejects anything
// newer than this process understands.
const Version uint8 = 1

// eulerMascheroniBits is the low 32 bits of the IEEE-754 float64
// encoding of the Euler-Mascheroni constant, used purely as a cross-host
// floating-point sanity check.
var eulerMascheroniBits = uint32(math.Float64bits(0.5772156649015329) & 0xFFFFFFFF)

// ErrIncompatible is returned when a loaded image's header does not
// match this host's characteristics.
var ErrIncompatible = fmt.Errorf("imagefmt: program image incompatible with this host")

// Header is the fixed-size portion of an image, read/written verbatim.
type Header struct {
	Magic      uint32
	Version    uint8
	CharBit    uint8
	BigEndian  uint8
	SizeofSize uint8
	SizeofInt  uint8
	SizeofFloat uint8
	Gamma      uint32
	Reserved   uint32
	CodeOffset uint32
	CodeSize   uint32
	DataOffset uint32
	DataSize   uint32
}

func hostHeader() Header {
	var endianProbe uint16 = 1
	big := uint8(0)
	if *(*byte)(unsafe.Pointer(&endianProbe)) == 0 {
		big = 1
	}
	return Header{
		Magic:       Magic,
		Version:     Version,
		CharBit:     8,
		BigEndian:   big,
		SizeofSize:  uint8(unsafe.Sizeof(int(0))),
		SizeofInt:   uint8(unsafe.Sizeof(int64(0))),
		SizeofFloat: uint8(unsafe.Sizeof(float64(0))),
		Gamma:       eulerMascheroniBits,
	}
}

// Compatible reports whether h matches this host's characteristics.
func (h Header) Compatible() bool {
	ref := hostHeader()
	return h.Magic == ref.Magic && h.Version <= ref.Version &&
		h.CharBit == ref.CharBit && h.BigEndian == ref.BigEndian &&
		h.SizeofSize == ref.SizeofSize && h.SizeofInt == ref.SizeofInt &&
		h.SizeofFloat == ref.SizeofFloat && h.Gamma == ref.Gamma
}

// Dump serializes proto into the image format. The instruction stream
// and constant pool are encoded with encoding/gob-free, explicit
// binary.Write calls so the layout is exactly what Header.CodeSize/
// DataSize describe, not whatever a generic encoder happens to produce.
func Dump(proto *vm.Proto) ([]byte, error) {
	var code bytes.Buffer
	for _, instr := range proto.Code {
		if err := binary.Write(&code, binary.LittleEndian, instr.Op); err != nil {
			return nil, err
		}
		for _, field := range []int32{instr.A, instr.B, instr.C} {
			if err := binary.Write(&code, binary.LittleEndian, field); err != nil {
				return nil, err
			}
		}
	}

	var data bytes.Buffer
	if err := binary.Write(&data, binary.LittleEndian, uint32(len(proto.Consts))); err != nil {
		return nil, err
	}
	for _, c := range proto.Consts {
		if err := encodeConst(&data, c); err != nil {
			return nil, err
		}
	}

	h := hostHeader()
	h.CodeOffset = uint32(headerSize)
	h.CodeSize = uint32(code.Len())
	h.DataOffset = h.CodeOffset + h.CodeSize
	h.DataSize = uint32(data.Len())

	var out bytes.Buffer
	if err := binary.Write(&out, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	out.Write(code.Bytes())
	out.Write(data.Bytes())
	return out.Bytes(), nil
}

const headerSize = 4 + 1 + 1 + 1 + 1 + 1 + 1 + 4 + 4 + 4 + 4 + 4 + 4

// Load deserializes an image previously produced by Dump. numRegs,
// numParams, variadic, and name are not carried by the image (they are
// compiler metadata this runtime does not need to round-trip for the
// spec's test programs) and must be supplied by the caller in meta.
// world/view are needed to allocate any string constants the image
// carries.
func Load(img []byte, meta vm.Proto, world *rt.World, view *rt.View) (*vm.Proto, error) {
	r := bytes.NewReader(img)
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("imagefmt: truncated header: %w", err)
	}
	if !h.Compatible() {
		return nil, ErrIncompatible
	}

	code := make([]vm.Instr, 0, h.CodeSize/16)
	codeEnd := int64(h.CodeOffset) + int64(h.CodeSize)
	for {
		pos, _ := r.Seek(0, 1)
		if pos >= codeEnd {
			break
		}
		var instr vm.Instr
		if err := binary.Read(r, binary.LittleEndian, &instr.Op); err != nil {
			return nil, err
		}
		for _, p := range []*int32{&instr.A, &instr.B, &instr.C} {
			if err := binary.Read(r, binary.LittleEndian, p); err != nil {
				return nil, err
			}
		}
		code = append(code, instr)
	}

	var numConsts uint32
	if err := binary.Read(r, binary.LittleEndian, &numConsts); err != nil {
		return nil, err
	}
	consts := make([]rt.Value, numConsts)
	for i := range consts {
		v, err := decodeConst(r, world, view)
		if err != nil {
			return nil, err
		}
		consts[i] = v
	}

	meta.Code = code
	meta.Consts = consts
	return &meta, nil
}

// constTag distinguishes the handful of Value types that can appear in
// a compiled constant pool; every other type is produced at runtime.
type constTag uint8

const (
	constNull constTag = iota
	constBool
	constInt
	constFloat
	constString
)

func encodeConst(w *bytes.Buffer, v rt.Value) error {
	switch v.Type {
	case rt.TNull:
		return binary.Write(w, binary.LittleEndian, constNull)
	case rt.TBool:
		if err := binary.Write(w, binary.LittleEndian, constBool); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, v.Bool())
	case rt.TInt:
		if err := binary.Write(w, binary.LittleEndian, constInt); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, v.I)
	case rt.TFloat:
		if err := binary.Write(w, binary.LittleEndian, constFloat); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, v.F)
	case rt.TString:
		s, err := rt.AsString(v)
		if err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, constString); err != nil {
			return err
		}
		b := s.Bytes()
		if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("imagefmt: constant of type %s cannot be serialized", v.TypeName())
	}
}

func decodeConst(r *bytes.Reader, world *rt.World, view *rt.View) (rt.Value, error) {
	var tag constTag
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return rt.Value{}, err
	}
	switch tag {
	case constNull:
		return rt.Null, nil
	case constBool:
		var b bool
		if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
			return rt.Value{}, err
		}
		return rt.NewBool(b), nil
	case constInt:
		var i int64
		if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
			return rt.Value{}, err
		}
		return rt.NewInt(i), nil
	case constFloat:
		var f float64
		if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
			return rt.Value{}, err
		}
		return rt.NewFloat(f), nil
	case constString:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return rt.Value{}, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return rt.Value{}, err
		}
		return rt.FromEntity(rt.NewStringBytes(world, view, buf)), nil
	default:
		return rt.Value{}, fmt.Errorf("imagefmt: unknown constant tag %d", tag)
	}
}
