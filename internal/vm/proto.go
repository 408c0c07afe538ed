package vm

import "github.com/hisahi/uncil-go/internal/rt"

// Opcode is the VM's instruction tag. Families are grouped the way the
// teacher's opcode table groups them: loads, stores, binary arithmetic,
// comparisons, unary, control flow, and the container/iterator/exception
// operations the spec's data model requires beyond a plain arithmetic
// VM.
type Opcode uint8

const (
	OpNop Opcode = iota

	// loads / stores
	OpLoadConst // R[A] = K[B]
	OpLoadNull  // R[A] = null
	OpLoadBool  // R[A] = bool(B)
	OpMove      // R[A] = R[B]
	OpGetUpval  // R[A] = upvalue[B]
	OpSetUpval  // upvalue[B] = R[A]
	OpGetGlobal // R[A] = World.Public[K[B].(string)]
	OpSetGlobal // World.Public[K[B].(string)] = R[A]

	// arithmetic / bitwise / comparison (R[A] = R[B] op R[C])
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
	OpBAnd
	OpBOr
	OpBXor
	OpShl
	OpShr
	OpEq
	OpLt
	OpLe
	OpConcat

	// unary (R[A] = op R[B])
	OpNeg
	OpNot
	OpBNot

	// containers
	OpNewArray  // R[A] = array{R[B]..R[B+C-1]}
	OpNewTable  // R[A] = table{}
	OpNewObject // R[A] = object(proto=R[B])
	OpGetIndex  // R[A] = R[B][R[C]]
	OpSetIndex  // R[A][R[B]] = R[C]
	OpDelIndex  // delete R[A][R[B]]
	OpGetAttr   // R[A] = R[B].K[C].(string)
	OpSetAttr   // R[A].K[B].(string) = R[C]
	OpDelAttr   // delete R[A].K[B].(string)

	// control flow
	OpJump       // PC += sBx
	OpJumpIfTrue // if R[A] then PC += sBx
	OpJumpIfFalse

	// calls
	OpCall     // R[A..A+C-1] = R[A](R[A+1]..R[A+B])
	OpTailCall // same, but replaces the current frame instead of pushing
	OpReturn   // return R[A..A+B-1]

	// iterators
	OpIterNew  // R[A] = iterator(R[B])
	OpIterNext // R[A], R[A+1] = next(R[B]); PC += sBx if exhausted

	// exceptions / resources
	OpTryPush  // push an exception handler targeting PC+sBx
	OpTryPop   // pop the innermost exception handler
	OpThrow    // throw R[A]
	OpWithOpen // R[A] = open(R[B]); push with-mark
	OpWithClose // close and pop the innermost with-mark

	OpCheckPause // yield control back to the host if a pause was requested
	OpHalt
)

// Instr is one decoded instruction. internal/imagefmt's Load turns a
// program image's packed byte form into a []Instr; the VM only ever
// executes this form.
type Instr struct {
	Op   Opcode
	A, B, C int32
}

// Proto is a compiled function body: its instruction stream, constant
// pool, and calling-convention metadata. It is the concrete type behind
// rt.Function.Code for bytecode functions.
type Proto struct {
	Name      string
	Code      []Instr
	Consts    []rt.Value
	NumRegs   int
	NumParams int
	Variadic  bool

	// UpvalNames documents closed-over slots for debugging; the actual
	// upvalue cells live in the rt.Function.Upvalues slice.
	UpvalNames []string
}
