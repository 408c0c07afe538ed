package vm

import "github.com/hisahi/uncil-go/internal/rt"

// tryHandler is one entry of a frame's exception-handler stack, pushed by
// OpTryPush and consulted by throwing code to find where to resume.
type tryHandler struct {
	targetPC int
	withMark int // View.WithDepth() at push time, for unwind-to-here
	regBase  int // register that receives the caught exception value
}

// Frame is one call's activation record: its own register file, program
// counter, and exception-handler stack. Unlike the teacher's single
// shared linear Memory, each frame owns its registers outright, since
// reference-typed Values need per-slot refcount bookkeeping that a
// shared window would make error-prone across calls.
type Frame struct {
	Fn    rt.Value // the rt.TFunction (or bound function) being run
	Proto *Proto
	Regs  []rt.Value
	PC    int

	handlers []tryHandler

	// Varargs holds extra positional arguments when Proto.Variadic and
	// more arguments were passed than NumParams.
	Varargs []rt.Value

	// iterators maps a register number to the live Iterator created
	// there by OpIterNew, consulted by OpIterNext on the same register.
	iterators map[int32]rt.Iterator

	// lastResults holds the operands of the most recently executed
	// OpReturn, read by the caller once this frame is popped.
	lastResults []rt.Value

	// withMarkAtEntry is View.WithDepth() when the frame was pushed, so a
	// throw that escapes the frame entirely still closes only resources
	// this frame opened.
	withMarkAtEntry int

	// pendingCall records where a bytecode callee pushed by OpCall
	// should deliver its results once it returns; nil when this frame
	// made no such pending call (e.g. it is itself the callee).
	pendingCall *pendingCallInfo
}

func newFrame(fn rt.Value, proto *Proto, args []rt.Value) *Frame {
	f := &Frame{Fn: fn, Proto: proto, Regs: make([]rt.Value, proto.NumRegs)}
	n := proto.NumParams
	for i := 0; i < n && i < len(args); i++ {
		f.Regs[i] = args[i]
	}
	if proto.Variadic && len(args) > n {
		f.Varargs = append([]rt.Value(nil), args[n:]...)
	}
	return f
}

func (f *Frame) pushHandler(targetPC, withMark, regBase int) {
	f.handlers = append(f.handlers, tryHandler{targetPC, withMark, regBase})
}

func (f *Frame) popHandler() (tryHandler, bool) {
	n := len(f.handlers)
	if n == 0 {
		return tryHandler{}, false
	}
	h := f.handlers[n-1]
	f.handlers = f.handlers[:n-1]
	return h, true
}
