// Package xerr implements the error/exception machinery (component H):
// the Kind taxonomy, the Error type the VM records as its last error,
// and a last-error context holder. The script-visible exception object
// itself is built by internal/vm, not here. Grounded on
// original_source/src/uerr.c's UNCIL_ERR_* ranges.
package xerr

import "fmt"

// Kind is the `type` attribute of a thrown exception object, reproduced
// unchanged from spec.md §6's error taxonomy tags: memory, internal,
// unknown, syntax, value, type, key, name, call, interface, require,
// recursion, math, encoding, io, system. KindNone (no error) and two
// VM-bookkeeping kinds that are not themselves exception-type tags —
// KindProgramIncompatible (a program-image load failure, reported as a
// return code rather than a thrown exception) and KindUncaught (marks
// an error as "a script throw that escaped the top frame", wrapping
// whatever Kind the original exception carried) — are kept outside the
// named taxonomy for VM-internal bookkeeping.
type Kind int

const (
	KindNone Kind = iota

	KindMemory    // allocation failure, including emergency-GC-and-retry exhaustion
	KindInternal  // an invariant the VM itself is responsible for was violated
	KindUnknown   // an error with no more specific classification
	KindSyntax    // reserved for a future compiler front-end; unused by the VM itself
	KindValue     // a value is malformed or unusable for the attempted operation
	KindType      // an operand has the wrong type for the operation
	KindKey       // a table/array/blob key or index is invalid
	KindName      // an attribute, global, or module name could not be resolved
	KindCall      // a call's argument count or callee shape is wrong
	KindInterface // a required overload hook is missing or returned the wrong shape
	KindRequire   // module resolution (require()) failed
	KindRecursion // call depth exceeded the view's limit, or the instruction budget ran out
	KindMath      // division by zero, NaN comparison, or another numeric-domain error
	KindEncoding  // malformed UTF-8 or another encoding-domain error
	KindIO        // a host I/O operation failed
	KindSystem    // a host/OS-level operation failed outside of I/O proper

	// Not exception-type tags; see the Kind doc comment above.
	KindProgramIncompatible
	KindUncaught
)

var kindNames = map[Kind]string{
	KindNone:                "none",
	KindMemory:              "memory",
	KindInternal:            "internal",
	KindUnknown:             "unknown",
	KindSyntax:              "syntax",
	KindValue:               "value",
	KindType:                "type",
	KindKey:                 "key",
	KindName:                "name",
	KindCall:                "call",
	KindInterface:           "interface",
	KindRequire:             "require",
	KindRecursion:           "recursion",
	KindMath:                "math",
	KindEncoding:            "encoding",
	KindIO:                  "io",
	KindSystem:              "system",
	KindProgramIncompatible: "program-incompatible",
	KindUncaught:            "uncaught",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Error is a Go error carrying a Kind and, optionally, a script-level
// exception Value (threaded through as `any` to keep xerr independent of
// internal/rt; the VM type-asserts it back to rt.Value).
type Error struct {
	Kind    Kind
	Message string
	Script  any // rt.Value, set when this wraps a thrown script exception
	Stack   []Frame
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds a plain host-raised error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Frame is one entry of a captured call-stack trace: a function name and
// the program-counter offset active when the frame was recorded, mirrors
// original_source/src/uerr.c's Unc_TraceInfo.
type Frame struct {
	Name string
	PC   int
}

// LastErrorContext keeps the most recently raised error available for
// embedder inspection after a call returns a failure code, matching the
// "last error" convention the spec's embedder API documents
// (getexception/exceptiontostring operate on the view's last exception,
// not a value threaded through every call).
type LastErrorContext struct {
	Err *Error
}

// Set records err as the last error.
func (c *LastErrorContext) Set(err *Error) { c.Err = err }

// Clear discards the last error.
func (c *LastErrorContext) Clear() { c.Err = nil }

// OutOfMemory is the pre-allocated exception raised when allocation
// fails even after an emergency collection; it must not itself require
// an allocation to construct or report, so it carries no Script payload
// and no stack trace.
var OutOfMemory = &Error{Kind: KindMemory, Message: "out of memory"}

// StackOverflow is raised when call depth reaches the view's recursion
// limit.
func StackOverflow() *Error { return &Error{Kind: KindRecursion, Message: "recursion too deep"} }
