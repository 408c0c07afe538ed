// Package log is the structured, level-based logger the embedder
// façade (uncil.go) uses for diagnostic output: runtime creation and
// view open/close. The GC, module loader and VM do not log. It
// follows go-ethereum's log package idiom: leveled calls taking a
// message plus alternating key/value pairs, colorized when the output
// is a terminal (github.com/mattn/go-colorable, github.com/mattn/go-isatty)
// and annotated with the call site (github.com/go-stack/stack) for
// Error and Crit records, where knowing exactly which internal
// operation raised the fault matters.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level is a log record's severity, ordered least to most severe.
type Level int

const (
	LvlDebug Level = iota
	LvlInfo
	LvlWarn
	LvlError
	LvlCrit
)

func (l Level) String() string {
	switch l {
	case LvlDebug:
		return "DEBUG"
	case LvlInfo:
		return "INFO"
	case LvlWarn:
		return "WARN"
	case LvlError:
		return "ERROR"
	case LvlCrit:
		return "CRIT"
	default:
		return "?????"
	}
}

var levelColor = map[Level]string{
	LvlDebug: "\x1b[90m",
	LvlInfo:  "\x1b[32m",
	LvlWarn:  "\x1b[33m",
	LvlError: "\x1b[31m",
	LvlCrit:  "\x1b[35m",
}

const colorReset = "\x1b[0m"

// Logger emits leveled, key-valued records to an underlying writer,
// optionally colorized. The zero Logger is not usable; use New or the
// package-level Root.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	color    bool
	minLevel Level
	ctx      []any // key/value pairs attached to every record this Logger emits
}

// New creates a Logger writing to out. If out is a terminal (detected
// via go-isatty), records are colorized by level and out is wrapped
// with go-colorable so ANSI codes render correctly on Windows consoles
// too; otherwise output is plain text suitable for log aggregation.
func New(out *os.File) *Logger {
	isTerm := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
	var w io.Writer = out
	if isTerm {
		w = colorable.NewColorable(out)
	}
	return &Logger{out: w, color: isTerm, minLevel: LvlDebug}
}

// Root is the default Logger, writing to stderr.
var Root = New(os.Stderr)

// SetLevel sets the minimum level Root emits; records below it are
// dropped without formatting cost beyond the level comparison.
func SetLevel(lvl Level) { Root.SetLevel(lvl) }

// SetLevel sets l's minimum emitted level.
func (l *Logger) SetLevel(lvl Level) {
	l.mu.Lock()
	l.minLevel = lvl
	l.mu.Unlock()
}

// With returns a child Logger that prepends ctx (alternating key/value
// pairs) to every record it emits, in addition to this Logger's own
// context. Used to thread a view ID or module name through a sequence
// of related log calls without repeating it at every call site.
func (l *Logger) With(ctx ...any) *Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &Logger{out: l.out, color: l.color, minLevel: l.minLevel, ctx: merged}
}

func (l *Logger) log(lvl Level, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lvl < l.minLevel {
		return
	}

	var callsite string
	if lvl >= LvlError {
		if frames := stack.Trace().TrimRuntime(); len(frames) > 2 {
			callsite = fmt.Sprintf(" caller=%+v", frames[2])
		}
	}

	ts := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	prefix, suffix := "", ""
	if l.color {
		prefix, suffix = levelColor[lvl], colorReset
	}
	fmt.Fprintf(l.out, "%s%s [%-5s]%s %s%s", prefix, ts, lvl, suffix, msg, callsite)
	for _, pairs := range [][]any{l.ctx, kv} {
		for i := 0; i+1 < len(pairs); i += 2 {
			fmt.Fprintf(l.out, " %v=%v", pairs[i], pairs[i+1])
		}
	}
	fmt.Fprintln(l.out)
}

// Debug logs a low-level trace record (register state, opcode
// dispatch) not normally wanted outside active VM debugging.
func (l *Logger) Debug(msg string, kv ...any) { l.log(LvlDebug, msg, kv) }

// Info logs a routine lifecycle record (view opened, module compiled).
func (l *Logger) Info(msg string, kv ...any) { l.log(LvlInfo, msg, kv) }

// Warn logs a recovered-but-noteworthy condition (GC pass approached
// its recursion bound, a require() search path missed a module before
// falling through to builtins).
func (l *Logger) Warn(msg string, kv ...any) { l.log(LvlWarn, msg, kv) }

// Error logs a fault that aborted the current operation but left the
// World consistent (an uncaught script exception, a malformed image).
func (l *Logger) Error(msg string, kv ...any) { l.log(LvlError, msg, kv) }

// Crit logs a fault that leaves the World's invariants in question
// (entity manager corruption, an impossible GC state). Callers
// typically follow a Crit with a panic or process exit.
func (l *Logger) Crit(msg string, kv ...any) { l.log(LvlCrit, msg, kv) }

// DebugDump logs msg at debug level followed by a full recursive dump
// of val (github.com/davecgh/go-spew), for the rare case a single-line
// key/value record can't show enough of a container's structure to
// diagnose a VM or entity-manager bug.
func (l *Logger) DebugDump(msg string, val any) {
	l.Debug(msg)
	l.mu.Lock()
	defer l.mu.Unlock()
	if LvlDebug >= l.minLevel {
		spew.Fdump(l.out, val)
	}
}

func Debug(msg string, kv ...any) { Root.Debug(msg, kv...) }
func Info(msg string, kv ...any)  { Root.Info(msg, kv...) }
func Warn(msg string, kv ...any)  { Root.Warn(msg, kv...) }
func Error(msg string, kv ...any) { Root.Error(msg, kv...) }
func Crit(msg string, kv ...any)  { Root.Crit(msg, kv...) }
