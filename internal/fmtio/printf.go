// Package fmtio implements the printf/scanf-style formatting component
// (component E), grounded on original_source/src/uvsio.c's verb table:
// %d %i %u %x %X %o %c %s %p %e %f %g with the usual width/precision/
// flag/length-modifier grammar, operating over rt.Values rather than a
// varargs C call. Scanf mirrors uvsio.c's unc0_sxscanf entry point the
// same way: a format string drives consumption of an input buffer
// instead of producing one.
package fmtio

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/hisahi/uncil-go/internal/heapalloc"
	"github.com/hisahi/uncil-go/internal/rt"
)

// ByteSink receives formatted output a chunk at a time; Printf accepts
// one so callers can target a Strbuf, a view's standard output, or any
// other io.Writer-like destination without fmtio depending on io itself.
type ByteSink interface {
	Write(p []byte) (int, error)
}

// verbSpec is one parsed %-directive: its flags, width, precision, and
// conversion character.
type verbSpec struct {
	leftAlign  bool
	plusSign   bool
	spaceSign  bool
	zeroPad    bool
	alternate  bool
	width      int
	hasWidth   bool
	precision  int
	hasPrec    bool
	verb       byte
}

// Printf renders format against args, writing to sink. It returns the
// number of args consumed and an error for a malformed directive or an
// argument of the wrong type for its verb (matching the spec's ARG_*
// error taxonomy, surfaced here as a plain error for the VM to wrap).
func Printf(sink ByteSink, format string, args []rt.Value) (int, error) {
	var out strings.Builder
	argi := 0
	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			out.WriteByte(c)
			i++
			continue
		}
		spec, n, err := parseVerb(format[i:])
		if err != nil {
			return argi, err
		}
		i += n
		if spec.verb == '%' {
			out.WriteByte('%')
			continue
		}
		if argi >= len(args) {
			return argi, fmt.Errorf("fmtio: not enough arguments for format %q", format)
		}
		rendered, err := renderVerb(spec, args[argi])
		if err != nil {
			return argi, err
		}
		argi++
		out.WriteString(rendered)
	}
	if _, err := sink.Write([]byte(out.String())); err != nil {
		return argi, err
	}
	return argi, nil
}

// Sprintf is Printf into a fresh Strbuf, returning the accumulated text.
func Sprintf(alloc *heapalloc.Allocator, format string, args []rt.Value) (string, error) {
	buf := heapalloc.NewStrbuf(alloc)
	if _, err := Printf(sinkFunc(func(p []byte) (int, error) {
		return len(p), buf.Append(p...)
	}), format, args); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type sinkFunc func(p []byte) (int, error)

func (f sinkFunc) Write(p []byte) (int, error) { return f(p) }

func parseVerb(s string) (verbSpec, int, error) {
	// s[0] == '%'
	i := 1
	var spec verbSpec
	for i < len(s) {
		switch s[i] {
		case '-':
			spec.leftAlign = true
		case '+':
			spec.plusSign = true
		case ' ':
			spec.spaceSign = true
		case '0':
			spec.zeroPad = true
		case '#':
			spec.alternate = true
		default:
			goto flagsDone
		}
		i++
	}
flagsDone:
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > start {
		spec.width, _ = strconv.Atoi(s[start:i])
		spec.hasWidth = true
	}
	if i < len(s) && s[i] == '.' {
		i++
		start = i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		spec.precision, _ = strconv.Atoi(s[start:i])
		spec.hasPrec = true
	}
	// length modifiers (l, ll, h) are accepted and ignored: this runtime
	// has exactly one integer width.
	for i < len(s) && (s[i] == 'l' || s[i] == 'h') {
		i++
	}
	if i >= len(s) {
		return spec, i, fmt.Errorf("fmtio: truncated format directive")
	}
	spec.verb = s[i]
	i++
	return spec, i, nil
}

func renderVerb(spec verbSpec, arg rt.Value) (string, error) {
	var body string
	switch spec.verb {
	case 'd', 'i':
		n, err := intArg(arg)
		if err != nil {
			return "", err
		}
		body = signedDecimal(n, spec)
	case 'u':
		n, err := intArg(arg)
		if err != nil {
			return "", err
		}
		body = strconv.FormatUint(uint64(n), 10)
	case 'x':
		n, err := intArg(arg)
		if err != nil {
			return "", err
		}
		body = strconv.FormatUint(uint64(n), 16)
		if spec.alternate && n != 0 {
			body = "0x" + body
		}
	case 'X':
		n, err := intArg(arg)
		if err != nil {
			return "", err
		}
		body = strings.ToUpper(strconv.FormatUint(uint64(n), 16))
		if spec.alternate && n != 0 {
			body = "0X" + body
		}
	case 'o':
		n, err := intArg(arg)
		if err != nil {
			return "", err
		}
		body = strconv.FormatUint(uint64(n), 8)
	case 'c':
		n, err := intArg(arg)
		if err != nil {
			return "", err
		}
		body = string(rune(n))
	case 's':
		body = rt.ToDisplayString(arg)
		if spec.hasPrec && spec.precision < len(body) {
			body = body[:spec.precision]
		}
	case 'p':
		if arg.Type == rt.TOpaquePtr {
			body = fmt.Sprintf("%p", arg.P)
		} else {
			body = fmt.Sprintf("%p", arg.E)
		}
	case 'e', 'f', 'g':
		f, err := floatArg(arg)
		if err != nil {
			return "", err
		}
		prec := 6
		if spec.hasPrec {
			prec = spec.precision
		}
		body = strconv.FormatFloat(f, spec.verb, prec, 64)
		if spec.plusSign && f >= 0 {
			body = "+" + body
		}
	default:
		return "", fmt.Errorf("fmtio: unknown format verb %q", spec.verb)
	}
	return pad(body, spec), nil
}

func signedDecimal(n int64, spec verbSpec) string {
	s := strconv.FormatInt(n, 10)
	if n >= 0 {
		if spec.plusSign {
			s = "+" + s
		} else if spec.spaceSign {
			s = " " + s
		}
	}
	return s
}

func pad(body string, spec verbSpec) string {
	if !spec.hasWidth || len(body) >= spec.width {
		return body
	}
	fill := byte(' ')
	if spec.zeroPad && !spec.leftAlign {
		fill = '0'
	}
	padding := strings.Repeat(string(fill), spec.width-len(body))
	if spec.leftAlign {
		return body + strings.Repeat(" ", spec.width-len(body))
	}
	if fill == '0' && len(body) > 0 && (body[0] == '-' || body[0] == '+') {
		return body[:1] + padding + body[1:]
	}
	return padding + body
}

func intArg(v rt.Value) (int64, error) {
	switch v.Type {
	case rt.TInt:
		return v.I, nil
	case rt.TBool:
		return v.I, nil
	case rt.TFloat:
		return int64(v.F), nil
	default:
		return 0, fmt.Errorf("fmtio: expected an integer argument, got %s", v.TypeName())
	}
}

func floatArg(v rt.Value) (float64, error) {
	switch v.Type {
	case rt.TFloat:
		return v.F, nil
	case rt.TInt:
		return float64(v.I), nil
	default:
		return 0, fmt.Errorf("fmtio: expected a numeric argument, got %s", v.TypeName())
	}
}

// Scanf parses input against format, producing one rt.Value per
// directive converted (%s allocates a fresh string entity via world/
// view, the rest are ints or floats). It stops at the first directive
// it cannot satisfy and returns the values converted so far alongside
// the error, matching scanf's "assignments made" convention rather than
// discarding partial progress.
func Scanf(world *rt.World, view *rt.View, input, format string) ([]rt.Value, error) {
	var results []rt.Value
	ip, fp := 0, 0
	for fp < len(format) {
		c := format[fp]
		if c != '%' {
			if unicode.IsSpace(rune(c)) {
				for fp < len(format) && unicode.IsSpace(rune(format[fp])) {
					fp++
				}
				for ip < len(input) && unicode.IsSpace(rune(input[ip])) {
					ip++
				}
				continue
			}
			if ip >= len(input) || input[ip] != c {
				return results, fmt.Errorf("fmtio: input does not match literal %q at offset %d", c, ip)
			}
			ip++
			fp++
			continue
		}
		spec, n, err := parseVerb(format[fp:])
		if err != nil {
			return results, err
		}
		fp += n
		if spec.verb == '%' {
			if ip >= len(input) || input[ip] != '%' {
				return results, fmt.Errorf("fmtio: expected literal %% at offset %d", ip)
			}
			ip++
			continue
		}
		if spec.verb != 'c' {
			for ip < len(input) && unicode.IsSpace(rune(input[ip])) {
				ip++
			}
		}
		val, consumed, err := scanOne(world, view, spec, input[ip:])
		if err != nil {
			return results, err
		}
		ip += consumed
		results = append(results, val)
	}
	return results, nil
}

// scanOne converts a single directive starting at s, returning the
// value produced and the number of input bytes consumed.
func scanOne(world *rt.World, view *rt.View, spec verbSpec, s string) (rt.Value, int, error) {
	switch spec.verb {
	case 'c':
		if len(s) == 0 {
			return rt.Value{}, 0, fmt.Errorf("fmtio: expected a character, got end of input")
		}
		return rt.NewInt(int64(s[0])), 1, nil
	case 'd', 'i', 'u':
		i := 0
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' && (!spec.hasWidth || i < spec.width) {
			i++
		}
		if i == start {
			return rt.Value{}, 0, fmt.Errorf("fmtio: expected an integer, got %q", s)
		}
		n, err := strconv.ParseInt(s[:i], 10, 64)
		if err != nil {
			return rt.Value{}, 0, fmt.Errorf("fmtio: malformed integer %q: %w", s[:i], err)
		}
		return rt.NewInt(n), i, nil
	case 'x', 'X':
		i := 0
		for i < len(s) && isHexDigit(s[i]) && (!spec.hasWidth || i < spec.width) {
			i++
		}
		if i == 0 {
			return rt.Value{}, 0, fmt.Errorf("fmtio: expected a hex integer, got %q", s)
		}
		n, err := strconv.ParseUint(s[:i], 16, 64)
		if err != nil {
			return rt.Value{}, 0, fmt.Errorf("fmtio: malformed hex integer %q: %w", s[:i], err)
		}
		return rt.NewInt(int64(n)), i, nil
	case 'o':
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '7' && (!spec.hasWidth || i < spec.width) {
			i++
		}
		if i == 0 {
			return rt.Value{}, 0, fmt.Errorf("fmtio: expected an octal integer, got %q", s)
		}
		n, err := strconv.ParseUint(s[:i], 8, 64)
		if err != nil {
			return rt.Value{}, 0, fmt.Errorf("fmtio: malformed octal integer %q: %w", s[:i], err)
		}
		return rt.NewInt(int64(n)), i, nil
	case 'e', 'f', 'g':
		i := 0
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i < len(s) && s[i] == '.' {
			i++
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				i++
			}
		}
		if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
			j := i + 1
			if j < len(s) && (s[j] == '+' || s[j] == '-') {
				j++
			}
			start := j
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			if j > start {
				i = j
			}
		}
		if i == 0 {
			return rt.Value{}, 0, fmt.Errorf("fmtio: expected a float, got %q", s)
		}
		f, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return rt.Value{}, 0, fmt.Errorf("fmtio: malformed float %q: %w", s[:i], err)
		}
		return rt.NewFloat(f), i, nil
	case 's':
		i := 0
		for i < len(s) && !unicode.IsSpace(rune(s[i])) && (!spec.hasWidth || i < spec.width) {
			i++
		}
		if i == 0 {
			return rt.Value{}, 0, fmt.Errorf("fmtio: expected a word, got end of input")
		}
		return rt.FromEntity(rt.NewString(world, view, s[:i])), i, nil
	default:
		return rt.Value{}, 0, fmt.Errorf("fmtio: unknown scan verb %q", spec.verb)
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
