package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	return &Logger{out: buf, minLevel: LvlDebug}
}

func TestLogIncludesLevelMessageAndKeyvals(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Info("view opened", "id", 3, "recursionLimit", 500)

	line := buf.String()
	require.Contains(t, line, "[INFO ]")
	require.Contains(t, line, "view opened")
	require.Contains(t, line, "id=3")
	require.Contains(t, line, "recursionLimit=500")
}

func TestSetLevelDropsBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.SetLevel(LvlWarn)

	l.Debug("should not appear")
	l.Info("also should not appear")
	l.Warn("this one appears")

	out := buf.String()
	require.NotContains(t, out, "should not appear")
	require.Contains(t, out, "this one appears")
}

func TestWithAttachesContextToEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(&buf)
	child := base.With("module", "math")

	child.Info("loaded")
	child.Warn("slow compile")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		require.Contains(t, line, "module=math")
	}
}

func TestErrorRecordIncludesCallsite(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Error("uncaught exception", "kind", "type")

	require.Contains(t, buf.String(), "caller=")
}

func TestDebugDumpIncludesStructuredValue(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.DebugDump("frame snapshot", struct{ PC int }{PC: 7})

	out := buf.String()
	require.Contains(t, out, "frame snapshot")
	require.Contains(t, out, "PC:")
}
