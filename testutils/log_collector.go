// Test helpers shared by the libparc test suites.

package libparctestutils

import (
	"bytes"
	"io"
	"testing"
)

// RedirectableLogger is the slice of internal.Logger the collector needs:
// just enough to swap the output writer for the test's duration and put it
// back afterwards.
type RedirectableLogger interface {
	GetOutput() io.Writer
	SetOutput(out io.Writer)
}

// CollectLog routes log's output through (*testing.T).Log until the test
// ends, so a test that exercises logging stays quiet on success and shows
// its log lines attached to the right test on failure. Under -test.v the
// logger's own output is already interleaved with the test output, so the
// redirect is skipped. Restoration is registered with t.Cleanup; there is
// nothing for the caller to undo.
func CollectLog(t *testing.T, log RedirectableLogger) {
	if testing.Verbose() {
		return
	}
	saved := log.GetOutput()
	log.SetOutput(&testLogWriter{t: t})
	t.Cleanup(func() { log.SetOutput(saved) })
}

// testLogWriter adapts (*testing.T).Log to io.Writer, one log record per
// Log call, with the record's own trailing newline dropped since t.Log
// supplies one.
type testLogWriter struct {
	t *testing.T
}

func (w *testLogWriter) Write(buf []byte) (int, error) {
	w.t.Log(string(bytes.TrimRight(buf, "\n")))
	return len(buf), nil
}
