package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
)

// ReadSource reads source code from the file named by opt.Src, or from
// stdin if no file was given. kolga runs single-threaded end to end, so
// this just blocks on the read — a caller that wants the `kolga FILENAME`
// contract never hits the stdin path anyway.
func ReadSource(opt Options) (string, error) {
	if opt.Src != "" {
		b, err := os.ReadFile(opt.Src)
		return string(b), err
	}
	b, err := io.ReadAll(os.Stdin)
	return string(b), err
}

// Writer wraps the destination the generated LLVM IR text is written to.
// kolga runs one compilation per process on a single goroutine, so there's
// nothing to fan multiple writers into: WriteString just writes directly.
type Writer struct {
	dst io.Writer
}

// NewWriter returns a Writer over dst. If f is nil, output goes to
// stdout.
func NewWriter(f *os.File) *Writer {
	if f == nil {
		return &Writer{dst: os.Stdout}
	}
	return &Writer{dst: f}
}

// WriteString writes s to the underlying destination.
func (w *Writer) WriteString(s string) error {
	_, err := io.WriteString(w.dst, s)
	return err
}

// ReportDiagnostics prints every error buffered in pe, one per line, to
// stderr. When stderr is a terminal (detected via go-isatty) the errors are
// aligned in a tabwriter table instead of one flat line per error, since
// `line:col: message` diagnostics read better column-aligned in an
// interactive shell than when redirected into a log file.
func ReportDiagnostics(pe *Perror) {
	errs := pe.Errors()
	if len(errs) == 0 {
		return
	}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		w := tabwriter.NewWriter(os.Stderr, 0, 4, 1, ' ', 0)
		for _, e := range errs {
			pos, msg, ok := strings.Cut(e.Error(), ": ")
			if ok {
				fmt.Fprintf(w, "%s:\t%s\n", pos, msg)
			} else {
				fmt.Fprintf(w, "%s\n", e)
			}
		}
		w.Flush()
		return
	}
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e)
	}
}
