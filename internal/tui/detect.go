// Package tui holds terminal detection and the styles used for human-facing output.
package tui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// plainRequested reports whether the environment asks for undecorated output:
// PGSTAGE_NON_INTERACTIVE=1, CI (common CI/CD convention) or NO_COLOR.
func plainRequested() bool {
	return os.Getenv("PGSTAGE_NON_INTERACTIVE") == "1" ||
		os.Getenv("CI") != "" ||
		os.Getenv("NO_COLOR") != ""
}

// SupportsColor reports whether ANSI colour should be written to w.
// Only *os.File values attached to a terminal qualify.
func SupportsColor(w io.Writer) bool {
	if plainRequested() {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
