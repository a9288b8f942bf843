package engine

import (
	"strconv"
	"strings"

	"github.com/aledsdavies/shellvm/pkgs/interp"
)

// Result is what Engine.Run returns: the captured stdout/stderr of the
// whole program and its final exit code. It is a thin, JSON-taggable
// wrapper around interp.Result so callers embedding this engine in a
// larger host don't need to import pkgs/interp themselves.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

func resultFromInterp(r *interp.Result) *Result {
	return &Result{Stdout: string(r.Stdout), Stderr: string(r.Stderr), ExitCode: r.ExitCode}
}

// Summary renders a short human-readable report, in the same
// "label: value" line style as the commands this engine replaces used for
// their own execution summaries.
func (r *Result) Summary() string {
	var sb strings.Builder
	sb.WriteString("Execution Summary:\n")
	sb.WriteString("  exit_code: ")
	if r.ExitCode == 0 {
		sb.WriteString("0 (success)\n")
	} else {
		sb.WriteString(strconv.Itoa(r.ExitCode) + " (failed)\n")
	}
	if r.Stdout != "" {
		sb.WriteString("  stdout:\n")
		for _, line := range strings.Split(strings.TrimRight(r.Stdout, "\n"), "\n") {
			sb.WriteString("    " + line + "\n")
		}
	}
	if r.Stderr != "" {
		sb.WriteString("  stderr:\n")
		for _, line := range strings.Split(strings.TrimRight(r.Stderr, "\n"), "\n") {
			sb.WriteString("    " + line + "\n")
		}
	}
	return sb.String()
}

// HasErrors reports whether the program's final exit code was non-zero.
func (r *Result) HasErrors() bool { return r.ExitCode != 0 }
