package cmd

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/Y4rd13/rippermod-manager-sub000/internal/model"
)

// colorEnabled is decided once at process start: stdout must be an
// interactive terminal, not a pipe or redirected file, for ANSI escapes to
// make sense.
var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

const (
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiReset  = "\033[0m"
)

func colorize(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + ansiReset
}

// severityColor renders a severity label in red/yellow/cyan for
// high/medium/low when stdout is a terminal, plain otherwise.
func severityColor(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return colorize(ansiRed, string(s))
	case model.SeverityMedium:
		return colorize(ansiYellow, string(s))
	default:
		return colorize(ansiCyan, string(s))
	}
}
