// Package outwriter renders metric results for the terminal.
package outwriter

import (
	"os"

	"golang.org/x/term"
)

// OutWriter provides a unified interface for all terminal output.
type OutWriter struct {
	// Width overrides terminal width detection when positive.
	Width int

	// UseColors enables ANSI color in tables.
	UseColors bool
}

// NewOutWriter creates an output writer with color on and auto width.
func NewOutWriter() *OutWriter {
	return &OutWriter{UseColors: true}
}

// maxIdentifierWidth calculates how much room identifier columns get,
// based on terminal width.
func (ow *OutWriter) maxIdentifierWidth() int {
	termWidth := ow.Width
	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for the rank, id and count columns plus borders.
	available := termWidth - 30
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}

// truncate shortens a value to fit a table column.
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
