// Package terminal provides the interactive prompts used by login and the
// helpers that tidy them away afterwards.
package terminal

import (
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/term"
)

// width returns the terminal width of stdout, 80 when unavailable.
func width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// linesFor returns how many terminal rows a prompt plus answer occupied,
// including the empty row left by Enter.
func linesFor(textLength, termWidth int) int {
	if termWidth <= 0 {
		termWidth = 80
	}
	total := int(math.Ceil(float64(textLength) / float64(termWidth)))
	if total < 1 {
		total = 1
	}
	return total + 1
}

// ClearPreviousLines clears text from the terminal that was previously printed.
// textLength is the number of characters in the prompt plus the user input.
func ClearPreviousLines(w io.Writer, textLength int) {
	n := linesFor(textLength, width())
	for i := 0; i < n; i++ {
		fmt.Fprint(w, "\r\x1b[2K") // Move to start and clear entire line
		if i < n-1 {
			fmt.Fprint(w, "\x1b[1A") // Move up one line (don't move up on last iteration)
		}
	}
}
