package util

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// DisplayWidth returns the terminal cell width of text, counting wide
// runes as two cells.
func DisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadRight pads text with spaces up to width display cells.
func PadRight(text string, width int) string {
	gap := width - DisplayWidth(text)
	if gap <= 0 {
		return text
	}
	return text + strings.Repeat(" ", gap)
}

// TerminalWidth returns the current terminal width, or 80 when stdout
// is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
