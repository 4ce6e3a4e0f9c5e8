// internal/util/util.go
package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// TruncateToWidth truncates each line of text to width terminal cells,
// appending an ellipsis to lines that were cut. Wide characters count as two
// cells.
func TruncateToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = runewidth.Truncate(line, width, ellipsis)
	}
	return strings.Join(lines, "\n")
}

// PadToWidth right-pads text with spaces to width terminal cells.
func PadToWidth(text string, width int) string {
	return runewidth.FillRight(text, width)
}

// CellWidth returns the number of terminal cells text occupies.
func CellWidth(text string) int {
	return runewidth.StringWidth(text)
}
