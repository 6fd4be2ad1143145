package formatter

import (
	"strconv"
	"strings"
)

// RenderProgress draws percent as a bar of width cells followed by the
// right-aligned number, e.g. "[████░░░░]  45%". Out of range values are
// clamped and width is at least 2.
func RenderProgress(percent, width int) string {
	percent = min(max(percent, 0), 100)
	width = max(width, 2)
	cells := percent * width / 100

	style := StyleYellow
	if percent == 0 {
		style = StyleDim
	} else if percent == 100 {
		style = StyleGreen
	}
	bar := style.Render(strings.Repeat("█", cells) + strings.Repeat("░", width-cells))
	num := strconv.Itoa(percent) + "%"
	return "[" + bar + "] " + strings.Repeat(" ", 4-len(num)) + num
}
