package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"wattsup/internal/diagram"
)

// FormatTakeoff renders the material list as plain text, one item per line,
// suitable for pasting into an estimate.
func FormatTakeoff(entries []diagram.TakeoffEntry) string {
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Item))
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%-*s  %d\n", width, e.Item, e.Quantity)
	}
	return b.String()
}

func joinPaths(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return strings.Join(names, ", ")
}
