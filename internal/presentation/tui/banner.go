package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the statetree banner and version to w. Colours are
// dropped when w is not a terminal.
func PrintBanner(w io.Writer, version string) {
	p := termenv.Ascii
	if IsTerminal(w) {
		p = termenv.NewOutput(w).EnvColorProfile()
	}
	// Indigo to rose, one shade per line.
	lines := []struct{ text, color string }{
		{"      _        _       _                 ", "#818cf8"},
		{"  ___| |_ __ _| |_ ___| |_ _ __ ___  ___ ", "#a78bfa"},
		{" / __| __/ _` | __/ _ \\ __| '__/ _ \\/ _ \\", "#c084fc"},
		{" \\__ \\ || (_| | ||  __/ |_| | |  __/  __/", "#e879f9"},
		{" |___/\\__\\__,_|\\__\\___|\\__|_|  \\___|\\___|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  v"+version).Foreground(p.Color("#fb7185")))
	fmt.Fprintln(w)
}
