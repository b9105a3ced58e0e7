package tui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/statetree/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Printer writes trees and replay steps. On a terminal it renders
// markdown and colours statuses; otherwise it writes plain text.
type Printer struct {
	out     io.Writer
	render  func(string) (string, error)
	profile termenv.Profile
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer) *Printer {
	p := &Printer{out: w, profile: termenv.Ascii}
	if IsTerminal(w) {
		if render, err := NewRenderer(); err == nil {
			p.render = render
		}
		p.profile = termenv.NewOutput(w).EnvColorProfile()
	}
	return p
}

// PrintTree writes a tree as a markdown report.
func (p *Printer) PrintTree(title string, tree domain.Tree) error {
	md := TreeMarkdown(title, tree)
	if p.render != nil {
		out, err := p.render(md)
		if err == nil {
			md = out
		}
	}
	_, err := io.WriteString(p.out, md)
	return err
}

// PrintStep writes one line per slot changed by the n-th action.
func (p *Printer) PrintStep(n int, action domain.Action, diff *domain.TreeDiff) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%3d  %s\n", n, action.Kind)
	if diff == nil {
		fmt.Fprintf(&sb, "     %s\n", p.profile.String("(no change)").Faint())
	} else {
		for _, key := range sortedKeys(diff.Slots) {
			slot := diff.Slots[key]
			line := fmt.Sprintf("     %s -> %s", key, p.Status(slot.Status))
			if slot.Error != nil {
				line += ": " + slot.Error.Message
			}
			sb.WriteString(line + "\n")
		}
		for _, key := range sortedKeys(diff.Flags) {
			fmt.Fprintf(&sb, "     %s = %v\n", key, diff.Flags[key])
		}
	}
	_, err := io.WriteString(p.out, sb.String())
	return err
}

// Status returns the status label coloured for the printer's profile.
func (p *Printer) Status(s domain.Status) string {
	return StatusLabel(p.profile, s)
}

// StatusLabel colours a status: loading yellow, success green, error red.
func StatusLabel(profile termenv.Profile, s domain.Status) string {
	label := profile.String(string(s))
	switch s {
	case domain.StatusLoading:
		return label.Foreground(profile.Color("#fbbf24")).String()
	case domain.StatusSuccess:
		return label.Foreground(profile.Color("#34d399")).String()
	case domain.StatusError:
		return label.Foreground(profile.Color("#f87171")).Bold().String()
	}
	return label.Foreground(profile.Color("#9ca3af")).String()
}

// TreeMarkdown formats a tree as a markdown document with a slot table
// and a flag table.
func TreeMarkdown(title string, tree domain.Tree) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "Revision %d\n\n", tree.Revision())

	sb.WriteString("| Slot | Status | Data | Error |\n")
	sb.WriteString("|------|--------|------|-------|\n")
	for _, key := range tree.SlotKeys() {
		slot, _ := tree.Slot(key)
		errMsg := ""
		if slot.Error != nil {
			errMsg = slot.Error.Message
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", key, slot.Status, Summarize(slot.Data), cell(errMsg))
	}

	if keys := tree.FlagKeys(); len(keys) > 0 {
		sb.WriteString("\n| Flag | Value |\n")
		sb.WriteString("|------|-------|\n")
		for _, key := range keys {
			v, _ := tree.Flag(key)
			fmt.Fprintf(&sb, "| %s | %s |\n", key, Summarize(v))
		}
	}
	return sb.String()
}

// Summarize describes slot data in a few words.
func Summarize(v any) string {
	switch d := v.(type) {
	case nil:
		return "-"
	case []any:
		return fmt.Sprintf("%d items", len(d))
	case map[string]any:
		if t, ok := d["type"].(string); ok {
			return fmt.Sprintf("%s (%d fields)", t, len(d))
		}
		return fmt.Sprintf("%d fields", len(d))
	case string:
		return cell(d)
	}
	return cell(fmt.Sprint(v))
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
