package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/statetree/pkg/domain"
	"github.com/aretw0/statetree/pkg/reducer"
)

// TreeOverlay contains live tree data to visualize on the graph.
type TreeOverlay struct {
	Statuses map[string]domain.Status
}

// OverlayFrom builds an overlay from the slot statuses of tree.
func OverlayFrom(tree domain.Tree) *TreeOverlay {
	o := &TreeOverlay{Statuses: make(map[string]domain.Status)}
	for _, k := range tree.SlotKeys() {
		s, _ := tree.Slot(k)
		o.Statuses[k] = s.Status
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a rule table: which
// action kinds drive which slots and flags.
// It applies semantic styling:
// - Slot: [(Cylinder)]
// - Flag: {{Hexagon}}
// - Action: [Rectangle], ignored kinds are stadiums ([ ])
// Reset and flag edges are dotted. Slot statuses from the overlay are
// rendered as classes.
func GenerateMermaid(rules []reducer.Rule, overlay *TreeOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	slots := make(map[string]bool)
	flags := make(map[string]bool)
	for _, r := range rules {
		if r.Slot != "" {
			slots[r.Slot] = true
		}
		for _, s := range r.Resets {
			slots[s] = true
		}
		for f := range r.Flags {
			flags[f] = true
		}
		if r.PayloadFlag != "" {
			flags[r.PayloadFlag] = true
		}
	}

	for _, s := range sortedKeys(slots) {
		sb.WriteString(fmt.Sprintf("    %s[(\"%s\")]\n", slotID(s), s))
	}
	for _, f := range sortedKeys(flags) {
		sb.WriteString(fmt.Sprintf("    %s{{\"%s\"}}\n", flagID(f), f))
	}

	for _, r := range rules {
		id := sanitizeMermaidID(r.Kind)
		if r.Transition == reducer.TransitionIgnore {
			sb.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", id, r.Kind))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, r.Kind))

		if r.Slot != "" {
			arrow := fmt.Sprintf("-- \"%s\" -->", r.Transition)
			if r.Transition == reducer.TransitionReset {
				arrow = fmt.Sprintf("-. \"%s\" .->", r.Transition)
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", id, arrow, slotID(r.Slot)))
		}
		for _, s := range r.Resets {
			sb.WriteString(fmt.Sprintf("    %s -. \"reset\" .-> %s\n", id, slotID(s)))
		}
		for _, f := range sortedKeys(r.Flags) {
			sb.WriteString(fmt.Sprintf("    %s -. \"set\" .-> %s\n", id, flagID(f)))
		}
		if r.PayloadFlag != "" {
			sb.WriteString(fmt.Sprintf("    %s -. \"set\" .-> %s\n", id, flagID(r.PayloadFlag)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast regardless of theme.
		sb.WriteString("    classDef loading fill:#fff9c4,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		sb.WriteString("    classDef success fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef error fill:#ffebee,stroke:#c62828,stroke-width:3px,color:#000;\n")

		for _, s := range sortedKeys(overlay.Statuses) {
			if !slots[s] {
				continue
			}
			switch st := overlay.Statuses[s]; st {
			case domain.StatusLoading, domain.StatusSuccess, domain.StatusError:
				sb.WriteString(fmt.Sprintf("    class %s %s;\n", slotID(s), st))
			}
		}
	}

	return sb.String()
}

func slotID(key string) string { return "slot_" + sanitizeMermaidID(key) }

func flagID(key string) string { return "flag_" + sanitizeMermaidID(key) }

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
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
