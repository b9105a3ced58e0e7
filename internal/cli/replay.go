package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/statetree"
	"github.com/aretw0/statetree/internal/config"
	"github.com/aretw0/statetree/internal/presentation/graph"
	"github.com/aretw0/statetree/internal/presentation/tui"
	"github.com/aretw0/statetree/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Script is a recorded sequence of actions for one area.
//
// Scripts are YAML or JSON. The document is either a mapping with an
// actions list or a bare list of actions.
type Script struct {
	Area    string          `yaml:"area"`
	Session string          `yaml:"session"`
	Actions []domain.Action `yaml:"actions"`
}

// ErrEmptyScript is returned for scripts without actions.
var ErrEmptyScript = errors.New("script has no actions")

// LoadScript reads a script from a file; "-" reads stdin.
func LoadScript(path string, stdin io.Reader) (Script, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return Script{}, fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		r = f
	}
	return ParseScript(r)
}

// ParseScript decodes a script document.
func ParseScript(r io.Reader) (Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read script: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return Script{}, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(node.Content) == 0 {
		return Script{}, ErrEmptyScript
	}

	var s Script
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		err = root.Decode(&s.Actions)
	} else {
		err = root.Decode(&s)
	}
	if err != nil {
		return Script{}, fmt.Errorf("failed to decode script: %w", err)
	}

	if len(s.Actions) == 0 {
		return Script{}, ErrEmptyScript
	}
	for i, a := range s.Actions {
		if a.Kind == "" {
			return Script{}, fmt.Errorf("action %d: kind is required", i+1)
		}
	}
	return s, nil
}

// ReplayOptions controls a replay.
type ReplayOptions struct {
	// Area overrides the script's area.
	Area string
	// Session dispatches into a stored session instead of a fresh tree.
	Session string
	// Steps prints every action and the slots it changed.
	Steps bool
	// Output selects the final report: "table" (default), "json" or "mermaid".
	Output string
}

// Replay applies a script and writes the resulting tree to w.
func Replay(ctx context.Context, cfg config.Config, script Script, opts ReplayOptions, w io.Writer) error {
	logger, err := createLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	engine, backend, err := createEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	return replay(ctx, engine, script, opts, w)
}

func replay(ctx context.Context, engine *statetree.Engine, script Script, opts ReplayOptions, w io.Writer) error {
	area := opts.Area
	if area == "" {
		area = script.Area
	}
	if area == "" {
		return errors.New("no area given: set it in the script or pass --area")
	}
	sessionID := opts.Session
	if sessionID == "" {
		sessionID = script.Session
	}

	printer := tui.NewPrinter(w)
	step := func(i int, a domain.Action, diff *domain.TreeDiff) error {
		if !opts.Steps {
			return nil
		}
		return printer.PrintStep(i+1, a, diff)
	}

	if sessionID == "" {
		tree, err := engine.Initial(area)
		if err != nil {
			return err
		}
		for i, a := range script.Actions {
			next, err := engine.Reduce(ctx, area, tree, a)
			if err != nil {
				return err
			}
			if err := step(i, a, domain.Diff(tree, next)); err != nil {
				return err
			}
			tree = next
		}
		return report(engine, area, area, tree, opts.Output, printer, w)
	}

	var tree domain.Tree
	if _, _, err := engine.Start(ctx, area, sessionID); err != nil {
		return err
	}
	for i, a := range script.Actions {
		res, err := engine.Dispatch(ctx, area, sessionID, a)
		if err != nil {
			return fmt.Errorf("action %d (%s): %w", i+1, a.Kind, err)
		}
		if err := step(i, a, res.Diff); err != nil {
			return err
		}
		tree = res.Tree
	}
	return report(engine, area, area+"/"+sessionID, tree, opts.Output, printer, w)
}

func report(engine *statetree.Engine, area, title string, tree domain.Tree, output string, printer *tui.Printer, w io.Writer) error {
	switch output {
	case "", "table":
		return printer.PrintTree(title, tree)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	case "mermaid":
		r, err := engine.Reducer(area)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, graph.GenerateMermaid(r.Rules(), graph.OverlayFrom(tree)))
		return err
	}
	return fmt.Errorf("unknown output format %q", output)
}
