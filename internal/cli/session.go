package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/statetree"
	"github.com/aretw0/statetree/internal/config"
	"github.com/aretw0/statetree/internal/presentation/graph"
	"github.com/aretw0/statetree/internal/presentation/tui"
)

// withEngine runs fn against an engine over the configured backend.
func withEngine(cfg config.Config, fn func(*statetree.Engine) error) error {
	logger, err := createLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	engine, backend, err := createEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(engine)
}

// ListSessions prints the stored sessions of one area, or of every area
// when area is empty.
func ListSessions(ctx context.Context, cfg config.Config, area string, w io.Writer) error {
	return withEngine(cfg, func(engine *statetree.Engine) error {
		areas := []string{area}
		if area == "" {
			areas = areas[:0]
			for _, a := range engine.Areas() {
				areas = append(areas, a.Name)
			}
		}

		found := 0
		for _, a := range areas {
			ids, err := engine.List(ctx, a)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if found == 0 {
					fmt.Fprintln(w, "Active Sessions:")
				}
				fmt.Fprintf(w, "- %s/%s\n", a, id)
				found++
			}
		}
		if found == 0 {
			fmt.Fprintln(w, "No active sessions found.")
		}
		return nil
	})
}

// InspectSession prints the tree of a session as a table, JSON or a
// Mermaid graph with the slot statuses overlaid.
func InspectSession(ctx context.Context, cfg config.Config, area, id, output string, w io.Writer) error {
	return withEngine(cfg, func(engine *statetree.Engine) error {
		tree, err := engine.Load(ctx, area, id)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", id, err)
		}

		switch output {
		case "", "table":
			return tui.NewPrinter(w).PrintTree(area+"/"+id, tree)
		case "json":
			data, err := json.MarshalIndent(tree, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling tree: %w", err)
			}
			_, err = fmt.Fprintln(w, string(data))
			return err
		case "mermaid":
			r, err := engine.Reducer(area)
			if err != nil {
				return err
			}
			_, err = io.WriteString(w, graph.GenerateMermaid(r.Rules(), graph.OverlayFrom(tree)))
			return err
		}
		return fmt.Errorf("unknown output format %q", output)
	})
}

// RemoveSessions deletes sessions, reporting each one. It keeps going
// past failures and returns them joined.
func RemoveSessions(ctx context.Context, cfg config.Config, area string, ids []string, w io.Writer) error {
	return withEngine(cfg, func(engine *statetree.Engine) error {
		var errs []error
		for _, id := range ids {
			if err := engine.Delete(ctx, area, id); err != nil {
				fmt.Fprintf(w, "Error removing '%s': %v\n", id, err)
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(w, "Removed session '%s'\n", id)
		}
		return errors.Join(errs...)
	})
}

// ListAreas prints the served areas.
func ListAreas(cfg config.Config, w io.Writer) error {
	return withEngine(cfg, func(engine *statetree.Engine) error {
		for _, a := range engine.Areas() {
			r, err := engine.Reducer(a.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%-10s %3d kinds  %s\n", a.Name, r.Kinds(), a.Description)
		}
		return nil
	})
}

// PrintAreaGraph writes the Mermaid graph of an area's rule table.
func PrintAreaGraph(cfg config.Config, area string, w io.Writer) error {
	return withEngine(cfg, func(engine *statetree.Engine) error {
		r, err := engine.Reducer(area)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, graph.GenerateMermaid(r.Rules(), nil))
		return err
	})
}
