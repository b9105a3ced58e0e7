package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/statetree/pkg/domain"
	"github.com/aretw0/statetree/pkg/ports"
)

// Mask replaces the values of sensitive fields.
const Mask = "***"

type maskingMiddleware struct {
	next     ports.TreeStore
	patterns []*regexp.Regexp
}

// NewMaskingMiddleware creates a middleware that masks, before saving,
// the values of record fields whose name matches one of the patterns.
// Slot data, failure details and flags are walked recursively. Masking is
// one way: loaded trees carry the mask.
func NewMaskingMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.TreeStore) ports.TreeStore {
		return &maskingMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *maskingMiddleware) Save(ctx context.Context, sessionID string, tree domain.Tree) error {
	masked := tree.Rewrite(
		func(_ string, s domain.Slot) domain.Slot {
			s.Data = m.mask(s.Data)
			if s.Error != nil {
				f := *s.Error
				f.Detail = m.mask(f.Detail)
				s.Error = &f
			}
			return s
		},
		func(_ string, v any) any { return m.mask(v) },
	)
	return m.next.Save(ctx, sessionID, masked)
}

func (m *maskingMiddleware) Load(ctx context.Context, sessionID string) (domain.Tree, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *maskingMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *maskingMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// mask returns a masked deep copy of v; v itself is left untouched.
func (m *maskingMiddleware) mask(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			if m.sensitive(k) {
				out[k] = Mask
				continue
			}
			out[k] = m.mask(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = m.mask(e)
		}
		return out
	default:
		c := domain.Clone(v)
		switch c.(type) {
		case map[string]any, []any:
			return m.mask(c)
		}
		return c
	}
}

func (m *maskingMiddleware) sensitive(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
