package merge

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/statetree/pkg/domain"
)

// AppendDedup accumulates list items discovered across repeated fetches.
//
// The result is prior followed by every incoming record whose identity
// (the value at the identity path) is not already present. Identities are
// compared by content, so object valued keys work. Prior order and
// incoming order are both preserved. Incoming records without an identity
// are dropped, and incoming values that are not lists contribute nothing.
func AppendDedup(identity string) Policy {
	return func(prior, incoming any) any {
		base, ok := asSequence(prior)
		if !ok {
			base = nil
		}
		out := cloneAll(base)

		tail, ok := asSequence(incoming)
		if !ok {
			return out
		}

		seen := make(map[string]struct{}, len(base)+len(tail))
		for _, r := range base {
			if key, ok := identityOf(r, identity); ok {
				seen[key] = struct{}{}
			}
		}
		for _, r := range tail {
			key, ok := identityOf(r, identity)
			if !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, domain.Clone(r))
		}
		return out
	}
}

// identityOf renders the identity value canonically. encoding/json sorts
// map keys, so equal objects render equal.
func identityOf(record any, path string) (string, bool) {
	v, ok := lookup(record, path)
	if !ok || v == nil {
		return "", false
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v), true
	}
	return string(data), true
}
