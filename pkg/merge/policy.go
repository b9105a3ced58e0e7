package merge

import (
	"reflect"
	"strings"

	"github.com/aretw0/statetree/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Policy combines the prior data of a slot with an incoming value.
type Policy func(prior, incoming any) any

// Replace is the default policy: incoming overwrites prior.
func Replace(_, incoming any) any {
	return domain.Clone(incoming)
}

// Chain applies policies left to right. Each step receives the original
// prior value and the output of the previous step as incoming.
func Chain(policies ...Policy) Policy {
	return func(prior, incoming any) any {
		out := incoming
		for _, p := range policies {
			if p == nil {
				continue
			}
			out = p(prior, out)
		}
		return out
	}
}

// asSequence views v as a list of records. Any slice kind is accepted.
func asSequence(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case []any:
		return x, true
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asRecord views v as a JSON object. Structs are decoded field by field.
func asRecord(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return x, true
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = e
		}
		return out, true
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return nil, false
	}
	var out map[string]any
	if err := mapstructure.Decode(v, &out); err != nil {
		return nil, false
	}
	return out, true
}

// lookup resolves a dotted path ("universeDetails.nodePrefix") in a record.
func lookup(record any, path string) (any, bool) {
	current := record
	for _, part := range strings.Split(path, ".") {
		m, ok := asRecord(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// keepPrior returns a copy of prior data a policy cannot work on, so the
// slot keeps what it had. An absent prior becomes an empty list.
func keepPrior(prior any) any {
	if prior == nil {
		return []any{}
	}
	return domain.Clone(prior)
}

func cloneAll(records []any) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = domain.Clone(r)
	}
	return out
}
