package merge

import (
	"reflect"
)

// FilterRemove drops every prior record whose field equals the incoming
// value. It is used when a success signal names a record that no longer
// exists remotely.
func FilterRemove(field string) Policy {
	return func(prior, incoming any) any {
		records, ok := asSequence(prior)
		if !ok {
			return keepPrior(prior)
		}
		out := make([]any, 0, len(records))
		for _, r := range records {
			v, found := lookup(r, field)
			if found && equalValues(v, incoming) {
				continue
			}
			out = append(out, r)
		}
		return cloneAll(out)
	}
}

// equalValues treats numbers decoded from JSON (float64) and Go integers as
// comparable.
func equalValues(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	return aok && bok && fa == fb
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
