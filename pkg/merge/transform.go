package merge

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/statetree/pkg/domain"
)

// SortBy replaces prior with incoming ordered by a string field. Records
// lacking the field sort first; the sort is stable.
func SortBy(field string) Policy {
	return func(_, incoming any) any {
		records, ok := asSequence(incoming)
		if !ok {
			return domain.Clone(incoming)
		}
		out := cloneAll(records)
		sort.SliceStable(out, func(i, j int) bool {
			return stringField(out[i], field) < stringField(out[j], field)
		})
		return out
	}
}

// Tagged wraps incoming as {"type": tag, "response": incoming}, the shape
// used by multi-stage flows that share one slot.
func Tagged(tag string) Policy {
	return func(_, incoming any) any {
		return map[string]any{
			"type":     tag,
			"response": domain.Clone(incoming),
		}
	}
}

var instanceSize = regexp.MustCompile(`^(\d*)x?large$`)

var namedSizes = map[string]int{
	"nano":   1,
	"micro":  2,
	"small":  3,
	"medium": 4,
}

// SortInstanceTypes orders instance types ("c5.2xlarge") by family, then
// by size, so that nano < micro < small < medium < large < xlarge <
// 2xlarge < ... Records lacking the code keep their relative order at the
// end.
func SortInstanceTypes(codeField string) Policy {
	return func(_, incoming any) any {
		records, ok := asSequence(incoming)
		if !ok {
			return domain.Clone(incoming)
		}
		out := cloneAll(records)
		sort.SliceStable(out, func(i, j int) bool {
			fi, si, oki := splitInstanceCode(stringField(out[i], codeField))
			fj, sj, okj := splitInstanceCode(stringField(out[j], codeField))
			if oki != okj {
				return oki
			}
			if fi != fj {
				return fi < fj
			}
			return si < sj
		})
		return out
	}
}

func splitInstanceCode(code string) (family string, rank int, ok bool) {
	if code == "" {
		return "", 0, false
	}
	family, size, found := strings.Cut(code, ".")
	if !found {
		return code, 0, true
	}
	if r, ok := namedSizes[size]; ok {
		return family, r, true
	}
	if m := instanceSize.FindStringSubmatch(size); m != nil {
		switch {
		case size == "large":
			return family, 10, true
		case m[1] == "":
			return family, 20, true
		default:
			n, _ := strconv.Atoi(m[1])
			return family, 20 + n, true
		}
	}
	// Unknown suffixes (metal, custom) go last within the family.
	return family, 1 << 20, true
}

func stringField(record any, field string) string {
	v, ok := lookup(record, field)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
