package merge

import (
	"strings"

	"github.com/aretw0/statetree/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Samples maps an entity name to its metric samples, keyed by category.
type Samples map[string]map[string]any

// Extractor turns an incoming metrics payload into Samples. It returns
// nil for payloads it does not understand.
type Extractor func(incoming any) Samples

// Correlation configures CorrelateMetrics.
type Correlation struct {
	// NameField is the dotted path of the entity name, e.g.
	// "universeDetails.nodePrefix".
	NameField string

	// Fields maps a sample category to the derived entity field that
	// receives it, e.g. {"read": "readData"}.
	Fields map[string]string

	// Extract decodes the incoming payload. Defaults to MappingExtractor.
	Extract Extractor
}

// DefaultFields attaches "read" and "write" samples as readData/writeData.
var DefaultFields = map[string]string{
	"read":  "readData",
	"write": "writeData",
}

// CorrelateMetrics attaches separately fetched metric samples to the
// entities of a list, matching the entity name against the sample name.
//
// Matching entities gain one derived field per category present in their
// samples; unmatched entities are returned unchanged and samples with no
// matching entity are dropped. Names are compared after trimming spaces.
func CorrelateMetrics(c Correlation) Policy {
	fields := c.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	extract := c.Extract
	if extract == nil {
		extract = MappingExtractor
	}
	return func(prior, incoming any) any {
		entities, ok := asSequence(prior)
		if !ok {
			return keepPrior(prior)
		}
		samples := normalizeNames(extract(incoming))

		out := make([]any, len(entities))
		for i, entity := range entities {
			out[i] = domain.Clone(entity)
			if len(samples) == 0 {
				continue
			}
			name, ok := lookup(entity, c.NameField)
			if !ok {
				continue
			}
			s, ok := name.(string)
			if !ok {
				continue
			}
			byCategory, ok := samples[strings.TrimSpace(s)]
			if !ok {
				continue
			}
			record, ok := asRecord(out[i])
			if !ok {
				continue
			}
			enriched := make(map[string]any, len(record)+len(fields))
			for k, v := range record {
				enriched[k] = v
			}
			for category, field := range fields {
				if sample, ok := byCategory[category]; ok {
					enriched[field] = domain.Clone(sample)
				}
			}
			out[i] = enriched
		}
		return out
	}
}

func normalizeNames(s Samples) Samples {
	if len(s) == 0 {
		return nil
	}
	out := make(Samples, len(s))
	for name, byCategory := range s {
		out[strings.TrimSpace(name)] = byCategory
	}
	return out
}

// MappingExtractor reads payloads already shaped as
// {"<name>": {"<category>": <sample>}}.
func MappingExtractor(incoming any) Samples {
	root, ok := asRecord(incoming)
	if !ok {
		return nil
	}
	out := make(Samples, len(root))
	for name, v := range root {
		byCategory, ok := asRecord(v)
		if !ok {
			continue
		}
		out[name] = byCategory
	}
	return out
}

// series is one time series of a metrics response.
type series struct {
	Name   string            `mapstructure:"name"`
	Labels map[string]string `mapstructure:"labels"`
}

// SeriesExtractor reads the metrics API response shape, where the series
// for one metric live under {"<metric>": {"data": [...]}} (optionally
// wrapped once more in "data"). Each series names its entity and carries a
// label whose value selects the category; categories maps label values to
// category names (e.g. "Read" -> "read"). The whole series becomes the
// sample.
func SeriesExtractor(metric, label string, categories map[string]string) Extractor {
	return func(incoming any) Samples {
		root, ok := asRecord(incoming)
		if !ok {
			return nil
		}
		if _, ok := root[metric]; !ok {
			if inner, ok := asRecord(root["data"]); ok {
				root = inner
			}
		}
		block, ok := asRecord(root[metric])
		if !ok {
			return nil
		}
		list, ok := asSequence(block["data"])
		if !ok {
			return nil
		}

		out := make(Samples)
		for _, raw := range list {
			var s series
			if err := mapstructure.WeakDecode(raw, &s); err != nil || s.Name == "" {
				continue
			}
			category, ok := categories[s.Labels[label]]
			if !ok {
				continue
			}
			name := strings.TrimSpace(s.Name)
			if out[name] == nil {
				out[name] = make(map[string]any, len(categories))
			}
			out[name][category] = domain.Clone(raw)
		}
		return out
	}
}
