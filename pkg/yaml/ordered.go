package yaml

import (
	"fmt"

	"github.com/goccy/go-yaml"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OrderedMap is a string-keyed record that remembers insertion order.
type OrderedMap = orderedmap.OrderedMap[string, any]

// FromMapSlice converts ms into an [OrderedMap], recursively. Non-string
// keys are formatted with [fmt.Sprint].
func FromMapSlice(ms yaml.MapSlice) *OrderedMap {
	out := orderedmap.New[string, any]()

	for _, item := range ms {
		key, ok := item.Key.(string)
		if !ok {
			key = fmt.Sprint(item.Key)
		}

		out.Set(key, fromYAMLValue(item.Value))
	}

	return out
}

// ToMapSlice converts m into a [yaml.MapSlice], recursively.
func ToMapSlice(m *OrderedMap) yaml.MapSlice {
	if m == nil {
		return yaml.MapSlice{}
	}

	out := make(yaml.MapSlice, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, yaml.MapItem{Key: pair.Key, Value: toYAMLValue(pair.Value)})
	}

	return out
}

func fromYAMLValue(v any) any {
	switch val := v.(type) {
	case yaml.MapSlice:
		return FromMapSlice(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = fromYAMLValue(item)
		}

		return out
	}

	return v
}

func toYAMLValue(v any) any {
	switch val := v.(type) {
	case *OrderedMap:
		return ToMapSlice(val)
	case []*OrderedMap:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ToMapSlice(item)
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = toYAMLValue(item)
		}

		return out
	}

	return v
}
