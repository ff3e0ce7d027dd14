// Package compliance evaluates resource tags against a required governance set.
package compliance

// KeyValue is one tag pair as reported by list-shaped discovery sources.
type KeyValue struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

// WrappedKeyValue is the envelope some sources put around each pair.
type WrappedKeyValue struct {
	Data KeyValue `json:"Data"`
}

// TagsFromMap normalizes a flat key-value mapping. Nil input yields an empty map.
func TagsFromMap(raw map[string]string) map[string]string {
	tags := make(map[string]string, len(raw))
	for k, v := range raw {
		if k == "" {
			continue
		}
		tags[k] = v
	}
	return tags
}

// TagsFromPairs normalizes a list of key-value pairs. Later duplicates win.
func TagsFromPairs(pairs []KeyValue) map[string]string {
	tags := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.Key == "" {
			continue
		}
		tags[p.Key] = p.Value
	}
	return tags
}

// TagsFromWrappedPairs normalizes the wrapped-list shape.
func TagsFromWrappedPairs(wrapped []WrappedKeyValue) map[string]string {
	pairs := make([]KeyValue, 0, len(wrapped))
	for _, w := range wrapped {
		pairs = append(pairs, w.Data)
	}
	return TagsFromPairs(pairs)
}
