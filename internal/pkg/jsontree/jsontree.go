// Package jsontree manipulates the JSON-compatible content trees stored on
// sections: nested map[string]interface{} / []interface{} / scalar values as
// produced by encoding/json.
package jsontree

import (
	"strconv"
	"strings"

	"github.com/brunoga/deep/v5"
)

// Clone returns a deep copy of a content tree. Callers mutate the copy
// without disturbing defaults or previously loaded rows.
func Clone(tree map[string]interface{}) map[string]interface{} {
	if tree == nil {
		return nil
	}
	return deep.Clone(tree)
}

// Merge deep-merges override into base and returns the result. Nested maps
// merge recursively; every other value present in override wins, including
// arrays, which replace the base value wholesale rather than merging
// element-wise.
func Merge(base, override map[string]interface{}) map[string]interface{} {
	out := Clone(base)
	if out == nil {
		out = map[string]interface{}{}
	}
	for key, ov := range override {
		if ovMap, ok := ov.(map[string]interface{}); ok {
			if baseMap, ok := out[key].(map[string]interface{}); ok {
				out[key] = Merge(baseMap, ovMap)
				continue
			}
		}
		out[key] = deep.Clone(ov)
	}
	return out
}

// Get walks a path into a tree. The second result is false when any step is
// missing or not traversable.
func Get(tree map[string]interface{}, path []string) (interface{}, bool) {
	var current interface{} = tree
	for _, seg := range path {
		switch node := current.(type) {
		case map[string]interface{}:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			current = next
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set assigns a leaf at path, creating intermediate object levels as it
// walks. Numeric segments index into arrays when an array is already there;
// out-of-range array writes are dropped silently, matching the forgiving
// behavior of the inline editor.
func Set(tree map[string]interface{}, path []string, value interface{}) {
	if len(path) == 0 {
		return
	}
	var parent interface{} = tree
	for i := 0; i < len(path)-1; i++ {
		seg := path[i]
		switch node := parent.(type) {
		case map[string]interface{}:
			child, ok := node[seg]
			if !ok || !traversable(child) {
				child = map[string]interface{}{}
				node[seg] = child
			}
			parent = child
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return
			}
			if !traversable(node[idx]) {
				node[idx] = map[string]interface{}{}
			}
			parent = node[idx]
		default:
			return
		}
	}

	leaf := path[len(path)-1]
	switch node := parent.(type) {
	case map[string]interface{}:
		node[leaf] = value
	case []interface{}:
		idx, err := strconv.Atoi(leaf)
		if err == nil && idx >= 0 && idx < len(node) {
			node[idx] = value
		}
	}
}

// CoerceLeaf converts an incoming string edit into the value to store,
// preserving the type of the pre-existing leaf: numeric leaves parse the
// string as a float (0 on parse failure), everything else keeps the raw
// string.
func CoerceLeaf(existing interface{}, value string) interface{} {
	switch existing.(type) {
	case float64, float32, int, int32, int64:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return float64(0)
		}
		return f
	default:
		return value
	}
}

// PathKey builds the composite pending-change key for a section field.
func PathKey(sectionKey string, path []string) string {
	return sectionKey + "." + strings.Join(path, ".")
}

func traversable(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return true
	default:
		return false
	}
}
