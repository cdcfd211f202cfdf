// Package jsonpatch computes RFC 6902 patches between two versions of a
// budget document so callers can refresh only what an edit changed.
package jsonpatch

import (
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// Between marshals before and after to generic JSON trees and returns the
// forward (before→after) and backward (after→before) patches.
func Between(before, after any) (fwd, bwd []Operation, err error) {
	a, err := toTree(before)
	if err != nil {
		return nil, nil, err
	}
	b, err := toTree(after)
	if err != nil {
		return nil, nil, err
	}
	fwd, bwd = DiffBoth(a, b, "")
	return fwd, bwd, nil
}

func toTree(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// Diff returns the patch that transforms a into b. Both must be trees
// produced by json.Unmarshal into any.
func Diff(a, b any, path string) []Operation {
	fwd, _ := DiffBoth(a, b, path)
	return fwd
}

// DiffBoth computes forward and backward patches in one traversal. Object
// keys are visited in sorted order so the output is deterministic.
func DiffBoth(a, b any, path string) (fwd, bwd []Operation) {
	if a == nil && b == nil {
		return nil, nil
	}
	if a == nil || b == nil {
		return []Operation{replaceOp(path, b)}, []Operation{replaceOp(path, a)}
	}

	aMap, aIsMap := a.(map[string]any)
	bMap, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		return diffObjects(aMap, bMap, path)
	}

	aArr, aIsArr := a.([]any)
	bArr, bIsArr := b.([]any)
	if aIsArr && bIsArr {
		return diffArrays(aArr, bArr, path)
	}

	if aIsMap || bIsMap || aIsArr || bIsArr || a != b {
		return []Operation{replaceOp(path, b)}, []Operation{replaceOp(path, a)}
	}
	return nil, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func diffObjects(a, b map[string]any, path string) (fwd, bwd []Operation) {
	for _, k := range sortedKeys(a) {
		if _, ok := b[k]; !ok {
			childPath := path + "/" + escapeKey(k)
			fwd = append(fwd, removeOp(childPath))
			bwd = append(bwd, addOp(childPath, a[k]))
		}
	}
	for _, k := range sortedKeys(b) {
		childPath := path + "/" + escapeKey(k)
		av, inA := a[k]
		if !inA {
			fwd = append(fwd, addOp(childPath, b[k]))
			bwd = append(bwd, removeOp(childPath))
			continue
		}
		subFwd, subBwd := DiffBoth(av, b[k], childPath)
		fwd = append(fwd, subFwd...)
		bwd = append(bwd, subBwd...)
	}
	return fwd, bwd
}

func diffArrays(a, b []any, path string) (fwd, bwd []Operation) {
	common := min(len(a), len(b))
	for i := 0; i < common; i++ {
		subFwd, subBwd := DiffBoth(a[i], b[i], path+"/"+strconv.Itoa(i))
		fwd = append(fwd, subFwd...)
		bwd = append(bwd, subBwd...)
	}

	// Removals run from the end so earlier indexes stay valid.
	for i := len(a) - 1; i >= common; i-- {
		fwd = append(fwd, removeOp(path+"/"+strconv.Itoa(i)))
	}
	for i := common; i < len(a); i++ {
		bwd = append(bwd, addOp(path+"/"+strconv.Itoa(i), a[i]))
	}
	for i := common; i < len(b); i++ {
		fwd = append(fwd, addOp(path+"/"+strconv.Itoa(i), b[i]))
	}
	for i := len(b) - 1; i >= common; i-- {
		bwd = append(bwd, removeOp(path+"/"+strconv.Itoa(i)))
	}
	return fwd, bwd
}

// Paths returns the distinct paths touched by ops, in order of appearance.
func Paths(ops []Operation) []string {
	seen := make(map[string]bool, len(ops))
	var out []string
	for _, op := range ops {
		if !seen[op.Path] {
			seen[op.Path] = true
			out = append(out, op.Path)
		}
	}
	return out
}

// Marshal encodes ops, writing an empty array rather than null.
func Marshal(ops []Operation) json.RawMessage {
	if len(ops) == 0 {
		return json.RawMessage("[]")
	}
	b, err := json.Marshal(ops)
	if err != nil {
		return json.RawMessage("[]")
	}
	return b
}

func replaceOp(path string, value any) Operation {
	return Operation{Op: "replace", Path: path, Value: value}
}

func addOp(path string, value any) Operation {
	return Operation{Op: "add", Path: path, Value: value}
}

func removeOp(path string) Operation {
	return Operation{Op: "remove", Path: path}
}

// escapeKey escapes a JSON Pointer token per RFC 6901.
func escapeKey(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
