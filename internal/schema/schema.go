// Package schema describes every column of an employee row: its kind, its
// persisted column key, how raw input is parsed, how the value is shown, and
// which upstream columns it is derived from.
//
// The dependency edges are fixed at compile time. The package computes a
// topological order once and panics at init if the table ever contains a
// cycle, so derivation never depends on the order columns are declared in.
package schema

import (
	"errors"
	"fmt"

	"budget-engine/internal/model"
)

type Key string

type Kind int

const (
	KindText Kind = iota
	KindEnum
	KindInteger
	KindPercentage
	KindNumber
	KindFlag
	KindDate
	KindComputed
)

func (k Kind) String() string {
	return [...]string{"text", "enum", "integer", "percentage", "number", "flag", "date", "computed"}[k]
}

// Scope gates a column on the document settings.
type Scope int

const (
	ScopeAlways Scope = iota
	ScopeVacation
	ScopeManagement
)

// ErrInvalidValue is returned by Field.Set when raw input is rejected.
var ErrInvalidValue = errors.New("invalid value")

type Field struct {
	Key    Key
	Kind   Kind
	Scope  Scope
	Column string
	Label  string

	// DependsOn lists the upstream columns of a computed field.
	DependsOn []Key
	// DocumentWide marks computed fields that read other records, so a change
	// upstream on one record recomputes it on every record.
	DocumentWide bool

	set     func(e *model.Employee, raw string) error
	text    func(e *model.Employee) string
	display func(e *model.Employee) string
	numeric func(e *model.Employee) (float64, bool)
}

func (f *Field) Editable() bool { return f.Kind != KindComputed }

func (f *Field) InScope(s model.Settings) bool {
	switch f.Scope {
	case ScopeVacation:
		return s.TrackVacation
	case ScopeManagement:
		return s.TrackManagement
	default:
		return true
	}
}

// Set parses raw and stores it on e. It leaves e untouched on error.
func (f *Field) Set(e *model.Employee, raw string) error {
	if f.set == nil {
		return fmt.Errorf("%s is computed and cannot be set", f.Key)
	}
	return f.set(e, raw)
}

// Text is the plain textual representation used for filtering.
func (f *Field) Text(e *model.Employee) string { return f.text(e) }

// Display is the formatted value shown in tables.
func (f *Field) Display(e *model.Employee) string {
	if f.display != nil {
		return f.display(e)
	}
	return f.text(e)
}

// Numeric returns the sortable value of e's field. ok is false for text
// columns and for numeric input that does not parse.
func (f *Field) Numeric(e *model.Employee) (float64, bool) {
	if f.numeric == nil {
		return 0, false
	}
	return f.numeric(e)
}

func (f *Field) IsNumeric() bool { return f.numeric != nil }

var (
	byKey map[Key]*Field
	order []Key
	// dependants is the reverse edge list, in topological order.
	dependants map[Key][]Key
)

func init() {
	byKey = make(map[Key]*Field, len(fields))
	for i := range fields {
		f := &fields[i]
		if _, dup := byKey[f.Key]; dup {
			panic("schema: duplicate field " + string(f.Key))
		}
		byKey[f.Key] = f
	}
	var err error
	order, err = topoSort(fields, byKey)
	if err != nil {
		panic("schema: " + err.Error())
	}
	dependants = make(map[Key][]Key)
	for _, k := range order {
		for _, up := range byKey[k].DependsOn {
			dependants[up] = append(dependants[up], k)
		}
	}
}

// topoSort orders fields so every field follows all of its upstream fields,
// keeping declaration order among independent fields.
func topoSort(fs []Field, index map[Key]*Field) ([]Key, error) {
	indegree := make(map[Key]int, len(fs))
	for _, f := range fs {
		for _, up := range f.DependsOn {
			if _, ok := index[up]; !ok {
				return nil, fmt.Errorf("%s depends on unknown field %s", f.Key, up)
			}
		}
		indegree[f.Key] = len(f.DependsOn)
	}
	result := make([]Key, 0, len(fs))
	done := make(map[Key]bool, len(fs))
	for len(result) < len(fs) {
		progressed := false
		for _, f := range fs {
			if done[f.Key] || indegree[f.Key] > 0 {
				continue
			}
			done[f.Key] = true
			result = append(result, f.Key)
			progressed = true
			for _, g := range fs {
				for _, up := range g.DependsOn {
					if up == f.Key {
						indegree[g.Key]--
					}
				}
			}
		}
		if !progressed {
			return nil, errors.New("dependency cycle between computed fields")
		}
	}
	return result, nil
}

// Lookup returns the descriptor for key.
func Lookup(key Key) (*Field, bool) {
	f, ok := byKey[key]
	return f, ok
}

// LookupColumn finds a field by key or by its persisted column name.
func LookupColumn(name string) (*Field, bool) {
	if f, ok := byKey[Key(name)]; ok {
		return f, true
	}
	for i := range fields {
		if fields[i].Column == name {
			return &fields[i], true
		}
	}
	return nil, false
}

// Fields returns every descriptor in declaration order.
func Fields() []*Field {
	out := make([]*Field, len(fields))
	for i := range fields {
		out[i] = &fields[i]
	}
	return out
}

// Columns returns the descriptors in scope for s, in declaration order.
func Columns(s model.Settings) []*Field {
	var out []*Field
	for i := range fields {
		if fields[i].InScope(s) {
			out = append(out, &fields[i])
		}
	}
	return out
}

// Order returns all keys in topological order.
func Order() []Key {
	return append([]Key(nil), order...)
}

// Computed returns all computed keys in topological order.
func Computed() []Key {
	var out []Key
	for _, k := range order {
		if byKey[k].Kind == KindComputed {
			out = append(out, k)
		}
	}
	return out
}

// Downstream returns every field that transitively depends on any of keys,
// in topological order. The keys themselves are not included.
func Downstream(keys ...Key) []Key {
	affected := make(map[Key]bool)
	queue := append([]Key(nil), keys...)
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		for _, d := range dependants[k] {
			if !affected[d] {
				affected[d] = true
				queue = append(queue, d)
			}
		}
	}
	var out []Key
	for _, k := range order {
		if affected[k] {
			out = append(out, k)
		}
	}
	return out
}
