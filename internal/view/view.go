// Package view produces filtered and sorted views of the employee rows
// without touching the canonical insertion order held by the session.
package view

import (
	"fmt"
	"sort"
	"strings"

	"budget-engine/internal/model"
	"budget-engine/internal/schema"
)

type Order int

const (
	None Order = iota
	Ascending
	Descending
)

func (o Order) String() string {
	return [...]string{"none", "asc", "desc"}[o]
}

func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return None, fmt.Errorf("unknown sort order %q", s)
}

// Query selects rows by per-column substring filters and orders them by at
// most one column.
type Query struct {
	Filters map[schema.Key]string
	Sort    schema.Key
	Order   Order
	// RoleLabel maps a role to the label it is sorted by. Defaults to
	// schema.RoleLabel.
	RoleLabel func(model.Role) string
}

// ToggleSort makes key the only sorted column, flipping between ascending
// and descending on repeated calls.
func (q *Query) ToggleSort(key schema.Key) {
	if q.Sort == key && q.Order == Ascending {
		q.Order = Descending
		return
	}
	q.Sort = key
	q.Order = Ascending
}

// Apply returns copies of the matching records in view order.
func (q Query) Apply(records []model.Employee) ([]model.Employee, error) {
	filters := make(map[*schema.Field]string, len(q.Filters))
	for key, needle := range q.Filters {
		if needle == "" {
			continue
		}
		f, ok := schema.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("unknown filter column %q", key)
		}
		filters[f] = strings.ToLower(needle)
	}

	out := make([]model.Employee, 0, len(records))
	for i := range records {
		if matches(&records[i], filters) {
			out = append(out, records[i].Clone())
		}
	}

	if q.Order == None || q.Sort == "" {
		return out, nil
	}
	f, ok := schema.Lookup(q.Sort)
	if !ok {
		return nil, fmt.Errorf("unknown sort column %q", q.Sort)
	}
	label := q.RoleLabel
	if label == nil {
		label = schema.RoleLabel
	}
	sort.SliceStable(out, less(f, q.Order, label, out))
	return out, nil
}

func matches(e *model.Employee, filters map[*schema.Field]string) bool {
	for f, needle := range filters {
		if !strings.Contains(strings.ToLower(f.Text(e)), needle) {
			return false
		}
	}
	return true
}

// sortKey is a comparable projection of one cell. Missing values always sort
// last regardless of direction.
type sortKey struct {
	missing bool
	num     float64
	str     string
}

func keyOf(f *schema.Field, label func(model.Role) string, e *model.Employee) sortKey {
	switch {
	case f.Key == schema.Role:
		return sortKey{str: label(e.Role)}
	case f.IsNumeric():
		v, ok := f.Numeric(e)
		return sortKey{missing: !ok, num: v}
	case f.Kind == schema.KindDate:
		s := f.Text(e)
		return sortKey{missing: s == "", str: s}
	default:
		return sortKey{str: f.Text(e)}
	}
}

func less(f *schema.Field, order Order, label func(model.Role) string, rows []model.Employee) func(i, j int) bool {
	return func(i, j int) bool {
		a, b := keyOf(f, label, &rows[i]), keyOf(f, label, &rows[j])
		if a.missing || b.missing {
			return !a.missing && b.missing
		}
		var cmp int
		if f.IsNumeric() {
			switch {
			case a.num < b.num:
				cmp = -1
			case a.num > b.num:
				cmp = 1
			}
		} else {
			cmp = strings.Compare(a.str, b.str)
		}
		if order == Descending {
			return cmp > 0
		}
		return cmp < 0
	}
}
