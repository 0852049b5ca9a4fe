package tabextract

import (
	"fmt"

	"github.com/spf13/cast"
)

// Row is one tabular record: an ordered mapping from column name to a scalar
// value (string, number, bool or nil). A Row is never mutated after it is
// built; With returns a copy.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow pairs column names with values. Missing trailing values are nil and
// surplus values are dropped. A repeated column name keeps its first position
// and its last value.
func NewRow(columns []string, values []any) Row {
	r := Row{
		keys:   make([]string, 0, len(columns)),
		values: make(map[string]any, len(columns)),
	}
	for i, col := range columns {
		var v any
		if i < len(values) {
			v = values[i]
		}
		if _, dup := r.values[col]; !dup {
			r.keys = append(r.keys, col)
		}
		r.values[col] = v
	}
	return r
}

// RowFromMap builds a Row from m using the given key order. Keys of m absent
// from order are ignored.
func RowFromMap(order []string, m map[string]any) Row {
	vals := make([]any, len(order))
	for i, k := range order {
		vals[i] = m[k]
	}
	return NewRow(order, vals)
}

// Keys returns the column names in order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len is the number of columns.
func (r Row) Len() int { return len(r.keys) }

// Get returns the raw value for key.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// String returns the string form of the value stored under key, or "" when
// the key is absent or the value is nil.
func (r Row) String(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}
	return Stringify(v)
}

// With returns a copy of r with key set to value. An existing key keeps its
// position; a new key is appended.
func (r Row) With(key string, value any) Row {
	keys := r.Keys()
	if _, ok := r.values[key]; !ok {
		keys = append(keys, key)
	}
	vals := make([]any, len(keys))
	for i, k := range keys {
		if k == key {
			vals[i] = value
			continue
		}
		vals[i] = r.values[k]
	}
	return NewRow(keys, vals)
}

// Select returns a copy of r restricted to cols, in the order given.
// Columns absent from r are skipped.
func (r Row) Select(cols ...string) Row {
	keys := make([]string, 0, len(cols))
	vals := make([]any, 0, len(cols))
	for _, c := range cols {
		if v, ok := r.values[c]; ok {
			keys = append(keys, c)
			vals = append(vals, v)
		}
	}
	return NewRow(keys, vals)
}

// Map returns a shallow copy of the row's values.
func (r Row) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Stringify converts a scalar cell value to the text substituted into prompts.
// nil becomes the empty string.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
