// Package entry defines the ordered key/value pair model shared by the
// typedmap container and the entrytype derivation engine, together with
// the shape predicates that decide, at runtime, whether an arbitrary
// value should be treated as a pair collection.
package entry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// Entry is a single ordered key/value pair. Keys must be comparable with
// Go equality; values are unconstrained and may themselves be pair
// collections, which the container lifts into nested maps.
type Entry struct {
	Key   any
	Value any
}

// List is an ordered, possibly heterogeneous sequence of entries.
// Order is insertion order. Duplicate keys are permitted; consumers
// decide how duplicates resolve.
type List []Entry

// E builds a single entry.
func E(key, value any) Entry {
	return Entry{Key: key, Value: value}
}

// ErrBadShape reports an argument that is neither a pair nor a pair
// collection where one was required.
var ErrBadShape = errors.New("value is not a key/value pair")

// Keys returns the keys of the list in order, duplicates included.
func (l List) Keys() []any {
	keys := make([]any, len(l))
	for i, e := range l {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the value for the last entry whose key equals key.
func (l List) Get(key any) (any, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Key == key {
			return l[i].Value, true
		}
	}
	return nil, false
}

// IsPair reports whether v has two-element tuple shape: an Entry, a
// pointer to one, or any slice or array of length two.
func IsPair(v any) bool {
	_, ok := ToEntry(v)
	return ok
}

// ToEntry converts a two-element tuple shape into an Entry. The first
// element becomes the key, the second the value.
func ToEntry(v any) (Entry, bool) {
	switch p := v.(type) {
	case Entry:
		return p, true
	case *Entry:
		if p == nil {
			return Entry{}, false
		}
		return *p, true
	case [2]any:
		return Entry{Key: p[0], Value: p[1]}, true
	case []any:
		if len(p) == 2 {
			return Entry{Key: p[0], Value: p[1]}, true
		}
		return Entry{}, false
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return Entry{}, false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// byte buffers are leaves, never pairs
			return Entry{}, false
		}
		if rv.Len() == 2 {
			return Entry{Key: rv.Index(0).Interface(), Value: rv.Index(1).Interface()}, true
		}
	}
	return Entry{}, false
}

// IsPairList reports whether v is a slice or array every element of
// which satisfies IsPair. Recognition is purely structural: a leaf
// value that coincidentally is a sequence of two-element tuples is
// indistinguishable from a nested pair collection and will be treated
// as one. Callers that need such a value stored verbatim should wrap
// it in a defined type.
func IsPairList(v any) bool {
	_, ok := ToList(v)
	return ok
}

// ToList converts any accepted pair-collection shape ([]Entry, List,
// [][2]any, []any of pairs, ...) into a canonical List.
func ToList(v any) (List, bool) {
	switch l := v.(type) {
	case List:
		return l, true
	case []Entry:
		return List(l), true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make(List, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		e, ok := ToEntry(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out[i] = e
	}
	return out, true
}

// IsPlainObject reports whether v is a plain Go map.
func IsPlainObject(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Map
}

// FromMap converts a plain Go map into a List. Go map iteration order
// is unspecified, so the entries are emitted in sorted key order to
// keep the conversion deterministic.
func FromMap(v any) (List, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("%w: %T is not a map", ErrBadShape, v)
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	out := make(List, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k.Interface(), Value: rv.MapIndex(k).Interface()})
	}
	return out, nil
}

// Normalize converts the two accepted calling styles into one canonical
// list: a single pair-collection argument is returned as-is, otherwise
// every argument must itself be a pair. Zero arguments yield an empty
// list.
func Normalize(args ...any) (List, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) == 1 {
		if l, ok := ToList(args[0]); ok {
			return l, nil
		}
	}
	out := make(List, len(args))
	for i, a := range args {
		e, ok := ToEntry(a)
		if !ok {
			return nil, fmt.Errorf("argument %d: %w (got %T)", i, ErrBadShape, a)
		}
		out[i] = e
	}
	return out, nil
}
