// Package entrytype implements the type-derivation engine behind
// typedmap. Types are first-class values: a schema is an Entries value
// describing the key/value pairs a container admits, and the package
// provides the derivations over it — key-union extraction, exact and
// catch-all value resolution, normalization under a widening or
// literal-preserving policy, inference from concrete values, and
// runtime conformance checks.
//
// Primitive types are backed by cty types so that inference and
// conformance can lean on go-cty's reflection bridge instead of a
// hand-rolled kind table.
package entrytype

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Type is a sealed type descriptor. Concrete implementations:
//
//   - Primitive (string, number, bool — cty backed)
//   - Bytes     (byte buffers, named ~[]byte kinds included)
//   - Literal   (one specific value)
//   - Opaque    (pass-through Go type: time.Time, funcs, structs, ...)
//   - Entries   (a pair-collection type)
//   - MapType   (the typed container type wrapping an Entries)
//   - Union     (any of several types)
//   - Never     (bottom: no valid type, "no such key")
//   - Dynamic   (top: unknown, reduced guarantee)
type Type interface {
	entryType() // sealed marker
	Equals(other Type) bool
	FriendlyName() string
}

// Primitive is a base primitive type backed by a cty type.
type Primitive struct {
	CtyType cty.Type
}

// The three primitives the engine widens literals to.
var (
	String = Primitive{CtyType: cty.String}
	Number = Primitive{CtyType: cty.Number}
	Bool   = Primitive{CtyType: cty.Bool}
)

func (Primitive) entryType() {}

func (p Primitive) Equals(other Type) bool {
	o, ok := other.(Primitive)
	return ok && p.CtyType.Equals(o.CtyType)
}

func (p Primitive) FriendlyName() string { return p.CtyType.FriendlyName() }

// Bytes is the byte-buffer type. Every named type whose underlying
// shape is a byte slice or byte array normalizes to this single type,
// so structurally equivalent buffers compare equal.
type Bytes struct{}

func (Bytes) entryType() {}

func (Bytes) Equals(other Type) bool {
	_, ok := other.(Bytes)
	return ok
}

func (Bytes) FriendlyName() string { return "bytes" }

// Literal is the type of one specific value. Base is the primitive the
// literal widens to (String, Number, Bool, Bytes{}), or an Opaque type
// when the value is not primitive-shaped.
type Literal struct {
	Value any
	Base  Type
}

// Lit builds a Literal with its base computed from the value.
func Lit(v any) Literal {
	return Literal{Value: v, Base: BaseOf(v)}
}

func (Literal) entryType() {}

func (l Literal) Equals(other Type) bool {
	o, ok := other.(Literal)
	return ok && deepEqual(l.Value, o.Value)
}

func (l Literal) FriendlyName() string { return fmt.Sprintf("%#v", l.Value) }

// Opaque is a non-primitive Go type that passes through normalization
// unchanged.
type Opaque struct {
	GoType reflect.Type
}

// OpaqueOf returns the Opaque type of v.
func OpaqueOf(v any) Opaque {
	return Opaque{GoType: reflect.TypeOf(v)}
}

func (Opaque) entryType() {}

func (o Opaque) Equals(other Type) bool {
	oo, ok := other.(Opaque)
	return ok && o.GoType == oo.GoType
}

func (o Opaque) FriendlyName() string {
	if o.GoType == nil {
		return "nil"
	}
	return o.GoType.String()
}

// EntryType is the type of a single pair: a key pattern and the value
// type associated with it.
type EntryType struct {
	Key   KeyType
	Value Type
}

// Entries is the type of an ordered pair collection. It is itself a
// Type so that a pair's value type may be a nested collection.
type Entries []EntryType

func (Entries) entryType() {}

func (e Entries) Equals(other Type) bool {
	o, ok := other.(Entries)
	if !ok || len(e) != len(o) {
		return false
	}
	for i := range e {
		if !e[i].Key.Equals(o[i].Key) || !e[i].Value.Equals(o[i].Value) {
			return false
		}
	}
	return true
}

func (e Entries) FriendlyName() string {
	parts := make([]string, len(e))
	for i, et := range e {
		parts[i] = fmt.Sprintf("%s: %s", et.Key.FriendlyName(), et.Value.FriendlyName())
	}
	return "entries(" + strings.Join(parts, ", ") + ")"
}

// MapType is the typed-container type wrapping a pair collection.
type MapType struct {
	Entries Entries
}

func (MapType) entryType() {}

func (m MapType) Equals(other Type) bool {
	o, ok := other.(MapType)
	return ok && m.Entries.Equals(o.Entries)
}

func (m MapType) FriendlyName() string { return "map " + m.Entries.FriendlyName() }

// Union is a set of alternative types. Use NewUnion to build one in
// normal form.
type Union []Type

// NewUnion flattens nested unions, drops Never, dedupes, and collapses
// the result: zero arms yield Never, one arm yields the arm itself.
func NewUnion(arms ...Type) Type {
	var flat []Type
	var add func(t Type)
	add = func(t Type) {
		switch tt := t.(type) {
		case nil, Never:
			return
		case Union:
			for _, a := range tt {
				add(a)
			}
		default:
			for _, have := range flat {
				if have.Equals(t) {
					return
				}
			}
			flat = append(flat, t)
		}
	}
	for _, a := range arms {
		add(a)
	}
	switch len(flat) {
	case 0:
		return Never{}
	case 1:
		return flat[0]
	}
	return Union(flat)
}

func (Union) entryType() {}

func (u Union) Equals(other Type) bool {
	o, ok := other.(Union)
	if !ok || len(u) != len(o) {
		return false
	}
	for i := range u {
		if !u[i].Equals(o[i]) {
			return false
		}
	}
	return true
}

func (u Union) FriendlyName() string {
	parts := make([]string, len(u))
	for i, t := range u {
		parts[i] = t.FriendlyName()
	}
	return strings.Join(parts, " | ")
}

// Never is the bottom type: resolution lands here when a key is not
// declared anywhere in the collection.
type Never struct{}

func (Never) entryType() {}

func (Never) Equals(other Type) bool {
	_, ok := other.(Never)
	return ok
}

func (Never) FriendlyName() string { return "never" }

// IsNever reports whether t is the bottom type.
func IsNever(t Type) bool {
	_, ok := t.(Never)
	return ok
}

// Dynamic is the top type: any value conforms. Open-key containers
// resolve undeclared keys to it.
type Dynamic struct{}

func (Dynamic) entryType() {}

func (Dynamic) Equals(other Type) bool {
	_, ok := other.(Dynamic)
	return ok
}

func (Dynamic) FriendlyName() string { return "any" }

// KeyType is a sealed key pattern: either one exact key or a catch-all
// over a closed key enumeration.
type KeyType interface {
	keyType() // sealed marker
	// Matches reports whether the concrete key k belongs to this
	// pattern, ignoring precedence between patterns.
	Matches(k any) bool
	Equals(other KeyType) bool
	FriendlyName() string
}

// Key is an exact key pattern: it matches exactly one key value.
type Key struct {
	Value any
}

// K builds an exact key pattern.
func K(v any) Key { return Key{Value: v} }

func (Key) keyType() {}

func (k Key) Matches(other any) bool { return keyEqual(k.Value, other) }

func (k Key) Equals(other KeyType) bool {
	o, ok := other.(Key)
	return ok && keyEqual(k.Value, o.Value)
}

func (k Key) FriendlyName() string { return fmt.Sprintf("%#v", k.Value) }

// Catchall is a residual key pattern: every member of a closed key
// universe except the listed exclusions. Exact entries for the same
// key always take precedence during resolution, so Except typically
// repeats the keys claimed by exact entries, but membership is decided
// purely by the two sets.
type Catchall struct {
	Universe []any
	Except   []any
}

func (Catchall) keyType() {}

func (c Catchall) Matches(k any) bool {
	for _, x := range c.Except {
		if keyEqual(x, k) {
			return false
		}
	}
	for _, u := range c.Universe {
		if keyEqual(u, k) {
			return true
		}
	}
	return false
}

// Members returns the keys the pattern admits, in universe order.
func (c Catchall) Members() []any {
	var out []any
	for _, u := range c.Universe {
		if c.Matches(u) {
			out = append(out, u)
		}
	}
	return out
}

func (c Catchall) Equals(other KeyType) bool {
	o, ok := other.(Catchall)
	if !ok || len(c.Universe) != len(o.Universe) || len(c.Except) != len(o.Except) {
		return false
	}
	for i := range c.Universe {
		if !keyEqual(c.Universe[i], o.Universe[i]) {
			return false
		}
	}
	for i := range c.Except {
		if !keyEqual(c.Except[i], o.Except[i]) {
			return false
		}
	}
	return true
}

func (c Catchall) FriendlyName() string {
	return fmt.Sprintf("catchall(%d keys, %d excluded)", len(c.Universe), len(c.Except))
}

// keyEqual compares keys with Go equality, guarding against
// non-comparable values instead of panicking.
func keyEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// deepEqual is reflect.DeepEqual with a fast path for comparable
// values and value-based comparison across numeric kinds, so the
// literal 5 matches whether it arrives as int, int64, or float64.
func deepEqual(a, b any) bool {
	if keyEqual(a, b) {
		return true
	}
	if na, ok := numericValue(a); ok {
		if nb, ok := numericValue(b); ok {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func numericValue(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
