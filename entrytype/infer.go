package entrytype

import (
	"reflect"

	"github.com/vk/typedmap/entry"
)

// EntriesCarrier is implemented by the typed container so the engine
// can recognize it without depending on the container package.
type EntriesCarrier interface {
	// EntryTypes returns the pair-collection type the carrier wraps.
	EntryTypes() Entries
}

// BaseOf returns the primitive a value's literal type widens to:
// String, Number, Bool, Bytes for primitive-shaped values, Dynamic for
// nil, and the value's Opaque type otherwise. Named types whose
// underlying kind is primitive widen to the same primitives, and every
// ~[]byte kind folds to the single Bytes type.
func BaseOf(v any) Type {
	if v == nil {
		return Dynamic{}
	}
	rt := reflect.TypeOf(v)
	switch rt.Kind() {
	case reflect.String:
		return String
	case reflect.Bool:
		return Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Number
	case reflect.Slice, reflect.Array:
		if rt.Elem().Kind() == reflect.Uint8 {
			return Bytes{}
		}
	}
	return Opaque{GoType: rt}
}

// Infer derives the type of a concrete value under the given policy.
// Pair-collection shapes infer recursively into a container type;
// carriers report their own collection type; primitive-shaped leaves
// become literals (Preserve) or their base primitive (Widen); anything
// else is opaque and identical under both policies.
func Infer(v any, policy Policy) Type {
	if c, ok := v.(EntriesCarrier); ok {
		return MapType{Entries: c.EntryTypes()}
	}
	if l, ok := entry.ToList(v); ok {
		return MapType{Entries: InferList(l, policy)}
	}
	base := BaseOf(v)
	switch base.(type) {
	case Primitive, Bytes:
		if policy == Preserve {
			return Literal{Value: v, Base: base}
		}
		return base
	default:
		return base
	}
}

// InferList derives the pair-collection type of a concrete entry list:
// one exact-key pair type per element, in order.
func InferList(l entry.List, policy Policy) Entries {
	out := make(Entries, len(l))
	for i, e := range l {
		out[i] = EntryType{Key: Key{Value: e.Key}, Value: Infer(e.Value, policy)}
	}
	return out
}
