package entrytype

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/typedmap/entry"
)

// ErrMismatch is wrapped by every conformance failure.
var ErrMismatch = errors.New("value does not conform to declared type")

// Conforms reports whether the concrete value v conforms to t.
func Conforms(v any, t Type) bool {
	return Explain(v, t) == nil
}

// Explain is Conforms with a reason: nil when v conforms to t, a
// descriptive error wrapping ErrMismatch otherwise.
func Explain(v any, t Type) error {
	switch tt := t.(type) {
	case Never:
		return fmt.Errorf("%w: no value is admitted by the bottom type", ErrMismatch)
	case Dynamic:
		return nil
	case Literal:
		if deepEqual(v, tt.Value) {
			return nil
		}
		return fmt.Errorf("%w: want the literal %s, got %#v", ErrMismatch, tt.FriendlyName(), v)
	case Primitive:
		if it, ok := impliedPrimitive(v); ok && it.Equals(tt.CtyType) {
			return nil
		}
		return fmt.Errorf("%w: want %s, got %T", ErrMismatch, tt.FriendlyName(), v)
	case Bytes:
		if isByteBuffer(v) {
			return nil
		}
		return fmt.Errorf("%w: want bytes, got %T", ErrMismatch, v)
	case Opaque:
		rt := reflect.TypeOf(v)
		if rt != nil && tt.GoType != nil && rt.AssignableTo(tt.GoType) {
			return nil
		}
		return fmt.Errorf("%w: want %s, got %T", ErrMismatch, tt.FriendlyName(), v)
	case Union:
		for _, arm := range tt {
			if Explain(v, arm) == nil {
				return nil
			}
		}
		return fmt.Errorf("%w: %#v matches no member of %s", ErrMismatch, v, tt.FriendlyName())
	case Entries:
		return Explain(v, MapType{Entries: tt})
	case MapType:
		return explainMap(v, tt)
	}
	return fmt.Errorf("%w: unsupported type descriptor %T", ErrMismatch, t)
}

func explainMap(v any, want MapType) error {
	if c, ok := v.(EntriesCarrier); ok {
		if err := entriesAssignable(c.EntryTypes(), want.Entries); err != nil {
			return err
		}
		return nil
	}
	if l, ok := entry.ToList(v); ok {
		for _, e := range l {
			rt := Resolve(want.Entries, Preserve, e.Key)
			if IsNever(rt) {
				return fmt.Errorf("%w: key %#v is not declared in the nested collection", ErrMismatch, e.Key)
			}
			if err := Explain(e.Value, rt); err != nil {
				return fmt.Errorf("nested key %#v: %w", e.Key, err)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: want %s, got %T", ErrMismatch, want.FriendlyName(), v)
}

// AssignableTo reports whether every value of type got also conforms
// to type want.
func AssignableTo(got, want Type) bool {
	if _, ok := want.(Dynamic); ok {
		return true
	}
	if IsNever(got) {
		return true
	}
	switch g := got.(type) {
	case Union:
		for _, arm := range g {
			if !AssignableTo(arm, want) {
				return false
			}
		}
		return true
	}
	if wu, ok := want.(Union); ok {
		for _, arm := range wu {
			if AssignableTo(got, arm) {
				return true
			}
		}
		return false
	}
	switch g := got.(type) {
	case Literal:
		if want.Equals(g) {
			return true
		}
		return g.Base != nil && g.Base.Equals(want)
	case Opaque:
		if w, ok := want.(Opaque); ok {
			return g.GoType != nil && w.GoType != nil && g.GoType.AssignableTo(w.GoType)
		}
		return false
	case Entries:
		return AssignableTo(MapType{Entries: g}, want)
	case MapType:
		var we Entries
		switch w := want.(type) {
		case MapType:
			we = w.Entries
		case Entries:
			we = w
		default:
			return false
		}
		return entriesAssignable(g.Entries, we) == nil
	default:
		return got.Equals(want)
	}
}

// entriesAssignable checks that every key the got collection declares
// is admitted by the want collection with an assignable value type.
func entriesAssignable(got, want Entries) error {
	if got.Equals(want) {
		return nil
	}
	for _, k := range Keys(got) {
		wt := Resolve(want, Preserve, k)
		if IsNever(wt) {
			return fmt.Errorf("%w: key %#v is not declared in the target collection", ErrMismatch, k)
		}
		gt := Resolve(got, Preserve, k)
		if !AssignableTo(gt, wt) {
			return fmt.Errorf("%w: key %#v has type %s, want %s", ErrMismatch, k, gt.FriendlyName(), wt.FriendlyName())
		}
	}
	return nil
}

// impliedPrimitive maps a Go value onto the cty primitive it
// represents, using go-cty's reflection bridge.
func impliedPrimitive(v any) (cty.Type, bool) {
	if v == nil {
		return cty.NilType, false
	}
	it, err := gocty.ImpliedType(v)
	if err != nil || !it.IsPrimitiveType() {
		return cty.NilType, false
	}
	return it, true
}

func isByteBuffer(v any) bool {
	rt := reflect.TypeOf(v)
	if rt == nil {
		return false
	}
	return (rt.Kind() == reflect.Slice || rt.Kind() == reflect.Array) &&
		rt.Elem().Kind() == reflect.Uint8
}
