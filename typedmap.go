// Package typedmap implements a schema-checked, insertion-ordered
// associative container. A container is declared against a pair
// collection type (entrytype.Entries) that maps a closed set of keys to
// per-key value types; writes are validated against the type the
// engine resolves for the supplied key, and values that are themselves
// pair collections are lifted into nested containers at the moment
// they are written.
//
// All safety lives at the checked-write boundary: Get and Delete are
// direct pass-throughs to the underlying store, and nothing
// re-validates stored values on the way out. The keycheck analyzer
// restores a vet-time diagnostic for constant keys at call sites.
package typedmap

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/vk/typedmap/entry"
	"github.com/vk/typedmap/entrytype"
	"github.com/vk/typedmap/internal/ctxlog"
)

var (
	// ErrUnknownKey reports a write with a key outside the schema's
	// key union on a closed container.
	ErrUnknownKey = errors.New("key is not declared in the schema")

	// ErrBadKey reports a key that cannot serve as an associative
	// store key.
	ErrBadKey = errors.New("key is not comparable")

	// ErrReadonlySet and ErrReadonlyDelete are returned by sealed
	// containers. The messages are part of the contract.
	ErrReadonlySet    = errors.New("typedmap is read-only, set operation is not allowed")
	ErrReadonlyDelete = errors.New("typedmap is read-only, delete operation is not allowed")
)

// Map is a typed, insertion-ordered key/value container. It is not
// safe for concurrent use; each instance owns its store exclusively.
type Map struct {
	schema entrytype.Entries
	policy entrytype.Policy
	open   bool
	sealed bool

	keys   []any
	values map[any]any
}

// Option configures a container at construction.
type Option func(*Map)

// WithOpenKeys permits writes with keys outside the schema's union.
// Such entries carry the dynamic type: the per-key value guarantee is
// reduced to none.
func WithOpenKeys() Option {
	return func(m *Map) { m.open = true }
}

// WithPolicy sets the normalization policy used when the container
// resolves value types and infers schemas for lifted nested values.
// The default is Widen.
func WithPolicy(p entrytype.Policy) Option {
	return func(m *Map) { m.policy = p }
}

// New declares an empty container over the given pair collection type.
// A nil schema with WithOpenKeys behaves as a plain ordered map.
func New(schema entrytype.Entries, opts ...Option) *Map {
	m := &Map{
		schema: schema,
		values: make(map[any]any),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// From declares a container over schema and populates it. Args may be
// a single pair collection or variadic pairs.
func From(ctx context.Context, schema entrytype.Entries, args ...any) (*Map, error) {
	m := New(schema)
	if err := m.Populate(ctx, args...); err != nil {
		return nil, err
	}
	return m, nil
}

// Infer builds a container whose schema is derived from the supplied
// entries under the given policy: Widen yields base primitive value
// types, Preserve keeps each value's literal type.
func Infer(ctx context.Context, policy entrytype.Policy, args ...any) (*Map, error) {
	list, err := entry.Normalize(args...)
	if err != nil {
		return nil, err
	}
	m := New(entrytype.InferList(list, policy), WithPolicy(policy))
	if err := m.populate(ctx, list, true); err != nil {
		return nil, err
	}
	return m, nil
}

// Populate inserts entries through the checked-write path, accepting a
// single pair collection or variadic pairs.
func (m *Map) Populate(ctx context.Context, args ...any) error {
	list, err := entry.Normalize(args...)
	if err != nil {
		return err
	}
	return m.populate(ctx, list, true)
}

func (m *Map) populate(ctx context.Context, list entry.List, public bool) error {
	for _, e := range list {
		if err := m.set(ctx, e.Key, e.Value, public); err != nil {
			return err
		}
	}
	return nil
}

// EntryTypes returns the pair collection type the container was
// declared with. It implements entrytype.EntriesCarrier.
func (m *Map) EntryTypes() entrytype.Entries { return m.schema }

// Get returns the stored value for key. A miss returns (nil, false);
// it never fails.
func (m *Map) Get(key any) (any, bool) {
	if !comparableKey(key) {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set validates value against the type resolved for key and stores it,
// lifting pair-collection values into nested containers first. An
// existing key is overwritten in place, keeping its original position.
func (m *Map) Set(key, value any) error {
	return m.set(context.Background(), key, value, true)
}

// SetContext is Set with a context carrying the logger used for
// nested-lift debug output.
func (m *Map) SetContext(ctx context.Context, key, value any) error {
	return m.set(ctx, key, value, true)
}

// MustSet is Set for fluent construction; it panics on error and
// returns the container.
func (m *Map) MustSet(key, value any) *Map {
	if err := m.Set(key, value); err != nil {
		panic(err)
	}
	return m
}

// set is the single write primitive. Only public writes consult the
// sealed flag, which lets read-only construction flow through the same
// path before sealing.
func (m *Map) set(ctx context.Context, key, value any, public bool) error {
	if public && m.sealed {
		return ErrReadonlySet
	}
	if !comparableKey(key) {
		return fmt.Errorf("%w: %T", ErrBadKey, key)
	}
	t := entrytype.Resolve(m.schema, m.policy, key)
	if entrytype.IsNever(t) {
		if !m.open {
			return fmt.Errorf("key %#v: %w", key, ErrUnknownKey)
		}
		t = entrytype.Dynamic{}
	}
	lifted, err := m.lift(ctx, key, value, t)
	if err != nil {
		return err
	}
	if err := entrytype.Explain(lifted, t); err != nil {
		return fmt.Errorf("key %#v: %w", key, err)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = lifted
	return nil
}

// lift converts a raw pair-collection value into a nested container,
// schema-aware when the declared type names one. Values that are
// already containers, and every non-collection shape, pass through
// unchanged; there is no runtime widening.
func (m *Map) lift(ctx context.Context, key, value any, declared entrytype.Type) (any, error) {
	if _, ok := value.(*Map); ok {
		return value, nil
	}
	list, ok := entry.ToList(value)
	if !ok {
		return value, nil
	}
	var schema entrytype.Entries
	switch dt := declared.(type) {
	case entrytype.MapType:
		schema = dt.Entries
	case entrytype.Entries:
		schema = dt
	default:
		schema = entrytype.InferList(list, m.policy)
	}
	ctxlog.FromContext(ctx).Debug("lifting nested pair collection into a typed map",
		"key", key, "entries", len(list))
	nested := New(schema, WithPolicy(m.policy))
	if err := nested.populate(ctx, list, true); err != nil {
		return nil, fmt.Errorf("nested collection under key %#v: %w", key, err)
	}
	return nested, nil
}

// Delete removes key and reports whether a stored entry existed. Like
// the underlying store's own remove, it has no key checking; the only
// failure is a sealed container.
func (m *Map) Delete(key any) (bool, error) {
	if m.sealed {
		return false, ErrReadonlyDelete
	}
	if !comparableKey(key) {
		return false, nil
	}
	if _, ok := m.values[key]; !ok {
		return false, nil
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true, nil
}

// Len returns the number of stored entries.
func (m *Map) Len() int { return len(m.keys) }

// Has reports whether key is currently stored.
func (m *Map) Has(key any) bool {
	if !comparableKey(key) {
		return false
	}
	_, ok := m.values[key]
	return ok
}

// Keys returns the stored keys in insertion order.
func (m *Map) Keys() []any {
	out := make([]any, len(m.keys))
	copy(out, m.keys)
	return out
}

// Entries returns the stored entries in insertion order.
func (m *Map) Entries() []entry.Entry {
	out := make([]entry.Entry, len(m.keys))
	for i, k := range m.keys {
		out[i] = entry.Entry{Key: k, Value: m.values[k]}
	}
	return out
}

func comparableKey(key any) bool {
	if key == nil {
		return true
	}
	return reflect.TypeOf(key).Comparable()
}
