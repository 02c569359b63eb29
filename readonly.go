package typedmap

import (
	"context"

	"github.com/vk/typedmap/entry"
	"github.com/vk/typedmap/entrytype"
)

// NewReadonly builds a sealed container: construction populates the
// store through the internal write primitive, then seals it. After
// sealing, Set fails with ErrReadonlySet and Delete with
// ErrReadonlyDelete; construction itself never trips either.
func NewReadonly(ctx context.Context, schema entrytype.Entries, args ...any) (*Map, error) {
	m := New(schema)
	list, err := entry.Normalize(args...)
	if err != nil {
		return nil, err
	}
	if err := m.populate(ctx, list, false); err != nil {
		return nil, err
	}
	m.sealed = true
	return m, nil
}

// InferReadonly is Infer followed by sealing.
func InferReadonly(ctx context.Context, policy entrytype.Policy, args ...any) (*Map, error) {
	m, err := Infer(ctx, policy, args...)
	if err != nil {
		return nil, err
	}
	m.sealed = true
	return m, nil
}

// Readonly reports whether the container is sealed.
func (m *Map) Readonly() bool { return m.sealed }
