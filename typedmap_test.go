package typedmap_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/typedmap"
	"github.com/vk/typedmap/entry"
	"github.com/vk/typedmap/entrytype"
)

func nestedSchema() entrytype.Entries {
	return entrytype.Entries{
		{Key: entrytype.K("a"), Value: entrytype.Number},
		{Key: entrytype.K("b"), Value: entrytype.Number},
		{Key: entrytype.K("c"), Value: entrytype.Entries{
			{Key: entrytype.K("d"), Value: entrytype.Entries{
				{Key: entrytype.K("e"), Value: entrytype.Number},
			}},
		}},
	}
}

func TestMap_Construction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("Success: round-trips flat entries", func(t *testing.T) {
		t.Parallel()
		schema := entrytype.Entries{
			{Key: entrytype.K("name"), Value: entrytype.String},
			{Key: entrytype.K("age"), Value: entrytype.Number},
		}
		m, err := typedmap.From(ctx, schema, entry.E("name", "Alice"), entry.E("age", 30))
		require.NoError(t, err)
		require.Equal(t, 2, m.Len())

		name, ok := m.Get("name")
		require.True(t, ok)
		require.Equal(t, "Alice", name)

		age, ok := m.Get("age")
		require.True(t, ok)
		require.Equal(t, 30, age)
	})

	t.Run("Success: accepts a single pair collection argument", func(t *testing.T) {
		t.Parallel()
		schema := entrytype.Entries{{Key: entrytype.K("x"), Value: entrytype.Number}}
		m, err := typedmap.From(ctx, schema, entry.List{entry.E("x", 1)})
		require.NoError(t, err)
		require.Equal(t, 1, m.Len())
	})

	t.Run("Success: type-only declaration starts empty", func(t *testing.T) {
		t.Parallel()
		m := typedmap.New(nestedSchema())
		require.Equal(t, 0, m.Len())
		_, ok := m.Get("a")
		require.False(t, ok)
	})

	t.Run("Success: concrete nested scenario", func(t *testing.T) {
		t.Parallel()
		m, err := typedmap.From(ctx, nestedSchema(),
			entry.E("a", 1),
			entry.E("b", 2),
			entry.E("c", entry.List{entry.E("d", entry.List{entry.E("e", 3)})}),
		)
		require.NoError(t, err)
		require.Equal(t, 3, m.Len())

		a, ok := m.Get("a")
		require.True(t, ok)
		require.Equal(t, 1, a)

		b, ok := m.Get("b")
		require.True(t, ok)
		require.Equal(t, 2, b)

		cVal, ok := m.Get("c")
		require.True(t, ok)
		c, ok := cVal.(*typedmap.Map)
		require.True(t, ok, "nested value should have been lifted into a typed map")

		dVal, ok := c.Get("d")
		require.True(t, ok)
		d, ok := dVal.(*typedmap.Map)
		require.True(t, ok)

		e, ok := d.Get("e")
		require.True(t, ok)
		require.Equal(t, 3, e)
	})

	t.Run("Error: value not matching declared type", func(t *testing.T) {
		t.Parallel()
		schema := entrytype.Entries{{Key: entrytype.K("age"), Value: entrytype.Number}}
		_, err := typedmap.From(ctx, schema, entry.E("age", "thirty"))
		require.Error(t, err)
		require.ErrorIs(t, err, entrytype.ErrMismatch)
	})

	t.Run("Error: undeclared key on a closed map", func(t *testing.T) {
		t.Parallel()
		schema := entrytype.Entries{{Key: entrytype.K("a"), Value: entrytype.Number}}
		_, err := typedmap.From(ctx, schema, entry.E("nope", 1))
		require.ErrorIs(t, err, typedmap.ErrUnknownKey)
	})
}

func TestMap_Set(t *testing.T) {
	t.Parallel()

	t.Run("Success: overwrite keeps insertion position", func(t *testing.T) {
		t.Parallel()
		schema := entrytype.Entries{
			{Key: entrytype.K("a"), Value: entrytype.Number},
			{Key: entrytype.K("b"), Value: entrytype.Number},
		}
		m := typedmap.New(schema)
		require.NoError(t, m.Set("a", 1))
		require.NoError(t, m.Set("b", 2))
		require.NoError(t, m.Set("a", 10))

		require.Equal(t, []any{"a", "b"}, m.Keys())
		v, _ := m.Get("a")
		require.Equal(t, 10, v)
	})

	t.Run("Success: duplicate schema keys are last-write-wins at runtime", func(t *testing.T) {
		t.Parallel()
		schema := entrytype.Entries{
			{Key: entrytype.K("x"), Value: entrytype.Lit(1)},
			{Key: entrytype.K("x"), Value: entrytype.Lit("one")},
		}
		m := typedmap.New(schema, typedmap.WithPolicy(entrytype.Preserve))
		// resolution is the union of both declared types
		require.NoError(t, m.Set("x", 1))
		require.NoError(t, m.Set("x", "one"))
		require.Equal(t, 1, m.Len())
		v, _ := m.Get("x")
		require.Equal(t, "one", v)
	})

	t.Run("Success: exact entry beats catch-all for the same key", func(t *testing.T) {
		t.Parallel()
		schema := entrytype.Entries{
			{Key: entrytype.K("a"), Value: entrytype.Number},
			{Key: entrytype.Catchall{
				Universe: []any{"a", "b", "c"},
				Except:   []any{"a"},
			}, Value: entrytype.Bool},
		}
		m := typedmap.New(schema)
		require.NoError(t, m.Set("a", 42), "exact pair's number type must win")
		require.Error(t, m.Set("a", true), "catch-all's bool type must not apply to a")
		require.NoError(t, m.Set("b", true))
		require.Error(t, m.Set("b", 42))
	})

	t.Run("Success: open-key map accepts undeclared keys", func(t *testing.T) {
		t.Parallel()
		schema := entrytype.Entries{{Key: entrytype.K("a"), Value: entrytype.Number}}
		m := typedmap.New(schema, typedmap.WithOpenKeys())
		require.NoError(t, m.Set("extra", struct{ X int }{1}))
		require.NoError(t, m.Set("a", 5))
		require.Error(t, m.Set("a", "five"), "declared keys stay checked on open maps")
	})

	t.Run("Success: set lifts a nested pair collection", func(t *testing.T) {
		t.Parallel()
		m := typedmap.New(nestedSchema())
		require.NoError(t, m.Set("c", entry.List{entry.E("d", entry.List{entry.E("e", 7)})}))

		cVal, _ := m.Get("c")
		c, ok := cVal.(*typedmap.Map)
		require.True(t, ok)
		dVal, _ := c.Get("d")
		d, ok := dVal.(*typedmap.Map)
		require.True(t, ok)
		e, _ := d.Get("e")
		require.Equal(t, 7, e)
	})

	t.Run("Error: nested collection with undeclared inner key", func(t *testing.T) {
		t.Parallel()
		m := typedmap.New(nestedSchema())
		err := m.Set("c", entry.List{entry.E("zz", 1)})
		require.ErrorIs(t, err, typedmap.ErrUnknownKey)
	})

	t.Run("Error: non-comparable key", func(t *testing.T) {
		t.Parallel()
		m := typedmap.New(nil, typedmap.WithOpenKeys())
		require.ErrorIs(t, m.Set([]int{1}, "x"), typedmap.ErrBadKey)
	})
}

func TestMap_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	schema := entrytype.Entries{
		{Key: entrytype.K("a"), Value: entrytype.Number},
		{Key: entrytype.K("b"), Value: entrytype.Number},
	}

	t.Run("Success: deletes present key then fails the second time", func(t *testing.T) {
		t.Parallel()
		m, err := typedmap.From(ctx, schema, entry.E("a", 1), entry.E("b", 2))
		require.NoError(t, err)

		ok, err := m.Delete("a")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 1, m.Len())

		ok, err = m.Delete("a")
		require.NoError(t, err)
		require.False(t, ok, "second delete of the same key must report absence")
		require.Equal(t, 1, m.Len())
	})

	t.Run("Success: delete of absent key leaves size unchanged", func(t *testing.T) {
		t.Parallel()
		m, err := typedmap.From(ctx, schema, entry.E("a", 1))
		require.NoError(t, err)

		ok, err := m.Delete("b")
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, 1, m.Len())
	})
}

func TestMap_InferPolicies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("Widen: literal values get base primitive types", func(t *testing.T) {
		t.Parallel()
		m, err := typedmap.Infer(ctx, entrytype.Widen, entry.E("name", "Alice"))
		require.NoError(t, err)

		rt := entrytype.Resolve(m.EntryTypes(), entrytype.Widen, "name")
		require.True(t, rt.Equals(entrytype.String), "inferred type should be the general string, got %s", rt.FriendlyName())

		// the runtime value is untouched by widening
		v, _ := m.Get("name")
		require.Equal(t, "Alice", v)

		// any string is accepted afterwards
		require.NoError(t, m.Set("name", "Bob"))
	})

	t.Run("Preserve: literal values keep their literal types", func(t *testing.T) {
		t.Parallel()
		m, err := typedmap.Infer(ctx, entrytype.Preserve, entry.E("name", "Alice"))
		require.NoError(t, err)

		rt := entrytype.Resolve(m.EntryTypes(), entrytype.Preserve, "name")
		require.True(t, rt.Equals(entrytype.Lit("Alice")), "inferred type should stay the literal, got %s", rt.FriendlyName())

		require.NoError(t, m.Set("name", "Alice"))
		require.Error(t, m.Set("name", "Bob"), "only the original literal conforms under preserve")
	})

	t.Run("Infer lifts nested collections under both policies", func(t *testing.T) {
		t.Parallel()
		for _, policy := range []entrytype.Policy{entrytype.Widen, entrytype.Preserve} {
			m, err := typedmap.Infer(ctx, policy, entry.E("c", entry.List{entry.E("d", 4)}))
			require.NoError(t, err, "policy %s", policy)

			cVal, _ := m.Get("c")
			nested, ok := cVal.(*typedmap.Map)
			require.True(t, ok, "policy %s", policy)
			d, _ := nested.Get("d")
			require.Equal(t, 4, d)
		}
	})
}
