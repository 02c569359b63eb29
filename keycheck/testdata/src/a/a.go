package a

import (
	"context"

	"github.com/vk/typedmap"
	"github.com/vk/typedmap/entrytype"
)

func declaredKeys() {
	m := typedmap.New(entrytype.Entries{
		{Key: entrytype.K("a"), Value: entrytype.Number},
		{Key: entrytype.Key{Value: "b"}, Value: entrytype.String},
	})
	m.Set("a", 1)
	_, _ = m.Get("b")
	m.Set("c", 1)    // want `key "c" is not declared in the schema of m`
	m.Delete("d")    // want `key "d" is not declared in the schema of m`
	m.MustSet("e", 2) // want `key "e" is not declared in the schema of m`
	m.Has("f")        // want `key "f" is not declared in the schema of m`
	m.SetContext(context.Background(), "g", 3) // want `key "g" is not declared in the schema of m`
}

func varDecl() {
	var m = typedmap.New(entrytype.Entries{
		{Key: entrytype.K(1), Value: entrytype.Number},
	})
	m.Set(1, 1)
	m.Set(2, 1) // want `key 2 is not declared in the schema of m`
}

func fromConstruction(ctx context.Context) {
	m, _ := typedmap.From(ctx, entrytype.Entries{
		{Key: entrytype.K("x"), Value: entrytype.Number},
	}, "x", 1)
	m.Set("x", 2)
	m.Set("y", 2) // want `key "y" is not declared in the schema of m`
}

func openKeys() {
	m := typedmap.New(entrytype.Entries{
		{Key: entrytype.K("a"), Value: entrytype.Number},
	}, typedmap.WithOpenKeys())
	m.Set("anything", 1) // options make the schema unprovable, no report
}

func catchallSchema() {
	m := typedmap.New(entrytype.Entries{
		{Key: entrytype.K("a"), Value: entrytype.Number},
		{Key: entrytype.Catchall{Universe: []any{"b", "c"}}, Value: entrytype.Bool},
	})
	m.Set("c", true) // residual keys cannot be proven statically, no report
}

func nonConstantKey(k string) {
	m := typedmap.New(entrytype.Entries{
		{Key: entrytype.K("a"), Value: entrytype.Number},
	})
	m.Set(k, 1) // non-constant keys are left to the runtime check
}

func reassigned(cond bool) {
	m := typedmap.New(entrytype.Entries{
		{Key: entrytype.K("a"), Value: entrytype.Number},
	})
	if cond {
		m = typedmap.New(buildSchema())
	}
	m.Set("whatever", 1) // reassignment poisons the tracked schema, no report
}

func buildSchema() entrytype.Entries { return nil }
