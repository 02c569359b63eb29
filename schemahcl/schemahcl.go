// Package schemahcl loads a typedmap pair-collection schema from HCL
// text. A schema file is a sequence of entry blocks, optionally closed
// by catchall blocks covering the residual key space:
//
//	entry "name" { type = string }
//	entry "retries" { type = number }
//	entry "greeting" { value = "hello" }
//	entry "nested" {
//	  entries {
//	    entry "leaf" { type = number }
//	  }
//	}
//	catchall {
//	  keys   = ["a", "b", "c"]
//	  except = ["a"]
//	  type   = bool
//	}
//
// An entry with a value attribute declares a literal type: only that
// exact value is admitted. An entries block declares a nested pair
// collection for the key.
package schemahcl

import (
	"context"
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/typedmap/entrytype"
	"github.com/vk/typedmap/internal/ctxlog"
)

// entryBlock represents one `entry "name" { ... }` block.
type entryBlock struct {
	Name    string         `hcl:"name,label"`
	Type    hcl.Expression `hcl:"type,optional"`
	Value   hcl.Expression `hcl:"value,optional"`
	Entries *entriesBlock  `hcl:"entries,block"`
}

// catchallBlock represents a `catchall { ... }` block: the closed key
// universe, its exclusions, and the value type the residual keys get.
type catchallBlock struct {
	Keys   []string       `hcl:"keys"`
	Except []string       `hcl:"except,optional"`
	Type   hcl.Expression `hcl:"type"`
}

// entriesBlock is the body shape of both a schema file and a nested
// entries block.
type entriesBlock struct {
	Entries   []*entryBlock    `hcl:"entry,block"`
	Catchalls []*catchallBlock `hcl:"catchall,block"`
}

// Load parses src as HCL and translates it into a pair-collection
// type. filename is used in diagnostics only.
func Load(ctx context.Context, src []byte, filename string) (entrytype.Entries, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	var root entriesBlock
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	es, err := translateEntries(ctx, &root)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded entries schema from HCL",
		"file", filename, "entries", len(root.Entries), "catchalls", len(root.Catchalls))
	return es, nil
}

func translateEntries(ctx context.Context, b *entriesBlock) (entrytype.Entries, error) {
	out := make(entrytype.Entries, 0, len(b.Entries)+len(b.Catchalls))
	for _, e := range b.Entries {
		vt, err := translateEntryValue(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Name, err)
		}
		out = append(out, entrytype.EntryType{Key: entrytype.K(e.Name), Value: vt})
	}
	for _, c := range b.Catchalls {
		vt, err := typeExprToType(ctx, c.Type)
		if err != nil {
			return nil, fmt.Errorf("catchall: %w", err)
		}
		out = append(out, entrytype.EntryType{
			Key:   entrytype.Catchall{Universe: toAnySlice(c.Keys), Except: toAnySlice(c.Except)},
			Value: vt,
		})
	}
	return out, nil
}

func translateEntryValue(ctx context.Context, e *entryBlock) (entrytype.Type, error) {
	if e.Entries != nil {
		return translateEntries(ctx, e.Entries)
	}
	declared, err := typeExprToType(ctx, e.Type)
	if err != nil {
		return nil, err
	}
	if isAbsent(e.Value) {
		return declared, nil
	}
	val, diags := e.Value.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating value: %w", diags)
	}
	if p, ok := declared.(entrytype.Primitive); ok {
		converted, err := convert.Convert(val, p.CtyType)
		if err != nil {
			return nil, fmt.Errorf("value does not fit declared type %s: %w", p.FriendlyName(), err)
		}
		val = converted
	}
	gv, err := ctyToGo(val)
	if err != nil {
		return nil, err
	}
	return entrytype.Lit(gv), nil
}

// typeExprToType converts an HCL type expression into the engine's
// type model. A nil or absent expression defaults to any, matching how
// a manifest omits a type it does not care about.
func typeExprToType(ctx context.Context, expr hcl.Expression) (entrytype.Type, error) {
	logger := ctxlog.FromContext(ctx)

	if isAbsent(expr) {
		logger.Debug("type expression is absent, defaulting to any")
		return entrytype.Dynamic{}, nil
	}

	keywords := hcl.ExprAsKeyword(expr)
	switch keywords {
	case "string":
		return entrytype.String, nil
	case "number":
		return entrytype.Number, nil
	case "bool":
		return entrytype.Bool, nil
	case "bytes":
		return entrytype.Bytes{}, nil
	case "any":
		return entrytype.Dynamic{}, nil
	case "":
		return nil, fmt.Errorf("unsupported expression for type definition: %T", expr)
	default:
		return nil, fmt.Errorf("unknown primitive type %q", keywords)
	}
}

// isAbsent reports whether an optional expression attribute was left
// out of the block.
func isAbsent(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	// gohcl fills absent optional expression attributes with a
	// synthetic null literal.
	v, diags := expr.Value(nil)
	return !diags.HasErrors() && v.IsNull() && hcl.ExprAsKeyword(expr) == ""
}

func ctyToGo(v cty.Value) (any, error) {
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return v.True(), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	}
	return nil, fmt.Errorf("unsupported literal value of type %s", v.Type().FriendlyName())
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
