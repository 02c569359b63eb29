// Package keycheck defines an Analyzer that checks constant keys at
// typedmap call sites against the container's declared schema.
package keycheck

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const Doc = `check typedmap keys against the declared schema

The type-level key checking the typedmap container encodes is enforced
at runtime by the checked-write boundary. This analyzer moves the same
diagnostic to vet time for the cases it can prove: when a container
variable is built directly from a literal entrytype.Entries schema of
exact constant keys, every Get/Set/Delete/Has call on that variable
with a constant key must use one of the declared keys.

Schemas containing catch-all patterns, non-constant keys, or options,
and variables that are reassigned, are left to the runtime check.
`

var Analyzer = &analysis.Analyzer{
	Name:     "typedmapkeys",
	Doc:      Doc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

const (
	modulePath     = "github.com/vk/typedmap"
	entriesType    = modulePath + "/entrytype.Entries"
	keyType        = modulePath + "/entrytype.Key"
	keyConstructor = modulePath + "/entrytype.K"
)

// methodKeyArg maps checked Map methods to the index of their key
// argument.
var methodKeyArg = map[string]int{
	"Get":        0,
	"Set":        0,
	"MustSet":    0,
	"Delete":     0,
	"Has":        0,
	"SetContext": 1,
}

type schemaInfo struct {
	keys     []constant.Value
	poisoned bool
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	schemas := make(map[types.Object]*schemaInfo)

	record := func(ident *ast.Ident, rhs ast.Expr) {
		if ident == nil || ident.Name == "_" {
			return
		}
		obj := pass.TypesInfo.Defs[ident]
		if obj == nil {
			obj = pass.TypesInfo.Uses[ident]
		}
		if obj == nil || !isMapVar(obj) {
			return
		}
		info := schemas[obj]
		if info == nil {
			info = &schemaInfo{}
			schemas[obj] = info
		}
		keys, ok := schemaKeysFromCall(pass, rhs)
		if !ok || info.keys != nil {
			// a second construction, or one we cannot prove, makes
			// the variable's schema undecidable
			info.poisoned = true
			return
		}
		info.keys = keys
	}

	declFilter := []ast.Node{
		(*ast.AssignStmt)(nil),
		(*ast.ValueSpec)(nil),
	}
	insp.Preorder(declFilter, func(n ast.Node) {
		switch stmt := n.(type) {
		case *ast.AssignStmt:
			if len(stmt.Rhs) == 1 && len(stmt.Lhs) > 1 {
				// m, err := From(...): the container is the first result
				if ident, ok := stmt.Lhs[0].(*ast.Ident); ok {
					record(ident, stmt.Rhs[0])
				}
				return
			}
			if len(stmt.Lhs) != len(stmt.Rhs) {
				return
			}
			for i, lhs := range stmt.Lhs {
				if ident, ok := lhs.(*ast.Ident); ok {
					record(ident, stmt.Rhs[i])
				}
			}
		case *ast.ValueSpec:
			if len(stmt.Names) != len(stmt.Values) {
				return
			}
			for i, name := range stmt.Names {
				record(name, stmt.Values[i])
			}
		}
	})

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}
		argIdx, checked := methodKeyArg[sel.Sel.Name]
		if !checked || len(call.Args) <= argIdx {
			return
		}
		recv, ok := sel.X.(*ast.Ident)
		if !ok {
			return
		}
		obj := pass.TypesInfo.Uses[recv]
		if obj == nil {
			return
		}
		info := schemas[obj]
		if info == nil || info.poisoned || info.keys == nil {
			return
		}
		keyArg := call.Args[argIdx]
		tv, ok := pass.TypesInfo.Types[keyArg]
		if !ok || tv.Value == nil {
			return
		}
		for _, declared := range info.keys {
			if sameConstant(tv.Value, declared) {
				return
			}
		}
		pass.Reportf(keyArg.Pos(), "key %s is not declared in the schema of %s",
			tv.Value.ExactString(), recv.Name)
	})

	return nil, nil
}

// isMapVar reports whether obj is a variable of type *typedmap.Map.
func isMapVar(obj types.Object) bool {
	if _, ok := obj.(*types.Var); !ok {
		return false
	}
	ptr, ok := obj.Type().(*types.Pointer)
	if !ok {
		return false
	}
	named, ok := ptr.Elem().(*types.Named)
	if !ok {
		return false
	}
	tn := named.Obj()
	return tn.Name() == "Map" && tn.Pkg() != nil && strings.HasSuffix(tn.Pkg().Path(), "typedmap")
}

// schemaKeysFromCall extracts the exact constant keys from a
// construction call whose schema argument is an Entries composite
// literal. The bool result is false whenever the schema cannot be
// proven closed and constant.
func schemaKeysFromCall(pass *analysis.Pass, rhs ast.Expr) ([]constant.Value, bool) {
	call, ok := rhs.(*ast.CallExpr)
	if !ok {
		return nil, false
	}
	fn := typeutilCallee(pass, call)
	if fn == nil {
		return nil, false
	}
	var schemaArg int
	switch fn.FullName() {
	case modulePath + ".New":
		// options change key acceptance; only a bare New is provable
		if len(call.Args) != 1 {
			return nil, false
		}
		schemaArg = 0
	case modulePath + ".From", modulePath + ".NewReadonly":
		schemaArg = 1
	default:
		return nil, false
	}
	if len(call.Args) <= schemaArg {
		return nil, false
	}
	return schemaKeysFromLiteral(pass, call.Args[schemaArg])
}

func schemaKeysFromLiteral(pass *analysis.Pass, arg ast.Expr) ([]constant.Value, bool) {
	lit, ok := arg.(*ast.CompositeLit)
	if !ok {
		return nil, false
	}
	tv, ok := pass.TypesInfo.Types[lit]
	if !ok || !namedTypeIs(tv.Type, entriesType) {
		return nil, false
	}
	keys := make([]constant.Value, 0, len(lit.Elts))
	for _, elt := range lit.Elts {
		entryLit, ok := elt.(*ast.CompositeLit)
		if !ok {
			return nil, false
		}
		keyExpr := fieldExpr(entryLit, "Key", 0)
		if keyExpr == nil {
			return nil, false
		}
		v, ok := exactKeyConstant(pass, keyExpr)
		if !ok {
			// catch-all or non-constant key pattern
			return nil, false
		}
		keys = append(keys, v)
	}
	return keys, true
}

// exactKeyConstant digs the constant out of entrytype.Key{Value: X},
// entrytype.K(X), or a bare constant expression.
func exactKeyConstant(pass *analysis.Pass, expr ast.Expr) (constant.Value, bool) {
	switch e := expr.(type) {
	case *ast.CompositeLit:
		tv, ok := pass.TypesInfo.Types[e]
		if !ok || !namedTypeIs(tv.Type, keyType) {
			return nil, false
		}
		inner := fieldExpr(e, "Value", 0)
		if inner == nil {
			return nil, false
		}
		return constantOf(pass, inner)
	case *ast.CallExpr:
		fn := typeutilCallee(pass, e)
		if fn == nil || fn.FullName() != keyConstructor || len(e.Args) != 1 {
			return nil, false
		}
		return constantOf(pass, e.Args[0])
	default:
		return constantOf(pass, expr)
	}
}

func constantOf(pass *analysis.Pass, expr ast.Expr) (constant.Value, bool) {
	tv, ok := pass.TypesInfo.Types[expr]
	if !ok || tv.Value == nil {
		return nil, false
	}
	return tv.Value, true
}

// fieldExpr returns the value of the named field in a keyed composite
// literal, or the positional element for unkeyed literals.
func fieldExpr(lit *ast.CompositeLit, name string, pos int) ast.Expr {
	for _, elt := range lit.Elts {
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			if ident, ok := kv.Key.(*ast.Ident); ok && ident.Name == name {
				return kv.Value
			}
		}
	}
	if len(lit.Elts) > pos {
		if _, keyed := lit.Elts[pos].(*ast.KeyValueExpr); !keyed {
			return lit.Elts[pos]
		}
	}
	return nil
}

func namedTypeIs(t types.Type, full string) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	tn := named.Obj()
	if tn.Pkg() == nil {
		return false
	}
	return tn.Pkg().Path()+"."+tn.Name() == full
}

// typeutilCallee resolves the called function, seeing through a
// package selector.
func typeutilCallee(pass *analysis.Pass, call *ast.CallExpr) *types.Func {
	var id *ast.Ident
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		id = fun
	case *ast.SelectorExpr:
		id = fun.Sel
	default:
		return nil
	}
	fn, _ := pass.TypesInfo.Uses[id].(*types.Func)
	return fn
}

// sameConstant compares two constants for equality across kinds the
// way Go equality on keys behaves: equal kind and equal value.
func sameConstant(a, b constant.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	return constant.Compare(a, token.EQL, b)
}
