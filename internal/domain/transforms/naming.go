package transforms

import (
	"fmt"
	"go/ast"
	"go/token"
)

// VariableNaming renames the locals of each function to the uniform scheme
// var_0, var_1, ... in order of first declaration, erasing the author's
// naming. Parameters, results, and package-level names are untouched; only
// names introduced inside the body with := or var participate.
type VariableNaming struct{}

// Name implements Transformer.
func (VariableNaming) Name() string { return "variable_naming" }

// Apply implements Transformer.
func (t VariableNaming) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := false

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}

		if t.renameLocals(fn.Body) {
			changed = true
		}
	}

	return changed, nil
}

// renameLocals collects names declared in the body and rewrites every
// identifier occurrence. Shadowing collapses: two declarations of the same
// name map to one replacement, which preserves well-formedness since every
// occurrence is renamed consistently.
func (t VariableNaming) renameLocals(body *ast.BlockStmt) bool {
	renames := make(map[string]string)

	claim := func(id *ast.Ident) {
		if id == nil || id.Name == "_" {
			return
		}

		if _, seen := renames[id.Name]; !seen {
			renames[id.Name] = fmt.Sprintf("var_%d", len(renames))
		}
	}

	ast.Inspect(body, func(n ast.Node) bool {
		switch st := n.(type) {
		case *ast.AssignStmt:
			if st.Tok != token.DEFINE {
				return true
			}

			for _, lhs := range st.Lhs {
				if id, ok := lhs.(*ast.Ident); ok {
					claim(id)
				}
			}
		case *ast.GenDecl:
			if st.Tok != token.VAR {
				return true
			}

			for _, spec := range st.Specs {
				if vs, ok := spec.(*ast.ValueSpec); ok {
					for _, id := range vs.Names {
						claim(id)
					}
				}
			}
		case *ast.RangeStmt:
			if st.Tok != token.DEFINE {
				return true
			}

			if id, ok := st.Key.(*ast.Ident); ok {
				claim(id)
			}

			if id, ok := st.Value.(*ast.Ident); ok {
				claim(id)
			}
		case *ast.TypeSwitchStmt:
			// The bound name lives in the assign inside.
			return true
		}

		return true
	})

	if len(renames) == 0 {
		return false
	}

	var visit func(n ast.Node) bool

	visit = func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.SelectorExpr:
			ast.Inspect(x.X, visit)
			return false
		case *ast.KeyValueExpr:
			// Struct literal keys are field names.
			ast.Inspect(x.Value, visit)
			return false
		case *ast.Ident:
			if to, ok := renames[x.Name]; ok {
				x.Name = to
			}
		}

		return true
	}

	ast.Inspect(body, visit)

	return true
}
