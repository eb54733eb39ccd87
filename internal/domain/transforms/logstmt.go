package transforms

import (
	"go/ast"
)

// LogStatement inserts tracing prints into function bodies. Each function is
// gated on Policy.ProbInsert and receives between MinInserts and MaxInserts
// statements, placed per Policy.Position. The predeclared println is used so
// no import is touched.
type LogStatement struct{}

// Name implements Transformer.
func (LogStatement) Name() string { return "log_statement" }

// Apply implements Transformer.
func (LogStatement) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := false

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}

		rng := ctx.RandFor(fn.Name.Name)

		count := insertCount(rng, ctx)

		for i := 0; i < count; i++ {
			stmt := &ast.ExprStmt{
				X: &ast.CallExpr{
					Fun:  ident("println"),
					Args: []ast.Expr{strLit("LOG: reached " + fn.Name.Name)},
				},
			}

			fn.Body.List = insertAt(fn.Body.List, insertPosition(fn.Body.List, rng, ctx), stmt)
			changed = true
		}
	}

	return changed, nil
}
