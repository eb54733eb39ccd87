package transforms

import (
	"go/ast"
	"go/token"
)

// ExpressionDecompose splits compound right-hand sides into sequences of
// named intermediate steps: `x := a*b + c/d` becomes assignments to
// `product` and `quotient` followed by the final sum. Temporary names follow
// the operator (sum_value, diff_value, product, quotient, remainder) or the
// callee (foo_result), falling back to temp_N, all made collision-free
// against the enclosing block.
type ExpressionDecompose struct{}

// Name implements Transformer.
func (ExpressionDecompose) Name() string { return "expression" }

// Apply implements Transformer.
func (t ExpressionDecompose) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		alloc := newNameAllocator(list)
		out := make([]ast.Stmt, 0, len(list))
		blockChanged := false

		for _, s := range list {
			as, ok := s.(*ast.AssignStmt)
			if !ok || len(as.Rhs) != 1 || (as.Tok != token.DEFINE && as.Tok != token.ASSIGN) {
				out = append(out, s)
				continue
			}

			pre, rhs := t.decompose(as.Rhs[0], alloc)
			if len(pre) == 0 {
				out = append(out, s)
				continue
			}

			as.Rhs[0] = rhs
			out = append(out, pre...)
			out = append(out, as)
			blockChanged = true
		}

		return out, blockChanged
	})

	return changed, nil
}

// decompose hoists the compound sub-expressions of e into defining
// assignments and returns them with the residual expression. Only pure
// sub-expressions are hoisted; a call argument or operand with side effects
// must keep its evaluation point.
func (t ExpressionDecompose) decompose(e ast.Expr, alloc *nameAllocator) ([]ast.Stmt, ast.Expr) {
	var pre []ast.Stmt

	hoist := func(sub ast.Expr, name string) ast.Expr {
		fresh := alloc.fresh(name)

		pre = append(pre, &ast.AssignStmt{
			Lhs: []ast.Expr{ident(fresh)},
			Tok: token.DEFINE,
			Rhs: []ast.Expr{sub},
		})

		return ident(fresh)
	}

	switch x := e.(type) {
	case *ast.BinaryExpr:
		// Hoist compound operands, keep the top-level operator in place.
		if compound(x.X) && exprPure(x.X) {
			x.X = hoist(x.X, tempName(x.X))
		}

		if compound(x.Y) && exprPure(x.Y) {
			x.Y = hoist(x.Y, tempName(x.Y))
		}
	case *ast.CallExpr:
		for i, arg := range x.Args {
			if compound(arg) && exprPure(arg) {
				x.Args[i] = hoist(arg, tempName(arg))
			}
		}
	}

	return pre, e
}

// compound reports whether an expression is worth naming: anything beyond a
// bare identifier, literal, or selector chain.
func compound(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.BasicLit, *ast.Ident, *ast.SelectorExpr:
		return false
	case *ast.ParenExpr:
		return compound(x.X)
	case *ast.UnaryExpr:
		return compound(x.X)
	}

	return true
}

// tempName picks a descriptive name for a hoisted sub-expression.
func tempName(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.ParenExpr:
		return tempName(x.X)
	case *ast.BinaryExpr:
		switch x.Op {
		case token.ADD:
			return "sum_value"
		case token.SUB:
			return "diff_value"
		case token.MUL:
			return "product"
		case token.QUO:
			return "quotient"
		case token.REM:
			return "remainder"
		}
	case *ast.CallExpr:
		switch fun := x.Fun.(type) {
		case *ast.Ident:
			return fun.Name + "_result"
		case *ast.SelectorExpr:
			return fun.Sel.Name + "_result"
		}
	case *ast.IndexExpr:
		if base, ok := x.X.(*ast.Ident); ok {
			return base.Name + "_item"
		}
	}

	return "temp"
}
