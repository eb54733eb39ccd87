package transforms

import (
	"go/ast"
	"go/token"
)

// SwitchToIf lowers expression switches into if/else chains. Each case
// clause becomes `tag == v1 || tag == v2`; the default clause, wherever it
// appears, becomes the final else. Switches with an init clause, a
// fallthrough, a non-duplicable tag, or no tag at all are left alone.
type SwitchToIf struct{}

// Name implements Transformer.
func (SwitchToIf) Name() string { return "switch_to_if" }

// Apply implements Transformer.
func (t SwitchToIf) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		out := make([]ast.Stmt, 0, len(list))
		blockChanged := false

		for _, s := range list {
			sw, ok := s.(*ast.SwitchStmt)
			if !ok {
				out = append(out, s)
				continue
			}

			chain, ok := t.lower(sw, ctx)
			if !ok {
				out = append(out, s)
				continue
			}

			out = append(out, chain)
			blockChanged = true
		}

		return out, blockChanged
	})

	return changed, nil
}

func (t SwitchToIf) lower(sw *ast.SwitchStmt, ctx *Context) (ast.Stmt, bool) {
	if sw.Init != nil || sw.Tag == nil || len(sw.Body.List) == 0 {
		return nil, false
	}

	if cloneExpr(sw.Tag) == nil {
		ctx.Report.Skip(t.Name(), ctx.Line(sw.Pos()), "tag expression not duplicable")
		return nil, false
	}

	var arms []*ast.IfStmt

	var deflt *ast.BlockStmt

	for _, cs := range sw.Body.List {
		clause := cs.(*ast.CaseClause)

		if hasFallthrough(clause.Body) {
			ctx.Report.Skip(t.Name(), ctx.Line(clause.Pos()), "case uses fallthrough")
			return nil, false
		}

		if hasSwitchBreak(clause.Body) {
			ctx.Report.Skip(t.Name(), ctx.Line(clause.Pos()), "case breaks out of the switch")
			return nil, false
		}

		body := &ast.BlockStmt{List: clause.Body}

		if clause.List == nil {
			deflt = body
			continue
		}

		var cond ast.Expr

		for _, v := range clause.List {
			if cloneExpr(v) == nil {
				ctx.Report.Skip(t.Name(), ctx.Line(v.Pos()), "case value not duplicable")
				return nil, false
			}

			eq := binExpr(cloneExpr(sw.Tag), token.EQL, cloneExpr(v))
			if cond == nil {
				cond = eq
			} else {
				cond = binExpr(cond, token.LOR, eq)
			}
		}

		arms = append(arms, &ast.IfStmt{Cond: cond, Body: body})
	}

	if len(arms) == 0 {
		if deflt == nil {
			return nil, false
		}

		return deflt, true
	}

	for i := len(arms) - 1; i > 0; i-- {
		arms[i-1].Else = arms[i]
	}

	if deflt != nil {
		arms[len(arms)-1].Else = deflt
	}

	return arms[0], true
}

// hasSwitchBreak reports whether the statements contain a break that binds
// to the enclosing switch, which an if chain could not honor.
func hasSwitchBreak(stmts []ast.Stmt) bool {
	found := false

	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.ForStmt, *ast.RangeStmt, *ast.SwitchStmt, *ast.TypeSwitchStmt, *ast.SelectStmt:
				return false
			case *ast.BranchStmt:
				if x.Tok == token.BREAK && x.Label == nil {
					found = true
				}
			}

			return !found
		})
	}

	return found
}

func hasFallthrough(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if br, ok := s.(*ast.BranchStmt); ok && br.Tok == token.FALLTHROUGH {
			return true
		}
	}

	return false
}
