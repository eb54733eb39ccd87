package transforms

import (
	"go/ast"
)

// ControlFlow restructures branching toward guard-clause style: an if whose
// else branch is a short terminating tail becomes an inverted guard that
// exits early, with the original then body hoisted to the enclosing block.
// Else-if chains whose preceding branches all terminate are flattened into
// sequential ifs.
type ControlFlow struct{}

// Name implements Transformer.
func (ControlFlow) Name() string { return "control_flow" }

// Apply implements Transformer.
func (t ControlFlow) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		list, flat := t.flattenChains(list)
		list, guarded := t.guardClauses(list)

		return list, flat || guarded
	})

	return changed, nil
}

// guardClauses converts `if c { A } else { tail }` into
// `if !c { tail }; A` when the else branch terminates and the then branch
// does not already do so. The longer arm stays unindented.
func (t ControlFlow) guardClauses(list []ast.Stmt) ([]ast.Stmt, bool) {
	out := make([]ast.Stmt, 0, len(list))
	changed := false

	for _, s := range list {
		st, ok := s.(*ast.IfStmt)
		if !ok || st.Init != nil {
			out = append(out, s)
			continue
		}

		alt, ok := st.Else.(*ast.BlockStmt)
		if !ok || !blockTerminates(alt.List) || blockTerminates(st.Body.List) {
			out = append(out, s)
			continue
		}

		body := st.Body

		st.Cond = notExpr(st.Cond)
		st.Body = alt
		st.Else = nil

		out = append(out, st)
		out = append(out, body.List...)
		changed = true
	}

	return out, changed
}

// flattenChains splits `if a { A } else if b { B } else { C }` into
// sequential ifs wherever every arm before the split terminates, so the
// chain's exclusivity is preserved without the else nesting.
func (t ControlFlow) flattenChains(list []ast.Stmt) ([]ast.Stmt, bool) {
	out := make([]ast.Stmt, 0, len(list))
	changed := false

	for _, s := range list {
		st, ok := s.(*ast.IfStmt)
		if !ok {
			out = append(out, s)
			continue
		}

		cur := st

		for {
			alt := cur.Else
			if cur.Init != nil || alt == nil || !blockTerminates(cur.Body.List) {
				out = append(out, cur)
				break
			}

			cur.Else = nil
			out = append(out, cur)
			changed = true

			if next, ok := alt.(*ast.IfStmt); ok {
				cur = next
				continue
			}

			out = append(out, alt.(*ast.BlockStmt).List...)

			break
		}
	}

	return out, changed
}
