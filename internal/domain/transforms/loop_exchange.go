package transforms

import (
	"go/ast"
	"go/token"
)

// LoopExchange interconverts the two simple loop forms: a three-clause
// counting loop becomes an initializing assignment plus a condition-only
// (while-shaped) loop with the step at the body end, and vice versa.
type LoopExchange struct{}

// Name implements Transformer.
func (LoopExchange) Name() string { return "loop_exchange" }

// Apply implements Transformer.
func (t LoopExchange) Apply(file *ast.File, ctx *Context) (bool, error) {
	// Nodes synthesized in this pass are skipped so a converted loop is not
	// immediately converted back.
	made := make(map[ast.Stmt]struct{})

	changed := rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		out := make([]ast.Stmt, 0, len(list))
		blockChanged := false

		for _, s := range list {
			if _, skip := made[s]; skip {
				out = append(out, s)
				continue
			}

			fs, ok := s.(*ast.ForStmt)
			if !ok {
				out = append(out, s)
				continue
			}

			// Counting form -> init + while form. The step moves to the
			// body end, so a continue bound to this loop would skip it.
			if spec, ok := specFromFor(fs); ok {
				if hasLoopContinue(fs.Body.List) {
					ctx.Report.Skip(t.Name(), ctx.Line(fs.Pos()), "continue would bypass the relocated step")
					out = append(out, s)

					continue
				}

				init := spec.initStmt()
				while := &ast.ForStmt{
					Cond: spec.condExpr(),
					Body: &ast.BlockStmt{List: append(append([]ast.Stmt{}, fs.Body.List...), spec.postStmt())},
				}
				made[init] = struct{}{}
				made[while] = struct{}{}
				out = append(out, init, while)
				blockChanged = true

				continue
			}

			// While form -> counting form, consuming the preceding init.
			if len(out) > 0 {
				if spec, body, ok := specFromWhile(out[len(out)-1], fs); ok {
					counting := spec.countingFor(body)
					made[counting] = struct{}{}
					out = out[:len(out)-1]
					out = append(out, counting)
					blockChanged = true

					continue
				}
			}

			if fs.Init != nil && fs.Cond != nil && fs.Post != nil {
				ctx.Report.Skip(t.Name(), ctx.Line(fs.Pos()), "unsupported counting form")
			}

			out = append(out, s)
		}

		return out, blockChanged
	})

	return changed, nil
}

// hasLoopContinue reports whether the statements contain a continue binding
// to the enclosing loop rather than to a loop nested inside them.
func hasLoopContinue(stmts []ast.Stmt) bool {
	found := false

	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.ForStmt, *ast.RangeStmt:
				return false
			case *ast.BranchStmt:
				if x.Tok == token.CONTINUE {
					found = true
				}
			}

			return !found
		})
	}

	return found
}
