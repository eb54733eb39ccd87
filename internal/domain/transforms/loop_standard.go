package transforms

import (
	"go/ast"
	"go/token"
)

// LoopStandard interconverts counting loops and bounded range loops. A simple
// counting loop starting at zero with step one becomes `for i := range n`; a
// range loop over an integer bound becomes the equivalent counting loop; a
// while-shaped loop with a recognizable init and step is normalized to the
// counting form. Applying the transformation twice round-trips a supported
// counting loop, preserving initial value, bound, and step.
type LoopStandard struct{}

// Name implements Transformer.
func (LoopStandard) Name() string { return "loop_standard" }

// Apply implements Transformer.
func (t LoopStandard) Apply(file *ast.File, ctx *Context) (bool, error) {
	made := make(map[ast.Stmt]struct{})

	changed := rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		out := make([]ast.Stmt, 0, len(list))
		blockChanged := false

		for _, s := range list {
			if _, skip := made[s]; skip {
				out = append(out, s)
				continue
			}

			switch st := s.(type) {
			case *ast.RangeStmt:
				if spec, ok := specFromRange(st); ok {
					counting := spec.countingFor(st.Body.List)
					made[counting] = struct{}{}
					out = append(out, counting)
					blockChanged = true

					continue
				}
			case *ast.ForStmt:
				if spec, ok := specFromFor(st); ok {
					if rangeLoop, ok := rangeForm(spec, st.Body.List); ok {
						made[rangeLoop] = struct{}{}
						out = append(out, rangeLoop)
						blockChanged = true

						continue
					}

					ctx.Report.Skip(t.Name(), ctx.Line(st.Pos()), "counting loop not expressible as range")
				} else if len(out) > 0 {
					if spec, body, ok := specFromWhile(out[len(out)-1], st); ok {
						counting := spec.countingFor(body)
						made[counting] = struct{}{}
						out = out[:len(out)-1]
						out = append(out, counting)
						blockChanged = true

						continue
					}
				}
			}

			out = append(out, s)
		}

		return out, blockChanged
	})

	return changed, nil
}

// rangeForm converts a counting-loop spec to `for i := range bound` when the
// spec starts at zero, steps by one, and compares with <. The comparison
// direction of other specs cannot be expressed by a range loop.
func rangeForm(spec *LoopSpec, body []ast.Stmt) (*ast.RangeStmt, bool) {
	if !spec.Declares || spec.Cond != token.LSS || spec.StepSign != 1 || spec.Step != nil {
		return nil, false
	}

	if iv, ok := constInt(spec.Init); !ok || iv != 0 {
		return nil, false
	}

	if !intRangeOperand(spec.Bound) {
		return nil, false
	}

	stripPos(spec.Bound)

	return &ast.RangeStmt{
		Key:  ident(spec.Var.Name),
		Tok:  token.DEFINE,
		X:    spec.Bound,
		Body: &ast.BlockStmt{List: body},
	}, true
}
