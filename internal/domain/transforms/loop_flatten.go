package transforms

import (
	"go/ast"
	"go/token"
	"log/slog"
)

// LoopFlatten rewrites multi-level loop nests into a single loop over the
// cross product of their iteration spaces. Three strategies are tried in
// order on each perfectly nested chain:
//
//  1. rectangular flattening: every level is a bounded range whose span is
//     independent of the other levels; one loop over the product of spans,
//     per-level indices recovered by nested division/modulo, preserving
//     iteration order (outermost slowest);
//  2. sparse offset-array flattening: a two-level nest whose inner bounds
//     are adjacent entries of one offset array becomes a single
//     pointer-chasing loop that bumps the outer index at each boundary;
//  3. generic state-machine un-nesting: a single loop guarded by the
//     conjunction of every level's bound with an odometer-style cascading
//     increment. Experimental; enabled by Policy.EnableStateMachine.
//
// A chain any strategy cannot handle is returned unchanged with a recorded
// skip reason.
type LoopFlatten struct{}

// Name implements Transformer.
func (LoopFlatten) Name() string { return "loop_flatten" }

// chainLevel is one loop of a perfectly nested chain.
type chainLevel struct {
	loop *ast.ForStmt
	spec *LoopSpec
}

// Apply implements Transformer.
func (t LoopFlatten) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		out := make([]ast.Stmt, 0, len(list))
		blockChanged := false

		for _, s := range list {
			fs, ok := s.(*ast.ForStmt)
			if !ok {
				out = append(out, s)
				continue
			}

			replacement, ok := t.flattenChain(fs, ctx)
			if !ok {
				out = append(out, s)
				continue
			}

			out = append(out, replacement...)
			blockChanged = true
		}

		return out, blockChanged
	})

	return changed, nil
}

// flattenChain inspects one candidate nest root and returns its flattened
// replacement statements, or ok=false to leave the nest unchanged.
func (t LoopFlatten) flattenChain(root *ast.ForStmt, ctx *Context) ([]ast.Stmt, bool) {
	levels, body := collectChain(root)
	if len(levels) < 2 {
		return nil, false
	}

	ctx.Report.Loops.LoopsInspected++
	line := ctx.Line(root.Pos())

	if stmts, reason := t.flattenSparse(levels, body, ctx); reason == "" {
		t.accept(ctx, len(levels))
		return stmts, true
	}

	if hasUnsafeTransfer(body) {
		ctx.Report.Skip(t.Name(), line, "body contains control transfer")
		return nil, false
	}

	if writesAny(body, inductionNames(levels)) {
		ctx.Report.Skip(t.Name(), line, "body writes an induction variable")
		return nil, false
	}

	if stmts, reason := t.flattenRectangular(levels, body); reason == "" {
		t.accept(ctx, len(levels))
		return stmts, true
	} else if !ctx.Policy.EnableStateMachine {
		ctx.Report.Skip(t.Name(), line, reason+"; state machine disabled")
		return nil, false
	}

	if stmts, reason := t.flattenStateMachine(levels, body); reason == "" {
		t.accept(ctx, len(levels))
		return stmts, true
	} else {
		ctx.Report.Skip(t.Name(), line, reason)
	}

	return nil, false
}

func (t LoopFlatten) accept(ctx *Context, depth int) {
	ctx.Report.Loops.ChainsFlattened++
	if depth > ctx.Report.Loops.MaxDepthFlattened {
		ctx.Report.Loops.MaxDepthFlattened = depth
	}

	slog.Debug("loop chain flattened", "depth", depth)
}

// collectChain walks a perfect nest: each body consists solely of the next
// nested loop, terminating at the innermost body. Levels without a derivable
// spec end the chain.
func collectChain(root *ast.ForStmt) ([]chainLevel, []ast.Stmt) {
	var levels []chainLevel

	current := root

	for {
		spec, ok := specFromFor(current)
		if !ok {
			break
		}

		levels = append(levels, chainLevel{loop: current, spec: spec})

		if len(current.Body.List) != 1 {
			break
		}

		next, ok := current.Body.List[0].(*ast.ForStmt)
		if !ok {
			break
		}

		current = next
	}

	if len(levels) == 0 {
		return nil, nil
	}

	last := levels[len(levels)-1].loop

	return levels, last.Body.List
}

func inductionNames(levels []chainLevel) map[string]struct{} {
	names := make(map[string]struct{}, len(levels))
	for _, lv := range levels {
		names[lv.spec.Var.Name] = struct{}{}
	}

	return names
}

// hasUnsafeTransfer reports whether the statements contain a control
// transfer that flattening cannot preserve: break, continue, goto, return,
// labels, or defer. The check is conservative and does not distinguish
// transfers bound to loops nested inside the body.
func hasUnsafeTransfer(stmts []ast.Stmt) bool {
	unsafe := false

	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			switch n.(type) {
			case *ast.BranchStmt, *ast.ReturnStmt, *ast.LabeledStmt, *ast.DeferStmt:
				unsafe = true
				return false
			}

			return !unsafe
		})
	}

	return unsafe
}

// writesAny reports whether the statements assign to any of the names.
func writesAny(stmts []ast.Stmt, names map[string]struct{}) bool {
	found := false

	check := func(e ast.Expr) {
		if base := targetBase(e); base != nil {
			if _, ok := names[base.Name]; ok {
				found = true
			}
		}
	}

	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			switch st := n.(type) {
			case *ast.AssignStmt:
				for _, lhs := range st.Lhs {
					check(lhs)
				}
			case *ast.IncDecStmt:
				check(st.X)
			case *ast.UnaryExpr:
				if st.Op == token.AND {
					check(st.X)
				}
			}

			return !found
		})
	}

	return found
}

// refsAny reports whether an expression references any of the names.
func refsAny(e ast.Expr, names map[string]struct{}) bool {
	if e == nil {
		return false
	}

	found := false

	ast.Inspect(e, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			if _, hit := names[id.Name]; hit {
				found = true
			}
		}

		return !found
	})

	return found
}

// flattenRectangular lowers a rectangular chain of `for i := 0; i < L; i++`
// levels into one loop over the product of the per-level spans.
//
// For spans L1..Lk the flattened index f runs over [0, L1*...*Lk); level j's
// induction variable is recovered as f / (L(j+1)*...*Lk) % Lj, so the
// original iteration order is preserved with the outermost level slowest.
func (t LoopFlatten) flattenRectangular(levels []chainLevel, body []ast.Stmt) ([]ast.Stmt, string) {
	induction := inductionNames(levels)

	spans := make([]ast.Expr, len(levels))

	for i, lv := range levels {
		if refsAny(lv.spec.Bound, induction) || refsAny(lv.spec.Init, induction) {
			return nil, "non-rectangular nest"
		}

		if !exprPure(lv.spec.Bound) {
			return nil, "bound expression not pure"
		}

		span := lv.spec.spanLen()
		if span == nil {
			return nil, "level span not derivable"
		}

		spans[i] = span
	}

	total := maybeParen(spans[0])
	for _, span := range spans[1:] {
		total = binExpr(total, token.MUL, maybeParen(cloneOrSelf(span)))
	}

	alloc := newNameAllocator(append([]ast.Stmt{levels[0].loop}, body...))
	flat := alloc.fresh("idx")

	decls := make([]ast.Stmt, 0, len(levels))

	for j, lv := range levels {
		// Product of the spans below this level.
		var suffix ast.Expr
		for _, span := range spans[j+1:] {
			cloned := cloneOrSelf(span)
			if suffix == nil {
				suffix = maybeParen(cloned)
			} else {
				suffix = binExpr(suffix, token.MUL, maybeParen(cloned))
			}
		}

		var value ast.Expr = ident(flat)
		if suffix != nil {
			value = binExpr(value, token.QUO, &ast.ParenExpr{X: suffix})
		}

		if j > 0 {
			value = binExpr(value, token.REM, maybeParen(cloneOrSelf(spans[j])))
		}

		if iv, _ := constInt(lv.spec.Init); iv != 0 {
			value = binExpr(maybeParen(value), token.ADD, intLit(iv))
		}

		tok := token.ASSIGN
		if lv.spec.Declares {
			tok = token.DEFINE
		}

		decls = append(decls, &ast.AssignStmt{
			Lhs: []ast.Expr{ident(lv.spec.Var.Name)},
			Tok: tok,
			Rhs: []ast.Expr{value},
		})
	}

	loop := &ast.ForStmt{
		Init: &ast.AssignStmt{Lhs: []ast.Expr{ident(flat)}, Tok: token.DEFINE, Rhs: []ast.Expr{intLit(0)}},
		Cond: binExpr(ident(flat), token.LSS, total),
		Post: &ast.IncDecStmt{X: ident(flat), Tok: token.INC},
		Body: &ast.BlockStmt{List: append(decls, body...)},
	}

	return []ast.Stmt{loop}, ""
}

func cloneOrSelf(e ast.Expr) ast.Expr {
	if c := cloneExpr(e); c != nil {
		return c
	}

	return e
}

// flattenSparse recognizes the offset-array traversal
//
//	for i := 0; i < n; i++ {
//		for k := ptr[i]; k < ptr[i+1]; k++ { ... }
//	}
//
// and lowers it to one loop that chases k from ptr[0] to ptr[n], bumping i
// whenever k reaches the next boundary.
func (t LoopFlatten) flattenSparse(levels []chainLevel, body []ast.Stmt, ctx *Context) ([]ast.Stmt, string) {
	if len(levels) != 2 {
		return nil, "not a two-level nest"
	}

	outer, inner := levels[0].spec, levels[1].spec

	if iv, ok := constInt(outer.Init); !ok || iv != 0 || outer.Cond != token.LSS || outer.StepSign != 1 || outer.Step != nil {
		return nil, "outer loop not a zero-based count"
	}

	if inner.Cond != token.LSS || inner.StepSign != 1 || inner.Step != nil {
		return nil, "inner loop not an ascending scan"
	}

	lo, ok := inner.Init.(*ast.IndexExpr)
	if !ok {
		return nil, "inner start is not an offset-array entry"
	}

	hi, ok := inner.Bound.(*ast.IndexExpr)
	if !ok {
		return nil, "inner bound is not an offset-array entry"
	}

	base, ok := lo.X.(*ast.Ident)
	if !ok || !isIdentNamed(hi.X, base.Name) {
		return nil, "inner bounds use different arrays"
	}

	if !isIdentNamed(lo.Index, outer.Var.Name) {
		return nil, "inner start does not index the outer variable"
	}

	next, ok := hi.Index.(*ast.BinaryExpr)
	if !ok || next.Op != token.ADD || !isIdentNamed(next.X, outer.Var.Name) {
		return nil, "inner bound is not the adjacent entry"
	}

	if one, ok := constInt(next.Y); !ok || one != 1 {
		return nil, "inner bound is not the adjacent entry"
	}

	if hasUnsafeTransfer(body) {
		return nil, "body contains control transfer"
	}

	if writesAny(body, inductionNames(levels)) {
		return nil, "body writes an induction variable"
	}

	bound := cloneOrSelf(outer.Bound)
	iName := outer.Var.Name
	kName := inner.Var.Name

	outerTok := token.ASSIGN
	if outer.Declares {
		outerTok = token.DEFINE
	}

	initOuter := &ast.AssignStmt{
		Lhs: []ast.Expr{ident(iName)},
		Tok: outerTok,
		Rhs: []ast.Expr{intLit(0)},
	}

	// for k+1 boundary catch-up: for k >= ptr[i+1] { i++ }
	bump := &ast.ForStmt{
		Cond: binExpr(
			ident(kName),
			token.GEQ,
			&ast.IndexExpr{X: ident(base.Name), Index: binExpr(ident(iName), token.ADD, intLit(1))},
		),
		Body: &ast.BlockStmt{List: []ast.Stmt{
			&ast.IncDecStmt{X: ident(iName), Tok: token.INC},
		}},
	}

	loop := &ast.ForStmt{
		Init: &ast.AssignStmt{
			Lhs: []ast.Expr{ident(kName)},
			Tok: token.DEFINE,
			Rhs: []ast.Expr{&ast.IndexExpr{X: ident(base.Name), Index: intLit(0)}},
		},
		Cond: binExpr(ident(kName), token.LSS, &ast.IndexExpr{X: ident(base.Name), Index: bound}),
		Post: &ast.IncDecStmt{X: ident(kName), Tok: token.INC},
		Body: &ast.BlockStmt{List: append([]ast.Stmt{bump}, body...)},
	}

	return []ast.Stmt{initOuter, loop}, ""
}

// flattenStateMachine lowers a chain into one loop guarded by the
// conjunction of every level's bound, with an odometer-style cascading
// increment: the innermost level advances once per iteration; on overflow it
// resets and the next outer level advances.
func (t LoopFlatten) flattenStateMachine(levels []chainLevel, body []ast.Stmt) ([]ast.Stmt, string) {
	induction := inductionNames(levels)

	for _, lv := range levels {
		if lv.spec.StepSign == 0 {
			return nil, "step direction not statically known"
		}

		if refsAny(lv.spec.Bound, induction) || refsAny(lv.spec.Init, induction) {
			return nil, "bounds depend on an induction variable"
		}

		if !exprPure(lv.spec.Bound) || !exprPure(lv.spec.Init) {
			return nil, "bounds not pure"
		}

		if cloneExpr(lv.spec.Bound) == nil || cloneExpr(lv.spec.Init) == nil {
			return nil, "bounds not duplicable"
		}
	}

	stmts := make([]ast.Stmt, 0, len(levels)+1)

	for _, lv := range levels {
		stmts = append(stmts, lv.spec.initStmt())
	}

	// Guard: outermost condition first.
	guard := lv0Cond(levels[0].spec)
	for _, lv := range levels[1:] {
		guard = binExpr(guard, token.LAND, lv0Cond(lv.spec))
	}

	// Odometer: advance the innermost level, then cascade carries outward.
	innermost := levels[len(levels)-1]
	advance := []ast.Stmt{innermost.spec.postStmt()}

	carry := buildCarry(levels, len(levels)-1)
	if carry != nil {
		advance = append(advance, carry)
	}

	loop := &ast.ForStmt{
		Cond: guard,
		Body: &ast.BlockStmt{List: append(append([]ast.Stmt{}, body...), advance...)},
	}

	stmts = append(stmts, loop)

	return stmts, ""
}

func lv0Cond(spec *LoopSpec) ast.Expr {
	return binExpr(ident(spec.Var.Name), spec.Cond, cloneOrSelf(spec.Bound))
}

// buildCarry builds the cascading overflow check for level j: when level j
// leaves its range, reset it and advance level j-1, recursing outward. The
// outermost level has no carry; its overflow exits through the guard.
func buildCarry(levels []chainLevel, j int) ast.Stmt {
	if j == 0 {
		return nil
	}

	spec := levels[j].spec

	reset := &ast.AssignStmt{
		Lhs: []ast.Expr{ident(spec.Var.Name)},
		Tok: token.ASSIGN,
		Rhs: []ast.Expr{cloneOrSelf(spec.Init)},
	}

	bodyList := []ast.Stmt{reset, levels[j-1].spec.postStmt()}

	if inner := buildCarry(levels, j-1); inner != nil {
		bodyList = append(bodyList, inner)
	}

	return &ast.IfStmt{
		Cond: notExpr(lv0Cond(spec)),
		Body: &ast.BlockStmt{List: bodyList},
	}
}
