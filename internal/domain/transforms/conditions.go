package transforms

import (
	"go/ast"
	"go/token"
)

// IfInvertCondition negates each if condition and swaps the branches. An if
// without an else gains an empty else block so the swap is meaningful; an
// else-if arm is wrapped in a block so it can become the then branch.
type IfInvertCondition struct{}

// Name implements Transformer.
func (IfInvertCondition) Name() string { return "if_invert_condition" }

// Apply implements Transformer.
func (IfInvertCondition) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := false

	ast.Inspect(file, func(n ast.Node) bool {
		st, ok := n.(*ast.IfStmt)
		if !ok {
			return true
		}

		st.Cond = notExpr(st.Cond)

		var alt *ast.BlockStmt

		switch e := st.Else.(type) {
		case nil:
			alt = &ast.BlockStmt{}
		case *ast.BlockStmt:
			alt = e
		case *ast.IfStmt:
			alt = &ast.BlockStmt{List: []ast.Stmt{e}}
		default:
			return true
		}

		st.Else = st.Body
		st.Body = alt
		changed = true

		return true
	})

	return changed, nil
}

// RemoveElse drops every else branch, keeping only the then body.
type RemoveElse struct{}

// Name implements Transformer.
func (RemoveElse) Name() string { return "remove_else" }

// Apply implements Transformer.
func (RemoveElse) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := false

	ast.Inspect(file, func(n ast.Node) bool {
		if st, ok := n.(*ast.IfStmt); ok && st.Else != nil {
			st.Else = nil
			changed = true
		}

		return true
	})

	return changed, nil
}

// ReorderCondition mirrors comparisons and swaps the operands of symmetric
// boolean operators, preserving meaning: `a < b` becomes `b > a`, `p && q`
// becomes `q && p`. Short-circuit order changes, so operands guarded by the
// other side (nil checks before dereference) can change behavior; that is
// the point of the mutation.
type ReorderCondition struct{}

// Name implements Transformer.
func (ReorderCondition) Name() string { return "reorder_condition" }

// Apply implements Transformer.
func (ReorderCondition) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := false

	reorder := func(e ast.Expr) {
		ast.Inspect(e, func(n ast.Node) bool {
			be, ok := n.(*ast.BinaryExpr)
			if !ok {
				return true
			}

			switch be.Op {
			case token.LSS:
				be.Op = token.GTR
			case token.GTR:
				be.Op = token.LSS
			case token.LEQ:
				be.Op = token.GEQ
			case token.GEQ:
				be.Op = token.LEQ
			case token.EQL, token.NEQ, token.LAND, token.LOR:
			default:
				return true
			}

			be.X, be.Y = be.Y, be.X
			changed = true

			return true
		})
	}

	ast.Inspect(file, func(n ast.Node) bool {
		switch st := n.(type) {
		case *ast.IfStmt:
			reorder(st.Cond)
		case *ast.ForStmt:
			if st.Cond != nil {
				reorder(st.Cond)
			}
		}

		return true
	})

	return changed, nil
}

// IfNormalize rewrites conditionals toward a canonical shape. Four rules,
// applied wherever they match:
//
//  1. De Morgan: a negated composite condition is pushed one level inward;
//  2. positivity: `if !c { A } else { B }` becomes `if c { B } else { A }`;
//  3. nested-if collapse: an if whose sole statement is another else-less if
//     becomes one if with the conjoined condition;
//  4. redundant-else hoist: when the then branch always terminates, the else
//     body is hoisted after the if.
type IfNormalize struct{}

// Name implements Transformer.
func (IfNormalize) Name() string { return "if_normalize" }

// Apply implements Transformer.
func (t IfNormalize) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := false

	ast.Inspect(file, func(n ast.Node) bool {
		st, ok := n.(*ast.IfStmt)
		if !ok {
			return true
		}

		if c, ok := deMorganOnce(st.Cond); ok {
			st.Cond = c
			changed = true
		}

		if t.positivitySwap(st) {
			changed = true
		}

		if t.collapseNested(st) {
			changed = true
		}

		return true
	})

	// Else hoisting splices statements, so it works on statement lists.
	if rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		return t.hoistElse(list)
	}) {
		changed = true
	}

	return changed, nil
}

// deMorganOnce pushes one outer negation of a composite condition inward:
// !(a && b) becomes !a || !b, !(a || b) becomes !a && !b, and !!a becomes a.
func deMorganOnce(e ast.Expr) (ast.Expr, bool) {
	ue, ok := e.(*ast.UnaryExpr)
	if !ok || ue.Op != token.NOT {
		return nil, false
	}

	inner := ue.X
	if pe, ok := inner.(*ast.ParenExpr); ok {
		inner = pe.X
	}

	switch x := inner.(type) {
	case *ast.BinaryExpr:
		var flipped token.Token

		switch x.Op {
		case token.LAND:
			flipped = token.LOR
		case token.LOR:
			flipped = token.LAND
		default:
			return nil, false
		}

		return binExpr(notExpr(x.X), flipped, notExpr(x.Y)), true
	case *ast.UnaryExpr:
		if x.Op == token.NOT {
			return x.X, true
		}
	}

	return nil, false
}

// positivitySwap turns `if !c { A } else { B }` into `if c { B } else { A }`.
// Only plain block elses participate; swapping into an else-if chain would
// reorder its guards.
func (IfNormalize) positivitySwap(st *ast.IfStmt) bool {
	ue, ok := st.Cond.(*ast.UnaryExpr)
	if !ok || ue.Op != token.NOT {
		return false
	}

	alt, ok := st.Else.(*ast.BlockStmt)
	if !ok {
		return false
	}

	cond := ue.X
	if pe, ok := cond.(*ast.ParenExpr); ok {
		cond = pe.X
	}

	st.Cond = cond
	st.Else = st.Body
	st.Body = alt

	return true
}

// collapseNested merges `if a { if b { A } }` into `if a && b { A }` when
// neither if carries an else or an init statement.
func (IfNormalize) collapseNested(st *ast.IfStmt) bool {
	if st.Else != nil || st.Init != nil || len(st.Body.List) != 1 {
		return false
	}

	inner, ok := st.Body.List[0].(*ast.IfStmt)
	if !ok || inner.Else != nil || inner.Init != nil {
		return false
	}

	st.Cond = andExpr(st.Cond, inner.Cond)
	st.Body = inner.Body

	return true
}

// hoistElse replaces `if c { ...return } else { B }` with the if followed by
// B when every path through the then branch terminates.
func (IfNormalize) hoistElse(list []ast.Stmt) ([]ast.Stmt, bool) {
	out := make([]ast.Stmt, 0, len(list))
	changed := false

	for _, s := range list {
		st, ok := s.(*ast.IfStmt)
		if !ok {
			out = append(out, s)
			continue
		}

		alt, ok := st.Else.(*ast.BlockStmt)
		if !ok || !blockTerminates(st.Body.List) {
			out = append(out, s)
			continue
		}

		st.Else = nil
		out = append(out, st)
		out = append(out, alt.List...)
		changed = true
	}

	return out, changed
}

// BooleanExchange flips the value of one boolean local per function: the
// first `x := true` or `x := false` declaration keeps its spelling while
// every later read of x is replaced with the opposite literal.
type BooleanExchange struct{}

// Name implements Transformer.
func (BooleanExchange) Name() string { return "boolean_exchange" }

// Apply implements Transformer.
func (t BooleanExchange) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := false

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}

		name, flipped := t.firstBoolTarget(fn.Body)
		if name == "" {
			continue
		}

		if t.replaceReads(fn.Body, name, flipped) {
			changed = true
		}
	}

	return changed, nil
}

// firstBoolTarget finds the first `x := true/false` in the body and returns
// the name plus the opposite literal spelling.
func (BooleanExchange) firstBoolTarget(body *ast.BlockStmt) (string, string) {
	var name, flipped string

	ast.Inspect(body, func(n ast.Node) bool {
		if name != "" {
			return false
		}

		as, ok := n.(*ast.AssignStmt)
		if !ok || as.Tok != token.DEFINE || len(as.Lhs) != 1 || len(as.Rhs) != 1 {
			return true
		}

		id, ok := as.Lhs[0].(*ast.Ident)
		if !ok || id.Name == "_" {
			return true
		}

		rhs, ok := as.Rhs[0].(*ast.Ident)
		if !ok {
			return true
		}

		switch rhs.Name {
		case "true":
			name, flipped = id.Name, "false"
		case "false":
			name, flipped = id.Name, "true"
		}

		return name == ""
	})

	return name, flipped
}

// replaceReads substitutes the flipped literal for every load of name after
// its declaration. Store positions keep the original identifier so the
// program still compiles; subsequent declarations of the same name shadow
// and end the replacement being meaningful, which is accepted.
func (BooleanExchange) replaceReads(body *ast.BlockStmt, name, flipped string) bool {
	changed := false
	declSeen := false

	stores := make(map[*ast.Ident]struct{})

	ast.Inspect(body, func(n ast.Node) bool {
		switch st := n.(type) {
		case *ast.AssignStmt:
			for _, lhs := range st.Lhs {
				if id, ok := lhs.(*ast.Ident); ok {
					stores[id] = struct{}{}
				}
			}
		case *ast.IncDecStmt:
			if id, ok := st.X.(*ast.Ident); ok {
				stores[id] = struct{}{}
			}
		}

		return true
	})

	var visit func(n ast.Node) bool

	visit = func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.SelectorExpr:
			// Field names are not variable reads.
			ast.Inspect(x.X, visit)
			return false
		case *ast.KeyValueExpr:
			ast.Inspect(x.Value, visit)
			return false
		case *ast.Ident:
			if x.Name != name {
				return true
			}

			if _, isStore := stores[x]; isStore {
				declSeen = true
				return true
			}

			if !declSeen {
				return true
			}

			x.Name = flipped
			changed = true
		}

		return true
	}

	ast.Inspect(body, visit)

	return changed
}
