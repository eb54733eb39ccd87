package transforms

import (
	"go/ast"
	"go/token"
)

// pureCalls is the allow-list of side-effect-free operations. Calls to
// anything else make an expression impure.
var pureCalls = map[string]struct{}{
	"len": {},
	"cap": {},
	"min": {},
	"max": {},
}

// exprPure reports whether an expression is built only from literals,
// variable reads, pure container literals, operators over pure
// sub-expressions, member/index access rooted at a plain variable, or
// allow-listed calls with pure arguments. Closures, channel operations,
// type assertions, and unknown calls are impure.
func exprPure(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.BasicLit, *ast.Ident:
		return true
	case *ast.ParenExpr:
		return exprPure(v.X)
	case *ast.UnaryExpr:
		// <-ch receives and &x aliases are observable effects.
		if v.Op == token.ARROW || v.Op == token.AND {
			return false
		}

		return exprPure(v.X)
	case *ast.BinaryExpr:
		return exprPure(v.X) && exprPure(v.Y)
	case *ast.CompositeLit:
		for _, elt := range v.Elts {
			if kv, ok := elt.(*ast.KeyValueExpr); ok {
				if !exprPure(kv.Key) || !exprPure(kv.Value) {
					return false
				}

				continue
			}

			if !exprPure(elt) {
				return false
			}
		}

		return true
	case *ast.SelectorExpr:
		return selectorRooted(v)
	case *ast.IndexExpr:
		if !accessRooted(v.X) {
			return false
		}

		return exprPure(v.Index)
	case *ast.SliceExpr:
		if !accessRooted(v.X) {
			return false
		}

		for _, bound := range []ast.Expr{v.Low, v.High, v.Max} {
			if bound != nil && !exprPure(bound) {
				return false
			}
		}

		return true
	case *ast.CallExpr:
		id, ok := v.Fun.(*ast.Ident)
		if !ok {
			return false
		}

		if _, ok := pureCalls[id.Name]; !ok {
			return false
		}

		for _, arg := range v.Args {
			if !exprPure(arg) {
				return false
			}
		}

		return true
	}

	return false
}

// selectorRooted reports whether a selector chain bottoms out at a plain
// identifier, so `x.y` and `x.y.z` count while `g().y` does not.
func selectorRooted(e *ast.SelectorExpr) bool {
	switch x := e.X.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		return selectorRooted(x)
	}

	return false
}

// accessRooted reports whether a member/index base resolves to a plain
// identifier, possibly through a selector chain.
func accessRooted(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		return selectorRooted(v)
	}

	return false
}

// targetSupported reports whether an assignment target is a plain variable or
// a member/index access rooted at one.
func targetSupported(t ast.Expr) bool {
	switch v := t.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		return selectorRooted(v)
	case *ast.IndexExpr:
		if !accessRooted(v.X) {
			return false
		}

		return exprPure(v.Index)
	}

	return false
}

// stmtPure reports whether a statement is a simple (possibly compound)
// assignment, increment/decrement, variable declaration, or bare expression
// statement whose value is pure and whose targets are supported.
func stmtPure(s ast.Stmt) bool {
	switch st := s.(type) {
	case *ast.AssignStmt:
		for _, lhs := range st.Lhs {
			if !targetSupported(lhs) {
				return false
			}

			// Compound assignment reads the target as well.
			if st.Tok != token.ASSIGN && st.Tok != token.DEFINE && !exprPure(lhs) {
				return false
			}
		}

		for _, rhs := range st.Rhs {
			if !exprPure(rhs) {
				return false
			}
		}

		return true
	case *ast.IncDecStmt:
		return targetSupported(st.X)
	case *ast.DeclStmt:
		gd, ok := st.Decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.VAR {
			return false
		}

		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				return false
			}

			for _, v := range vs.Values {
				if !exprPure(v) {
					return false
				}
			}
		}

		return true
	case *ast.ExprStmt:
		return exprPure(st.X)
	}

	return false
}

// targetBase resolves an assignment target to the base identifier it writes.
// A compound target (indexed/member assignment) counts conservatively as a
// write to its base identifier.
func targetBase(t ast.Expr) *ast.Ident {
	switch v := t.(type) {
	case *ast.Ident:
		return v
	case *ast.SelectorExpr:
		return targetBase(v.X)
	case *ast.IndexExpr:
		return targetBase(v.X)
	case *ast.ParenExpr:
		return targetBase(v.X)
	}

	return nil
}

// collectReads adds every variable identifier loaded inside e to the set,
// skipping selector field names and composite-literal keys.
func collectReads(e ast.Expr, reads map[string]struct{}) {
	ast.Inspect(e, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.SelectorExpr:
			collectReads(v.X, reads)
			return false
		case *ast.KeyValueExpr:
			collectReads(v.Value, reads)
			return false
		case *ast.Ident:
			if v.Name != "_" {
				reads[v.Name] = struct{}{}
			}
		}

		return true
	})
}

// readWriteSets returns the variable identifiers a statement reads and
// writes, plus its purity classification. Compound assignments and
// increments include the implicit read of their target.
func readWriteSets(s ast.Stmt) (reads, writes map[string]struct{}, pure bool) {
	reads = make(map[string]struct{})
	writes = make(map[string]struct{})
	pure = stmtPure(s)

	switch st := s.(type) {
	case *ast.AssignStmt:
		for _, lhs := range st.Lhs {
			if base := targetBase(lhs); base != nil && base.Name != "_" {
				writes[base.Name] = struct{}{}
			}

			// Index expressions and compound targets read their base
			// and index parts.
			switch v := lhs.(type) {
			case *ast.IndexExpr:
				collectReads(v.X, reads)
				collectReads(v.Index, reads)
			case *ast.SelectorExpr:
				collectReads(v.X, reads)
			case *ast.Ident:
				if st.Tok != token.ASSIGN && st.Tok != token.DEFINE && v.Name != "_" {
					reads[v.Name] = struct{}{}
				}
			}
		}

		for _, rhs := range st.Rhs {
			collectReads(rhs, reads)
		}
	case *ast.IncDecStmt:
		if base := targetBase(st.X); base != nil {
			writes[base.Name] = struct{}{}
			reads[base.Name] = struct{}{}
		}

		if idx, ok := st.X.(*ast.IndexExpr); ok {
			collectReads(idx.Index, reads)
		}
	case *ast.DeclStmt:
		gd, ok := st.Decl.(*ast.GenDecl)
		if !ok {
			break
		}

		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}

			for _, name := range vs.Names {
				if name.Name != "_" {
					writes[name.Name] = struct{}{}
				}
			}

			for _, v := range vs.Values {
				collectReads(v, reads)
			}
		}
	default:
		ast.Inspect(s, func(n ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok && id.Name != "_" {
				reads[id.Name] = struct{}{}
			}

			return true
		})
	}

	return reads, writes, pure
}

// intersects reports whether two identifier sets share an element.
func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}

	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}

	return false
}
