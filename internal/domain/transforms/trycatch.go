package transforms

import (
	"go/ast"
	"go/token"

	m "github.com/wibhim/codemorph/internal/model"
)

// TryCatchInsertion wraps randomly chosen statements per function in an
// immediately invoked closure guarded by a recover handler. Each function is
// gated on Policy.ProbInsert and receives between MinInserts and MaxInserts
// wraps, each on a distinct statement. In repanic mode the handler
// re-raises, so observable behavior is unchanged apart from the extra frame;
// in mask mode the recovered value is swallowed and execution continues
// after the wrapper.
//
// Statements that bind names into the surrounding scope or transfer control
// cannot be wrapped: declarations, short variable definitions, returns,
// branches, and defers are excluded from the draw.
type TryCatchInsertion struct{}

// Name implements Transformer.
func (TryCatchInsertion) Name() string { return "try_catch_insertion" }

// Apply implements Transformer.
func (t TryCatchInsertion) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := false

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}

		list := fn.Body.List

		var candidates []int

		for i := blockStart(list); i < len(list); i++ {
			if wrappable(list[i]) {
				candidates = append(candidates, i)
			}
		}

		if len(candidates) == 0 {
			continue
		}

		rng := ctx.RandFor(fn.Name.Name)

		count := insertCount(rng, ctx)

		for n := 0; n < count && len(candidates) > 0; n++ {
			pick := rng.Intn(len(candidates))
			idx := candidates[pick]

			fn.Body.List[idx] = recoverWrapper(fn.Body.List[idx], ctx.Policy.RecoverMode)
			candidates = append(candidates[:pick], candidates[pick+1:]...)
			changed = true
		}
	}

	return changed, nil
}

func wrappable(s ast.Stmt) bool {
	switch st := s.(type) {
	case *ast.AssignStmt:
		return st.Tok != token.DEFINE
	case *ast.ExprStmt, *ast.IncDecStmt, *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt,
		*ast.SwitchStmt, *ast.SendStmt:
		return !hasUnsafeTransfer([]ast.Stmt{s})
	}

	return false
}

// recoverWrapper builds
//
//	func() {
//		defer func() {
//			if r := recover(); r != nil { panic(r) }
//		}()
//		stmt
//	}()
//
// with the panic replaced by `_ = r` in mask mode.
func recoverWrapper(s ast.Stmt, mode m.RecoverMode) ast.Stmt {
	var handler ast.Stmt = &ast.ExprStmt{
		X: &ast.CallExpr{Fun: ident("panic"), Args: []ast.Expr{ident("r")}},
	}

	if mode == m.RecoverMask {
		handler = &ast.AssignStmt{
			Lhs: []ast.Expr{ident("_")},
			Tok: token.ASSIGN,
			Rhs: []ast.Expr{ident("r")},
		}
	}

	guard := &ast.IfStmt{
		Init: &ast.AssignStmt{
			Lhs: []ast.Expr{ident("r")},
			Tok: token.DEFINE,
			Rhs: []ast.Expr{&ast.CallExpr{Fun: ident("recover")}},
		},
		Cond: binExpr(ident("r"), token.NEQ, ident("nil")),
		Body: &ast.BlockStmt{List: []ast.Stmt{handler}},
	}

	deferred := &ast.DeferStmt{
		Call: &ast.CallExpr{
			Fun: &ast.FuncLit{
				Type: &ast.FuncType{Params: &ast.FieldList{}},
				Body: &ast.BlockStmt{List: []ast.Stmt{guard}},
			},
		},
	}

	return &ast.ExprStmt{
		X: &ast.CallExpr{
			Fun: &ast.FuncLit{
				Type: &ast.FuncType{Params: &ast.FieldList{}},
				Body: &ast.BlockStmt{List: []ast.Stmt{deferred, s}},
			},
		},
	}
}

// RemoveExceptions strips panic and recover plumbing: statements that only
// raise a panic are deleted, deferred recover handlers are removed, and
// recover wrappers previously produced by try_catch_insertion are unwrapped
// back to their payload statement.
type RemoveExceptions struct{}

// Name implements Transformer.
func (RemoveExceptions) Name() string { return "remove_exceptions" }

// Apply implements Transformer.
func (t RemoveExceptions) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		out := make([]ast.Stmt, 0, len(list))
		blockChanged := false

		for _, s := range list {
			switch {
			case isPanicStmt(s):
				blockChanged = true
			case isRecoverDefer(s):
				blockChanged = true
			default:
				if payload, ok := unwrapRecoverWrapper(s); ok {
					out = append(out, payload)
					blockChanged = true
				} else {
					out = append(out, s)
				}
			}
		}

		return out, blockChanged
	})

	return changed, nil
}

func isPanicStmt(s ast.Stmt) bool {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return false
	}

	call, ok := es.X.(*ast.CallExpr)

	return ok && isIdentNamed(call.Fun, "panic")
}

// isRecoverDefer matches a deferred closure whose body calls recover.
func isRecoverDefer(s ast.Stmt) bool {
	ds, ok := s.(*ast.DeferStmt)
	if !ok {
		return false
	}

	lit, ok := ds.Call.Fun.(*ast.FuncLit)
	if !ok {
		return false
	}

	found := false

	ast.Inspect(lit.Body, func(n ast.Node) bool {
		if call, ok := n.(*ast.CallExpr); ok && isIdentNamed(call.Fun, "recover") {
			found = true
		}

		return !found
	})

	return found
}

// unwrapRecoverWrapper recognizes the exact shape recoverWrapper emits and
// returns the wrapped payload.
func unwrapRecoverWrapper(s ast.Stmt) (ast.Stmt, bool) {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return nil, false
	}

	call, ok := es.X.(*ast.CallExpr)
	if !ok || len(call.Args) != 0 {
		return nil, false
	}

	lit, ok := call.Fun.(*ast.FuncLit)
	if !ok || len(lit.Body.List) != 2 {
		return nil, false
	}

	if !isRecoverDefer(lit.Body.List[0]) {
		return nil, false
	}

	return lit.Body.List[1], true
}
