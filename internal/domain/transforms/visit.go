package transforms

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
)

// blockRewriter rewrites one basic block (the statement list of a single
// control-flow region) and reports whether it changed it. funcName is the
// enclosing function, for per-function randomness.
type blockRewriter func(list []ast.Stmt, funcName string) ([]ast.Stmt, bool)

// rewriteBlocks applies fn to every basic block in the file: function bodies,
// branch arms, loop bodies, case and comm clause bodies, and function literal
// bodies. Nested blocks are rewritten before their parents.
func rewriteBlocks(file *ast.File, fn blockRewriter) bool {
	changed := false

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Body == nil {
			continue
		}

		if rewriteBlock(fd.Body, fd.Name.Name, fn) {
			changed = true
		}

		if rewriteFuncLits(fd.Body, fd.Name.Name, fn) {
			changed = true
		}
	}

	return changed
}

func rewriteBlock(block *ast.BlockStmt, funcName string, fn blockRewriter) bool {
	changed := false

	for _, s := range block.List {
		if rewriteNested(s, funcName, fn) {
			changed = true
		}
	}

	list, c := fn(block.List, funcName)
	block.List = list

	return changed || c
}

func rewriteStmtList(list []ast.Stmt, funcName string, fn blockRewriter) ([]ast.Stmt, bool) {
	changed := false

	for _, s := range list {
		if rewriteNested(s, funcName, fn) {
			changed = true
		}
	}

	out, c := fn(list, funcName)

	return out, changed || c
}

// rewriteNested descends into the block lists owned by one statement. It does
// not descend into function literals; those are handled by rewriteFuncLits so
// each literal body is processed exactly once.
func rewriteNested(s ast.Stmt, funcName string, fn blockRewriter) bool {
	changed := false

	switch st := s.(type) {
	case *ast.BlockStmt:
		changed = rewriteBlock(st, funcName, fn)
	case *ast.IfStmt:
		changed = rewriteBlock(st.Body, funcName, fn)
		if st.Else != nil {
			if rewriteNested(st.Else, funcName, fn) {
				changed = true
			}
		}
	case *ast.ForStmt:
		changed = rewriteBlock(st.Body, funcName, fn)
	case *ast.RangeStmt:
		changed = rewriteBlock(st.Body, funcName, fn)
	case *ast.SwitchStmt:
		for _, clause := range st.Body.List {
			cc, ok := clause.(*ast.CaseClause)
			if !ok {
				continue
			}

			var c bool
			cc.Body, c = rewriteStmtList(cc.Body, funcName, fn)
			changed = changed || c
		}
	case *ast.TypeSwitchStmt:
		for _, clause := range st.Body.List {
			cc, ok := clause.(*ast.CaseClause)
			if !ok {
				continue
			}

			var c bool
			cc.Body, c = rewriteStmtList(cc.Body, funcName, fn)
			changed = changed || c
		}
	case *ast.SelectStmt:
		for _, clause := range st.Body.List {
			cc, ok := clause.(*ast.CommClause)
			if !ok {
				continue
			}

			var c bool
			cc.Body, c = rewriteStmtList(cc.Body, funcName, fn)
			changed = changed || c
		}
	case *ast.LabeledStmt:
		changed = rewriteNested(st.Stmt, funcName, fn)
	}

	return changed
}

func rewriteFuncLits(root ast.Node, funcName string, fn blockRewriter) bool {
	changed := false

	ast.Inspect(root, func(n ast.Node) bool {
		if fl, ok := n.(*ast.FuncLit); ok {
			if rewriteBlock(fl.Body, funcName, fn) {
				changed = true
			}
		}

		return true
	})

	return changed
}

// isPinnedMarker reports whether a statement is a leading metadata marker of
// the form `_ = "..."`, which stays pinned at index 0 of its block.
func isPinnedMarker(s ast.Stmt) bool {
	assign, ok := s.(*ast.AssignStmt)
	if !ok || assign.Tok != token.ASSIGN || len(assign.Lhs) != 1 || len(assign.Rhs) != 1 {
		return false
	}

	id, ok := assign.Lhs[0].(*ast.Ident)
	if !ok || id.Name != "_" {
		return false
	}

	lit, ok := assign.Rhs[0].(*ast.BasicLit)

	return ok && lit.Kind == token.STRING
}

// blockStart returns the first permutable/insertable index of a block,
// keeping a leading pinned marker at index 0.
func blockStart(list []ast.Stmt) int {
	if len(list) > 0 && isPinnedMarker(list[0]) {
		return 1
	}

	return 0
}

// nameAllocator hands out synthetic names that do not collide with names
// already used in the surrounding block. It is an explicit value threaded
// through each call, scoped to one block.
type nameAllocator struct {
	taken map[string]struct{}
	n     int
}

func newNameAllocator(stmts []ast.Stmt) *nameAllocator {
	taken := make(map[string]struct{})

	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok {
				taken[id.Name] = struct{}{}
			}

			return true
		})
	}

	return &nameAllocator{taken: taken}
}

func (a *nameAllocator) fresh(prefix string) string {
	if _, ok := a.taken[prefix]; !ok {
		a.taken[prefix] = struct{}{}
		return prefix
	}

	for {
		cand := fmt.Sprintf("%s_%d", prefix, a.n)
		a.n++

		if _, ok := a.taken[cand]; !ok {
			a.taken[cand] = struct{}{}
			return cand
		}
	}
}

// stripPos clears every position under n. Subtrees lifted from the source
// keep their original offsets, and the printer inserts line breaks wherever
// they disagree with the zero positions of a synthesized parent; stripping
// before splicing keeps the output on one line.
func stripPos(n ast.Node) {
	if n == nil {
		return
	}

	ast.Inspect(n, func(node ast.Node) bool {
		switch v := node.(type) {
		case *ast.Ident:
			v.NamePos = token.NoPos
		case *ast.BasicLit:
			v.ValuePos = token.NoPos
		case *ast.BinaryExpr:
			v.OpPos = token.NoPos
		case *ast.UnaryExpr:
			v.OpPos = token.NoPos
		case *ast.StarExpr:
			v.Star = token.NoPos
		case *ast.ParenExpr:
			v.Lparen, v.Rparen = token.NoPos, token.NoPos
		case *ast.CallExpr:
			v.Lparen, v.Rparen, v.Ellipsis = token.NoPos, token.NoPos, token.NoPos
		case *ast.IndexExpr:
			v.Lbrack, v.Rbrack = token.NoPos, token.NoPos
		case *ast.SliceExpr:
			v.Lbrack, v.Rbrack = token.NoPos, token.NoPos
		case *ast.TypeAssertExpr:
			v.Lparen, v.Rparen = token.NoPos, token.NoPos
		case *ast.CompositeLit:
			v.Lbrace, v.Rbrace = token.NoPos, token.NoPos
		case *ast.KeyValueExpr:
			v.Colon = token.NoPos
		case *ast.Ellipsis:
			v.Ellipsis = token.NoPos
		case *ast.FuncType:
			v.Func = token.NoPos
		case *ast.FieldList:
			v.Opening, v.Closing = token.NoPos, token.NoPos
		case *ast.ArrayType:
			v.Lbrack = token.NoPos
		case *ast.MapType:
			v.Map = token.NoPos
		case *ast.ChanType:
			v.Begin, v.Arrow = token.NoPos, token.NoPos
		case *ast.StructType:
			v.Struct = token.NoPos
		case *ast.InterfaceType:
			v.Interface = token.NoPos
		case *ast.BlockStmt:
			v.Lbrace, v.Rbrace = token.NoPos, token.NoPos
		case *ast.AssignStmt:
			v.TokPos = token.NoPos
		case *ast.IncDecStmt:
			v.TokPos = token.NoPos
		case *ast.ReturnStmt:
			v.Return = token.NoPos
		case *ast.BranchStmt:
			v.TokPos = token.NoPos
		case *ast.IfStmt:
			v.If = token.NoPos
		case *ast.ForStmt:
			v.For = token.NoPos
		case *ast.RangeStmt:
			v.For, v.TokPos = token.NoPos, token.NoPos
		case *ast.SwitchStmt:
			v.Switch = token.NoPos
		case *ast.TypeSwitchStmt:
			v.Switch = token.NoPos
		case *ast.SelectStmt:
			v.Select = token.NoPos
		case *ast.CaseClause:
			v.Case, v.Colon = token.NoPos, token.NoPos
		case *ast.CommClause:
			v.Case, v.Colon = token.NoPos, token.NoPos
		case *ast.SendStmt:
			v.Arrow = token.NoPos
		case *ast.GoStmt:
			v.Go = token.NoPos
		case *ast.DeferStmt:
			v.Defer = token.NoPos
		case *ast.LabeledStmt:
			v.Colon = token.NoPos
		case *ast.GenDecl:
			v.TokPos, v.Lparen, v.Rparen = token.NoPos, token.NoPos, token.NoPos
		case *ast.EmptyStmt:
			v.Semicolon = token.NoPos
		}

		return true
	})
}

// ---- small AST constructors shared by the transforms ----

func ident(name string) *ast.Ident {
	return ast.NewIdent(name)
}

func intLit(v int64) *ast.BasicLit {
	return &ast.BasicLit{Kind: token.INT, Value: strconv.FormatInt(v, 10)}
}

func strLit(s string) *ast.BasicLit {
	return &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(s)}
}

// maybeParen wraps composite expressions so a synthesized operator cannot
// rebind their sub-expressions.
func maybeParen(e ast.Expr) ast.Expr {
	switch e.(type) {
	case *ast.Ident, *ast.BasicLit, *ast.ParenExpr, *ast.CallExpr, *ast.SelectorExpr, *ast.IndexExpr:
		return e
	}

	return &ast.ParenExpr{X: e}
}

func notExpr(e ast.Expr) ast.Expr {
	stripPos(e)
	return &ast.UnaryExpr{Op: token.NOT, X: maybeParen(e)}
}

func binExpr(x ast.Expr, op token.Token, y ast.Expr) *ast.BinaryExpr {
	stripPos(x)
	stripPos(y)

	return &ast.BinaryExpr{X: x, Op: op, Y: y}
}

func andExpr(x, y ast.Expr) *ast.BinaryExpr {
	return binExpr(parenForAnd(x), token.LAND, parenForAnd(y))
}

// parenForAnd parenthesizes || operands joined under a synthesized &&.
func parenForAnd(e ast.Expr) ast.Expr {
	if be, ok := e.(*ast.BinaryExpr); ok && be.Op == token.LOR {
		return &ast.ParenExpr{X: e}
	}

	return e
}

// constInt folds an integer literal, possibly negated.
func constInt(e ast.Expr) (int64, bool) {
	switch v := e.(type) {
	case *ast.BasicLit:
		if v.Kind != token.INT {
			return 0, false
		}

		n, err := strconv.ParseInt(v.Value, 0, 64)
		if err != nil {
			return 0, false
		}

		return n, true
	case *ast.UnaryExpr:
		if v.Op != token.SUB {
			return 0, false
		}

		n, ok := constInt(v.X)
		if !ok {
			return 0, false
		}

		return -n, true
	case *ast.ParenExpr:
		return constInt(v.X)
	}

	return 0, false
}

// cloneExpr deep-copies the simple expression shapes the engine synthesizes
// from. Returns nil for anything it cannot safely duplicate.
func cloneExpr(e ast.Expr) ast.Expr {
	switch v := e.(type) {
	case *ast.Ident:
		return ast.NewIdent(v.Name)
	case *ast.BasicLit:
		return &ast.BasicLit{Kind: v.Kind, Value: v.Value}
	case *ast.ParenExpr:
		inner := cloneExpr(v.X)
		if inner == nil {
			return nil
		}

		return &ast.ParenExpr{X: inner}
	case *ast.SelectorExpr:
		x := cloneExpr(v.X)
		if x == nil {
			return nil
		}

		return &ast.SelectorExpr{X: x, Sel: ast.NewIdent(v.Sel.Name)}
	case *ast.IndexExpr:
		x, idx := cloneExpr(v.X), cloneExpr(v.Index)
		if x == nil || idx == nil {
			return nil
		}

		return &ast.IndexExpr{X: x, Index: idx}
	case *ast.UnaryExpr:
		x := cloneExpr(v.X)
		if x == nil {
			return nil
		}

		return &ast.UnaryExpr{Op: v.Op, X: x}
	case *ast.BinaryExpr:
		x, y := cloneExpr(v.X), cloneExpr(v.Y)
		if x == nil || y == nil {
			return nil
		}

		return &ast.BinaryExpr{X: x, Op: v.Op, Y: y}
	case *ast.CallExpr:
		fun := cloneExpr(v.Fun)
		if fun == nil {
			return nil
		}

		args := make([]ast.Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = cloneExpr(a)
			if args[i] == nil {
				return nil
			}
		}

		return &ast.CallExpr{Fun: fun, Args: args}
	}

	return nil
}

// isTerminating reports whether a statement always transfers control out of
// the enclosing block: return, break, continue, goto, panic, or an if whose
// branches both terminate.
func isTerminating(s ast.Stmt) bool {
	switch st := s.(type) {
	case *ast.ReturnStmt, *ast.BranchStmt:
		return true
	case *ast.ExprStmt:
		call, ok := st.X.(*ast.CallExpr)
		if !ok {
			return false
		}

		id, ok := call.Fun.(*ast.Ident)

		return ok && id.Name == "panic"
	case *ast.IfStmt:
		if st.Else == nil {
			return false
		}

		return blockTerminates(st.Body.List) && elseTerminates(st.Else)
	}

	return false
}

func blockTerminates(list []ast.Stmt) bool {
	if len(list) == 0 {
		return false
	}

	return isTerminating(list[len(list)-1])
}

func elseTerminates(s ast.Stmt) bool {
	switch st := s.(type) {
	case *ast.BlockStmt:
		return blockTerminates(st.List)
	case *ast.IfStmt:
		return isTerminating(st)
	}

	return false
}
