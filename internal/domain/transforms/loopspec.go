package transforms

import (
	"go/ast"
	"go/token"
)

// LoopSpec captures a counting loop in a uniform shape so range-style and
// simple counting forms can be compared and interconverted: induction
// variable, initial-value expression, boundary condition, and step.
type LoopSpec struct {
	Var      *ast.Ident
	Declares bool // induction variable introduced with :=
	Init     ast.Expr
	Cond     token.Token // LSS, LEQ, GTR or GEQ
	Bound    ast.Expr
	Step     ast.Expr // step magnitude; nil means ±1
	StepSign int      // +1, -1, or 0 when not statically known
}

// specFromFor derives a LoopSpec from a three-clause counting loop:
// single-variable init, single comparison bound, constant-direction step in
// the post statement.
func specFromFor(fs *ast.ForStmt) (*LoopSpec, bool) {
	if fs.Init == nil || fs.Cond == nil || fs.Post == nil {
		return nil, false
	}

	init, ok := fs.Init.(*ast.AssignStmt)
	if !ok || len(init.Lhs) != 1 || len(init.Rhs) != 1 {
		return nil, false
	}

	if init.Tok != token.DEFINE && init.Tok != token.ASSIGN {
		return nil, false
	}

	v, ok := init.Lhs[0].(*ast.Ident)
	if !ok || v.Name == "_" {
		return nil, false
	}

	cond, ok := fs.Cond.(*ast.BinaryExpr)
	if !ok || !isIdentNamed(cond.X, v.Name) {
		return nil, false
	}

	switch cond.Op {
	case token.LSS, token.LEQ, token.GTR, token.GEQ:
	default:
		return nil, false
	}

	spec := &LoopSpec{
		Var:      v,
		Declares: init.Tok == token.DEFINE,
		Init:     init.Rhs[0],
		Cond:     cond.Op,
		Bound:    cond.Y,
	}

	switch post := fs.Post.(type) {
	case *ast.IncDecStmt:
		if !isIdentNamed(post.X, v.Name) {
			return nil, false
		}

		if post.Tok == token.INC {
			spec.StepSign = 1
		} else {
			spec.StepSign = -1
		}
	case *ast.AssignStmt:
		if len(post.Lhs) != 1 || len(post.Rhs) != 1 || !isIdentNamed(post.Lhs[0], v.Name) {
			return nil, false
		}

		switch post.Tok {
		case token.ADD_ASSIGN:
			spec.Step = post.Rhs[0]
			spec.StepSign = signOf(post.Rhs[0])
		case token.SUB_ASSIGN:
			spec.Step = post.Rhs[0]
			spec.StepSign = -signOf(post.Rhs[0])
		default:
			return nil, false
		}
	default:
		return nil, false
	}

	return spec, true
}

// specFromRange derives a LoopSpec from a bounded range loop
// (`for i := range n`): initial value 0, exclusive bound n, step 1.
// The range operand must be statically known to be an integer; a bare
// identifier may name a slice or map, which the derived counting form would
// compare against, so only literals, len calls, and arithmetic over those
// qualify.
func specFromRange(rs *ast.RangeStmt) (*LoopSpec, bool) {
	if rs.Value != nil || rs.Key == nil || rs.Tok != token.DEFINE {
		return nil, false
	}

	key, ok := rs.Key.(*ast.Ident)
	if !ok || key.Name == "_" {
		return nil, false
	}

	if !staticIntOperand(rs.X) {
		return nil, false
	}

	return &LoopSpec{
		Var:      key,
		Declares: true,
		Init:     intLit(0),
		Cond:     token.LSS,
		Bound:    rs.X,
		StepSign: 1,
	}, true
}

// specFromWhile derives a LoopSpec from the while-shaped pattern: an
// initializing assignment immediately before a condition-only for whose body
// ends by stepping the same variable. Returns the spec and the body without
// the trailing step.
func specFromWhile(prev ast.Stmt, fs *ast.ForStmt) (*LoopSpec, []ast.Stmt, bool) {
	if fs.Init != nil || fs.Post != nil || fs.Cond == nil || len(fs.Body.List) == 0 {
		return nil, nil, false
	}

	cond, ok := fs.Cond.(*ast.BinaryExpr)
	if !ok {
		return nil, nil, false
	}

	v, ok := cond.X.(*ast.Ident)
	if !ok {
		return nil, nil, false
	}

	switch cond.Op {
	case token.LSS, token.LEQ, token.GTR, token.GEQ:
	default:
		return nil, nil, false
	}

	init, ok := prev.(*ast.AssignStmt)
	if !ok || len(init.Lhs) != 1 || len(init.Rhs) != 1 || !isIdentNamed(init.Lhs[0], v.Name) {
		return nil, nil, false
	}

	if init.Tok != token.DEFINE && init.Tok != token.ASSIGN {
		return nil, nil, false
	}

	spec := &LoopSpec{
		Var:      v,
		Declares: init.Tok == token.DEFINE,
		Init:     init.Rhs[0],
		Cond:     cond.Op,
		Bound:    cond.Y,
	}

	last := fs.Body.List[len(fs.Body.List)-1]

	switch post := last.(type) {
	case *ast.IncDecStmt:
		if !isIdentNamed(post.X, v.Name) {
			return nil, nil, false
		}

		if post.Tok == token.INC {
			spec.StepSign = 1
		} else {
			spec.StepSign = -1
		}
	case *ast.AssignStmt:
		if len(post.Lhs) != 1 || len(post.Rhs) != 1 || !isIdentNamed(post.Lhs[0], v.Name) {
			return nil, nil, false
		}

		switch post.Tok {
		case token.ADD_ASSIGN:
			spec.Step = post.Rhs[0]
			spec.StepSign = signOf(post.Rhs[0])
		case token.SUB_ASSIGN:
			spec.Step = post.Rhs[0]
			spec.StepSign = -signOf(post.Rhs[0])
		default:
			return nil, nil, false
		}
	default:
		return nil, nil, false
	}

	// A continue in the body skips the trailing step today; the counting
	// form's post clause would run it.
	if hasLoopContinue(fs.Body.List[:len(fs.Body.List)-1]) {
		return nil, nil, false
	}

	return spec, fs.Body.List[:len(fs.Body.List)-1], true
}

// initStmt rebuilds the induction variable's initializing assignment.
func (s *LoopSpec) initStmt() *ast.AssignStmt {
	tok := token.ASSIGN
	if s.Declares {
		tok = token.DEFINE
	}

	stripPos(s.Init)

	return &ast.AssignStmt{
		Lhs: []ast.Expr{ident(s.Var.Name)},
		Tok: tok,
		Rhs: []ast.Expr{s.Init},
	}
}

// condExpr rebuilds the boundary condition. When the spec carries no explicit
// comparison shape (range-derived), the direction follows the step sign.
func (s *LoopSpec) condExpr() ast.Expr {
	op := s.Cond
	if op == token.ILLEGAL || op == 0 {
		op = token.LSS
		if s.StepSign < 0 {
			op = token.GTR
		}
	}

	return binExpr(ident(s.Var.Name), op, s.Bound)
}

// postStmt rebuilds the step statement.
func (s *LoopSpec) postStmt() ast.Stmt {
	if s.Step == nil {
		tok := token.INC
		if s.StepSign < 0 {
			tok = token.DEC
		}

		return &ast.IncDecStmt{X: ident(s.Var.Name), Tok: tok}
	}

	tok := token.ADD_ASSIGN
	if s.StepSign < 0 && signOf(s.Step) > 0 {
		tok = token.SUB_ASSIGN
	}

	stripPos(s.Step)

	return &ast.AssignStmt{
		Lhs: []ast.Expr{ident(s.Var.Name)},
		Tok: tok,
		Rhs: []ast.Expr{s.Step},
	}
}

// countingFor rebuilds the three-clause counting form.
func (s *LoopSpec) countingFor(body []ast.Stmt) *ast.ForStmt {
	return &ast.ForStmt{
		Init: s.initStmt(),
		Cond: s.condExpr(),
		Post: s.postStmt(),
		Body: &ast.BlockStmt{List: body},
	}
}

// spanLen returns the iteration count of the spec as an expression, or nil
// when it cannot be derived. Only <, step +1 specs have a simple span.
func (s *LoopSpec) spanLen() ast.Expr {
	if s.Cond != token.LSS || s.StepSign != 1 || s.Step != nil {
		return nil
	}

	if iv, ok := constInt(s.Init); ok {
		if iv == 0 {
			return cloneExpr(s.Bound)
		}

		if bv, ok := constInt(s.Bound); ok {
			if bv <= iv {
				return intLit(0)
			}

			return intLit(bv - iv)
		}

		return nil
	}

	return nil
}

func isIdentNamed(e ast.Expr, name string) bool {
	id, ok := e.(*ast.Ident)
	return ok && id.Name == name
}

// signOf classifies a step expression's sign; 0 when not statically known.
func signOf(e ast.Expr) int {
	n, ok := constInt(e)
	if !ok {
		return 0
	}

	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}

	return 0
}

// intRangeOperand reports whether a counting-loop bound can serve as a range
// operand. The bound came out of an integer comparison, so bare identifiers
// and selectors are known numeric here.
func intRangeOperand(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.BasicLit:
		return v.Kind == token.INT
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		_, ok := v.X.(*ast.Ident)
		return ok
	case *ast.CallExpr:
		id, ok := v.Fun.(*ast.Ident)
		return ok && id.Name == "len" && len(v.Args) == 1
	case *ast.BinaryExpr:
		return intRangeOperand(v.X) && intRangeOperand(v.Y)
	case *ast.ParenExpr:
		return intRangeOperand(v.X)
	}

	return false
}

// staticIntOperand reports whether a range operand is an integer by shape
// alone: a literal, a len call, or arithmetic over those. Anything that could
// name a slice, map, or channel fails.
func staticIntOperand(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.BasicLit:
		return v.Kind == token.INT
	case *ast.CallExpr:
		id, ok := v.Fun.(*ast.Ident)
		return ok && id.Name == "len" && len(v.Args) == 1
	case *ast.BinaryExpr:
		switch v.Op {
		case token.ADD, token.SUB, token.MUL, token.QUO, token.REM:
			return staticIntOperand(v.X) && staticIntOperand(v.Y)
		}

		return false
	case *ast.ParenExpr:
		return staticIntOperand(v.X)
	}

	return false
}
