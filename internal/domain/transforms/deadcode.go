package transforms

import (
	"go/ast"
	"go/token"
	"math/rand"

	m "github.com/wibhim/codemorph/internal/model"
)

// DeadCodeInsertion plants unreachable statements in function bodies. Each
// function is considered independently: with probability Policy.ProbInsert
// it receives between MinInserts and MaxInserts payloads, each an
// `if false { ... }` block whose body is syntactically valid but never runs.
// Placement follows Policy.Position.
type DeadCodeInsertion struct{}

// Name implements Transformer.
func (DeadCodeInsertion) Name() string { return "dead_code_insertion" }

// Apply implements Transformer.
func (t DeadCodeInsertion) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := false

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}

		rng := ctx.RandFor(fn.Name.Name)

		count := insertCount(rng, ctx)
		if count == 0 {
			continue
		}

		alloc := newNameAllocator(fn.Body.List)

		for i := 0; i < count; i++ {
			fn.Body.List = insertAt(fn.Body.List, insertPosition(fn.Body.List, rng, ctx), t.payload(rng, alloc))
			changed = true
		}
	}

	return changed, nil
}

// insertCount draws how many payloads one function receives, or 0 when the
// probability gate rejects it. Shared by the randomized mutators.
func insertCount(rng *rand.Rand, ctx *Context) int {
	if rng.Float64() >= ctx.Policy.ProbInsert {
		return 0
	}

	count := ctx.Policy.MinInserts
	if span := ctx.Policy.MaxInserts - ctx.Policy.MinInserts; span > 0 {
		count += rng.Intn(span + 1)
	}

	return count
}

// insertPosition picks an insertion index honoring the configured placement
// and any pinned leading markers. Shared by the randomized mutators.
func insertPosition(list []ast.Stmt, rng *rand.Rand, ctx *Context) int {
	start := blockStart(list)

	switch ctx.Policy.Position {
	case m.PositionTop:
		return start
	case m.PositionBottom:
		return len(list)
	case m.PositionMiddle:
		return start + (len(list)-start)/2
	default:
		if len(list) == start {
			return start
		}

		return start + rng.Intn(len(list)-start+1)
	}
}

// payload builds one unreachable block. Three shapes, chosen at random.
func (DeadCodeInsertion) payload(rng *rand.Rand, alloc *nameAllocator) ast.Stmt {
	var body []ast.Stmt

	switch rng.Intn(3) {
	case 0:
		name := alloc.fresh("_unused")
		body = []ast.Stmt{
			&ast.AssignStmt{Lhs: []ast.Expr{ident(name)}, Tok: token.DEFINE, Rhs: []ast.Expr{intLit(0)}},
			&ast.AssignStmt{Lhs: []ast.Expr{ident("_")}, Tok: token.ASSIGN, Rhs: []ast.Expr{ident(name)}},
		}
	case 1:
		body = []ast.Stmt{
			&ast.ExprStmt{X: &ast.CallExpr{
				Fun: &ast.FuncLit{
					Type: &ast.FuncType{Params: &ast.FieldList{}},
					Body: &ast.BlockStmt{},
				},
			}},
		}
	default:
		body = []ast.Stmt{
			&ast.RangeStmt{
				Tok:  token.ILLEGAL,
				X:    intLit(0),
				Body: &ast.BlockStmt{},
			},
		}
	}

	return &ast.IfStmt{
		Cond: ident("false"),
		Body: &ast.BlockStmt{List: body},
	}
}

func insertAt(list []ast.Stmt, idx int, s ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(list)+1)
	out = append(out, list[:idx]...)
	out = append(out, s)
	out = append(out, list[idx:]...)

	return out
}
