package transforms

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	m "github.com/wibhim/codemorph/internal/model"
)

// DropComments removes every comment from the file, documentation included.
type DropComments struct{}

// Name implements Transformer.
func (DropComments) Name() string { return "drop_comments" }

// Apply implements Transformer.
func (DropComments) Apply(file *ast.File, ctx *Context) (bool, error) {
	if len(file.Comments) == 0 {
		return false, nil
	}

	file.Comments = nil
	file.Doc = nil

	ast.Inspect(file, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.FuncDecl:
			x.Doc = nil
		case *ast.GenDecl:
			x.Doc = nil
		case *ast.TypeSpec:
			x.Doc, x.Comment = nil, nil
		case *ast.ValueSpec:
			x.Doc, x.Comment = nil, nil
		case *ast.ImportSpec:
			x.Doc, x.Comment = nil, nil
		case *ast.Field:
			x.Doc, x.Comment = nil, nil
		}

		return true
	})

	return true, nil
}

// RemoveDocstrings removes documentation comments while keeping ordinary
// comments: the groups attached as Doc to the file, declarations, specs, and
// fields disappear, inline and free-floating commentary stays.
type RemoveDocstrings struct{}

// Name implements Transformer.
func (RemoveDocstrings) Name() string { return "remove_docstrings" }

// Apply implements Transformer.
func (RemoveDocstrings) Apply(file *ast.File, ctx *Context) (bool, error) {
	docs := make(map[*ast.CommentGroup]struct{})

	note := func(g *ast.CommentGroup) {
		if g != nil {
			docs[g] = struct{}{}
		}
	}

	note(file.Doc)
	file.Doc = nil

	ast.Inspect(file, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.FuncDecl:
			note(x.Doc)
			x.Doc = nil
		case *ast.GenDecl:
			note(x.Doc)
			x.Doc = nil
		case *ast.TypeSpec:
			note(x.Doc)
			x.Doc = nil
		case *ast.ValueSpec:
			note(x.Doc)
			x.Doc = nil
		case *ast.ImportSpec:
			note(x.Doc)
			x.Doc = nil
		case *ast.Field:
			note(x.Doc)
			x.Doc = nil
		}

		return true
	})

	if len(docs) == 0 {
		return false, nil
	}

	kept := file.Comments[:0]

	for _, g := range file.Comments {
		if _, isDoc := docs[g]; !isDoc {
			kept = append(kept, g)
		}
	}

	file.Comments = kept

	return true, nil
}

// DropSelf detaches methods from their receivers: the receiver clause is
// removed, turning the method into a plain function, and selector accesses
// rooted at the receiver name become bare identifiers. The result usually no
// longer resolves; the transformation targets surface form, not semantics.
type DropSelf struct{}

// Name implements Transformer.
func (DropSelf) Name() string { return "drop_self" }

// Apply implements Transformer.
func (t DropSelf) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := false

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) != 1 {
			continue
		}

		recv := ""
		if names := fn.Recv.List[0].Names; len(names) == 1 {
			recv = names[0].Name
		}

		fn.Recv = nil
		changed = true

		if recv == "" || recv == "_" || fn.Body == nil {
			continue
		}

		astutil.Apply(fn.Body, func(c *astutil.Cursor) bool {
			sel, ok := c.Node().(*ast.SelectorExpr)
			if !ok || !isIdentNamed(sel.X, recv) {
				return true
			}

			c.Replace(ident(sel.Sel.Name))

			return false
		}, nil)
	}

	return changed, nil
}

// DropPath shortens every import path to its final segment, severing the
// module prefix. Named imports keep their name.
type DropPath struct{}

// Name implements Transformer.
func (DropPath) Name() string { return "drop_path" }

// Apply implements Transformer.
func (DropPath) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := false

	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}

		short := path[strings.LastIndex(path, "/")+1:]
		if short == path {
			continue
		}

		imp.Path.Value = strconv.Quote(short)
		changed = true
	}

	return changed, nil
}

// DropReturn degrades returns: `return x` becomes a blank assignment of x,
// a bare return disappears. Functions whose signature promises results will
// stop compiling when their final return goes; that is accepted.
type DropReturn struct{}

// Name implements Transformer.
func (DropReturn) Name() string { return "drop_return" }

// Apply implements Transformer.
func (DropReturn) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		out := make([]ast.Stmt, 0, len(list))
		blockChanged := false

		for _, s := range list {
			rs, ok := s.(*ast.ReturnStmt)
			if !ok {
				out = append(out, s)
				continue
			}

			blockChanged = true

			if len(rs.Results) == 0 {
				continue
			}

			blanks := make([]ast.Expr, len(rs.Results))
			for i := range blanks {
				blanks[i] = ident("_")
			}

			out = append(out, &ast.AssignStmt{
				Lhs: blanks,
				Tok: token.ASSIGN,
				Rhs: rs.Results,
			})
		}

		return out, blockChanged
	})

	return changed, nil
}

// DropVars degrades local variable declarations. In initialization mode a
// literal initializer is replaced by the zero literal of its kind; in
// declaration mode the declaring statement is deleted outright, leaving
// later uses dangling.
type DropVars struct{}

// Name implements Transformer.
func (DropVars) Name() string { return "drop_vars" }

// Apply implements Transformer.
func (t DropVars) Apply(file *ast.File, ctx *Context) (bool, error) {
	drop := ctx.Policy.DropVarsMode == m.DropDeclaration

	changed := rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		out := make([]ast.Stmt, 0, len(list))
		blockChanged := false

		for _, s := range list {
			if !declaresVars(s) {
				out = append(out, s)
				continue
			}

			if drop {
				blockChanged = true
				continue
			}

			if zeroInitializers(s) {
				blockChanged = true
			}

			out = append(out, s)
		}

		return out, blockChanged
	})

	return changed, nil
}

func declaresVars(s ast.Stmt) bool {
	switch st := s.(type) {
	case *ast.AssignStmt:
		return st.Tok == token.DEFINE
	case *ast.DeclStmt:
		gd, ok := st.Decl.(*ast.GenDecl)
		return ok && gd.Tok == token.VAR
	}

	return false
}

// zeroInitializers replaces literal right-hand sides with the zero literal
// of the same kind. Non-literal initializers are kept; without type
// information there is no safe replacement for them.
func zeroInitializers(s ast.Stmt) bool {
	changed := false

	zero := func(e ast.Expr) ast.Expr {
		lit, ok := e.(*ast.BasicLit)
		if !ok {
			return nil
		}

		switch lit.Kind {
		case token.INT:
			return intLit(0)
		case token.FLOAT:
			return &ast.BasicLit{Kind: token.FLOAT, Value: "0.0"}
		case token.STRING:
			return strLit("")
		case token.CHAR:
			return &ast.BasicLit{Kind: token.CHAR, Value: `'\x00'`}
		}

		return nil
	}

	replace := func(rhs []ast.Expr) {
		for i, e := range rhs {
			if z := zero(e); z != nil && e.(*ast.BasicLit).Value != z.(*ast.BasicLit).Value {
				rhs[i] = z
				changed = true
			}
		}
	}

	switch st := s.(type) {
	case *ast.AssignStmt:
		replace(st.Rhs)
	case *ast.DeclStmt:
		for _, spec := range st.Decl.(*ast.GenDecl).Specs {
			if vs, ok := spec.(*ast.ValueSpec); ok {
				replace(vs.Values)
			}
		}
	}

	return changed
}

// RemovePrint deletes statements whose only effect is console output:
// builtin print and println, and calls into fmt's and log's print families.
// Imports left unreferenced by the deletions are removed.
type RemovePrint struct{}

// Name implements Transformer.
func (RemovePrint) Name() string { return "remove_print" }

// Apply implements Transformer.
func (t RemovePrint) Apply(file *ast.File, ctx *Context) (bool, error) {
	changed := rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		out := make([]ast.Stmt, 0, len(list))
		blockChanged := false

		for _, s := range list {
			if isPrintStmt(s) {
				blockChanged = true
				continue
			}

			out = append(out, s)
		}

		return out, blockChanged
	})

	if changed {
		for _, pkg := range []string{"fmt", "log"} {
			if !referencesPackage(file, pkg) {
				astutil.DeleteImport(ctx.Fset, file, pkg)
			}
		}
	}

	return changed, nil
}

func isPrintStmt(s ast.Stmt) bool {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return false
	}

	call, ok := es.X.(*ast.CallExpr)
	if !ok {
		return false
	}

	switch fun := call.Fun.(type) {
	case *ast.Ident:
		return fun.Name == "print" || fun.Name == "println"
	case *ast.SelectorExpr:
		pkg, ok := fun.X.(*ast.Ident)
		if !ok {
			return false
		}

		switch pkg.Name {
		case "fmt":
			return strings.HasPrefix(fun.Sel.Name, "Print")
		case "log":
			return strings.HasPrefix(fun.Sel.Name, "Print")
		}
	}

	return false
}

func referencesPackage(file *ast.File, pkg string) bool {
	found := false

	ast.Inspect(file, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok && isIdentNamed(sel.X, pkg) {
			found = true
		}

		return !found
	})

	return found
}
