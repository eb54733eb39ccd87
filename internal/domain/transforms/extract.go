package transforms

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"
)

// universe covers the predeclared identifiers a closure may reference
// without capturing anything.
var universe = map[string]struct{}{
	"true": {}, "false": {}, "nil": {}, "iota": {},
	"bool": {}, "byte": {}, "rune": {}, "string": {}, "error": {},
	"int": {}, "int8": {}, "int16": {}, "int32": {}, "int64": {},
	"uint": {}, "uint8": {}, "uint16": {}, "uint32": {}, "uint64": {}, "uintptr": {},
	"float32": {}, "float64": {}, "complex64": {}, "complex128": {},
	"any": {}, "comparable": {},
	"append": {}, "cap": {}, "clear": {}, "close": {}, "complex": {}, "copy": {},
	"delete": {}, "imag": {}, "len": {}, "make": {}, "max": {}, "min": {},
	"new": {}, "panic": {}, "print": {}, "println": {}, "real": {}, "recover": {},
}

// FunctionExtract hoists capture-free function literals bound to a local
// name (`f := func(...) ... { ... }`) into package-level declarations of the
// same name. A literal that reads anything from the enclosing function stays
// where it is, as does one whose name collides with an existing top-level
// declaration.
type FunctionExtract struct{}

// Name implements Transformer.
func (FunctionExtract) Name() string { return "function_extract" }

// Apply implements Transformer.
func (t FunctionExtract) Apply(file *ast.File, ctx *Context) (bool, error) {
	top := topLevelNames(file)

	var hoisted []*ast.FuncDecl

	changed := rewriteBlocks(file, func(list []ast.Stmt, _ string) ([]ast.Stmt, bool) {
		out := make([]ast.Stmt, 0, len(list))
		blockChanged := false

		for _, s := range list {
			name, lit, ok := boundFuncLit(s)
			if !ok {
				out = append(out, s)
				continue
			}

			if _, taken := top[name]; taken {
				out = append(out, s)
				continue
			}

			if capturesEnvironment(lit, name, top) {
				ctx.Report.Skip(t.Name(), ctx.Line(s.Pos()), "literal captures enclosing scope")
				out = append(out, s)
				continue
			}

			hoisted = append(hoisted, &ast.FuncDecl{
				Name: ident(name),
				Type: lit.Type,
				Body: lit.Body,
			})
			top[name] = struct{}{}
			blockChanged = true
		}

		return out, blockChanged
	})

	for _, fd := range hoisted {
		file.Decls = append(file.Decls, fd)
	}

	return changed, nil
}

// boundFuncLit matches `name := func(...) ... { ... }`.
func boundFuncLit(s ast.Stmt) (string, *ast.FuncLit, bool) {
	as, ok := s.(*ast.AssignStmt)
	if !ok || as.Tok != token.DEFINE || len(as.Lhs) != 1 || len(as.Rhs) != 1 {
		return "", nil, false
	}

	id, ok := as.Lhs[0].(*ast.Ident)
	if !ok || id.Name == "_" {
		return "", nil, false
	}

	lit, ok := as.Rhs[0].(*ast.FuncLit)
	if !ok {
		return "", nil, false
	}

	return id.Name, lit, true
}

// capturesEnvironment reports whether the literal references any name that
// is neither declared inside it, predeclared, nor resolvable at package
// scope. selfName allows direct recursion through the binding being hoisted.
func capturesEnvironment(lit *ast.FuncLit, selfName string, top map[string]struct{}) bool {
	local := make(map[string]struct{})
	local[selfName] = struct{}{}

	declare := func(id *ast.Ident) {
		if id != nil && id.Name != "_" {
			local[id.Name] = struct{}{}
		}
	}

	for _, f := range lit.Type.Params.List {
		for _, id := range f.Names {
			declare(id)
		}
	}

	if lit.Type.Results != nil {
		for _, f := range lit.Type.Results.List {
			for _, id := range f.Names {
				declare(id)
			}
		}
	}

	ast.Inspect(lit.Body, func(n ast.Node) bool {
		switch st := n.(type) {
		case *ast.AssignStmt:
			if st.Tok == token.DEFINE {
				for _, lhs := range st.Lhs {
					if id, ok := lhs.(*ast.Ident); ok {
						declare(id)
					}
				}
			}
		case *ast.GenDecl:
			for _, spec := range st.Specs {
				if vs, ok := spec.(*ast.ValueSpec); ok {
					for _, id := range vs.Names {
						declare(id)
					}
				}
			}
		case *ast.RangeStmt:
			if st.Tok == token.DEFINE {
				if id, ok := st.Key.(*ast.Ident); ok {
					declare(id)
				}

				if id, ok := st.Value.(*ast.Ident); ok {
					declare(id)
				}
			}
		case *ast.FuncLit:
			for _, f := range st.Type.Params.List {
				for _, id := range f.Names {
					declare(id)
				}
			}
		}

		return true
	})

	captures := false

	var visit func(n ast.Node) bool

	visit = func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.SelectorExpr:
			ast.Inspect(x.X, visit)
			return false
		case *ast.KeyValueExpr:
			ast.Inspect(x.Value, visit)
			return false
		case *ast.Ident:
			if x.Name == "_" {
				return true
			}

			if _, ok := local[x.Name]; ok {
				return true
			}

			if _, ok := universe[x.Name]; ok {
				return true
			}

			if _, ok := top[x.Name]; ok {
				return true
			}

			captures = true
		}

		return !captures
	}

	ast.Inspect(lit.Body, visit)

	return captures
}

// topLevelNames collects every name resolvable at package scope, import
// names included.
func topLevelNames(file *ast.File) map[string]struct{} {
	names := make(map[string]struct{})

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				names[d.Name.Name] = struct{}{}
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					names[s.Name.Name] = struct{}{}
				case *ast.ValueSpec:
					for _, id := range s.Names {
						names[id.Name] = struct{}{}
					}
				}
			}
		}
	}

	for _, imp := range file.Imports {
		if imp.Name != nil {
			names[imp.Name.Name] = struct{}{}
			continue
		}

		if path, err := strconv.Unquote(imp.Path.Value); err == nil {
			names[path[strings.LastIndex(path, "/")+1:]] = struct{}{}
		}
	}

	return names
}
