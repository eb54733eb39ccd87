package transforms

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"
)

// funcBody parses src and returns the statement list of its first function.
func funcBody(t *testing.T, src string) []ast.Stmt {
	t.Helper()

	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, "src.go", src, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Body != nil {
			return fn.Body.List
		}
	}

	t.Fatalf("no function in source")

	return nil
}

func TestReadWriteSets(t *testing.T) {
	stmts := funcBody(t, `package p

func f(d []int, i int) {
	a := 1
	b := 2
	c := a + 1
	d[i] = g()
}
`)

	t.Run("independent pure assignments", func(t *testing.T) {
		r0, w0, pure0 := readWriteSets(stmts[0])
		if !pure0 {
			t.Fatalf("a := 1 should be pure")
		}

		if len(r0) != 0 {
			t.Fatalf("a := 1 should read nothing, got %v", r0)
		}

		if _, ok := w0["a"]; !ok {
			t.Fatalf("a := 1 should write a, got %v", w0)
		}

		r2, w2, pure2 := readWriteSets(stmts[2])
		if !pure2 {
			t.Fatalf("c := a + 1 should be pure")
		}

		if _, ok := r2["a"]; !ok {
			t.Fatalf("c := a + 1 should read a, got %v", r2)
		}

		if _, ok := w2["c"]; !ok {
			t.Fatalf("c := a + 1 should write c, got %v", w2)
		}
	})

	t.Run("call on rhs is impure", func(t *testing.T) {
		_, _, pure := readWriteSets(stmts[3])
		if pure {
			t.Fatalf("d[i] = g() must not be pure")
		}
	})

	t.Run("hazard detection", func(t *testing.T) {
		_, w0, _ := readWriteSets(stmts[0])
		r2, _, _ := readWriteSets(stmts[2])

		if !intersects(r2, w0) {
			t.Fatalf("c := a + 1 must conflict with a := 1")
		}

		r1, w1, _ := readWriteSets(stmts[1])

		if intersects(r1, w0) || intersects(w1, w0) {
			t.Fatalf("b := 2 must be independent of a := 1")
		}
	})
}

func TestExprPure(t *testing.T) {
	cases := []struct {
		expr string
		pure bool
	}{
		{"1 + 2", true},
		{"x", true},
		{"x.y.z", true},
		{"xs[i]", true},
		{"len(xs)", true},
		{"min(a, b)", true},
		{"g()", false},
		{"<-ch", false},
		{"&x", false},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			e, err := parser.ParseExpr(tc.expr)
			if err != nil {
				t.Fatalf("parse expr: %v", err)
			}

			if got := exprPure(e); got != tc.pure {
				t.Fatalf("exprPure(%s) = %v, want %v", tc.expr, got, tc.pure)
			}
		})
	}
}

func TestReadWriteSets_SelectorChainTarget(t *testing.T) {
	stmts := funcBody(t, `package p

func f(s *state, v int) {
	s.meta.count = v
}
`)

	reads, writes, pure := readWriteSets(stmts[0])
	if !pure {
		t.Fatalf("a selector-chain store of a variable should be pure")
	}

	if _, ok := writes["s"]; !ok {
		t.Fatalf("s.meta.count = v should write base s, got %v", writes)
	}

	if _, ok := reads["v"]; !ok {
		t.Fatalf("s.meta.count = v should read v, got %v", reads)
	}
}
