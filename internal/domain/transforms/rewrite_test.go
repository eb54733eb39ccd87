package transforms

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strings"
	"testing"
)

func TestSwitchToIf(t *testing.T) {
	src := `package p

func f(x int) string {
	switch x {
	case 1:
		return "one"
	case 2, 3:
		return "few"
	default:
		return "many"
	}
}
`

	out, changed := apply(t, src, SwitchToIf{}, seeded())
	if !changed {
		t.Fatalf("expected a rewrite")
	}

	if !strings.Contains(out, "x == 1") {
		t.Fatalf("expected an equality test per case, got:\n%s", out)
	}

	if !strings.Contains(out, "x == 2 || x == 3") {
		t.Fatalf("expected multi-value cases to join with ||, got:\n%s", out)
	}

	if !strings.Contains(out, "else") {
		t.Fatalf("expected the default clause as the final else, got:\n%s", out)
	}

	if strings.Contains(out, "switch") {
		t.Fatalf("the switch must be gone, got:\n%s", out)
	}

	reparse(t, out)
}

func TestSwitchToIf_SkipsFallthrough(t *testing.T) {
	src := `package p

func f(x int) int {
	switch x {
	case 1:
		fallthrough
	case 2:
		return 2
	}

	return 0
}
`

	out, changed, report := applyWithReport(t, src, SwitchToIf{}, seeded())
	if changed {
		t.Fatalf("fallthrough cannot be expressed as an if chain:\n%s", out)
	}

	if len(report.Skips) == 0 {
		t.Fatalf("expected a recorded skip reason")
	}
}

func TestControlFlow_GuardClause(t *testing.T) {
	src := `package p

func f(x int) int {
	if x > 0 {
		x++
	} else {
		return 0
	}

	return x
}
`

	out, changed := apply(t, src, ControlFlow{}, seeded())
	if !changed {
		t.Fatalf("expected a rewrite")
	}

	if !strings.Contains(out, "!(x > 0)") {
		t.Fatalf("expected an inverted guard, got:\n%s", out)
	}

	if strings.Contains(out, "else") {
		t.Fatalf("the else must dissolve, got:\n%s", out)
	}

	reparse(t, out)
}

func TestControlFlow_FlattensChain(t *testing.T) {
	src := `package p

func f(x int) string {
	if x > 0 {
		return "positive"
	} else if x < 0 {
		return "negative"
	} else {
		return "zero"
	}
}
`

	out, changed := apply(t, src, ControlFlow{}, seeded())
	if !changed {
		t.Fatalf("expected a rewrite")
	}

	if strings.Contains(out, "else") {
		t.Fatalf("the chain must flatten to sequential ifs, got:\n%s", out)
	}

	for _, want := range []string{"positive", "negative", "zero"} {
		if !strings.Contains(out, want) {
			t.Fatalf("arm %q lost, got:\n%s", want, out)
		}
	}

	reparse(t, out)
}

func TestDeadCodeInsertion(t *testing.T) {
	src := `package p

func f(x int) int {
	x++
	return x
}
`

	out, changed := apply(t, src, DeadCodeInsertion{}, seeded())
	if !changed {
		t.Fatalf("expected an insertion with ProbInsert 1.0")
	}

	if !strings.Contains(out, "if false {") {
		t.Fatalf("expected an unreachable block, got:\n%s", out)
	}

	reparse(t, out)
}

func TestDeadCodeInsertion_BottomPlacement(t *testing.T) {
	src := `package p

func f(x int) int {
	x++
	return x
}
`

	policy := seeded()
	policy.Position = "bottom"

	out, _ := apply(t, src, DeadCodeInsertion{}, policy)

	if strings.Index(out, "return x") > strings.Index(out, "if false {") {
		t.Fatalf("bottom placement must insert after the return, got:\n%s", out)
	}

	reparse(t, out)
}

func TestTryCatchInsertion_Repanic(t *testing.T) {
	src := `package p

func f(x int) int {
	x = x + 1
	return x
}
`

	out, changed := apply(t, src, TryCatchInsertion{}, seeded())
	if !changed {
		t.Fatalf("expected a wrap")
	}

	for _, want := range []string{"defer func()", "recover()", "panic(r)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in the wrapper, got:\n%s", want, out)
		}
	}

	reparse(t, out)
}

func TestTryCatchInsertion_MaskMode(t *testing.T) {
	src := `package p

func f(x int) int {
	x = x + 1
	return x
}
`

	policy := seeded()
	policy.RecoverMode = "mask"

	out, _ := apply(t, src, TryCatchInsertion{}, policy)

	if strings.Contains(out, "panic(r)") {
		t.Fatalf("mask mode must not re-raise, got:\n%s", out)
	}

	if !strings.Contains(out, "_ = r") {
		t.Fatalf("mask mode swallows the value, got:\n%s", out)
	}

	reparse(t, out)
}

func TestRemoveExceptions_UnwrapsWrapper(t *testing.T) {
	src := `package p

func f(x int) int {
	x = x + 1
	return x
}
`

	wrapped, _ := apply(t, src, TryCatchInsertion{}, seeded())

	out, changed := apply(t, wrapped, RemoveExceptions{}, seeded())
	if !changed {
		t.Fatalf("expected the wrapper to unwrap")
	}

	if strings.Contains(out, "recover") {
		t.Fatalf("recover plumbing must be gone, got:\n%s", out)
	}

	if !strings.Contains(out, "x = x + 1") {
		t.Fatalf("the payload statement must survive, got:\n%s", out)
	}

	reparse(t, out)
}

func TestRemoveExceptions_DeletesPanic(t *testing.T) {
	src := `package p

func f(x int) int {
	if x < 0 {
		panic("negative")
	}

	return x
}
`

	out, changed := apply(t, src, RemoveExceptions{}, seeded())
	if !changed {
		t.Fatalf("expected the panic to go")
	}

	if strings.Contains(out, "panic") {
		t.Fatalf("panic must be deleted, got:\n%s", out)
	}

	reparse(t, out)
}

func TestLogStatement(t *testing.T) {
	src := `package p

func worker(x int) int {
	return x * 2
}
`

	out, changed := apply(t, src, LogStatement{}, seeded())
	if !changed {
		t.Fatalf("expected an insertion")
	}

	if !strings.Contains(out, `println("LOG: reached worker")`) {
		t.Fatalf("expected a tracing print naming the function, got:\n%s", out)
	}

	reparse(t, out)
}

func TestDeadCodeInsertion_LiveStatementsUntouched(t *testing.T) {
	src := `package p

func f(x int) int {
	a := x + 1
	b := a * 2
	if b > 10 {
		b = 10
	}
	return a + b
}
`

	policy := seeded()
	policy.MinInserts = 3
	policy.MaxInserts = 3

	out, changed := apply(t, src, DeadCodeInsertion{}, policy)
	if !changed {
		t.Fatalf("expected insertions")
	}

	if got, want := withoutDeadBlocks(t, out), withoutDeadBlocks(t, src); got != want {
		t.Fatalf("stripping the guarded blocks must restore the input, got:\n%s\nwant:\n%s", got, want)
	}
}

func TestTryCatchInsertion_CountAndProbability(t *testing.T) {
	src := `package p

func f(a, b int) int {
	a = a + 1
	b = b + 2
	a = a * b
	return a + b
}
`

	policy := seeded()
	policy.MinInserts = 2
	policy.MaxInserts = 2

	out, changed := apply(t, src, TryCatchInsertion{}, policy)
	if !changed {
		t.Fatalf("expected wraps")
	}

	if got := strings.Count(out, "recover()"); got != 2 {
		t.Fatalf("expected 2 wrapped statements, got %d:\n%s", got, out)
	}

	reparse(t, out)

	gated := seeded()
	gated.ProbInsert = 0

	if _, changed := apply(t, src, TryCatchInsertion{}, gated); changed {
		t.Fatalf("ProbInsert 0 must leave every function alone")
	}
}

func TestTryCatchInsertion_KeepsPinnedMarker(t *testing.T) {
	src := `package p

func f(x int) int {
	_ = "checkpoint"
	x = x * 2
	return x
}
`

	out, changed := apply(t, src, TryCatchInsertion{}, seeded())
	if !changed {
		t.Fatalf("expected a wrap")
	}

	marker := strings.Index(out, `_ = "checkpoint"`)
	wrapper := strings.Index(out, "func() {")

	if marker < 0 || wrapper < 0 || marker > wrapper {
		t.Fatalf("the leading marker must stay first and unwrapped, got:\n%s", out)
	}

	reparse(t, out)
}

func TestLogStatement_CountAndProbability(t *testing.T) {
	src := `package p

func worker(x int) int {
	x++
	return x
}
`

	policy := seeded()
	policy.MinInserts = 3
	policy.MaxInserts = 3

	out, changed := apply(t, src, LogStatement{}, policy)
	if !changed {
		t.Fatalf("expected insertions")
	}

	if got := strings.Count(out, "LOG: reached worker"); got != 3 {
		t.Fatalf("expected 3 log statements, got %d:\n%s", got, out)
	}

	reparse(t, out)

	gated := seeded()
	gated.ProbInsert = 0

	if _, changed := apply(t, src, LogStatement{}, gated); changed {
		t.Fatalf("ProbInsert 0 must leave every function alone")
	}
}

// withoutDeadBlocks reprints src with every `if false { ... }` statement
// removed from the function bodies.
func withoutDeadBlocks(t *testing.T, src string) string {
	t.Helper()

	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, "src.go", src, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}

		kept := fn.Body.List[:0]

		for _, s := range fn.Body.List {
			if ifs, ok := s.(*ast.IfStmt); ok {
				if cond, ok := ifs.Cond.(*ast.Ident); ok && cond.Name == "false" {
					continue
				}
			}

			stripPos(s)
			kept = append(kept, s)
		}

		fn.Body.List = kept
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		t.Fatalf("format: %v", err)
	}

	return buf.String()
}
