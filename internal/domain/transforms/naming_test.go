package transforms

import (
	"strings"
	"testing"
)

func TestVariableNaming(t *testing.T) {
	src := `package p

func f(seed int) int {
	base := seed + 1
	scaled := base * 2
	return scaled
}
`

	out, changed := apply(t, src, VariableNaming{}, seeded())
	if !changed {
		t.Fatalf("expected locals to rename")
	}

	if !strings.Contains(out, "var_0 := seed + 1") {
		t.Fatalf("first local becomes var_0, got:\n%s", out)
	}

	if !strings.Contains(out, "var_1 := var_0 * 2") {
		t.Fatalf("second local becomes var_1 and reads track the rename, got:\n%s", out)
	}

	if !strings.Contains(out, "return var_1") {
		t.Fatalf("returns follow the rename, got:\n%s", out)
	}

	reparse(t, out)
}

func TestVariableNaming_KeepsParameters(t *testing.T) {
	src := `package p

func f(seed int) int {
	return seed + 1
}
`

	_, changed := apply(t, src, VariableNaming{}, seeded())
	if changed {
		t.Fatalf("parameters are not locals and must keep their names")
	}
}

func TestVariableNaming_KeepsFieldNames(t *testing.T) {
	src := `package p

type point struct {
	x, y int
}

func f() int {
	p := point{x: 1, y: 2}
	return p.x
}
`

	out, _ := apply(t, src, VariableNaming{}, seeded())

	if !strings.Contains(out, "x: 1") {
		t.Fatalf("struct literal keys must keep their names, got:\n%s", out)
	}

	if !strings.Contains(out, "var_0.x") {
		t.Fatalf("field selectors keep the field while the base renames, got:\n%s", out)
	}

	reparse(t, out)
}

func TestExpressionDecompose(t *testing.T) {
	src := `package p

func f(a, b, c, d int) int {
	r := a*b + c/d
	return r
}
`

	out, changed := apply(t, src, ExpressionDecompose{}, seeded())
	if !changed {
		t.Fatalf("expected the expression to split")
	}

	if !strings.Contains(out, "product := a * b") {
		t.Fatalf("expected a named product step, got:\n%s", out)
	}

	if !strings.Contains(out, "quotient := c / d") {
		t.Fatalf("expected a named quotient step, got:\n%s", out)
	}

	if !strings.Contains(out, "r := product + quotient") {
		t.Fatalf("expected the residual sum to use the steps, got:\n%s", out)
	}

	reparse(t, out)
}

func TestExpressionDecompose_KeepsImpureOperands(t *testing.T) {
	src := `package p

func f() int {
	r := g() + h()
	return r
}
`

	_, changed := apply(t, src, ExpressionDecompose{}, seeded())
	if changed {
		t.Fatalf("impure operands must keep their evaluation point")
	}
}

func TestFunctionExtract(t *testing.T) {
	src := `package p

func f(x int) int {
	double := func(n int) int {
		return n * 2
	}

	return double(x)
}
`

	out, changed := apply(t, src, FunctionExtract{}, seeded())
	if !changed {
		t.Fatalf("expected the literal to hoist")
	}

	if !strings.Contains(out, "func double(n int) int") {
		t.Fatalf("expected a package-level declaration, got:\n%s", out)
	}

	if strings.Contains(out, "double := func") {
		t.Fatalf("the local binding must be gone, got:\n%s", out)
	}

	reparse(t, out)
}

func TestFunctionExtract_KeepsCapturingLiterals(t *testing.T) {
	src := `package p

func f(x int) int {
	addX := func(n int) int {
		return n + x
	}

	return addX(1)
}
`

	out, changed, report := applyWithReport(t, src, FunctionExtract{}, seeded())
	if changed {
		t.Fatalf("a capturing literal must stay put:\n%s", out)
	}

	if len(report.Skips) == 0 {
		t.Fatalf("expected a recorded skip reason")
	}
}

func TestReplaceParentheses(t *testing.T) {
	src := "package p\n\nfunc f() {\n\tg(1, 2)\n\th()\n}\n"

	out, changed := (ReplaceParentheses{}).ApplyText(src)
	if !changed {
		t.Fatalf("expected parentheses to go")
	}

	if strings.Contains(out, "g(1, 2)") || strings.Contains(out, "h()") {
		t.Fatalf("parentheses must be stripped, got:\n%s", out)
	}

	if !strings.Contains(out, "1, 2") {
		t.Fatalf("call arguments survive without their parentheses, got:\n%s", out)
	}
}

func TestForgetIndent(t *testing.T) {
	src := "package p\n\nfunc f() {\n\tif true {\n\t\tg()\n\t}\n}\n"

	out, changed := (ForgetIndent{}).ApplyText(src)
	if !changed {
		t.Fatalf("expected indentation to go")
	}

	if strings.Contains(out, "\n\t") {
		t.Fatalf("no line may keep leading tabs, got:\n%q", out)
	}
}
