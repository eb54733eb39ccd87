package domain

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wibhim/codemorph/internal/adapter"
	"github.com/wibhim/codemorph/internal/domain/transforms"
	m "github.com/wibhim/codemorph/internal/model"
)

func newTestPipeline() *Pipeline {
	return NewPipeline(adapter.NewLocalGoFileAdapter())
}

func readExample(t *testing.T, parts ...string) string {
	t.Helper()

	path := filepath.Join(append([]string{"..", "..", "examples"}, parts...)...)

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading fixture %s: %v", path, err)
	}

	return string(content)
}

func TestPipeline_ParseFailureReturnsOriginal(t *testing.T) {
	p := newTestPipeline()

	src := "this is not go source"

	out, _, err := p.Transform(src, []string{"remove_else"}, m.DefaultPolicy())
	if out != src {
		t.Fatalf("unparseable input must come back verbatim, got:\n%s", out)
	}

	var parseErr *m.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected a ParseError, got %v", err)
	}
}

func TestPipeline_UnknownNameIsRecorded(t *testing.T) {
	p := newTestPipeline()

	src := readExample(t, "branch", "main.go")

	out, report, err := p.Transform(src, []string{"no_such_transform"}, m.DefaultPolicy())
	if err != nil {
		t.Fatalf("unknown names must not fail the run: %v", err)
	}

	if out != src {
		t.Fatalf("nothing ran, so the text must come back verbatim")
	}

	if len(report.Unknown) != 1 || report.Unknown[0] != "no_such_transform" {
		t.Fatalf("expected the unknown name recorded, got %v", report.Unknown)
	}
}

func TestPipeline_NoChangeReturnsVerbatim(t *testing.T) {
	p := newTestPipeline()

	// Oddly formatted but valid; a verbatim passthrough must not reformat.
	src := "package p\n\nfunc   f( x int )  int {\n\treturn x\n}\n"

	out, report, err := p.Transform(src, []string{"remove_else"}, m.DefaultPolicy())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if out != src {
		t.Fatalf("a no-op run must not touch the text, got:\n%s", out)
	}

	if len(report.Changed) != 0 {
		t.Fatalf("nothing changed, got %v", report.Changed)
	}
}

func TestPipeline_AppliesInOrder(t *testing.T) {
	p := newTestPipeline()

	src := readExample(t, "branch", "main.go")

	out, report, err := p.Transform(src, []string{"if_normalize", "remove_else"}, m.DefaultPolicy())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if strings.Contains(out, "else") {
		t.Fatalf("remove_else must see the normalized tree, got:\n%s", out)
	}

	if len(report.Applied) != 2 {
		t.Fatalf("both transformations must run, got %v", report.Applied)
	}
}

func TestPipeline_TextTransformsRunLast(t *testing.T) {
	p := newTestPipeline()

	src := readExample(t, "loops", "main.go")

	out, report, err := p.Transform(src, []string{"forget_indent", "loop_exchange"}, m.DefaultPolicy().WithSeed(7))
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	// forget_indent was requested first but must still run after the tree
	// transformation serializes.
	if strings.Contains(out, "\n\t") {
		t.Fatalf("indentation must be gone from the final text, got:\n%s", out)
	}

	if !strings.Contains(out, "for i < 10") && !strings.Contains(out, "i := 0") {
		t.Fatalf("the tree transformation must still apply, got:\n%s", out)
	}

	found := false

	for _, name := range report.Changed {
		if name == "forget_indent" {
			found = true
		}
	}

	if !found {
		t.Fatalf("forget_indent must report a change, got %v", report.Changed)
	}
}

func TestPipeline_DeterministicWithSeed(t *testing.T) {
	p := newTestPipeline()

	src := readExample(t, "statement", "main.go")
	names := []string{"permute_statement", "dead_code_insertion"}

	first, _, err := p.Transform(src, names, m.DefaultPolicy().WithSeed(99))
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	second, _, err := p.Transform(src, names, m.DefaultPolicy().WithSeed(99))
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if first != second {
		t.Fatalf("same seed must give identical output:\n--- first\n%s\n--- second\n%s", first, second)
	}
}

type explodingTransform struct{}

func (explodingTransform) Name() string { return "exploding" }

func (explodingTransform) Apply(*ast.File, *transforms.Context) (bool, error) {
	panic("deliberate crash")
}

func TestPipeline_PanicIsIsolated(t *testing.T) {
	p := newTestPipeline()

	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, "in.go", "package p\n\nfunc f() {}\n", parser.ParseComments)
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}

	desc := Descriptor{
		Name: "exploding",
		Make: func() transforms.Transformer { return explodingTransform{} },
	}

	ctx := transforms.NewContext(fset, m.DefaultPolicy(), nil)

	out, changed, err := p.applyTree(desc, file, fset, ctx)
	if changed {
		t.Fatalf("a panicking transformation must not report a change")
	}

	if out != "" {
		t.Fatalf("a panicking transformation must not produce output, got %q", out)
	}

	var terr *m.TransformationError
	if !errors.As(err, &terr) {
		t.Fatalf("expected a TransformationError, got %v", err)
	}

	if terr.Name != "exploding" {
		t.Fatalf("the error must name the offender, got %q", terr.Name)
	}
}
