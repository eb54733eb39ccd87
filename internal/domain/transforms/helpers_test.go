package transforms

import (
	"bytes"
	"go/format"
	"go/parser"
	"go/token"
	"testing"

	m "github.com/wibhim/codemorph/internal/model"
)

// apply parses src, runs the transformer under a fixed-seed policy, and
// returns the serialized result.
func apply(t *testing.T, src string, tr Transformer, policy m.Policy) (string, bool) {
	t.Helper()

	out, changed, report := applyWithReport(t, src, tr, policy)
	_ = report

	return out, changed
}

func applyWithReport(t *testing.T, src string, tr Transformer, policy m.Policy) (string, bool, *m.Report) {
	t.Helper()

	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, "src.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parsing input: %v", err)
	}

	report := m.NewReport()
	ctx := NewContext(fset, policy, report)

	changed, err := tr.Apply(file, ctx)
	if err != nil {
		t.Fatalf("applying %s: %v", tr.Name(), err)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		t.Fatalf("formatting result of %s: %v", tr.Name(), err)
	}

	return buf.String(), changed, report
}

// reparse fails the test when the transformed source no longer parses.
func reparse(t *testing.T, src string) {
	t.Helper()

	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, "out.go", src, parser.ParseComments); err != nil {
		t.Fatalf("transformed source does not parse: %v\n%s", err, src)
	}
}

func seeded() m.Policy {
	return m.DefaultPolicy().WithSeed(42)
}
