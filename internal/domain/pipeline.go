package domain

import (
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"

	"github.com/wibhim/codemorph/internal/adapter"
	"github.com/wibhim/codemorph/internal/domain/transforms"
	"github.com/wibhim/codemorph/internal/model"
)

// Pipeline applies named transformations to Go source text. Tree-level
// transformations run first, in the requested order, each against the tree
// produced by its predecessors; text-level ones run against the serialized
// result. One Pipeline value is safe for concurrent use since every call
// parses its own tree.
type Pipeline struct {
	files adapter.GoFileAdapter
}

// NewPipeline builds a Pipeline around the given file adapter.
func NewPipeline(files adapter.GoFileAdapter) *Pipeline {
	return &Pipeline{files: files}
}

// Transform applies the named transformations to src and returns the
// resulting source with a per-run report.
//
// Unparseable input returns the original text with a model.ParseError. A
// transformation that fails or panics is discarded and the run continues
// from the last good text; unknown names are recorded and skipped. When no
// transformation changes the tree the original text comes back verbatim.
func (p *Pipeline) Transform(src string, names []string, policy model.Policy) (string, *model.Report, error) {
	report := model.NewReport()

	fset := token.NewFileSet()

	file, err := p.files.Parse(fset, "src.go", []byte(src))
	if err != nil {
		return src, report, &model.ParseError{Err: err}
	}

	ctx := transforms.NewContext(fset, policy, report)

	var textNames []string

	lastGood := src
	treeChanged := false

	for _, name := range names {
		desc, ok := Lookup(name)
		if !ok {
			slog.Warn("unknown transformation requested", "name", name)
			report.Unknown = append(report.Unknown, name)

			continue
		}

		if desc.TextOnly {
			textNames = append(textNames, name)
			continue
		}

		out, changed, err := p.applyTree(desc, file, fset, ctx)
		if err != nil {
			slog.Error("transformation failed, step discarded", "name", name, "error", err)
			report.Failed = append(report.Failed, name)

			// Roll back to the last good text; the failed step may have
			// left the tree half rewritten.
			fset = token.NewFileSet()

			file, err = p.files.Parse(fset, "src.go", []byte(lastGood))
			if err != nil {
				return src, report, &model.ParseError{Err: err}
			}

			ctx.Fset = fset

			continue
		}

		report.Applied = append(report.Applied, name)

		if changed {
			report.Changed = append(report.Changed, name)

			lastGood = out
			treeChanged = true

			// Reparse so later transformations see positions consistent
			// with the serialized text and no aliasing from this step.
			fset = token.NewFileSet()

			file, err = p.files.Parse(fset, "src.go", []byte(lastGood))
			if err != nil {
				return src, report, fmt.Errorf("reparsing transformed source: %w", err)
			}

			ctx.Fset = fset
		}
	}

	out := src
	if treeChanged {
		out = lastGood
	}

	for _, name := range textNames {
		desc, _ := Lookup(name)

		t := desc.MakeText()

		next, changed := t.ApplyText(out)

		report.Applied = append(report.Applied, name)

		if changed {
			report.Changed = append(report.Changed, name)
			out = next
		}
	}

	return out, report, nil
}

// applyTree runs one tree transformation with panic isolation and returns
// the serialized result.
func (p *Pipeline) applyTree(desc Descriptor, file *ast.File, fset *token.FileSet, ctx *transforms.Context) (out string, changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &model.TransformationError{Name: desc.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	t := desc.Make()

	changed, err = t.Apply(file, ctx)
	if err != nil {
		return "", false, &model.TransformationError{Name: desc.Name, Err: err}
	}

	if !changed {
		return "", false, nil
	}

	out, err = p.files.Format(fset, file)
	if err != nil {
		return "", false, &model.TransformationError{Name: desc.Name, Err: fmt.Errorf("serializing result: %w", err)}
	}

	return out, true, nil
}
