package controller

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/wibhim/codemorph/internal/model"
)

func newTestRenderer() (*Renderer, *bytes.Buffer) {
	buf := &bytes.Buffer{}

	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	return NewRenderer(cmd, false), buf
}

func TestRenderSummary(t *testing.T) {
	r, buf := newTestRenderer()

	report := m.NewReport()
	report.Changed = append(report.Changed, "remove_else")

	r.RenderSummary([]m.Result{
		{Path: "a.go", Changed: true, Report: report},
		{Path: "b.go", Changed: false, ErrMsg: "boom"},
	})

	out := buf.String()

	assert.Contains(t, out, "a.go")
	assert.Contains(t, out, "b.go")
	assert.Contains(t, out, "remove_else")
	assert.Contains(t, out, "boom")
	assert.Contains(t, strings.ToUpper(out), "TOTAL FILES 2")
}

func TestRenderDiff(t *testing.T) {
	r, buf := newTestRenderer()

	err := r.RenderDiff(m.Result{
		Path:   "a.go",
		Input:  "package p\n\nfunc f() int { return 1 }\n",
		Output: "package p\n\nfunc f() int { return 2 }\n",
	})
	require.NoError(t, err)

	out := buf.String()

	assert.Contains(t, out, "-func f() int { return 1 }")
	assert.Contains(t, out, "+func f() int { return 2 }")
	assert.Contains(t, out, "a.go")
}

func TestRenderDiffWithoutColorHasNoEscapes(t *testing.T) {
	r, buf := newTestRenderer()

	err := r.RenderDiff(m.Result{
		Path:   "a.go",
		Input:  "x\n",
		Output: "y\n",
	})
	require.NoError(t, err)

	assert.False(t, strings.Contains(buf.String(), "\x1b["), "plain mode must not emit ANSI escapes")
}

func TestRenderTransforms(t *testing.T) {
	r, buf := newTestRenderer()

	r.RenderTransforms([]m.TransformInfo{
		{Name: "remove_else", Summary: "drop else branches"},
		{Name: "forget_indent", TextOnly: true, Summary: "flatten leading whitespace"},
	})

	out := buf.String()

	assert.Contains(t, out, "remove_else")
	assert.Contains(t, out, "tree")
	assert.Contains(t, out, "forget_indent")
	assert.Contains(t, out, "text")
}
