// Package controller renders transformation results for the CLI.
package controller

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "github.com/wibhim/codemorph/internal/model"
)

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Renderer writes result tables and diffs through a cobra command's output
// streams. Styling is applied only when the output is a terminal.
type Renderer struct {
	cmd   *cobra.Command
	color bool
}

// NewRenderer creates a Renderer. color enables ANSI styling for diffs.
func NewRenderer(cmd *cobra.Command, color bool) *Renderer {
	return &Renderer{cmd: cmd, color: color}
}

// IsTTY reports whether the file is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// RenderDiff prints a unified diff between a result's input and output.
func (r *Renderer) RenderDiff(result m.Result) error {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(result.Input),
		B:        difflib.SplitLines(result.Output),
		FromFile: string(result.Path),
		ToFile:   string(result.Path) + " (transformed)",
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("computing diff for %s: %w", result.Path, err)
	}

	if !r.color {
		r.cmd.Print(diff)
		return nil
	}

	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			r.cmd.Print(addedStyle.Render(strings.TrimSuffix(line, "\n")) + "\n")
		case strings.HasPrefix(line, "-"):
			r.cmd.Print(removedStyle.Render(strings.TrimSuffix(line, "\n")) + "\n")
		case strings.HasPrefix(line, "@@"):
			r.cmd.Print(hunkStyle.Render(strings.TrimSuffix(line, "\n")) + "\n")
		default:
			r.cmd.Print(line)
		}
	}

	return nil
}

// RenderSummary prints a per-file table of what ran and what changed.
func (r *Renderer) RenderSummary(results []m.Result) {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Path", "Changed", "Applied", "Skips", "Error"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
	})

	changedCount := 0

	for _, result := range results {
		changed := "no"
		if result.Changed {
			changed = "yes"
			changedCount++
		}

		applied := ""
		skips := "0"

		if result.Report != nil {
			applied = strings.Join(result.Report.Changed, ",")
			skips = fmt.Sprintf("%d", len(result.Report.Skips))
		}

		table.Append([]string{string(result.Path), changed, applied, skips, result.ErrMsg})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(results)),
		fmt.Sprintf("%d", changedCount),
		"", "", "",
	})

	table.Render()

	r.cmd.Printf("\n%s", buf.String())
}

// RenderTransforms prints the registry listing.
func (r *Renderer) RenderTransforms(infos []m.TransformInfo) {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Name", "Kind", "Summary"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT})

	for _, info := range infos {
		kind := "tree"
		if info.TextOnly {
			kind = "text"
		}

		table.Append([]string{info.Name, kind, info.Summary})
	}

	table.Render()

	r.cmd.Printf("\n%s", buf.String())
}
