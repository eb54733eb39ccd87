package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wibhim/codemorph/internal/domain"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available transformations",
		Long:  "List every registered transformation with its kind and a one-line summary.",
		Run: func(_ *cobra.Command, _ []string) {
			renderer.RenderTransforms(domain.Infos())
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
