package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default codemorph.yaml configuration file",
		Long: `Create a codemorph.yaml in the current working directory populated with the
current CLI defaults so it can be edited manually.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			if _, err := os.Stat(targetPath); err == nil {
				return fmt.Errorf("config file %s already exists", targetPath)
			}

			// yaml.Marshal sorts map keys, so the generated file is stable.
			content, err := yaml.Marshal(viper.AllSettings())
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}

			if err := os.WriteFile(targetPath, content, 0o644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
