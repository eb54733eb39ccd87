// Package cmd provides the root command and CLI setup for codemorph.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wibhim/codemorph/internal/adapter"
	"github.com/wibhim/codemorph/internal/controller"
	"github.com/wibhim/codemorph/internal/domain"
	m "github.com/wibhim/codemorph/internal/model"
)

var goFileAdapter adapter.GoFileAdapter
var fsAdapter adapter.SourceFSAdapter
var pipeline *domain.Pipeline
var renderer *controller.Renderer

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

// verboseFlag raises the log level to debug.
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	goFileAdapter = adapter.NewLocalGoFileAdapter()
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	pipeline = domain.NewPipeline(goFileAdapter)
	renderer = controller.NewRenderer(rootCmd, controller.IsTTY(os.Stdout))
}

const pathPatternsHelp = `Paths may name files or directories:
  - main.go        transform a single file
  - ./pkg          transform every Go file under pkg
  - -              read one file from standard input`

const rootLongDescription = `Codemorph rewrites Go source through named structural transformations:
loop restructuring, statement permutation, conditional normalization, and
randomized mutations that degrade or obfuscate code for corpus generation.

` + pathPatternsHelp

const transformLongDescription = `Apply the named transformations, in order, to the given paths.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codemorph",
		Short: "Go source transformation tool",
		Long:  rootLongDescription,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", viper.GetBool(logVerboseKey), "enable debug logging")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("verbose"), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	configureLogger("", viper.GetBool(logVerboseKey))

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
