package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	m "github.com/wibhim/codemorph/internal/model"
	"github.com/wibhim/codemorph/pkg"
)

const stdinPath = "-"

var transformNamesFlag []string
var seedFlag int64
var perFuncFlag bool
var writeFlag bool
var diffFlag bool
var reportFlag bool
var parallelFlag int
var positionFlag string
var probInsertFlag float64
var minInsertsFlag int
var maxInsertsFlag int
var maxSwapsFlag int

// transformCmd represents the transform command.
var transformCmd = newTransformCmd()

func newTransformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform [paths...]",
		Short: "Apply source transformations",
		Long:  transformLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(transformNamesFlag) == 0 {
				return fmt.Errorf("no transformations requested; see 'codemorph list'")
			}

			policy := policyFromConfig(cmd.Flags().Changed(seedFlagName), seedFlag)

			if len(args) == 0 || (len(args) == 1 && args[0] == stdinPath) {
				return runStdin(cmd, policy)
			}

			files, err := fsAdapter.GoFiles(parsePaths(args), viper.GetStringSlice(excludeConfigKey))
			if err != nil {
				return err
			}

			if len(files) == 0 {
				return fmt.Errorf("no Go files matched")
			}

			return runBatch(cmd, files, policy)
		},
	}

	configureTransformFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(transformCmd)
}

func configureTransformFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&transformNamesFlag, transformsFlagName, "t", nil, "transformation names to apply, in order (can be repeated)")
	cmd.Flags().Int64Var(&seedFlag, seedFlagName, 0, "random seed for reproducible output (default: time-based)")
	cmd.Flags().BoolVar(&perFuncFlag, perFuncFlagName, viper.GetBool(perFuncConfigKey), "derive a stable sub-seed per function from its name")
	bindFlagToConfig(cmd.Flags().Lookup(perFuncFlagName), perFuncConfigKey)
	cmd.Flags().BoolVarP(&writeFlag, writeFlagName, "w", false, "write results back to the source files")
	cmd.Flags().BoolVarP(&diffFlag, diffFlagName, "d", false, "print a unified diff per changed file")
	cmd.Flags().BoolVarP(&reportFlag, reportFlagName, "r", false, "print a per-file summary table")
	cmd.Flags().IntVarP(&parallelFlag, parallelFlagName, "p", viper.GetInt(parallelConfigKey), "number of files transformed in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), parallelConfigKey)

	// Mutation policy knobs; each falls back to its config/env value.
	cmd.Flags().StringVar(&positionFlag, positionFlagName, viper.GetString(positionConfigKey), "insertion position: random, top, middle or bottom")
	bindFlagToConfig(cmd.Flags().Lookup(positionFlagName), positionConfigKey)
	cmd.Flags().Float64Var(&probInsertFlag, probInsertFlagName, viper.GetFloat64(probInsertKey), "per-function probability of a randomized insertion")
	bindFlagToConfig(cmd.Flags().Lookup(probInsertFlagName), probInsertKey)
	cmd.Flags().IntVar(&minInsertsFlag, minInsertsFlagName, viper.GetInt(minInsertsKey), "minimum statements per randomized insertion")
	bindFlagToConfig(cmd.Flags().Lookup(minInsertsFlagName), minInsertsKey)
	cmd.Flags().IntVar(&maxInsertsFlag, maxInsertsFlagName, viper.GetInt(maxInsertsKey), "maximum statements per randomized insertion")
	bindFlagToConfig(cmd.Flags().Lookup(maxInsertsFlagName), maxInsertsKey)
	cmd.Flags().IntVar(&maxSwapsFlag, maxSwapsFlagName, viper.GetInt(maxSwapsKey), "maximum statement swaps per basic block")
	bindFlagToConfig(cmd.Flags().Lookup(maxSwapsFlagName), maxSwapsKey)
}

// runStdin transforms one file read from standard input and prints the
// result to standard output.
func runStdin(cmd *cobra.Command, policy m.Policy) error {
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	out, report, err := pipeline.Transform(string(src), transformNamesFlag, policy)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), out)

	if reportFlag {
		renderer.RenderSummary([]m.Result{{Path: stdinPath, Changed: out != string(src), Report: report}})
	}

	return nil
}

// runBatch transforms the files concurrently. Results spill to a temporary
// gob file as they complete so large corpora do not accumulate transformed
// text in memory, then render in path order.
func runBatch(cmd *cobra.Command, files []m.Path, policy m.Policy) error {
	spill, err := pkg.NewTempSpill[m.Result]("codemorph-results")
	if err != nil {
		return err
	}

	defer func() {
		_ = spill.Close()
		_ = os.Remove(spill.Path())
	}()

	group := &errgroup.Group{}
	group.SetLimit(max(parallelFlag, 1))

	for _, path := range files {
		group.Go(func() error {
			result := transformOne(path, policy)

			return spill.Append(result)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	results := make([]m.Result, 0, spill.Len())

	err = spill.Range(func(_ uint64, r m.Result) error {
		results = append(results, r)
		return nil
	})
	if err != nil {
		return err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	return renderResults(cmd, results)
}

func transformOne(path m.Path, policy m.Policy) m.Result {
	result := m.Result{Path: path}

	src, err := fsAdapter.ReadFile(path)
	if err != nil {
		result.ErrMsg = err.Error()
		return result
	}

	result.Input = string(src)

	out, report, err := pipeline.Transform(result.Input, transformNamesFlag, policy)
	result.Output = out
	result.Report = report
	result.Changed = out != result.Input

	if err != nil {
		result.ErrMsg = err.Error()
		return result
	}

	if writeFlag && result.Changed {
		if err := fsAdapter.WriteFile(path, []byte(out), 0o644); err != nil {
			result.ErrMsg = err.Error()
		}
	}

	return result
}

func renderResults(cmd *cobra.Command, results []m.Result) error {
	failures := 0

	for _, r := range results {
		if r.ErrMsg != "" {
			failures++
		}

		if diffFlag && r.Changed {
			if err := renderer.RenderDiff(r); err != nil {
				return err
			}
		}

		if !writeFlag && !diffFlag && !reportFlag {
			fmt.Fprint(cmd.OutOrStdout(), r.Output)
		}
	}

	if reportFlag {
		renderer.RenderSummary(results)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d files failed", failures, len(results))
	}

	return nil
}
