package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tomoya-namekawa/tf-style-check/internal/config"
	"github.com/tomoya-namekawa/tf-style-check/internal/oracle"
	"github.com/tomoya-namekawa/tf-style-check/internal/report"
	"github.com/tomoya-namekawa/tf-style-check/internal/rules/safety"
	"github.com/tomoya-namekawa/tf-style-check/internal/runner"
	"github.com/tomoya-namekawa/tf-style-check/internal/source"
	"github.com/tomoya-namekawa/tf-style-check/internal/validation"
)

var (
	runCategories []string
	runExcluded   []string
	runFormat     string
	runConfigFile string
	runRecursive  bool
	runOffline    bool
	runWorkers    int
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <input-path>",
	Short: "Analyze Terraform files and report violations",
	Long: `Analyze a Terraform file or directory and report style, cross-file,
and safety violations.

By default only the files of the given directory are analyzed. Use -r to
descend into subdirectories; each directory is checked independently for
the cross-file rules.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		code, err := runAnalysis(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runCategories, "category", nil, "Rule categories to run (style, crossfile, safety); default all")
	runCmd.Flags().StringSliceVar(&runExcluded, "exclude-rule", nil, "Rule ids to skip (e.g. ST.004)")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "text", "Output format: text or json")
	runCmd.Flags().StringVarP(&runConfigFile, "config", "c", "", "Configuration file")
	runCmd.Flags().BoolVarP(&runRecursive, "recursive", "r", false, "Analyze directories recursively")
	runCmd.Flags().BoolVar(&runOffline, "offline", false, "Skip the registry-backed provider version check")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Number of parallel workers (default: number of CPUs)")
}

func runAnalysis(inputPath string) (int, error) {
	if err := validation.ValidateInputPath(inputPath); err != nil {
		return 0, fmt.Errorf("invalid input path: %w", err)
	}
	if err := validation.ValidateConfigPath(runConfigFile); err != nil {
		return 0, err
	}
	if runFormat != "text" && runFormat != "json" {
		return 0, fmt.Errorf("unknown format %q (valid: text, json)", runFormat)
	}

	configFile := runConfigFile
	if configFile == "" {
		configFile = config.FindDefault()
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return 0, fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger()

	paths, err := source.Discover(inputPath, runRecursive)
	if err != nil {
		return 0, err
	}
	files, err := source.LoadAll(paths)
	if err != nil {
		return 0, err
	}

	var versionOracle safety.VersionOracle
	if !runOffline && !cfg.Offline {
		versionOracle = oracle.New(oracle.WithLogger(logger))
	}

	opts := runner.Options{
		Categories:        firstNonEmpty(runCategories, cfg.Categories),
		ExcludedRules:     firstNonEmpty(runExcluded, cfg.ExcludeRules),
		AllowedVariables:  cfg.AllowedVariables,
		SensitivePatterns: cfg.SensitivePatterns,
		Workers:           firstPositive(runWorkers, cfg.Workers),
		Oracle:            versionOracle,
		Logger:            logger,
	}

	result, err := runner.Run(context.Background(), files, opts)
	if err != nil {
		return 0, err
	}

	switch runFormat {
	case "json":
		if err := report.JSON(os.Stdout, result.Violations, result.Diagnostics); err != nil {
			return 0, err
		}
	default:
		color := isatty.IsTerminal(os.Stdout.Fd())
		if err := report.Text(os.Stdout, result.Violations, result.Diagnostics, color); err != nil {
			return 0, err
		}
	}

	if result.HasErrors() {
		return 1, nil
	}
	return 0, nil
}

func firstNonEmpty(a, b []string) []string {
	if len(a) > 0 {
		return a
	}
	return b
}

func firstPositive(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
