package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tomoya-namekawa/tf-style-check/internal/version"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "tf-style-check",
	Short:   "Static style, organization, and safety analysis for Terraform",
	Version: version.GetVersion(),
	Long: `tf-style-check statically analyzes Terraform configuration trees and
reports style, organization, and safety violations: formatting and naming
conventions per file, consistency rules across the files of a directory,
and unsafe usage patterns.

Findings can be suppressed inline per rule with comment directives:

  # ST.004 Disable
  ...
  # ST.004 Enable`,
}

// Execute runs the CLI.
func Execute() error {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	return rootCmd.Execute()
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
