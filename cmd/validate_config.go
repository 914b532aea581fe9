package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomoya-namekawa/tf-style-check/internal/config"
	"github.com/tomoya-namekawa/tf-style-check/internal/rules"
	"github.com/tomoya-namekawa/tf-style-check/internal/validation"
)

// validateConfigCmd represents the validate-config command
var validateConfigCmd = &cobra.Command{
	Use:   "validate-config <config-file>",
	Short: "Validate a configuration file",
	Long: `Validate the syntax and content of a tf-style-check configuration file.

This command checks:
- YAML syntax
- Unknown fields
- Category names against the registry
- Excluded rule ids against the registry

If the configuration is valid, a summary is displayed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidateConfig(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateConfigCmd)
}

func runValidateConfig(configPath string) error {
	if err := validation.ValidateConfigPath(configPath); err != nil {
		return err
	}

	fmt.Printf("Validating configuration file: %s\n", configPath)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	catalog := rules.All(rules.Options{})
	if err := rules.ValidateFilters(catalog, cfg.Categories, cfg.ExcludeRules); err != nil {
		return err
	}

	printConfigSummary(cfg)

	fmt.Println("Configuration is valid.")
	return nil
}

func printConfigSummary(cfg *config.Config) {
	fmt.Println("\nConfiguration summary:")
	if len(cfg.Categories) > 0 {
		fmt.Printf("  Categories: %s\n", strings.Join(cfg.Categories, ", "))
	} else {
		fmt.Println("  Categories: all")
	}
	if len(cfg.ExcludeRules) > 0 {
		fmt.Printf("  Excluded rules: %s\n", strings.Join(cfg.ExcludeRules, ", "))
	}
	if len(cfg.AllowedVariables) > 0 {
		fmt.Printf("  Extra allowed variables: %s\n", strings.Join(cfg.AllowedVariables, ", "))
	}
	if len(cfg.SensitivePatterns) > 0 {
		fmt.Printf("  Extra sensitive patterns: %s\n", strings.Join(cfg.SensitivePatterns, ", "))
	}
	if cfg.Workers > 0 {
		fmt.Printf("  Workers: %d\n", cfg.Workers)
	}
	if cfg.Offline {
		fmt.Println("  Offline: true")
	}
}
