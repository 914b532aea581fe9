package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomoya-namekawa/tf-style-check/internal/rules"
)

// rulesCmd lists the rule registry.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List all registered rules",
	Long: `List every registered rule with its id, category, severity, and name.

Rule ids are what the --exclude-rule flag and the inline suppression
directives (# <RULE_ID> Disable / Enable) refer to.`,
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCATEGORY\tSEVERITY\tNAME")
		for _, d := range rules.All(rules.Options{}) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Category, d.Severity, d.Name)
		}
		_ = w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
