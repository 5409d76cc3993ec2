package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/ghcount/internal/language"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "Lists the supported languages and their test rules",
	RunE: func(cmd *cobra.Command, _ []string) error {
		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

		if _, err := fmt.Fprintln(writer, "LANGUAGE\tEXTENSIONS\tTEST DIRS\tTEST FILES"); err != nil {
			return err
		}
		for _, spec := range language.Default().Specs() {
			patterns := make([]string, len(spec.TestFilePatterns))
			for i, p := range spec.TestFilePatterns {
				patterns[i] = p.String()
			}
			if _, err := fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
				spec.Name,
				strings.Join(spec.Extensions, ", "),
				strings.Join(spec.TestDirs, ", "),
				strings.Join(patterns, ", "),
			); err != nil {
				return err
			}
		}
		return writer.Flush()
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
