package cmd

import (
	"fmt"
	"io"

	"github.com/iksnae/tropedeck/internal"
	"github.com/spf13/cobra"
)

var (
	generateCount      int
	generateFormat     string
	generateOutput     string
	generateNoPersonal bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draw a random set of story tropes",
	Long: `Draw a random set of distinct story tropes from the default table.

When personal data has been uploaded, the draw mixes both lists: with two
or more tropes at least one comes from each.

Examples:
  tropedeck generate                     # Draw the default number of tropes
  tropedeck generate -n 8                # Draw eight
  tropedeck generate --format md         # Print as Markdown
  tropedeck generate -o plot.json        # Save for later (format from extension)
  tropedeck generate --format prompt     # Build a campaign prompt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		count := generateCount
		if count <= 0 {
			count = app.cfg.DefaultCount
		}

		primary, secondary, err := app.Pools(ctx, !generateNoPersonal)
		if err != nil {
			return err
		}
		sel := internal.NewSelection(app.sampler, primary, secondary)
		picked := sel.Generate(count)
		if len(picked) < count {
			internal.PrintWarning(fmt.Sprintf("Only %d trope(s) available", len(picked)))
		}

		if generateFormat == "" && generateOutput == "" {
			printRecords(cmd.OutOrStdout(), picked)
			return nil
		}
		return writeDocument(ctx, cmd.OutOrStdout(), sel.Document(documentTitle(internal.DocumentKindTropes)), generateFormat, generateOutput)
	},
}

func printRecords(w io.Writer, records internal.Pool) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "No tropes selected.")
		return
	}
	for i, r := range records {
		_, _ = fmt.Fprint(w, internal.FormatRecord(w, i+1, r))
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 0, "Number of tropes to draw (default from TROPEDECK_DEFAULT_COUNT)")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", "", "Output format (txt, md, json, jsonl, yaml, prompt)")
	generateCmd.Flags().StringVarP(&generateOutput, "out", "o", "", "Write to a file instead of stdout")
	generateCmd.Flags().BoolVar(&generateNoPersonal, "no-personal", false, "Ignore uploaded personal data")
}
