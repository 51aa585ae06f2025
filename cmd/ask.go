package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/iksnae/tropedeck/internal"
	"github.com/iksnae/tropedeck/internal/export"
	"github.com/iksnae/tropedeck/internal/relay"
	"github.com/spf13/cobra"
)

var (
	askEncounter bool
	askAdventure string
	askFrom      string
	askCount     int
	askOutput    string
	askDryRun    bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Turn a draw into a generated adventure or encounter",
	Long: `Build a prompt from story tropes or an encounter and send it to the
relay started with ` + "`tropedeck serve`" + ` (TROPEDECK_RELAY_URL).

Examples:
  tropedeck ask                               # One-shot from five fresh tropes
  tropedeck ask --adventure campaign -n 8     # Campaign arc from eight tropes
  tropedeck ask --encounter                   # Encounter from a fresh roll
  tropedeck ask --encounter --players 6 --difficulty hard --tropes 2
  tropedeck ask --from plot.json -o plot.md   # Use a saved draw
  tropedeck ask --dry-run                     # Only print the prompt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if askAdventure != "campaign" && askAdventure != "oneshot" {
			return fmt.Errorf("invalid --adventure %q (campaign or oneshot)", askAdventure)
		}

		doc, err := askDocument(cmd)
		if err != nil {
			return err
		}
		exporter, err := app.exporter(ctx, "prompt", doc)
		if err != nil {
			return err
		}
		prompt, err := exporter.(*export.PromptExporter).Build(doc)
		if err != nil {
			return err
		}
		if askDryRun {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), prompt)
			return err
		}

		path := relay.AdventurePath
		if doc.Kind == internal.DocumentKindEncounter {
			path = relay.EncounterPath
		}
		client := relay.NewClient(app.cfg.RelayURL, &http.Client{Timeout: app.cfg.RelayTimeout})

		var content string
		err = internal.ShowProgress(ctx, "Waiting for the relay...", func() error {
			var genErr error
			content, genErr = client.Generate(ctx, path, prompt, askAdventure)
			return genErr
		})
		if err != nil {
			return err
		}

		if askOutput == "" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), content)
			return err
		}
		if err := os.WriteFile(askOutput, []byte(content+"\n"), 0644); err != nil {
			return &internal.ExportError{Format: "md", Path: askOutput, Err: err}
		}
		internal.PrintSuccess("Wrote generated text to " + askOutput)
		return nil
	},
}

// askDocument loads --from, or draws fresh tropes or a fresh encounter.
func askDocument(cmd *cobra.Command) (*internal.Document, error) {
	ctx := cmd.Context()
	if askFrom != "" {
		return readDocument(askFrom)
	}
	if askEncounter {
		return buildEncounter(cmd)
	}

	primary, secondary, err := app.Pools(ctx, true)
	if err != nil {
		return nil, err
	}
	count := askCount
	if count <= 0 {
		count = app.cfg.DefaultCount
	}
	sel := internal.NewSelection(app.sampler, primary, secondary)
	sel.Generate(count)
	return sel.Document(documentTitle(internal.DocumentKindTropes)), nil
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askEncounter, "encounter", false, "Generate an encounter instead of an adventure")
	askCmd.Flags().StringVar(&askAdventure, "adventure", "oneshot", "Adventure type: campaign or oneshot")
	askCmd.Flags().StringVar(&askFrom, "from", "", "Use a saved json or yaml draw")
	askCmd.Flags().IntVarP(&askCount, "count", "n", 0, "Number of tropes to draw")
	askCmd.Flags().StringVarP(&askOutput, "out", "o", "", "Write the generated text to a file")
	askCmd.Flags().BoolVar(&askDryRun, "dry-run", false, "Print the prompt without sending it")
	addEncounterSettingsFlags(askCmd)
}
