package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iksnae/tropedeck/internal"
	"github.com/spf13/cobra"
)

var personalOutput string

var personalCmd = &cobra.Command{
	Use:   "personal",
	Short: "Manage your personal trope table",
	Long: `Your personal table is mixed into every draw. It uses the same columns
as the default table: an id, an element name and an element detail.

Examples:
  tropedeck personal template -o mine.csv   # Start from an empty table
  tropedeck personal upload mine.csv        # Upload it
  tropedeck personal show                   # Check what was stored
  tropedeck personal purge                  # Remove it`,
}

var personalUploadCmd = &cobra.Command{
	Use:   "upload <file|url|->",
	Short: "Upload a personal table from a file, a URL or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		raw, err := readPersonalSource(cmd, args[0])
		if err != nil {
			return err
		}
		personal, err := app.Personal(ctx)
		if err != nil {
			return err
		}
		res, err := personal.Upload(ctx, raw)
		if err != nil {
			return fmt.Errorf("personal table rejected: %w", err)
		}
		internal.PrintSuccess(fmt.Sprintf("Uploaded %d personal trope(s)", len(res.Records)))
		for _, s := range res.Skipped {
			internal.PrintWarning(fmt.Sprintf("Skipped row %d: %s", s.Row+1, s.Reason))
		}
		return nil
	},
}

var personalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the stored personal tropes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		personal, err := app.Personal(cmd.Context())
		if err != nil {
			return err
		}
		pool, err := personal.Load(cmd.Context())
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No personal data uploaded.")
			return nil
		}
		tagged := make(internal.Pool, len(pool))
		for i, r := range pool {
			tagged[i] = r.WithOrigin(internal.OriginPersonal)
		}
		printRecords(cmd.OutOrStdout(), tagged)
		return nil
	},
}

var personalPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the stored personal table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		personal, err := app.Personal(cmd.Context())
		if err != nil {
			return err
		}
		if err := personal.Purge(cmd.Context()); err != nil {
			return err
		}
		internal.PrintSuccess("Personal data removed")
		return nil
	},
}

var personalTemplateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write an empty personal table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if personalOutput == "" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), internal.TemplateCSV())
			return err
		}
		if err := os.WriteFile(personalOutput, []byte(internal.TemplateCSV()), 0644); err != nil {
			return &internal.ExportError{Format: "csv", Path: personalOutput, Err: err}
		}
		internal.PrintSuccess("Wrote template to " + personalOutput)
		return nil
	},
}

func readPersonalSource(cmd *cobra.Command, ref string) (string, error) {
	switch {
	case ref == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		src := internal.NewHTTPSource("personal", ref, app.client)
		return src.Fetch(cmd.Context())
	default:
		data, err := os.ReadFile(ref)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", ref, err)
		}
		return string(data), nil
	}
}

func init() {
	rootCmd.AddCommand(personalCmd)
	personalCmd.AddCommand(personalUploadCmd, personalShowCmd, personalPurgeCmd, personalTemplateCmd)
	personalTemplateCmd.Flags().StringVarP(&personalOutput, "out", "o", "", "Write to a file instead of stdout")
}
