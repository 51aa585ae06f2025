package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iksnae/tropedeck/internal"
	"github.com/iksnae/tropedeck/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <saved-file>...",
	Short: "Convert saved draws to another format",
	Long: `Convert draws saved as json or yaml (with generate -o, encounter -o or
save in a session) into txt, md, json, jsonl, yaml or prompt.

Without --out the result is printed. With --out each input is written to
that directory under its own name with the new extension.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}
		for _, path := range args {
			doc, err := readDocument(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			internal.LogInfo("Read %d item(s) from %s", len(doc.Entries), path)

			target := ""
			if outputDir != "" {
				base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				target = filepath.Join(outputDir, base+"."+exporter.Extension())
				if target == path {
					return fmt.Errorf("refusing to overwrite %s", path)
				}
			}
			if err := writeDocument(cmd.Context(), cmd.OutOrStdout(), doc, format, target); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format (txt, md, json, jsonl, yaml, prompt)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory")
}
