package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/tropedeck/internal"
	"github.com/spf13/cobra"
)

var (
	// Styles for show command
	recordHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1)

	recordMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	recordContentStyle = lipgloss.NewStyle().
				Padding(0, 2)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one trope in full",
	Long:  `Display the full detail of a trope from the default table or your personal data.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		primary, secondary, err := app.Pools(cmd.Context(), true)
		if err != nil {
			return err
		}
		sel := internal.NewSelection(app.sampler, primary, secondary)
		rec, ok := sel.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no trope with id %s (try `tropedeck list --search`)", args[0])
		}
		if secondary.Contains(rec.ID) {
			rec = rec.WithOrigin(internal.OriginPersonal)
		} else {
			rec = rec.WithOrigin(internal.OriginDefault)
		}
		printRecordDetail(cmd.OutOrStdout(), rec)
		return nil
	},
}

func printRecordDetail(w io.Writer, rec internal.Record) {
	_, _ = fmt.Fprintln(w, recordHeaderStyle.Render(rec.Name))

	metaParts := []string{"ID: " + rec.ID}
	if rec.Origin != "" {
		metaParts = append(metaParts, "Origin: "+string(rec.Origin))
	}
	_, _ = fmt.Fprintln(w, recordMetaStyle.Render(strings.Join(metaParts, " • ")))
	_, _ = fmt.Fprintln(w)

	content := strings.TrimSpace(rec.Detail)
	if content == "" {
		_, _ = fmt.Fprintln(w, recordContentStyle.Foreground(lipgloss.Color("240")).Render("(no detail)"))
		return
	}
	_, _ = fmt.Fprintln(w, recordContentStyle.Render(wrapText(content, 80)))
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		// Wrap long lines
		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
}
