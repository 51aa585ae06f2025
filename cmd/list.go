package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/tropedeck/internal"
	"github.com/spf13/cobra"
)

var (
	listSearch       string
	listLimit        int
	listPersonalOnly bool
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	originStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tropes available for drawing",
	Long: `List every trope in the default table and your personal data.

Examples:
  tropedeck list                         # Everything
  tropedeck list --search dragon         # Name or detail contains "dragon"
  tropedeck list --personal              # Only your personal tropes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		primary, secondary, err := app.Pools(cmd.Context(), true)
		if err != nil {
			return err
		}
		if listPersonalOnly {
			primary = nil
		}
		sel := internal.NewSelection(app.sampler, primary, secondary)

		var records internal.Pool
		if listSearch != "" {
			records = sel.Search(listSearch, listLimit)
		} else {
			for _, r := range sel.Pool() {
				origin := internal.OriginDefault
				if secondary.Contains(r.ID) {
					origin = internal.OriginPersonal
				}
				records = append(records, r.WithOrigin(origin))
			}
			if listLimit > 0 && len(records) > listLimit {
				records = records[:listLimit]
			}
		}
		displayPool(cmd.OutOrStdout(), records, len(sel.Pool()))
		return nil
	},
}

func displayPool(out io.Writer, records internal.Pool, total int) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("No tropes found"))
		return
	}

	header := fmt.Sprintf("Showing %d of %d trope(s)", len(records), total)
	_, _ = fmt.Fprintln(out, headerStyle.Render(header))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Origin")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 80))

	for _, r := range records {
		name := r.Name
		if len([]rune(name)) > 50 {
			name = string([]rune(name)[:47]) + "..."
		}
		origin := ""
		if r.Origin == internal.OriginPersonal {
			origin = originStyle.Render(string(r.Origin))
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", idStyle.Render(r.ID), name, origin)
	}

	_ = w.Flush()
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, idStyle.Render("Tip: use an ID with `tropedeck show <id>`, or `add <id>` in a session ")+
		countStyle.Render(fmt.Sprintf("(%d listed)", len(records))))
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Only list tropes whose name or detail contains this text")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "List at most this many tropes")
	listCmd.Flags().BoolVar(&listPersonalOnly, "personal", false, "Only list personal tropes")
}
