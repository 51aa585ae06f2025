package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/tropedeck/internal"
	"github.com/iksnae/tropedeck/internal/relay"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	healthcheckRelay   bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that tropedeck can load its tables",
	Long: `Check the health of tropedeck by verifying:
  • Configuration
  • Local cache access
  • Every trope and encounter source
  • The encounter personal tropes and prompt template
  • Personal data and custom inputs
  • Optionally, the LLM relay

This command is useful for debugging network and cache issues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, sectionStyle.Render("🔍 tropedeck Health Check"))
		_, _ = fmt.Fprintln(out)

		// Step 1: Configuration
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if healthcheckVerbose {
			_, _ = fmt.Fprintf(out, "   Trope table: %s\n", app.cfg.TropesURL)
			_, _ = fmt.Fprintf(out, "   Offline: %t\n", app.cfg.Offline)
			_, _ = fmt.Fprintf(out, "   Fetch timeout: %s\n", app.cfg.FetchTimeout)
		}
		_, _ = fmt.Fprintln(out)

		// Step 2: Cache
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 2: Opening local cache..."))
		store, err := app.Store(ctx)
		if err != nil {
			_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Failed to open cache:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Cache ready (%T)", store)))
		if healthcheckVerbose {
			rows, err := cacheStatus(ctx, store)
			if err == nil {
				for _, r := range rows {
					_, _ = fmt.Fprintf(out, "   %s: %s bytes\n", r.key, r.size)
				}
			}
		}
		_, _ = fmt.Fprintln(out)

		resolvers, err := app.TableResolvers(ctx)
		if err != nil {
			return err
		}
		tropes, encounter := resolvers[0], resolvers[1]

		// Step 3 and 4: Sources
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 3: Probing trope sources..."))
		tropesOK := reportProbe(out, tropes.Probe(ctx))
		_, _ = fmt.Fprintln(out)

		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 4: Probing encounter sources..."))
		encounterOK := reportProbe(out, encounter.Probe(ctx))
		_, _ = fmt.Fprintln(out)

		// Step 5: Encounter extras. Missing ones only degrade encounters.
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 5: Probing encounter tropes and prompt template..."))
		for _, r := range resolvers[2:] {
			reportProbe(out, r.Probe(ctx))
		}
		_, _ = fmt.Fprintln(out)

		// Step 6: User data
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 6: Checking user data..."))
		personalCount, customCount := userDataCounts(ctx)
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %d personal trope(s), %d custom input(s)", personalCount, customCount)))
		_, _ = fmt.Fprintln(out)

		relayOK := true
		if healthcheckRelay {
			_, _ = fmt.Fprintln(out, infoStyle.Render("Step 7: Checking relay..."))
			configured, err := relay.NewClient(app.cfg.RelayURL, app.client).Health(ctx)
			switch {
			case err != nil:
				relayOK = false
				_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Relay not reachable:"), err)
			case !configured:
				relayOK = false
				_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Relay at "+app.cfg.RelayURL+" has no API key configured"))
			default:
				_, _ = fmt.Fprintln(out, successStyle.Render("✅ Relay reachable at "+app.cfg.RelayURL))
			}
			_, _ = fmt.Fprintln(out)
		}

		// Summary
		_, _ = fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		_, _ = fmt.Fprintln(out)
		if tropesOK && encounterOK && relayOK {
			_, _ = fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			return nil
		}
		if tropesOK && encounterOK {
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Tables available but the relay is down"))
			return nil
		}
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
		return fmt.Errorf("health check failed: no usable table source")
	},
}

// reportProbe prints one line per source and reports whether any source
// produced a usable table.
func reportProbe(out io.Writer, results []internal.ProbeResult) bool {
	usable := false
	for _, pr := range results {
		if pr.Err != nil {
			_, _ = fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %s (%s):", pr.Source, pr.Kind)), pr.Err)
			continue
		}
		usable = true
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s (%s): %d item(s)", pr.Source, pr.Kind, pr.Count)))
		if healthcheckVerbose {
			_, _ = fmt.Fprintf(out, "   %d bytes\n", pr.Bytes)
		}
	}
	return usable
}

func userDataCounts(ctx context.Context) (int, int) {
	personalCount, customCount := 0, 0
	if personal, err := app.Personal(ctx); err == nil {
		if pool, err := personal.Load(ctx); err == nil {
			personalCount = len(pool)
		}
	}
	if custom, err := app.CustomInputs(ctx); err == nil {
		if inputs, err := custom.All(ctx); err == nil {
			customCount = len(inputs)
		}
	}
	return personalCount, customCount
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().BoolVar(&healthcheckRelay, "relay", false, "Also check the LLM relay")
}
