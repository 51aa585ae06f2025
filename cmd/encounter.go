package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/tropedeck/internal"
	"github.com/spf13/cobra"
)

var (
	encounterSets    []string
	encounterRerolls []string
	encounterLoad    string
	encounterFormat  string
	encounterOutput  string

	encounterAddTropes    []string
	encounterDropTropes   []string
	encounterRerollTropes []string
	encounterClearTropes  bool
)

// Shared by encounter and ask.
var (
	encounterPlayers    int
	encounterDifficulty string
	encounterLore       []string
	encounterLoreMode   string
	encounterTropeCount int
)

var labelStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("62"))

var encounterCmd = &cobra.Command{
	Use:   "encounter",
	Short: "Roll a random encounter",
	Long: `Roll one value for each encounter category: location, fantastical
nature, current state, situation, complication, NPC and adversaries.

Values come from the encounter table plus your custom inputs. The table
settings (players, difficulty, world lore links and lore mode) and any
attached personal tropes are carried into every export and prompt.

Examples:
  tropedeck encounter                                  # Roll everything
  tropedeck encounter --set npc="A nervous ferryman"   # Fix one field
  tropedeck encounter --players 5 --difficulty hard    # Table settings
  tropedeck encounter --lore "Atlas=https://example.com/atlas" --lore-mode strict
  tropedeck encounter --tropes 3                       # Attach three personal tropes
  tropedeck encounter --load enc.json --reroll npc     # Reroll one field of a saved encounter
  tropedeck encounter --load enc.json --reroll-trope 4 # Swap one attached trope
  tropedeck encounter --format prompt                  # Build an encounter prompt
  tropedeck encounter -o enc.json                      # Save it`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		doc, err := buildEncounter(cmd)
		if err != nil {
			return err
		}
		if encounterFormat == "" && encounterOutput == "" {
			printEncounter(cmd.OutOrStdout(), doc)
			return nil
		}
		return writeDocument(ctx, cmd.OutOrStdout(), doc, encounterFormat, encounterOutput)
	},
}

// buildEncounter rolls or loads an encounter, applies the field flags and
// attaches the table settings and personal tropes.
func buildEncounter(cmd *cobra.Command) (*internal.Document, error) {
	ctx := cmd.Context()
	store, err := app.CategoryStore(ctx)
	if err != nil {
		return nil, err
	}

	var loaded *internal.Document
	if encounterLoad != "" {
		if loaded, err = loadEncounter(store, encounterLoad); err != nil {
			return nil, err
		}
	} else if _, err := store.GenerateAll(ctx); err != nil {
		return nil, err
	}

	for _, name := range encounterRerolls {
		key, err := internal.ParseCategoryKey(name)
		if err != nil {
			return nil, err
		}
		if _, err := store.RandomField(ctx, key); err != nil {
			return nil, err
		}
	}
	for _, kv := range encounterSets {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q, expected category=value", kv)
		}
		key, err := internal.ParseCategoryKey(name)
		if err != nil {
			return nil, err
		}
		if err := store.SetField(key, value); err != nil {
			return nil, err
		}
	}

	doc := store.Current().Document(documentTitle(internal.DocumentKindEncounter))
	settings, err := encounterSettings(cmd, loaded)
	if err != nil {
		return nil, err
	}
	doc.Settings = &settings

	var attached []internal.Entry
	if loaded != nil {
		attached = loaded.Tropes
	}
	if doc.Tropes, err = encounterTropes(ctx, attached); err != nil {
		return nil, err
	}
	return doc, nil
}

// encounterSettings starts from the loaded settings, or the defaults, and
// applies the flags. Flags left unset keep the loaded values; lore links
// are appended.
func encounterSettings(cmd *cobra.Command, loaded *internal.Document) (internal.EncounterSettings, error) {
	settings := internal.DefaultEncounterSettings()
	fromFile := loaded != nil && loaded.Settings != nil
	if fromFile {
		settings = *loaded.Settings
		settings.Lore = append([]internal.LoreLink(nil), loaded.Settings.Lore...)
	}
	flags := cmd.Flags()

	if !fromFile || flags.Changed("players") {
		settings.Players = encounterPlayers
	}
	if !fromFile || flags.Changed("difficulty") {
		d, err := internal.ParseDifficulty(encounterDifficulty)
		if err != nil {
			return settings, err
		}
		settings.Difficulty = d
	}
	if !fromFile || flags.Changed("lore-mode") {
		m, err := internal.ParseLoreMode(encounterLoreMode)
		if err != nil {
			return settings, err
		}
		settings.LoreMode = m
	}
	for _, raw := range encounterLore {
		link, err := internal.ParseLoreLink(raw)
		if err != nil {
			return settings, err
		}
		if err := settings.AddLore(link); err != nil {
			return settings, err
		}
	}
	return settings, settings.Validate()
}

// encounterTropes runs the personal trope flags against a selection that
// starts from the attached tropes. The trope table is only resolved when a
// flag needs to draw from it.
func encounterTropes(ctx context.Context, attached []internal.Entry) ([]internal.Entry, error) {
	var pool internal.Pool
	if encounterTropeCount > 0 || len(encounterAddTropes) > 0 || len(encounterRerollTropes) > 0 {
		var err error
		if pool, err = app.EncounterTropes(ctx); err != nil {
			return nil, err
		}
	}
	sel := internal.NewSelection(app.sampler, nil, pool)
	sel.Load(internal.RecordsFromEntries(attached))

	if encounterClearTropes {
		sel.Clear()
	}
	if encounterTropeCount > 0 {
		sel.Generate(encounterTropeCount)
	}
	for _, id := range encounterAddTropes {
		rec, ok := sel.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("no personal trope with id %q", id)
		}
		if sel.AddSpecific(rec) == internal.AlreadyPresent {
			internal.PrintInfo(fmt.Sprintf("%s is already attached", rec.Name))
		}
	}
	for _, id := range encounterDropTropes {
		if sel.Remove(id) == internal.NotFound {
			internal.LogWarn("Trope %s is not attached", id)
		}
	}
	for _, id := range encounterRerollTropes {
		switch _, outcome := sel.Randomize(id); outcome {
		case internal.NotFound:
			return nil, fmt.Errorf("trope %q is not attached", id)
		case internal.NoCandidates:
			internal.PrintWarning("No more personal tropes available")
		}
	}

	if sel.Len() == 0 {
		return nil, nil
	}
	return sel.Records().Entries(), nil
}

var encounterOptionsCmd = &cobra.Command{
	Use:   "options <category>",
	Short: "List every value a category can take",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listOptions(cmd, args[0], "")
	},
}

var encounterSearchCmd = &cobra.Command{
	Use:   "search <category> <text>",
	Short: "Find category values containing text",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listOptions(cmd, args[0], strings.Join(args[1:], " "))
	},
}

func listOptions(cmd *cobra.Command, category, query string) error {
	key, err := internal.ParseCategoryKey(category)
	if err != nil {
		return err
	}
	store, err := app.CategoryStore(cmd.Context())
	if err != nil {
		return err
	}
	opts, err := store.Search(cmd.Context(), key, query)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(opts) == 0 {
		_, _ = fmt.Fprintf(out, "No %s values found.\n", key.Label())
		return nil
	}
	_, _ = fmt.Fprintln(out, labelStyle.Render(fmt.Sprintf("%s (%d)", key.Label(), len(opts))))
	for _, o := range opts {
		_, _ = fmt.Fprintln(out, "  "+internal.FormatOption(out, o))
	}
	return nil
}

// loadEncounter fills store from a saved encounter document and returns the
// document. Entry ids are category keys; labels are accepted too.
func loadEncounter(store *internal.CategoryStore, path string) (*internal.Document, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	if doc.Kind != internal.DocumentKindEncounter {
		return nil, fmt.Errorf("%s does not hold an encounter", path)
	}
	for _, e := range doc.Entries {
		ref := e.ID
		if ref == "" {
			ref = e.Name
		}
		key, err := internal.ParseCategoryKey(ref)
		if err != nil {
			internal.LogWarn("Skipping %s: %v", ref, err)
			continue
		}
		if err := store.SetField(key, e.Detail); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func printEncounter(out io.Writer, doc *internal.Document) {
	values := make(map[string]string, len(doc.Entries))
	for _, e := range doc.Entries {
		values[e.ID] = e.Detail
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, k := range internal.CategoryKeys {
		value := values[string(k)]
		if value == "" {
			value = idStyle.Render("(none)")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render(k.Label()+":"), value)
	}
	s := doc.Settings
	if s != nil {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", labelStyle.Render("Players:"), s.Players)
		_, _ = fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("Difficulty:"), s.Difficulty)
		_, _ = fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("Lore mode:"), s.LoreMode)
	}
	_ = w.Flush()

	if s != nil && len(s.Lore) > 0 {
		_, _ = fmt.Fprintln(out, labelStyle.Render("World lore:"))
		for _, l := range s.Lore {
			_, _ = fmt.Fprintf(out, "  • %s  %s\n", l.Title, idStyle.Render(l.URL))
		}
	}
	if len(doc.Tropes) > 0 {
		_, _ = fmt.Fprintln(out, labelStyle.Render("Personal tropes:"))
		for i, r := range internal.RecordsFromEntries(doc.Tropes) {
			_, _ = fmt.Fprint(out, internal.FormatRecord(out, i+1, r))
		}
	}
}

// addEncounterSettingsFlags registers the table settings flags on c.
func addEncounterSettingsFlags(c *cobra.Command) {
	c.Flags().IntVar(&encounterPlayers, "players", 4, fmt.Sprintf("Number of players (%d-%d)", internal.MinPlayers, internal.MaxPlayers))
	c.Flags().StringVar(&encounterDifficulty, "difficulty", "medium", "Difficulty: easy, medium or hard")
	c.Flags().StringArrayVar(&encounterLore, "lore", nil, fmt.Sprintf("World lore document: title=url (repeatable, at most %d)", internal.MaxLoreLinks))
	c.Flags().StringVar(&encounterLoreMode, "lore-mode", "optional", "Lore alignment: strict, optional or ignore")
	c.Flags().IntVar(&encounterTropeCount, "tropes", 0, "Attach this many random personal tropes")
}

func init() {
	rootCmd.AddCommand(encounterCmd)
	encounterCmd.AddCommand(encounterOptionsCmd, encounterSearchCmd)
	encounterCmd.Flags().StringArrayVar(&encounterSets, "set", nil, "Fix a field: category=value (repeatable, empty value clears)")
	encounterCmd.Flags().StringArrayVar(&encounterRerolls, "reroll", nil, "Reroll one category (repeatable)")
	encounterCmd.Flags().StringVar(&encounterLoad, "load", "", "Start from a saved json or yaml encounter instead of rolling")
	encounterCmd.Flags().StringVarP(&encounterFormat, "format", "f", "", "Output format (txt, md, json, jsonl, yaml, prompt)")
	encounterCmd.Flags().StringVarP(&encounterOutput, "out", "o", "", "Write to a file instead of stdout")
	encounterCmd.Flags().StringArrayVar(&encounterAddTropes, "add-trope", nil, "Attach the personal trope with this id (repeatable)")
	encounterCmd.Flags().StringArrayVar(&encounterDropTropes, "drop-trope", nil, "Detach the personal trope with this id (repeatable)")
	encounterCmd.Flags().StringArrayVar(&encounterRerollTropes, "reroll-trope", nil, "Replace an attached personal trope with a random one (repeatable)")
	encounterCmd.Flags().BoolVar(&encounterClearTropes, "clear-tropes", false, "Detach every personal trope before applying the other trope flags")
	addEncounterSettingsFlags(encounterCmd)
}
