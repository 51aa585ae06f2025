package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iksnae/tropedeck/internal"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

var (
	sessionCount      int
	sessionLoad       string
	sessionNoPersonal bool
)

const sessionHelp = `Commands:
  generate [n]              Replace the list with n random tropes
  add [id]                  Add a random trope, or the trope with id
  custom <name> <detail>    Add your own trope (quote multi-word values)
  rm <id|#n>                Remove a trope
  reroll <id|#n>            Replace a trope with a random one
  clear                     Empty the list
  list                      Show the list
  search <text>             Find tropes by name or detail
  show <id|#n>              Show one trope in full
  export <format> [file]    Export as txt, md, json, jsonl, yaml or prompt
  save <file>               Save the list as json or yaml
  load <file>               Load a saved list
  help                      Show this help
  quit                      Leave the session`

var errQuit = errors.New("quit")

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Build a trope selection interactively",
	Long: `Start an interactive session over the trope pools.

The list never holds the same trope twice. Draws only pick tropes that are
not already selected.

` + sessionHelp,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		primary, secondary, err := app.Pools(ctx, !sessionNoPersonal)
		if err != nil {
			return err
		}
		r := &repl{
			ctx:       ctx,
			sel:       internal.NewSelection(app.sampler, primary, secondary),
			secondary: secondary,
			out:       cmd.OutOrStdout(),
			refreshed: app.refreshed,
		}

		if sessionLoad != "" {
			if err := r.exec([]string{"load", sessionLoad}); err != nil {
				return err
			}
		} else if sessionCount > 0 {
			r.sel.Generate(sessionCount)
			r.list()
		}
		if len(secondary) > 0 {
			internal.PrintInfo(fmt.Sprintf("Mixing in %d personal trope(s)", len(secondary)))
		}
		return r.run(cmd.InOrStdin())
	},
}

// repl drives a Selection from text commands.
type repl struct {
	ctx       context.Context
	sel       *internal.Selection
	secondary internal.Pool
	out       io.Writer
	refreshed <-chan internal.Resolution
}

func (r *repl) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprint(r.out, "tropedeck> ")
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(r.out)
			return scanner.Err()
		}
		r.applyRefreshes()

		words, err := shellquote.Split(scanner.Text())
		if err != nil {
			internal.PrintError(fmt.Sprintf("Cannot parse line: %v", err))
			continue
		}
		if len(words) == 0 {
			continue
		}
		if err := r.exec(words); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			internal.PrintError(err.Error())
		}
	}
}

// applyRefreshes swaps in trope tables replaced by a background refresh.
// The current list is kept as is.
func (r *repl) applyRefreshes() {
	for {
		select {
		case res := <-r.refreshed:
			parsed, err := internal.ParseRecords(res.Raw)
			if err != nil {
				internal.LogWarn("Ignoring refreshed tropes from %s: %v", res.Source, err)
				continue
			}
			r.sel.SetPools(parsed.Records, r.secondary)
			internal.PrintInfo(fmt.Sprintf("Trope table updated from %s (%d tropes)", res.Source, len(parsed.Records)))
		default:
			return
		}
	}
}

func (r *repl) exec(words []string) error {
	name, args := strings.ToLower(words[0]), words[1:]
	switch name {
	case "generate", "gen", "g":
		count := app.cfg.DefaultCount
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid count %q", args[0])
			}
			count = n
		}
		r.sel.Generate(count)
		r.list()

	case "add", "a":
		if len(args) == 0 {
			rec, outcome := r.sel.AddRandom()
			if outcome != internal.Added {
				return fmt.Errorf("cannot add: %s", outcome)
			}
			internal.PrintSuccess("Added " + rec.Name)
			return nil
		}
		rec, ok := r.sel.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no trope with id %s", args[0])
		}
		if outcome := r.sel.AddSpecific(rec); outcome != internal.Added {
			return fmt.Errorf("cannot add %s: %s", rec.Name, outcome)
		}
		internal.PrintSuccess("Added " + rec.Name)

	case "custom", "c":
		if len(args) != 2 {
			return errors.New(`usage: custom "<name>" "<detail>"`)
		}
		rec, err := r.sel.AddCustom(args[0], args[1])
		if err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Added %s (%s)", rec.Name, rec.ID))

	case "rm", "remove", "del":
		id, err := r.ref(args)
		if err != nil {
			return err
		}
		if outcome := r.sel.Remove(id); outcome != internal.Removed {
			return fmt.Errorf("cannot remove %s: %s", id, outcome)
		}
		internal.PrintSuccess("Removed " + id)

	case "reroll", "randomize", "r":
		id, err := r.ref(args)
		if err != nil {
			return err
		}
		rec, outcome := r.sel.Randomize(id)
		switch outcome {
		case internal.Replaced:
			internal.PrintSuccess("Replaced with " + rec.Name)
		case internal.NoCandidates:
			internal.PrintWarning("No other tropes left; kept " + rec.Name)
		default:
			return fmt.Errorf("cannot reroll %s: %s", id, outcome)
		}

	case "clear":
		r.sel.Clear()
		internal.PrintSuccess("Cleared the list")

	case "list", "ls", "l":
		r.list()

	case "search", "find", "s":
		if len(args) == 0 {
			return errors.New("usage: search <text>")
		}
		found := r.sel.Search(strings.Join(args, " "), 20)
		if len(found) == 0 {
			_, _ = fmt.Fprintln(r.out, "No matches.")
			return nil
		}
		printRecords(r.out, found)

	case "show":
		id, err := r.ref(args)
		if err != nil {
			return err
		}
		rec, ok := r.find(id)
		if !ok {
			return fmt.Errorf("no trope with id %s", id)
		}
		printRecordDetail(r.out, rec)

	case "export", "e":
		if len(args) == 0 {
			return errors.New("usage: export <format> [file]")
		}
		path := ""
		if len(args) > 1 {
			path = args[1]
		}
		return writeDocument(r.ctx, r.out, r.sel.Document(documentTitle(internal.DocumentKindTropes)), args[0], path)

	case "save":
		if len(args) != 1 {
			return errors.New("usage: save <file.json|file.yaml>")
		}
		return writeDocument(r.ctx, r.out, r.sel.Document(documentTitle(internal.DocumentKindTropes)), "", args[0])

	case "load":
		if len(args) != 1 {
			return errors.New("usage: load <file.json|file.yaml>")
		}
		doc, err := readDocument(args[0])
		if err != nil {
			return err
		}
		if doc.Kind != "" && doc.Kind != internal.DocumentKindTropes {
			return fmt.Errorf("%s holds a %s, not tropes", args[0], doc.Kind)
		}
		r.sel.Load(internal.RecordsFromDocument(doc))
		internal.PrintSuccess(fmt.Sprintf("Loaded %d trope(s)", r.sel.Len()))

	case "help", "h", "?":
		_, _ = fmt.Fprintln(r.out, sessionHelp)

	case "quit", "exit", "q":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	return nil
}

func (r *repl) list() {
	printRecords(r.out, r.sel.Records())
	counts := r.sel.Counts()
	if counts[internal.OriginPersonal] > 0 || counts[internal.OriginCustom] > 0 {
		_, _ = fmt.Fprintf(r.out, "%d default, %d personal, %d custom\n",
			counts[internal.OriginDefault], counts[internal.OriginPersonal], counts[internal.OriginCustom])
	}
}

// ref resolves "#n" to the id at list position n. Anything else is taken
// as an id, since table ids are often plain numbers.
func (r *repl) ref(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("expected one trope id or #position")
	}
	pos, ok := strings.CutPrefix(args[0], "#")
	if !ok {
		return args[0], nil
	}
	n, err := strconv.Atoi(pos)
	records := r.sel.Records()
	if err != nil || n < 1 || n > len(records) {
		return "", fmt.Errorf("no trope at position %s", pos)
	}
	return records[n-1].ID, nil
}

// find looks in the list first so custom tropes are found too.
func (r *repl) find(id string) (internal.Record, bool) {
	for _, rec := range r.sel.Records() {
		if rec.ID == id {
			return rec, true
		}
	}
	return r.sel.Lookup(id)
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.Flags().IntVarP(&sessionCount, "count", "n", 0, "Start with n random tropes")
	sessionCmd.Flags().StringVar(&sessionLoad, "load", "", "Start from a saved json or yaml list")
	sessionCmd.Flags().BoolVar(&sessionNoPersonal, "no-personal", false, "Ignore uploaded personal data")
}
