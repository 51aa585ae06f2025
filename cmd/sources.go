package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/iksnae/tropedeck/internal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage the cached tables and prompt template",
}

var sourcesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch every table from its remote sources now",
	Long: `Fetch the trope table, the encounter table, the encounter personal
tropes and the encounter prompt template from their remote sources, in
parallel, and replace the cached copies. A table whose sources all fail
keeps its cached copy.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.cfg.Offline {
			return fmt.Errorf("cannot refresh while offline")
		}
		resolvers, err := app.TableResolvers(cmd.Context())
		if err != nil {
			return err
		}

		results := make([]*internal.Resolution, len(resolvers))
		err = internal.ShowProgress(cmd.Context(), "Refreshing tables...", func() error {
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, r := range resolvers {
				g.Go(func() error {
					res, err := r.Refresh(ctx)
					results[i] = res
					return err
				})
			}
			return g.Wait()
		})
		for _, res := range results {
			if res != nil {
				internal.PrintSuccess(fmt.Sprintf("Cached %d item(s) from %s", res.Count, res.Source))
			}
		}
		return err
	},
}

var sourcesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cached tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolvers, err := app.TableResolvers(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range resolvers {
			if err := r.Clear(cmd.Context()); err != nil {
				return err
			}
		}
		internal.PrintSuccess("Cleared cached tables")
		return nil
	},
}

var sourcesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is stored in the local cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := app.Store(cmd.Context())
		if err != nil {
			return err
		}
		rows, err := cacheStatus(cmd.Context(), store)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("Key")+"\t"+titleStyle.Render("Bytes")+"\t"+titleStyle.Render("Updated")+"\t")
		for _, r := range rows {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", r.key, r.size, r.updated)
		}
		return w.Flush()
	},
}

type cacheRow struct {
	key, size, updated string
}

func cacheStatus(ctx context.Context, store internal.KVStore) ([]cacheRow, error) {
	keys := []string{
		internal.KeyTropesTable,
		internal.KeyEncounterTable,
		internal.KeyEncounterTropes,
		internal.KeyPromptTemplate,
		internal.KeyPersonalTropes,
		internal.KeyCustomInputs,
	}
	rows := make([]cacheRow, 0, len(keys))
	for _, key := range keys {
		row := cacheRow{key: key, size: "-", updated: "-"}
		value, ok, err := store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			row.size = fmt.Sprintf("%d", len(value))
			if sq, isSQLite := store.(*internal.SQLiteStore); isSQLite {
				if at, found, err := sq.UpdatedAt(ctx, key); err == nil && found {
					row.updated = at.Local().Format("2006-01-02 15:04")
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(sourcesRefreshCmd, sourcesClearCmd, sourcesStatusCmd)
}
