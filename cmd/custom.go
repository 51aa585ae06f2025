package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iksnae/tropedeck/internal"
	"github.com/spf13/cobra"
)

var customOutput string

var customCmd = &cobra.Command{
	Use:   "custom",
	Short: "Manage your custom encounter inputs",
	Long: `Custom inputs are extra values for encounter categories. They are
offered alongside the table values and expire after 30 days.

Examples:
  tropedeck custom add npc "A one-eyed cartographer"
  tropedeck custom list
  tropedeck custom rm npc "A one-eyed cartographer"
  tropedeck custom export -o custom.txt`,
}

var customAddCmd = &cobra.Command{
	Use:   "add <category> <value>",
	Short: "Add a custom value to a category",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := internal.ParseCategoryKey(args[0])
		if err != nil {
			return err
		}
		custom, err := app.CustomInputs(cmd.Context())
		if err != nil {
			return err
		}
		value := strings.Join(args[1:], " ")
		added, err := custom.Add(cmd.Context(), key, value)
		if err != nil {
			return err
		}
		if !added {
			internal.PrintWarning(fmt.Sprintf("%s already has %q", key.Label(), value))
			return nil
		}
		internal.PrintSuccess(fmt.Sprintf("Added %q to %s", strings.TrimSpace(value), key.Label()))
		return nil
	},
}

var customListCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List custom values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		custom, err := app.CustomInputs(cmd.Context())
		if err != nil {
			return err
		}
		keys := internal.CategoryKeys
		if len(args) == 1 {
			key, err := internal.ParseCategoryKey(args[0])
			if err != nil {
				return err
			}
			keys = []internal.CategoryKey{key}
		}

		out := cmd.OutOrStdout()
		total := 0
		for _, key := range keys {
			values, err := custom.List(cmd.Context(), key)
			if err != nil {
				return err
			}
			if len(values) == 0 {
				continue
			}
			total += len(values)
			_, _ = fmt.Fprintln(out, labelStyle.Render(key.Label()))
			for _, v := range values {
				_, _ = fmt.Fprintln(out, "  - "+v)
			}
		}
		if total == 0 {
			_, _ = fmt.Fprintln(out, "No custom inputs.")
		}
		return nil
	},
}

var customRmCmd = &cobra.Command{
	Use:   "rm <category> <value>",
	Short: "Remove a custom value",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := internal.ParseCategoryKey(args[0])
		if err != nil {
			return err
		}
		custom, err := app.CustomInputs(cmd.Context())
		if err != nil {
			return err
		}
		value := strings.Join(args[1:], " ")
		removed, err := custom.Remove(cmd.Context(), key, value)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%s has no custom value %q", key.Label(), value)
		}
		internal.PrintSuccess(fmt.Sprintf("Removed %q from %s", value, key.Label()))
		return nil
	},
}

var customClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every custom value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		custom, err := app.CustomInputs(cmd.Context())
		if err != nil {
			return err
		}
		if err := custom.Clear(cmd.Context()); err != nil {
			return err
		}
		internal.PrintSuccess("Cleared custom inputs")
		return nil
	},
}

var customExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a text report of your custom values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		custom, err := app.CustomInputs(cmd.Context())
		if err != nil {
			return err
		}
		inputs, err := custom.All(cmd.Context())
		if err != nil {
			return err
		}
		report := internal.RenderCustomInputs(inputs, time.Now())
		if customOutput == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), report)
			return err
		}
		if err := os.WriteFile(customOutput, []byte(report), 0644); err != nil {
			return &internal.ExportError{Format: "txt", Path: customOutput, Err: err}
		}
		internal.PrintSuccess(fmt.Sprintf("Wrote %d custom input(s) to %s", len(inputs), customOutput))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(customCmd)
	customCmd.AddCommand(customAddCmd, customListCmd, customRmCmd, customClearCmd, customExportCmd)
	customExportCmd.Flags().StringVarP(&customOutput, "out", "o", "", "Write to a file instead of stdout")
}
