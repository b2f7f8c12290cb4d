/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/pdxtran/internal"
)

var (
	listPending    bool
	listTranslated bool
	listLimit      int
	logLimit       int
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Inspect and maintain the entry store",
	Long:  `List, count and reset the localisation entries kept in the store.`,
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listPending && listTranslated {
			return fmt.Errorf("--pending and --translated are exclusive")
		}
		ctx := cmd.Context()
		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		entries, err := repo.ListEntries(ctx, internal.EntryFilter{
			Pending:    listPending,
			Translated: listTranslated,
			Limit:      listLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No entries.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILE\tKEY\tCLAIMED\tUPDATED\tORIGINAL\tTRANSLATION")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%v\t%s\t%s\t%s\n",
				e.ID, e.Filename, e.Key, e.Claimed,
				e.UpdatedAt.Format("2006-01-02 15:04"),
				snippet(e.Original), snippet(e.Wish))
		}
		return w.Flush()
	},
}

var entriesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		total, err := repo.CountAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to count entries: %w", err)
		}
		done, err := repo.CountTranslated(ctx)
		if err != nil {
			return fmt.Errorf("failed to count translations: %w", err)
		}

		pct := 0.0
		if total > 0 {
			pct = float64(done) * 100 / float64(total)
		}
		fmt.Printf("Total entries:      %d\n", total)
		fmt.Printf("Translated entries: %d (%.2f%%)\n", done, pct)
		fmt.Printf("Remaining entries:  %d\n", total-done)
		return nil
	},
}

var entriesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Release claims of entries that have no translation",
	Long: `Release the claim of every entry that was claimed but never translated,
for example after a crash or after failed translations, so that the next
translate run picks them up again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		n, err := repo.ResetClaims(ctx)
		if err != nil {
			return fmt.Errorf("failed to reset claims: %w", err)
		}
		fmt.Printf("Released %d claims.\n", n)
		return nil
	},
}

var entriesLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the most recent changes to entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		events, err := repo.RecentEvents(ctx, logLimit)
		if err != nil {
			return fmt.Errorf("failed to read audit log: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No events.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tACTION\tENTRY\tFILE\tKEY\tOLD\tNEW")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.EntryID,
				e.Filename, e.Key, snippet(e.OldText), snippet(e.NewText))
		}
		return w.Flush()
	},
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) > 40 {
		return string(r[:37]) + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(entriesCmd)

	entriesListCmd.Flags().BoolVar(&listPending, "pending", false, "Only entries without a translation")
	entriesListCmd.Flags().BoolVar(&listTranslated, "translated", false, "Only translated entries")
	entriesListCmd.Flags().IntVarP(&listLimit, "max", "n", 100, "Maximum number of entries (0 = all)")
	entriesLogCmd.Flags().IntVarP(&logLimit, "max", "n", 50, "Maximum number of events")

	entriesCmd.AddCommand(entriesListCmd)
	entriesCmd.AddCommand(entriesStatsCmd)
	entriesCmd.AddCommand(entriesResetCmd)
	entriesCmd.AddCommand(entriesLogCmd)
}
