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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/pdxtran/internal"
)

var csvHeader = []string{"id", "filename", "key", "original", "wish"}

var (
	csvOutputFile string
	csvInputFile  string
	csvPending    bool
)

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Exchange entries with a spreadsheet",
	Long: `Export entries to CSV for human review and import the reviewed
translations back. The file has the columns id, filename, key, original and
wish; only the id and wish columns are read on import.`,
}

var csvExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write entries to a CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		entries, err := repo.ListEntries(ctx, internal.EntryFilter{Pending: csvPending})
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		var out io.Writer = os.Stdout
		if csvOutputFile != "" && csvOutputFile != "-" {
			f, err := os.Create(csvOutputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		if err := writeEntriesCSV(out, entries); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		logger.Info().Int("entries", len(entries)).Str("file", csvOutputFile).Msg("entries exported")
		return nil
	},
}

var csvImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store reviewed translations from a CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(csvInputFile)
		if err != nil {
			return fmt.Errorf("failed to open input CSV: %w", err)
		}
		defer f.Close()

		wishes, err := readWishesCSV(f)
		if err != nil {
			return err
		}

		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		current, err := repo.ListEntries(ctx, internal.EntryFilter{})
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		existing := make(map[int64]string, len(current))
		for _, e := range current {
			existing[e.ID] = e.Wish
		}

		var updated, unchanged, missing int
		for _, w := range wishes {
			old, ok := existing[w.id]
			if !ok {
				missing++
				logger.Warn().Int64("id", w.id).Int("row", w.row).Msg("entry not found, skipping")
				continue
			}
			if old == w.wish {
				unchanged++
				continue
			}
			if err := repo.UpdateWish(ctx, w.id, w.wish); err != nil {
				if errors.Is(err, internal.ErrEntryNotFound) {
					missing++
					continue
				}
				return fmt.Errorf("failed to store wish of entry %d: %w", w.id, err)
			}
			updated++
		}

		fmt.Printf("Imported %d translations (%d unchanged, %d unknown ids)\n", updated, unchanged, missing)
		return nil
	},
}

func writeEntriesCSV(w io.Writer, entries []internal.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{strconv.FormatInt(e.ID, 10), e.Filename, e.Key, e.Original, e.Wish}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type csvWish struct {
	id   int64
	wish string
	row  int
}

// readWishesCSV returns the non-empty wishes of a CSV file. Columns are found
// by header name so that reviewers may reorder or drop the others.
func readWishesCSV(r io.Reader) ([]csvWish, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idCol, wishCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "id":
			idCol = i
		case "wish":
			wishCol = i
		}
	}
	if idCol < 0 || wishCol < 0 {
		return nil, fmt.Errorf("CSV header must contain id and wish columns")
	}

	var wishes []csvWish
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if idCol >= len(rec) || wishCol >= len(rec) || rec[wishCol] == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rec[idCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid id %q", row, rec[idCol])
		}
		wishes = append(wishes, csvWish{id: id, wish: rec[wishCol], row: row})
	}
	return wishes, nil
}

func init() {
	rootCmd.AddCommand(csvCmd)

	csvExportCmd.Flags().StringVarP(&csvOutputFile, "output", "o", "-", "Output CSV file (- for stdout)")
	csvExportCmd.Flags().BoolVar(&csvPending, "pending", false, "Only export entries without a translation")
	csvImportCmd.Flags().StringVarP(&csvInputFile, "input", "i", "", "Reviewed CSV file")
	csvImportCmd.MarkFlagRequired("input")

	csvCmd.AddCommand(csvExportCmd)
	csvCmd.AddCommand(csvImportCmd)
}
