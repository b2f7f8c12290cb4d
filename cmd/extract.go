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
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valpere/pdxtran/internal"
	"github.com/valpere/pdxtran/internal/locfile"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Load source localisation strings into the store",
	Long: `Walk --start-path for localization directories, read every file whose
name ends with the source suffix (english.yml by default) and store each
key:0 "value" line as an entry.

Re-running extract is safe: unchanged strings keep their translations, and a
string whose English text changed is queued for translation again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dirs, err := locfile.FindLocalizationDirs(cfg.StartPath)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", cfg.StartPath, err)
		}
		if len(dirs) == 0 {
			fmt.Printf("No %s directories found under %s\n", locfile.DirName, cfg.StartPath)
			return nil
		}

		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		var (
			total   internal.UpsertStats
			files   int
			skipped int
		)
		for _, dir := range dirs {
			paths, err := locfile.FindFiles(dir, cfg.SourceSuffix)
			if err != nil {
				logger.Error().Err(err).Str("dir", dir).Msg("failed to list localisation files")
				continue
			}

			for _, path := range paths {
				records, lineErrs, err := locfile.ReadFile(path)
				if err != nil {
					logger.Error().Err(err).Str("file", path).Msg("failed to read localisation file")
					continue
				}
				for _, le := range lineErrs {
					logger.Warn().Str("file", le.Path).Int("line", le.Line).Str("text", le.Text).Msg("skipping malformed line")
				}
				skipped += len(lineErrs)

				name := relativeName(cfg.StartPath, path)
				entries := make([]internal.Entry, 0, len(records))
				for _, rec := range records {
					entries = append(entries, internal.Entry{Filename: name, Key: rec.Key, Original: rec.Value})
				}

				stats, err := repo.UpsertEntries(ctx, entries)
				if err != nil {
					return fmt.Errorf("failed to store entries of %s: %w", name, err)
				}
				logger.Debug().
					Str("file", name).
					Int("inserted", stats.Inserted).
					Int("updated", stats.Updated).
					Int("unchanged", stats.Unchanged).
					Msg("file extracted")

				total.Inserted += stats.Inserted
				total.Updated += stats.Updated
				total.Unchanged += stats.Unchanged
				files++
			}
		}

		fmt.Printf("Extracted %d files: %d inserted, %d updated, %d unchanged, %d lines skipped\n",
			files, total.Inserted, total.Updated, total.Unchanged, skipped)
		return nil
	},
}

func relativeName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("start-path", ".", "Directory to search for localization folders")
	extractCmd.Flags().String("source-suffix", "english.yml", "File name suffix of source files")
}
