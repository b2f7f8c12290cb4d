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

	"github.com/spf13/cobra"

	"github.com/valpere/pdxtran/internal/locfile"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Write stored translations into target localisation files",
	Long: `Rewrite every file under --start-path whose name ends with the target
suffix (spanish.yml by default), replacing the quoted value of each key that
has a stored translation. Keys without a translation, comments and the rest
of each line are left exactly as they were.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		wishes, err := repo.TranslationsByKey(ctx)
		if err != nil {
			return fmt.Errorf("failed to load translations: %w", err)
		}
		if len(wishes) == 0 {
			fmt.Println("No translations stored yet; run translate first.")
			return nil
		}

		dirs, err := locfile.FindLocalizationDirs(cfg.StartPath)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", cfg.StartPath, err)
		}

		lookup := func(key string) (string, bool) {
			wish, ok := wishes[key]
			return wish, ok
		}

		var files, replaced, failed int
		for _, dir := range dirs {
			paths, err := locfile.FindFiles(dir, cfg.TargetSuffix)
			if err != nil {
				logger.Error().Err(err).Str("dir", dir).Msg("failed to list localisation files")
				continue
			}
			for _, path := range paths {
				n, err := locfile.Rewrite(path, lookup)
				if err != nil {
					failed++
					logger.Error().Err(err).Str("file", path).Msg("failed to rewrite localisation file")
					continue
				}
				if n > 0 {
					files++
					replaced += n
					logger.Debug().Str("file", relativeName(cfg.StartPath, path)).Int("replaced", n).Msg("file rewritten")
				}
			}
		}

		fmt.Printf("Rewrote %d values in %d files", replaced, files)
		if failed > 0 {
			fmt.Printf(" (%d files failed)", failed)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().String("start-path", ".", "Directory to search for localization folders")
	applyCmd.Flags().String("target-suffix", "spanish.yml", "File name suffix of target files")
}
