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
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/pdxtran/internal/batch"
	"github.com/valpere/pdxtran/internal/detector"
	"github.com/valpere/pdxtran/internal/localize"
	"github.com/valpere/pdxtran/internal/translator"
	"github.com/valpere/pdxtran/internal/validator"
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate pending entries with a pool of workers",
	Long: `Translate every stored entry that has no translation yet.

Each string is split around its markup ($VARIABLES$, [Scopes], #formatting#,
\n escapes, line breaks and hyphens) and only the plain text between markers is
sent to the backend. Casing of the source is applied to each translated piece.

Workers claim one entry at a time, so several translate processes may share
one PostgreSQL store. When the backend reports a rate limit the entry is
released and the worker pauses for --cooldown. Ctrl-C lets every worker
finish its current entry before exiting.

Available services:
  - google      Google Translate (requires credentials)
  - mymemory    MyMemory (free, 5000 chars/day)
  - systran     Systran Translate (requires API key)
  - ollama      Ollama LLM (self-hosted)
  - openrouter  OpenRouter LLM (requires API key)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		det := detector.New()
		source, err := resolveSource(ctx, repo, det)
		if err != nil {
			return err
		}

		svc, err := translator.New(ctx, cfg.Service)
		if err != nil {
			return fmt.Errorf("failed to create %s service: %w", cfg.Service.Name, err)
		}
		defer closeService(svc)

		engine := localize.New(svc, source, cfg.Target, logger)
		if cfg.Check {
			engine.WithChecker(validator.New(det))
		}
		runner := batch.New(repo, engine, cfg.Batch(), logger)

		stats, err := runner.Run(ctx)
		printStats(stats)
		if err != nil {
			return fmt.Errorf("translation run aborted: %w", err)
		}
		if ctx.Err() != nil {
			fmt.Println("Interrupted; run translate again to continue.")
		}
		return nil
	},
}

func printStats(s batch.Stats) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Claimed:\t%d\n", s.Claimed)
	fmt.Fprintf(w, "Translated:\t%d\n", s.Translated)
	fmt.Fprintf(w, "From cache:\t%d\n", s.Cached)
	fmt.Fprintf(w, "Skipped:\t%d\n", s.Skipped)
	fmt.Fprintf(w, "Rate limited:\t%d\n", s.RateLimited)
	fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	w.Flush()
}

func init() {
	rootCmd.AddCommand(translateCmd)

	addServiceFlags(translateCmd)
	f := translateCmd.Flags()
	f.IntP("workers", "w", 4, "Number of concurrent workers")
	f.Int("limit", 0, "Stop after claiming this many entries (0 = no limit)")
	f.Duration("cooldown", batch.DefaultCooldown, "Pause after a rate-limit response")
	f.Duration("progress-interval", batch.DefaultProgressInterval, "How often progress is logged")
	f.Bool("check-language", true, "Warn about translations that do not look like the target language")
}
