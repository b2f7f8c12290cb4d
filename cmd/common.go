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
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/valpere/pdxtran/internal"
	"github.com/valpere/pdxtran/internal/config"
	"github.com/valpere/pdxtran/internal/detector"
	"github.com/valpere/pdxtran/internal/store"
	"github.com/valpere/pdxtran/internal/translator"
)

// detectSampleSize is how many originals are voted on for --source auto.
const detectSampleSize = 200

func openStore(ctx context.Context) (store.Repository, error) {
	repo, err := store.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return repo, nil
}

// resolveSource returns the configured source language, detecting it from
// stored originals when it is "auto". Detection failure leaves "auto" so
// that backends able to detect on their own still work.
func resolveSource(ctx context.Context, repo store.Repository, det *detector.Detector) (string, error) {
	if cfg.Source != config.AutoSource {
		return cfg.Source, nil
	}

	entries, err := repo.ListEntries(ctx, internal.EntryFilter{Pending: true, Limit: detectSampleSize})
	if err != nil {
		return "", fmt.Errorf("failed to sample entries: %w", err)
	}
	samples := make([]string, 0, len(entries))
	for _, e := range entries {
		samples = append(samples, e.Original)
	}

	code, ok := det.DetectMajority(samples)
	if !ok {
		logger.Warn().Int("samples", len(samples)).Msg("could not detect source language, leaving it to the backend")
		return config.AutoSource, nil
	}
	logger.Info().Str("source", code).Int("samples", len(samples)).Msg("detected source language")
	return code, nil
}

// closeService releases backends that hold a connection, such as the
// Google gRPC client.
func closeService(svc translator.Service) {
	c, ok := svc.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn().Err(err).Str("service", svc.Name()).Msg("failed to close translation service")
	}
}

// addServiceFlags registers the flags that configure the translation backend.
func addServiceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("source", "s", "en", `Source language code, or "auto" to detect it`)
	f.StringP("target", "t", "es", "Target language code")
	f.String("service", "google", "Translation backend (google, mymemory, systran, ollama, openrouter)")
	f.String("credentials", "", "Google Cloud credentials JSON file")
	f.String("api-key", "", "API key for systran or openrouter")
	f.String("base-url", "", "Override the backend base URL")
	f.StringSlice("models", nil, "LLM models for ollama or openrouter, tried in order")
	f.String("email", "", "Contact email for MyMemory (raises the daily quota)")
	f.Duration("timeout", 0, "Per-request timeout for HTTP backends")
}
