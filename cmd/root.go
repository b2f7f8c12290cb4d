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
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/valpere/pdxtran/internal/config"
	"github.com/valpere/pdxtran/internal/logging"
)

var version = "0.1.0"

var (
	cfgFile string
	v       = viper.New()
	cfg     *config.Config
	logger  = zerolog.Nop()
)

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"service":           "service.name",
	"api-key":           "service.api_key",
	"base-url":          "service.base_url",
	"models":            "service.models",
	"credentials":       "service.credentials",
	"email":             "service.email",
	"timeout":           "service.timeout",
	"start-path":        "start_path",
	"source-suffix":     "source_suffix",
	"target-suffix":     "target_suffix",
	"progress-interval": "progress_interval",
	"check-language":    "check_language",
	"log-level":         "log_level",
	"log-format":        "log_format",
	"db":                "db",
	"source":            "source",
	"target":            "target",
	"workers":           "workers",
	"limit":             "limit",
	"cooldown":          "cooldown",
}

var rootCmd = &cobra.Command{
	Use:   "pdxtran",
	Short: "Paradox localisation translator",
	Long: `A CLI application that translates Paradox game localisation files
while keeping their markup intact.

Typical workflow:
  pdxtran extract --start-path ./mod     load english.yml strings into the store
  pdxtran translate --target es          translate pending strings with a worker pool
  pdxtran apply --start-path ./mod       write translations into spanish.yml files

The store is a SQLite file by default; pass a postgres:// DSN with --db to
share it between machines.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		if err := config.Setup(v, cfgFile); err != nil {
			return err
		}
		if err := bindFlags(cmd.Flags()); err != nil {
			return err
		}

		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
		if err != nil {
			return err
		}
		logger.Debug().Str("command", cmd.CommandPath()).Str("db", cfg.DB).Msg("configuration loaded")
		return nil
	},
}

func bindFlags(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	if err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file")
	pf.String("db", "pdxtran.db", "SQLite path or postgres:// DSN of the entry store")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "console", "Log format (console, json)")
}
