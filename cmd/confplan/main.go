// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the confplan CLI, which turns a
// conference abstract book and a research profile into a personalized
// schedule.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/confplan/internal/logger"
	"github.com/pdiddy/confplan/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds keys from .secrets/ and .env, loaded at startup.
	loadedSecrets map[string]string

	log = logger.NewNop()
)

// secretDefault returns fallback when set, else the loaded secret for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

var rootCmd = &cobra.Command{
	Use:   "confplan",
	Short: "Plan which conference talks to attend",
	Long: `confplan reads a conference abstract book (PDF or pre-extracted text),
ranks every talk against your research profile with an embedding index, and
writes a day-by-day schedule that flags overlapping talks.

Parsed talks are cached per conference, and talk embeddings are kept in a
SQLite index, so repeated runs only redo the work that changed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(viper.GetString("log.mode"))
		if err != nil {
			return err
		}
		log = l

		s, err := secrets.Resolve(".secrets/", ".env")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./confplan.yaml or ~/.config/confplan/confplan.yaml)")
	pf.String("conference", "", "conference name; keys the talk cache and the index")
	pf.String("cache-dir", "", "directory for parsed talk caches")
	pf.String("index-dir", "", "directory for embedding indexes")
	pf.String("extractor", "", "PDF text backend: native or container")
	pf.String("log-mode", "quiet", "log mode: dev, prod, or quiet")

	bindFlag("conference", pf.Lookup("conference"))
	bindFlag("cache_dir", pf.Lookup("cache-dir"))
	bindFlag("index_dir", pf.Lookup("index-dir"))
	bindFlag("extraction.backend", pf.Lookup("extractor"))
	bindFlag("log.mode", pf.Lookup("log-mode"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("confplan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "confplan"))
		}
	}

	viper.SetEnvPrefix("CONFPLAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
