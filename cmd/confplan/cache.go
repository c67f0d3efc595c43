// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/confplan/internal/index"
	"github.com/pdiddy/confplan/internal/talkcache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the talk cache and embedding index",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the talk cache and embedding index of the conference",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := plannerConfig()
		keepIndex, _ := cmd.Flags().GetBool("keep-index")

		store := talkcache.New(cfg.CacheDir, cfg.Conference)
		if err := store.Invalidate(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "removed %s\n", store.Path())

		if keepIndex {
			return nil
		}
		if err := index.Remove(cfg.IndexDir, cfg.Conference); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "removed %s\n", index.PathFor(cfg.IndexDir, cfg.Conference))
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().Bool("keep-index", false, "keep the embedding index")
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
