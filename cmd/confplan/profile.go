// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/confplan/internal/fsutil"
	"github.com/pdiddy/confplan/internal/pdftext"
	"github.com/pdiddy/confplan/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Create or inspect the research profile",
	Long: `The research profile is a Markdown file with the sections "My Research
Focus", "Authors of Interest", "Topics to Exclude" and "Unpublished Work".
Bullets or plain lines work; italic notes, HTML comments and NA are ignored.`,
}

var profileInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a profile template",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "research_interests.md"
		if len(args) == 1 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := fsutil.WriteFileAtomic(path, []byte(profile.Template)); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "wrote profile template to %s\n", path)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the parsed profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "research_interests.md"
		if len(args) == 1 {
			path = args[0]
		}
		cfg := plannerConfig()
		src, err := pdftext.New(cfg.Extraction)
		if err != nil {
			return err
		}
		p, warnings, err := profile.Load(cmd.Context(), path, cfg.Profile, src)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		if p.Incomplete() {
			fmt.Fprintln(os.Stderr, "note: no interests or unpublished work; planning will rank by authors of interest only")
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	profileInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	profileCmd.AddCommand(profileInitCmd, profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}
