// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var outlineCmd = &cobra.Command{
	Use:   "outline <keyword>",
	Short: "Generate a two-level outline for a glossary article",
	Long: `Outline fetches search results for the keyword (unless --no-serp) and asks
the completion service for an outline informed by their titles and snippets.
The outline text is printed verbatim.

With --state, results already fetched for the same keyword are reused and
the outline is saved for later section and article commands.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOutline,
}

func runOutline(cmd *cobra.Command, args []string) error {
	noSERP, _ := cmd.Flags().GetBool("no-serp")

	p, _, _, err := pipelineFor(cmd)
	if err != nil {
		return err
	}
	keyword := strings.Join(args, " ")
	s, err := loadSession(cmd, p, keyword)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if !noSERP && s.SERP == nil {
		if err := p.FetchSERP(ctx, s, keyword); err != nil {
			logger.Warn("continuing without search results", "keyword", keyword, "error", err)
		}
	}
	if err := p.GenerateOutline(ctx, s, keyword); err != nil {
		return err
	}
	if err := saveSession(cmd, s); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), s.Outline.Text)
	return nil
}

func init() {
	outlineCmd.Flags().Bool("no-serp", false, "do not fetch search results first")
	stateFlags(outlineCmd)

	rootCmd.AddCommand(outlineCmd)
}
