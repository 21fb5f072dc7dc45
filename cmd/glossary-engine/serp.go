// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/glossary-engine/internal/serp"
)

var serpCmd = &cobra.Command{
	Use:   "serp <keyword>",
	Short: "Fetch the top search results for a keyword",
	Long: `Serp fetches the search results page for a keyword and prints the top
organic results (at most five) with the questions searchers also ask.
Connection failures are retried per serp.retry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSerp,
}

func runSerp(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	p, _, _, err := pipelineFor(cmd)
	if err != nil {
		return err
	}
	keyword := strings.Join(args, " ")
	s, err := loadSession(cmd, p, keyword)
	if err != nil {
		return err
	}
	if err := p.FetchSERP(cmd.Context(), s, keyword); err != nil {
		return err
	}
	if err := saveSession(cmd, s); err != nil {
		return err
	}

	if asJSON {
		return serp.FormatJSON(s.SERP, cmd.OutOrStdout())
	}
	serp.FormatTable(s.SERP, cmd.OutOrStdout())
	return nil
}

var queriesCmd = &cobra.Command{
	Use:   "queries <keyword>",
	Short: "List top Search Console queries containing a keyword",
	Long: `Queries asks Search Console for the most-clicked queries over the last
search_console.lookback_days days whose text contains the keyword.
Requires search_console.site_url and OAuth credentials.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQueries,
}

func runQueries(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	p, _, _, err := pipelineFor(cmd)
	if err != nil {
		return err
	}
	s, err := loadSession(cmd, p, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if err := p.TopQueries(cmd.Context(), s); err != nil {
		return err
	}
	if err := saveSession(cmd, s); err != nil {
		return err
	}

	if asJSON {
		return serp.FormatJSON(s.TopQueries, cmd.OutOrStdout())
	}
	serp.FormatQueries(s.TopQueries, cmd.OutOrStdout())
	return nil
}

func init() {
	serpCmd.Flags().Bool("json", false, "output results as JSON")
	stateFlags(serpCmd)
	queriesCmd.Flags().Bool("json", false, "output rows as JSON")
	stateFlags(queriesCmd)

	rootCmd.AddCommand(serpCmd, queriesCmd)
}
