// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords <keyword>",
	Short: "Suggest keywords related to a keyword",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, _, err := pipelineFor(cmd)
		if err != nil {
			return err
		}
		s, err := loadSession(cmd, p, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if err := p.RelatedKeywords(cmd.Context(), s); err != nil {
			return err
		}
		if err := saveSession(cmd, s); err != nil {
			return err
		}
		for _, kw := range s.Keywords {
			fmt.Fprintln(cmd.OutOrStdout(), kw)
		}
		return nil
	},
}

func init() {
	stateFlags(keywordsCmd)
	rootCmd.AddCommand(keywordsCmd)
}
