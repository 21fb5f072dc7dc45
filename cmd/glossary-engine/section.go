// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/glossary-engine/pkg/types"
)

var sectionCmd = &cobra.Command{
	Use:   "section <name>",
	Short: "Generate one article section",
	Long: `Section writes one named section (introduction, description, examples or
any added name) for the session keyword. The sections already written are
passed along as context so the new one does not repeat them.

Instructions come from --instructions or --instructions-file; when both
are empty the session outline is used. Run with --state to accumulate
sections across invocations.`,
	Args: cobra.ExactArgs(1),
	RunE: runSection,
}

func runSection(cmd *cobra.Command, args []string) error {
	keyword, _ := cmd.Flags().GetString("keyword")
	instructions, _ := cmd.Flags().GetString("instructions")
	if instructions == "" {
		text, err := readTextFlag(cmd, "instructions-file")
		if err != nil {
			return err
		}
		instructions = text
	}

	p, _, _, err := pipelineFor(cmd)
	if err != nil {
		return err
	}
	s, err := loadSession(cmd, p, keyword)
	if err != nil {
		return err
	}

	name := types.NormalizeSectionName(args[0])
	if err := p.GenerateSection(cmd.Context(), s, name, instructions); err != nil {
		return err
	}
	if err := saveSession(cmd, s); err != nil {
		return err
	}

	content, _ := s.Article.Get(name)
	fmt.Fprintln(cmd.OutOrStdout(), content)
	return nil
}

var addSectionCmd = &cobra.Command{
	Use:   "add-section <name>",
	Short: "Add an empty section to the session article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("state")
		if path == "" {
			return fmt.Errorf("--state is required")
		}
		p, _, _, err := pipelineFor(cmd)
		if err != nil {
			return err
		}
		s, err := loadSession(cmd, p, "")
		if err != nil {
			return err
		}
		if err := p.AddSection(s, args[0]); err != nil {
			return err
		}
		if err := saveSession(cmd, s); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sections (%d/%d): %v\n",
			len(s.Article.Sections), p.MaxSections(), s.Article.Names())
		return nil
	},
}

func init() {
	sectionCmd.Flags().String("keyword", "", "keyword (default: the session keyword)")
	sectionCmd.Flags().String("instructions", "", "what the section should cover")
	sectionCmd.Flags().String("instructions-file", "", "read instructions from a file (- for stdin)")
	stateFlags(sectionCmd)
	stateFlags(addSectionCmd)

	rootCmd.AddCommand(sectionCmd, addSectionCmd)
}
