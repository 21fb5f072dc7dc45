// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/glossary-engine/internal/render"
	"github.com/pdiddy/glossary-engine/internal/session"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

var articleCmd = &cobra.Command{
	Use:   "article",
	Short: "Generate or print a whole glossary article",
	Long: `Article writes a complete article from an outline in one request. The
outline comes from --outline-file, the session, or is generated first.

With --entire nothing is generated: the current article of the --state
session is printed, which is its newest draft or its accumulated sections.
--html renders the Markdown, and --save stores the result in the archive.
Saving the same session again updates its archived entry.`,
	Args: cobra.NoArgs,
	RunE: runArticle,
}

func runArticle(cmd *cobra.Command, args []string) error {
	keyword, _ := cmd.Flags().GetString("keyword")
	entire, _ := cmd.Flags().GetBool("entire")
	asHTML, _ := cmd.Flags().GetBool("html")
	save, _ := cmd.Flags().GetBool("save")

	outlineText, err := readTextFlag(cmd, "outline-file")
	if err != nil {
		return err
	}

	p, cfg, _, err := pipelineFor(cmd)
	if err != nil {
		return err
	}
	s, err := loadSession(cmd, p, keyword)
	if err != nil {
		return err
	}

	if !entire {
		if err := draftArticle(cmd.Context(), p, s, outlineText); err != nil {
			return err
		}
		if err := saveSession(cmd, s); err != nil {
			return err
		}
	}

	md := s.Markdown()
	if md == "" {
		return types.Validation("no content generated yet")
	}

	if save {
		id, err := archiveSession(cmd.Context(), cfg.Archive, s)
		if err != nil {
			return err
		}
		logger.Info("archived article", "id", id, "keyword", s.Keyword)
	}

	return writeArticle(cmd.OutOrStdout(), md, asHTML)
}

// draftArticle makes sure s has an outline and then writes the article.
func draftArticle(ctx context.Context, p *session.Pipeline, s *session.Session, outlineText string) error {
	if strings.TrimSpace(outlineText) != "" {
		p.SetOutline(s, outlineText)
	}
	if s.Outline.IsEmpty() {
		if s.SERP == nil {
			if err := p.FetchSERP(ctx, s, ""); err != nil {
				logger.Warn("continuing without search results", "keyword", s.Keyword, "error", err)
			}
		}
		if err := p.GenerateOutline(ctx, s, ""); err != nil {
			return err
		}
	}
	return p.GenerateArticle(ctx, s)
}

func archiveSession(ctx context.Context, cfg types.ArchiveConfig, s *session.Session) (string, error) {
	store, err := openArchive(cfg)
	if err != nil {
		return "", err
	}
	if store == nil {
		return "", fmt.Errorf("archive is disabled: set archive.dir")
	}
	defer store.Close()

	return store.SaveSession(ctx, s)
}

func writeArticle(w io.Writer, md string, asHTML bool) error {
	if !asHTML {
		_, err := fmt.Fprintln(w, md)
		return err
	}
	html, err := render.HTML(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, html)
	return err
}

func init() {
	articleCmd.Flags().String("keyword", "", "keyword (default: the session keyword)")
	articleCmd.Flags().String("outline-file", "", "read the outline from a file (- for stdin)")
	articleCmd.Flags().Bool("entire", false, "print the current article instead of generating")
	articleCmd.Flags().Bool("html", false, "render the article as HTML")
	articleCmd.Flags().Bool("save", false, "save the article to the archive")
	stateFlags(articleCmd)

	rootCmd.AddCommand(articleCmd)
}
