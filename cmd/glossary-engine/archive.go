// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/glossary-engine/internal/archive"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage saved articles (list, show, export, delete)",
	Long: `Archive manages the local SQLite archive of finished articles under
archive.dir. Articles are saved with "article --save" or the Save to Archive
button in the web form.`,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived articles, newest first",
	Args:  cobra.NoArgs,
	RunE:  runArchiveList,
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	store, err := archiveStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), archiveFilter(cmd))
	if err != nil {
		return err
	}
	formatEntries(entries, cmd.OutOrStdout())
	return nil
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asHTML, _ := cmd.Flags().GetBool("html")

		store, err := archiveStore()
		if err != nil {
			return err
		}
		defer store.Close()

		e, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeArticle(cmd.OutOrStdout(), e.Markdown, asHTML)
	},
}

var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived articles as YAML or JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		store, err := archiveStore()
		if err != nil {
			return err
		}
		defer store.Close()

		f := archiveFilter(cmd)
		switch format {
		case "yaml", "":
			return store.ExportYAML(cmd.Context(), cmd.OutOrStdout(), f)
		case "json":
			return store.ExportJSON(cmd.Context(), cmd.OutOrStdout(), f)
		default:
			return fmt.Errorf("unsupported export format %q: use yaml or json", format)
		}
	},
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := archiveStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func archiveStore() (*archive.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := openArchive(cfg.Archive)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("archive is disabled: set archive.dir")
	}
	return store, nil
}

func archiveFilter(cmd *cobra.Command) archive.Filter {
	q, _ := cmd.Flags().GetString("query")
	kw, _ := cmd.Flags().GetString("keyword")
	limit, _ := cmd.Flags().GetInt("limit")
	return archive.Filter{Query: q, Keyword: kw, Limit: limit}
}

// formatEntries writes a summary table of entries to w.
func formatEntries(entries []archive.Entry, w io.Writer) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No archived articles.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKEYWORD\tTITLE\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Keyword, e.Title, e.UpdatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func init() {
	for _, c := range []*cobra.Command{archiveListCmd, archiveExportCmd} {
		c.Flags().String("query", "", "match keyword, title or body text")
		c.Flags().String("keyword", "", "exact keyword (case-insensitive)")
		c.Flags().Int("limit", 0, "maximum articles (0 for the default)")
	}
	archiveExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	archiveShowCmd.Flags().Bool("html", false, "render the article as HTML")

	archiveCmd.AddCommand(archiveListCmd, archiveShowCmd, archiveExportCmd, archiveDeleteCmd)
	rootCmd.AddCommand(archiveCmd)
}
