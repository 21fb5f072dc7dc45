// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package serp fetches search engine results pages and Search Console query
// data for a keyword and normalizes them into typed records.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/glossary-engine/pkg/types"
)

// Fetcher retrieves the results page for one keyword.
type Fetcher interface {
	Fetch(ctx context.Context, keyword string) (*types.SearchResultSet, error)
}

// QuerySource retrieves top search queries containing a keyword.
type QuerySource interface {
	TopQueries(ctx context.Context, keyword string) ([]types.QueryRow, error)
}

// FormatTable writes organic results and related questions as a
// human-readable table to w.
func FormatTable(set *types.SearchResultSet, w io.Writer) {
	if set == nil || len(set.Organic) == 0 {
		fmt.Fprintln(w, "No organic results found.")
	} else {
		fmt.Fprintf(w, "%-4s  %-50s  %s\n", "Pos", "Title", "Snippet")
		fmt.Fprintln(w, strings.Repeat("-", 110))
		for _, r := range set.Organic {
			fmt.Fprintf(w, "%-4d  %-50s  %s\n", r.Position, truncate(r.Title, 50), truncate(r.Snippet, 52))
		}
	}

	if set != nil && len(set.RelatedQuestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Related questions:")
		for _, q := range set.RelatedQuestions {
			fmt.Fprintf(w, "  - %s\n", q.Question)
		}
	}
}

// FormatQueries writes Search Console rows as a table to w.
func FormatQueries(rows []types.QueryRow, w io.Writer) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No queries found.")
		return
	}
	fmt.Fprintf(w, "%-50s  %8s  %11s  %6s  %8s\n", "Query", "Clicks", "Impressions", "CTR", "Position")
	fmt.Fprintln(w, strings.Repeat("-", 91))
	for _, r := range rows {
		fmt.Fprintf(w, "%-50s  %8.0f  %11.0f  %5.1f%%  %8.1f\n",
			truncate(r.Query, 50), r.Clicks, r.Impressions, r.CTR*100, r.Position)
	}
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
