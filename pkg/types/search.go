// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the glossary-engine pipeline:
// SERP results, outlines, article state, configuration, and the failure
// taxonomy surfaced to users.
package types

import "time"

// OrganicResult is one organic search listing from a results page.
type OrganicResult struct {
	// Position is the 1-based rank reported by the search service.
	Position int `json:"position" yaml:"position"`

	// Title is the listing headline.
	Title string `json:"title" yaml:"title"`

	// Snippet is the text excerpt shown under the headline.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Link is the listing URL.
	Link string `json:"link,omitempty" yaml:"link,omitempty"`
}

// RelatedQuestion is a "People also ask" entry from a results page.
type RelatedQuestion struct {
	Question string `json:"question" yaml:"question"`
	Snippet  string `json:"snippet" yaml:"snippet"`
	Link     string `json:"link" yaml:"link"`
}

// SearchResultSet is the normalized response of one SERP fetch. It is
// produced once per fetch and replaced, not updated, by the next one.
type SearchResultSet struct {
	// Keyword is the query the results were fetched for.
	Keyword string `json:"keyword" yaml:"keyword"`

	// Organic holds the retained organic results in rank order.
	Organic []OrganicResult `json:"organic_results" yaml:"organic_results"`

	// RelatedQuestions holds related questions in page order.
	RelatedQuestions []RelatedQuestion `json:"related_questions" yaml:"related_questions"`

	// FetchedAt records when the response was received.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// IsEmpty reports whether the set carries nothing a prompt could draw on.
func (s *SearchResultSet) IsEmpty() bool {
	return s == nil || (len(s.Organic) == 0 && len(s.RelatedQuestions) == 0)
}

// Titles returns the organic result titles in rank order.
func (s *SearchResultSet) Titles() []string {
	if s == nil {
		return nil
	}
	titles := make([]string, 0, len(s.Organic))
	for _, r := range s.Organic {
		titles = append(titles, r.Title)
	}
	return titles
}

// QueryRow is one Search Console analytics row for the query dimension.
type QueryRow struct {
	Query       string  `json:"query" yaml:"query"`
	Clicks      float64 `json:"clicks" yaml:"clicks"`
	Impressions float64 `json:"impressions" yaml:"impressions"`
	CTR         float64 `json:"ctr" yaml:"ctr"`
	Position    float64 `json:"position" yaml:"position"`
}
