// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package serp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/glossary-engine/internal/httputil"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

// serpAPIBase is the SerpApi search endpoint. Declared as a var so tests can
// substitute an httptest server.
var serpAPIBase = "https://serpapi.com/search.json"

const (
	defaultEngine     = "google"
	defaultMaxResults = 5
	defaultTimeout    = 30 * time.Second

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 4 << 20
)

// SerpAPIFetcher queries SerpApi for a keyword's results page.
type SerpAPIFetcher struct {
	client *http.Client
	cfg    types.SERPConfig
	policy httputil.RetryPolicy
	log    *slog.Logger
}

// NewSerpAPIFetcher builds a fetcher. A nil client gets one with the
// configured timeout; the policy comes from cfg.Retry.
func NewSerpAPIFetcher(client *http.Client, cfg types.SERPConfig, log *slog.Logger) (*SerpAPIFetcher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("search API key missing: set serp.api_key, SERPAPI_API_KEY, or .secrets/serp-api-key")
	}
	policy, err := httputil.PolicyFromConfig(cfg.Retry)
	if err != nil {
		return nil, err
	}
	if cfg.Engine == "" {
		cfg.Engine = defaultEngine
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = slog.Default()
	}
	return &SerpAPIFetcher{client: client, cfg: cfg, policy: policy, log: log}, nil
}

// WithPolicy returns a copy of the fetcher using policy.
func (f *SerpAPIFetcher) WithPolicy(policy httputil.RetryPolicy) *SerpAPIFetcher {
	c := *f
	c.policy = policy
	return &c
}

// Fetch issues one search request (retried on connection failures per the
// policy) and keeps at most MaxResults organic results. Zero results is a
// valid outcome.
func (f *SerpAPIFetcher) Fetch(ctx context.Context, keyword string) (*types.SearchResultSet, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, types.Validation("keyword is required")
	}

	base := serpAPIBase
	if f.cfg.BaseURL != "" {
		base = f.cfg.BaseURL
	}
	params := url.Values{
		"engine":  {f.cfg.Engine},
		"q":       {keyword},
		"api_key": {f.cfg.APIKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, types.NewFailure(types.FailureUnknown, err, "creating search request")
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.policy)
	if err != nil {
		var ex *httputil.ExhaustedError
		if errors.As(err, &ex) {
			return nil, types.NewFailure(types.FailureConnectionExhausted, ex.Err,
				"search service unreachable after %d attempts", ex.Attempts)
		}
		return nil, types.NewFailure(types.FailureUnknown, err, "search request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, types.NewFailure(types.FailureUnknown, err, "reading search response")
	}

	if resp.StatusCode != http.StatusOK {
		msg := apiErrorMessage(body)
		if msg == "" {
			msg = truncate(strings.TrimSpace(string(body)), 200)
		}
		return nil, types.NewFailure(types.FailureUnknown, nil, "search service returned HTTP %d: %s", resp.StatusCode, msg)
	}

	var sr serpAPIResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, &types.Failure{
			Kind:    types.FailureInvalidResponse,
			Message: "search response is not valid JSON",
			Raw:     string(body),
			Err:     err,
		}
	}
	if sr.Error != "" {
		return nil, types.NewFailure(types.FailureUnknown, nil, "search service error: %s", sr.Error)
	}

	set := normalize(keyword, sr, f.cfg.MaxResults)
	f.log.Debug("fetched SERP data",
		"keyword", keyword,
		"organic", len(set.Organic),
		"related_questions", len(set.RelatedQuestions),
		"titles", set.Titles(),
	)
	return set, nil
}

// normalize converts the API payload into a SearchResultSet, retaining the
// first max organic results.
func normalize(keyword string, sr serpAPIResponse, max int) *types.SearchResultSet {
	set := &types.SearchResultSet{
		Keyword:          keyword,
		Organic:          []types.OrganicResult{},
		RelatedQuestions: []types.RelatedQuestion{},
		FetchedAt:        time.Now().UTC(),
	}
	for i, r := range sr.OrganicResults {
		if len(set.Organic) >= max {
			break
		}
		pos := r.Position
		if pos <= 0 {
			pos = i + 1
		}
		set.Organic = append(set.Organic, types.OrganicResult{
			Position: pos,
			Title:    r.Title,
			Snippet:  r.Snippet,
			Link:     r.Link,
		})
	}
	for _, q := range sr.RelatedQuestions {
		set.RelatedQuestions = append(set.RelatedQuestions, types.RelatedQuestion{
			Question: q.Question,
			Snippet:  q.Snippet,
			Link:     q.Link,
		})
	}
	return set
}

func apiErrorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Error
}

// SerpApi JSON structures.
type serpAPIResponse struct {
	Error            string               `json:"error"`
	OrganicResults   []serpAPIOrganic     `json:"organic_results"`
	RelatedQuestions []serpAPIRelatedQuery `json:"related_questions"`
}

type serpAPIOrganic struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Link     string `json:"link"`
}

type serpAPIRelatedQuery struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet"`
	Link     string `json:"link"`
}
