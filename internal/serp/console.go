// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package serp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/searchconsole/v1"

	"github.com/pdiddy/glossary-engine/internal/httputil"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

const (
	defaultTokenURL     = "https://accounts.google.com/o/oauth2/token"
	defaultRowLimit     = 10
	defaultLookbackDays = 7
)

// ConsoleClient looks up the top Search Console queries containing a keyword
// for one verified site.
type ConsoleClient struct {
	svc    *searchconsole.Service
	cfg    types.SearchConsoleConfig
	policy httputil.RetryPolicy
	log    *slog.Logger
	now    func() time.Time
}

// NewConsoleClient authenticates with the configured refresh token. Extra
// options are appended last, so tests can supply option.WithHTTPClient and
// option.WithEndpoint.
func NewConsoleClient(ctx context.Context, cfg types.SearchConsoleConfig, policy httputil.RetryPolicy, log *slog.Logger, opts ...option.ClientOption) (*ConsoleClient, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("search console site_url is not configured")
	}
	if cfg.RowLimit <= 0 {
		cfg.RowLimit = defaultRowLimit
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = defaultLookbackDays
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	var cliOpts []option.ClientOption
	if len(opts) == 0 {
		if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
			return nil, fmt.Errorf("search console credentials missing: need client id, client secret, and refresh token")
		}
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
			Scopes:       []string{searchconsole.WebmastersReadonlyScope},
		}
		base := &http.Client{Timeout: cfg.Timeout}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
		httpClient := oauth2.NewClient(ctx, ts)
		httpClient.Timeout = cfg.Timeout
		cliOpts = append(cliOpts, option.WithHTTPClient(httpClient))
	}
	if cfg.Endpoint != "" {
		cliOpts = append(cliOpts, option.WithEndpoint(cfg.Endpoint))
	}
	cliOpts = append(cliOpts, opts...)

	svc, err := searchconsole.NewService(ctx, cliOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating search console service: %w", err)
	}

	return &ConsoleClient{svc: svc, cfg: cfg, policy: policy, log: log, now: time.Now}, nil
}

// TopQueries returns up to RowLimit queries over the lookback window whose
// text contains keyword.
func (c *ConsoleClient) TopQueries(ctx context.Context, keyword string) ([]types.QueryRow, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, types.Validation("keyword is required")
	}

	req := BuildQueryRequest(keyword, c.cfg, c.now())

	var resp *searchconsole.SearchAnalyticsQueryResponse
	err := c.policy.Do(ctx, func(int) error {
		r, err := c.svc.Searchanalytics.Query(c.cfg.SiteURL, req).Context(ctx).Do()
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		var ex *httputil.ExhaustedError
		if errors.As(err, &ex) {
			return nil, types.NewFailure(types.FailureConnectionExhausted, ex.Err,
				"search console unreachable after %d attempts", ex.Attempts)
		}
		var gErr *googleapi.Error
		if errors.As(err, &gErr) {
			return nil, types.NewFailure(types.FailureUnknown, err, "search console returned HTTP %d", gErr.Code)
		}
		return nil, types.NewFailure(types.FailureUnknown, err, "search console query failed")
	}

	rows := make([]types.QueryRow, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		if len(r.Keys) == 0 {
			continue
		}
		rows = append(rows, types.QueryRow{
			Query:       r.Keys[0],
			Clicks:      r.Clicks,
			Impressions: r.Impressions,
			CTR:         r.Ctr,
			Position:    r.Position,
		})
	}
	c.log.Debug("fetched search console queries", "keyword", keyword, "rows", len(rows))
	return rows, nil
}

// BuildQueryRequest builds the analytics request: query dimension, a
// contains filter on keyword, and a date range ending today.
func BuildQueryRequest(keyword string, cfg types.SearchConsoleConfig, now time.Time) *searchconsole.SearchAnalyticsQueryRequest {
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = defaultLookbackDays
	}
	limit := cfg.RowLimit
	if limit <= 0 {
		limit = defaultRowLimit
	}
	return &searchconsole.SearchAnalyticsQueryRequest{
		StartDate:  now.AddDate(0, 0, -lookback).Format(time.DateOnly),
		EndDate:    now.Format(time.DateOnly),
		Dimensions: []string{"query"},
		RowLimit:   int64(limit),
		DimensionFilterGroups: []*searchconsole.ApiDimensionFilterGroup{
			{
				Filters: []*searchconsole.ApiDimensionFilter{
					{Dimension: "query", Operator: "contains", Expression: keyword},
				},
			},
		},
	}
}
