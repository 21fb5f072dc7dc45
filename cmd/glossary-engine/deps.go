// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/glossary-engine/internal/archive"
	"github.com/pdiddy/glossary-engine/internal/completion"
	"github.com/pdiddy/glossary-engine/internal/httputil"
	"github.com/pdiddy/glossary-engine/internal/serp"
	"github.com/pdiddy/glossary-engine/internal/session"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

// unavailableFetcher stands in for the SERP fetcher when it cannot be built,
// so actions that do not need search results still work.
type unavailableFetcher struct{ err error }

func (u unavailableFetcher) Fetch(context.Context, string) (*types.SearchResultSet, error) {
	return nil, u.err
}

// buildPipeline wires the pipeline from cfg. Missing credentials do not fail
// here; the action that needs them reports the service as not configured.
func buildPipeline(ctx context.Context, cfg types.PipelineConfig) (*session.Pipeline, bool, error) {
	var fetcher serp.Fetcher
	f, err := serp.NewSerpAPIFetcher(nil, cfg.SERP, logger)
	switch {
	case err == nil:
		fetcher = f
	case cfg.SERP.APIKey == "":
		fetcher = unavailableFetcher{err: types.NewFailure(types.FailureUnknown, err, "search service is not configured")}
	default:
		return nil, false, err
	}

	var client completion.Client
	switch {
	case viper.GetBool("dry_run"):
		client = completion.Echo{}
	default:
		c, err := completion.NewOpenAIClient(cfg.Generation.AIConfig, nil, logger)
		if err != nil {
			cause := err
			client = completion.Func(func(context.Context, completion.Prompt) (string, error) {
				return "", types.NewFailure(types.FailureUnknown, cause, "completion service is not configured")
			})
		} else {
			client = c
		}
	}

	var queries serp.QuerySource
	if cfg.SearchConsole.Enabled() {
		policy, err := httputil.PolicyFromConfig(cfg.SERP.Retry)
		if err != nil {
			return nil, false, err
		}
		qc, err := serp.NewConsoleClient(ctx, cfg.SearchConsole, policy, logger)
		if err != nil {
			return nil, false, err
		}
		queries = qc
	}

	return session.NewPipeline(fetcher, queries, client, cfg.Generation, logger), queries != nil, nil
}

// openArchive opens the archive store, or returns nil when archive.dir is
// empty.
func openArchive(cfg types.ArchiveConfig) (*archive.Store, error) {
	if cfg.Dir == "" {
		return nil, nil
	}
	return archive.NewStore(cfg)
}

// stateFlags registers the flags shared by commands that act on a session.
func stateFlags(cmd *cobra.Command) {
	cmd.Flags().String("state", "", "session file to load before and save after the command")
}

// loadSession returns the session from --state, or a fresh one. keyword, when
// set, becomes the session keyword, resetting the article if it differs.
func loadSession(cmd *cobra.Command, p *session.Pipeline, keyword string) (*session.Session, error) {
	path, _ := cmd.Flags().GetString("state")
	var s *session.Session
	if path == "" {
		s = p.NewSession(keyword)
	} else {
		var err error
		s, err = session.LoadFile(path, keyword, p.Sections()...)
		if err != nil {
			return nil, err
		}
	}
	p.UseKeyword(s, keyword)
	return s, nil
}

// saveSession writes s back to --state when the flag is set.
func saveSession(cmd *cobra.Command, s *session.Session) error {
	path, _ := cmd.Flags().GetString("state")
	if path == "" {
		return nil
	}
	if err := session.SaveFile(path, s); err != nil {
		return err
	}
	logger.Debug("saved session", "path", path, "session", s.ID)
	return nil
}

// pipelineFor loads config and builds the pipeline for a command.
func pipelineFor(cmd *cobra.Command) (*session.Pipeline, types.PipelineConfig, bool, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, false, err
	}
	p, console, err := buildPipeline(cmd.Context(), cfg)
	return p, cfg, console, err
}

// readTextFlag returns the contents of the file named by flag, or "" when the
// flag is unset. "-" reads stdin.
func readTextFlag(cmd *cobra.Command, flag string) (string, error) {
	path, _ := cmd.Flags().GetString(flag)
	if path == "" {
		return "", nil
	}
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading --%s: %w", flag, err)
	}
	return string(data), nil
}
