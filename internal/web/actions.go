// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/glossary-engine/internal/compose"
	"github.com/pdiddy/glossary-engine/internal/session"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

// Action names shared by the form UI and the JSON API.
const (
	ActionFetchSERP       = "fetch-serp"
	ActionGenerateOutline = "generate-outline"
	ActionSaveOutline     = "save-outline"
	ActionGenerateContent = "generate-content"
	ActionAddSection      = "add-section"
	ActionGenerateArticle = "generate-article"
	ActionRelatedKeywords = "related-keywords"
	ActionTopQueries      = "top-queries"
	ActionArchive         = "archive"
	ActionShowArticle     = "show-article"
)

// actionInput carries the form fields an action may read.
type actionInput struct {
	Keyword      string `json:"keyword"`
	Outline      string `json:"outline"`
	Section      string `json:"section"`
	Instructions string `json:"instructions"`
}

// actionResult is what an action reports back besides session state.
type actionResult struct {
	Message   string `json:"message"`
	ArchiveID string `json:"archive_id,omitempty"`

	// show renders the entire article on the next page view.
	show bool
}

// apply runs one action against sess. The caller holds the entry's action lock.
func (s *Server) apply(ctx context.Context, sess *session.Session, action string, in actionInput) (actionResult, error) {
	p := s.pipeline
	switch action {
	case ActionFetchSERP:
		if err := p.FetchSERP(ctx, sess, in.Keyword); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: fmt.Sprintf("Fetched %d results for %q.", len(sess.SERP.Organic), sess.Keyword)}, nil

	case ActionGenerateOutline:
		if err := p.GenerateOutline(ctx, sess, in.Keyword); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Outline generated. Edit it if needed."}, nil

	case ActionSaveOutline:
		p.SetOutline(sess, in.Outline)
		return actionResult{Message: "Outline saved."}, nil

	case ActionGenerateContent:
		if err := p.GenerateSection(ctx, sess, in.Section, in.Instructions); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: fmt.Sprintf("Generated %s.", compose.Label(in.Section))}, nil

	case ActionAddSection:
		if err := p.AddSection(sess, in.Section); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: fmt.Sprintf("Added section %s.", compose.Label(in.Section))}, nil

	case ActionGenerateArticle:
		if err := p.GenerateArticle(ctx, sess); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Article generated.", show: true}, nil

	case ActionRelatedKeywords:
		if err := p.RelatedKeywords(ctx, sess); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: fmt.Sprintf("Found %d related keywords.", len(sess.Keywords))}, nil

	case ActionTopQueries:
		if err := p.TopQueries(ctx, sess); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: fmt.Sprintf("Found %d Search Console queries.", len(sess.TopQueries))}, nil

	case ActionArchive:
		if s.archive == nil {
			return actionResult{}, types.NewFailure(types.FailureUnknown, nil, "the article archive is not configured: set archive.dir")
		}
		id, err := s.archive.SaveSession(ctx, sess)
		if err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Saved to archive.", ArchiveID: id}, nil

	case ActionShowArticle:
		if sess.Markdown() == "" {
			return actionResult{}, types.Validation("no content generated yet")
		}
		return actionResult{Message: "Showing entire article.", show: true}, nil
	}
	return actionResult{}, errUnknownAction
}

var errUnknownAction = types.NewFailure(types.FailureValidation, nil, "unknown action")

// statusFor maps a failure kind to an HTTP status.
func statusFor(err error) int {
	switch types.KindOf(err) {
	case types.FailureValidation:
		return http.StatusBadRequest
	case types.FailureConnectionExhausted, types.FailureInvalidResponse, types.FailureCompletion:
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// userMessage is the text shown for a failed action.
func userMessage(err error) string {
	var f *types.Failure
	if !errors.As(err, &f) {
		return "Something went wrong: " + err.Error()
	}
	detail := f.Message
	if f.Err != nil {
		detail += ": " + f.Err.Error()
	}
	switch f.Kind {
	case types.FailureConnectionExhausted:
		return "Could not reach the service after several attempts (" + detail + ")."
	case types.FailureInvalidResponse:
		return "The service returned an unexpected response (" + detail + ")."
	case types.FailureCompletion:
		return "The writing model failed (" + detail + ")."
	case types.FailureValidation:
		return f.Message
	}
	return "Something went wrong: " + detail
}
