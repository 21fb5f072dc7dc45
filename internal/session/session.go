// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session owns the state of one article-writing session and applies
// user actions to it. Each action either commits its result or leaves the
// session exactly as it was.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/glossary-engine/pkg/types"
)

// Session is everything one user has produced for one keyword.
type Session struct {
	ID      string                 `json:"id" yaml:"id"`
	Keyword string                 `json:"keyword" yaml:"keyword"`
	SERP    *types.SearchResultSet `json:"serp,omitempty" yaml:"serp,omitempty"`
	Outline types.Outline          `json:"outline" yaml:"outline"`
	Article types.ArticleState     `json:"article" yaml:"article"`
	Draft   string                 `json:"draft,omitempty" yaml:"draft,omitempty"`

	// DraftIsLatest is set when the one-shot draft was generated after the
	// last section.
	DraftIsLatest bool `json:"draft_is_latest,omitempty" yaml:"draft_is_latest,omitempty"`

	Keywords   []string         `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	TopQueries []types.QueryRow `json:"top_queries,omitempty" yaml:"top_queries,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at" yaml:"updated_at"`
}

// New returns an empty session for keyword with the given section names
// (DefaultSections when none).
func New(keyword string, sections ...string) *Session {
	keyword = strings.TrimSpace(keyword)
	return &Session{
		ID:        uuid.NewString(),
		Keyword:   keyword,
		Article:   types.NewArticleState(keyword, sections...),
		UpdatedAt: time.Now().UTC(),
	}
}

// Markdown returns the entire article: the one-shot draft when it is the most
// recent thing generated, otherwise the generated sections in order. The
// draft is also used when no section has content.
func (s *Session) Markdown() string {
	draft := strings.TrimSpace(s.Draft)
	if s.DraftIsLatest && draft != "" {
		return draft
	}
	if md := s.Article.Markdown(); md != "" {
		return md
	}
	return draft
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	c.Article = s.Article.Clone()
	if s.SERP != nil {
		set := *s.SERP
		set.Organic = append([]types.OrganicResult(nil), s.SERP.Organic...)
		set.RelatedQuestions = append([]types.RelatedQuestion(nil), s.SERP.RelatedQuestions...)
		c.SERP = &set
	}
	c.Keywords = append([]string(nil), s.Keywords...)
	c.TopQueries = append([]types.QueryRow(nil), s.TopQueries...)
	return &c
}

// sameKeyword reports whether kw refers to the session's current keyword.
func (s *Session) sameKeyword(kw string) bool {
	return strings.EqualFold(strings.TrimSpace(s.Keyword), strings.TrimSpace(kw))
}

// reset starts over for a new keyword, keeping the ID and section names.
func (s *Session) reset(keyword string, sections []string) {
	*s = Session{
		ID:        s.ID,
		Keyword:   keyword,
		Article:   types.NewArticleState(keyword, sections...),
		UpdatedAt: s.UpdatedAt,
	}
}

// LoadFile reads a session saved with SaveFile. A missing file yields a new
// session for keyword.
func LoadFile(path, keyword string, sections ...string) (*Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(keyword, sections...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return &s, nil
}

// SaveFile writes the session as YAML, creating parent directories.
func SaveFile(path string, s *Session) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating session directory: %w", err)
		}
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}
