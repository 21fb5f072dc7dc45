// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pdiddy/glossary-engine/internal/completion"
	"github.com/pdiddy/glossary-engine/internal/compose"
	"github.com/pdiddy/glossary-engine/internal/outline"
	"github.com/pdiddy/glossary-engine/internal/serp"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

const defaultMaxSections = 12

// Pipeline wires the fetcher, outline generator and composer together and
// exposes one method per user action.
type Pipeline struct {
	fetcher  serp.Fetcher
	queries  serp.QuerySource
	outlines *outline.Generator
	composer *compose.Composer
	cfg      types.GenerationConfig
	log      *slog.Logger
	now      func() time.Time
}

// NewPipeline builds a Pipeline. queries may be nil when Search Console is
// not configured.
func NewPipeline(fetcher serp.Fetcher, queries serp.QuerySource, client completion.Client, cfg types.GenerationConfig, log *slog.Logger) *Pipeline {
	if cfg.MaxSections <= 0 {
		cfg.MaxSections = defaultMaxSections
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		fetcher:  fetcher,
		queries:  queries,
		outlines: outline.New(client, cfg, log),
		composer: compose.New(client, cfg, log),
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// MaxSections is the section limit per article.
func (p *Pipeline) MaxSections() int { return p.cfg.MaxSections }

// Sections is the configured section list for new articles.
func (p *Pipeline) Sections() []string { return p.cfg.Sections }

// NewSession starts a session with the configured section names.
func (p *Pipeline) NewSession(keyword string) *Session {
	return New(keyword, p.cfg.Sections...)
}

// keywordFor resolves the keyword an action runs against: the explicit one
// if given, else the session's.
func keywordFor(s *Session, keyword string) (string, error) {
	if kw := strings.TrimSpace(keyword); kw != "" {
		return kw, nil
	}
	if kw := strings.TrimSpace(s.Keyword); kw != "" {
		return kw, nil
	}
	return "", types.Validation("keyword is required")
}

// switchTo resets s when keyword differs from the session's keyword.
func (p *Pipeline) switchTo(s *Session, keyword string) {
	if !s.sameKeyword(keyword) {
		p.log.Info("keyword changed, starting new article", "session", s.ID, "from", s.Keyword, "to", keyword)
		s.reset(keyword, p.cfg.Sections)
	}
}

// UseKeyword points s at keyword, starting a new article when it differs
// from the current one. A blank keyword leaves s unchanged.
func (p *Pipeline) UseKeyword(s *Session, keyword string) {
	if kw := strings.TrimSpace(keyword); kw != "" {
		p.switchTo(s, kw)
	}
}

func (p *Pipeline) fail(action string, s *Session, err error) error {
	p.log.Warn("action failed", "action", action, "session", s.ID, "kind", types.KindOf(err), "error", err)
	return err
}

// FetchSERP fetches results for keyword and stores them on the session.
func (p *Pipeline) FetchSERP(ctx context.Context, s *Session, keyword string) error {
	kw, err := keywordFor(s, keyword)
	if err != nil {
		return p.fail("fetch_serp", s, err)
	}
	set, err := p.fetcher.Fetch(ctx, kw)
	if err != nil {
		return p.fail("fetch_serp", s, err)
	}
	p.switchTo(s, kw)
	s.SERP = set
	s.UpdatedAt = p.now()
	p.log.Info("fetched SERP data", "session", s.ID, "keyword", kw, "organic", len(set.Organic))
	return nil
}

// GenerateOutline drafts an outline. Search results already on the session
// are used when they were fetched for the same keyword.
func (p *Pipeline) GenerateOutline(ctx context.Context, s *Session, keyword string) error {
	kw, err := keywordFor(s, keyword)
	if err != nil {
		return p.fail("generate_outline", s, err)
	}
	var set *types.SearchResultSet
	if s.SERP != nil && s.sameKeyword(kw) {
		set = s.SERP
	}
	o, err := p.outlines.Generate(ctx, kw, set)
	if err != nil {
		return p.fail("generate_outline", s, err)
	}
	p.switchTo(s, kw)
	s.Outline = o
	s.UpdatedAt = p.now()
	p.log.Info("generated outline", "session", s.ID, "keyword", kw, "serp_informed", set != nil)
	return nil
}

// SetOutline replaces the outline with user-edited text.
func (p *Pipeline) SetOutline(s *Session, text string) {
	s.Outline = types.Outline{Keyword: s.Keyword, Text: text}
	s.UpdatedAt = p.now()
}

// GenerateSection writes one section. Blank instructions fall back to the
// session outline. A section name not yet in the article is added, subject
// to the section limit.
func (p *Pipeline) GenerateSection(ctx context.Context, s *Session, name, instructions string) error {
	name = types.NormalizeSectionName(name)
	if strings.TrimSpace(s.Keyword) == "" {
		return p.fail("generate_section", s, types.Validation("keyword is required"))
	}
	if name == "" {
		return p.fail("generate_section", s, types.Validation("section name is required"))
	}
	if strings.TrimSpace(instructions) == "" {
		instructions = s.Outline.Text
	}
	if strings.TrimSpace(instructions) == "" {
		return p.fail("generate_section", s, types.Validation("enter section instructions or generate an outline first"))
	}
	if !s.Article.Has(name) && len(s.Article.Sections) >= p.cfg.MaxSections {
		return p.fail("generate_section", s, types.Validation("article already has the maximum of %d sections", p.cfg.MaxSections))
	}

	text, err := p.composer.GenerateSection(ctx, name, s.Keyword, instructions, s.Article.Clone())
	if err != nil {
		return p.fail("generate_section", s, err)
	}
	s.Article.Keyword = s.Keyword
	s.Article.Set(name, text)
	s.DraftIsLatest = false
	s.UpdatedAt = p.now()
	p.log.Info("generated section", "session", s.ID, "section", name, "chars", len(text))
	return nil
}

// AddSection appends an empty section.
func (p *Pipeline) AddSection(s *Session, name string) error {
	name = types.NormalizeSectionName(name)
	if name == "" {
		return types.Validation("section name is required")
	}
	if s.Article.Has(name) {
		return types.Validation("section %q already exists", name)
	}
	if len(s.Article.Sections) >= p.cfg.MaxSections {
		return types.Validation("article already has the maximum of %d sections", p.cfg.MaxSections)
	}
	if err := s.Article.Add(name); err != nil {
		return types.Validation("%v", err)
	}
	s.UpdatedAt = p.now()
	return nil
}

// GenerateArticle writes a whole article from the session outline and keeps
// it as the session draft.
func (p *Pipeline) GenerateArticle(ctx context.Context, s *Session) error {
	if strings.TrimSpace(s.Keyword) == "" {
		return p.fail("generate_article", s, types.Validation("keyword is required"))
	}
	if s.Outline.IsEmpty() {
		return p.fail("generate_article", s, types.Validation("enter or generate an outline first"))
	}
	text, err := p.composer.GenerateArticle(ctx, s.Keyword, s.Outline)
	if err != nil {
		return p.fail("generate_article", s, err)
	}
	s.Draft = text
	s.DraftIsLatest = true
	s.UpdatedAt = p.now()
	p.log.Info("generated article", "session", s.ID, "keyword", s.Keyword, "chars", len(text))
	return nil
}

// RelatedKeywords asks for keywords related to the session keyword.
func (p *Pipeline) RelatedKeywords(ctx context.Context, s *Session) error {
	if strings.TrimSpace(s.Keyword) == "" {
		return p.fail("related_keywords", s, types.Validation("keyword is required"))
	}
	kws, err := p.composer.RelatedKeywords(ctx, s.Keyword)
	if err != nil {
		return p.fail("related_keywords", s, err)
	}
	s.Keywords = kws
	s.UpdatedAt = p.now()
	return nil
}

// TopQueries looks up Search Console queries containing the session keyword.
func (p *Pipeline) TopQueries(ctx context.Context, s *Session) error {
	if p.queries == nil {
		return p.fail("top_queries", s, types.NewFailure(types.FailureUnknown, nil, "Search Console is not configured: set search_console.site_url"))
	}
	if strings.TrimSpace(s.Keyword) == "" {
		return p.fail("top_queries", s, types.Validation("keyword is required"))
	}
	rows, err := p.queries.TopQueries(ctx, s.Keyword)
	if err != nil {
		return p.fail("top_queries", s, err)
	}
	s.TopQueries = rows
	s.UpdatedAt = p.now()
	return nil
}
