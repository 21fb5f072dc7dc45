// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compose writes article sections, whole articles and related
// keyword lists with the completion service.
package compose

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/glossary-engine/internal/completion"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

const sectionSystemBase = `You are a content generation assistant writing SEO-optimized retirement glossary entries that simplify complex financial concepts.
Tone: factual and non-editorial. Be terse. Use sentence case for headings. Avoid opinions and focus on factual information.
Format: Markdown, with '#' for the main title and '##' for subtitles. Do not include a conclusion paragraph. Do not include an FAQ section unless the instructions explicitly ask for one.`

var sectionTmpl = template.Must(template.New("section").Parse(`Write the "{{.Section}}" section of a retirement glossary page about '{{.Keyword}}'.

Instructions:
{{.Instructions}}
{{- if .Context}}

Sections already written for this page (stay consistent with them and do not repeat them):

{{.Context}}
{{- end}}
`))

var articleTmpl = template.Must(template.New("article").Parse(`Create an informative retirement glossary page about '{{.Keyword}}'. Begin with an introduction that gives a clear overview of the topic, then describe '{{.Keyword}}' in detail in the context of a retirement glossary term. The article should not be opinionated.
Incorporate the following outline:

{{.Outline}}

Follow each H2 subheading with an NLP-friendly paragraph that answers the question and provides practical insight. Use between 3 and 6 H2 headings.
Match the language of the retirement planning industry: simplify complex concepts and educate readers on the key aspects of the topic.
`))

var keywordsTmpl = template.Must(template.New("keywords").Parse(`List {{.Count}} keywords closely related to '{{.Keyword}}' that a retirement glossary reader might also search for.
Reply with one keyword per line and nothing else.
`))

const (
	articleSystem  = `You are a content generation assistant creating SEO-optimized retirement glossary entries. Use clear and accessible language, keep a neutral and informative tone, and focus on factual information. Use Markdown with '#' for the main title and '##' for subtitles. Do not include a conclusion paragraph or an FAQ section.`
	keywordsSystem = `You are an SEO research assistant for a retirement planning glossary.`

	relatedKeywordCount = 10
)

// Composer generates article text. It never mutates the ArticleState it is
// given; callers store results themselves.
type Composer struct {
	client completion.Client
	cfg    types.GenerationConfig
	log    *slog.Logger
}

// New builds a Composer.
func New(client completion.Client, cfg types.GenerationConfig, log *slog.Logger) *Composer {
	if log == nil {
		log = slog.Default()
	}
	return &Composer{client: client, cfg: cfg, log: log}
}

// GenerateSection writes one section from the keyword, the user's
// instructions and every other section already generated in prior.
func (c *Composer) GenerateSection(ctx context.Context, sectionKey, keyword, instructions string, prior types.ArticleState) (string, error) {
	sectionKey = types.NormalizeSectionName(sectionKey)
	keyword = strings.TrimSpace(keyword)
	instructions = strings.TrimSpace(instructions)
	switch {
	case keyword == "":
		return "", types.Validation("keyword is required")
	case sectionKey == "":
		return "", types.Validation("section name is required")
	case instructions == "":
		return "", types.Validation("instructions are required for section %q", sectionKey)
	}

	prompt, err := c.BuildSectionPrompt(sectionKey, keyword, instructions, BuildContext(sectionKey, prior))
	if err != nil {
		return "", types.NewFailure(types.FailureUnknown, err, "rendering section prompt")
	}

	text, err := c.client.Complete(ctx, prompt)
	if err != nil {
		return "", completion.Wrap(err, "generating section %q", sectionKey)
	}
	c.log.Debug("generated section", "keyword", keyword, "section", sectionKey, "chars", len(text))
	return text, nil
}

// BuildSectionPrompt renders the section prompt. The configured tone is
// appended to the fixed system instruction.
func (c *Composer) BuildSectionPrompt(sectionKey, keyword, instructions, context string) (completion.Prompt, error) {
	var buf bytes.Buffer
	err := sectionTmpl.Execute(&buf, struct {
		Section, Keyword, Instructions, Context string
	}{Label(sectionKey), keyword, instructions, context})
	if err != nil {
		return completion.Prompt{}, err
	}

	system := sectionSystemBase
	if tone := strings.TrimSpace(c.cfg.Tone); tone != "" {
		system += "\nAlso keep the writing " + tone + "."
	}
	return completion.Prompt{System: system, User: buf.String()}, nil
}

// BuildContext concatenates a labeled block for every section in prior that
// has content, skipping sectionKey itself. Blocks are separated by a blank
// line. The result is empty when no section qualifies.
func BuildContext(sectionKey string, prior types.ArticleState) string {
	key := types.NormalizeSectionName(sectionKey)
	var blocks []string
	for _, s := range prior.Sections {
		if strings.EqualFold(s.Name, key) || strings.TrimSpace(s.Content) == "" {
			continue
		}
		blocks = append(blocks, Label(s.Name)+":\n"+strings.TrimSpace(s.Content))
	}
	return strings.Join(blocks, "\n\n")
}

// Label title-cases a section name for display: "key_benefits" becomes
// "Key Benefits".
func Label(name string) string {
	name = strings.NewReplacer("_", " ", "-", " ").Replace(types.NormalizeSectionName(name))
	return cases.Title(language.English).String(name)
}

// GenerateArticle writes a whole article from an outline in one request.
func (c *Composer) GenerateArticle(ctx context.Context, keyword string, outline types.Outline) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", types.Validation("keyword is required")
	}
	if outline.IsEmpty() {
		return "", types.Validation("outline is required to generate an article")
	}

	var buf bytes.Buffer
	if err := articleTmpl.Execute(&buf, struct{ Keyword, Outline string }{keyword, strings.TrimSpace(outline.Text)}); err != nil {
		return "", types.NewFailure(types.FailureUnknown, err, "rendering article prompt")
	}
	system := articleSystem
	if tone := strings.TrimSpace(c.cfg.Tone); tone != "" {
		system += " Keep the writing " + tone + "."
	}

	text, err := c.client.Complete(ctx, completion.Prompt{System: system, User: buf.String()})
	if err != nil {
		return "", completion.Wrap(err, "generating article for %q", keyword)
	}
	c.log.Debug("generated article", "keyword", keyword, "chars", len(text))
	return text, nil
}

// RelatedKeywords asks the model for related search terms and extracts them
// from the reply.
func (c *Composer) RelatedKeywords(ctx context.Context, keyword string) ([]string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, types.Validation("keyword is required")
	}

	var buf bytes.Buffer
	if err := keywordsTmpl.Execute(&buf, struct {
		Keyword string
		Count   int
	}{keyword, relatedKeywordCount}); err != nil {
		return nil, types.NewFailure(types.FailureUnknown, err, "rendering keywords prompt")
	}

	text, err := c.client.Complete(ctx, completion.Prompt{System: keywordsSystem, User: buf.String()})
	if err != nil {
		return nil, completion.Wrap(err, "listing keywords related to %q", keyword)
	}
	kws := ExtractKeywords(text)
	c.log.Debug("extracted related keywords", "keyword", keyword, "count", len(kws))
	return kws, nil
}
