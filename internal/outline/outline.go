// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline drafts two-level content outlines for glossary pages.
package outline

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"text/template"

	"github.com/pdiddy/glossary-engine/internal/completion"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

const systemPrompt = `You are an expert in creating content outlines for retirement glossary pages. Your task is to generate a two-level content outline hierarchy for the provided keyword. The outline should clearly delineate sections such as definitions, applications, why it is important, benefits, and frequently asked questions, focusing solely on factual content. The outline should serve as a precise template for a glossary page that provides clear, direct information without editorializing.`

// taskTmpl is the user message. SERP data is rendered only when present.
var taskTmpl = template.Must(template.New("outline").Parse(`Generate a two-level content outline for a retirement glossary page about '{{.Keyword}}'.
Cover the main topics and subtopics related to '{{.Keyword}}'. Use main topics as level-1 items and subtopics as level-2 items.
The outline should clearly delineate sections such as definitions, applications, why it is important, benefits, and frequently asked questions, focusing solely on factual content.
{{- if .Tone}}
Write in a {{.Tone}} tone.
{{- end}}
{{- if .SERP}}
{{- if .SERP.Organic}}

Base the outline on the information in these top-ranking search results:
{{- range .SERP.Organic}}
{{.Position}}. {{.Title}}
{{- if .Snippet}}
   {{.Snippet}}
{{- end}}
{{- end}}
{{- end}}
{{- if .SERP.RelatedQuestions}}

Searchers also ask:
{{- range .SERP.RelatedQuestions}}
- {{.Question}}
{{- end}}
{{- end}}
{{- end}}
`))

// Generator turns a keyword and optional search results into an outline.
type Generator struct {
	client completion.Client
	cfg    types.GenerationConfig
	log    *slog.Logger
}

// New builds a Generator. An empty prompt style is treated as serp-informed.
func New(client completion.Client, cfg types.GenerationConfig, log *slog.Logger) *Generator {
	if cfg.PromptStyle == "" {
		cfg.PromptStyle = types.StyleSERPInformed
	}
	if log == nil {
		log = slog.Default()
	}
	return &Generator{client: client, cfg: cfg, log: log}
}

// Generate issues one completion request and returns the response text
// verbatim as the outline.
func (g *Generator) Generate(ctx context.Context, keyword string, serp *types.SearchResultSet) (types.Outline, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return types.Outline{}, types.Validation("keyword is required")
	}

	prompt, err := g.BuildPrompt(keyword, serp)
	if err != nil {
		return types.Outline{}, types.NewFailure(types.FailureUnknown, err, "rendering outline prompt")
	}

	text, err := g.client.Complete(ctx, prompt)
	if err != nil {
		return types.Outline{}, completion.Wrap(err, "generating outline for %q", keyword)
	}

	g.log.Debug("generated outline", "keyword", keyword, "style", g.cfg.PromptStyle, "chars", len(text))
	return types.Outline{Keyword: keyword, Text: text}, nil
}

// BuildPrompt renders the outline prompt. Search results are included only
// for the serp-informed style.
func (g *Generator) BuildPrompt(keyword string, serp *types.SearchResultSet) (completion.Prompt, error) {
	data := struct {
		Keyword string
		Tone    string
		SERP    *types.SearchResultSet
	}{Keyword: keyword, Tone: g.cfg.Tone}
	if g.cfg.PromptStyle == types.StyleSERPInformed && serp != nil && !serp.IsEmpty() {
		data.SERP = serp
	}

	var buf bytes.Buffer
	if err := taskTmpl.Execute(&buf, data); err != nil {
		return completion.Prompt{}, err
	}
	return completion.Prompt{System: systemPrompt, User: buf.String()}, nil
}
