// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"embed"
	"html/template"

	"github.com/pdiddy/glossary-engine/internal/compose"
	"github.com/pdiddy/glossary-engine/internal/render"
	"github.com/pdiddy/glossary-engine/internal/session"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTmpl = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"label": compose.Label,
	"pct":   func(f float64) float64 { return f * 100 },
}).ParseFS(templateFS, "templates/page.html"))

type pageData struct {
	Session     *session.Session
	Busy        bool
	Flash       string
	FlashErr    bool
	Features    features
	MaxSections int
	ArticleHTML template.HTML
	Headings    []render.Heading
}

// safeHTML marks renderer output as trusted. The renderer drops raw HTML
// from its input, so the markup is produced only by goldmark.
func safeHTML(s string) template.HTML {
	return template.HTML(s)
}
