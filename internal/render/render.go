// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render converts generated Markdown into HTML and extracts its
// heading structure.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// md is safe for concurrent use. Raw HTML in model output is not rendered.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML renders Markdown to an HTML fragment.
func HTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// Heading is one Markdown heading.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Headings returns the top-level headings of src in document order.
func Headings(src string) []Heading {
	b := []byte(src)
	doc := md.Parser().Parse(text.NewReader(b))

	var out []Heading
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		out = append(out, Heading{Level: h.Level, Text: headingText(h, b)})
	}
	return out
}

func headingText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			continue
		}
		buf.WriteString(headingText(c, src))
	}
	return buf.String()
}
