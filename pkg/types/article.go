// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// DefaultSections lists the section names a new article starts with.
var DefaultSections = []string{
	"introduction",
	"definition",
	"applications",
	"importance",
	"benefits",
	"faq",
}

// Outline is the two-level topic/subtopic skeleton for an article. The text
// is free-form: users may edit it and nothing downstream validates it.
type Outline struct {
	Keyword string `json:"keyword" yaml:"keyword"`
	Text    string `json:"text" yaml:"text"`
}

// IsEmpty reports whether the outline has no usable text.
func (o Outline) IsEmpty() bool {
	return strings.TrimSpace(o.Text) == ""
}

// Section is one named block of article content. Empty Content means the
// section has not been generated yet.
type Section struct {
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// ArticleState is an ordered mapping from section name to Markdown content.
// Names are unique (case-insensitive) and keep insertion order.
type ArticleState struct {
	Keyword  string    `json:"keyword" yaml:"keyword"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// NewArticleState returns a state for keyword with the given section names,
// or DefaultSections when none are given. Blank and duplicate names are
// dropped.
func NewArticleState(keyword string, names ...string) ArticleState {
	if len(names) == 0 {
		names = DefaultSections
	}
	st := ArticleState{Keyword: keyword}
	for _, n := range names {
		_ = st.Add(n)
	}
	return st
}

// NormalizeSectionName trims surrounding whitespace from a section name.
func NormalizeSectionName(name string) string {
	return strings.TrimSpace(name)
}

func (a *ArticleState) index(name string) int {
	name = NormalizeSectionName(name)
	for i, s := range a.Sections {
		if strings.EqualFold(s.Name, name) {
			return i
		}
	}
	return -1
}

// Has reports whether a section with this name exists.
func (a *ArticleState) Has(name string) bool {
	return a.index(name) >= 0
}

// Add appends an empty section. It fails on a blank or duplicate name.
func (a *ArticleState) Add(name string) error {
	name = NormalizeSectionName(name)
	if name == "" {
		return fmt.Errorf("section name is empty")
	}
	if a.Has(name) {
		return fmt.Errorf("section %q already exists", name)
	}
	a.Sections = append(a.Sections, Section{Name: name})
	return nil
}

// Set stores content for name, appending the section if it is new.
func (a *ArticleState) Set(name, content string) {
	if i := a.index(name); i >= 0 {
		a.Sections[i].Content = content
		return
	}
	a.Sections = append(a.Sections, Section{Name: NormalizeSectionName(name), Content: content})
}

// Get returns the content stored for name.
func (a *ArticleState) Get(name string) (string, bool) {
	i := a.index(name)
	if i < 0 {
		return "", false
	}
	return a.Sections[i].Content, true
}

// Names returns section names in insertion order.
func (a *ArticleState) Names() []string {
	names := make([]string, 0, len(a.Sections))
	for _, s := range a.Sections {
		names = append(names, s.Name)
	}
	return names
}

// Generated returns the sections that have content, in order.
func (a *ArticleState) Generated() []Section {
	var out []Section
	for _, s := range a.Sections {
		if strings.TrimSpace(s.Content) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy so callers can hand state to generators without
// sharing the backing slice.
func (a ArticleState) Clone() ArticleState {
	c := ArticleState{Keyword: a.Keyword}
	if a.Sections != nil {
		c.Sections = make([]Section, len(a.Sections))
		copy(c.Sections, a.Sections)
	}
	return c
}

// Markdown joins every generated section into the entire article.
func (a *ArticleState) Markdown() string {
	var parts []string
	for _, s := range a.Generated() {
		parts = append(parts, strings.TrimSpace(s.Content))
	}
	return strings.Join(parts, "\n\n")
}
