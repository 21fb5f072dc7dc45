// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/glossary-engine/internal/completion"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

func state(pairs ...string) types.ArticleState {
	a := types.ArticleState{Keyword: "roth ira"}
	for i := 0; i+1 < len(pairs); i += 2 {
		a.Set(pairs[i], pairs[i+1])
	}
	return a
}

func TestBuildContext(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		prior types.ArticleState
		want  string
	}{
		{
			name:  "labels generated sections and skips empty ones",
			key:   "faq",
			prior: state("introduction", "A", "benefits", ""),
			want:  "Introduction:\nA",
		},
		{
			name:  "excludes the section being generated even with content",
			key:   "faq",
			prior: state("introduction", "A", "benefits", "", "faq", "old answer"),
			want:  "Introduction:\nA",
		},
		{
			name:  "joins blocks with a blank line in order",
			key:   "faq",
			prior: state("introduction", "A", "definition", "B\n", "benefits", "C"),
			want:  "Introduction:\nA\n\nDefinition:\nB\n\nBenefits:\nC",
		},
		{
			name:  "key comparison ignores case and whitespace",
			key:   " Introduction ",
			prior: state("introduction", "A", "definition", "B"),
			want:  "Definition:\nB",
		},
		{
			name:  "no qualifying sections gives empty context",
			key:   "introduction",
			prior: types.NewArticleState("roth ira"),
			want:  "",
		},
		{
			name:  "whitespace-only content is treated as empty",
			key:   "faq",
			prior: state("introduction", "  \n "),
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildContext(tt.key, tt.prior))
		})
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Introduction", Label("introduction"))
	assert.Equal(t, "Faq", Label("faq"))
	assert.Equal(t, "Key Benefits", Label("key_benefits"))
	assert.Equal(t, "Tax Treatment", Label(" tax-treatment "))
}

func TestGenerateSectionPrompt(t *testing.T) {
	rec := &completion.Recorder{Replies: []string{"## Benefits\n\nTax-free growth."}}
	c := New(rec, types.GenerationConfig{Tone: "friendly and reassuring"}, nil)
	prior := state("introduction", "A Roth IRA is...", "benefits", "")

	out, err := c.GenerateSection(context.Background(), "benefits", "roth ira", "List three benefits.", prior)
	require.NoError(t, err)
	assert.Equal(t, "## Benefits\n\nTax-free growth.", out)

	p := rec.Last()
	assert.Contains(t, p.System, "factual and non-editorial")
	assert.Contains(t, p.System, "sentence case")
	assert.Contains(t, p.System, "Do not include a conclusion")
	assert.Contains(t, p.System, "friendly and reassuring")
	assert.Contains(t, p.User, "'roth ira'")
	assert.Contains(t, p.User, "List three benefits.")
	assert.Contains(t, p.User, "Introduction:\nA Roth IRA is...")
	assert.Contains(t, p.User, `"Benefits" section`)
}

func TestGenerateSectionDoesNotMutatePrior(t *testing.T) {
	rec := &completion.Recorder{Replies: []string{"new text"}}
	c := New(rec, types.GenerationConfig{}, nil)
	prior := state("introduction", "A", "benefits", "")
	before := prior.Clone()

	_, err := c.GenerateSection(context.Background(), "benefits", "roth ira", "write it", prior)
	require.NoError(t, err)
	assert.Equal(t, before, prior)
}

func TestGenerateSectionCalledWithArguments(t *testing.T) {
	rec := &completion.Recorder{Replies: []string{"first", "second"}}
	c := New(rec, types.GenerationConfig{}, nil)
	prior := state("introduction", "A")

	for _, instr := range []string{"Focus on taxes.", "Focus on withdrawals."} {
		_, err := c.GenerateSection(context.Background(), "benefits", "roth ira", instr, prior)
		require.NoError(t, err)
	}

	require.Equal(t, 2, rec.Calls())
	assert.Contains(t, rec.Prompts[0].User, "Focus on taxes.")
	assert.Contains(t, rec.Prompts[1].User, "Focus on withdrawals.")
	assert.Equal(t, rec.Prompts[0].System, rec.Prompts[1].System)
}

func TestGenerateSectionIntroductionWithEmptyState(t *testing.T) {
	rec := &completion.Recorder{Replies: []string{"intro"}}
	c := New(rec, types.GenerationConfig{}, nil)
	prior := types.NewArticleState("401(k) vesting")

	assert.Equal(t, "", BuildContext("introduction", prior))
	_, err := c.GenerateSection(context.Background(), "introduction", "401(k) vesting", "Write an overview.", prior)
	require.NoError(t, err)
	assert.Contains(t, rec.Last().User, "401(k) vesting")
	assert.NotContains(t, rec.Last().User, "Sections already written")
}

func TestGenerateSectionValidation(t *testing.T) {
	tests := []struct {
		name, key, keyword, instructions string
	}{
		{"empty keyword", "introduction", " ", "write"},
		{"empty section", "", "ira", "write"},
		{"empty instructions", "introduction", "ira", "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &completion.Recorder{}
			c := New(rec, types.GenerationConfig{}, nil)
			_, err := c.GenerateSection(context.Background(), tt.key, tt.keyword, tt.instructions, types.ArticleState{})
			assert.Equal(t, types.FailureValidation, types.KindOf(err))
			assert.Zero(t, rec.Calls())
		})
	}
}

func TestGenerateSectionCompletionError(t *testing.T) {
	rec := &completion.Recorder{Err: errors.New("timeout")}
	c := New(rec, types.GenerationConfig{}, nil)

	_, err := c.GenerateSection(context.Background(), "faq", "ira", "write", types.ArticleState{})
	assert.Equal(t, types.FailureCompletion, types.KindOf(err))
	assert.Equal(t, 1, rec.Calls())
}

func TestGenerateArticle(t *testing.T) {
	rec := &completion.Recorder{Replies: []string{"# Roth IRA\n\n..."}}
	c := New(rec, types.GenerationConfig{}, nil)

	out, err := c.GenerateArticle(context.Background(), "roth ira", types.Outline{Text: "I. Definition\nII. Benefits"})
	require.NoError(t, err)
	assert.Equal(t, "# Roth IRA\n\n...", out)
	assert.Contains(t, rec.Last().User, "I. Definition\nII. Benefits")
	assert.Contains(t, rec.Last().User, "'roth ira'")
	assert.Contains(t, rec.Last().System, "Do not include a conclusion paragraph or an FAQ section")

	_, err = c.GenerateArticle(context.Background(), "roth ira", types.Outline{Text: "   "})
	assert.Equal(t, types.FailureValidation, types.KindOf(err))
	assert.Equal(t, 1, rec.Calls())
}

func TestRelatedKeywords(t *testing.T) {
	rec := &completion.Recorder{Replies: []string{"1. \"Traditional IRA\"\n2. \"Backdoor Roth\"\n\n3. Roth conversion\n"}}
	c := New(rec, types.GenerationConfig{}, nil)

	kws, err := c.RelatedKeywords(context.Background(), "roth ira")
	require.NoError(t, err)
	assert.Equal(t, []string{"Traditional IRA", "Backdoor Roth", "Roth conversion"}, kws)
	assert.Contains(t, rec.Last().User, "'roth ira'")

	_, err = c.RelatedKeywords(context.Background(), "")
	assert.Equal(t, types.FailureValidation, types.KindOf(err))
}
