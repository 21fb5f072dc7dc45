// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Recorder is a Client that records every prompt and replies from a script.
// Replies are consumed in order; once exhausted the last reply repeats.
type Recorder struct {
	mu      sync.Mutex
	Replies []string
	Err     error
	Prompts []Prompt
}

// Complete records prompt and returns the next scripted reply or Err.
func (r *Recorder) Complete(_ context.Context, prompt Prompt) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Prompts = append(r.Prompts, prompt)
	if r.Err != nil {
		return "", r.Err
	}
	if len(r.Replies) == 0 {
		return "", nil
	}
	i := min(len(r.Prompts)-1, len(r.Replies)-1)
	return r.Replies[i], nil
}

// Calls returns the number of Complete calls so far.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Prompts)
}

// Last returns the most recent prompt, or the zero Prompt.
func (r *Recorder) Last() Prompt {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Prompts) == 0 {
		return Prompt{}
	}
	return r.Prompts[len(r.Prompts)-1]
}

// Echo is an offline Client for --dry-run: it returns the prompt it was
// given as a Markdown document instead of calling a model.
type Echo struct{}

func (Echo) Complete(_ context.Context, prompt Prompt) (string, error) {
	var sb strings.Builder
	sb.WriteString("# Dry run\n\n")
	if prompt.System != "" {
		fmt.Fprintf(&sb, "## System\n\n%s\n\n", strings.TrimSpace(prompt.System))
	}
	fmt.Fprintf(&sb, "## Prompt\n\n%s\n", strings.TrimSpace(prompt.User))
	return sb.String(), nil
}
