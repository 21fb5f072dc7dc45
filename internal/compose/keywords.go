// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"regexp"
	"strings"
)

// enumPrefix matches a leading list marker: "1. ", "2) ", "- ", "* ".
var enumPrefix = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s+`)

const quoteChars = "\"'“”‘’"

// ExtractKeywords splits a model reply into one keyword per non-blank line,
// stripping list markers and surrounding quotes. Empty input yields an empty
// slice.
func ExtractKeywords(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = enumPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(strings.Trim(line, quoteChars))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
