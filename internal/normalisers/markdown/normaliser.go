// Package markdown reduces markdown formatting in portfolio descriptions
// and self-introductions to plain text.
package markdown

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles markdown text.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns "markdown".
func (n *Normaliser) Name() string {
	return "markdown"
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 40
}

// Detects reports whether text uses headings, links, emphasis or code.
// Plain "- " bullets alone do not count; they read fine as text.
func (n *Normaliser) Detects(text string) bool {
	for _, re := range markers {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Normalise strips markdown formatting, keeping the text it decorates.
func (n *Normaliser) Normalise(text string) string {
	return stripMarkdown(text)
}

var (
	codeFence    = regexp.MustCompile("(?m)^\\s*```[^\\n]*$")
	inlineCode   = regexp.MustCompile("`([^`\\n]+)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	strong       = regexp.MustCompile(`\*\*([^*\n]+)\*\*|__([^_\n]+)__`)
	emphasis     = regexp.MustCompile(`\*([^*\n]+)\*`)
	blockquote   = regexp.MustCompile(`(?m)^\s*>\s?`)
	hr           = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	listMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	blankLines   = regexp.MustCompile(`\n{3,}`)

	markers = []*regexp.Regexp{codeFence, inlineCode, links, headings, strong}
)

// stripMarkdown removes common markdown formatting for plain text content.
// Code stays: a skill written as `Go` is still a skill.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = strong.ReplaceAllString(content, "$1$2")
	content = emphasis.ReplaceAllString(content, "$1")
	content = blockquote.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = blankLines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
