// Package plaintext provides the fallback normaliser. It runs on every text
// and tidies whitespace left behind by OCR and the other normalisers.
package plaintext

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser collapses whitespace and drops control characters.
type Normaliser struct{}

// New creates a new plaintext normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns "plaintext".
func (n *Normaliser) Name() string {
	return "plaintext"
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Detects always reports true.
func (n *Normaliser) Detects(string) bool {
	return true
}

// Normalise normalises line endings, removes control characters and
// zero-width spaces, collapses runs of blanks within a line, trims every
// line and keeps at most one empty line between paragraphs.
func (n *Normaliser) Normalise(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = collapseLine(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func collapseLine(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	space := false
	for _, r := range line {
		switch {
		case r == '\u200b' || r == '\ufeff':
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
