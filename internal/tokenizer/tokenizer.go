// Package tokenizer converts free text into a normalised keyword set.
//
// Tokens come from a morphological analyzer when one is configured, keeping
// only content parts of speech. Without an analyzer, or when it fails, a
// rule-based fallback lowercases the text and splits on anything that is
// not a letter or digit. Both paths then drop short tokens, stopwords and
// short numerics, and merge adjacent pairs found in the compound dictionary.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/logger"
)

const (
	// minTokenRunes is the shortest token kept.
	minTokenRunes = 2

	// minNumericRunes is the shortest all-digit token kept (years survive).
	minNumericRunes = 4
)

// allowedTags are the part-of-speech tags kept from analyzer output:
// nouns, verbs, adjectives, foreign-script words and numerals.
var allowedTags = map[string]bool{
	"NNG": true,
	"NNP": true,
	"VV":  true,
	"VA":  true,
	"SL":  true,
	"SN":  true,
}

// Tokenizer is deterministic and safe for concurrent use.
type Tokenizer struct {
	analyzer driven.MorphAnalyzer
	lexicon  *Lexicon
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithAnalyzer sets the morphological analyzer.
func WithAnalyzer(a driven.MorphAnalyzer) Option {
	return func(t *Tokenizer) {
		t.analyzer = a
	}
}

// WithLexicon replaces the built-in lexicon.
func WithLexicon(l *Lexicon) Option {
	return func(t *Tokenizer) {
		if l != nil {
			t.lexicon = l
		}
	}
}

// New creates a Tokenizer.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{lexicon: DefaultLexicon()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize returns the ordered, de-duplicated keyword set of text.
func (t *Tokenizer) Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	raw, ok := t.analyze(text)
	if !ok {
		raw = fallbackSplit(text)
	}

	filtered := raw[:0]
	for _, tok := range raw {
		if t.keep(tok) {
			filtered = append(filtered, tok)
		}
	}

	return dedupe(t.restoreCompounds(filtered))
}

// analyze runs the analyzer and keeps allowed parts of speech.
// It reports false when no analyzer is set or the analyzer failed.
func (t *Tokenizer) analyze(text string) (tokens []string, ok bool) {
	if t.analyzer == nil {
		return nil, false
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Debug("tokenizer: analyzer panicked, using fallback: %v", r)
			tokens, ok = nil, false
		}
	}()

	morphemes, err := t.analyzer.Analyze(text)
	if err != nil {
		logger.Debug("tokenizer: analyzer failed, using fallback: %v", err)
		return nil, false
	}

	for _, m := range morphemes {
		if !allowedTags[m.Tag] {
			continue
		}
		surface := strings.ToLower(strings.TrimSpace(m.Surface))
		if surface == "" {
			continue
		}
		if m.Tag == "SN" && utf8.RuneCountInString(surface) < minNumericRunes {
			continue
		}
		tokens = append(tokens, surface)
	}
	return tokens, true
}

// fallbackSplit lowercases text, replaces every rune that is not a letter,
// digit or underscore with a space and splits on whitespace.
func fallbackSplit(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Fields(cleaned)
}

func (t *Tokenizer) keep(tok string) bool {
	n := utf8.RuneCountInString(tok)
	if n < minTokenRunes {
		return false
	}
	if t.lexicon.IsStopword(tok) {
		return false
	}
	if isNumeric(tok) && n < minNumericRunes {
		return false
	}
	return true
}

// restoreCompounds merges adjacent dictionary pairs, consuming both inputs.
func (t *Tokenizer) restoreCompounds(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			if merged, ok := t.lexicon.Compound(tokens[i], tokens[i+1]); ok {
				out = append(out, merged)
				i++
				continue
			}
		}
		out = append(out, tokens[i])
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func dedupe(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// String describes the tokenizer configuration for logging.
func (t *Tokenizer) String() string {
	return fmt.Sprintf("tokenizer(analyzer=%t, stopwords=%d, compounds=%d)",
		t.analyzer != nil, len(t.lexicon.stopwords), len(t.lexicon.compounds))
}
