package driven

// MorphAnalyzer splits text into part-of-speech tagged morphemes.
// Implementations may fail or panic on unusual input; callers must
// fall back to rule-based tokenization.
type MorphAnalyzer interface {
	Analyze(text string) ([]Morpheme, error)
}

// Morpheme is one analysed token.
type Morpheme struct {
	// Surface is the token text.
	Surface string

	// Tag is the part-of-speech tag (Sejong tag set, e.g. NNG, VV, SL, SN).
	Tag string
}
