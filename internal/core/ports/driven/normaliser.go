package driven

// Normaliser cleans markup out of extracted text before it is stored and
// indexed. Extraction pipelines hand over HTML fragments from rich-text
// editors and markdown from portfolio descriptions; normalisers reduce both
// to plain text.
type Normaliser interface {
	// Name identifies the normaliser in logs.
	Name() string

	// Priority orders normalisers; higher values run first.
	Priority() int

	// Detects reports whether the text carries this normaliser's markup.
	Detects(text string) bool

	// Normalise returns the cleaned text.
	Normalise(text string) string
}
