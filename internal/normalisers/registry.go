package normalisers

import (
	"sort"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/normalisers/html"
	"github.com/custodia-labs/resumatch/internal/normalisers/markdown"
	"github.com/custodia-labs/resumatch/internal/normalisers/plaintext"
)

// Registry holds normalisers sorted by descending priority.
type Registry struct {
	normalisers []driven.Normaliser
}

// NewRegistry creates a registry from the given normalisers.
func NewRegistry(ns ...driven.Normaliser) *Registry {
	sorted := make([]driven.Normaliser, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			sorted = append(sorted, n)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})
	return &Registry{normalisers: sorted}
}

// Default returns the registry used at ingestion: HTML, then markdown,
// then whitespace cleanup.
func Default() *Registry {
	return NewRegistry(html.New(), markdown.New(), plaintext.New())
}

// Names returns the normaliser names in the order they run.
func (r *Registry) Names() []string {
	names := make([]string, len(r.normalisers))
	for i, n := range r.normalisers {
		names[i] = n.Name()
	}
	return names
}

// Normalise runs every detecting normaliser over text.
func (r *Registry) Normalise(text string) string {
	if text == "" {
		return text
	}
	for _, n := range r.normalisers {
		if n.Detects(text) {
			text = n.Normalise(text)
		}
	}
	return text
}

// NormaliseDocument cleans the document's text in place: every field, the
// portfolio items and the extracted text. Identity and metadata are untouched.
// Fields that normalise to nothing are removed.
func (r *Registry) NormaliseDocument(doc *domain.Document) {
	if doc == nil {
		return
	}
	for name, value := range doc.Fields {
		cleaned := r.Normalise(value)
		if cleaned == "" {
			delete(doc.Fields, name)
			continue
		}
		doc.Fields[name] = cleaned
	}
	for i := range doc.Items {
		doc.Items[i].Title = r.Normalise(doc.Items[i].Title)
		doc.Items[i].Description = r.Normalise(doc.Items[i].Description)
	}
	doc.ExtractedText = r.Normalise(doc.ExtractedText)
}
