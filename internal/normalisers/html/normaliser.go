package html

import (
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML fragments.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns "html".
func (n *Normaliser) Name() string {
	return "html"
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // before markdown, which would mangle tag attributes
}

// Detects reports whether text contains a recognised HTML tag or a named entity.
func (n *Normaliser) Detects(text string) bool {
	return knownTag.MatchString(text) || namedEntity.MatchString(text)
}

// Normalise strips tags and returns readable text.
func (n *Normaliser) Normalise(text string) string {
	return stripHTML(text)
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	knownTag = regexp.MustCompile(
		`(?i)</?(p|div|span|br|hr|h[1-6]|ul|ol|li|b|i|u|em|strong|a|table|tr|td|th|blockquote|pre|code|section|article|html|body|head|script|style)\b[^>]*>`)
	namedEntity       = regexp.MustCompile(`&(amp|lt|gt|quot|nbsp|apos|#\d+|#x[0-9a-fA-F]+);`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

// stripHTML removes HTML tags and extracts readable text content.
func stripHTML(content string) string {
	// Non-content elements go entirely.
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	content = openBlockElements.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n")

	// Inline tags join their neighbours without a gap: <b>Go</b>lang -> Golang.
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}
