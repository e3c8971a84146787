package normalisers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/resumatch/internal/core/domain"
)

type upperNormaliser struct {
	priority int
	calls    int
}

func (u *upperNormaliser) Name() string          { return "upper" }
func (u *upperNormaliser) Priority() int         { return u.priority }
func (u *upperNormaliser) Detects(t string) bool { return strings.Contains(t, "!") }
func (u *upperNormaliser) Normalise(t string) string {
	u.calls++
	return strings.ToUpper(t)
}

func TestDefault_Order(t *testing.T) {
	assert.Equal(t, []string{"html", "markdown", "plaintext"}, Default().Names())
}

func TestNewRegistry_SortsByPriorityAndSkipsNil(t *testing.T) {
	low := &upperNormaliser{priority: 1}
	r := NewRegistry(low, nil, Default().normalisers[0])

	assert.Equal(t, []string{"html", "upper"}, r.Names())
}

func TestNormalise_OnlyDetectingNormalisersRun(t *testing.T) {
	u := &upperNormaliser{priority: 10}
	r := NewRegistry(u)

	assert.Equal(t, "calm", r.Normalise("calm"))
	assert.Equal(t, 0, u.calls)
	assert.Equal(t, "LOUD!", r.Normalise("loud!"))
	assert.Equal(t, 1, u.calls)
}

func TestNormalise_Empty(t *testing.T) {
	u := &upperNormaliser{priority: 10}

	assert.Empty(t, NewRegistry(u).Normalise(""))
	assert.Equal(t, 0, u.calls)
}

func TestDefault_MixedMarkup(t *testing.T) {
	got := Default().Normalise("<p>Built the **payment** gateway</p>\n\n\n<p>  in  Go  </p>")

	assert.Equal(t, "Built the payment gateway\nin Go", got)
}

func TestNormaliseDocument(t *testing.T) {
	doc := &domain.Document{
		ID:   "p-1",
		Type: domain.DocumentTypePortfolio,
		Fields: map[string]string{
			domain.FieldSummary: "## About\nPlatform **engineer**",
			"empty":             "<p> </p>",
		},
		Items: []domain.PortfolioItem{
			{Title: "<b>Gateway</b>", Description: "Routes  [payments](https://x.io)"},
		},
		ExtractedText: "scanned\r\n\r\n\r\ntext",
	}

	Default().NormaliseDocument(doc)

	require.Len(t, doc.Fields, 1)
	assert.Equal(t, "About\nPlatform engineer", doc.Fields[domain.FieldSummary])
	assert.Equal(t, "Gateway", doc.Items[0].Title)
	assert.Equal(t, "Routes payments", doc.Items[0].Description)
	assert.Equal(t, "scanned\n\ntext", doc.ExtractedText)
	assert.Equal(t, "p-1", doc.ID)
}

func TestNormaliseDocument_Nil(t *testing.T) {
	assert.NotPanics(t, func() { Default().NormaliseDocument(nil) })
}
