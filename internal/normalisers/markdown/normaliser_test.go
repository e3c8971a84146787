package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	n := New()
	assert.Equal(t, "markdown", n.Name())
	assert.Equal(t, 40, n.Priority())
}

func TestDetects(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"heading", "# Projects\nPayment gateway", true},
		{"link", "see [repo](https://example.com)", true},
		{"bold", "**Lead** engineer", true},
		{"inline code", "wrote `kubectl` plugins", true},
		{"fence", "```go\nfmt.Println()\n```", true},
		{"plain bullets", "- Go\n- Kafka", false},
		{"plain text", "Five years of backend work.", false},
		{"hashtag", "#golang meetup organiser", false},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Detects(tt.text))
		})
	}
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "## Summary\nBackend engineer", "Summary\nBackend engineer"},
		{"link keeps text", "Built [the gateway](https://x.io/gw) alone", "Built the gateway alone"},
		{"image keeps alt", "![architecture diagram](d.png)", "architecture diagram"},
		{"strong", "**Go** and __Rust__", "Go and Rust"},
		{"emphasis", "a *very* large cluster", "a very large cluster"},
		{"inline code keeps content", "wrote `kubectl` plugins", "wrote kubectl plugins"},
		{"fence keeps body", "```go\nfmt.Println()\n```", "fmt.Println()"},
		{"lists", "- Go\n* Kafka\n1. Kubernetes", "Go\nKafka\nKubernetes"},
		{"blockquote", "> shipped on time", "shipped on time"},
		{"rule", "above\n---\nbelow", "above\n\nbelow"},
		{"identifiers survive", "tuned max_connections", "tuned max_connections"},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalise(tt.in))
		})
	}
}
