package plaintext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	n := New()
	assert.Equal(t, "plaintext", n.Name())
	assert.Equal(t, 5, n.Priority())
	assert.True(t, n.Detects(""))
	assert.True(t, n.Detects("anything"))
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"already clean", "Go developer", "Go developer"},
		{"collapses blanks", "Go \t  developer", "Go developer"},
		{"trims lines", "  first  \n  second  ", "first\nsecond"},
		{"crlf", "first\r\nsecond\rthird", "first\nsecond\nthird"},
		{"paragraph gaps", "one\n\n\n\ntwo", "one\n\ntwo"},
		{"leading blank lines", "\n\n\nbody", "body"},
		{"control characters", "bad\x00 byte\x07s", "bad bytes"},
		{"zero width", "Kuber\u200bnetes\ufeff", "Kubernetes"},
		{"non breaking space", "10\u00a0years", "10 years"},
		{"hangul kept", "  백엔드   개발자 ", "백엔드 개발자"},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalise(tt.in))
		})
	}
}
