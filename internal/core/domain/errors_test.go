package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrEmptyQuery", ErrEmptyQuery},
		{"ErrNothingToIndex", ErrNothingToIndex},
		{"ErrNoBackends", ErrNoBackends},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrKeywordIndexUnavailable", ErrKeywordIndexUnavailable},
		{"ErrVectorIndexUnavailable", ErrVectorIndexUnavailable},
		{"ErrDegenerateVector", ErrDegenerateVector},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading doc-1: %w", ErrNotFound)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrInvalidInput))
	assert.Equal(t, "loading doc-1: not found", wrapped.Error())
}
