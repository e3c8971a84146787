package postprocessors

import (
	"context"
	"reflect"
	"testing"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
	"github.com/custodia-labs/resumatch/internal/tokenizer"
)

func mockBuilder(name string) BuilderFunc {
	return func(_ map[string]any) (driven.PostProcessor, error) {
		return &mockProcessor{name: name}, nil
	}
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	if r.Has("test") {
		t.Fatal("expected empty registry")
	}

	r.Register("test", mockBuilder("test"))

	proc, err := r.Build("test", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if proc.Name() != "test" {
		t.Errorf("expected name 'test', got %q", proc.Name())
	}
	if _, err := r.Build("unknown", nil); err == nil {
		t.Error("expected error for unknown processor")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register("beta", mockBuilder("beta"))
	r.Register("alpha", mockBuilder("alpha"))

	if got := r.Names(); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Errorf("expected sorted names, got %v", got)
	}
}

func TestRegistry_BuildPipeline(t *testing.T) {
	r := NewRegistry()
	r.Register("a", mockBuilder("a"))
	r.Register("b", mockBuilder("b"))

	p, err := r.BuildPipeline([]string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("BuildPipeline failed: %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("expected 2 processors, got %d", p.Len())
	}

	if _, err := r.BuildPipeline([]string{"a", "missing"}, nil); err == nil {
		t.Error("expected error for unknown processor in pipeline")
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, tokenizer.New())

	for _, name := range DefaultProcessors {
		if !r.Has(name) {
			t.Errorf("expected %q to be registered", name)
		}
	}
}

func TestNewDefaultPipeline(t *testing.T) {
	p, err := NewDefaultPipeline(domain.DefaultEngineSettings().Chunking, tokenizer.New())
	if err != nil {
		t.Fatalf("NewDefaultPipeline failed: %v", err)
	}

	chunks, err := p.Process(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Type != domain.FieldMotivation {
		t.Errorf("expected motivation chunk, got %s", chunks[0].Type)
	}
	if !reflect.DeepEqual(chunks[0].Tokens, []string{"want", "build", "search", "systems", "go"}) {
		t.Errorf("unexpected tokens %v", chunks[0].Tokens)
	}
}

func TestGetIntFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]any
		expected int
	}{
		{"int value", map[string]any{"size": 100}, 100},
		{"int64 value", map[string]any{"size": int64(200)}, 200},
		{"float64 value", map[string]any{"size": float64(300)}, 300},
		{"string value", map[string]any{"size": "400"}, 0},
		{"missing key", map[string]any{"other": 100}, 0},
		{"nil config", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getIntFromConfig(tt.cfg, "size"); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}
