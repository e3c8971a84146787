package tokenizer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/resumatch/internal/core/ports/driven"
)

type mockAnalyzer struct {
	morphemes []driven.Morpheme
	err       error
	panicWith any
	calls     int
}

func (m *mockAnalyzer) Analyze(_ string) ([]driven.Morpheme, error) {
	m.calls++
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return m.morphemes, m.err
}

func TestTokenize_Fallback(t *testing.T) {
	tok := New()

	got := tok.Tokenize("I want to grow as a Backend engineer using Go, Go and distributed-systems!")

	assert.Equal(t, []string{"want", "grow", "backend", "engineer", "using", "go", "distributed", "systems"}, got)
}

func TestTokenize_EmptyInput(t *testing.T) {
	tok := New()

	assert.Nil(t, tok.Tokenize(""))
	assert.Nil(t, tok.Tokenize("   \n\t"))
	assert.Empty(t, tok.Tokenize("a ! ? 1"))
}

func TestTokenize_NumericFilter(t *testing.T) {
	tok := New()

	got := tok.Tokenize("joined in 2019 for 12 months, team of 300")

	assert.Contains(t, got, "2019")
	assert.NotContains(t, got, "12")
	assert.NotContains(t, got, "300")
}

func TestTokenize_CompoundRestoration(t *testing.T) {
	tok := New()

	got := tok.Tokenize("Front-end and back end work with Java Script")

	assert.Equal(t, []string{"frontend", "backend", "work", "javascript"}, got)
}

func TestTokenize_CompoundConsumesBothTokens(t *testing.T) {
	tok := New()

	got := tok.Tokenize("front end end")

	assert.Equal(t, []string{"frontend", "end"}, got)
}

func TestTokenize_KoreanFallback(t *testing.T) {
	tok := New()

	got := tok.Tokenize("프론트 엔드 개발자로서 성장하고 싶습니다. 그리고 데이터 베이스")

	assert.Equal(t, []string{"프론트엔드", "개발자로서", "성장하고", "싶습니다", "데이터베이스"}, got)
}

func TestTokenize_Analyzer(t *testing.T) {
	analyzer := &mockAnalyzer{morphemes: []driven.Morpheme{
		{Surface: "저", Tag: "NP"},
		{Surface: "는", Tag: "JX"},
		{Surface: "2019", Tag: "SN"},
		{Surface: "12", Tag: "SN"},
		{Surface: "년", Tag: "NNB"},
		{Surface: "Kubernetes", Tag: "SL"},
		{Surface: "운영", Tag: "NNG"},
		{Surface: "하", Tag: "XSV"},
		{Surface: "경험", Tag: "NNG"},
		{Surface: "있", Tag: "VA"},
		{Surface: "운영", Tag: "NNG"},
	}}
	tok := New(WithAnalyzer(analyzer))

	got := tok.Tokenize("저는 2019년 12월부터 Kubernetes 운영 경험이 있습니다")

	assert.Equal(t, []string{"2019", "kubernetes", "운영", "경험"}, got)
	assert.Equal(t, 1, analyzer.calls)
}

func TestTokenize_AnalyzerErrorFallsBack(t *testing.T) {
	analyzer := &mockAnalyzer{err: errors.New("dictionary missing")}
	tok := New(WithAnalyzer(analyzer))

	got := tok.Tokenize("golang engineer")

	assert.Equal(t, []string{"golang", "engineer"}, got)
}

func TestTokenize_AnalyzerPanicFallsBack(t *testing.T) {
	analyzer := &mockAnalyzer{panicWith: "index out of range"}
	tok := New(WithAnalyzer(analyzer))

	assert.NotPanics(t, func() {
		got := tok.Tokenize("golang engineer")
		assert.Equal(t, []string{"golang", "engineer"}, got)
	})
}

func TestTokenize_Deterministic(t *testing.T) {
	tok := New()
	text := "Distributed systems, Go, Kafka, Kafka, PostgreSQL and front end"

	first := tok.Tokenize(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, tok.Tokenize(text))
	}
}

func TestLoadLexicon(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	content := `stopwords: [Engineer, 지원]
compounds:
  - parts: [spring, cloud]
    merged: springcloud
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	lex, err := LoadLexicon(path)
	require.NoError(t, err)

	tok := New(WithLexicon(lex))
	got := tok.Tokenize("Spring Cloud engineer 지원 front end")

	assert.Equal(t, []string{"springcloud", "frontend"}, got)
}

func TestLoadLexicon_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadLexicon(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("compounds:\n  - parts: [one]\n    merged: x\n"), 0o600))
	_, err = LoadLexicon(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("stopwords: [unclosed"), 0o600))
	_, err = LoadLexicon(invalid)
	assert.Error(t, err)
}
