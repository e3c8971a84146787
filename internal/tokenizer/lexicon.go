package tokenizer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Compound is an adjacent token pair that is merged into one term.
type Compound struct {
	Parts  [2]string `yaml:"parts"`
	Merged string    `yaml:"merged"`
}

// Lexicon holds the stopword set and compound dictionary.
type Lexicon struct {
	stopwords map[string]struct{}
	compounds map[[2]string]string
}

// lexiconFile is the on-disk YAML shape.
type lexiconFile struct {
	Stopwords []string `yaml:"stopwords"`
	Compounds []struct {
		Parts  []string `yaml:"parts"`
		Merged string   `yaml:"merged"`
	} `yaml:"compounds"`
}

// NewLexicon builds a lexicon from explicit lists.
func NewLexicon(stopwords []string, compounds []Compound) *Lexicon {
	l := &Lexicon{
		stopwords: make(map[string]struct{}, len(stopwords)),
		compounds: make(map[[2]string]string, len(compounds)),
	}
	l.add(stopwords, compounds)
	return l
}

// DefaultLexicon returns the built-in Korean and English lexicon.
func DefaultLexicon() *Lexicon {
	return NewLexicon(defaultStopwords, defaultCompounds)
}

// LoadLexicon reads a YAML lexicon and merges it over the built-in one.
//
//	stopwords: [지원, 회사]
//	compounds:
//	  - parts: [spring, boot]
//	    merged: springboot
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}

	compounds := make([]Compound, 0, len(file.Compounds))
	for i, c := range file.Compounds {
		if len(c.Parts) != 2 || c.Merged == "" {
			return nil, fmt.Errorf("parse lexicon %s: compound %d needs two parts and a merged term", path, i)
		}
		compounds = append(compounds, Compound{Parts: [2]string{c.Parts[0], c.Parts[1]}, Merged: c.Merged})
	}

	l := DefaultLexicon()
	l.add(file.Stopwords, compounds)
	return l, nil
}

func (l *Lexicon) add(stopwords []string, compounds []Compound) {
	for _, w := range stopwords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			l.stopwords[w] = struct{}{}
		}
	}
	for _, c := range compounds {
		key := [2]string{strings.ToLower(c.Parts[0]), strings.ToLower(c.Parts[1])}
		l.compounds[key] = strings.ToLower(c.Merged)
	}
}

// IsStopword reports whether token is in the stopword set.
func (l *Lexicon) IsStopword(token string) bool {
	_, ok := l.stopwords[token]
	return ok
}

// Compound returns the merged term for an adjacent pair.
func (l *Lexicon) Compound(first, second string) (string, bool) {
	merged, ok := l.compounds[[2]string{first, second}]
	return merged, ok
}

var defaultStopwords = []string{
	// particles and endings
	"은", "는", "이", "가", "을", "를", "에", "에서", "에게", "의", "와", "과", "도", "로", "으로",
	"부터", "까지", "만", "보다", "처럼", "하고", "이나", "나", "께서",
	// copulas and light verbs
	"이다", "입니다", "있다", "있습니다", "없다", "하다", "합니다", "했습니다", "되다", "됩니다", "였습니다",
	// generic nouns and connectives
	"것", "수", "등", "및", "그", "저", "이것", "그것", "때", "점", "통해", "위해", "대한", "관련",
	"또한", "그리고", "하지만", "그러나", "저는", "제가", "우리", "경우", "정도", "부분",
	// English
	"the", "and", "for", "with", "that", "this", "from", "are", "was", "were", "have", "has",
	"been", "will", "would", "into", "about", "also", "our", "your", "their", "its", "an", "as",
	"at", "by", "in", "is", "it", "of", "on", "or", "to", "be", "we", "my", "me",
}

var defaultCompounds = []Compound{
	{Parts: [2]string{"front", "end"}, Merged: "frontend"},
	{Parts: [2]string{"back", "end"}, Merged: "backend"},
	{Parts: [2]string{"full", "stack"}, Merged: "fullstack"},
	{Parts: [2]string{"dev", "ops"}, Merged: "devops"},
	{Parts: [2]string{"java", "script"}, Merged: "javascript"},
	{Parts: [2]string{"type", "script"}, Merged: "typescript"},
	{Parts: [2]string{"spring", "boot"}, Merged: "springboot"},
	{Parts: [2]string{"machine", "learning"}, Merged: "machinelearning"},
	{Parts: [2]string{"deep", "learning"}, Merged: "deeplearning"},
	{Parts: [2]string{"프론트", "엔드"}, Merged: "프론트엔드"},
	{Parts: [2]string{"머신", "러닝"}, Merged: "머신러닝"},
	{Parts: [2]string{"마이크로", "서비스"}, Merged: "마이크로서비스"},
	{Parts: [2]string{"클라우드", "네이티브"}, Merged: "클라우드네이티브"},
	{Parts: [2]string{"데이터", "베이스"}, Merged: "데이터베이스"},
	{Parts: [2]string{"인공", "지능"}, Merged: "인공지능"},
}
