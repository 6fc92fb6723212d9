package reactor

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFallback is spoken for labels without a phrase.
const DefaultFallback = "Hello there!"

//go:embed phrases.yaml
var defaultPhrasesYAML []byte

// ErrEmptyPhrase is returned when a phrase file maps a label to blank text.
var ErrEmptyPhrase = errors.New("reactor: empty phrase")

// PhraseTable maps lowercase emotion labels to utterances. It is immutable
// once built.
type PhraseTable struct {
	phrases  map[string]string
	fallback string
}

type phraseFile struct {
	Fallback string            `yaml:"fallback"`
	Phrases  map[string]string `yaml:"phrases"`
}

// DefaultPhrases returns the built-in table.
func DefaultPhrases() *PhraseTable {
	t, err := ParsePhrases(defaultPhrasesYAML)
	if err != nil {
		panic(fmt.Sprintf("reactor: built-in phrases: %v", err))
	}
	return t
}

// NewPhraseTable builds a table from phrases. Keys are lowercased. An empty
// fallback uses DefaultFallback.
func NewPhraseTable(phrases map[string]string, fallback string) *PhraseTable {
	t := &PhraseTable{
		phrases:  make(map[string]string, len(phrases)),
		fallback: fallback,
	}
	for label, text := range phrases {
		t.phrases[normalize(label)] = text
	}
	if strings.TrimSpace(t.fallback) == "" {
		t.fallback = DefaultFallback
	}
	return t
}

// ParsePhrases decodes a YAML phrase document.
func ParsePhrases(data []byte) (*PhraseTable, error) {
	var f phraseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse phrases: %w", err)
	}
	for label, text := range f.Phrases {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w for %q", ErrEmptyPhrase, label)
		}
	}
	return NewPhraseTable(f.Phrases, f.Fallback), nil
}

// LoadPhrases reads a YAML phrase file. Labels missing from the file keep
// their built-in phrase.
func LoadPhrases(path string) (*PhraseTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phrases: %w", err)
	}
	custom, err := ParsePhrases(data)
	if err != nil {
		return nil, err
	}

	merged := DefaultPhrases()
	for label, text := range custom.phrases {
		merged.phrases[label] = text
	}
	if f := custom.fallback; f != "" {
		merged.fallback = f
	}
	return merged, nil
}

// Lookup returns the phrase for label, or the fallback.
func (t *PhraseTable) Lookup(label string) string {
	if text, ok := t.phrases[normalize(label)]; ok {
		return text
	}
	return t.fallback
}

// Has reports whether label has its own phrase.
func (t *PhraseTable) Has(label string) bool {
	_, ok := t.phrases[normalize(label)]
	return ok
}

// Fallback returns the phrase used for unmapped labels.
func (t *PhraseTable) Fallback() string {
	return t.fallback
}

// Labels returns the mapped labels, sorted.
func (t *PhraseTable) Labels() []string {
	out := make([]string, 0, len(t.phrases))
	for label := range t.phrases {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
