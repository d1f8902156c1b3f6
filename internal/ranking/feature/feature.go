// Package feature provides the individually scored relevance signals combined
// by the baseline ranker. Generators are registered once at startup in an
// explicit registry; ordering is expressed through a priority field.
package feature

import (
	"sort"
	"strings"

	"github.com/inception-project/concept-linker-go/internal/apptype"
)

// Input carries everything a generator may score a candidate on.
type Input struct {
	// Query is the sanitized free-text query.
	Query string
	// Mention is the span of source text the user selected, if any.
	Mention string
	// MentionContext holds stopword-filtered tokens around the mention,
	// empty when no document context is available.
	MentionContext []string
	// Candidate is the handle being scored.
	Candidate apptype.Handle
	// Stopwords is the caller-supplied stopword set.
	Stopwords map[string]struct{}
}

// Generator produces one scalar relevance signal for a candidate.
type Generator interface {
	// Name identifies the generator in logs.
	Name() string
	// Priority orders generators in the registry; lower runs first.
	Priority() int
	// Weight is the generator's contribution to the weighted sum.
	Weight() float64
	// Score returns the signal in [0, 1].
	Score(in Input) float64
}

// Registry holds the resolved generator set. It is built once and treated as
// read-only configuration afterwards.
type Registry struct {
	generators []Generator
}

// NewRegistry creates a registry with the given generators sorted by
// priority.
func NewRegistry(generators ...Generator) *Registry {
	sorted := append([]Generator(nil), generators...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Registry{generators: sorted}
}

// Generators returns the generators in priority order.
func (r *Registry) Generators() []Generator {
	return r.generators
}

// Score combines all generator signals into a single ranking key via
// weighted sum.
func (r *Registry) Score(in Input) float64 {
	var total float64
	for _, g := range r.generators {
		total += g.Weight() * g.Score(in)
	}
	return total
}

// Tokenize lowercases the text, splits it on non-letter/digit runs and drops
// stopwords. A nil stopword set keeps every token.
func Tokenize(text string, stopwords map[string]struct{}) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
	var tokens []string
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '\'' ||
		('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9') || r > 127
}
