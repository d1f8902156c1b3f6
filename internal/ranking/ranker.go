// Package ranking orders candidate sets by relevance. The ranking strategy is
// pluggable; the baseline strategy combines weighted feature-generator
// signals, and a remote strategy delegates to an external ranking service.
package ranking

import (
	"context"
	"sort"

	"github.com/inception-project/concept-linker-go/internal/apptype"
)

// DocumentAccessor yields surrounding text for feature scoring. It may be
// absent when no in-document mention exists.
type DocumentAccessor interface {
	// WindowAround returns up to size characters of text on each side of
	// the given character offset.
	WindowAround(offset, size int) (string, error)
}

// StringDocument adapts a plain string to DocumentAccessor.
type StringDocument string

// WindowAround implements DocumentAccessor.
func (d StringDocument) WindowAround(offset, size int) (string, error) {
	runes := []rune(string(d))
	if offset < 0 {
		offset = 0
	}
	if offset > len(runes) {
		offset = len(runes)
	}
	start := offset - size
	if start < 0 {
		start = 0
	}
	end := offset + size
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end]), nil
}

// Context carries the ranking inputs: the original query, the mention (if
// any), its character offset and the document accessor. It is passed opaquely
// to feature generators that need surrounding context.
type Context struct {
	Query         string
	Mention       string
	MentionOffset int
	Document      DocumentAccessor
}

// Ranker orders a candidate set by relevance. Implementations must not drop
// candidates; a failed ranking returns an error and the caller falls back to
// a deterministic default order.
type Ranker interface {
	Rank(ctx context.Context, rc Context, candidates []apptype.Handle) ([]apptype.Handle, error)
}

// FallbackOrder returns the candidates in the deterministic default order
// used when ranking fails: lexicographic by label, ties by identifier.
func FallbackOrder(candidates []apptype.Handle) []apptype.Handle {
	ordered := append([]apptype.Handle(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Label != ordered[j].Label {
			return ordered[i].Label < ordered[j].Label
		}
		return ordered[i].Identifier < ordered[j].Identifier
	})
	return ordered
}

// AssignRanks assigns sequential 1-based rank numbers in output order. Rank
// is a derived, transient annotation, not an identity property.
func AssignRanks(handles []apptype.Handle) {
	for i := range handles {
		handles[i].Rank = i + 1
	}
}
