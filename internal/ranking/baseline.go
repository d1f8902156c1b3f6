package ranking

import (
	"context"
	"log"
	"sort"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/metrics"
	"github.com/inception-project/concept-linker-go/internal/ranking/feature"
)

// Baseline is the feature-weighted ranker. Feature generators are resolved
// once at construction and treated as read-only configuration; the stopword
// set and the mention context window size are supplied by the caller.
type Baseline struct {
	registry   *feature.Registry
	stopwords  map[string]struct{}
	windowSize int
}

// NewBaseline creates the baseline ranker.
func NewBaseline(registry *feature.Registry, stopwords map[string]struct{}, windowSize int) *Baseline {
	for _, g := range registry.Generators() {
		log.Printf("Using ranking feature generator: %s (priority %d, weight %.1f)",
			g.Name(), g.Priority(), g.Weight())
	}
	return &Baseline{
		registry:   registry,
		stopwords:  stopwords,
		windowSize: windowSize,
	}
}

// Rank implements Ranker. Sorting is descending by combined score with a
// stable secondary key (label, then identifier) so output is deterministic
// across runs for identical input.
func (b *Baseline) Rank(ctx context.Context, rc Context, candidates []apptype.Handle) ([]apptype.Handle, error) {
	done := metrics.TimeRank("baseline")
	defer done(true)

	mentionContext := b.mentionContext(rc)

	type scored struct {
		handle apptype.Handle
		score  float64
	}
	scoredList := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		score := b.registry.Score(feature.Input{
			Query:          rc.Query,
			Mention:        rc.Mention,
			MentionContext: mentionContext,
			Candidate:      candidate,
			Stopwords:      b.stopwords,
		})
		scoredList = append(scoredList, scored{handle: candidate, score: score})
	}

	sort.SliceStable(scoredList, func(i, j int) bool {
		if scoredList[i].score != scoredList[j].score {
			return scoredList[i].score > scoredList[j].score
		}
		if scoredList[i].handle.Label != scoredList[j].handle.Label {
			return scoredList[i].handle.Label < scoredList[j].handle.Label
		}
		return scoredList[i].handle.Identifier < scoredList[j].handle.Identifier
	})

	ranked := make([]apptype.Handle, len(scoredList))
	for i, s := range scoredList {
		ranked[i] = s.handle
	}
	return ranked, nil
}

// mentionContext extracts the stopword-filtered tokens around the mention,
// or nil when no document accessor was supplied.
func (b *Baseline) mentionContext(rc Context) []string {
	if rc.Document == nil {
		return nil
	}
	window, err := rc.Document.WindowAround(rc.MentionOffset, b.windowSize)
	if err != nil {
		log.Printf("Warning: failed to read mention context at offset %d: %v", rc.MentionOffset, err)
		return nil
	}
	return feature.Tokenize(window, b.stopwords)
}
