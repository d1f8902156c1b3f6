package ranking

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/ranking/feature"
)

func TestStringDocumentWindowAround(t *testing.T) {
	doc := StringDocument("The Eiffel Tower stands in Paris near the Seine.")

	window, err := doc.WindowAround(27, 10)
	require.NoError(t, err)
	assert.Equal(t, "stands in Paris near", window)

	// Offsets clamp to the document bounds.
	window, err = doc.WindowAround(-5, 10)
	require.NoError(t, err)
	assert.Equal(t, "The Eiffel", window)

	window, err = doc.WindowAround(1000, 10)
	require.NoError(t, err)
	assert.Equal(t, "the Seine.", window)

	window, err = StringDocument("").WindowAround(0, 10)
	require.NoError(t, err)
	assert.Empty(t, window)
}

func TestFallbackOrder(t *testing.T) {
	candidates := []apptype.Handle{
		{Identifier: "http://example.org/2", Label: "Paris"},
		{Identifier: "http://example.org/3", Label: "London"},
		{Identifier: "http://example.org/1", Label: "Paris"},
	}

	ordered := FallbackOrder(candidates)

	assert.Equal(t, []apptype.Handle{
		{Identifier: "http://example.org/3", Label: "London"},
		{Identifier: "http://example.org/1", Label: "Paris"},
		{Identifier: "http://example.org/2", Label: "Paris"},
	}, ordered)

	// The input slice is left alone.
	assert.Equal(t, "http://example.org/2", candidates[0].Identifier)
}

func TestAssignRanks(t *testing.T) {
	handles := []apptype.Handle{
		{Identifier: "a"}, {Identifier: "b"}, {Identifier: "c"},
	}
	AssignRanks(handles)

	for i, h := range handles {
		assert.Equal(t, i+1, h.Rank)
	}

	AssignRanks(nil)
}

func newTestBaseline(stopwords map[string]struct{}) *Baseline {
	registry := feature.NewRegistry(
		feature.NewLabelMatch(),
		feature.NewTokenOverlap(),
		feature.NewContextOverlap(),
	)
	return NewBaseline(registry, stopwords, 100)
}

func TestBaselinePrefersExactLabelMatch(t *testing.T) {
	baseline := newTestBaseline(nil)

	candidates := []apptype.Handle{
		{Identifier: "http://example.org/Paris_Texas", Label: "Paris, Texas"},
		{Identifier: "http://example.org/Paris", Label: "Paris"},
		{Identifier: "http://example.org/London", Label: "London"},
	}

	ranked, err := baseline.Rank(context.Background(), Context{Query: "Paris"}, candidates)
	require.NoError(t, err)

	require.Len(t, ranked, 3)
	assert.Equal(t, "http://example.org/Paris", ranked[0].Identifier)
	assert.Equal(t, "http://example.org/Paris_Texas", ranked[1].Identifier)
	assert.Equal(t, "http://example.org/London", ranked[2].Identifier)
}

func TestBaselineUsesMentionContextToBreakHomonyms(t *testing.T) {
	baseline := newTestBaseline(map[string]struct{}{"the": {}, "of": {}, "in": {}})

	candidates := []apptype.Handle{
		{Identifier: "http://example.org/Paris_Texas", Label: "Paris", Description: "city in Texas"},
		{Identifier: "http://example.org/Paris", Label: "Paris", Description: "capital of France"},
	}

	document := StringDocument("She grew up in Paris, a small town in Texas with a replica tower.")
	ranked, err := baseline.Rank(context.Background(), Context{
		Query:         "Paris",
		Mention:       "Paris",
		MentionOffset: 15,
		Document:      document,
	}, candidates)
	require.NoError(t, err)

	require.Len(t, ranked, 2)
	assert.Equal(t, "http://example.org/Paris_Texas", ranked[0].Identifier)
}

func TestBaselineTieBreakIsDeterministic(t *testing.T) {
	baseline := newTestBaseline(nil)

	candidates := []apptype.Handle{
		{Identifier: "http://example.org/b", Label: "Same"},
		{Identifier: "http://example.org/a", Label: "Same"},
	}

	for i := 0; i < 5; i++ {
		ranked, err := baseline.Rank(context.Background(), Context{Query: "unrelated"}, candidates)
		require.NoError(t, err)
		assert.Equal(t, "http://example.org/a", ranked[0].Identifier)
		assert.Equal(t, "http://example.org/b", ranked[1].Identifier)
	}
}

func TestBaselineDoesNotMutateInput(t *testing.T) {
	baseline := newTestBaseline(nil)

	candidates := []apptype.Handle{
		{Identifier: "http://example.org/b", Label: "Zebra"},
		{Identifier: "http://example.org/a", Label: "Paris"},
	}

	_, err := baseline.Rank(context.Background(), Context{Query: "Paris"}, candidates)
	require.NoError(t, err)

	assert.Equal(t, "http://example.org/b", candidates[0].Identifier)
}

func TestLoadStopwords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stopwords.txt")
	content := "# common English stopwords\nthe\nOf\n\n  and  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	stopwords, err := LoadStopwords(path)
	require.NoError(t, err)

	assert.Len(t, stopwords, 3)
	assert.Contains(t, stopwords, "the")
	assert.Contains(t, stopwords, "of")
	assert.Contains(t, stopwords, "and")
}

func TestLoadStopwordsMissingFile(t *testing.T) {
	_, err := LoadStopwords(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
