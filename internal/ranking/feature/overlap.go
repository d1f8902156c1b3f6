package feature

// TokenOverlap scores the Jaccard overlap between the candidate label tokens
// and the combined query/mention tokens, stopwords removed. It catches
// multi-word labels that match in any order ("Texas, Paris" vs "Paris Texas").
type TokenOverlap struct {
	weight float64
}

// NewTokenOverlap creates the generator with its default weight.
func NewTokenOverlap() *TokenOverlap {
	return &TokenOverlap{weight: 1.5}
}

func (g *TokenOverlap) Name() string    { return "token-overlap" }
func (g *TokenOverlap) Priority() int   { return 20 }
func (g *TokenOverlap) Weight() float64 { return g.weight }

func (g *TokenOverlap) Score(in Input) float64 {
	labelTokens := Tokenize(in.Candidate.Label, in.Stopwords)
	queryTokens := Tokenize(in.Query+" "+in.Mention, in.Stopwords)
	if len(labelTokens) == 0 || len(queryTokens) == 0 {
		return 0
	}

	labelSet := make(map[string]struct{}, len(labelTokens))
	for _, t := range labelTokens {
		labelSet[t] = struct{}{}
	}
	querySet := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		querySet[t] = struct{}{}
	}

	var shared int
	for t := range labelSet {
		if _, ok := querySet[t]; ok {
			shared++
		}
	}
	union := len(labelSet) + len(querySet) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
