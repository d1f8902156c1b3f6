package feature

// ContextOverlap scores how many candidate tokens (label and description)
// occur in the text window around the mention. Candidates related to the
// surrounding document score higher than homonyms from other domains.
type ContextOverlap struct {
	weight float64
}

// NewContextOverlap creates the generator with its default weight.
func NewContextOverlap() *ContextOverlap {
	return &ContextOverlap{weight: 1.0}
}

func (g *ContextOverlap) Name() string    { return "context-overlap" }
func (g *ContextOverlap) Priority() int   { return 30 }
func (g *ContextOverlap) Weight() float64 { return g.weight }

func (g *ContextOverlap) Score(in Input) float64 {
	if len(in.MentionContext) == 0 {
		return 0
	}

	candidateTokens := Tokenize(in.Candidate.Label+" "+in.Candidate.Description, in.Stopwords)
	if len(candidateTokens) == 0 {
		return 0
	}

	window := make(map[string]struct{}, len(in.MentionContext))
	for _, t := range in.MentionContext {
		window[t] = struct{}{}
	}

	var hits int
	for _, t := range candidateTokens {
		if _, ok := window[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(candidateTokens))
}
