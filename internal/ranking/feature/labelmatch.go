package feature

import "strings"

// LabelMatch scores how directly the candidate label matches the query or the
// mention: exact match beats prefix match beats substring match. This is the
// strongest signal for auto-complete style queries.
type LabelMatch struct {
	weight float64
}

// NewLabelMatch creates the generator with its default weight.
func NewLabelMatch() *LabelMatch {
	return &LabelMatch{weight: 3.0}
}

func (g *LabelMatch) Name() string    { return "label-match" }
func (g *LabelMatch) Priority() int   { return 10 }
func (g *LabelMatch) Weight() float64 { return g.weight }

func (g *LabelMatch) Score(in Input) float64 {
	label := strings.ToLower(strings.TrimSpace(in.Candidate.Label))
	if label == "" {
		return 0
	}

	best := 0.0
	for _, needle := range []string{in.Query, in.Mention} {
		needle = strings.ToLower(strings.TrimSpace(needle))
		if needle == "" {
			continue
		}
		switch {
		case label == needle:
			best = max(best, 1.0)
		case strings.HasPrefix(label, needle):
			best = max(best, 0.6)
		case strings.Contains(label, needle):
			best = max(best, 0.3)
		}
	}
	return best
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
