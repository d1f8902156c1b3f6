package linker

import (
	"github.com/inception-project/concept-linker-go/internal/linking"
)

// Ranker strategy names accepted by Config.Ranker. The strategy is picked
// explicitly via configuration once at startup.
const (
	RankerBaseline = "baseline"
	RankerRemote   = "remote"
)

// Config exposes a stable wrapper for linking configuration in package mode.
type Config struct {
	// StopwordsPath points to a stopword file loaded at construction.
	// Empty keeps an empty stopword set.
	StopwordsPath string
	// MentionContextSize is the number of characters read on each side of
	// the mention for context features (default 100).
	MentionContextSize int
	// CandidateLimit caps the ranked candidate list (0 keeps all).
	CandidateLimit int
	// Ranker selects the ranking strategy: "baseline" (default) or
	// "remote".
	Ranker string
	// RankerURL is the external ranking endpoint, required when Ranker is
	// "remote".
	RankerURL string
}

const defaultMentionContextSize = 100

func (c *Config) toInternal() linking.Config {
	size := c.MentionContextSize
	if size <= 0 {
		size = defaultMentionContextSize
	}
	return linking.Config{
		CandidateLimit:     c.CandidateLimit,
		MentionContextSize: size,
	}
}
