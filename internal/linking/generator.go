package linking

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/kb"
)

// queryThreshold returns the minimum trimmed query length for prefix and
// substring searches. Local backends are fast enough to search
// unconditionally; remote full-text backends return too many low-precision
// results and incur excessive latency for very short inputs.
func queryThreshold(knowledgeBase apptype.KnowledgeBase) int {
	if knowledgeBase.Type == apptype.RepositoryTypeLocal {
		return 0
	}
	return 3
}

// isAbsoluteIRI reports whether the query parses as an absolute IRI.
func isAbsoluteIRI(query string) bool {
	if strings.ContainsAny(query, " \t\n") {
		return false
	}
	u, err := url.Parse(query)
	return err == nil && u.IsAbs()
}

// candidateSet unions handles with first-occurrence-wins deduplication by
// identifier, preserving insertion order.
type candidateSet struct {
	handles []apptype.Handle
	seen    map[string]struct{}
}

func newCandidateSet() *candidateSet {
	return &candidateSet{seen: make(map[string]struct{})}
}

func (s *candidateSet) addAll(handles []apptype.Handle) {
	for _, h := range handles {
		if _, ok := s.seen[h.Identifier]; ok {
			continue
		}
		s.seen[h.Identifier] = struct{}{}
		s.handles = append(s.handles, h)
	}
}

// generateCandidates produces the union of the four retrieval strategies for
// one knowledge base. Each strategy is a separate backend query; a failing
// strategy is logged and contributes zero candidates while its siblings
// still run.
func (s *Service) generateCandidates(ctx context.Context, knowledgeBase apptype.KnowledgeBase,
	scope string, valueType apptype.ValueType, query, mention string) []apptype.Handle {

	threshold := queryThreshold(knowledgeBase)
	result := newCandidateSet()

	// Base condition set shared by all strategies. Scope-limiting must
	// always happen before label matching: it changes the space being
	// searched, not a filter over results.
	base := kb.NewConditions(valueType)
	if scope != "" {
		base = base.DescendantsOf(scope)
	}

	// Strategy 1: exact identifier match, only when the query is an IRI.
	if query != "" && isAbsoluteIRI(query) {
		conditions := base.WithIdentifier(query).
			RetrieveLabel().
			RetrieveDescription()

		matches, err := s.registry.Execute(ctx, knowledgeBase, conditions)
		if err != nil {
			log.Printf("Warning: identifier match against %q failed: %v", knowledgeBase.ID, err)
		} else {
			log.Printf("Found [%d] candidates exactly matching IRI [%s]", len(matches), query)
			result.addAll(matches)
		}
	}

	// Strategy 2: exact label match on the query and the mention. Exact
	// matches are theoretically contained in the substring matches, but a
	// backend may rank them outside its result window, so they are queried
	// separately to make sure we have them.
	var exactLabels []string
	for _, label := range []string{query, mention} {
		if strings.TrimSpace(label) != "" {
			exactLabels = append(exactLabels, label)
		}
	}
	if len(exactLabels) > 0 {
		conditions := base.WithLabelMatchingExactlyAnyOf(exactLabels...).
			RetrieveLabel().
			RetrieveDescription()

		matches, err := s.registry.Execute(ctx, knowledgeBase, conditions)
		if err != nil {
			log.Printf("Warning: exact label match against %q failed: %v", knowledgeBase.ID, err)
		} else {
			log.Printf("Found [%d] candidates exactly matching %v", len(matches), exactLabels)
			result.addAll(matches)
		}
	}

	// Strategy 3: prefix match on the query - the main driver for
	// auto-complete - gated by the backend threshold.
	if query != "" && len(strings.TrimSpace(query)) >= threshold {
		conditions := base.WithLabelStartingWith(query).
			RetrieveLabel().
			RetrieveDescription()

		matches, err := s.registry.Execute(ctx, knowledgeBase, conditions)
		if err != nil {
			log.Printf("Warning: prefix match against %q failed: %v", knowledgeBase.ID, err)
		} else {
			log.Printf("Found [%d] candidates starting with [%s]", len(matches), query)
			result.addAll(matches)
		}
	}

	// Strategy 4: substring match on the query and the mention, each
	// independently trimmed and length-gated.
	var longLabels []string
	for _, label := range []string{query, mention} {
		trimmed := strings.TrimSpace(label)
		if trimmed != "" && len(trimmed) >= threshold {
			longLabels = append(longLabels, trimmed)
		}
	}
	if len(longLabels) > 0 {
		conditions := base.WithLabelContainingAnyOf(longLabels...).
			RetrieveLabel().
			RetrieveDescription()

		matches, err := s.registry.Execute(ctx, knowledgeBase, conditions)
		if err != nil {
			log.Printf("Warning: substring match against %q failed: %v", knowledgeBase.ID, err)
		} else {
			log.Printf("Found [%d] candidates containing %v", len(matches), longLabels)
			result.addAll(matches)
		}
	}

	return result.handles
}
