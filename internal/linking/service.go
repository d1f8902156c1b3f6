package linking

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/kb"
	"github.com/inception-project/concept-linker-go/internal/ranking"
)

// ErrorHandleIdentifier marks the sentinel handle surfaced when a request
// fails unexpectedly, so callers can render a visible failure state instead
// of silently returning nothing.
const ErrorHandleIdentifier = "urn:concept-linker:error"

// wildcardStripper removes wildcard characters no backend supports; they must
// not leak into generated conditions.
var wildcardStripper = strings.NewReplacer("*", "", "?", "")

// Config holds the linking service settings.
type Config struct {
	// CandidateLimit caps the ranked list handed to callers. 0 keeps all.
	CandidateLimit int
	// MentionContextSize is the number of characters read on each side of
	// the mention for context features.
	MentionContextSize int
}

// Service orchestrates candidate generation across knowledge bases and
// ranking of the combined candidate set. It owns no background work; each
// request fans out, unions and ranks synchronously.
type Service struct {
	registry *kb.Registry
	ranker   ranking.Ranker
	config   Config
}

// NewService creates the linking service. The ranking strategy is chosen by
// the caller once at startup.
func NewService(registry *kb.Registry, ranker ranking.Ranker, config Config) *Service {
	return &Service{
		registry: registry,
		ranker:   ranker,
		config:   config,
	}
}

// SearchItems finds KB items matching the given query, with no scope and no
// mention. Convenience entry point for simple disambiguation.
func (s *Service) SearchItems(ctx context.Context, project, repositoryID, query string) []apptype.Handle {
	return s.GetLinkingInstancesInKBScope(ctx, repositoryID, "", apptype.ValueTypeAnyObject,
		query, "", 0, nil, project)
}

// GetLinkingInstancesInKBScope is the primary entry point: it resolves the
// knowledge bases in scope, generates candidates, ranks them and assigns
// rank numbers. It never returns an error; unexpected failures are logged
// and surfaced as a single sentinel error handle.
func (s *Service) GetLinkingInstancesInKBScope(ctx context.Context, repositoryID, scope string,
	valueType apptype.ValueType, query, mention string, mentionOffset int,
	document ranking.DocumentAccessor, project string) (handles []apptype.Handle) {

	defer func() {
		if p := recover(); p != nil {
			log.Printf("Error: linking request panicked (project %q, query %q): %v", project, query, p)
			handles = []apptype.Handle{errorHandle(fmt.Sprintf("linking failed: %v", p))}
		}
	}()

	handles, _, err := s.LinkInScope(ctx, project, repositoryID, scope, valueType,
		query, mention, mentionOffset, document)
	if err != nil {
		log.Printf("Error: linking request failed (project %q, repository %q, query %q): %v",
			project, repositoryID, query, err)
		return []apptype.Handle{errorHandle(err.Error())}
	}
	return handles
}

// LinkInScope carries out a linking request and reports its outcome
// explicitly, so callers and tests can tell "no candidates" from "no such
// repository" from "failed".
func (s *Service) LinkInScope(ctx context.Context, project, repositoryID, scope string,
	valueType apptype.ValueType, query, mention string, mentionOffset int,
	document ranking.DocumentAccessor) ([]apptype.Handle, apptype.Outcome, error) {

	if valueType == "" {
		valueType = apptype.ValueTypeAnyObject
	}

	// Sanitize the query by removing typical wildcard characters.
	query = strings.TrimSpace(wildcardStripper.Replace(query))

	// Determine which knowledge bases to query. A missing or disabled
	// repository is a user-configuration state, not an error.
	var knowledgeBases []apptype.KnowledgeBase
	if repositoryID != "" {
		knowledgeBase, ok := s.registry.ByID(project, repositoryID)
		if !ok || !knowledgeBase.Enabled {
			return []apptype.Handle{}, apptype.OutcomeNoRepository, nil
		}
		knowledgeBases = append(knowledgeBases, knowledgeBase)
	} else {
		knowledgeBases = s.registry.Enabled(project)
	}

	// Per-KB generation is independent; fan out in parallel and union the
	// per-KB sets in registration order so output does not depend on
	// completion order.
	perKB := make([][]apptype.Handle, len(knowledgeBases))
	g, gctx := errgroup.WithContext(ctx)
	for i, knowledgeBase := range knowledgeBases {
		g.Go(func() error {
			perKB[i] = s.generateCandidates(gctx, knowledgeBase, scope, valueType, query, mention)
			return nil
		})
	}
	_ = g.Wait()

	candidates := newCandidateSet()
	for _, handles := range perKB {
		candidates.addAll(handles)
	}

	ranked := s.RankCandidates(ctx, query, mention, candidates.handles, document, mentionOffset)
	if s.config.CandidateLimit > 0 && len(ranked) > s.config.CandidateLimit {
		ranked = ranked[:s.config.CandidateLimit]
	}
	return ranked, apptype.OutcomeOK, nil
}

// RankCandidates orders the candidate set and assigns sequential 1-based
// rank numbers. A ranking failure falls back to the deterministic default
// order instead of propagating: candidate display is better degraded than
// empty.
func (s *Service) RankCandidates(ctx context.Context, query, mention string,
	candidates []apptype.Handle, document ranking.DocumentAccessor, mentionOffset int) []apptype.Handle {

	startTime := time.Now()

	rc := ranking.Context{
		Query:         query,
		Mention:       mention,
		MentionOffset: mentionOffset,
		Document:      document,
	}

	ranked, err := s.ranker.Rank(ctx, rc, candidates)
	if err != nil {
		log.Printf("Warning: ranking failed, falling back to default order: %v", err)
		ranked = ranking.FallbackOrder(candidates)
	}

	ranking.AssignRanks(ranked)

	log.Printf("Ranked [%d] candidates for mention [%s] and query [%s] in [%v]",
		len(ranked), mention, query, time.Since(startTime))

	return ranked
}

func errorHandle(message string) apptype.Handle {
	return apptype.Handle{
		Identifier:  ErrorHandleIdentifier,
		Label:       "Error",
		Description: message,
	}
}
