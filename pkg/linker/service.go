// Package linker provides a library-first API for knowledge-base concept
// linking without MCP transport.
package linker

import (
	"context"
	"fmt"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/kb"
	"github.com/inception-project/concept-linker-go/internal/linking"
	"github.com/inception-project/concept-linker-go/internal/ranking"
	"github.com/inception-project/concept-linker-go/internal/ranking/feature"
)

// Service wires the knowledge-base registry, the candidate generator and the
// ranker behind the two public entry points.
type Service struct {
	registry *kb.Registry
	linker   *linking.Service
	locals   []*kb.LocalBackend
}

// NewService constructs a Service with the provided config. Knowledge bases
// are registered afterwards via RegisterLocal/RegisterRemote.
func NewService(cfg *Config) (*Service, error) {
	stopwords := map[string]struct{}{}
	if cfg.StopwordsPath != "" {
		loaded, err := ranking.LoadStopwords(cfg.StopwordsPath)
		if err != nil {
			return nil, err
		}
		stopwords = loaded
	}

	internalCfg := cfg.toInternal()

	var strategy ranking.Ranker
	switch cfg.Ranker {
	case "", RankerBaseline:
		registry := feature.NewRegistry(
			feature.NewLabelMatch(),
			feature.NewTokenOverlap(),
			feature.NewContextOverlap(),
		)
		strategy = ranking.NewBaseline(registry, stopwords, internalCfg.MentionContextSize)
	case RankerRemote:
		if cfg.RankerURL == "" {
			return nil, fmt.Errorf("ranker %q requires a ranker URL", cfg.Ranker)
		}
		strategy = ranking.NewRemoteRanker(cfg.RankerURL)
	default:
		return nil, fmt.Errorf("unknown ranker strategy %q", cfg.Ranker)
	}

	registry := kb.NewRegistry()
	return &Service{
		registry: registry,
		linker:   linking.NewService(registry, strategy, internalCfg),
	}, nil
}

// RegisterLocal opens an embedded libSQL knowledge base and registers it.
func (s *Service) RegisterLocal(knowledgeBase apptype.KnowledgeBase, cfg *kb.Config) (*kb.LocalBackend, error) {
	knowledgeBase.Type = apptype.RepositoryTypeLocal
	backend, err := kb.NewLocalBackend(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Register(knowledgeBase, backend); err != nil {
		backend.Close()
		return nil, err
	}
	s.locals = append(s.locals, backend)
	return backend, nil
}

// RegisterRemote registers a remote knowledge-base endpoint.
func (s *Service) RegisterRemote(knowledgeBase apptype.KnowledgeBase, baseURL string) error {
	knowledgeBase.Type = apptype.RepositoryTypeRemote
	return s.registry.Register(knowledgeBase, kb.NewRemoteBackend(baseURL))
}

// SearchItems finds KB items matching the given query.
func (s *Service) SearchItems(ctx context.Context, project, repositoryID, query string) []apptype.Handle {
	return s.linker.SearchItems(ctx, project, repositoryID, query)
}

// GetLinkingInstancesInKBScope is the primary linking entry point.
func (s *Service) GetLinkingInstancesInKBScope(ctx context.Context, repositoryID, scope string,
	valueType apptype.ValueType, query, mention string, mentionOffset int,
	document ranking.DocumentAccessor, project string) []apptype.Handle {
	return s.linker.GetLinkingInstancesInKBScope(ctx, repositoryID, scope, valueType,
		query, mention, mentionOffset, document, project)
}

// LinkInScope is the outcome-reporting variant of the primary entry point.
func (s *Service) LinkInScope(ctx context.Context, project, repositoryID, scope string,
	valueType apptype.ValueType, query, mention string, mentionOffset int,
	document ranking.DocumentAccessor) ([]apptype.Handle, apptype.Outcome, error) {
	return s.linker.LinkInScope(ctx, project, repositoryID, scope, valueType,
		query, mention, mentionOffset, document)
}

// Registry exposes the knowledge-base registry.
func (s *Service) Registry() *kb.Registry { return s.registry }

// Linker exposes the linking service, e.g. for the MCP server.
func (s *Service) Linker() *linking.Service { return s.linker }

// Close releases all local backends.
func (s *Service) Close() error {
	var firstErr error
	for _, backend := range s.locals {
		if err := backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
