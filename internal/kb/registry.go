package kb

import (
	"context"
	"fmt"
	"sync"

	"github.com/inception-project/concept-linker-go/internal/apptype"
)

// Registry tracks the knowledge bases of each project together with their
// backends. Registration happens once at startup; lookups are concurrent.
type Registry struct {
	mu      sync.RWMutex
	ordered map[string][]*kbEntry          // project -> registration order
	byID    map[string]map[string]*kbEntry // project -> id -> entry
}

type kbEntry struct {
	kb      apptype.KnowledgeBase
	backend Backend
	cache   *ResultCache
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ordered: make(map[string][]*kbEntry),
		byID:    make(map[string]map[string]*kbEntry),
	}
}

// Register adds a knowledge base and its backend. Read-only knowledge bases
// get a result cache; mutable ones are always queried through a fresh
// connection because cached results could go stale.
func (r *Registry) Register(kb apptype.KnowledgeBase, backend Backend) error {
	if kb.ID == "" || kb.Project == "" {
		return fmt.Errorf("knowledge base must have an id and a project")
	}
	if backend == nil {
		return fmt.Errorf("knowledge base %q has no backend", kb.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[kb.Project]; !ok {
		r.byID[kb.Project] = make(map[string]*kbEntry)
	}
	if _, ok := r.byID[kb.Project][kb.ID]; ok {
		return fmt.Errorf("knowledge base %q already registered for project %q", kb.ID, kb.Project)
	}

	e := &kbEntry{kb: kb, backend: backend}
	if kb.ReadOnly {
		e.cache = NewResultCache(kb.ID)
	}
	r.byID[kb.Project][kb.ID] = e
	r.ordered[kb.Project] = append(r.ordered[kb.Project], e)
	return nil
}

// ByID looks up a knowledge base by identifier.
func (r *Registry) ByID(project, id string) (apptype.KnowledgeBase, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[project][id]
	if !ok {
		return apptype.KnowledgeBase{}, false
	}
	return e.kb, true
}

// IsEnabled reports whether the knowledge base exists and is enabled.
func (r *Registry) IsEnabled(project, id string) bool {
	kb, ok := r.ByID(project, id)
	return ok && kb.Enabled
}

// Enabled returns all enabled knowledge bases of a project in registration
// order.
func (r *Registry) Enabled(project string) []apptype.KnowledgeBase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var kbs []apptype.KnowledgeBase
	for _, e := range r.ordered[project] {
		if e.kb.Enabled {
			kbs = append(kbs, e.kb)
		}
	}
	return kbs
}

// Backend returns the backend registered for a knowledge base. Used by write
// paths; queries go through Execute.
func (r *Registry) Backend(project, id string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[project][id]
	if !ok {
		return nil, false
	}
	return e.backend, true
}

// Execute runs a condition set against a knowledge base. Read-only knowledge
// bases are served through the result cache; mutable ones open a fresh
// connection which is released on all exit paths.
func (r *Registry) Execute(ctx context.Context, kb apptype.KnowledgeBase, conditions ConditionSet) ([]apptype.Handle, error) {
	r.mu.RLock()
	e, ok := r.byID[kb.Project][kb.ID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("knowledge base %q is not registered for project %q", kb.ID, kb.Project)
	}

	run := func() ([]apptype.Handle, error) {
		conn, err := e.backend.Open(ctx)
		if err != nil {
			return nil, queryErr(kb.ID, err)
		}
		defer conn.Close()

		handles, err := conn.Execute(ctx, conditions)
		if err != nil {
			return nil, queryErr(kb.ID, err)
		}
		return handles, nil
	}

	if e.cache != nil {
		return e.cache.Get(conditions.Key(), run)
	}
	return run()
}
