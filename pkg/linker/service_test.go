package linker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/kb"
	"github.com/inception-project/concept-linker-go/internal/linking"
	"github.com/inception-project/concept-linker-go/internal/ranking"
)

const testProject = "test-project"

func setupLinker(t *testing.T, name string) *Service {
	t.Helper()
	service, err := NewService(&Config{})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, service.Close()) })

	kbConfig := kb.NewConfig()
	kbConfig.URL = "file:" + name + "?mode=memory&cache=shared"
	backend, err := service.RegisterLocal(apptype.KnowledgeBase{
		ID:      "geo",
		Name:    "Geography",
		Project: testProject,
		Enabled: true,
	}, kbConfig)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, backend.CreateItems(ctx, []apptype.Item{
		{Identifier: "http://example.org/City", Label: "City", Kind: apptype.KindConcept},
		{Identifier: "http://example.org/Paris", Label: "Paris", Description: "capital of France", Kind: apptype.KindInstance},
		{Identifier: "http://example.org/Paris_Texas", Label: "Paris, Texas", Description: "city in Texas", Kind: apptype.KindInstance},
		{Identifier: "http://example.org/London", Label: "London", Description: "capital of the United Kingdom", Kind: apptype.KindInstance},
	}))
	require.NoError(t, backend.CreateLinks(ctx, []apptype.Link{
		{Source: "http://example.org/Paris", Target: "http://example.org/City", LinkType: apptype.LinkInstanceOf},
		{Source: "http://example.org/Paris_Texas", Target: "http://example.org/City", LinkType: apptype.LinkInstanceOf},
		{Source: "http://example.org/London", Target: "http://example.org/City", LinkType: apptype.LinkInstanceOf},
	}))

	return service
}

func TestEndToEndLinking(t *testing.T) {
	service := setupLinker(t, "linker_e2e")

	handles := service.GetLinkingInstancesInKBScope(context.Background(), "geo", "",
		apptype.ValueTypeAnyObject, "Paris", "", 0, nil, testProject)

	require.NotEmpty(t, handles)
	assert.Equal(t, "http://example.org/Paris", handles[0].Identifier)
	assert.Equal(t, "Paris", handles[0].Label)

	seen := make(map[string]struct{})
	for i, h := range handles {
		assert.Equal(t, i+1, h.Rank)
		_, dup := seen[h.Identifier]
		assert.False(t, dup, "candidate %s appears twice", h.Identifier)
		seen[h.Identifier] = struct{}{}
		assert.NotEqual(t, linking.ErrorHandleIdentifier, h.Identifier)
	}
}

func TestEndToEndScopedLinking(t *testing.T) {
	service := setupLinker(t, "linker_scope")

	handles, outcome, err := service.LinkInScope(context.Background(), testProject, "geo",
		"http://example.org/City", apptype.ValueTypeAnyObject, "o", "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, apptype.OutcomeOK, outcome)

	var ids []string
	for _, h := range handles {
		ids = append(ids, h.Identifier)
	}
	assert.Contains(t, ids, "http://example.org/London")

	// The scope root itself is not among its own descendants even when its
	// label matches the query.
	handles, outcome, err = service.LinkInScope(context.Background(), testProject, "geo",
		"http://example.org/City", apptype.ValueTypeAnyObject, "city", "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, apptype.OutcomeOK, outcome)
	assert.Empty(t, handles)
}

func TestEndToEndMentionContext(t *testing.T) {
	service, err := NewService(&Config{})
	require.NoError(t, err)
	defer service.Close()

	kbConfig := kb.NewConfig()
	kbConfig.URL = "file:linker_mention?mode=memory&cache=shared"
	backend, err := service.RegisterLocal(apptype.KnowledgeBase{
		ID:      "geo",
		Project: testProject,
		Enabled: true,
	}, kbConfig)
	require.NoError(t, err)

	// Two homonyms with identical labels; only the document context can
	// tell them apart.
	require.NoError(t, backend.CreateItems(context.Background(), []apptype.Item{
		{Identifier: "http://example.org/Paris", Label: "Paris", Description: "capital of France", Kind: apptype.KindInstance},
		{Identifier: "http://example.org/Paris_Texas", Label: "Paris", Description: "city in Texas", Kind: apptype.KindInstance},
	}))

	document := ranking.StringDocument("She drove through Paris on her way across Texas.")
	handles := service.GetLinkingInstancesInKBScope(context.Background(), "geo", "",
		apptype.ValueTypeAnyObject, "Paris", "Paris", 18, document, testProject)

	require.Len(t, handles, 2)
	assert.Equal(t, "http://example.org/Paris_Texas", handles[0].Identifier,
		"document context should pick the Texan homonym")
}

func TestEndToEndWildcardRoundTrip(t *testing.T) {
	service := setupLinker(t, "linker_wildcard")

	plain := service.GetLinkingInstancesInKBScope(context.Background(), "geo", "",
		apptype.ValueTypeAnyObject, "Paris", "", 0, nil, testProject)
	wildcarded := service.GetLinkingInstancesInKBScope(context.Background(), "geo", "",
		apptype.ValueTypeAnyObject, "Paris*", "", 0, nil, testProject)

	assert.Equal(t, plain, wildcarded)
}

func TestEndToEndLondonOnly(t *testing.T) {
	service := setupLinker(t, "linker_london")

	handles := service.GetLinkingInstancesInKBScope(context.Background(), "geo", "",
		apptype.ValueTypeAnyObject, "London", "", 0, nil, testProject)

	require.Len(t, handles, 1)
	assert.Equal(t, "http://example.org/London", handles[0].Identifier)
}

func TestEndToEndReadOnlyKBIsIdempotent(t *testing.T) {
	service, err := NewService(&Config{})
	require.NoError(t, err)
	defer service.Close()

	kbConfig := kb.NewConfig()
	kbConfig.URL = "file:linker_readonly?mode=memory&cache=shared"
	backend, err := service.RegisterLocal(apptype.KnowledgeBase{
		ID:       "geo",
		Project:  testProject,
		Enabled:  true,
		ReadOnly: true,
	}, kbConfig)
	require.NoError(t, err)

	require.NoError(t, backend.CreateItems(context.Background(), []apptype.Item{
		{Identifier: "http://example.org/Paris", Label: "Paris", Kind: apptype.KindInstance},
		{Identifier: "http://example.org/Paris_Texas", Label: "Paris, Texas", Kind: apptype.KindInstance},
	}))

	first := service.GetLinkingInstancesInKBScope(context.Background(), "geo", "",
		apptype.ValueTypeAnyObject, "Paris", "", 0, nil, testProject)
	second := service.GetLinkingInstancesInKBScope(context.Background(), "geo", "",
		apptype.ValueTypeAnyObject, "Paris", "", 0, nil, testProject)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second, "cached results must not reorder or mutate")
}

func TestEndToEndSearchItems(t *testing.T) {
	service := setupLinker(t, "linker_search")

	handles := service.SearchItems(context.Background(), testProject, "geo", "Lond")
	require.NotEmpty(t, handles)
	assert.Equal(t, "http://example.org/London", handles[0].Identifier)
}

func TestEndToEndUnknownRepository(t *testing.T) {
	service := setupLinker(t, "linker_unknown")

	handles, outcome, err := service.LinkInScope(context.Background(), testProject, "nope", "",
		apptype.ValueTypeAnyObject, "Paris", "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, apptype.OutcomeNoRepository, outcome)
	assert.Empty(t, handles)
}

func TestNewServiceRejectsBadRankerConfig(t *testing.T) {
	_, err := NewService(&Config{Ranker: "neural-net"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ranker")

	_, err = NewService(&Config{Ranker: RankerRemote})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ranker URL")
}

func TestRegisterLocalForcesLocalType(t *testing.T) {
	service, err := NewService(&Config{})
	require.NoError(t, err)
	defer service.Close()

	kbConfig := kb.NewConfig()
	kbConfig.URL = "file:linker_type?mode=memory&cache=shared"
	_, err = service.RegisterLocal(apptype.KnowledgeBase{
		ID:      "kb",
		Project: testProject,
		Type:    apptype.RepositoryTypeRemote,
		Enabled: true,
	}, kbConfig)
	require.NoError(t, err)

	registered, ok := service.Registry().ByID(testProject, "kb")
	require.True(t, ok)
	assert.Equal(t, apptype.RepositoryTypeLocal, registered.Type)
}
