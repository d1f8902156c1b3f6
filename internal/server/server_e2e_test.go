package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/kb"
	"github.com/inception-project/concept-linker-go/internal/linking"
	"github.com/inception-project/concept-linker-go/internal/ranking"
	"github.com/inception-project/concept-linker-go/internal/ranking/feature"
)

// pickFreePort tries to get a free TCP port on 127.0.0.1
func pickFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func setupTestServer(t *testing.T) *MCPServer {
	t.Helper()

	config := kb.NewConfig()
	config.URL = "file:server-e2e?mode=memory&cache=shared"
	backend, err := kb.NewLocalBackend(config)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	require.NoError(t, backend.CreateItems(context.Background(), []apptype.Item{
		{Identifier: "http://example.org/Paris", Label: "Paris", Description: "capital of France", Kind: apptype.KindInstance},
	}))

	registry := kb.NewRegistry()
	require.NoError(t, registry.Register(apptype.KnowledgeBase{
		ID:      "geo",
		Name:    "Geography",
		Project: defaultProject,
		Type:    apptype.RepositoryTypeLocal,
		Enabled: true,
	}, backend))

	ranker := ranking.NewBaseline(feature.NewRegistry(
		feature.NewLabelMatch(),
		feature.NewTokenOverlap(),
		feature.NewContextOverlap(),
	), nil, 100)
	linker := linking.NewService(registry, ranker, linking.Config{})

	return NewMCPServer(linker, registry)
}

func TestSSEServer_LinkCandidates(t *testing.T) {
	srv := setupTestServer(t)

	port, err := pickFreePort()
	require.NoError(t, err)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	endpoint := "/sse"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start SSE server
	go func() { _ = srv.RunSSE(ctx, addr, endpoint) }()

	// wait briefly for server to bind
	time.Sleep(150 * time.Millisecond)

	// connect with MCP SSE client
	client := mcp.NewClient(&mcp.Implementation{Name: "e2e-client", Version: "test"}, nil)
	transport := mcp.NewSSEClientTransport("http://"+addr+endpoint, nil)

	// retry connect a few times to avoid flakes
	var session *mcp.ClientSession
	for i := 0; i < 5; i++ {
		session, err = client.Connect(ctx, transport)
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.NotEmpty(t, tools.Tools)

	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "link_candidates")
	assert.Contains(t, names, "search_items")

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "link_candidates",
		Arguments: map[string]any{
			"repositoryId": "geo",
			"query":        "Paris",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res.StructuredContent)

	encoded, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var result apptype.LinkResult
	require.NoError(t, json.Unmarshal(encoded, &result))

	assert.Equal(t, apptype.OutcomeOK, result.Outcome)
	require.NotEmpty(t, result.Candidates)
	assert.Equal(t, "http://example.org/Paris", result.Candidates[0].Identifier)
	assert.Equal(t, 1, result.Candidates[0].Rank)
}
