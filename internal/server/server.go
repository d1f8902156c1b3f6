package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/buildinfo"
	"github.com/inception-project/concept-linker-go/internal/kb"
	"github.com/inception-project/concept-linker-go/internal/linking"
	"github.com/inception-project/concept-linker-go/internal/metrics"
	"github.com/inception-project/concept-linker-go/internal/ranking"
)

const defaultProject = "default"

// MCPServer exposes the linking operations over the MCP protocol.
type MCPServer struct {
	server   *mcp.Server
	linker   *linking.Service
	registry *kb.Registry
}

// NewMCPServer creates a new MCP server around the linking service.
func NewMCPServer(linker *linking.Service, registry *kb.Registry) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "concept-linker-go",
		Version: buildinfo.Version,
	}, nil)

	mcpServer := &MCPServer{
		server:   server,
		linker:   linker,
		registry: registry,
	}

	// initialize metrics from env (no-op if disabled)
	metrics.InitFromEnv()
	mcpServer.setupToolHandlers()
	return mcpServer
}

// setupToolHandlers registers all MCP tools.
func (s *MCPServer) setupToolHandlers() {
	linkCandidatesInputSchema, err := jsonschema.For[apptype.LinkCandidatesArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for LinkCandidatesArgs: %v", err))
	}
	linkCandidatesOutputSchema, err := jsonschema.For[apptype.LinkResult]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for LinkResult (link): %v", err))
	}
	searchItemsInputSchema, err := jsonschema.For[apptype.SearchItemsArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for SearchItemsArgs: %v", err))
	}
	// Create a fresh LinkResult schema for search_items to avoid re-resolving
	// the same root.
	searchItemsOutputSchema, err := jsonschema.For[apptype.LinkResult]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for LinkResult (search): %v", err))
	}
	createItemsInputSchema, err := jsonschema.For[apptype.CreateItemsArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for CreateItemsArgs: %v", err))
	}
	createLinksInputSchema, err := jsonschema.For[apptype.CreateLinksArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for CreateLinksArgs: %v", err))
	}
	deleteItemInputSchema, err := jsonschema.For[apptype.DeleteItemArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for DeleteItemArgs: %v", err))
	}
	healthInputSchema, err := jsonschema.For[apptype.HealthArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for HealthArgs: %v", err))
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "link_candidates",
		Title:        "Link Candidates",
		Description:  "Search the project's knowledge bases for entity-linking candidates and return them ranked.",
		InputSchema:  linkCandidatesInputSchema,
		OutputSchema: linkCandidatesOutputSchema,
	}, s.handleLinkCandidates)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "search_items",
		Title:        "Search Items",
		Description:  "Find knowledge-base items (classes and instances) matching a query.",
		InputSchema:  searchItemsInputSchema,
		OutputSchema: searchItemsOutputSchema,
	}, s.handleSearchItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_items",
		Title:       "Create Items",
		Description: "Create or update items in a mutable local knowledge base.",
		InputSchema: createItemsInputSchema,
	}, s.handleCreateItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_links",
		Title:       "Create Links",
		Description: "Create subclass-of or instance-of hierarchy edges between items.",
		InputSchema: createLinksInputSchema,
	}, s.handleCreateLinks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_item",
		Title:       "Delete Item",
		Description: "Delete an item and all hierarchy edges touching it.",
		InputSchema: deleteItemInputSchema,
	}, s.handleDeleteItem)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "health",
		Title:       "Health",
		Description: "Report server version and registered knowledge bases.",
		InputSchema: healthInputSchema,
	}, s.handleHealth)
}

// getProjectName returns the provided project name or the default.
func (s *MCPServer) getProjectName(providedName string) string {
	if providedName == "" {
		return defaultProject
	}
	return providedName
}

// localBackend resolves a mutable local backend for write tools.
func (s *MCPServer) localBackend(project, repositoryID string) (*kb.LocalBackend, error) {
	knowledgeBase, ok := s.registry.ByID(project, repositoryID)
	if !ok {
		return nil, fmt.Errorf("unknown knowledge base %q in project %q", repositoryID, project)
	}
	if knowledgeBase.ReadOnly {
		return nil, fmt.Errorf("knowledge base %q is read-only", repositoryID)
	}
	backend, ok := s.registry.Backend(project, repositoryID)
	if !ok {
		return nil, fmt.Errorf("knowledge base %q has no backend", repositoryID)
	}
	local, ok := backend.(*kb.LocalBackend)
	if !ok {
		return nil, fmt.Errorf("knowledge base %q is not a local store", repositoryID)
	}
	return local, nil
}

// handleLinkCandidates handles the link_candidates tool call.
func (s *MCPServer) handleLinkCandidates(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.LinkCandidatesArgs],
) (*mcp.CallToolResultFor[apptype.LinkResult], error) {
	done := metrics.TimeTool("link_candidates")
	var success bool
	defer func() { done(success) }()
	args := params.Arguments
	projectName := s.getProjectName(args.ProjectArgs.ProjectName)

	var document ranking.DocumentAccessor
	if args.DocumentText != "" {
		document = ranking.StringDocument(args.DocumentText)
	}

	candidates, outcome, err := s.linker.LinkInScope(ctx, projectName, args.RepositoryID,
		args.Scope, apptype.ValueType(args.ValueType), args.Query, args.Mention,
		args.MentionOffset, document)
	if err != nil {
		success = false
		return nil, fmt.Errorf("linking failed: %w", err)
	}
	success = true

	result := &mcp.CallToolResultFor[apptype.LinkResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Found %d candidates", len(candidates)),
			},
		},
		StructuredContent: apptype.LinkResult{
			Candidates: candidates,
			Outcome:    outcome,
		},
	}
	return result, nil
}

// handleSearchItems handles the search_items tool call.
func (s *MCPServer) handleSearchItems(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.SearchItemsArgs],
) (*mcp.CallToolResultFor[apptype.LinkResult], error) {
	done := metrics.TimeTool("search_items")
	var success bool
	defer func() { done(success) }()
	args := params.Arguments
	projectName := s.getProjectName(args.ProjectArgs.ProjectName)

	candidates := s.linker.SearchItems(ctx, projectName, args.RepositoryID, args.Query)
	success = true

	result := &mcp.CallToolResultFor[apptype.LinkResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Found %d items", len(candidates)),
			},
		},
		StructuredContent: apptype.LinkResult{
			Candidates: candidates,
			Outcome:    apptype.OutcomeOK,
		},
	}
	return result, nil
}

// handleCreateItems handles the create_items tool call.
func (s *MCPServer) handleCreateItems(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.CreateItemsArgs],
) (*mcp.CallToolResultFor[any], error) {
	done := metrics.TimeTool("create_items")
	var success bool
	defer func() { done(success) }()
	args := params.Arguments
	projectName := s.getProjectName(args.ProjectArgs.ProjectName)

	backend, err := s.localBackend(projectName, args.RepositoryID)
	if err != nil {
		success = false
		return nil, err
	}
	if err := backend.CreateItems(ctx, args.Items); err != nil {
		success = false
		return nil, fmt.Errorf("failed to create items: %w", err)
	}
	success = true

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Successfully processed %d items in knowledge base %s", len(args.Items), args.RepositoryID),
			},
		},
	}, nil
}

// handleCreateLinks handles the create_links tool call.
func (s *MCPServer) handleCreateLinks(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.CreateLinksArgs],
) (*mcp.CallToolResultFor[any], error) {
	done := metrics.TimeTool("create_links")
	var success bool
	defer func() { done(success) }()
	args := params.Arguments
	projectName := s.getProjectName(args.ProjectArgs.ProjectName)

	backend, err := s.localBackend(projectName, args.RepositoryID)
	if err != nil {
		success = false
		return nil, err
	}
	if err := backend.CreateLinks(ctx, args.Links); err != nil {
		success = false
		return nil, fmt.Errorf("failed to create links: %w", err)
	}
	success = true

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Successfully created %d links in knowledge base %s", len(args.Links), args.RepositoryID),
			},
		},
	}, nil
}

// handleDeleteItem handles the delete_item tool call.
func (s *MCPServer) handleDeleteItem(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.DeleteItemArgs],
) (*mcp.CallToolResultFor[any], error) {
	done := metrics.TimeTool("delete_item")
	var success bool
	defer func() { done(success) }()
	args := params.Arguments
	projectName := s.getProjectName(args.ProjectArgs.ProjectName)

	backend, err := s.localBackend(projectName, args.RepositoryID)
	if err != nil {
		success = false
		return nil, err
	}
	if err := backend.DeleteItem(ctx, args.Identifier); err != nil {
		success = false
		return nil, fmt.Errorf("failed to delete item: %w", err)
	}
	success = true

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Deleted item %s", args.Identifier),
			},
		},
	}, nil
}

// handleHealth handles the health tool call.
func (s *MCPServer) handleHealth(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.HealthArgs],
) (*mcp.CallToolResultFor[any], error) {
	done := metrics.TimeTool("health")
	defer func() { done(true) }()

	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("concept-linker-go %s ok", buildinfo.Version),
			},
		},
	}, nil
}

// Run starts the MCP server with stdio transport.
func (s *MCPServer) Run(ctx context.Context) error {
	transport := mcp.NewStdioTransport()
	return s.server.Run(ctx, transport)
}

// RunSSE starts the MCP server over SSE at the given address and endpoint.
func (s *MCPServer) RunSSE(ctx context.Context, addr string, endpoint string) error {
	handler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server { return s.server })
	mux := http.NewServeMux()
	mux.Handle(endpoint, handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 0)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("SSE MCP server listening on %s%s", addr, endpoint)
	return srv.ListenAndServe()
}
