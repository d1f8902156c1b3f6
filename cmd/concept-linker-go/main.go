package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/kb"
	"github.com/inception-project/concept-linker-go/internal/metrics"
	"github.com/inception-project/concept-linker-go/internal/server"
	"github.com/inception-project/concept-linker-go/pkg/linker"
)

var (
	libsqlURL   = flag.String("libsql-url", "", "libSQL database URL for the local knowledge base (default: file:./linker.db)")
	authToken   = flag.String("auth-token", "", "Authentication token for remote libSQL databases")
	localKBID   = flag.String("local-kb-id", "local", "Identifier of the local knowledge base")
	localRO     = flag.Bool("local-kb-read-only", false, "Register the local knowledge base as read-only (enables result caching)")
	remoteKBs   = flag.String("remote-kbs", "", "Comma-separated remote knowledge bases as id=url pairs, registered read-only")
	project     = flag.String("project", "default", "Project the knowledge bases belong to")
	stopwords   = flag.String("stopwords", "", "Path to a stopword file for the baseline ranker")
	rankerName  = flag.String("ranker", linker.RankerBaseline, "Ranking strategy: baseline or remote")
	rankerURL   = flag.String("ranker-url", "", "External ranking endpoint (required with -ranker remote)")
	contextSize = flag.Int("mention-context-size", 0, "Characters of document context read around the mention")
	candLimit   = flag.Int("candidate-limit", 0, "Maximum number of ranked candidates returned (0 = all)")
	transport   = flag.String("transport", "stdio", "Transport to use: stdio or sse")
	addr        = flag.String("addr", ":8080", "Address to listen on when using SSE transport")
	sseEndpoint = flag.String("sse-endpoint", "/sse", "SSE endpoint path when using SSE transport")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, closing server...")
		cancel()
	}()

	// Initialize metrics (noop if disabled)
	metrics.InitFromEnv()

	svc, err := linker.NewService(&linker.Config{
		StopwordsPath:      *stopwords,
		MentionContextSize: *contextSize,
		CandidateLimit:     *candLimit,
		Ranker:             *rankerName,
		RankerURL:          *rankerURL,
	})
	if err != nil {
		log.Fatalf("Failed to create linking service: %v", err)
	}
	defer svc.Close()

	// Local knowledge base from env with command line overrides
	kbConfig := kb.NewConfig()
	if *libsqlURL != "" {
		kbConfig.URL = *libsqlURL
	}
	if *authToken != "" {
		kbConfig.AuthToken = *authToken
	}

	if _, err := svc.RegisterLocal(apptype.KnowledgeBase{
		ID:       *localKBID,
		Name:     *localKBID,
		Project:  *project,
		Enabled:  true,
		ReadOnly: *localRO,
	}, kbConfig); err != nil {
		log.Fatalf("Failed to register local knowledge base: %v", err)
	}

	for _, pair := range strings.Split(*remoteKBs, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, endpoint, ok := strings.Cut(pair, "=")
		if !ok || id == "" || endpoint == "" {
			log.Fatalf("Invalid remote knowledge base %q, want id=url", pair)
		}
		if err := svc.RegisterRemote(apptype.KnowledgeBase{
			ID:       id,
			Name:     id,
			Project:  *project,
			Enabled:  true,
			ReadOnly: true,
		}, endpoint); err != nil {
			log.Fatalf("Failed to register remote knowledge base %q: %v", id, err)
		}
	}

	mcpServer := server.NewMCPServer(svc.Linker(), svc.Registry())

	switch *transport {
	case "sse":
		if err := mcpServer.RunSSE(ctx, *addr, *sseEndpoint); err != nil && ctx.Err() == nil {
			log.Fatalf("Server error: %v", err)
		}
	case "stdio":
		if err := mcpServer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("Server error: %v", err)
		}
	default:
		log.Fatalf("Unknown transport %q, want stdio or sse", *transport)
	}
}
