package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/inception-project/concept-linker-go/internal/apptype"
	"github.com/inception-project/concept-linker-go/internal/metrics"
)

// RemoteRanker delegates ranking to an external model behind an HTTP
// endpoint (POST <base>/rank). Any failure surfaces as an error so the
// caller can fall back to the deterministic default order; candidates the
// endpoint does not mention keep that fallback order at the tail, so no
// candidate is ever lost.
type RemoteRanker struct {
	baseURL string
	http    *http.Client
}

type rankRequest struct {
	Query      string           `json:"query"`
	Mention    string           `json:"mention,omitempty"`
	Candidates []apptype.Handle `json:"candidates"`
}

type rankResponse struct {
	// Identifiers lists candidate identifiers in ranked order.
	Identifiers []string `json:"identifiers"`
}

// NewRemoteRanker creates a ranker for the given base URL.
// LINKER_RANKER_TIMEOUT accepts a Go duration or plain seconds.
func NewRemoteRanker(baseURL string) *RemoteRanker {
	timeout := 10 * time.Second
	if v := strings.TrimSpace(os.Getenv("LINKER_RANKER_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		} else if n, err2 := strconv.Atoi(v); err2 == nil {
			timeout = time.Duration(n) * time.Second
		}
	}
	return &RemoteRanker{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Rank implements Ranker.
func (r *RemoteRanker) Rank(ctx context.Context, rc Context, candidates []apptype.Handle) ([]apptype.Handle, error) {
	done := metrics.TimeRank("remote")
	success := false
	defer func() { done(success) }()

	body, err := json.Marshal(rankRequest{
		Query:      rc.Query,
		Mention:    rc.Mention,
		Candidates: candidates,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rank request: %w", err)
	}

	base, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ranker endpoint %q: %w", r.baseURL, err)
	}
	rankURL := *base
	rankURL.Path = path.Join(rankURL.Path, "/rank")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rankURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote ranking failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("remote ranking returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded rankResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode rank response: %w", err)
	}

	byID := make(map[string]apptype.Handle, len(candidates))
	for _, c := range candidates {
		byID[c.Identifier] = c
	}

	ranked := make([]apptype.Handle, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, id := range decoded.Identifiers {
		if c, ok := byID[id]; ok {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ranked = append(ranked, c)
		}
	}
	// Keep candidates the endpoint dropped.
	for _, c := range FallbackOrder(candidates) {
		if _, ok := seen[c.Identifier]; !ok {
			ranked = append(ranked, c)
		}
	}

	success = true
	return ranked, nil
}
