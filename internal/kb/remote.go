package kb

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

// RemoteBackend queries a remote knowledge-base endpoint over HTTP. The
// endpoint accepts a condition set as JSON on POST <base>/query and returns
// the matching handles. Failures are request-scoped; the backend holds no
// state beyond the client.
type RemoteBackend struct {
	baseURL string
	http    *http.Client
}

// remoteQueryResponse is the wire format returned by the endpoint.
type remoteQueryResponse struct {
	Handles []apptype.Handle `json:"handles"`
}

// NewRemoteBackend creates a backend for the given base URL.
// LINKER_REMOTE_TIMEOUT overrides the HTTP timeout; it accepts a Go duration
// (e.g. "30s") or plain seconds (e.g. "30").
func NewRemoteBackend(baseURL string) *RemoteBackend {
	timeout := 30 * time.Second
	if v := strings.TrimSpace(os.Getenv("LINKER_REMOTE_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		} else if n, err2 := strconv.Atoi(v); err2 == nil {
			timeout = time.Duration(n) * time.Second
		}
	}
	return &RemoteBackend{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Open returns a connection bound to the backend's HTTP client.
func (b *RemoteBackend) Open(ctx context.Context) (Connection, error) {
	return &remoteConn{b: b}, nil
}

type remoteConn struct {
	b *RemoteBackend
}

func (c *remoteConn) Execute(ctx context.Context, conditions ConditionSet) ([]apptype.Handle, error) {
	done := metrics.TimeQuery("kb_remote_query")
	success := false
	defer func() { done(success) }()

	body, err := json.Marshal(conditions.ToWire())
	if err != nil {
		return nil, fmt.Errorf("failed to encode condition set: %w", err)
	}

	base, err := url.Parse(c.b.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote endpoint %q: %w", c.b.baseURL, err)
	}
	queryURL := *base
	queryURL.Path = path.Join(queryURL.Path, "/query")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, queryURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("remote query returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded remoteQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode remote query response: %w", err)
	}

	success = true
	return decoded.Handles, nil
}

// Close is a no-op; the HTTP client is shared.
func (c *remoteConn) Close() error { return nil }
