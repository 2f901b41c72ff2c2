// Package gateway delivers chat turns to the remote assistant service,
// failing over once from localhost to 127.0.0.1 (or back) when the primary
// address cannot be reached.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fakeyudi/careerchat/internal/debug"
)

// DefaultTimeout bounds each attempt, including the failover retry.
const DefaultTimeout = 15 * time.Second

// State is which base address the gateway currently uses.
type State int

const (
	StatePrimary State = iota
	StateAlternate
)

func (s State) String() string {
	if s == StateAlternate {
		return "alternate"
	}
	return "primary"
}

// Options configures a Gateway.
type Options struct {
	BaseURL string
	// AlternateURL overrides the address derived by AlternateBaseURL.
	AlternateURL string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Credentials  CredentialSource // nil sends no Authorization header
}

// Gateway sends requests to the assistant service. Once a failover retry
// succeeds the alternate address is used for the rest of the process; there
// is no fallback to the primary.
type Gateway struct {
	primary   string
	alternate string
	timeout   time.Duration
	client    *http.Client
	creds     CredentialSource

	mu    sync.Mutex
	state State
}

// New returns a Gateway in the primary state.
func New(opts Options) *Gateway {
	primary := strings.TrimRight(opts.BaseURL, "/")
	alternate := strings.TrimRight(opts.AlternateURL, "/")
	if alternate == "" {
		alternate = AlternateBaseURL(primary)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Gateway{
		primary:   primary,
		alternate: alternate,
		timeout:   timeout,
		client:    client,
		creds:     opts.Credentials,
	}
}

// AlternateBaseURL swaps localhost for 127.0.0.1, or 127.0.0.1 for localhost.
// Addresses naming neither are returned unchanged.
func AlternateBaseURL(base string) string {
	if strings.Contains(base, "localhost") {
		return strings.Replace(base, "localhost", "127.0.0.1", 1)
	}
	return strings.Replace(base, "127.0.0.1", "localhost", 1)
}

// State returns the current failover state.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// BaseURL returns the address calls are currently sent to.
func (g *Gateway) BaseURL() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentLocked()
}

func (g *Gateway) currentLocked() string {
	if g.state == StateAlternate {
		return g.alternate
	}
	return g.primary
}

// Send delivers one utterance with its prior turns and returns the reply.
// A network-level failure against the primary address is retried exactly once
// against the alternate; HTTP error statuses are never retried.
func (g *Gateway) Send(ctx context.Context, text string, prior []Turn, recruiterMode bool, task Task) (*Reply, error) {
	req := Request{
		Text:          text,
		RecruiterMode: recruiterMode,
		Task:          task,
		History:       prior,
	}

	g.mu.Lock()
	base := g.currentLocked()
	canFailover := g.state == StatePrimary && g.alternate != g.primary
	g.mu.Unlock()

	var reply Reply
	err := g.do(ctx, base, http.MethodPost, "/api/respond", req, &reply)
	if err == nil {
		return &reply, nil
	}

	var reqErr *RequestError
	if !canFailover || !errors.As(err, &reqErr) || !reqErr.Network() {
		return nil, err
	}

	debug.Event("gateway", "failover", fmt.Sprintf("%s unreachable (%v), retrying %s", base, err, g.alternate))
	var retry Reply
	if err := g.do(ctx, g.alternate, http.MethodPost, "/api/respond", req, &retry); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.state = StateAlternate
	g.mu.Unlock()
	debug.Event("gateway", "switched", g.alternate)
	return &retry, nil
}

// Call performs a JSON request against the current base address without
// failover. body and out may be nil.
func (g *Gateway) Call(ctx context.Context, method, path string, body, out any) error {
	return g.do(ctx, g.BaseURL(), method, path, body, out)
}

// Health probes GET /health on the current base address.
func (g *Gateway) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := g.Call(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// do runs one attempt bounded by the gateway timeout.
func (g *Gateway) do(ctx context.Context, base, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Message: "encoding request: " + err.Error(), Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return &RequestError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	g.authorize(ctx, req)

	resp, err := g.client.Do(req)
	if err != nil {
		msg := err.Error()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = fmt.Sprintf("timeout of %dms exceeded", g.timeout.Milliseconds())
		}
		return &RequestError{Message: msg, Err: err, network: isNetworkError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Status: resp.StatusCode, Message: "decoding response: " + err.Error(), Err: err}
	}
	return nil
}

// authorize attaches a fresh bearer token. A failed fetch is logged and the
// request goes out without one.
func (g *Gateway) authorize(ctx context.Context, req *http.Request) {
	if g.creds == nil {
		return
	}
	token, err := g.creds.Token(ctx)
	if err != nil {
		debug.Error("gateway", err, "fetching auth token")
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// statusError builds a RequestError from a non-2xx response, preferring the
// server's {"detail": ...} message.
func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := fmt.Sprintf("request failed with status code %d", resp.StatusCode)

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &body) == nil && len(body.Detail) > 0 && string(body.Detail) != "null" {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			if s != "" {
				msg = s
			}
		} else {
			// Validation errors arrive as a list of objects.
			msg = string(body.Detail)
		}
	}
	return &RequestError{Status: resp.StatusCode, Message: msg}
}
