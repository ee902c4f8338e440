package restreamer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// ingestPrefix is how the Restreamer UI names processes it creates.
	ingestPrefix   = "restreamer-ui:ingest:"
	snapshotSuffix = "_snapshot"

	defaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of an error response we read back for logging.
	maxErrorBody = 2048
)

// ErrNoToken is returned when a login response carries no access token.
var ErrNoToken = errors.New("access token not found in login response")

// HTTPDoer abstracts the HTTP client so tests can substitute a fake.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a minimal Restreamer API client. Network failures, non-2xx
// statuses, and malformed response bodies all surface as a single error
// outcome; callers do not distinguish them.
type Client struct {
	baseURL string
	http    HTTPDoer
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.http = doer }
}

func NewClient(serverAddress string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(serverAddress), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a bearer token via POST /api/login.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("login: %s", statusDetail(resp))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if strings.TrimSpace(lr.AccessToken) == "" {
		return "", ErrNoToken
	}
	return lr.AccessToken, nil
}

// SendCommand issues PUT /api/v3/process/{id}/command with the given verb.
// The snapshot flag targets the "_snapshot" sub-process instead of the
// primary ingest process.
func (c *Client) SendCommand(ctx context.Context, processID, token string, cmd Command, snapshot bool) error {
	body, err := json.Marshal(commandRequest{Command: cmd})
	if err != nil {
		return fmt.Errorf("encode command request: %w", err)
	}

	target := ProcessRef(processID, snapshot)
	endpoint := c.baseURL + "/api/v3/process/" + escapeProcessRef(target) + "/command"

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build command request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", cmd, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: %s", cmd, target, statusDetail(resp))
	}
	// Drain so the connection can be reused; the body content is irrelevant.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return nil
}

// ProcessRef builds the full process identifier the API addresses,
// e.g. "restreamer-ui:ingest:mystream" or "..._snapshot". The caller
// percent-encodes it when placing it in a URL path.
func ProcessRef(processID string, snapshot bool) string {
	ref := ingestPrefix + processID
	if snapshot {
		ref += snapshotSuffix
	}
	return ref
}

// escapeProcessRef percent-encodes a process reference for use as a URL path
// segment. url.PathEscape leaves ":" alone (it is a valid pchar), but the
// Restreamer API expects the colons encoded, so they are forced to "%3A".
func escapeProcessRef(ref string) string {
	return strings.ReplaceAll(url.PathEscape(ref), ":", "%3A")
}

func statusDetail(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(b))
	if detail == "" {
		return resp.Status
	}
	return resp.Status + ": " + detail
}
