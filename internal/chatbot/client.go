package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Upstream failure classes. Handlers map ErrUnavailable to 503 and
// ErrUpstream to 500.
var (
	ErrUnavailable = errors.New("chatbot service unavailable")
	ErrUpstream    = errors.New("chatbot service error")
)

// AskRequest is the payload sent to the NLP/SQL service.
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse models the NLP/SQL service's answer.
type AskResponse struct {
	TranslatedQuery string           `json:"translated_query"`
	SQL             string           `json:"sql"`
	Results         []map[string]any `json:"results"`
	ResultCount     int              `json:"result_count"`
	Model           string           `json:"model"`
}

// Client talks to the external NLP/SQL-generation service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with the given upstream base URL and request
// timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ask forwards a sanitized query to the upstream service. Connection
// failures and timeouts come back wrapped in ErrUnavailable; HTTP-level
// failures in ErrUpstream.
func (c *Client) Ask(ctx context.Context, query string) (*AskResponse, error) {
	jsonBody, err := json.Marshal(AskRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: received status code %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrUpstream, err)
	}

	var askResp AskResponse
	if err := json.Unmarshal(body, &askResp); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %v", ErrUpstream, err)
	}

	if askResp.ResultCount == 0 && len(askResp.Results) > 0 {
		askResp.ResultCount = len(askResp.Results)
	}

	return &askResp, nil
}

// isConnectionError distinguishes unreachable-service failures (refused
// connections, DNS failures, timeouts) from protocol-level ones.
func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
