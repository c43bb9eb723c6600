package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient talks to a ledger gateway over JSON/HTTP.
//
// The gateway fronts one deployed contract; the service holds one HTTPClient
// per contract (custody and waste). Submit blocks server-side until the
// transaction is mined, so the HTTP timeout bounds the whole confirmation
// wait, not just the dispatch.
type HTTPClient struct {
	baseURL  string
	contract string
	httpc    *http.Client
}

// NewHTTP creates a gateway client for one contract address.
func NewHTTP(baseURL, contract string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		contract: contract,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// submitResponse mirrors the gateway's success body.
type submitResponse struct {
	TxHash   string `json:"txHash"`
	Sequence int64  `json:"sequence"`
}

// errorResponse mirrors the gateway's error body.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// Submit dispatches a signed operation and blocks until it is mined or
// terminally rejected.
//
// Classification: a 4xx with an error body is a business rejection (the
// contract refused the transition); transport errors, timeouts, and 5xx are
// infrastructure failures with unknown or retriable outcome.
func (c *HTTPClient) Submit(ctx context.Context, call Call) (*Confirmation, error) {
	body, err := json.Marshal(call)
	if err != nil {
		return nil, fmt.Errorf("marshal call: %w", err)
	}

	u := fmt.Sprintf("%s/contracts/%s/submit", c.baseURL, url.PathEscape(c.contract))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, NewInfrastructure(call.Op, "gateway unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		var out submitResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, NewInfrastructure(call.Op, "malformed gateway response", err)
		}
		return &Confirmation{TxHash: out.TxHash, Sequence: out.Sequence}, nil

	case resp.StatusCode < 500:
		return nil, NewRejection(call.Op, decodeReason(resp))

	default:
		return nil, NewInfrastructure(call.Op,
			fmt.Sprintf("gateway returned %d", resp.StatusCode), nil)
	}
}

// Query reads confirmed state for one item id. Idempotent; safe to call to
// resolve an unknown submit outcome before deciding whether to retry.
func (c *HTTPClient) Query(ctx context.Context, id string) (*State, error) {
	u := fmt.Sprintf("%s/contracts/%s/state/%s", c.baseURL, url.PathEscape(c.contract), url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, NewInfrastructure("query", "gateway unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound

	case resp.StatusCode < 300:
		var st State
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return nil, NewInfrastructure("query", "malformed gateway response", err)
		}
		return &st, nil

	case resp.StatusCode < 500:
		return nil, NewRejection("query", decodeReason(resp))

	default:
		return nil, NewInfrastructure("query",
			fmt.Sprintf("gateway returned %d", resp.StatusCode), nil)
	}
}

func decodeReason(resp *http.Response) string {
	var eb errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil || (eb.Reason == "" && eb.Error == "") {
		return fmt.Sprintf("gateway returned %d", resp.StatusCode)
	}
	if eb.Reason != "" {
		return eb.Reason
	}
	return eb.Error
}
