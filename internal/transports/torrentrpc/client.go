// Package torrentrpc implements the coordinator's TORRENT transport: a
// Checker and Updater pair that drive a BitTorrent client over its
// aria2-compatible JSON-RPC interface. It is gated behind a sampled
// registry.Policy (spec.md §9 Open Questions: only a fraction of
// installations should pull dev builds this way).
//
// Grounded on the teacher's internal/aria2.Client +
// internal/downloader/aria2.Adapter.call: same jsonrpc 2.0 request/response
// envelope, "token:<secret>" auth parameter, and net/http.Client transport.
package torrentrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Client is a minimal JSON-RPC client for an aria2-compatible torrent
// daemon.
type Client struct {
	baseURL *url.URL
	secret  string
	http    *http.Client
}

// NewClientFromEnv builds a Client from TORRENT_RPC_URL/TORRENT_RPC_SECRET/
// TORRENT_RPC_TIMEOUT_MS, mirroring the teacher's ARIA2_RPC_URL/
// ARIA2_SECRET/ARIA2_TIMEOUT_MS convention for the existing aria2 client.
func NewClientFromEnv() (*Client, error) {
	ms := 3000
	if v := os.Getenv("TORRENT_RPC_TIMEOUT_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ms = parsed
		}
	}

	secret := os.Getenv("TORRENT_RPC_SECRET")

	rawURL := os.Getenv("TORRENT_RPC_URL")
	if rawURL == "" {
		rawURL = "http://127.0.0.1:6900/jsonrpc"
	}

	baseURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: time.Duration(ms) * time.Millisecond},
	}, nil
}

func (c *Client) BaseURL() *url.URL  { return c.baseURL }
func (c *Client) Secret() string     { return c.secret }
func (c *Client) HTTP() *http.Client { return c.http }

type rpcReq struct {
	Jsonrpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	ID      string        `json:"id"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcResp struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// tokenParam prepends the "token:<secret>" auth parameter aria2-compatible
// daemons expect, when a secret is configured.
func (c *Client) tokenParam() []interface{} {
	if c.secret != "" {
		return []interface{}{"token:" + c.secret}
	}
	return nil
}

// Call invokes method with params (after the auth token, if any) and
// returns its raw JSON result.
func (c *Client) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	full := append(c.tokenParam(), params...)
	body, err := json.Marshal(rpcReq{Jsonrpc: "2.0", Method: method, ID: "torrus", Params: full})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("torrent rpc http %d: %s", resp.StatusCode, string(b))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var rr rpcResp
	if err := json.Unmarshal(b, &rr); err != nil {
		return nil, fmt.Errorf("torrent rpc decode: %w (%s)", err, string(b))
	}
	if rr.Error != nil {
		return nil, fmt.Errorf("torrent rpc error %d: %s", rr.Error.Code, rr.Error.Message)
	}
	return rr.Result, nil
}

// AddURI starts a new download for uri (a magnet link or .torrent URL) and
// returns the daemon-assigned GID.
func (c *Client) AddURI(ctx context.Context, uri, dir string) (string, error) {
	opts := map[string]string{}
	if dir != "" {
		opts["dir"] = dir
	}
	res, err := c.Call(ctx, "aria2.addUri", []interface{}{[]string{uri}, opts})
	if err != nil {
		return "", err
	}
	var gid string
	if err := json.Unmarshal(res, &gid); err != nil {
		return "", fmt.Errorf("parse addUri result: %w", err)
	}
	return gid, nil
}

// TellStatus reports status/completedLength/totalLength for gid.
func (c *Client) TellStatus(ctx context.Context, gid string) (status string, completed, total int64, err error) {
	res, err := c.Call(ctx, "aria2.tellStatus", []interface{}{gid, []string{"status", "completedLength", "totalLength"}})
	if err != nil {
		return "", 0, 0, err
	}
	var v struct {
		Status          string `json:"status"`
		CompletedLength string `json:"completedLength"`
		TotalLength     string `json:"totalLength"`
	}
	if err := json.Unmarshal(res, &v); err != nil {
		return "", 0, 0, fmt.Errorf("parse tellStatus result: %w", err)
	}
	completed, _ = strconv.ParseInt(v.CompletedLength, 10, 64)
	total, _ = strconv.ParseInt(v.TotalLength, 10, 64)
	return v.Status, completed, total, nil
}

// Remove cancels an in-flight download.
func (c *Client) Remove(ctx context.Context, gid string) error {
	_, err := c.Call(ctx, "aria2.remove", []interface{}{gid})
	return err
}
