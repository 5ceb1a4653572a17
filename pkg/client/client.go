package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "hybridrag-go-client"
	maxErrorBody     = 64 << 10
)

// Client calls the hybridrag HTTP API. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	obs       *observer
}

// New creates a Client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("hybridrag: invalid server URL %q", baseURL)
	}

	cfg := &clientConfig{timeout: defaultTimeout, userAgent: defaultUserAgent}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   strings.TrimRight(u.String(), "/"),
		http:      hc,
		userAgent: cfg.userAgent,
		obs:       obs,
	}, nil
}

// AddChunks ingests chunks as one atomic batch.
func (c *Client) AddChunks(ctx context.Context, chunks []Chunk) (res AddResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("add_chunks", start, err) }()

	var out addChunksResponse
	hdr, err := c.do(ctx, http.MethodPost, "/chunks", addChunksRequest{Chunks: chunks}, &out, http.StatusCreated)
	if err != nil {
		return AddResult{}, err
	}
	return AddResult{Message: out.Message, EmbeddingTokens: tokens(hdr)}, nil
}

// Search returns ranked chunks for q.
func (c *Client) Search(ctx context.Context, q string, opts ...SearchOption) (res SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	var out searchResponse
	hdr, err := c.do(ctx, http.MethodPost, "/search", newSearchRequest(q, opts), &out, http.StatusOK)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Results: out.Results, EmbeddingTokens: tokens(hdr)}, nil
}

// Answer retrieves context for q and returns the LLM answer grounded in it.
func (c *Client) Answer(ctx context.Context, q string, opts ...SearchOption) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("answer", start, err) }()

	if _, err = c.do(ctx, http.MethodPost, "/answer", newSearchRequest(q, opts), &ans, http.StatusOK); err != nil {
		return Answer{}, err
	}
	return ans, nil
}

// Health fetches the dependency report. A degraded server is not an error; check HealthStatus.Healthy.
func (c *Client) Health(ctx context.Context) (h HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	if _, err = c.do(ctx, http.MethodGet, "/health", nil, &h, http.StatusOK, http.StatusServiceUnavailable); err != nil {
		return HealthStatus{}, err
	}
	return h, nil
}

func newSearchRequest(q string, opts []SearchOption) searchRequest {
	req := searchRequest{Q: q}
	for _, o := range opts {
		o(&req)
	}
	return req
}

// do sends one JSON request and decodes the body into out when the status is one of ok.
func (c *Client) do(ctx context.Context, method, path string, in, out any, ok ...int) (http.Header, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("hybridrag: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("hybridrag: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hybridrag: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !statusIn(resp.StatusCode, ok) {
		return resp.Header, decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, fmt.Errorf("hybridrag: decode %s response: %w", path, err)
	}
	return resp.Header, nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && (er.Code != "" || er.Message != "") {
		apiErr.Code = er.Code
		apiErr.Message = er.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func statusIn(code int, ok []int) bool {
	for _, c := range ok {
		if c == code {
			return true
		}
	}
	return false
}

func tokens(h http.Header) int {
	n, err := strconv.Atoi(h.Get("X-Embedding-Tokens"))
	if err != nil {
		return 0
	}
	return n
}

// IsRetryable reports whether err is a transient server or transport failure.
// Ingestion is all-or-nothing, so a failed AddChunks can be resent as is.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusBadGateway ||
			apiErr.StatusCode == http.StatusServiceUnavailable ||
			apiErr.StatusCode == http.StatusGatewayTimeout ||
			apiErr.StatusCode == http.StatusTooManyRequests
	}
	return err != nil && !errors.Is(err, context.Canceled)
}
