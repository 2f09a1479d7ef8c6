// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backend is the HTTP client for the question-answering service.
// It submits questions and lists the corpus sources; it does no formatting.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/philquery/internal/citations"
	"github.com/pdiddy/philquery/internal/httputil"
	"github.com/pdiddy/philquery/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "philquery/1.0"

	// maxErrorBody bounds how much of a failed response is read for
	// diagnostics.
	maxErrorBody = 64 << 10
)

// Answer is a decoded /ask response. Citations keeps the payload tagged
// with its encoding; parsing happens in the citations package.
type Answer struct {
	Text      string
	Citations citations.Raw
}

// NetworkError reports a request that never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx status or an unreadable response body.
// Detail carries the backend's error detail when one was sent.
type ServerError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: backend returned HTTP %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: backend returned HTTP %d", e.Op, e.StatusCode)
}

// Client talks to the backend at a fixed base URL. It is safe for
// concurrent use.
type Client struct {
	base       string
	userAgent  string
	apiKey     string
	maxRetries int
	http       *http.Client
	logger     *zap.Logger
}

// New returns a client for cfg. A nil logger discards output.
func New(cfg types.BackendConfig, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("backend URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{
		base:       base,
		userAgent:  ua,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxRetries: cfg.MaxRetries,
		http:       &http.Client{Timeout: timeout},
		logger:     logger.Named("backend"),
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// askRequest is the /ask request body.
type askRequest struct {
	Query      string          `json:"query"`
	ChunkCount int             `json:"chunk_count"`
	Mode       types.QueryMode `json:"mode"`
}

// askResponse is the /ask response body. The citation list arrives under
// "citations" (sometimes as a JSON-encoded string) or under "sources".
type askResponse struct {
	Answer    *string         `json:"answer"`
	Citations json.RawMessage `json:"citations"`
	Sources   json.RawMessage `json:"sources"`
}

// AskQuestion submits one question. chunkCount must lie in
// [types.MinChunkCount, types.MaxChunkCount]; the check happens before any
// I/O. Questions are not retried.
func (c *Client) AskQuestion(ctx context.Context, query string, chunkCount int, mode types.QueryMode) (Answer, error) {
	if err := types.ValidateChunkCount(chunkCount); err != nil {
		return Answer{}, err
	}
	if !mode.Valid() {
		return Answer{}, fmt.Errorf("%w %q", types.ErrInvalidMode, mode)
	}

	body, err := json.Marshal(askRequest{Query: query, ChunkCount: chunkCount, Mode: mode})
	if err != nil {
		return Answer{}, fmt.Errorf("encoding ask request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/ask", bytes.NewReader(body))
	if err != nil {
		return Answer{}, fmt.Errorf("creating ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Answer{}, &NetworkError{Op: "ask", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Answer{}, serverError("ask", resp)
	}

	var ar askResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return Answer{}, &ServerError{Op: "ask", StatusCode: resp.StatusCode, Detail: "undecodable response: " + err.Error()}
	}
	if ar.Answer == nil {
		return Answer{}, &ServerError{Op: "ask", StatusCode: resp.StatusCode, Detail: "response has no answer"}
	}

	raw := citations.Detect(ar.Citations)
	if raw.Kind == citations.KindNone {
		raw = citations.Detect(ar.Sources)
	}

	c.logger.Debug("ask completed",
		zap.String("mode", string(mode)),
		zap.Int("chunk_count", chunkCount),
		zap.Int("answer_bytes", len(*ar.Answer)),
		zap.Stringer("citations", raw.Kind),
		zap.Duration("elapsed", time.Since(start)),
	)
	return Answer{Text: *ar.Answer, Citations: raw}, nil
}

// sourceEntry is one /sources element before validation.
type sourceEntry struct {
	SourceTitle any `json:"source_title"`
	Author      any `json:"author"`
	URL         any `json:"url"`
}

// GetSources lists the corpus. Entries without a non-empty string
// source_title, author and url are dropped. Busy responses (429, 503) are
// retried with backoff since the listing is idempotent.
func (c *Client) GetSources(ctx context.Context) ([]types.AvailableSource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/sources", nil)
	if err != nil {
		return nil, fmt.Errorf("creating sources request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries, c.logger)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Op: "sources", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serverError("sources", resp)
	}

	var entries []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, &ServerError{Op: "sources", StatusCode: resp.StatusCode, Detail: "undecodable response: " + err.Error()}
	}

	sources := make([]types.AvailableSource, 0, len(entries))
	for _, e := range entries {
		var se sourceEntry
		if json.Unmarshal(e, &se) != nil {
			continue
		}
		title, ok1 := nonEmptyString(se.SourceTitle)
		author, ok2 := nonEmptyString(se.Author)
		url, ok3 := nonEmptyString(se.URL)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		sources = append(sources, types.AvailableSource{Title: title, Author: author, URL: url})
	}
	if dropped := len(entries) - len(sources); dropped > 0 {
		c.logger.Debug("dropped incomplete sources", zap.Int("dropped", dropped))
	}
	return sources, nil
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// serverError builds a ServerError from a failed response, extracting the
// "detail" member when the body is JSON.
func serverError(op string, resp *http.Response) *ServerError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &ServerError{Op: op, StatusCode: resp.StatusCode}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			se.Detail = s
		} else {
			se.Detail = string(payload.Detail)
		}
		return se
	}
	se.Detail = strings.TrimSpace(string(body))
	return se
}
