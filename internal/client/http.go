package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

const maxResponseBytes = 8 << 20

// HTTPBackend talks to the real admin API. Session cookies set by the server
// are kept in a jar and sent back on every request.
type HTTPBackend struct {
	baseURL string
	http    *http.Client
}

func NewHTTPBackend(baseURL string, timeout time.Duration) (*HTTPBackend, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}, nil
}

func (b *HTTPBackend) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	target := req.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = b.baseURL + target
	}
	if len(req.Params) > 0 {
		target += "?" + req.Params.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, TransportError("build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.http.Do(httpReq)
	if err != nil {
		return nil, TransportError("request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, TransportError("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, StatusError(resp.StatusCode, raw)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, TransportError("response is not JSON", nil)
	}
	return raw, nil
}
