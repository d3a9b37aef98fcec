package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// forwardedHeaders are copied from the incoming request to the server.
var forwardedHeaders = []string{"Content-Type", "Accept", "X-Sharer-User-Id", "X-Request-Id"}

// relayedHeaders are copied from the server response back to the caller,
// next to Content-Type.
var relayedHeaders = []string{"Content-Disposition", "X-Request-Id"}

// Upstream sends a request to the server tier.
type Upstream interface {
	Forward(ctx context.Context, method, uri string, header http.Header, body []byte) (*UpstreamResponse, error)
}

// UpstreamResponse is the server's answer, relayed as is.
type UpstreamResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client is a pooled HTTP client bound to the server base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxIdleConnsPerHost = 32
	transport.IdleConnTimeout = 90 * time.Second

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (c *Client) Forward(ctx context.Context, method, uri string, header http.Header, body []byte) (*UpstreamResponse, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+uri, reader)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	for _, name := range forwardedHeaders {
		if v := header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream %s %s: %w", method, uri, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	return &UpstreamResponse{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}
