package client

import (
	"bytes"
	"context"
	"fmt"
	"github.com/adrodb/adrodb/lib/collection"
	"github.com/adrodb/adrodb/rest/codec"
	"github.com/adrodb/adrodb/rest/common"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	// defaultTimeoutSecond applies when the config leaves TimeoutSecond unset.
	defaultTimeoutSecond = 30
	// retryBackoff is the base delay between retry attempts, scaled linearly.
	retryBackoff = 100 * time.Millisecond
	// maxResponseSize caps response bodies. Values are scalars, not blobs.
	maxResponseSize = 1 << 20
)

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

// Client talks to a single adrodb REST server.
type Client struct {
	config common.ClientConfig
	codec  codec.ICodec
	http   *http.Client
	base   string
}

// New creates a client for the endpoint in the config.
//
// Usage:
//
//	c, err := client.New(common.ClientConfig{
//		Endpoint:      "unix:///tmp/adrodb.sock",
//		TimeoutSecond: 5,
//		Codec:         "msgpack",
//	})
func New(config common.ClientConfig) (*Client, error) {
	network, addr, err := common.ParseEndpoint(config.Endpoint)
	if err != nil {
		return nil, err
	}
	c, err := codec.NewCodec(config.Codec)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeoutSecond * time.Second
	}

	transport := &http.Transport{}
	var base string
	switch network {
	case "unix":
		// The host part of the URL is a placeholder, the dialer always
		// connects to the configured socket.
		base = "http://unix"
		socket := addr
		transport.DialContext = func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socket)
		}
	default:
		base = "http://" + addr
	}

	return &Client{
		config: config,
		codec:  c,
		http:   &http.Client{Timeout: timeout, Transport: transport},
		base:   base,
	}, nil
}

// Close releases pooled connections. The client must not be used afterwards.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// CreateCollection materializes a collection on the server. Like the
// underlying DDL this is idempotent.
func (c *Client) CreateCollection(ctx context.Context, name string) error {
	var resp common.CollectionResponse
	return c.do(ctx, http.MethodPost, "/api/v1/collections", common.CollectionRequest{Name: name}, &resp)
}

// Health probes the server's liveness endpoint.
func (c *Client) Health(ctx context.Context) (common.HealthResponse, error) {
	var resp common.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	return resp, err
}

// Collection returns a handle for the named collection. No request is made;
// name validation and existence checks happen server side on first use.
func (c *Client) Collection(name string) *RemoteCollection {
	return &RemoteCollection{client: c, name: name}
}

// --------------------------------------------------------------------------
// Request Plumbing
// --------------------------------------------------------------------------

// do runs one request against the server. in and out may be nil. Transport
// errors are retried with linear backoff, server responses are final.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = c.codec.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempts := c.config.RetryCount + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", c.codec.ContentType())
		req.Header.Set("Accept", c.codec.ContentType())

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		return c.handleResponse(resp, out)
	}
	return fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) handleResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return c.errorFromResponse(resp, body)
	}
	if out == nil {
		return nil
	}
	if err := c.codec.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorFromResponse rebuilds the server's failure classification. The body
// is preferred, the error code header covers bodiless responses (HEAD).
// Codes outside the classification stay plain errors.
func (c *Client) errorFromResponse(resp *http.Response, body []byte) error {
	var wire common.ErrorResponse
	if len(body) > 0 {
		_ = c.codec.Unmarshal(body, &wire)
	}
	if wire.Code == "" {
		wire.Code = resp.Header.Get(common.HeaderErrorCode)
	}

	code := collection.ParseCode(wire.Code)
	if code == collection.CodeUnknown {
		if wire.Message != "" {
			return fmt.Errorf("server answered %d: %s", resp.StatusCode, wire.Message)
		}
		return fmt.Errorf("server answered %d", resp.StatusCode)
	}
	return &collection.Error{Code: code, Msg: wire.Message}
}
