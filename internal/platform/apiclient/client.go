package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"clinic/internal/common"
)

const maxBodyBytes = 4 << 20

// TokenSource supplies the bearer token for a request. ok is false when
// no token is stored.
type TokenSource interface {
	Token(ctx context.Context) (token string, ok bool, err error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestOptions struct {
	anonymous bool
}

type RequestOption func(*requestOptions)

// WithoutAuth sends the request with no Authorization header even if a
// token is stored (register, login).
func WithoutAuth() RequestOption {
	return func(o *requestOptions) { o.anonymous = true }
}

type rawEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Do sends body as JSON to path and decodes the envelope's data into out
// (out may be nil). Failures are *common.EnvelopeError when the server
// answered with success=false, *common.TransportError otherwise.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}, opts ...RequestOption) error {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &common.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if !ro.anonymous && c.tokens != nil {
		token, ok, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("apiclient: read token: %w", err)
		}
		if ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("apiclient: %s failed after %v: %v", op, time.Since(start), err)
		return &common.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &common.TransportError{Op: op, Err: err}
	}
	log.Printf("apiclient: %s -> %d (%v)", op, resp.StatusCode, time.Since(start))

	return decodeEnvelope(op, resp.StatusCode, data, out)
}

func decodeEnvelope(op string, status int, data []byte, out interface{}) error {
	var env rawEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &common.TransportError{Op: op, Err: fmt.Errorf("status %d: unparseable body: %w", status, err)}
	}

	if env.Success == nil {
		// Some handlers answer bad input with a bare {"error": "..."}.
		if env.Error != "" && status >= 400 && status < 500 {
			return common.NewEnvelopeError(status, env.Error)
		}
		return &common.TransportError{Op: op, Err: fmt.Errorf("status %d: response is not an envelope", status)}
	}

	if !*env.Success {
		return common.NewEnvelopeError(status, env.Error)
	}

	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &common.TransportError{Op: op, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}
