// Package gateway issues JSON requests to the remote API and reports each
// outcome as either a parsed body or a single structured error.
//
// Every call makes exactly one attempt. There are no retries and no client
// timeout; callers bound a request with its context.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/logging"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries a unique id for each request.
const RequestIDHeader = "X-Request-Id"

// CSRFHeader carries the CSRF token when one is configured.
const CSRFHeader = "X-CSRFToken"

// Response is a successful API reply.
type Response struct {
	Status int
	Body   json.RawMessage
	// Params echoes the query parameters or body the request was made with.
	Params any
}

// Decode unmarshals the response body into v.
func (r Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrap(err, errors.ErrCodeDecode, "could not decode response body")
	}
	return nil
}

// JSON returns the response body as a generic object.
func (r Response) JSON() (map[string]any, error) {
	var out map[string]any
	if err := r.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Client talks to the remote API.
type Client struct {
	baseURL    string
	headers    http.Header
	httpClient *http.Client
	metrics    *Metrics
	logger     *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithCSRFToken sends token in the CSRF header.
func WithCSRFToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.headers.Set(CSRFHeader, token)
		}
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		headers:    make(http.Header),
		httpClient: &http.Client{},
		logger:     logging.NewLogger("gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET with params encoded onto the query string. String values
// are sent verbatim; anything else is JSON-encoded.
func (c *Client) Get(ctx context.Context, path string, params map[string]any) (Response, error) {
	target, err := c.resolve(path)
	if err != nil {
		return Response{}, err
	}

	if len(params) > 0 {
		query := target.Query()
		for key, value := range params {
			encoded, err := encodeParam(value)
			if err != nil {
				return Response{}, errors.Wrap(err, errors.ErrCodeInvalidInput, "could not encode query parameter").
					WithDetail("param", key)
			}
			query.Set(key, encoded)
		}
		target.RawQuery = query.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Response{}, err
	}
	resp.Params = params
	return resp, nil
}

// Post issues a POST with body serialized as JSON.
func (c *Client) Post(ctx context.Context, path string, body any) (Response, error) {
	target, err := c.resolve(path)
	if err != nil {
		return Response{}, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, errors.Wrap(err, errors.ErrCodeInvalidInput, "could not encode request body")
	}

	resp, err := c.do(ctx, http.MethodPost, target.String(), payload)
	if err != nil {
		return Response{}, err
	}
	resp.Params = body
	return resp, nil
}

func (c *Client) resolve(path string) (*url.URL, error) {
	raw := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		raw = c.baseURL + "/" + strings.TrimPrefix(path, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid request URL").WithDetail("url", raw)
	}
	return u, nil
}

func encodeParam(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte) (Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return Response{}, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to create request").
			WithDetail("url", target)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"url":        target,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(method, outcomeTransport, time.Since(start))
		logger.WithError(err).Debug("request failed without a response")
		return Response{}, errors.Transport(method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.observe(method, outcomeTransport, time.Since(start))
		return Response{}, errors.Transport(method, target, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.observe(method, outcomeHTTPError, time.Since(start))
		var body map[string]interface{}
		if len(bytes.TrimSpace(data)) > 0 {
			_ = json.Unmarshal(data, &body)
		}
		logger.WithField("status", resp.StatusCode).Debug("request returned an error status")
		return Response{}, errors.HTTPStatus(method, target, resp.StatusCode, body)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	if !json.Valid(data) {
		c.metrics.observe(method, outcomeDecodeError, time.Since(start))
		return Response{}, errors.Decode(target, fmt.Errorf("response is not valid JSON"))
	}

	c.metrics.observe(method, outcomeSuccess, time.Since(start))
	logger.WithField("status", resp.StatusCode).Debug("request succeeded")
	return Response{Status: resp.StatusCode, Body: json.RawMessage(data)}, nil
}
