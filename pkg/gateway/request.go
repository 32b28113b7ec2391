package gateway

import (
	"context"
	"encoding/json"

	"github.com/grovetools/seqrkit/errors"
)

// Request binds one endpoint to a success and a failure callback. Each call
// to Get or Post invokes exactly one of them, exactly once, before returning.
type Request struct {
	client    *Client
	url       string
	onSuccess func(body json.RawMessage, params any)
	onError   func(err *errors.Error)
}

// NewRequest creates a callback-style request for url.
func (c *Client) NewRequest(url string, onSuccess func(body json.RawMessage, params any), onError func(err *errors.Error)) *Request {
	return &Request{client: c, url: url, onSuccess: onSuccess, onError: onError}
}

// Get issues a GET with the given query parameters.
func (r *Request) Get(ctx context.Context, params map[string]any) {
	resp, err := r.client.Get(ctx, r.url, params)
	r.settle(resp, err)
}

// Post issues a POST with the given body.
func (r *Request) Post(ctx context.Context, body any) {
	resp, err := r.client.Post(ctx, r.url, body)
	r.settle(resp, err)
}

func (r *Request) settle(resp Response, err error) {
	if err != nil {
		if r.onError != nil {
			r.onError(asKitError(err))
		}
		return
	}
	if r.onSuccess != nil {
		r.onSuccess(resp.Body, resp.Params)
	}
}

func asKitError(err error) *errors.Error {
	if kitErr, ok := errors.As(err); ok {
		return kitErr
	}
	return errors.Wrap(err, errors.ErrCodeInternal, err.Error())
}
