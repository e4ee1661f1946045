// Package client is the dashboard's access layer to the admin API. The same
// verb-shaped calls are served either by the HTTP backend or by the in-process
// mock in package mockapi.
package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

type Request struct {
	Method string
	Path   string
	Params url.Values
	Body   []byte
}

// Backend executes a request and returns the JSON body, nil for an empty body.
// Failures must be *Error values.
type Backend interface {
	Do(ctx context.Context, req Request) (json.RawMessage, error)
}

type Response struct {
	Data json.RawMessage
}

func (r Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return TransportError("empty response body", nil)
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return TransportError("decode response", err)
	}
	return nil
}

type Client struct {
	backend Backend
}

func New(backend Backend) *Client {
	return &Client{backend: backend}
}

func (c *Client) Get(ctx context.Context, path string, params url.Values) (Response, error) {
	return c.do(ctx, Request{Method: "GET", Path: path, Params: params})
}

func (c *Client) Post(ctx context.Context, path string, payload any) (Response, error) {
	body, err := encode(payload)
	if err != nil {
		return Response{}, err
	}
	return c.do(ctx, Request{Method: "POST", Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, payload any) (Response, error) {
	body, err := encode(payload)
	if err != nil {
		return Response{}, err
	}
	return c.do(ctx, Request{Method: "PUT", Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (Response, error) {
	return c.do(ctx, Request{Method: "DELETE", Path: path})
}

func (c *Client) do(ctx context.Context, req Request) (Response, error) {
	data, err := c.backend.Do(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if len(strings.TrimSpace(string(data))) == 0 || string(data) == "null" {
		data = nil
	}
	return Response{Data: data}, nil
}

func encode(payload any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, TransportError("encode request", err)
	}
	return body, nil
}
