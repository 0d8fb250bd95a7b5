// Package rpc provides a client that talks to a celestia light node over
// JSON-RPC.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/rs/zerolog"
)

// DefaultAuthHeaderName is the header carrying the bearer token.
const DefaultAuthHeaderName = "Authorization"

// Client dials the celestia-node RPC "blob" and "header" modules.
type Client struct {
	Blob   BlobAPI
	Header HeaderAPI

	logger    zerolog.Logger
	addr      string
	streaming bool
	closer    jsonrpc.ClientCloser
	closeOnce sync.Once
}

// Option configures a Client.
type Option func(*options)

type options struct {
	authHeaderName string
	httpClient     *http.Client
}

// WithAuthHeaderName overrides the header used to carry the bearer token.
func WithAuthHeaderName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.authHeaderName = name
		}
	}
}

// WithHTTPClient sets the client used for http:// and https:// endpoints,
// e.g. one that propagates trace context. Websocket endpoints ignore it.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// NewClient connects to the celestia-node RPC endpoint at addr.
//
// addr must carry a scheme: ws:// or wss:// for a streaming connection that
// also supports subscriptions, http:// or https:// for unary calls only.
// A nil token sends no auth header, which requires the node to run with
// --rpc.skip-auth. A non-nil token must not be empty and is sent as a bearer
// token with every request.
func NewClient(ctx context.Context, logger zerolog.Logger, addr string, token *string, opts ...Option) (*Client, error) {
	o := options{authHeaderName: DefaultAuthHeaderName}
	for _, opt := range opts {
		opt(&o)
	}

	streaming, err := parseEndpoint(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConstruction, err)
	}

	var authHeader http.Header
	if token != nil {
		if *token == "" {
			return nil, fmt.Errorf("%w: %w", ErrConstruction, ErrEmptyAuthToken)
		}
		authHeader = http.Header{o.authHeaderName: []string{"Bearer " + *token}}
	}

	client := &Client{
		logger:    logger.With().Str("component", "rpc_client").Logger(),
		addr:      addr,
		streaming: streaming,
	}

	var rpcOpts []jsonrpc.Option
	if o.httpClient != nil {
		rpcOpts = append(rpcOpts, jsonrpc.WithHTTPClient(o.httpClient))
	}

	// one connection serves every module, the method tags carry the prefix
	closer, err := jsonrpc.NewMergeClient(ctx, addr, "", modules(client), authHeader, rpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to %s: %w", ErrConstruction, addr, err)
	}
	client.closer = closer

	client.logger.Debug().
		Str("addr", addr).
		Bool("streaming", streaming).
		Bool("auth", token != nil).
		Msg("connected to celestia node")
	return client, nil
}

// Close closes the connection. It is safe to call more than once.
func (c *Client) Close() {
	if c == nil || c.closer == nil {
		return
	}
	c.closeOnce.Do(c.closer)
}

// Addr returns the endpoint the client was built for.
func (c *Client) Addr() string {
	return c.addr
}

// Streaming reports whether the transport supports server pushed subscriptions.
func (c *Client) Streaming() bool {
	return c.streaming
}

func parseEndpoint(addr string) (bool, error) {
	if addr == "" {
		return false, errors.New("address cannot be empty")
	}
	u, err := url.Parse(addr)
	if err != nil {
		return false, fmt.Errorf("invalid url %q: %w", addr, err)
	}
	if u.Host == "" {
		return false, fmt.Errorf("invalid url %q: missing scheme or host", addr)
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		return true, nil
	case "http", "https":
		return false, nil
	default:
		return false, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func modules(client *Client) []interface{} {
	return []interface{}{
		&client.Blob.Internal,
		&client.Header.Internal,
	}
}
