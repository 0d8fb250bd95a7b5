package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/evstack/celestia-rpc-client/pkg/header"
)

// HeaderAPI mirrors celestia-node's header module.
// jsonrpc.NewMergeClient wires Internal.* to RPC stubs; rpc_method carries
// the module prefix so every module shares one connection.
type HeaderAPI struct {
	Internal struct {
		GetByHeight func(
			context.Context,
			uint64,
		) (*header.ExtendedHeader, error) `perm:"read" rpc_method:"header.GetByHeight"`
		LocalHead func(
			context.Context,
		) (*header.ExtendedHeader, error) `perm:"read" rpc_method:"header.LocalHead"`
		NetworkHead func(
			context.Context,
		) (*header.ExtendedHeader, error) `perm:"read" rpc_method:"header.NetworkHead"`
		// frames are decoded by the Subscription so a single bad header
		// does not tear down the stream
		Subscribe func(
			context.Context,
		) (<-chan json.RawMessage, error) `perm:"read" rpc_method:"header.Subscribe"`
	}
}

// GetByHeight retrieves a header at the specified height.
func (c *Client) GetByHeight(ctx context.Context, height uint64) (*header.ExtendedHeader, error) {
	h, err := c.Header.Internal.GetByHeight(ctx, height)
	if err != nil {
		if isNodeError(err, ErrHeightFromFuture) {
			return nil, fmt.Errorf("height %d: %w", height, ErrHeightFromFuture)
		}
		return nil, fmt.Errorf("get header at height %d: %w", height, err)
	}
	return h, nil
}

// LocalHead retrieves the locally synced head header.
func (c *Client) LocalHead(ctx context.Context) (*header.ExtendedHeader, error) {
	h, err := c.Header.Internal.LocalHead(ctx)
	if err != nil {
		return nil, fmt.Errorf("get local head: %w", err)
	}
	return h, nil
}

// NetworkHead retrieves the network head header.
func (c *Client) NetworkHead(ctx context.Context) (*header.ExtendedHeader, error) {
	h, err := c.Header.Internal.NetworkHead(ctx)
	if err != nil {
		return nil, fmt.Errorf("get network head: %w", err)
	}
	return h, nil
}

// SubscribeHeaders opens a subscription to newly synced headers. It requires
// a streaming transport and fails with ErrStreamingUnsupported otherwise.
// The subscription ends when ctx is done or the connection drops.
func (c *Client) SubscribeHeaders(ctx context.Context) (*Subscription, error) {
	if !c.streaming {
		return nil, ErrStreamingUnsupported
	}

	frames, err := c.Header.Internal.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscribe, err)
	}

	c.logger.Debug().Msg("subscribed to headers")
	return NewSubscription(frames), nil
}

// Event is one element of a header subscription: either a decoded header or
// the error that prevented decoding it.
type Event struct {
	Header *header.ExtendedHeader
	Err    error
}

// Subscription is an ordered stream of headers as pushed by the node.
type Subscription struct {
	frames <-chan json.RawMessage
}

// NewSubscription wraps a channel of raw header frames. Closing the channel
// ends the subscription.
func NewSubscription(frames <-chan json.RawMessage) *Subscription {
	return &Subscription{frames: frames}
}

// Next blocks until the next element arrives. It returns false once the
// stream has ended or ctx is done. Frames that fail to decode are delivered
// as an Event carrying an error wrapping ErrHeaderStream.
func (s *Subscription) Next(ctx context.Context) (Event, bool) {
	select {
	case <-ctx.Done():
		return Event{}, false
	case frame, ok := <-s.frames:
		if !ok {
			return Event{}, false
		}
		h, err := header.Decode(frame)
		if err != nil {
			return Event{Err: fmt.Errorf("%w: %w", ErrHeaderStream, err)}, true
		}
		return Event{Header: h}, true
	}
}

// All ranges over the subscription until it ends.
func (s *Subscription) All(ctx context.Context) iter.Seq2[*header.ExtendedHeader, error] {
	return func(yield func(*header.ExtendedHeader, error) bool) {
		for {
			ev, ok := s.Next(ctx)
			if !ok {
				return
			}
			if !yield(ev.Header, ev.Err) {
				return
			}
		}
	}
}
