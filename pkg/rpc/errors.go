package rpc

import "errors"

var (
	// ErrConstruction wraps every failure to build a client: bad URL,
	// unsupported scheme, unreachable endpoint or rejected handshake.
	ErrConstruction = errors.New("failed creating rpc client")
	// ErrEmptyAuthToken is returned when a token is present but empty.
	// An absent token must be passed as nil.
	ErrEmptyAuthToken = errors.New("auth token must not be empty")
	// ErrStreamingUnsupported is returned when subscribing over a
	// request/response only transport.
	ErrStreamingUnsupported = errors.New("subscriptions require a websocket endpoint (ws:// or wss://)")
	// ErrSubscribe wraps a failure to open the header subscription.
	ErrSubscribe = errors.New("header subscription")
	// ErrHeaderStream wraps a failure to receive or decode one header of an
	// open subscription. The stream continues past it.
	ErrHeaderStream = errors.New("header stream")
	// ErrBlobQuery wraps a failure to fetch blobs at a height.
	ErrBlobQuery = errors.New("blob query")
)

// Errors reported by celestia-node, matched by message because the RPC
// layer flattens them into strings.
var (
	ErrBlobNotFound      = errors.New("blob: not found")
	ErrHeightFromFuture  = errors.New("given height is from the future")
	ErrTxTimedOut        = errors.New("timed out waiting for tx to be included in a block")
	ErrBlobSizeOverLimit = errors.New("blob: over size limit")
)
