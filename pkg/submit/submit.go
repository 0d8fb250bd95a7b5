// Package submit publishes a blob and reads it back from the node.
package submit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	libshare "github.com/celestiaorg/go-square/v3/share"
	"github.com/rs/zerolog"

	"github.com/evstack/celestia-rpc-client/pkg/blob"
)

var (
	// ErrSubmit wraps every failure of the round trip.
	ErrSubmit = errors.New("blob submission failed")
	// ErrRoundTripMismatch is returned when no blob read back at the
	// inclusion height matches the submitted data and commitment.
	ErrRoundTripMismatch = errors.New("submitted blob not found at inclusion height")
	// ErrUnexpectedCount is returned when the read back holds a matching blob
	// but not exactly one blob.
	ErrUnexpectedCount = errors.New("unexpected number of blobs at inclusion height")
)

// API is the part of the node client used by the round trip.
type API interface {
	Submit(ctx context.Context, blobs []*blob.Blob, opts *blob.SubmitOptions) (uint64, error)
	GetAll(ctx context.Context, height uint64, namespaces []libshare.Namespace) ([]*blob.Blob, error)
}

// Options tunes the submission. Zero values let the node decide.
type Options struct {
	// GasPrice is a hint in utia per gas unit; 0 selects the node's estimate.
	GasPrice float64
	// Timeout bounds the submit call; 0 waits for inclusion without deadline.
	Timeout time.Duration
	// Strict turns an unexpected blob count into an error.
	Strict bool

	Logger zerolog.Logger
}

// Result describes a completed round trip.
type Result struct {
	Height     uint64
	Commitment blob.Commitment
	Retrieved  []*blob.Blob
}

// RoundTrip submits data under ns, fetches the blobs at the inclusion height
// and verifies that one of them matches the submitted data and commitment.
func RoundTrip(ctx context.Context, api API, ns libshare.Namespace, data []byte, opts Options) (*Result, error) {
	b, err := blob.NewBlobV0(ns, data)
	if err != nil {
		return nil, err
	}

	submitOpts := blob.DefaultSubmitOptions().WithGasPrice(opts.GasPrice)

	submitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		submitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	height, err := api.Submit(submitCtx, []*blob.Blob{b}, &submitOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmit, err)
	}
	opts.Logger.Debug().Uint64("height", height).Msg("blob included")

	retrieved, err := api.GetAll(ctx, height, []libshare.Namespace{ns})
	if err != nil {
		return nil, fmt.Errorf("%w: read back at height %d: %w", ErrSubmit, height, err)
	}

	res := &Result{
		Height:     height,
		Commitment: b.Commitment,
		Retrieved:  retrieved,
	}

	if !containsMatch(retrieved, b) {
		return res, fmt.Errorf("%w: %w: height %d, %d blobs", ErrSubmit, ErrRoundTripMismatch, height, len(retrieved))
	}
	if len(retrieved) != 1 {
		countErr := fmt.Errorf("%w: got %d at height %d, want 1", ErrUnexpectedCount, len(retrieved), height)
		if opts.Strict {
			return res, fmt.Errorf("%w: %w", ErrSubmit, countErr)
		}
		opts.Logger.Warn().Err(countErr).Msg("round trip matched but other blobs share the namespace")
	}
	return res, nil
}

func containsMatch(blobs []*blob.Blob, want *blob.Blob) bool {
	for _, b := range blobs {
		if b != nil && bytes.Equal(b.Data(), want.Data()) && b.EqualCommitment(want.Commitment) {
			return true
		}
	}
	return false
}
