package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	libshare "github.com/celestiaorg/go-square/v3/share"

	"github.com/evstack/celestia-rpc-client/pkg/blob"
)

// BlobAPI mirrors celestia-node's blob module.
// jsonrpc.NewMergeClient wires Internal.* to RPC stubs; rpc_method carries
// the module prefix so every module shares one connection.
type BlobAPI struct {
	Internal struct {
		Submit func(
			context.Context,
			[]*blob.Blob,
			*blob.SubmitOptions,
		) (uint64, error) `perm:"write" rpc_method:"blob.Submit"`
		Get func(
			context.Context,
			uint64,
			libshare.Namespace,
			blob.Commitment,
		) (*blob.Blob, error) `perm:"read" rpc_method:"blob.Get"`
		GetAll func(
			context.Context,
			uint64,
			[]libshare.Namespace,
		) ([]*blob.Blob, error) `perm:"read" rpc_method:"blob.GetAll"`
		GetProof func(
			context.Context,
			uint64,
			libshare.Namespace,
			blob.Commitment,
		) (*blob.Proof, error) `perm:"read" rpc_method:"blob.GetProof"`
		Included func(
			context.Context,
			uint64,
			libshare.Namespace,
			*blob.Proof,
			blob.Commitment,
		) (bool, error) `perm:"read" rpc_method:"blob.Included"`
		GetCommitmentProof func(
			context.Context,
			uint64,
			libshare.Namespace,
			[]byte,
		) (*blob.CommitmentProof, error) `perm:"read" rpc_method:"blob.GetCommitmentProof"`
	}
}

// GetAll returns every blob published at height under any of the given
// namespaces. A height with no matching blobs yields an empty, non-nil slice.
// Failures wrap ErrBlobQuery; a height the node has not reached yet also
// matches ErrHeightFromFuture.
func (c *Client) GetAll(ctx context.Context, height uint64, namespaces []libshare.Namespace) ([]*blob.Blob, error) {
	blobs, err := c.Blob.Internal.GetAll(ctx, height, namespaces)
	if err != nil {
		switch {
		case isNodeError(err, ErrBlobNotFound):
			return []*blob.Blob{}, nil
		case isNodeError(err, ErrHeightFromFuture):
			return nil, fmt.Errorf("%w: height %d: %w", ErrBlobQuery, height, ErrHeightFromFuture)
		default:
			return nil, fmt.Errorf("%w: height %d: %w", ErrBlobQuery, height, err)
		}
	}
	if blobs == nil {
		blobs = []*blob.Blob{}
	}

	c.logger.Debug().
		Uint64("height", height).
		Int("num_blobs", len(blobs)).
		Msg("retrieved blobs")
	return blobs, nil
}

// Submit publishes blobs and returns the height they were included at.
// Nil opts lets the node pick gas price and limit.
func (c *Client) Submit(ctx context.Context, blobs []*blob.Blob, opts *blob.SubmitOptions) (uint64, error) {
	if len(blobs) == 0 {
		return 0, errors.New("no blobs to submit")
	}
	if opts == nil {
		opts = blob.DefaultSubmitOptions()
	}

	height, err := c.Blob.Internal.Submit(ctx, blobs, opts)
	if err != nil {
		switch {
		case isNodeError(err, ErrTxTimedOut):
			return 0, fmt.Errorf("submit blobs: %w", ErrTxTimedOut)
		case isNodeError(err, ErrBlobSizeOverLimit):
			return 0, fmt.Errorf("submit blobs: %w", ErrBlobSizeOverLimit)
		default:
			return 0, fmt.Errorf("submit blobs: %w", err)
		}
	}

	c.logger.Debug().
		Uint64("height", height).
		Int("num_blobs", len(blobs)).
		Msg("blobs submitted")
	return height, nil
}

// Get fetches a single blob by namespace and commitment.
func (c *Client) Get(ctx context.Context, height uint64, ns libshare.Namespace, commitment blob.Commitment) (*blob.Blob, error) {
	b, err := c.Blob.Internal.Get(ctx, height, ns, commitment)
	if err != nil {
		if isNodeError(err, ErrBlobNotFound) {
			return nil, fmt.Errorf("height %d: %w", height, ErrBlobNotFound)
		}
		return nil, fmt.Errorf("get blob at height %d: %w", height, err)
	}
	return b, nil
}

// GetProof fetches the inclusion proof of a blob.
func (c *Client) GetProof(ctx context.Context, height uint64, ns libshare.Namespace, commitment blob.Commitment) (*blob.Proof, error) {
	proof, err := c.Blob.Internal.GetProof(ctx, height, ns, commitment)
	if err != nil {
		return nil, fmt.Errorf("get proof at height %d: %w", height, err)
	}
	return proof, nil
}

// Included asks the node to verify a proof against the commitment.
func (c *Client) Included(ctx context.Context, height uint64, ns libshare.Namespace, proof *blob.Proof, commitment blob.Commitment) (bool, error) {
	ok, err := c.Blob.Internal.Included(ctx, height, ns, proof, commitment)
	if err != nil {
		return false, fmt.Errorf("check inclusion at height %d: %w", height, err)
	}
	return ok, nil
}

// GetCommitmentProof fetches the subtree roots behind a share commitment.
func (c *Client) GetCommitmentProof(ctx context.Context, height uint64, ns libshare.Namespace, commitment blob.Commitment) (*blob.CommitmentProof, error) {
	proof, err := c.Blob.Internal.GetCommitmentProof(ctx, height, ns, commitment)
	if err != nil {
		if isNodeError(err, ErrBlobNotFound) {
			return nil, fmt.Errorf("height %d: %w", height, ErrBlobNotFound)
		}
		return nil, fmt.Errorf("get commitment proof at height %d: %w", height, err)
	}
	return proof, nil
}

// isNodeError reports whether err carries the message of a known node error.
func isNodeError(err, target error) bool {
	if errors.Is(err, target) {
		return true
	}
	return strings.Contains(err.Error(), target.Error())
}
