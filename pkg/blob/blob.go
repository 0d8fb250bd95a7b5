// Package blob holds the JSON-compatible surface of celestia-node's blob
// module: blobs, commitments, proofs and submit options.
package blob

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/celestiaorg/go-square/merkle"
	"github.com/celestiaorg/go-square/v3/inclusion"
	libshare "github.com/celestiaorg/go-square/v3/share"
	"github.com/celestiaorg/nmt"
)

// ErrInvalidBlob is returned when a payload or namespace is rejected by local
// validation before anything is sent to the node.
var ErrInvalidBlob = errors.New("invalid blob")

// Commitment is the Merkle subtree commitment for a blob.
type Commitment []byte

// Proof is a set of NMT proofs used to verify a blob inclusion.
type Proof []*nmt.Proof

// CommitmentProof matches celestia-node's blob.CommitmentProof JSON shape.
type CommitmentProof struct {
	SubtreeRoots [][]byte `json:"subtree_roots,omitempty"`
}

// DefaultMaxBlobSize is the default maximum blob size used by celestia-app
// (32 MiB). NewBlob rejects larger payloads.
const DefaultMaxBlobSize = 32 * 1_048_576 // bytes

// subtreeRootThreshold matches celestia-app appconsts.SubtreeRootThreshold.
const subtreeRootThreshold = 64

// Blob is application data published under a namespace, together with the
// commitment computed when it was built.
type Blob struct {
	*libshare.Blob `json:"blob"`

	Commitment Commitment `json:"commitment"`

	// index of the blob's first share in the EDS, -1 unless retrieved from a node.
	index int
}

// NewBlobV0 builds a share version 0 blob.
func NewBlobV0(namespace libshare.Namespace, data []byte) (*Blob, error) {
	return NewBlob(libshare.ShareVersionZero, namespace, data, nil)
}

// NewBlob builds a blob and computes its commitment.
func NewBlob(shareVersion uint8, namespace libshare.Namespace, data, signer []byte) (*Blob, error) {
	if err := namespace.ValidateForBlob(); err != nil {
		return nil, fmt.Errorf("%w: invalid namespace: %w", ErrInvalidBlob, err)
	}
	if len(data) > DefaultMaxBlobSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrInvalidBlob, len(data), DefaultMaxBlobSize)
	}

	libBlob, err := libshare.NewBlob(namespace, data, shareVersion, signer)
	if err != nil {
		return nil, fmt.Errorf("%w: build blob: %w", ErrInvalidBlob, err)
	}

	com, err := CreateCommitment(libBlob)
	if err != nil {
		return nil, err
	}

	return &Blob{
		Blob:       libBlob,
		Commitment: com,
		index:      -1,
	}, nil
}

// CreateCommitment computes the share commitment of a blob the same way
// celestia-node does.
func CreateCommitment(b *libshare.Blob) (Commitment, error) {
	com, err := inclusion.CreateCommitment(b, merkle.HashFromByteSlices, subtreeRootThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: create commitment: %w", ErrInvalidBlob, err)
	}
	return com, nil
}

// NewCommitmentProof returns the subtree roots the commitment of b is built from.
func NewCommitmentProof(b *libshare.Blob) (*CommitmentProof, error) {
	roots, err := inclusion.GenerateSubtreeRoots(b, subtreeRootThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: generate subtree roots: %w", ErrInvalidBlob, err)
	}
	return &CommitmentProof{SubtreeRoots: roots}, nil
}

// Verify reports whether the subtree roots hash to com.
func (p *CommitmentProof) Verify(com Commitment) bool {
	if p == nil || len(p.SubtreeRoots) == 0 {
		return false
	}
	return bytes.Equal(merkle.HashFromByteSlices(p.SubtreeRoots), com)
}

// Namespace returns the blob namespace.
func (b *Blob) Namespace() libshare.Namespace {
	return b.Blob.Namespace()
}

// Index returns the blob's first share index in the EDS (or -1 if unknown).
func (b *Blob) Index() int {
	return b.index
}

// EqualCommitment compares the blob's commitment with the provided one.
func (b *Blob) EqualCommitment(com Commitment) bool {
	return bytes.Equal(b.Commitment, com)
}

type jsonBlob struct {
	Namespace    []byte     `json:"namespace"`
	Data         []byte     `json:"data"`
	ShareVersion uint8      `json:"share_version"`
	Commitment   Commitment `json:"commitment"`
	Signer       []byte     `json:"signer,omitempty"`
	Index        int        `json:"index"`
}

// MarshalJSON matches celestia-node's blob JSON encoding.
func (b *Blob) MarshalJSON() ([]byte, error) {
	return json.Marshal(&jsonBlob{
		Namespace:    b.Namespace().Bytes(),
		Data:         b.Data(),
		ShareVersion: b.ShareVersion(),
		Commitment:   b.Commitment,
		Signer:       b.Signer(),
		Index:        b.index,
	})
}

// UnmarshalJSON matches celestia-node's blob JSON decoding. The commitment
// reported by the node is kept as-is.
func (b *Blob) UnmarshalJSON(data []byte) error {
	var jb jsonBlob
	if err := json.Unmarshal(data, &jb); err != nil {
		return err
	}

	ns, err := libshare.NewNamespaceFromBytes(jb.Namespace)
	if err != nil {
		return err
	}

	blob, err := NewBlob(jb.ShareVersion, ns, jb.Data, jb.Signer)
	if err != nil {
		return err
	}

	blob.Commitment = jb.Commitment
	blob.index = jb.Index
	*b = *blob
	return nil
}
