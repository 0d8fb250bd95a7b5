// Package localnode is an in-memory stand-in for a celestia light node.
// Not production ready! Intended only for testing and local development.
//
// It produces blocks on a timer or on blob submission and serves them over
// the same blob and header JSON-RPC modules a real node exposes, including
// header subscriptions over websocket.
package localnode

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	libshare "github.com/celestiaorg/go-square/v3/share"
	"github.com/rs/zerolog"

	"github.com/evstack/celestia-rpc-client/pkg/blob"
	"github.com/evstack/celestia-rpc-client/pkg/header"
)

const (
	// DefaultBlockTime is the interval between empty blocks.
	DefaultBlockTime = time.Second
	// DefaultChainID is reported in every produced header.
	DefaultChainID = "private"
	// DefaultMaxBlobSize is the largest blob Submit accepts.
	DefaultMaxBlobSize uint64 = 2 * 1024 * 1024 // 2MB

	subscriberBuffer = 64
)

// Errors returned over RPC. Their messages match celestia-node so clients
// classify them the same way.
var (
	ErrBlobNotFound      = errors.New("blob: not found")
	ErrHeightFromFuture  = errors.New("given height is from the future")
	ErrBlobSizeOverLimit = errors.New("blob: over size limit")
	ErrNodeClosed        = errors.New("node is closed")
)

// Node holds the chain state of the local node.
type Node struct {
	mu          sync.Mutex // protects everything below
	chainID     string
	height      uint64
	blockTime   time.Duration
	maxBlobSize uint64
	blobs       map[uint64][]*blob.Blob
	headers     map[uint64]*header.ExtendedHeader
	failures    map[uint64]error
	subscribers map[uint64]chan json.RawMessage
	nextSubID   uint64
	closed      bool

	logger zerolog.Logger
}

// NewNode creates a node at height 0. No block exists until the first one
// is produced.
func NewNode(logger zerolog.Logger, opts ...func(*Node) *Node) *Node {
	n := &Node{
		chainID:     DefaultChainID,
		blockTime:   DefaultBlockTime,
		maxBlobSize: DefaultMaxBlobSize,
		blobs:       make(map[uint64][]*blob.Blob),
		headers:     make(map[uint64]*header.ExtendedHeader),
		failures:    make(map[uint64]error),
		subscribers: make(map[uint64]chan json.RawMessage),
		logger:      logger.With().Str("component", "local_node").Logger(),
	}
	for _, f := range opts {
		n = f(n)
	}
	return n
}

// WithBlockTime sets the interval between produced blocks. A non-positive
// value disables the timer; blocks are then only produced by Submit and
// ProduceBlock.
func WithBlockTime(blockTime time.Duration) func(*Node) *Node {
	return func(n *Node) *Node {
		n.blockTime = blockTime
		return n
	}
}

// WithMaxBlobSize sets the max blob size of the node.
func WithMaxBlobSize(maxBlobSize uint64) func(*Node) *Node {
	return func(n *Node) *Node {
		n.maxBlobSize = maxBlobSize
		return n
	}
}

// WithChainID sets the chain id reported in headers.
func WithChainID(chainID string) func(*Node) *Node {
	return func(n *Node) *Node {
		n.chainID = chainID
		return n
	}
}

// Start produces an empty block every block time until ctx is done.
func (n *Node) Start(ctx context.Context) {
	if n.blockTime <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(n.blockTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := n.ProduceBlock(); err != nil {
					return
				}
			}
		}
	}()
}

// Height returns the latest produced height.
func (n *Node) Height() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.height
}

// ProduceBlock produces a block holding blobs and announces its header to
// every subscriber.
func (n *Node) ProduceBlock(blobs ...*blob.Blob) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return 0, ErrNodeClosed
	}
	return n.commitLocked(blobs)
}

// FailGetAll makes GetAll at height fail with err. A nil err clears it.
func (n *Node) FailGetAll(height uint64, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err == nil {
		delete(n.failures, height)
		return
	}
	n.failures[height] = err
}

// PublishRaw pushes a frame to subscribers without producing a block.
func (n *Node) PublishRaw(frame json.RawMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcastLocked(frame)
}

// Subscribe registers a header subscriber. The returned channel is closed
// when ctx is done or the node is closed.
func (n *Node) Subscribe(ctx context.Context) (<-chan json.RawMessage, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, ErrNodeClosed
	}

	id := n.nextSubID
	n.nextSubID++
	ch := make(chan json.RawMessage, subscriberBuffer)
	n.subscribers[id] = ch

	go func() {
		<-ctx.Done()
		n.unsubscribe(id)
	}()

	n.logger.Debug().Uint64("subscriber", id).Msg("header subscriber added")
	return ch, nil
}

// SubscriberCount returns the number of live header subscribers.
func (n *Node) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subscribers)
}

// Close ends every subscription. Further blocks are rejected.
func (n *Node) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subscribers {
		delete(n.subscribers, id)
		close(ch)
	}
}

func (n *Node) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, ok := n.subscribers[id]; ok {
		delete(n.subscribers, id)
		close(ch)
		n.logger.Debug().Uint64("subscriber", id).Msg("header subscriber removed")
	}
}

func (n *Node) commitLocked(blobs []*blob.Blob) (uint64, error) {
	height := n.height + 1
	now := time.Now().UTC()

	var lastHash string
	if prev, ok := n.headers[n.height]; ok {
		lastHash = prev.Hash()
	}

	doc := header.NewDocument(n.chainID, height, now, blockHash(n.chainID, height, blobs), lastHash)
	doc.DAH = dataRoots(blobs)
	h, err := doc.Encode()
	if err != nil {
		return 0, fmt.Errorf("encode header at height %d: %w", height, err)
	}

	n.height = height
	n.headers[height] = h
	if len(blobs) > 0 {
		n.blobs[height] = blobs
	}

	n.logger.Debug().Uint64("height", height).Int("num_blobs", len(blobs)).Msg("block produced")
	n.broadcastLocked(h.Raw())
	return height, nil
}

func (n *Node) broadcastLocked(frame json.RawMessage) {
	for id, ch := range n.subscribers {
		select {
		case ch <- frame:
		default:
			n.logger.Warn().Uint64("subscriber", id).Msg("subscriber is lagging, dropping header")
		}
	}
}

func (n *Node) getAll(height uint64, namespaces []libshare.Namespace) ([]*blob.Blob, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err, ok := n.failures[height]; ok {
		return nil, err
	}
	if height == 0 || height > n.height {
		return nil, ErrHeightFromFuture
	}

	var out []*blob.Blob
	for _, b := range n.blobs[height] {
		for _, ns := range namespaces {
			if b.Namespace().Equals(ns) {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}

func (n *Node) headerAt(height uint64) (*header.ExtendedHeader, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if height == 0 || height > n.height {
		return nil, ErrHeightFromFuture
	}
	return n.headers[height], nil
}

func (n *Node) head() (*header.ExtendedHeader, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	h, ok := n.headers[n.height]
	if !ok {
		return nil, errors.New("header: no blocks produced yet")
	}
	return h, nil
}

func blockHash(chainID string, height uint64, blobs []*blob.Blob) string {
	hasher := sha256.New()
	hasher.Write([]byte(chainID))
	_ = binary.Write(hasher, binary.BigEndian, height)
	for _, b := range blobs {
		hasher.Write(b.Commitment)
	}
	return strings.ToUpper(hex.EncodeToString(hasher.Sum(nil)))
}

// dataRoots stands in for the extended data square roots: one row per blob,
// and a single row for an empty block.
func dataRoots(blobs []*blob.Blob) header.DAHeader {
	roots := make([][]byte, 0, max(len(blobs), 1))
	for _, b := range blobs {
		roots = append(roots, b.Commitment)
	}
	if len(roots) == 0 {
		empty := sha256.Sum256(nil)
		roots = append(roots, empty[:])
	}
	return header.DAHeader{RowRoots: roots, ColumnRoots: roots}
}
