// Package header decodes the extended headers pushed by a celestia light node.
//
// The record is kept opaque: the raw JSON is retained and only the fields the
// client reports on are extracted.
package header

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrMalformedHeader is returned when a header frame cannot be decoded.
var ErrMalformedHeader = errors.New("malformed extended header")

// JSON paths of the fields extracted from celestia-node's header.ExtendedHeader.
const (
	pathHeight  = "header.height"
	pathChainID = "header.chain_id"
	pathTime    = "header.time"
	pathHash    = "commit.block_id.hash"
	pathRowRoot = "dah.row_roots"
)

// ExtendedHeader is a block header augmented with data availability metadata.
type ExtendedHeader struct {
	raw     []byte
	height  uint64
	chainID string
	time    time.Time
	hash    string
	squareW int
}

// Decode parses a JSON encoded extended header. Only header.height is
// mandatory; every other field is best effort.
func Decode(data []byte) (*ExtendedHeader, error) {
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedHeader)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected object, got %s", ErrMalformedHeader, root.Type)
	}

	res := root.Get(pathHeight)
	if !res.Exists() {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedHeader, pathHeight)
	}
	// cometbft encodes int64 heights as JSON strings
	height, err := strconv.ParseUint(res.String(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q: %w", ErrMalformedHeader, pathHeight, res.String(), err)
	}
	if height == 0 {
		return nil, fmt.Errorf("%w: %s must be positive", ErrMalformedHeader, pathHeight)
	}

	raw := make([]byte, len(data))
	copy(raw, data)

	h := &ExtendedHeader{
		raw:     raw,
		height:  height,
		chainID: root.Get(pathChainID).String(),
		hash:    root.Get(pathHash).String(),
		squareW: len(root.Get(pathRowRoot).Array()),
	}
	if t := root.Get(pathTime); t.Exists() {
		h.time = t.Time()
	}
	return h, nil
}

// Height returns the block height.
func (h *ExtendedHeader) Height() uint64 {
	return h.height
}

// ChainID returns the chain the header belongs to.
func (h *ExtendedHeader) ChainID() string {
	return h.chainID
}

// Time returns the block time, zero if the node omitted it.
func (h *ExtendedHeader) Time() time.Time {
	return h.time
}

// Hash returns the hex encoded block hash from the commit.
func (h *ExtendedHeader) Hash() string {
	return h.hash
}

// SquareWidth returns the width of the extended data square.
func (h *ExtendedHeader) SquareWidth() int {
	return h.squareW
}

// Raw returns the JSON the header was decoded from.
func (h *ExtendedHeader) Raw() []byte {
	return h.raw
}

// String is the display form used in logs. Fields the node omitted are left out.
func (h *ExtendedHeader) String() string {
	hash := h.hash
	if hash == "" {
		hash = "<unknown>"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "hash: %s; height: %d", hash, h.height)
	if h.chainID != "" {
		fmt.Fprintf(&sb, "; chain: %s", h.chainID)
	}
	if !h.time.IsZero() {
		fmt.Fprintf(&sb, "; time: %s", h.time.UTC().Format(time.RFC3339))
	}
	if h.squareW > 0 {
		fmt.Fprintf(&sb, "; square: %d", h.squareW)
	}
	return sb.String()
}

// MarshalJSON returns the original encoding.
func (h *ExtendedHeader) MarshalJSON() ([]byte, error) {
	if h.raw == nil {
		return []byte("null"), nil
	}
	return h.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *ExtendedHeader) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*h = *decoded
	return nil
}
