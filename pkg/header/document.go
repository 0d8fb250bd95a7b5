package header

import (
	"encoding/json"
	"strconv"
	"time"
)

// Document is the subset of celestia-node's header.ExtendedHeader JSON shape
// that this module produces, e.g. when serving headers from a local node.
type Document struct {
	Header       RawHeader       `json:"header"`
	ValidatorSet json.RawMessage `json:"validator_set,omitempty"`
	Commit       Commit          `json:"commit"`
	DAH          DAHeader        `json:"dah"`
}

// RawHeader contains the raw cometbft header fields.
type RawHeader struct {
	ChainID         string    `json:"chain_id"`
	Height          string    `json:"height"`
	Time            time.Time `json:"time"`
	LastBlockID     BlockID   `json:"last_block_id"`
	DataHash        string    `json:"data_hash"`
	ProposerAddress string    `json:"proposer_address,omitempty"`
}

// Commit contains commit information.
type Commit struct {
	Height  string  `json:"height"`
	Round   int32   `json:"round"`
	BlockID BlockID `json:"block_id"`
}

// BlockID identifies a block by hash.
type BlockID struct {
	Hash string `json:"hash"`
}

// DAHeader contains the Data Availability header.
type DAHeader struct {
	RowRoots    [][]byte `json:"row_roots"`
	ColumnRoots [][]byte `json:"column_roots"`
}

// NewDocument fills the height fields consistently.
func NewDocument(chainID string, height uint64, t time.Time, hash, lastHash string) Document {
	h := strconv.FormatUint(height, 10)
	return Document{
		Header: RawHeader{
			ChainID:     chainID,
			Height:      h,
			Time:        t,
			LastBlockID: BlockID{Hash: lastHash},
		},
		Commit: Commit{
			Height:  h,
			BlockID: BlockID{Hash: hash},
		},
	}
}

// Encode marshals the document and decodes it back as an ExtendedHeader.
func (d Document) Encode() (*ExtendedHeader, error) {
	bz, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return Decode(bz)
}
