package header

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHeader = `{
	"header": {
		"version": {"block": "11", "app": "3"},
		"chain_id": "mocha-4",
		"height": "100",
		"time": "2024-05-01T10:00:00.123456Z",
		"last_block_id": {"hash": "AA", "parts": {"total": 1, "hash": "BB"}}
	},
	"validator_set": {"validators": []},
	"commit": {"height": "100", "round": 0, "block_id": {"hash": "5A7F00E1"}},
	"dah": {"row_roots": ["AAAA", "BBBB"], "column_roots": ["AAAA", "BBBB"]}
}`

func TestDecode(t *testing.T) {
	h, err := Decode([]byte(sampleHeader))
	require.NoError(t, err)

	assert.Equal(t, uint64(100), h.Height())
	assert.Equal(t, "mocha-4", h.ChainID())
	assert.Equal(t, "5A7F00E1", h.Hash())
	assert.Equal(t, 2, h.SquareWidth())
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC), h.Time().UTC())
	assert.Equal(t, "hash: 5A7F00E1; height: 100; chain: mocha-4; time: 2024-05-01T10:00:00Z; square: 2", h.String())
	assert.JSONEq(t, sampleHeader, string(h.Raw()))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "not json", input: "{header"},
		{name: "null", input: "null"},
		{name: "array", input: "[1,2]"},
		{name: "missing height", input: `{"header":{"chain_id":"x"}}`},
		{name: "non numeric height", input: `{"header":{"height":"abc"}}`},
		{name: "negative height", input: `{"header":{"height":"-5"}}`},
		{name: "zero height", input: `{"header":{"height":"0"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedHeader)
			assert.Nil(t, h)
		})
	}
}

func TestDecode_NumericHeight(t *testing.T) {
	h, err := Decode([]byte(`{"header":{"height":42}}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), h.Height())
	assert.Equal(t, "hash: <unknown>; height: 42", h.String())
	assert.True(t, h.Time().IsZero())
}

func TestExtendedHeader_JSON(t *testing.T) {
	var h ExtendedHeader
	require.NoError(t, json.Unmarshal([]byte(sampleHeader), &h))
	assert.Equal(t, uint64(100), h.Height())

	out, err := json.Marshal(&h)
	require.NoError(t, err)
	assert.JSONEq(t, sampleHeader, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"header":{}}`), &h))
}

func TestDocument_Encode(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := NewDocument("private", 7, ts, "ABCD", "0123")
	doc.DAH = DAHeader{RowRoots: [][]byte{{1}, {2}, {3}, {4}}}

	h, err := doc.Encode()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), h.Height())
	assert.Equal(t, "private", h.ChainID())
	assert.Equal(t, "ABCD", h.Hash())
	assert.Equal(t, 4, h.SquareWidth())
	assert.True(t, ts.Equal(h.Time()))
	assert.Equal(t, "hash: ABCD; height: 7; chain: private; time: 2025-01-02T03:04:05Z; square: 4", h.String())
}
