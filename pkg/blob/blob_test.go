package blob

import (
	"encoding/json"
	"testing"

	libshare "github.com/celestiaorg/go-square/v3/share"
	"github.com/celestiaorg/nmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlobV0(t *testing.T) {
	ns := libshare.MustNewV0Namespace([]byte{0xDE, 0xAD, 0xBE, 0xEF})

	tests := []struct {
		name      string
		namespace libshare.Namespace
		data      []byte
		wantErr   bool
	}{
		{
			name:      "valid small blob",
			namespace: ns,
			data:      []byte("Hello, World!"),
		},
		{
			name:      "valid larger blob",
			namespace: ns,
			data:      make([]byte, 4096),
		},
		{
			name:      "empty data not allowed",
			namespace: ns,
			data:      []byte{},
			wantErr:   true,
		},
		{
			name:      "over the size limit",
			namespace: ns,
			data:      make([]byte, DefaultMaxBlobSize+1),
			wantErr:   true,
		},
		{
			name:      "reserved namespace not allowed",
			namespace: libshare.TxNamespace,
			data:      []byte("data"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBlobV0(tt.namespace, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidBlob)
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, b.Commitment)
			assert.Equal(t, tt.data, b.Data())
			assert.Equal(t, -1, b.Index())
			assert.True(t, b.Namespace().Equals(tt.namespace))
		})
	}
}

func TestCommitment_Deterministic(t *testing.T) {
	ns := libshare.MustNewV0Namespace([]byte("ns"))

	b1, err := NewBlobV0(ns, []byte("same data"))
	require.NoError(t, err)
	b2, err := NewBlobV0(ns, []byte("same data"))
	require.NoError(t, err)
	assert.Equal(t, b1.Commitment, b2.Commitment)
	assert.True(t, b1.EqualCommitment(b2.Commitment))

	other, err := NewBlobV0(ns, []byte("other data"))
	require.NoError(t, err)
	assert.NotEqual(t, b1.Commitment, other.Commitment)

	otherNs, err := NewBlobV0(libshare.MustNewV0Namespace([]byte("ns2")), []byte("same data"))
	require.NoError(t, err)
	assert.NotEqual(t, b1.Commitment, otherNs.Commitment)
}

func TestCommitmentProof(t *testing.T) {
	ns := libshare.MustNewV0Namespace([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	b, err := NewBlobV0(ns, make([]byte, 10_000))
	require.NoError(t, err)

	proof, err := NewCommitmentProof(b.Blob)
	require.NoError(t, err)
	require.NotEmpty(t, proof.SubtreeRoots)
	assert.True(t, proof.Verify(b.Commitment))

	other, err := NewBlobV0(ns, []byte("other"))
	require.NoError(t, err)
	assert.False(t, proof.Verify(other.Commitment))

	assert.False(t, (&CommitmentProof{}).Verify(b.Commitment))
	var nilProof *CommitmentProof
	assert.False(t, nilProof.Verify(b.Commitment))
}

func TestBlobJSONRoundTrip(t *testing.T) {
	ns := libshare.MustNewV0Namespace([]byte{0xDE, 0xAD, 0xBE, 0xEF})

	b, err := NewBlobV0(ns, []byte("Hello, World!"))
	require.NoError(t, err)

	encoded, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded Blob
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	require.Equal(t, b.Namespace().Bytes(), decoded.Namespace().Bytes())
	require.Equal(t, b.Data(), decoded.Data())
	require.Equal(t, b.Commitment, decoded.Commitment)
	require.Equal(t, -1, decoded.Index())
}

func TestBlobJSON_KeepsNodeCommitmentAndIndex(t *testing.T) {
	ns := libshare.MustNewV0Namespace([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	raw := map[string]any{
		"namespace":     ns.Bytes(),
		"data":          []byte("payload"),
		"share_version": 0,
		"commitment":    []byte{0x01, 0x02},
		"index":         7,
	}
	encoded, err := json.Marshal(raw)
	require.NoError(t, err)

	var decoded Blob
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, Commitment{0x01, 0x02}, decoded.Commitment)
	assert.Equal(t, 7, decoded.Index())
}

func TestProofJSONMarshaling(t *testing.T) {
	proof := Proof{&nmt.Proof{}}

	data, err := json.Marshal(proof)
	require.NoError(t, err)

	var decoded Proof
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, len(proof))
}

func TestSubmitOptions(t *testing.T) {
	opts := DefaultSubmitOptions()
	data, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	withPrice := opts.WithGasPrice(0.002)
	assert.True(t, withPrice.IsGasPriceSet)
	assert.InDelta(t, 0.002, withPrice.GasPrice, 1e-12)

	data, err = json.Marshal(withPrice)
	require.NoError(t, err)
	assert.JSONEq(t, `{"gas_price":0.002,"is_gas_price_set":true}`, string(data))

	reset := withPrice.WithGasPrice(0)
	assert.False(t, reset.IsGasPriceSet)
	assert.Zero(t, reset.GasPrice)
}
