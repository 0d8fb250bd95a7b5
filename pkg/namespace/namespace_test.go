package namespace

import (
	"testing"

	libshare "github.com/celestiaorg/go-square/v3/share"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewV0(t *testing.T) {
	tests := []struct {
		name    string
		id      []byte
		wantErr bool
	}{
		{name: "demo id", id: DemoID},
		{name: "max length id", id: []byte("0123456789")},
		{name: "id too long", id: []byte("0123456789a"), wantErr: true},
		{name: "empty id is reserved", id: []byte{}, wantErr: true},
		{name: "primary reserved id", id: []byte{0x01}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, err := NewV0(tt.id)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidNamespace)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, libshare.NamespaceVersionZero, ns.Version())
			assert.Len(t, ns.Bytes(), libshare.NamespaceSize)
		})
	}
}

func TestDemo(t *testing.T) {
	ns := Demo()
	expected, err := NewV0([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.NoError(t, err)
	assert.True(t, ns.Equals(expected))
	assert.Equal(t, "0xDEADBEEF", Label(ns))
}

func TestFromBytes(t *testing.T) {
	ns, err := FromBytes(Demo().Bytes())
	require.NoError(t, err)
	assert.True(t, ns.Equals(Demo()))

	_, err = FromBytes(make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidNamespace)

	_, err = FromBytes(libshare.TxNamespace.Bytes())
	assert.ErrorIs(t, err, ErrInvalidNamespace)
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "sub id with prefix", input: "0xDEADBEEF"},
		{name: "sub id without prefix", input: "deadbeef"},
		{name: "full namespace", input: "0x" + "00" + "000000000000000000000000000000000000" + "000000000000deadbeef"},
		{name: "not hex", input: "0xzz", wantErr: true},
		{name: "too long for a sub id", input: "0x0102030405060708090a0b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, err := ParseHex(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidNamespace)
				return
			}
			require.NoError(t, err)
			assert.True(t, ns.Equals(Demo()))
		})
	}
}

func TestLabel(t *testing.T) {
	padded, err := NewV0([]byte{0x00, 0x0A, 0x0B})
	require.NoError(t, err)
	trimmed, err := NewV0([]byte{0x0A, 0x0B})
	require.NoError(t, err)

	// leading zeros are padding, both IDs name one namespace
	require.True(t, padded.Equals(trimmed))
	assert.Equal(t, "0x0A0B", Label(padded))
	assert.Equal(t, Label(trimmed), Label(padded))

	parsed, err := ParseHex(Label(padded))
	require.NoError(t, err)
	assert.True(t, parsed.Equals(padded))

	v0, err := NewV0([]byte{0x0A, 0x00})
	require.NoError(t, err)
	assert.Equal(t, "0x0A00", Label(v0))
}
