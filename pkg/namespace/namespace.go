// Package namespace builds and formats the Celestia namespaces used to filter
// blobs.
package namespace

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	libshare "github.com/celestiaorg/go-square/v3/share"
)

// ErrInvalidNamespace is returned when a version/id pair does not form a
// namespace a blob can be published under.
var ErrInvalidNamespace = errors.New("invalid namespace")

// DemoID is the application identifier used by the demo commands.
var DemoID = []byte{0xDE, 0xAD, 0xBE, 0xEF}

// NewV0 builds a version 0 namespace from an application sub-ID of at most
// 10 bytes. The sub-ID is left padded with zeros. Reserved namespaces are
// rejected, so the result is always usable for blob submission and queries.
func NewV0(id []byte) (libshare.Namespace, error) {
	if len(id) > libshare.NamespaceVersionZeroIDSize {
		return libshare.Namespace{}, fmt.Errorf("%w: id too long for version 0: got %d bytes, max %d",
			ErrInvalidNamespace, len(id), libshare.NamespaceVersionZeroIDSize)
	}

	ns, err := libshare.NewV0Namespace(id)
	if err != nil {
		return libshare.Namespace{}, fmt.Errorf("%w: %w", ErrInvalidNamespace, err)
	}
	if err := ns.ValidateForBlob(); err != nil {
		return libshare.Namespace{}, fmt.Errorf("%w: %w", ErrInvalidNamespace, err)
	}
	return ns, nil
}

// Demo returns the 0xDEADBEEF version 0 namespace.
func Demo() libshare.Namespace {
	return libshare.MustNewV0Namespace(DemoID)
}

// FromBytes parses a full 29 byte namespace and checks that it is valid for blobs.
func FromBytes(b []byte) (libshare.Namespace, error) {
	ns, err := libshare.NewNamespaceFromBytes(b)
	if err != nil {
		return libshare.Namespace{}, fmt.Errorf("%w: %w", ErrInvalidNamespace, err)
	}
	if err := ns.ValidateForBlob(); err != nil {
		return libshare.Namespace{}, fmt.Errorf("%w: %w", ErrInvalidNamespace, err)
	}
	return ns, nil
}

// ParseHex parses a hex string (with or without 0x) holding either a full
// namespace or a version 0 sub-ID.
func ParseHex(s string) (libshare.Namespace, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	b, err := hex.DecodeString(s)
	if err != nil {
		return libshare.Namespace{}, fmt.Errorf("%w: invalid hex string: %w", ErrInvalidNamespace, err)
	}
	if len(b) == libshare.NamespaceSize {
		return FromBytes(b)
	}
	return NewV0(b)
}

// Label renders the significant bytes of a version 0 namespace the way
// operators write it, e.g. 0xDEADBEEF. Other versions render the full ID.
//
// A version 0 ID is left padded with zeros, so the sub-IDs 00 0A 0B and 0A 0B
// name the same namespace and both render as 0x0A0B. Leading zero bytes the
// caller supplied are not recoverable from the namespace.
func Label(ns libshare.Namespace) string {
	id := ns.ID()
	if ns.Version() == libshare.NamespaceVersionZero {
		id = bytes.TrimLeft(id, "\x00")
		if len(id) == 0 {
			id = []byte{0}
		}
	}
	return "0x" + strings.ToUpper(hex.EncodeToString(id))
}
