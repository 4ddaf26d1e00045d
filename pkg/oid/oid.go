// Package oid implements the fixed-width 16-byte order identifier codec.
// Clients see a hex string of up to 32 characters; the datastore stores a
// right-aligned, zero-left-padded 16-byte array (MariaDB BINARY(16)
// semantics), grounded on OidBytes in the original Rust adapter layer.
package oid

import (
	"encoding/hex"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
)

const byteWidth = 16

// Encode parses s as hex and right-aligns it into a 16-byte array,
// left-padding with zero octets. It rejects inputs longer than 32 hex
// characters, inputs of odd length, and non-hex characters.
func Encode(s string) ([byteWidth]byte, error) {
	var out [byteWidth]byte

	if len(s) > byteWidth*2 {
		return out, apperr.New(apperr.KindInvalidInput, "oid.Encode", "hex string exceeds 32 characters")
	}
	if len(s)%2 != 0 {
		return out, apperr.New(apperr.KindInvalidInput, "oid.Encode", "hex string has odd length")
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return out, apperr.New(apperr.KindInvalidInput, "oid.Encode", "non-hex character in input")
	}

	// right-align: decoded lands in the tail of out, leading bytes stay zero.
	copy(out[byteWidth-len(decoded):], decoded)
	return out, nil
}

// Decode rejects any input whose length is not exactly 16, drops leading
// zero octets, and lowercase hex-formats the remainder.
func Decode(b []byte) (string, error) {
	if len(b) != byteWidth {
		return "", apperr.New(apperr.KindDataCorruption, "oid.Decode", "order id column is not 16 bytes")
	}

	i := 0
	for i < byteWidth && b[i] == 0 {
		i++
	}

	return hex.EncodeToString(b[i:]), nil
}
