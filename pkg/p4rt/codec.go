// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package p4rt

import (
	"encoding/binary"

	"github.com/onosproject/onos-lib-go/pkg/errors"
)

// Canonical trims the leading zero bytes of the given big-endian value, leaving at least one byte
func Canonical(b []byte) []byte {
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	return b[i:]
}

// EncodeUint64 encodes the value as a canonical big-endian byte string; the value must fit in the bit-width
func EncodeUint64(value uint64, bitwidth int32) ([]byte, error) {
	if bitwidth <= 0 {
		return nil, errors.NewInvalid("invalid bit-width %d", bitwidth)
	}
	if bitwidth < 64 && value>>uint(bitwidth) != 0 {
		return nil, errors.NewInvalid("value %d does not fit in %d bits", value, bitwidth)
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, value)
	return Canonical(b), nil
}

// DecodeUint64 decodes the given big-endian byte string; values wider than 64 bits are rejected
func DecodeUint64(value []byte) (uint64, error) {
	if len(value) == 0 {
		return 0, errors.NewInvalid("empty value")
	}
	b := Canonical(value)
	if len(b) > 8 {
		return 0, errors.NewInvalid("value %x is wider than 64 bits", value)
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, nil
}
