// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package p4rt

import (
	"testing"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestEncodeUint64(t *testing.T) {
	b, err := EncodeUint64(0, 32)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0}, b)

	b, err = EncodeUint64(0x01020304, 32)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, b)

	b, err = EncodeUint64(4294967295, 32)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, b)

	_, err = EncodeUint64(4294967296, 32)
	assert.True(t, errors.IsInvalid(err))

	_, err = EncodeUint64(1, 0)
	assert.True(t, errors.IsInvalid(err))

	b, err = EncodeUint64(^uint64(0), 64)
	assert.NoError(t, err)
	assert.Len(t, b, 8)
}

func TestDecodeUint64(t *testing.T) {
	v, err := DecodeUint64([]byte{0, 0, 0, 7})
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	v, err = DecodeUint64([]byte{0, 0, 0, 0, 0, 0, 0, 0, 1, 0})
	assert.NoError(t, err)
	assert.Equal(t, uint64(256), v)

	_, err = DecodeUint64([]byte{1, 0, 0, 0, 0, 0, 0, 0, 0})
	assert.True(t, errors.IsInvalid(err))

	_, err = DecodeUint64(nil)
	assert.True(t, errors.IsInvalid(err))
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, []byte{0}, Canonical([]byte{0, 0, 0}))
	assert.Equal(t, []byte{1, 0}, Canonical([]byte{0, 1, 0}))
	assert.Equal(t, []byte{}, Canonical([]byte{}))
}
