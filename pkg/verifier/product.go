// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"context"
	"fmt"
	"math"

	"github.com/onosproject/onos-lib-go/pkg/errors"
)

// Product is a multiplication result as held by the switch, split into two 32-bit halves
type Product struct {
	Hi uint64
	Lo uint64
}

// Validate checks that both halves fit in 32 bits
func (p Product) Validate() error {
	if p.Hi > math.MaxUint32 || p.Lo > math.MaxUint32 {
		return errors.NewInvalid("malformed product: halves %d and %d must fit in 32 bits", p.Hi, p.Lo)
	}
	return nil
}

// Value returns the 64-bit product hi * 2^32 + lo
func (p Product) Value() uint64 {
	return p.Hi<<32 | p.Lo
}

func (p Product) String() string {
	if p.Hi == 0 {
		return fmt.Sprintf("%d", p.Value())
	}
	return fmt.Sprintf("%d * 4294967296 + %d = %d", p.Hi, p.Lo, p.Value())
}

// ReadProduct reads the multiplication result held at the given index of the result registers
func ReadProduct(ctx context.Context, reader RegisterReader, tables Tables, index int64) (Product, error) {
	hi, err := reader.FetchField(ctx, tables.ResultHi.Name, index, tables.ResultHi.FieldName())
	if err != nil {
		return Product{}, err
	}
	lo, err := reader.FetchField(ctx, tables.ResultLo.Name, index, tables.ResultLo.FieldName())
	if err != nil {
		return Product{}, err
	}
	p := Product{Hi: hi, Lo: lo}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}
