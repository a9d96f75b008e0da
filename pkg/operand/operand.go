// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package operand sets the operands used by the division pipeline
package operand

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
)

var log = logging.GetLogger("operand")

// Operands is a dividend and divisor pair
type Operands struct {
	Dividend uint32
	Divisor  uint32
}

// Target names the table whose default action carries the operands
type Target struct {
	Table         string `mapstructure:"table" yaml:"table"`
	Action        string `mapstructure:"action" yaml:"action"`
	DividendParam string `mapstructure:"dividendParam" yaml:"dividendParam"`
	DivisorParam  string `mapstructure:"divisorParam" yaml:"divisorParam"`
}

// DefaultTarget returns the target of the stock division pipeline
func DefaultTarget() Target {
	return Target{
		Table:         "Ingress.mod_val_t",
		Action:        "Ingress.mod_val",
		DividendParam: "dividend",
		DivisorParam:  "divisor",
	}
}

// DefaultActionWriter writes the default action of a table
type DefaultActionWriter interface {
	SetDefaultAction(ctx context.Context, table string, action string, params map[string]uint64) error
}

// Parse parses decimal operands in the range [0, 4294967295]
func Parse(dividend string, divisor string) (Operands, error) {
	a, err := parseUint32("dividend", dividend)
	if err != nil {
		return Operands{}, err
	}
	b, err := parseUint32("divisor", divisor)
	if err != nil {
		return Operands{}, err
	}
	return Operands{Dividend: a, Divisor: b}, nil
}

func parseUint32(name string, s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, errors.NewInvalid("%s must be an integer in [0, %d]: %q", name, uint64(math.MaxUint32), s)
	}
	return uint32(v), nil
}

// Apply writes the operands as parameters of the target's default action
func Apply(ctx context.Context, writer DefaultActionWriter, target Target, ops Operands) error {
	if ops.Divisor == 0 {
		log.Warnf("Divisor is zero; the switch result is undefined")
	}
	err := writer.SetDefaultAction(ctx, target.Table, target.Action, map[string]uint64{
		target.DividendParam: uint64(ops.Dividend),
		target.DivisorParam:  uint64(ops.Divisor),
	})
	if err != nil {
		return err
	}
	log.Infof("Set default action %s of %s with dividend=%d, divisor=%d", target.Action, target.Table, ops.Dividend, ops.Divisor)
	return nil
}
