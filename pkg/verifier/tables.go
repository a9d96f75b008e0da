// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"strings"

	"github.com/onosproject/arith-verifier/pkg/p4rt"
	"github.com/onosproject/onos-lib-go/pkg/errors"
)

// Mode selects the arithmetic operation under verification
type Mode int

const (
	// Division verifies quotient and remainder registers
	Division Mode = iota
	// Multiplication verifies the split 64-bit product registers
	Multiplication
)

func (m Mode) String() string {
	switch m {
	case Division:
		return "division"
	case Multiplication:
		return "multiplication"
	}
	return "unknown"
}

// ParseMode returns the mode with the given name; "div" and "mul" are accepted as short forms
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "division", "div":
		return Division, nil
	case "multiplication", "mul":
		return Multiplication, nil
	}
	return 0, errors.NewInvalid("unknown verification mode: %s", name)
}

// Register identifies a register and the field of its cells holding the value of interest
type Register struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Field string `mapstructure:"field" yaml:"field"`
}

// FieldName returns the configured field, defaulting to the value field of bitstring registers
func (r Register) FieldName() string {
	if len(r.Field) == 0 {
		return p4rt.ValueField
	}
	return r.Field
}

// Tables names the registers read during verification
type Tables struct {
	Sequence  Register `mapstructure:"sequence" yaml:"sequence"`
	OperandA  Register `mapstructure:"operandA" yaml:"operandA"`
	OperandB  Register `mapstructure:"operandB" yaml:"operandB"`
	Quotient  Register `mapstructure:"quotient" yaml:"quotient"`
	Remainder Register `mapstructure:"remainder" yaml:"remainder"`
	ResultHi  Register `mapstructure:"resultHi" yaml:"resultHi"`
	ResultLo  Register `mapstructure:"resultLo" yaml:"resultLo"`
}

// DefaultTables returns the register names of the stock verification pipelines
func DefaultTables(mode Mode) Tables {
	if mode == Multiplication {
		return Tables{
			Sequence: Register{Name: "Ingress.seq"},
			OperandA: Register{Name: "Ingress.small"},
			OperandB: Register{Name: "Ingress.big"},
			ResultHi: Register{Name: "Ingress.cal_res_hi"},
			ResultLo: Register{Name: "Ingress.cal_res_lo"},
		}
	}
	return Tables{
		Sequence:  Register{Name: "Ingress.seq"},
		OperandA:  Register{Name: "Ingress.dividend"},
		OperandB:  Register{Name: "Ingress.divisor"},
		Quotient:  Register{Name: "Ingress.reg_quotient"},
		Remainder: Register{Name: "Ingress.reg_remainder"},
	}
}

// Validate checks that every register needed by the given mode is named
func (t Tables) Validate(mode Mode) error {
	required := map[string]Register{"sequence": t.Sequence, "operandA": t.OperandA, "operandB": t.OperandB}
	if mode == Multiplication {
		required["resultHi"] = t.ResultHi
		required["resultLo"] = t.ResultLo
	} else {
		required["quotient"] = t.Quotient
		required["remainder"] = t.Remainder
	}
	for key, reg := range required {
		if len(reg.Name) == 0 {
			return errors.NewInvalid("%s verification requires the %s register", mode, key)
		}
	}
	return nil
}
