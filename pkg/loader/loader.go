// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package loader writes recorded samples into the switch registers
package loader

import (
	"context"

	"github.com/onosproject/arith-verifier/pkg/client"
	"github.com/onosproject/arith-verifier/pkg/verifier"
	"github.com/onosproject/onos-lib-go/pkg/logging"
)

var log = logging.GetLogger("loader")

// RegisterWriter writes register cells of the switch
type RegisterWriter interface {
	SetEntry(ctx context.Context, register string, index int64, entry client.Entry) error
}

type cellValue struct {
	reg   verifier.Register
	value uint64
}

// LoadSamplesFromFile loads the specified YAML file and writes its samples into the switch registers using the
// tables of the mode named in the file
func LoadSamplesFromFile(ctx context.Context, writer RegisterWriter, path string, tablesFor func(verifier.Mode) verifier.Tables) error {
	samples := &Samples{}
	if err := LoadSamplesFile(path, samples); err != nil {
		return err
	}
	mode, err := samples.VerificationMode()
	if err != nil {
		return err
	}
	return LoadSamples(ctx, writer, mode, tablesFor(mode), samples.Samples)
}

// LoadSamples writes the operands and results of each sample at its index, then records the sample count
// in the sequence register
func LoadSamples(ctx context.Context, writer RegisterWriter, mode verifier.Mode, tables verifier.Tables, samples []Sample) error {
	if err := tables.Validate(mode); err != nil {
		return err
	}

	for i, s := range samples {
		values := []cellValue{{tables.OperandA, s.A}, {tables.OperandB, s.B}}
		if mode == verifier.Multiplication {
			values = append(values, cellValue{tables.ResultHi, s.Hi}, cellValue{tables.ResultLo, s.Lo})
		} else {
			values = append(values, cellValue{tables.Quotient, s.Quotient}, cellValue{tables.Remainder, s.Remainder})
		}
		for _, v := range values {
			if err := write(ctx, writer, v.reg, int64(i), v.value); err != nil {
				return err
			}
		}
	}

	if err := write(ctx, writer, tables.Sequence, 0, uint64(len(samples))); err != nil {
		return err
	}
	log.Infof("Loaded %d %s samples", len(samples), mode)
	return nil
}

func write(ctx context.Context, writer RegisterWriter, reg verifier.Register, index int64, value uint64) error {
	if err := writer.SetEntry(ctx, reg.Name, index, client.Entry{reg.FieldName(): value}); err != nil {
		log.Errorf("Unable to write %s[%d]: %+v", reg.Name, index, err)
		return err
	}
	return nil
}
