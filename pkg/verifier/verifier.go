// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package verifier checks the arithmetic results computed by the switch data plane against the host
package verifier

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
)

var log = logging.GetLogger("verifier")

const separator = "-------------------------------------------"

// RegisterReader reads a field of a register cell from the switch
type RegisterReader interface {
	FetchField(ctx context.Context, register string, index int64, field string) (uint64, error)
}

// DeviceClock is implemented by readers able to report the switch clock
type DeviceClock interface {
	DeviceTime(ctx context.Context) (time.Time, error)
}

// Verifier reads the samples recorded by the switch and checks each of them
type Verifier struct {
	reader RegisterReader
	mode   Mode
	tables Tables
	out    io.Writer
}

// New creates a verifier writing its trace and report to the given writer
func New(reader RegisterReader, mode Mode, tables Tables, out io.Writer) *Verifier {
	return &Verifier{
		reader: reader,
		mode:   mode,
		tables: tables,
		out:    out,
	}
}

// Run reads the sample count from the sequence register and verifies samples [0, count) one at a time.
// Samples that cannot be read are counted as failed and the run goes on; failing to read the count aborts the run.
func (v *Verifier) Run(ctx context.Context) (*Summary, error) {
	if err := v.tables.Validate(v.mode); err != nil {
		return nil, err
	}

	summary := &Summary{Mode: v.mode}
	if clock, ok := v.reader.(DeviceClock); ok {
		if ts, err := clock.DeviceTime(ctx); err == nil {
			summary.DeviceTime = ts
		} else {
			log.Warnf("Unable to read device time: %v", err)
		}
	}

	count, err := v.fetch(ctx, v.tables.Sequence, 0)
	if err != nil {
		log.Errorf("Unable to read sample count from %s: %v", v.tables.Sequence.Name, err)
		return nil, err
	}
	if count > math.MaxInt64 {
		return nil, errors.NewInvalid("malformed sample count %d in %s", count, v.tables.Sequence.Name)
	}
	fmt.Fprintf(v.out, "pkt number = %d\n", count)
	log.Infof("Verifying %d %s samples", count, v.mode)

	summary.Total = count
	for i := uint64(0); i < count; i++ {
		if ctx.Err() != nil {
			return nil, errors.NewCanceled("verification interrupted after %d of %d samples", i, count)
		}
		var verdict Verdict
		if v.mode == Multiplication {
			verdict = v.verifyProduct(ctx, int64(i))
		} else {
			verdict = v.verifyDivision(ctx, int64(i))
		}
		summary.record(verdict)
	}

	summary.Report(v.out)
	return summary, nil
}

func (v *Verifier) fetch(ctx context.Context, reg Register, index int64) (uint64, error) {
	return v.reader.FetchField(ctx, reg.Name, index, reg.FieldName())
}

func (v *Verifier) fetchOperands(ctx context.Context, index int64) (uint64, uint64, error) {
	a, err := v.fetch(ctx, v.tables.OperandA, index)
	if err != nil {
		return 0, 0, err
	}
	fmt.Fprintf(v.out, "No. %d, %s = %d\n", index, shortName(v.tables.OperandA.Name), a)
	b, err := v.fetch(ctx, v.tables.OperandB, index)
	if err != nil {
		return 0, 0, err
	}
	fmt.Fprintf(v.out, "No. %d, %s = %d\n", index, shortName(v.tables.OperandB.Name), b)
	return a, b, nil
}

func (v *Verifier) failed(index int64, err error) Verdict {
	log.Warnf("Sample %d aborted: %v", index, err)
	fmt.Fprintln(v.out, separator)
	fmt.Fprintf(v.out, "No. %d\n", index)
	fmt.Fprintf(v.out, "Fetch failed: %v\n", err)
	fmt.Fprintln(v.out, Failed)
	fmt.Fprintln(v.out, separator)
	return Failed
}

func (v *Verifier) verifyDivision(ctx context.Context, index int64) Verdict {
	a, b, err := v.fetchOperands(ctx, index)
	if err != nil {
		return v.failed(index, err)
	}
	q, err := v.fetch(ctx, v.tables.Quotient, index)
	if err != nil {
		return v.failed(index, err)
	}
	r, err := v.fetch(ctx, v.tables.Remainder, index)
	if err != nil {
		return v.failed(index, err)
	}

	fmt.Fprintln(v.out, separator)
	fmt.Fprintf(v.out, "No. %d\n", index)
	verdict := Undefined
	if b == 0 {
		fmt.Fprintln(v.out, "Host quotient = undefined (divisor is zero)")
		fmt.Fprintf(v.out, "P4 quotient = %d\n", q)
		fmt.Fprintln(v.out, "Host remainder = undefined (divisor is zero)")
		fmt.Fprintf(v.out, "P4 remainder = %d\n", r)
	} else {
		fmt.Fprintf(v.out, "Host quotient = %d\n", a/b)
		fmt.Fprintf(v.out, "P4 quotient = %d\n", q)
		fmt.Fprintf(v.out, "Host remainder = %d\n", a%b)
		fmt.Fprintf(v.out, "P4 remainder = %d\n", r)
		verdict = Wrong
		if a/b == q && a%b == r {
			verdict = Correct
		}
	}
	fmt.Fprintln(v.out, verdict)
	fmt.Fprintln(v.out, separator)
	return verdict
}

func (v *Verifier) verifyProduct(ctx context.Context, index int64) Verdict {
	a, b, err := v.fetchOperands(ctx, index)
	if err != nil {
		return v.failed(index, err)
	}
	p, err := ReadProduct(ctx, v.reader, v.tables, index)
	if err != nil {
		return v.failed(index, err)
	}

	// Operands may be as wide as 64 bits, so the host product is not bounded to 64 bits
	expected := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))

	fmt.Fprintln(v.out, separator)
	fmt.Fprintf(v.out, "No. %d\n", index)
	fmt.Fprintf(v.out, "Host result = %s\n", expected)
	fmt.Fprintf(v.out, "P4 result = %d\n", p.Value())
	verdict := Wrong
	if expected.IsUint64() && expected.Uint64() == p.Value() {
		verdict = Correct
	}
	fmt.Fprintln(v.out, verdict)
	fmt.Fprintln(v.out, separator)
	return verdict
}

func shortName(name string) string {
	return name[strings.LastIndex(name, ".")+1:]
}
