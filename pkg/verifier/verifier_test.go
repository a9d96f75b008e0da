// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cell struct {
	register string
	index    int64
}

// Reader backed by a map of register cells; cells listed in failing return a timeout
type fakeReader struct {
	values  map[cell]uint64
	failing map[cell]bool
}

func newFakeReader() *fakeReader {
	return &fakeReader{values: make(map[cell]uint64), failing: make(map[cell]bool)}
}

func (r *fakeReader) set(register string, index int64, value uint64) {
	r.values[cell{register, index}] = value
}

func (r *fakeReader) FetchField(ctx context.Context, register string, index int64, field string) (uint64, error) {
	c := cell{register, index}
	if r.failing[c] {
		return 0, errors.NewTimeout("read %s[%d]: no response", register, index)
	}
	if field != "value" {
		return 0, errors.NewInvalid("no field %s", field)
	}
	v, ok := r.values[c]
	if !ok {
		return 0, errors.NewNotFound("no cell %s[%d]", register, index)
	}
	return v, nil
}

type clockReader struct {
	*fakeReader
	now time.Time
}

func (r *clockReader) DeviceTime(ctx context.Context) (time.Time, error) {
	return r.now, nil
}

func divisionReader(samples [][4]uint64) *fakeReader {
	r := newFakeReader()
	r.set("Ingress.seq", 0, uint64(len(samples)))
	for i, s := range samples {
		r.set("Ingress.dividend", int64(i), s[0])
		r.set("Ingress.divisor", int64(i), s[1])
		r.set("Ingress.reg_quotient", int64(i), s[2])
		r.set("Ingress.reg_remainder", int64(i), s[3])
	}
	return r
}

func multiplicationReader(samples [][4]uint64) *fakeReader {
	r := newFakeReader()
	r.set("Ingress.seq", 0, uint64(len(samples)))
	for i, s := range samples {
		r.set("Ingress.small", int64(i), s[0])
		r.set("Ingress.big", int64(i), s[1])
		r.set("Ingress.cal_res_hi", int64(i), s[2])
		r.set("Ingress.cal_res_lo", int64(i), s[3])
	}
	return r
}

func TestDivision(t *testing.T) {
	reader := divisionReader([][4]uint64{
		{10, 3, 3, 1},
		{7, 2, 4, 0},
		{0, 5, 0, 0},
	})
	out := &bytes.Buffer{}
	summary, err := New(reader, Division, DefaultTables(Division), out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(3), summary.Total)
	assert.Equal(t, uint64(2), summary.Correct)
	assert.Equal(t, uint64(1), summary.Wrong)
	assert.Equal(t, "66.67%", summary.FormatRate())

	report := out.String()
	assert.Contains(t, report, "pkt number = 3")
	assert.Contains(t, report, "No. 1, dividend = 7")
	assert.Contains(t, report, "Host quotient = 3\nP4 quotient = 4")
	assert.Contains(t, report, "Calculation executed: 3\n")
	assert.Contains(t, report, "Calculation correct: 2\n")
	assert.Contains(t, report, "Correct rate: 66.67%")
	assert.NotContains(t, report, "Calculation failed")
}

func TestDivisionByZero(t *testing.T) {
	reader := divisionReader([][4]uint64{
		{10, 0, 0, 0},
		{10, 5, 2, 0},
	})
	out := &bytes.Buffer{}
	summary, err := New(reader, Division, DefaultTables(Division), out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(2), summary.Total)
	assert.Equal(t, uint64(1), summary.Correct)
	assert.Equal(t, uint64(0), summary.Wrong)
	assert.Equal(t, uint64(1), summary.Undefined)
	assert.Equal(t, "50.00%", summary.FormatRate())
	assert.Contains(t, out.String(), "Calculation undefined: 1")
}

func TestNoSamples(t *testing.T) {
	reader := divisionReader(nil)
	out := &bytes.Buffer{}
	summary, err := New(reader, Division, DefaultTables(Division), out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(0), summary.Total)
	_, ok := summary.Rate()
	assert.False(t, ok)
	assert.Contains(t, out.String(), "Correct rate: no samples")
}

func TestFetchFailure(t *testing.T) {
	reader := divisionReader([][4]uint64{
		{10, 3, 3, 1},
		{7, 2, 3, 1},
		{9, 3, 3, 0},
	})
	reader.failing[cell{"Ingress.reg_quotient", 1}] = true
	out := &bytes.Buffer{}
	summary, err := New(reader, Division, DefaultTables(Division), out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(3), summary.Total)
	assert.Equal(t, uint64(2), summary.Correct)
	assert.Equal(t, uint64(1), summary.Failed)
	assert.Equal(t, summary.Total, summary.Correct+summary.Wrong+summary.Undefined+summary.Failed)
	assert.Contains(t, out.String(), "Calculation failed: 1")
}

func TestSequenceFailure(t *testing.T) {
	reader := newFakeReader()
	reader.failing[cell{"Ingress.seq", 0}] = true
	_, err := New(reader, Division, DefaultTables(Division), &bytes.Buffer{}).Run(context.Background())
	assert.True(t, errors.IsTimeout(err))
}

func TestCountBeyondStoredSamples(t *testing.T) {
	reader := divisionReader([][4]uint64{{10, 3, 3, 1}})
	reader.set("Ingress.seq", 0, 2)
	summary, err := New(reader, Division, DefaultTables(Division), &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), summary.Correct)
	assert.Equal(t, uint64(1), summary.Failed)
}

func TestCanceled(t *testing.T) {
	reader := divisionReader([][4]uint64{{10, 3, 3, 1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(reader, Division, DefaultTables(Division), &bytes.Buffer{}).Run(ctx)
	assert.True(t, errors.IsCanceled(err))
}

func TestMultiplication(t *testing.T) {
	reader := multiplicationReader([][4]uint64{
		{65536, 65536, 1, 0},
		{65536, 65536, 0, 0},
		{3, 7, 0, 21},
		{4294967295, 4294967295, 4294967294, 1},
	})
	out := &bytes.Buffer{}
	summary, err := New(reader, Multiplication, DefaultTables(Multiplication), out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(4), summary.Total)
	assert.Equal(t, uint64(3), summary.Correct)
	assert.Equal(t, uint64(1), summary.Wrong)
	assert.Equal(t, "75.00%", summary.FormatRate())
	assert.Contains(t, out.String(), "Host result = 4294967296\nP4 result = 4294967296\nCorrect!")
	assert.Contains(t, out.String(), "Host result = 4294967296\nP4 result = 0\nWrong!")
}

func TestMultiplicationWideOperands(t *testing.T) {
	// 2^40 * 2^40 does not fit in 64 bits, so no hi/lo pair can match it
	reader := multiplicationReader([][4]uint64{{1 << 40, 1 << 40, 0, 0}})
	summary, err := New(reader, Multiplication, DefaultTables(Multiplication), &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), summary.Wrong)
}

func TestMalformedProduct(t *testing.T) {
	reader := multiplicationReader([][4]uint64{{2, 2, 1 << 32, 4}})
	summary, err := New(reader, Multiplication, DefaultTables(Multiplication), &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), summary.Failed)
}

func TestDeviceTime(t *testing.T) {
	now := time.Date(2022, 8, 1, 12, 0, 0, 0, time.UTC)
	reader := &clockReader{fakeReader: divisionReader([][4]uint64{{10, 3, 3, 1}}), now: now}
	out := &bytes.Buffer{}
	summary, err := New(reader, Division, DefaultTables(Division), out).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now, summary.DeviceTime)
	assert.Contains(t, out.String(), "Device time: 2022-08-01T12:00:00Z")
	assert.Contains(t, out.String(), "Correct rate: 100.00%")
}

func TestReadProduct(t *testing.T) {
	reader := multiplicationReader([][4]uint64{{65536, 65536, 1, 0}, {3, 7, 0, 21}})
	tables := DefaultTables(Multiplication)

	p, err := ReadProduct(context.Background(), reader, tables, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(4294967296), p.Value())
	assert.Equal(t, "1 * 4294967296 + 0 = 4294967296", p.String())

	p, err = ReadProduct(context.Background(), reader, tables, 1)
	require.NoError(t, err)
	assert.Equal(t, "21", fmt.Sprint(p))

	_, err = ReadProduct(context.Background(), reader, tables, 2)
	assert.True(t, errors.IsNotFound(err))
}

func TestTables(t *testing.T) {
	assert.NoError(t, DefaultTables(Division).Validate(Division))
	assert.NoError(t, DefaultTables(Multiplication).Validate(Multiplication))
	assert.True(t, errors.IsInvalid(DefaultTables(Division).Validate(Multiplication)))

	assert.Equal(t, "value", Register{Name: "Ingress.seq"}.FieldName())
	assert.Equal(t, "f1", Register{Name: "Ingress.seq", Field: "f1"}.FieldName())

	mode, err := ParseMode("mul")
	require.NoError(t, err)
	assert.Equal(t, Multiplication, mode)
	_, err = ParseMode("add")
	assert.True(t, errors.IsInvalid(err))
}

func TestMalformedCount(t *testing.T) {
	reader := divisionReader(nil)
	reader.set("Ingress.seq", 0, math.MaxInt64+1)
	_, err := New(reader, Division, DefaultTables(Division), &bytes.Buffer{}).Run(context.Background())
	assert.True(t, errors.IsInvalid(err))
}

var boundaries = []uint64{0, 1, 2, 3, 7, 65535, 65536, 2147483648, 4294967294, 4294967295}

func TestDivisionSweep(t *testing.T) {
	var samples [][4]uint64
	var correct, wrong, undefined uint64
	for _, a := range boundaries {
		for _, b := range boundaries {
			if b == 0 {
				samples = append(samples, [4]uint64{a, b, 0, 0})
				undefined++
				continue
			}
			q, r := a/b, a%b
			samples = append(samples, [4]uint64{a, b, q, r}, [4]uint64{a, b, q + 1, r}, [4]uint64{a, b, q, r ^ 1})
			correct++
			wrong += 2
		}
	}

	summary, err := New(divisionReader(samples), Division, DefaultTables(Division), &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(len(samples)), summary.Total)
	assert.Equal(t, correct, summary.Correct)
	assert.Equal(t, wrong, summary.Wrong)
	assert.Equal(t, undefined, summary.Undefined)
	assert.LessOrEqual(t, summary.Correct, summary.Total)
	assert.Equal(t, summary.Total, summary.Correct+summary.Wrong+summary.Undefined+summary.Failed)
}

func TestMultiplicationSweep(t *testing.T) {
	var samples [][4]uint64
	var correct, wrong uint64
	for _, a := range boundaries {
		for _, b := range boundaries {
			product := a * b
			hi, lo := product>>32, product&math.MaxUint32
			samples = append(samples, [4]uint64{a, b, hi, lo}, [4]uint64{a, b, hi, lo ^ 1}, [4]uint64{a, b, hi ^ 1, lo})
			correct++
			wrong += 2
		}
	}

	summary, err := New(multiplicationReader(samples), Multiplication, DefaultTables(Multiplication), &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(len(samples)), summary.Total)
	assert.Equal(t, correct, summary.Correct)
	assert.Equal(t, wrong, summary.Wrong)
	assert.Equal(t, uint64(0), summary.Failed)
	assert.LessOrEqual(t, summary.Correct, summary.Total)
}
