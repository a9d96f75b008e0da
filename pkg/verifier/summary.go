// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"fmt"
	"io"
	"time"
)

// Verdict is the outcome of verifying a single sample
type Verdict int

const (
	// Correct means the switch result matches the host computation
	Correct Verdict = iota
	// Wrong means the switch result differs from the host computation
	Wrong
	// Undefined means the host computation has no defined result, e.g. a zero divisor
	Undefined
	// Failed means the sample could not be read from the switch
	Failed
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "Correct!"
	case Wrong:
		return "Wrong!"
	case Undefined:
		return "Undefined"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// Summary tallies the verdicts of a verification run
type Summary struct {
	Mode      Mode
	Total     uint64
	Correct   uint64
	Wrong     uint64
	Undefined uint64
	Failed    uint64
	// DeviceTime is the switch clock at the start of the run, if known
	DeviceTime time.Time
}

func (s *Summary) record(v Verdict) {
	switch v {
	case Correct:
		s.Correct++
	case Wrong:
		s.Wrong++
	case Undefined:
		s.Undefined++
	case Failed:
		s.Failed++
	}
}

// Rate returns the fraction of correct samples; false if there were no samples
func (s *Summary) Rate() (float64, bool) {
	if s.Total == 0 {
		return 0, false
	}
	return float64(s.Correct) / float64(s.Total), true
}

// FormatRate returns the correct rate as a percentage with two decimals, or "no samples"
func (s *Summary) FormatRate() string {
	rate, ok := s.Rate()
	if !ok {
		return "no samples"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

// Report writes the final report of the run
func (s *Summary) Report(out io.Writer) {
	fmt.Fprintln(out, separator)
	if !s.DeviceTime.IsZero() {
		fmt.Fprintf(out, "Device time: %s\n", s.DeviceTime.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Calculation executed: %d\n", s.Total)
	fmt.Fprintf(out, "Calculation correct: %d\n", s.Correct)
	if s.Undefined > 0 {
		fmt.Fprintf(out, "Calculation undefined: %d\n", s.Undefined)
	}
	if s.Failed > 0 {
		fmt.Fprintf(out, "Calculation failed: %d\n", s.Failed)
	}
	fmt.Fprintf(out, "Correct rate: %s\n", s.FormatRate())
	fmt.Fprintln(out, separator)
}
