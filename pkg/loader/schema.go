// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"github.com/onosproject/arith-verifier/pkg/config"
	"github.com/onosproject/arith-verifier/pkg/verifier"
	"github.com/onosproject/onos-lib-go/pkg/errors"
)

// Samples is a description of the samples recorded by a switch run
type Samples struct {
	Mode    string   `mapstructure:"mode" yaml:"mode"`
	Samples []Sample `mapstructure:"samples" yaml:"samples"`
}

// Sample is a description of a single sample; the result fields used depend on the mode
type Sample struct {
	A         uint64 `mapstructure:"a" yaml:"a"`
	B         uint64 `mapstructure:"b" yaml:"b"`
	Quotient  uint64 `mapstructure:"quotient" yaml:"quotient"`
	Remainder uint64 `mapstructure:"remainder" yaml:"remainder"`
	Hi        uint64 `mapstructure:"hi" yaml:"hi"`
	Lo        uint64 `mapstructure:"lo" yaml:"lo"`
}

// VerificationMode returns the mode the samples were recorded for
func (s *Samples) VerificationMode() (verifier.Mode, error) {
	if len(s.Mode) == 0 {
		return 0, errors.NewInvalid("samples file does not specify a mode")
	}
	return verifier.ParseMode(s.Mode)
}

// LoadSamplesFile loads the specified samples YAML file (- for stdin)
func LoadSamplesFile(path string, samples *Samples) error {
	cfg, err := config.ReadConfig(path)
	if err != nil {
		return err
	}
	return cfg.Unmarshal(samples)
}
