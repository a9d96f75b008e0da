// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package config holds the verifier configuration loaded from YAML
package config

import (
	"os"
	"time"

	"github.com/onosproject/arith-verifier/pkg/client"
	"github.com/onosproject/arith-verifier/pkg/operand"
	"github.com/onosproject/arith-verifier/pkg/verifier"
	"github.com/spf13/viper"
)

// Config is the verifier configuration; keys absent from the file keep their defaults
type Config struct {
	ServiceAddress string          `mapstructure:"serviceAddress" yaml:"serviceAddress"`
	TLS            TLS             `mapstructure:"tls" yaml:"tls"`
	DeviceID       uint64          `mapstructure:"deviceID" yaml:"deviceID"`
	ElectionID     uint64          `mapstructure:"electionID" yaml:"electionID"`
	Role           string          `mapstructure:"role" yaml:"role"`
	Timeout        time.Duration   `mapstructure:"timeout" yaml:"timeout"`
	P4Info         string          `mapstructure:"p4info" yaml:"p4info"`
	Division       verifier.Tables `mapstructure:"division" yaml:"division"`
	Multiplication verifier.Tables `mapstructure:"multiplication" yaml:"multiplication"`
	Setter         operand.Target  `mapstructure:"setter" yaml:"setter"`
}

// TLS holds the client certificate settings
type TLS struct {
	CertPath string `mapstructure:"certPath" yaml:"certPath"`
	KeyPath  string `mapstructure:"keyPath" yaml:"keyPath"`
	NoTLS    bool   `mapstructure:"noTLS" yaml:"noTLS"`
}

// Default returns the configuration matching the stock pipelines
func Default() *Config {
	return &Config{
		ServiceAddress: "localhost:9559",
		DeviceID:       1,
		ElectionID:     1,
		Timeout:        client.DefaultTimeout,
		Division:       verifier.DefaultTables(verifier.Division),
		Multiplication: verifier.DefaultTables(verifier.Multiplication),
		Setter:         operand.DefaultTarget(),
	}
}

// Tables returns the register names configured for the given mode
func (c *Config) Tables(mode verifier.Mode) verifier.Tables {
	if mode == verifier.Multiplication {
		return c.Multiplication
	}
	return c.Division
}

// Load returns the defaults overlaid with the YAML file at the given path; an empty path yields the defaults
func Load(path string) (*Config, error) {
	cfg := Default()
	if len(path) == 0 {
		return cfg, nil
	}
	v, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadConfig reads YAML configuration from the specified path (- for stdin) via viper; ready to Unmarshal
func ReadConfig(path string) (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetConfigType("yaml")
	if path == "-" {
		if err := cfg.ReadConfig(os.Stdin); err != nil {
			return cfg, err
		}
	} else {
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}
