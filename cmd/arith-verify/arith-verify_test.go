// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFlags(t *testing.T) {
	cmd := getRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--config", "../../pkg/config/testdata/verifier.yaml", "--timeout", "3s", "--device-id", "9"}))

	cfg, err := getConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "switch1:9559", cfg.ServiceAddress)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, uint64(9), cfg.DeviceID)
	assert.Equal(t, "verifier", cfg.Role)
	assert.True(t, cfg.TLS.NoTLS)
}

func TestDefaultFlags(t *testing.T) {
	cmd := getRootCommand()
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := getConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9559", cfg.ServiceAddress)
	assert.Equal(t, uint64(1), cfg.DeviceID)
	assert.False(t, cfg.TLS.NoTLS)
	assert.Equal(t, "Ingress.mod_val_t", cfg.Setter.Table)
}

func TestSubcommands(t *testing.T) {
	cmd := getRootCommand()
	for _, name := range []string{"div", "mul", "get", "set"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}
