// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package manager is the single point of entry for the simulated arithmetic switch
package manager

import (
	"github.com/onosproject/arith-verifier/pkg/northbound/device"
	"github.com/onosproject/arith-verifier/pkg/p4rt"
	"github.com/onosproject/arith-verifier/pkg/simulator"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-lib-go/pkg/northbound"
	p4api "github.com/p4lang/p4runtime/go/p4/v1"
)

var log = logging.GetLogger("manager")

// Config is a manager configuration
type Config struct {
	CAPath     string
	KeyPath    string
	CertPath   string
	GRPCPort   int
	NoTLS      bool
	DeviceID   uint64
	P4InfoPath string
}

// Manager single point of entry for the switch simulator
type Manager struct {
	Config    Config
	DeviceSim *simulator.DeviceSimulator
	server    *northbound.Server
}

// NewManager initializes the application manager
func NewManager(cfg Config) *Manager {
	log.Infow("Creating manager", "port", cfg.GRPCPort, "device-id", cfg.DeviceID)
	mgr := Manager{
		Config: cfg,
	}
	return &mgr
}

// Run runs manager
func (m *Manager) Run() {
	log.Infow("Starting Manager")

	if err := m.Start(); err != nil {
		log.Fatalw("Unable to run Manager", "error", err)
	}
}

// Start initializes the device simulator, primes it with the configured P4Info, if any, and starts the agent gRPC API
func (m *Manager) Start() error {
	m.DeviceSim = simulator.NewDeviceSimulator(m.Config.DeviceID)

	if len(m.Config.P4InfoPath) > 0 {
		info, err := p4rt.LoadP4Info(m.Config.P4InfoPath)
		if err != nil {
			return err
		}
		if err := m.DeviceSim.SetPipelineConfig(&p4api.ForwardingPipelineConfig{
			P4Info: info,
			Cookie: &p4api.ForwardingPipelineConfig_Cookie{Cookie: 0},
		}); err != nil {
			return err
		}
		log.Infof("Loaded pipeline P4Info from %s", m.Config.P4InfoPath)
	}

	return m.startAgentServer()
}

// startAgentServer starts the simulated switch gRPC server
func (m *Manager) startAgentServer() error {
	cfg := northbound.NewInsecureServerConfig(int16(m.Config.GRPCPort))
	if !m.Config.NoTLS {
		cfg = northbound.NewServerCfg(m.Config.CAPath, m.Config.KeyPath, m.Config.CertPath, int16(m.Config.GRPCPort),
			true, northbound.SecurityConfig{})
	}
	m.server = northbound.NewServer(cfg)
	m.server.AddService(logging.Service{})
	m.server.AddService(device.NewService(m.DeviceSim))

	doneCh := make(chan error)
	go func() {
		err := m.server.Serve(func(started string) {
			log.Info("Started simulated switch agent on ", started)
			close(doneCh)
		})
		if err != nil {
			doneCh <- err
		}
	}()
	return <-doneCh
}

// Close kills the manager
func (m *Manager) Close() {
	log.Infow("Closing Manager")
	if m.server != nil {
		m.server.GracefulStop()
	}
}
