// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package device implements the simulated switch agent NB
package device

import (
	gnoisim "github.com/onosproject/arith-verifier/pkg/northbound/device/gnoi/v2"
	"github.com/onosproject/arith-verifier/pkg/northbound/device/p4runtime/v1"
	"github.com/onosproject/arith-verifier/pkg/simulator"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-lib-go/pkg/northbound"
	gnoiapi "github.com/openconfig/gnoi/system"
	p4rtapi "github.com/p4lang/p4runtime/go/p4/v1"
	"google.golang.org/grpc"
)

var log = logging.GetLogger("northbound", "device")

// Service implements gNOI and P4Runtime services for the simulated switch
type Service struct {
	northbound.Service
	deviceSim *simulator.DeviceSimulator
}

// NewService creates a new agent service for the given device simulator
func NewService(deviceSim *simulator.DeviceSimulator) Service {
	return Service{deviceSim: deviceSim}
}

// Register registers the gNOI System and P4Runtime services with the given gRPC server
func (s Service) Register(r *grpc.Server) {
	gnoiapi.RegisterSystemServer(r, gnoisim.NewServer(s.deviceSim))
	p4rtapi.RegisterP4RuntimeServer(r, p4runtime.NewServer(s.deviceSim))
	log.Debugf("Device %d: P4Runtime and gNOI registered", s.deviceSim.DeviceID)
}
