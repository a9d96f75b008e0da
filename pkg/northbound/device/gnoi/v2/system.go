// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package gnoi implements the simulated gNOI System service
package gnoi

import (
	"context"
	"time"

	"github.com/onosproject/arith-verifier/pkg/simulator"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	gnoiapi "github.com/openconfig/gnoi/system"
)

var log = logging.GetLogger("northbound", "device", "gnoi")

// Server implements the gNOI System API; only Time is supported
type Server struct {
	gnoiapi.UnimplementedSystemServer
	deviceSim *simulator.DeviceSimulator
}

// NewServer creates a new gNOI System API server
func NewServer(deviceSim *simulator.DeviceSimulator) *Server {
	return &Server{deviceSim: deviceSim}
}

// Time returns device's time since start of epoch, expressed in nanoseconds
func (s *Server) Time(ctx context.Context, request *gnoiapi.TimeRequest) (*gnoiapi.TimeResponse, error) {
	log.Debugf("Device %d: Received time request", s.deviceSim.DeviceID)
	return &gnoiapi.TimeResponse{Time: uint64(time.Now().UnixNano())}, nil
}
