// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package p4runtime implements the simulated P4Runtime service
package p4runtime

import (
	"context"
	"io"

	"github.com/onosproject/arith-verifier/pkg/simulator"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	p4rtapi "github.com/p4lang/p4runtime/go/p4/v1"
	"google.golang.org/genproto/googleapis/rpc/code"
	"google.golang.org/genproto/googleapis/rpc/status"
)

var log = logging.GetLogger("northbound", "device", "p4runtime")

// Server implements the P4Runtime API
type Server struct {
	p4rtapi.UnimplementedP4RuntimeServer
	deviceSim *simulator.DeviceSimulator
}

// NewServer creates a new P4Runtime API server
func NewServer(deviceSim *simulator.DeviceSimulator) *Server {
	return &Server{deviceSim: deviceSim}
}

// Capabilities responds with the device P4Runtime capabilities
func (s *Server) Capabilities(ctx context.Context, request *p4rtapi.CapabilitiesRequest) (*p4rtapi.CapabilitiesResponse, error) {
	log.Infof("Device %d: P4Runtime capabilities have been requested", s.deviceSim.DeviceID)
	return &p4rtapi.CapabilitiesResponse{P4RuntimeApiVersion: "1.4.0"}, nil
}

// Write applies the updates if the requester is the master for its role
func (s *Server) Write(ctx context.Context, request *p4rtapi.WriteRequest) (*p4rtapi.WriteResponse, error) {
	log.Debugf("Device %d: Write received with %d updates", s.deviceSim.DeviceID, len(request.Updates))
	if err := s.deviceSim.IsMaster(request.DeviceId, request.Role, request.ElectionId); err != nil {
		return nil, errors.Status(err).Err()
	}
	if err := s.deviceSim.ProcessWrite(request.Atomicity, request.Updates); err != nil {
		return nil, errors.Status(err).Err()
	}
	return &p4rtapi.WriteResponse{}, nil
}

// Read streams back the entities matching the requested ones
func (s *Server) Read(request *p4rtapi.ReadRequest, server p4rtapi.P4Runtime_ReadServer) error {
	log.Debugf("Device %d: Read received with %d entities", s.deviceSim.DeviceID, len(request.Entities))
	if request.DeviceId != s.deviceSim.DeviceID {
		return errors.Status(errors.NewNotFound("incorrect device ID: %d", request.DeviceId)).Err()
	}
	errs := s.deviceSim.ProcessRead(request.Entities, func(entities []*p4rtapi.Entity) error {
		return server.Send(&p4rtapi.ReadResponse{Entities: entities})
	})
	for _, err := range errs {
		if err != nil && err != io.EOF {
			return errors.Status(err).Err()
		}
	}
	return nil
}

// SetForwardingPipelineConfig replaces the pipeline configuration, resetting all tables and registers
func (s *Server) SetForwardingPipelineConfig(ctx context.Context, request *p4rtapi.SetForwardingPipelineConfigRequest) (*p4rtapi.SetForwardingPipelineConfigResponse, error) {
	log.Infof("Device %d: Forwarding pipeline configuration has been set", s.deviceSim.DeviceID)
	if err := s.deviceSim.IsMaster(request.DeviceId, request.Role, request.ElectionId); err != nil {
		return nil, errors.Status(err).Err()
	}
	if err := s.deviceSim.SetPipelineConfig(request.Config); err != nil {
		return nil, errors.Status(err).Err()
	}
	return &p4rtapi.SetForwardingPipelineConfigResponse{}, nil
}

// GetForwardingPipelineConfig returns the current pipeline configuration
func (s *Server) GetForwardingPipelineConfig(ctx context.Context, request *p4rtapi.GetForwardingPipelineConfigRequest) (*p4rtapi.GetForwardingPipelineConfigResponse, error) {
	log.Infof("Device %d: Getting pipeline configuration", s.deviceSim.DeviceID)
	return &p4rtapi.GetForwardingPipelineConfigResponse{
		Config: s.deviceSim.GetPipelineConfig(),
	}, nil
}

type channelState struct {
	arbitration     *p4rtapi.MasterArbitrationUpdate
	streamResponses chan *p4rtapi.StreamMessageResponse
}

// StreamChannel reads and handles incoming requests and emits any queued up outgoing responses
func (s *Server) StreamChannel(server p4rtapi.P4Runtime_StreamChannelServer) error {
	state := &channelState{
		streamResponses: make(chan *p4rtapi.StreamMessageResponse, 128),
	}
	defer close(state.streamResponses)

	// Emit any queued-up messages in the background until we get an error or the context is closed
	go func() {
		for msg := range state.streamResponses {
			if err := server.Send(msg); err != nil {
				return
			}
			select {
			case <-server.Context().Done():
				return
			default:
			}
		}
	}()

	for {
		msg, err := server.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.processRequest(state, msg); err != nil {
			return errors.Status(err).Err()
		}
	}
}

func (s *Server) processRequest(state *channelState, msg *p4rtapi.StreamMessageRequest) error {
	log.Debugf("Device %d: Received message: %+v", s.deviceSim.DeviceID, msg)

	arbitration := msg.GetArbitration()
	if arbitration == nil {
		// Packet-outs and digest acks have no meaning for a register-only switch
		log.Debugf("Device %d: Ignoring stream message %+v", s.deviceSim.DeviceID, msg)
		return nil
	}

	if arbitration.DeviceId != s.deviceSim.DeviceID {
		return errors.NewNotFound("incorrect device ID: %d", arbitration.DeviceId)
	}

	electionStatus := &status.Status{Code: int32(code.Code_OK)}
	electionID := arbitration.ElectionId
	if electionID == nil {
		electionStatus = &status.Status{Code: int32(code.Code_INVALID_ARGUMENT), Message: "election ID is required"}
	} else {
		state.arbitration = arbitration
		winner := s.deviceSim.RecordRoleElection(arbitration.Role, electionID)
		if winner.High != electionID.High || winner.Low != electionID.Low {
			electionStatus = &status.Status{Code: int32(code.Code_ALREADY_EXISTS), Message: "not the primary controller"}
		}
		electionID = winner
	}

	state.streamResponses <- &p4rtapi.StreamMessageResponse{
		Update: &p4rtapi.StreamMessageResponse_Arbitration{
			Arbitration: &p4rtapi.MasterArbitrationUpdate{
				DeviceId:   arbitration.DeviceId,
				Role:       arbitration.Role,
				ElectionId: electionID,
				Status:     electionStatus,
			},
		},
	}
	return nil
}
