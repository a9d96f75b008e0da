// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package p4rt

import (
	p4api "github.com/p4lang/p4runtime/go/p4/v1"
)

// CreateMastershipArbitration returns stream message request with the specified election ID components
func CreateMastershipArbitration(deviceID uint64, role string, electionID *p4api.Uint128) *p4api.StreamMessageRequest {
	arbitration := &p4api.MasterArbitrationUpdate{
		DeviceId:   deviceID,
		ElectionId: electionID,
	}
	if len(role) > 0 {
		arbitration.Role = &p4api.Role{Name: role}
	}
	return &p4api.StreamMessageRequest{
		Update: &p4api.StreamMessageRequest_Arbitration{Arbitration: arbitration},
	}
}
