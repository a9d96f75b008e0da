// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package simulator contains a register-backed simulation of a P4Runtime switch
package simulator

import (
	"sync"

	"github.com/onosproject/arith-verifier/pkg/p4rt"
	"github.com/onosproject/arith-verifier/pkg/simulator/entries"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	p4info "github.com/p4lang/p4runtime/go/p4/config/v1"
	p4api "github.com/p4lang/p4runtime/go/p4/v1"
)

var log = logging.GetLogger("simulator")

// DeviceSimulator simulates a single switch
type DeviceSimulator struct {
	DeviceID uint64

	lock                     sync.RWMutex
	forwardingPipelineConfig *p4api.ForwardingPipelineConfig
	roleElections            map[string]*p4api.Uint128

	info      *p4rt.Info
	tables    *entries.Tables
	registers *entries.Registers
}

// NewDeviceSimulator initializes a new device simulator
func NewDeviceSimulator(deviceID uint64) *DeviceSimulator {
	log.Infof("Device %d: Creating simulator", deviceID)
	return &DeviceSimulator{
		DeviceID: deviceID,
		forwardingPipelineConfig: &p4api.ForwardingPipelineConfig{
			P4Info:         &p4info.P4Info{},
			P4DeviceConfig: []byte{},
			Cookie:         &p4api.ForwardingPipelineConfig_Cookie{Cookie: 0},
		},
		roleElections: make(map[string]*p4api.Uint128),
	}
}

// SetPipelineConfig sets the forwarding pipeline configuration for the device and resets all its entities
func (ds *DeviceSimulator) SetPipelineConfig(fpc *p4api.ForwardingPipelineConfig) error {
	if fpc == nil || fpc.P4Info == nil {
		return errors.NewInvalid("pipeline config must include P4Info")
	}
	info := p4rt.NewInfo(fpc.P4Info)
	registers, err := entries.NewRegisters(info)
	if err != nil {
		return err
	}

	ds.lock.Lock()
	defer ds.lock.Unlock()
	ds.forwardingPipelineConfig = fpc
	ds.info = info
	ds.tables = entries.NewTables(fpc.P4Info)
	ds.registers = registers
	log.Infof("Device %d: Pipeline config set with %d tables and %d registers",
		ds.DeviceID, len(fpc.P4Info.Tables), len(fpc.P4Info.Registers))
	for _, r := range registers.Registers() {
		log.Debugf("Device %d: Register %s has %d cells", ds.DeviceID, r.Name(), r.Size())
	}
	return nil
}

// GetPipelineConfig returns the forwarding pipeline configuration for the device
func (ds *DeviceSimulator) GetPipelineConfig() *p4api.ForwardingPipelineConfig {
	ds.lock.RLock()
	defer ds.lock.RUnlock()
	return ds.forwardingPipelineConfig
}

// RecordRoleElection checks the given election ID for the specified role and records it
// if the given election ID is larger than a previously recorded election ID for the same
// role; returns the winning election ID for the role
func (ds *DeviceSimulator) RecordRoleElection(role *p4api.Role, electionID *p4api.Uint128) *p4api.Uint128 {
	ds.lock.Lock()
	defer ds.lock.Unlock()

	roleName := role.GetName()
	maxID, ok := ds.roleElections[roleName]
	if !ok || maxID.High < electionID.High || (maxID.High == electionID.High && maxID.Low < electionID.Low) {
		ds.roleElections[roleName] = electionID
		return electionID
	}
	return maxID
}

// IsMaster returns an error if the given election ID is not the master for the specified device and role
func (ds *DeviceSimulator) IsMaster(deviceID uint64, role string, electionID *p4api.Uint128) error {
	if deviceID != ds.DeviceID {
		return errors.NewNotFound("incorrect device ID: %d", deviceID)
	}
	ds.lock.RLock()
	defer ds.lock.RUnlock()
	winningElectionID, ok := ds.roleElections[role]
	if !ok || electionID == nil || winningElectionID.High != electionID.High || winningElectionID.Low != electionID.Low {
		return errors.NewUnauthorized("not master for role %s on device ID: %d", role, deviceID)
	}
	return nil
}

// ProcessWrite processes the specified batch of updates; unless asked to continue on error, processing stops at the
// first failed update. Applied updates are not rolled back. The first error encountered is returned.
func (ds *DeviceSimulator) ProcessWrite(atomicity p4api.WriteRequest_Atomicity, updates []*p4api.Update) error {
	ds.lock.Lock()
	defer ds.lock.Unlock()

	if ds.info == nil {
		return errors.NewInvalid("pipeline config not set yet for %d", ds.DeviceID)
	}

	var firstErr error
	for _, update := range updates {
		var err error
		switch update.Type {
		case p4api.Update_INSERT:
			err = ds.processModify(update, true)
		case p4api.Update_MODIFY:
			err = ds.processModify(update, false)
		case p4api.Update_DELETE:
			err = ds.processDelete(update)
		default:
			err = errors.NewInvalid("unsupported update type %s", update.Type)
		}
		if err != nil {
			log.Warnf("Device %d: Unable to apply %s update: %+v", ds.DeviceID, update.Type, err)
			if firstErr == nil {
				firstErr = err
			}
			if atomicity != p4api.WriteRequest_CONTINUE_ON_ERROR {
				return firstErr
			}
		}
	}
	return firstErr
}

func (ds *DeviceSimulator) processModify(update *p4api.Update, isInsert bool) error {
	entity := update.Entity
	switch {
	case entity.GetTableEntry() != nil:
		entry := entity.GetTableEntry()
		if err := ds.tables.ModifyTableEntry(entry, isInsert); err != nil {
			return err
		}
		if entry.IsDefaultAction {
			table := ds.tables.Table(entry.TableId)
			log.Infof("Device %d: Default action of %s set to %v", ds.DeviceID, table.Name(), table.DefaultEntry().Action)
		}
		return nil
	case entity.GetRegisterEntry() != nil:
		return ds.registers.ModifyRegisterEntry(entity.GetRegisterEntry(), isInsert)
	}
	return errors.NewNotSupported("entity not supported: %v", entity)
}

func (ds *DeviceSimulator) processDelete(update *p4api.Update) error {
	entity := update.Entity
	switch {
	case entity.GetTableEntry() != nil:
		return ds.tables.RemoveTableEntry(entity.GetTableEntry())
	case entity.GetRegisterEntry() != nil:
		return errors.NewInvalid("register entry cannot be deleted")
	}
	return errors.NewNotSupported("entity not supported: %v", entity)
}

// ProcessRead executes the read of the specified set of requests, returning accumulated results via the supplied sender
func (ds *DeviceSimulator) ProcessRead(requests []*p4api.Entity, sender entries.BatchSender) []error {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	// Allocate the same number of errors as there are requests - expressed as entities
	errs := make([]error, len(requests))
	for i, request := range requests {
		if ds.info == nil {
			errs[i] = errors.NewInvalid("pipeline config not set yet for %d", ds.DeviceID)
			continue
		}
		errs[i] = ds.processRead(request, sender)
	}
	return errs
}

// Executes the read of the specified request, returning accumulated results via the supplied sender
func (ds *DeviceSimulator) processRead(request *p4api.Entity, sender entries.BatchSender) error {
	switch {
	case request.GetTableEntry() != nil:
		return ds.tables.ReadTableEntries(request.GetTableEntry(), sender)
	case request.GetRegisterEntry() != nil:
		return ds.registers.ReadRegisterEntries(request.GetRegisterEntry(), sender)
	}
	return errors.NewNotSupported("entity not supported: %v", request)
}
