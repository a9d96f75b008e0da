// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package entries

import (
	"github.com/onosproject/arith-verifier/pkg/p4rt"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	p4info "github.com/p4lang/p4runtime/go/p4/config/v1"
	p4api "github.com/p4lang/p4runtime/go/p4/v1"
	"google.golang.org/protobuf/proto"
)

// Register represents all cells of a specific P4 register
type Register struct {
	info   *p4info.Register
	fields []p4rt.Field
	cells  []*p4api.P4Data
}

// Registers represents a set of P4 registers
type Registers struct {
	registers map[uint32]*Register
}

// NewRegisters creates a new registers store with all cells zeroed
func NewRegisters(info *p4rt.Info) (*Registers, error) {
	rs := &Registers{
		registers: make(map[uint32]*Register, len(info.P4Info().Registers)),
	}
	for _, ri := range info.P4Info().Registers {
		fields, err := info.RegisterFields(ri)
		if err != nil {
			return nil, err
		}
		rs.registers[ri.Preamble.Id] = NewRegister(ri, fields)
	}
	return rs, nil
}

// NewRegister creates a new register and all its cells
func NewRegister(info *p4info.Register, fields []p4rt.Field) *Register {
	cells := make([]*p4api.P4Data, info.Size)
	for i := range cells {
		cells[i] = zeroData(info, fields)
	}
	return &Register{
		info:   info,
		fields: fields,
		cells:  cells,
	}
}

func zeroData(info *p4info.Register, fields []p4rt.Field) *p4api.P4Data {
	if info.TypeSpec.GetStruct() == nil {
		return &p4api.P4Data{Data: &p4api.P4Data_Bitstring{Bitstring: []byte{0}}}
	}
	members := make([]*p4api.P4Data, 0, len(fields))
	for range fields {
		members = append(members, &p4api.P4Data{Data: &p4api.P4Data_Bitstring{Bitstring: []byte{0}}})
	}
	return &p4api.P4Data{Data: &p4api.P4Data_Struct{Struct: &p4api.P4StructLike{Members: members}}}
}

// Name returns the register name
func (r *Register) Name() string {
	return r.info.Preamble.Name
}

// Size returns the number of register cells
func (r *Register) Size() int {
	return len(r.cells)
}

// Register returns the register with the given ID; nil if none
func (rs *Registers) Register(id uint32) *Register {
	return rs.registers[id]
}

// Registers returns all registers
func (rs *Registers) Registers() []*Register {
	registers := make([]*Register, 0, len(rs.registers))
	for _, r := range rs.registers {
		registers = append(registers, r)
	}
	return registers
}

// ModifyRegisterEntry modifies the specified register cell; all cells if the entry carries no index
func (rs *Registers) ModifyRegisterEntry(entry *p4api.RegisterEntry, insert bool) error {
	if insert {
		return errors.NewInvalid("Register cannot be inserted")
	}
	register, ok := rs.registers[entry.RegisterId]
	if !ok {
		return errors.NewNotFound("Register %d not found", entry.RegisterId)
	}
	return register.ModifyRegisterEntry(entry)
}

// ReadRegisterEntries reads the register cells matching the specified register entry request
func (rs *Registers) ReadRegisterEntries(request *p4api.RegisterEntry, sender BatchSender) error {
	// If the register ID is 0, read all registers
	if request.RegisterId == 0 {
		for _, register := range rs.registers {
			if err := register.ReadRegisterEntries(request, sender); err != nil {
				return err
			}
		}
		return nil
	}

	register, ok := rs.registers[request.RegisterId]
	if !ok {
		return errors.NewNotFound("Register %d not found", request.RegisterId)
	}
	return register.ReadRegisterEntries(request, sender)
}

// ModifyRegisterEntry validates the entry data against the register type and stores it
func (r *Register) ModifyRegisterEntry(entry *p4api.RegisterEntry) error {
	if err := r.validateData(entry.Data); err != nil {
		return err
	}
	if entry.Index == nil {
		for i := range r.cells {
			r.cells[i] = proto.Clone(entry.Data).(*p4api.P4Data)
		}
		return nil
	}
	if err := r.checkIndex(entry.Index); err != nil {
		return err
	}
	r.cells[entry.Index.Index] = entry.Data
	return nil
}

// ReadRegisterEntries sends the requested cell, or all cells if the request carries no index
func (r *Register) ReadRegisterEntries(request *p4api.RegisterEntry, sender BatchSender) error {
	buffer := newBuffer(sender)
	if request.Index != nil {
		if err := r.checkIndex(request.Index); err != nil {
			return err
		}
		if err := buffer.sendEntity(r.entity(request.Index.Index)); err != nil {
			return err
		}
		return buffer.flush()
	}
	for i := range r.cells {
		if err := buffer.sendEntity(r.entity(int64(i))); err != nil {
			return err
		}
	}
	return buffer.flush()
}

func (r *Register) entity(index int64) *p4api.Entity {
	return &p4api.Entity{Entity: &p4api.Entity_RegisterEntry{RegisterEntry: &p4api.RegisterEntry{
		RegisterId: r.info.Preamble.Id,
		Index:      &p4api.Index{Index: index},
		Data:       r.cells[index],
	}}}
}

func (r *Register) checkIndex(index *p4api.Index) error {
	if index.Index < 0 || int(index.Index) >= len(r.cells) {
		return errors.NewNotFound("Register %s index %d out of bounds", r.Name(), index.Index)
	}
	return nil
}

// Validates that the data has the shape of the register cells and that every value fits its field
func (r *Register) validateData(data *p4api.P4Data) error {
	if data == nil {
		return errors.NewInvalid("Register %s entry has no data", r.Name())
	}
	values := []*p4api.P4Data{data}
	if r.info.TypeSpec.GetStruct() != nil {
		if data.GetStruct() == nil {
			return errors.NewInvalid("Register %s expects struct data", r.Name())
		}
		values = data.GetStruct().Members
	}
	if len(values) != len(r.fields) {
		return errors.NewInvalid("Register %s expects %d fields, got %d", r.Name(), len(r.fields), len(values))
	}
	for i, v := range values {
		if v.GetData() == nil {
			return errors.NewInvalid("Register %s field %s has no value", r.Name(), r.fields[i].Name)
		}
		b, ok := v.GetData().(*p4api.P4Data_Bitstring)
		if !ok {
			return errors.NewInvalid("Register %s field %s expects a bit string", r.Name(), r.fields[i].Name)
		}
		value, err := p4rt.DecodeUint64(b.Bitstring)
		if err != nil {
			return err
		}
		if _, err := p4rt.EncodeUint64(value, r.fields[i].Bitwidth); err != nil {
			return errors.NewInvalid("Register %s field %s: %v", r.Name(), r.fields[i].Name, err)
		}
	}
	return nil
}
