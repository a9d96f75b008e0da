// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package p4rt contains various utilities for working with P4Info and P4Runtime entities
package p4rt

import (
	"os"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	p4info "github.com/p4lang/p4runtime/go/p4/config/v1"
	"google.golang.org/protobuf/encoding/prototext"
)

// ValueField is the name of the sole field of a register whose cells are plain bit strings
const ValueField = "value"

// LoadP4Info loads the specified file containing prototext representation of a P4Info and returns its descriptor
func LoadP4Info(path string) (*p4info.P4Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	info := &p4info.P4Info{}
	err = prototext.Unmarshal(data, info)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Field describes a single named field of a register cell
type Field struct {
	Name     string
	Bitwidth int32
}

// Info provides name based lookup of the P4 entities described by a P4Info
type Info struct {
	info      *p4info.P4Info
	registers map[string]*p4info.Register
	tables    map[string]*p4info.Table
	actions   map[string]*p4info.Action
}

// NewInfo indexes the given P4Info; entities can be looked up by their fully qualified name or by their alias
func NewInfo(info *p4info.P4Info) *Info {
	i := &Info{
		info:      info,
		registers: make(map[string]*p4info.Register),
		tables:    make(map[string]*p4info.Table),
		actions:   make(map[string]*p4info.Action),
	}
	for _, r := range info.Registers {
		index(i.registers, r.Preamble, r)
	}
	for _, t := range info.Tables {
		index(i.tables, t.Preamble, t)
	}
	for _, a := range info.Actions {
		index(i.actions, a.Preamble, a)
	}
	return i
}

func index[T any](m map[string]T, preamble *p4info.Preamble, entity T) {
	m[preamble.Name] = entity
	if len(preamble.Alias) > 0 {
		if _, ok := m[preamble.Alias]; !ok {
			m[preamble.Alias] = entity
		}
	}
}

// P4Info returns the underlying P4Info descriptor
func (i *Info) P4Info() *p4info.P4Info {
	return i.info
}

// Register returns the register with the given name or alias
func (i *Info) Register(name string) (*p4info.Register, error) {
	if r, ok := i.registers[name]; ok {
		return r, nil
	}
	return nil, errors.NewNotFound("register %s not found", name)
}

// Table returns the table with the given name or alias
func (i *Info) Table(name string) (*p4info.Table, error) {
	if t, ok := i.tables[name]; ok {
		return t, nil
	}
	return nil, errors.NewNotFound("table %s not found", name)
}

// Action returns the action with the given name or alias
func (i *Info) Action(name string) (*p4info.Action, error) {
	if a, ok := i.actions[name]; ok {
		return a, nil
	}
	return nil, errors.NewNotFound("action %s not found", name)
}

// ActionParam returns the named parameter of the given action
func ActionParam(action *p4info.Action, name string) (*p4info.Action_Param, error) {
	for _, p := range action.Params {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, errors.NewNotFound("action %s has no parameter %s", action.Preamble.Name, name)
}

// HasActionRef returns true if the table references the given action
func HasActionRef(table *p4info.Table, action *p4info.Action) bool {
	for _, ref := range table.ActionRefs {
		if ref.Id == action.Preamble.Id {
			return true
		}
	}
	return false
}

// RegisterFields returns the fields carried by every cell of the given register. A bit string register
// carries a single field named ValueField; a struct register carries one field per struct member.
func (i *Info) RegisterFields(register *p4info.Register) ([]Field, error) {
	spec := register.TypeSpec
	if spec == nil {
		return nil, errors.NewInvalid("register %s has no type spec", register.Preamble.Name)
	}
	if bs := spec.GetBitstring(); bs != nil {
		width, err := bitwidth(bs)
		if err != nil {
			return nil, errors.NewInvalid("register %s: %v", register.Preamble.Name, err)
		}
		return []Field{{Name: ValueField, Bitwidth: width}}, nil
	}
	if named := spec.GetStruct(); named != nil {
		st, ok := i.info.GetTypeInfo().GetStructs()[named.Name]
		if !ok {
			return nil, errors.NewInvalid("register %s: struct %s not found in type info", register.Preamble.Name, named.Name)
		}
		fields := make([]Field, 0, len(st.Members))
		for _, m := range st.Members {
			width, err := bitwidth(m.TypeSpec.GetBitstring())
			if err != nil {
				return nil, errors.NewInvalid("register %s member %s: %v", register.Preamble.Name, m.Name, err)
			}
			fields = append(fields, Field{Name: m.Name, Bitwidth: width})
		}
		return fields, nil
	}
	return nil, errors.NewInvalid("register %s has unsupported type spec", register.Preamble.Name)
}

func bitwidth(bs *p4info.P4BitstringLikeTypeSpec) (int32, error) {
	switch {
	case bs.GetBit() != nil:
		return bs.GetBit().Bitwidth, nil
	case bs.GetInt() != nil:
		return bs.GetInt().Bitwidth, nil
	}
	return 0, errors.NewInvalid("only bit<W> and int<W> fields are supported")
}
