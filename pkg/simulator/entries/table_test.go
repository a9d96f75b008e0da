// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package entries

import (
	"testing"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	p4info "github.com/p4lang/p4runtime/go/p4/config/v1"
	p4api "github.com/p4lang/p4runtime/go/p4/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tableID  = uint32(33554433)
	actionID = uint32(16777217)
)

func testInfo() *p4info.P4Info {
	return &p4info.P4Info{
		Tables: []*p4info.Table{{
			Preamble:    &p4info.Preamble{Id: tableID, Name: "Ingress.mod_val_t"},
			MatchFields: []*p4info.MatchField{{Id: 2, Name: "b"}, {Id: 1, Name: "a"}},
			ActionRefs:  []*p4info.ActionRef{{Id: actionID}},
			Size:        16,
		}},
		Actions: []*p4info.Action{{
			Preamble: &p4info.Preamble{Id: actionID, Name: "Ingress.mod_val"},
			Params: []*p4info.Action_Param{
				{Id: 1, Name: "dividend", Bitwidth: 32},
				{Id: 2, Name: "divisor", Bitwidth: 32},
			},
		}},
	}
}

func modVal(dividend []byte, divisor []byte) *p4api.TableAction {
	return &p4api.TableAction{Type: &p4api.TableAction_Action{Action: &p4api.Action{
		ActionId: actionID,
		Params: []*p4api.Action_Param{
			{ParamId: 1, Value: dividend},
			{ParamId: 2, Value: divisor},
		},
	}}}
}

func exact(id uint32, v ...byte) *p4api.FieldMatch {
	return &p4api.FieldMatch{FieldId: id, FieldMatchType: &p4api.FieldMatch_Exact_{Exact: &p4api.FieldMatch_Exact{Value: v}}}
}

func TestTableBasics(t *testing.T) {
	tables := NewTables(testInfo())
	table := tables.Table(tableID)
	require.NotNil(t, table)
	assert.Equal(t, 0, table.Size())

	e1 := &p4api.TableEntry{TableId: tableID, Match: []*p4api.FieldMatch{exact(1, 1), exact(2, 2)}, Action: modVal([]byte{1}, []byte{2})}
	e2 := &p4api.TableEntry{TableId: tableID, Match: []*p4api.FieldMatch{exact(2, 2), exact(1, 1)}, Action: modVal([]byte{3}, []byte{4})}

	// Insert new entry
	err := tables.ModifyTableEntry(e1, true)
	assert.NoError(t, err)
	assert.Equal(t, 1, table.Size())

	// Modify the existing entry, given with matches in different order
	err = tables.ModifyTableEntry(e2, false)
	assert.NoError(t, err)
	assert.Equal(t, 1, table.Size())

	// Insert of the same entry should fail
	err = tables.ModifyTableEntry(e2, true)
	assert.True(t, errors.IsAlreadyExists(err))

	err = tables.RemoveTableEntry(e1)
	assert.NoError(t, err)
	assert.Equal(t, 0, table.Size())

	// Modify or removal of non-existent entry should fail
	err = tables.ModifyTableEntry(e2, false)
	assert.True(t, errors.IsNotFound(err))
	err = tables.RemoveTableEntry(e2)
	assert.True(t, errors.IsNotFound(err))

	// Unknown field ID fails the schema check
	err = tables.ModifyTableEntry(&p4api.TableEntry{TableId: tableID, Match: []*p4api.FieldMatch{exact(7, 1)}, Action: modVal([]byte{1}, []byte{2})}, true)
	assert.True(t, errors.IsInvalid(err))
}

func TestDefaultEntry(t *testing.T) {
	tables := NewTables(testInfo())
	table := tables.Table(tableID)

	entry := &p4api.TableEntry{TableId: tableID, IsDefaultAction: true, Action: modVal([]byte{10}, []byte{3})}
	err := tables.ModifyTableEntry(entry, true)
	assert.True(t, errors.IsInvalid(err))
	assert.Nil(t, table.DefaultEntry())

	err = tables.ModifyTableEntry(entry, false)
	assert.NoError(t, err)
	assert.Equal(t, entry, table.DefaultEntry())

	var entities []*p4api.Entity
	err = tables.ReadTableEntries(&p4api.TableEntry{TableId: tableID, IsDefaultAction: true}, collect(&entities))
	assert.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, entry, entities[0].GetTableEntry())

	err = tables.RemoveTableEntry(entry)
	assert.True(t, errors.IsInvalid(err))
}

func TestActionValidation(t *testing.T) {
	tables := NewTables(testInfo())

	// Value too wide for a 32-bit parameter
	err := tables.ModifyTableEntry(&p4api.TableEntry{TableId: tableID, IsDefaultAction: true,
		Action: modVal([]byte{1, 0, 0, 0, 0}, []byte{1})}, false)
	assert.True(t, errors.IsInvalid(err))

	// Missing parameter
	err = tables.ModifyTableEntry(&p4api.TableEntry{TableId: tableID, IsDefaultAction: true,
		Action: &p4api.TableAction{Type: &p4api.TableAction_Action{Action: &p4api.Action{ActionId: actionID}}}}, false)
	assert.True(t, errors.IsInvalid(err))

	// Unknown action
	err = tables.ModifyTableEntry(&p4api.TableEntry{TableId: tableID, IsDefaultAction: true,
		Action: &p4api.TableAction{Type: &p4api.TableAction_Action{Action: &p4api.Action{ActionId: 99}}}}, false)
	assert.True(t, errors.IsInvalid(err))

	err = tables.ModifyTableEntry(&p4api.TableEntry{TableId: 99, IsDefaultAction: true}, false)
	assert.True(t, errors.IsNotFound(err))
}
