// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package entries

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"sort"

	"github.com/onosproject/arith-verifier/pkg/p4rt"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	p4info "github.com/p4lang/p4runtime/go/p4/config/v1"
	p4api "github.com/p4lang/p4runtime/go/p4/v1"
)

// Tables represents a set of P4 tables
type Tables struct {
	tables  map[uint32]*Table
	actions map[uint32]*p4info.Action
}

// Table represents a single P4 table
type Table struct {
	info       *p4info.Table
	actions    map[uint32]*p4info.Action
	rows       map[uint64]*p4api.TableEntry
	defaultRow *p4api.TableEntry
}

// NewTables creates a new set of tables from the given P4 info descriptor
func NewTables(info *p4info.P4Info) *Tables {
	ts := &Tables{
		tables:  make(map[uint32]*Table),
		actions: make(map[uint32]*p4info.Action),
	}
	for _, ai := range info.Actions {
		ts.actions[ai.Preamble.Id] = ai
	}
	for _, ti := range info.Tables {
		ts.tables[ti.Preamble.Id] = NewTable(ti, ts.actions)
	}
	return ts
}

// NewTable creates a new device table
func NewTable(table *p4info.Table, actions map[uint32]*p4info.Action) *Table {
	// Sort the fields into canonical order based on ID
	sort.SliceStable(table.MatchFields, func(i, j int) bool { return table.MatchFields[i].Id < table.MatchFields[j].Id })
	return &Table{
		info:    table,
		actions: actions,
		rows:    make(map[uint64]*p4api.TableEntry),
	}
}

// Table returns the table with the given ID; nil if none
func (ts *Tables) Table(id uint32) *Table {
	return ts.tables[id]
}

// ModifyTableEntry modifies the specified table entry in its appropriate table
func (ts *Tables) ModifyTableEntry(entry *p4api.TableEntry, insert bool) error {
	table, ok := ts.tables[entry.TableId]
	if !ok {
		return errors.NewNotFound("Table %d not found", entry.TableId)
	}
	return table.ModifyTableEntry(entry, insert)
}

// RemoveTableEntry removes the specified table entry from its appropriate table
func (ts *Tables) RemoveTableEntry(entry *p4api.TableEntry) error {
	table, ok := ts.tables[entry.TableId]
	if !ok {
		return errors.NewNotFound("Table %d not found", entry.TableId)
	}
	return table.RemoveTableEntry(entry)
}

// ReadTableEntries reads the table entries matching the specified table entry, from the appropriate table
func (ts *Tables) ReadTableEntries(request *p4api.TableEntry, sender BatchSender) error {
	// If the table ID is 0, read all tables
	if request.TableId == 0 {
		for _, table := range ts.tables {
			if err := table.ReadTableEntries(request, sender); err != nil {
				return err
			}
		}
		return nil
	}

	table, ok := ts.tables[request.TableId]
	if !ok {
		return errors.NewNotFound("Table %d not found", request.TableId)
	}
	return table.ReadTableEntries(request, sender)
}

// Name returns the table name
func (t *Table) Name() string {
	return t.info.Preamble.Name
}

// Size returns the number of entries in the table, not counting the default entry
func (t *Table) Size() int {
	return len(t.rows)
}

// DefaultEntry returns the entry set as the table default action; nil if none has been set
func (t *Table) DefaultEntry() *p4api.TableEntry {
	return t.defaultRow
}

// ModifyTableEntry inserts or modifies the specified entry
func (t *Table) ModifyTableEntry(entry *p4api.TableEntry, insert bool) error {
	if err := t.validateAction(entry.Action); err != nil {
		return err
	}
	if entry.IsDefaultAction {
		if insert {
			return errors.NewInvalid("Unable to insert default action entry")
		}
		if len(entry.Match) > 0 {
			return errors.NewInvalid("Default action entry cannot have any match fields")
		}
		t.defaultRow = entry
		return nil
	}

	// Order field matches in canonical order based on field ID
	sortFieldMatches(entry.Match)

	// Produce a hash of the priority and the field matches to serve as a key
	key, err := t.entryKey(entry)
	if err != nil {
		return err
	}
	_, ok := t.rows[key]

	// If the entry exists, and we're supposed to do a new insert, raise error
	if ok && insert {
		return errors.NewAlreadyExists("Entry already exists: %v", entry)
	}

	// If the entry doesn't exist, and we're supposed to modify, raise error
	if !ok && !insert {
		return errors.NewNotFound("Entry doesn't exist: %v", entry)
	}

	t.rows[key] = entry
	return nil
}

// RemoveTableEntry removes the specified table entry
func (t *Table) RemoveTableEntry(entry *p4api.TableEntry) error {
	if entry.IsDefaultAction {
		return errors.NewInvalid("Unable to remove default action entry")
	}
	sortFieldMatches(entry.Match)
	key, err := t.entryKey(entry)
	if err != nil {
		return err
	}
	if _, ok := t.rows[key]; !ok {
		return errors.NewNotFound("Entry doesn't exist: %v", entry)
	}
	delete(t.rows, key)
	return nil
}

// ReadTableEntries reads the default entry if requested, otherwise all the table entries
func (t *Table) ReadTableEntries(request *p4api.TableEntry, sender BatchSender) error {
	buffer := newBuffer(sender)
	if request.IsDefaultAction {
		if t.defaultRow != nil {
			if err := buffer.sendEntity(&p4api.Entity{Entity: &p4api.Entity_TableEntry{TableEntry: t.defaultRow}}); err != nil {
				return err
			}
		}
		return buffer.flush()
	}

	// TODO: match the request field matches instead of returning every entry
	for _, entry := range t.rows {
		if err := buffer.sendEntity(&p4api.Entity{Entity: &p4api.Entity_TableEntry{TableEntry: entry}}); err != nil {
			return err
		}
	}
	return buffer.flush()
}

// Validates that the action is referenced by the table and that its parameters fit the P4Info schema
func (t *Table) validateAction(ta *p4api.TableAction) error {
	if ta == nil || ta.GetAction() == nil {
		return errors.NewInvalid("Table %s entry must carry a direct action", t.Name())
	}
	action := ta.GetAction()
	ai, ok := t.actions[action.ActionId]
	if !ok || !p4rt.HasActionRef(t.info, ai) {
		return errors.NewInvalid("Action %d is not valid for table %s", action.ActionId, t.Name())
	}
	if len(action.Params) != len(ai.Params) {
		return errors.NewInvalid("Action %s expects %d parameters, got %d", ai.Preamble.Name, len(ai.Params), len(action.Params))
	}
	for _, p := range action.Params {
		pi := findParam(ai, p.ParamId)
		if pi == nil {
			return errors.NewInvalid("Action %s has no parameter %d", ai.Preamble.Name, p.ParamId)
		}
		value, err := p4rt.DecodeUint64(p.Value)
		if err != nil {
			return err
		}
		if _, err := p4rt.EncodeUint64(value, pi.Bitwidth); err != nil {
			return errors.NewInvalid("Action %s parameter %s: %v", ai.Preamble.Name, pi.Name, err)
		}
	}
	return nil
}

func findParam(action *p4info.Action, id uint32) *p4info.Action_Param {
	for _, p := range action.Params {
		if p.Id == id {
			return p
		}
	}
	return nil
}

// Produces a table entry key using a uint64 hash of its priority and field matches; returns error if the
// matches do not comply with the table schema
func (t *Table) entryKey(entry *p4api.TableEntry) (uint64, error) {
	hf := fnv.New64()
	writeHash(hf, entry.Priority)

	// This assumes matches have already been put in canonical order
	for i, m := range entry.Match {
		if err := t.validateMatch(i, m); err != nil {
			return 0, err
		}
		switch {
		case m.GetExact() != nil:
			_, _ = hf.Write([]byte{0x01})
			_, _ = hf.Write(m.GetExact().Value)
		case m.GetLpm() != nil:
			_, _ = hf.Write([]byte{0x02})
			writeHash(hf, m.GetLpm().PrefixLen)
			_, _ = hf.Write(m.GetLpm().Value)
		case m.GetRange() != nil:
			_, _ = hf.Write([]byte{0x03})
			_, _ = hf.Write(m.GetRange().Low)
			_, _ = hf.Write(m.GetRange().High)
		case m.GetTernary() != nil:
			_, _ = hf.Write([]byte{0x04})
			_, _ = hf.Write(m.GetTernary().Mask)
			_, _ = hf.Write(m.GetTernary().Value)
		case m.GetOptional() != nil:
			_, _ = hf.Write([]byte{0x05})
			_, _ = hf.Write(m.GetOptional().Value)
		}
	}
	return hf.Sum64(), nil
}

// Validates that the specified match corresponds to the expected table schema
func (t *Table) validateMatch(i int, m *p4api.FieldMatch) error {
	if i >= len(t.info.MatchFields) {
		return errors.NewInvalid("Unexpected field match %d: %v", i, m)
	}
	if t.info.MatchFields[i].Id != m.FieldId {
		return errors.NewInvalid("Unexpected field ID %d at position %d", m.FieldId, i)
	}
	return nil
}

func writeHash(hash hash.Hash64, n int32) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n))
	_, _ = hash.Write(b)
}

// Sorts the given array of field matches in place based on the field ID
func sortFieldMatches(matches []*p4api.FieldMatch) {
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].FieldId < matches[j].FieldId })
}
