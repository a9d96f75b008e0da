// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package client implements access to the switch registers and tables via P4Runtime
package client

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/onosproject/arith-verifier/pkg/p4rt"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	gnoiapi "github.com/openconfig/gnoi/system"
	p4info "github.com/p4lang/p4runtime/go/p4/config/v1"
	p4api "github.com/p4lang/p4runtime/go/p4/v1"
	"google.golang.org/genproto/googleapis/rpc/code"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var log = logging.GetLogger("client")

// DefaultTimeout is the per-call timeout used when none is configured
const DefaultTimeout = 5 * time.Second

// Config carries the parameters of the client session with the switch
type Config struct {
	DeviceID   uint64
	ElectionID *p4api.Uint128
	Role       string
	Timeout    time.Duration
}

// Entry maps the names of the fields of a register cell to their values
type Entry map[string]uint64

// Fields returns the sorted field names of the entry
func (e Entry) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Client is a session with a single switch. Every read is issued against the device; no values are cached.
type Client struct {
	config Config
	info   *p4rt.Info
	p4rt   p4api.P4RuntimeClient
	system gnoiapi.SystemClient

	stream       p4api.P4Runtime_StreamChannelClient
	streamCancel context.CancelFunc
}

// New creates a new client using the given connection and P4Info of the pipeline running on the switch
func New(conn grpc.ClientConnInterface, info *p4rt.Info, config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.ElectionID == nil {
		config.ElectionID = &p4api.Uint128{High: 0, Low: 1}
	}
	return &Client{
		config: config,
		info:   info,
		p4rt:   p4api.NewP4RuntimeClient(conn),
		system: gnoiapi.NewSystemClient(conn),
	}
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.config.Timeout)
}

// Converts gRPC errors into typed errors; deadline expiry becomes a timeout error
func (c *Client) toError(ctx context.Context, err error, op string) error {
	if ctx.Err() == context.DeadlineExceeded || status.Code(err) == codes.DeadlineExceeded {
		return errors.NewTimeout("%s: no response within %s", op, c.config.Timeout)
	}
	if _, ok := status.FromError(err); ok {
		return errors.FromGRPC(err)
	}
	return err
}

// GetEntry reads the current value of the specified register cell from the switch
func (c *Client) GetEntry(ctx context.Context, register string, index int64) (Entry, error) {
	ri, err := c.info.Register(register)
	if err != nil {
		return nil, err
	}
	fields, err := c.info.RegisterFields(ri)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	stream, err := c.p4rt.Read(ctx, &p4api.ReadRequest{
		DeviceId: c.config.DeviceID,
		Entities: []*p4api.Entity{{Entity: &p4api.Entity_RegisterEntry{RegisterEntry: &p4api.RegisterEntry{
			RegisterId: ri.Preamble.Id,
			Index:      &p4api.Index{Index: index},
		}}}},
	})
	if err != nil {
		return nil, c.toError(ctx, err, "read "+register)
	}

	var found []*p4api.RegisterEntry
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, c.toError(ctx, err, "read "+register)
		}
		for _, entity := range resp.Entities {
			re := entity.GetRegisterEntry()
			if re == nil {
				return nil, errors.NewInvalid("read %s[%d]: unexpected entity %v", register, index, entity)
			}
			found = append(found, re)
		}
	}

	if len(found) != 1 {
		return nil, errors.NewInvalid("read %s[%d]: expected exactly one entry, got %d", register, index, len(found))
	}
	re := found[0]
	if re.RegisterId != ri.Preamble.Id || re.Index == nil || re.Index.Index != index {
		return nil, errors.NewInvalid("read %s[%d]: response is for register %d index %v",
			register, index, re.RegisterId, re.Index.GetIndex())
	}
	return decodeEntry(ri, fields, re.Data)
}

func decodeEntry(ri *p4info.Register, fields []p4rt.Field, data *p4api.P4Data) (Entry, error) {
	name := ri.Preamble.Name
	if data == nil {
		return nil, errors.NewInvalid("register %s entry has no data", name)
	}
	values := []*p4api.P4Data{data}
	if ri.TypeSpec.GetStruct() != nil {
		if data.GetStruct() == nil {
			return nil, errors.NewInvalid("register %s entry is not a struct", name)
		}
		values = data.GetStruct().Members
	}
	if len(values) != len(fields) {
		return nil, errors.NewInvalid("register %s entry has %d fields, expected %d", name, len(values), len(fields))
	}

	entry := make(Entry, len(fields))
	for i, f := range fields {
		b, ok := values[i].GetData().(*p4api.P4Data_Bitstring)
		if !ok {
			return nil, errors.NewInvalid("register %s field %s is not a bit string", name, f.Name)
		}
		v, err := p4rt.DecodeUint64(b.Bitstring)
		if err != nil {
			return nil, errors.NewInvalid("register %s field %s: %v", name, f.Name, err)
		}
		entry[f.Name] = v
	}
	return entry, nil
}

// FetchField reads the specified register cell and returns the value of the given field; it fails if the
// cell does not carry that field
func (c *Client) FetchField(ctx context.Context, register string, index int64, field string) (uint64, error) {
	entry, err := c.GetEntry(ctx, register, index)
	if err != nil {
		return 0, err
	}
	v, ok := entry[field]
	if !ok {
		return 0, errors.NewInvalid("register %s[%d] has no field %s; fields: %s",
			register, index, field, strings.Join(entry.Fields(), ","))
	}
	return v, nil
}

// Arbitrate opens the stream channel and claims mastership for the configured role and election ID;
// it is required before any writes
func (c *Client) Arbitrate(ctx context.Context) error {
	c.closeStream()

	streamCtx, streamCancel := context.WithCancel(context.Background())
	stream, err := c.p4rt.StreamChannel(streamCtx)
	if err != nil {
		streamCancel()
		return errors.FromGRPC(err)
	}

	err = stream.Send(p4rt.CreateMastershipArbitration(c.config.DeviceID, c.config.Role, c.config.ElectionID))
	if err != nil {
		streamCancel()
		return errors.FromGRPC(err)
	}

	type result struct {
		msg *p4api.StreamMessageResponse
		err error
	}
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	ch := make(chan result, 1)
	go func() {
		msg, err := stream.Recv()
		ch <- result{msg: msg, err: err}
	}()

	var r result
	select {
	case r = <-ch:
	case <-ctx.Done():
		streamCancel()
		return errors.NewTimeout("mastership arbitration: no response within %s", c.config.Timeout)
	}
	if r.err != nil {
		streamCancel()
		return errors.FromGRPC(r.err)
	}

	arbitration := r.msg.GetArbitration()
	if arbitration == nil {
		streamCancel()
		return errors.NewInvalid("mastership arbitration: unexpected response %v", r.msg)
	}
	if arbitration.Status.GetCode() != int32(code.Code_OK) {
		streamCancel()
		return errors.NewConflict("mastership arbitration: %s (primary election ID %v)",
			arbitration.Status.GetMessage(), arbitration.ElectionId)
	}

	log.Infof("Device %d: Became primary with election ID %v", c.config.DeviceID, c.config.ElectionID)
	c.stream = stream
	c.streamCancel = streamCancel
	return nil
}

// SetEntry writes the given field values into the specified register cell
func (c *Client) SetEntry(ctx context.Context, register string, index int64, entry Entry) error {
	ri, err := c.info.Register(register)
	if err != nil {
		return err
	}
	fields, err := c.info.RegisterFields(ri)
	if err != nil {
		return err
	}
	if len(entry) != len(fields) {
		return errors.NewInvalid("register %s expects %d fields, got %d", register, len(fields), len(entry))
	}

	values := make([]*p4api.P4Data, 0, len(fields))
	for _, f := range fields {
		v, ok := entry[f.Name]
		if !ok {
			return errors.NewInvalid("register %s: missing field %s", register, f.Name)
		}
		b, err := p4rt.EncodeUint64(v, f.Bitwidth)
		if err != nil {
			return errors.NewInvalid("register %s field %s: %v", register, f.Name, err)
		}
		values = append(values, &p4api.P4Data{Data: &p4api.P4Data_Bitstring{Bitstring: b}})
	}
	data := values[0]
	if ri.TypeSpec.GetStruct() != nil {
		data = &p4api.P4Data{Data: &p4api.P4Data_Struct{Struct: &p4api.P4StructLike{Members: values}}}
	}

	return c.write(ctx, "write "+register, &p4api.Update{
		Type: p4api.Update_MODIFY,
		Entity: &p4api.Entity{Entity: &p4api.Entity_RegisterEntry{RegisterEntry: &p4api.RegisterEntry{
			RegisterId: ri.Preamble.Id,
			Index:      &p4api.Index{Index: index},
			Data:       data,
		}}},
	})
}

// SetDefaultAction sets the default action of the specified table; every action parameter must be given
func (c *Client) SetDefaultAction(ctx context.Context, table string, action string, params map[string]uint64) error {
	ti, err := c.info.Table(table)
	if err != nil {
		return err
	}
	ai, err := c.info.Action(action)
	if err != nil {
		return err
	}
	if !p4rt.HasActionRef(ti, ai) {
		return errors.NewInvalid("action %s is not valid for table %s", action, table)
	}

	for name := range params {
		if _, err := p4rt.ActionParam(ai, name); err != nil {
			return err
		}
	}
	actionParams := make([]*p4api.Action_Param, 0, len(ai.Params))
	for _, p := range ai.Params {
		v, ok := params[p.Name]
		if !ok {
			return errors.NewInvalid("action %s: missing parameter %s", action, p.Name)
		}
		b, err := p4rt.EncodeUint64(v, p.Bitwidth)
		if err != nil {
			return errors.NewInvalid("action %s parameter %s: %v", action, p.Name, err)
		}
		actionParams = append(actionParams, &p4api.Action_Param{ParamId: p.Id, Value: b})
	}

	return c.write(ctx, "set default action of "+table, &p4api.Update{
		Type: p4api.Update_MODIFY,
		Entity: &p4api.Entity{Entity: &p4api.Entity_TableEntry{TableEntry: &p4api.TableEntry{
			TableId:         ti.Preamble.Id,
			IsDefaultAction: true,
			Action: &p4api.TableAction{Type: &p4api.TableAction_Action{Action: &p4api.Action{
				ActionId: ai.Preamble.Id,
				Params:   actionParams,
			}}},
		}}},
	})
}

func (c *Client) write(ctx context.Context, op string, updates ...*p4api.Update) error {
	if c.stream == nil {
		return errors.NewUnauthorized("%s: mastership has not been arbitrated", op)
	}
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	_, err := c.p4rt.Write(ctx, &p4api.WriteRequest{
		DeviceId:   c.config.DeviceID,
		Role:       c.config.Role,
		ElectionId: c.config.ElectionID,
		Updates:    updates,
		Atomicity:  p4api.WriteRequest_CONTINUE_ON_ERROR,
	})
	if err != nil {
		return c.toError(ctx, err, op)
	}
	return nil
}

// DeviceTime returns the current time of the device clock via gNOI System Time
func (c *Client) DeviceTime(ctx context.Context) (time.Time, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	resp, err := c.system.Time(ctx, &gnoiapi.TimeRequest{})
	if err != nil {
		return time.Time{}, c.toError(ctx, err, "time")
	}
	return time.Unix(0, int64(resp.Time)), nil
}

func (c *Client) closeStream() {
	if c.stream != nil {
		_ = c.stream.CloseSend()
		c.streamCancel()
		c.stream = nil
		c.streamCancel = nil
	}
}

// Close releases the stream channel, relinquishing mastership
func (c *Client) Close() {
	c.closeStream()
}
