// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/onosproject/arith-verifier/pkg/p4rt"
	"github.com/onosproject/onos-lib-go/pkg/certs"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	p4api "github.com/p4lang/p4runtime/go/p4/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Connect returns a gRPC client connection to the switch agent; without explicit key pair the default
// client certificates are used
func Connect(address string, certPath string, keyPath string, noTLS bool) (*grpc.ClientConn, error) {
	var opts []grpc.DialOption
	if noTLS {
		opts = []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		}
	} else {
		var cert tls.Certificate
		var err error
		if certPath != "" && keyPath != "" {
			cert, err = tls.LoadX509KeyPair(certPath, keyPath)
		} else {
			// Load default Certificates
			cert, err = tls.X509KeyPair([]byte(certs.DefaultClientCrt), []byte(certs.DefaultClientKey))
		}
		if err != nil {
			return nil, err
		}
		opts = []grpc.DialOption{
			grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{
				Certificates:       []tls.Certificate{cert},
				InsecureSkipVerify: true,
			})),
		}
	}

	conn, err := grpc.Dial(address, opts...)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// GetPipelineInfo retrieves the P4Info of the pipeline currently running on the switch; a non-positive
// timeout means DefaultTimeout
func GetPipelineInfo(ctx context.Context, conn grpc.ClientConnInterface, deviceID uint64, timeout time.Duration) (*p4rt.Info, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	resp, err := p4api.NewP4RuntimeClient(conn).GetForwardingPipelineConfig(ctx, &p4api.GetForwardingPipelineConfigRequest{
		DeviceId:     deviceID,
		ResponseType: p4api.GetForwardingPipelineConfigRequest_P4INFO_AND_COOKIE,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || status.Code(err) == codes.DeadlineExceeded {
			return nil, errors.NewTimeout("get pipeline config: no response within %s", timeout)
		}
		return nil, errors.FromGRPC(err)
	}
	p4i := resp.Config.GetP4Info()
	if p4i == nil || (len(p4i.Tables) == 0 && len(p4i.Registers) == 0) {
		return nil, errors.NewNotFound("device %d has no pipeline configured", deviceID)
	}
	return p4rt.NewInfo(p4i), nil
}
