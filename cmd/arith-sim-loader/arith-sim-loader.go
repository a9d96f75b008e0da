// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/onosproject/arith-verifier/pkg/client"
	"github.com/onosproject/arith-verifier/pkg/config"
	"github.com/onosproject/arith-verifier/pkg/loader"
	"github.com/onosproject/arith-verifier/pkg/p4rt"
	p4api "github.com/p4lang/p4runtime/go/p4/v1"
	"github.com/spf13/cobra"
)

const (
	addressFlag     = "service-address"
	tlsCertPathFlag = "tls-cert-path"
	tlsKeyPathFlag  = "tls-key-path"
	noTLSFlag       = "no-tls"
	deviceIDFlag    = "device-id"
	configFlag      = "config"
	samplesFlag     = "samples"
)

// The main entry point
func main() {
	if err := getRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func getRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "arith-sim-loader",
		Short:        "Loads recorded samples into the registers of the simulated switch",
		SilenceUsage: true,
		RunE:         runRootCommand,
	}
	cmd.Flags().String(addressFlag, "localhost:9559", "service address")
	cmd.Flags().String(tlsKeyPathFlag, "", "path to client private key")
	cmd.Flags().String(tlsCertPathFlag, "", "path to client certificate")
	cmd.Flags().Bool(noTLSFlag, false, "connect without TLS")
	cmd.Flags().Uint64(deviceIDFlag, 1, "P4Runtime device ID")
	cmd.Flags().String(configFlag, "", "verifier configuration YAML file naming the registers")
	cmd.Flags().String(samplesFlag, "-", "samples YAML file")
	return cmd
}

func runRootCommand(cmd *cobra.Command, args []string) error {
	address, _ := cmd.Flags().GetString(addressFlag)
	certPath, _ := cmd.Flags().GetString(tlsCertPathFlag)
	keyPath, _ := cmd.Flags().GetString(tlsKeyPathFlag)
	noTLS, _ := cmd.Flags().GetBool(noTLSFlag)
	deviceID, _ := cmd.Flags().GetUint64(deviceIDFlag)
	configPath, _ := cmd.Flags().GetString(configFlag)
	samplesPath, _ := cmd.Flags().GetString(samplesFlag)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	conn, err := client.Connect(address, certPath, keyPath, noTLS)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ctx := cmd.Context()
	var info *p4rt.Info
	if len(cfg.P4Info) > 0 {
		p4i, err := p4rt.LoadP4Info(cfg.P4Info)
		if err != nil {
			return err
		}
		info = p4rt.NewInfo(p4i)
	} else if info, err = client.GetPipelineInfo(ctx, conn, deviceID, cfg.Timeout); err != nil {
		return err
	}

	c := client.New(conn, info, client.Config{
		DeviceID:   deviceID,
		ElectionID: &p4api.Uint128{High: 0, Low: cfg.ElectionID},
		Role:       cfg.Role,
		Timeout:    cfg.Timeout,
	})
	defer c.Close()
	if err := c.Arbitrate(ctx); err != nil {
		return err
	}
	return loader.LoadSamplesFromFile(ctx, c, samplesPath, cfg.Tables)
}
