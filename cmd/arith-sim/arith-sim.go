// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package main is the main entry point for starting the simulated arithmetic switch
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/onosproject/arith-verifier/pkg/manager"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/spf13/cobra"
)

var log = logging.GetLogger()

const (
	caPathFlag   = "ca-path"
	keyPathFlag  = "key-path"
	certPathFlag = "cert-path"
	portFlag     = "port"
	noTLSFlag    = "no-tls"
	deviceIDFlag = "device-id"
	p4infoFlag   = "p4info"
)

// The main entry point
func main() {
	cmd := &cobra.Command{
		Use:          "arith-sim",
		Short:        "Runs a simulated register-backed P4Runtime switch",
		SilenceUsage: true,
		RunE:         runRootCommand,
	}
	cmd.Flags().String(caPathFlag, "", "path to CA certificate")
	cmd.Flags().String(keyPathFlag, "", "path to server private key")
	cmd.Flags().String(certPathFlag, "", "path to server certificate")
	cmd.Flags().Int(portFlag, 9559, "gRPC port of the P4Runtime and gNOI services")
	cmd.Flags().Bool(noTLSFlag, false, "serve without TLS")
	cmd.Flags().Uint64(deviceIDFlag, 1, "P4Runtime device ID")
	cmd.Flags().String(p4infoFlag, "", "P4Info file of the pipeline to preload")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRootCommand(cmd *cobra.Command, args []string) error {
	caPath, _ := cmd.Flags().GetString(caPathFlag)
	keyPath, _ := cmd.Flags().GetString(keyPathFlag)
	certPath, _ := cmd.Flags().GetString(certPathFlag)
	port, _ := cmd.Flags().GetInt(portFlag)
	noTLS, _ := cmd.Flags().GetBool(noTLSFlag)
	deviceID, _ := cmd.Flags().GetUint64(deviceIDFlag)
	p4infoPath, _ := cmd.Flags().GetString(p4infoFlag)

	log.Info("Starting arith-sim")
	mgr := manager.NewManager(manager.Config{
		CAPath:     caPath,
		KeyPath:    keyPath,
		CertPath:   certPath,
		GRPCPort:   port,
		NoTLS:      noTLS,
		DeviceID:   deviceID,
		P4InfoPath: p4infoPath,
	})
	mgr.Run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	mgr.Close()
	return nil
}
