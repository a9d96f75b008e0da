// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point of the switch arithmetic verifier
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/onosproject/arith-verifier/pkg/client"
	"github.com/onosproject/arith-verifier/pkg/config"
	"github.com/onosproject/arith-verifier/pkg/operand"
	"github.com/onosproject/arith-verifier/pkg/p4rt"
	"github.com/onosproject/arith-verifier/pkg/verifier"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	p4api "github.com/p4lang/p4runtime/go/p4/v1"
	"github.com/spf13/cobra"
)

var log = logging.GetLogger()

const (
	addressFlag     = "service-address"
	tlsCertPathFlag = "tls-cert-path"
	tlsKeyPathFlag  = "tls-key-path"
	noTLSFlag       = "no-tls"
	configFlag      = "config"
	p4infoFlag      = "p4info"
	timeoutFlag     = "timeout"
	deviceIDFlag    = "device-id"
	electionIDFlag  = "election-id"
	roleFlag        = "role"
	indexFlag       = "index"
	dividendFlag    = "dividend"
	divisorFlag     = "divisor"
)

// The main entry point
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := getRootCommand().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func getRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "arith-verify",
		Short:        "Verifies the arithmetic results computed by a P4 switch",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String(addressFlag, "localhost:9559", "switch P4Runtime service address")
	cmd.PersistentFlags().String(tlsKeyPathFlag, "", "path to client private key")
	cmd.PersistentFlags().String(tlsCertPathFlag, "", "path to client certificate")
	cmd.PersistentFlags().Bool(noTLSFlag, false, "connect without TLS")
	cmd.PersistentFlags().String(configFlag, "", "configuration YAML file (- for stdin)")
	cmd.PersistentFlags().String(p4infoFlag, "", "P4Info file of the switch pipeline; retrieved from the switch if not given")
	cmd.PersistentFlags().Duration(timeoutFlag, client.DefaultTimeout, "timeout of each switch request")
	cmd.PersistentFlags().Uint64(deviceIDFlag, 1, "P4Runtime device ID")
	cmd.PersistentFlags().Uint64(electionIDFlag, 1, "mastership election ID used for writes")
	cmd.PersistentFlags().String(roleFlag, "", "P4Runtime role")

	cmd.AddCommand(getVerifyCommand("div", verifier.Division))
	cmd.AddCommand(getVerifyCommand("mul", verifier.Multiplication))
	cmd.AddCommand(getProductCommand())
	cmd.AddCommand(getSetCommand())
	return cmd
}

func getVerifyCommand(name string, mode verifier.Mode) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Verifies the %s results recorded in the switch registers", mode),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerifyCommand(cmd, mode)
		},
	}
}

func getProductCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Prints the multiplication result held by the switch",
		Args:  cobra.NoArgs,
		RunE:  runProductCommand,
	}
	cmd.Flags().Int64(indexFlag, 0, "register index of the result")
	return cmd
}

func getSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Sets the operands of the division pipeline",
		Args:  cobra.NoArgs,
		RunE:  runSetCommand,
	}
	cmd.Flags().String(dividendFlag, "", "dividend (0-4294967295)")
	cmd.Flags().String(divisorFlag, "", "divisor (0-4294967295)")
	_ = cmd.MarkFlagRequired(dividendFlag)
	_ = cmd.MarkFlagRequired(divisorFlag)
	return cmd
}

// Loads the configuration file and applies any explicitly given flags on top of it
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(configFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed(addressFlag) || len(cfg.ServiceAddress) == 0 {
		cfg.ServiceAddress, _ = flags.GetString(addressFlag)
	}
	if flags.Changed(tlsCertPathFlag) {
		cfg.TLS.CertPath, _ = flags.GetString(tlsCertPathFlag)
	}
	if flags.Changed(tlsKeyPathFlag) {
		cfg.TLS.KeyPath, _ = flags.GetString(tlsKeyPathFlag)
	}
	if flags.Changed(noTLSFlag) {
		cfg.TLS.NoTLS, _ = flags.GetBool(noTLSFlag)
	}
	if flags.Changed(p4infoFlag) {
		cfg.P4Info, _ = flags.GetString(p4infoFlag)
	}
	if flags.Changed(timeoutFlag) {
		cfg.Timeout, _ = flags.GetDuration(timeoutFlag)
	}
	if flags.Changed(deviceIDFlag) {
		cfg.DeviceID, _ = flags.GetUint64(deviceIDFlag)
	}
	if flags.Changed(electionIDFlag) {
		cfg.ElectionID, _ = flags.GetUint64(electionIDFlag)
	}
	if flags.Changed(roleFlag) {
		cfg.Role, _ = flags.GetString(roleFlag)
	}
	return cfg, nil
}

// Connects to the switch and returns a client for its pipeline
func getClient(ctx context.Context, cmd *cobra.Command) (*client.Client, *config.Config, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	conn, err := client.Connect(cfg.ServiceAddress, cfg.TLS.CertPath, cfg.TLS.KeyPath, cfg.TLS.NoTLS)
	if err != nil {
		return nil, nil, err
	}

	var info *p4rt.Info
	if len(cfg.P4Info) > 0 {
		p4i, err := p4rt.LoadP4Info(cfg.P4Info)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		info = p4rt.NewInfo(p4i)
	} else if info, err = client.GetPipelineInfo(ctx, conn, cfg.DeviceID, cfg.Timeout); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	log.Infof("Connected to device %d at %s", cfg.DeviceID, cfg.ServiceAddress)
	return client.New(conn, info, client.Config{
		DeviceID:   cfg.DeviceID,
		ElectionID: &p4api.Uint128{High: 0, Low: cfg.ElectionID},
		Role:       cfg.Role,
		Timeout:    cfg.Timeout,
	}), cfg, nil
}

func runVerifyCommand(cmd *cobra.Command, mode verifier.Mode) error {
	ctx := cmd.Context()
	c, cfg, err := getClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	_, err = verifier.New(c, mode, cfg.Tables(mode), cmd.OutOrStdout()).Run(ctx)
	return err
}

func runProductCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, cfg, err := getClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	index, _ := cmd.Flags().GetInt64(indexFlag)
	p, err := verifier.ReadProduct(ctx, c, cfg.Tables(verifier.Multiplication), index)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "result = %s\n", p)
	return nil
}

func runSetCommand(cmd *cobra.Command, args []string) error {
	dividend, _ := cmd.Flags().GetString(dividendFlag)
	divisor, _ := cmd.Flags().GetString(divisorFlag)
	ops, err := operand.Parse(dividend, divisor)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, cfg, err := getClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Arbitrate(ctx); err != nil {
		return err
	}
	if err := operand.Apply(ctx, c, cfg.Setter, ops); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dividend = %d\nDivisor = %d\n", ops.Dividend, ops.Divisor)
	return nil
}
