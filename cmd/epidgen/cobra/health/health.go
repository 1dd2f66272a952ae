/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package health

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/common"
	"github.com/hyperledger/fabric-lib-go/healthz"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type Args struct {
	// ConfigFile is the configuration to load, empty for the defaults
	ConfigFile string
	// IssuerDir is the directory holding the issuer keys and state
	IssuerDir string
	// Timeout bounds the time given to the checks
	Timeout time.Duration
}

var args Args

// Cmd returns the Cobra Command checking the issuer.
func Cmd() *cobra.Command {
	flags := cmd.Flags()
	flags.StringVarP(&args.ConfigFile, "config", "c", "", "path of the configuration file")
	flags.StringVarP(&args.IssuerDir, "issuer", "i", ".", "folder of the issuer keys")
	flags.DurationVarP(&args.Timeout, "timeout", "t", 10*time.Second, "timeout of the checks")

	return cmd
}

var cmd = &cobra.Command{
	Use:   "health",
	Short: "Check the issuer.",
	Long:  "Loads the issuer keys and checks the issuer state is reachable.",
	RunE: func(cmd *cobra.Command, a []string) error {
		if len(a) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		cmd.SilenceUsage = true
		failed, err := Check(cmd.Context(), &args)
		if err != nil {
			return errors.Wrap(err, "failed to run health checks")
		}
		if err := Report(cmd.OutOrStdout(), failed); err != nil {
			return err
		}
		return nil
	},
}

// Check runs the issuer health checks and returns the failed ones.
func Check(ctx context.Context, args *Args) ([]healthz.FailedCheck, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := common.LoadConfig(args.ConfigFile)
	if err != nil {
		return nil, err
	}
	i, err := common.OpenIssuer(ctx, c, args.IssuerDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = i.Close() }()

	h := healthz.NewHealthHandler()
	if args.Timeout > 0 {
		h.SetTimeout(args.Timeout)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, args.Timeout)
		defer cancel()
	}
	if err := h.RegisterChecker("storage", i.Store); err != nil {
		return nil, err
	}
	if err := h.RegisterChecker("issuer", i.Service); err != nil {
		return nil, err
	}
	return h.RunChecks(ctx), nil
}

// Report writes the outcome of the checks and fails if any check failed.
func Report(out io.Writer, failed []healthz.FailedCheck) error {
	if len(failed) == 0 {
		fmt.Fprintln(out, healthz.StatusOK)
		return nil
	}
	fmt.Fprintln(out, healthz.StatusUnavailable)
	for _, f := range failed {
		fmt.Fprintf(out, "  %s: %s\n", f.Component, f.Reason)
	}
	return errors.Errorf("[%d] checks failed", len(failed))
}
