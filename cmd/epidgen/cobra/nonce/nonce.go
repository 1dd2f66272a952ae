/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package nonce

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/common"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type Args struct {
	// ConfigFile is the configuration to load, empty for the defaults
	ConfigFile string
	// IssuerDir is the directory holding the issuer keys and state
	IssuerDir string
	// OutputDir is the directory to write the nonce to
	OutputDir string
}

var args Args

// Cmd returns the Cobra Command for nonce generation.
func Cmd() *cobra.Command {
	flags := cmd.Flags()
	flags.StringVarP(&args.ConfigFile, "config", "c", "", "path of the configuration file")
	flags.StringVarP(&args.IssuerDir, "issuer", "i", ".", "folder of the issuer keys")
	flags.StringVarP(&args.OutputDir, "output", "o", ".", "output folder")

	return cmd
}

var cmd = &cobra.Command{
	Use:   "nonce",
	Short: "Hand out a join nonce.",
	Long:  "Draws a single-use nonce a member binds its join request to, and records it in the issuer state.",
	RunE: func(cmd *cobra.Command, a []string) error {
		if len(a) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		cmd.SilenceUsage = true
		n, err := Nonce(cmd.Context(), &args)
		if err != nil {
			return errors.Wrap(err, "failed to create nonce")
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

func Nonce(ctx context.Context, args *Args) (keys.Nonce, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := common.LoadConfig(args.ConfigFile)
	if err != nil {
		return keys.Nonce{}, err
	}
	i, err := common.OpenIssuer(ctx, c, args.IssuerDir)
	if err != nil {
		return keys.Nonce{}, err
	}
	defer func() { _ = i.Close() }()

	n, err := i.NewNonce(ctx)
	if err != nil {
		return keys.Nonce{}, err
	}
	if err := common.WriteNonce(filepath.Join(args.OutputDir, common.NonceFile), n); err != nil {
		return keys.Nonce{}, err
	}
	return n, nil
}
