/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issue

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
	// NonceFile is the nonce the join request is bound to
	NonceFile string
	// RequestFile is the join request of the member
	RequestFile string
	// OutputDir is the directory to write the membership credential to
	OutputDir string
}

var args Args

// Cmd returns the Cobra Command for credential issuance.
func Cmd() *cobra.Command {
	flags := cmd.Flags()
	flags.StringVarP(&args.ConfigFile, "config", "c", "", "path of the configuration file")
	flags.StringVarP(&args.IssuerDir, "issuer", "i", ".", "folder of the issuer keys")
	flags.StringVarP(&args.NonceFile, "nonce", "n", common.NonceFile, "path of the nonce")
	flags.StringVarP(&args.RequestFile, "request", "r", common.JoinRequestFile, "path of the join request")
	flags.StringVarP(&args.OutputDir, "output", "o", ".", "output folder")

	return cmd
}

var cmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a membership credential.",
	Long:  "Verifies a join request against its nonce and issues the membership credential.",
	RunE: func(cmd *cobra.Command, a []string) error {
		if len(a) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		cmd.SilenceUsage = true
		if _, err := Issue(cmd.Context(), &args); err != nil {
			return errors.Wrap(err, "failed to issue credential")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "membership credential written to [%s]\n", filepath.Join(args.OutputDir, common.CredentialFile))
		return nil
	},
}

func Issue(ctx context.Context, args *Args) (*keys.MembershipCredential, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := common.LoadConfig(args.ConfigFile)
	if err != nil {
		return nil, err
	}
	nonce, err := common.ReadNonce(args.NonceFile)
	if err != nil {
		return nil, err
	}
	req := &keys.JoinRequest{}
	if err := common.ReadArtifact(args.RequestFile, req); err != nil {
		return nil, err
	}

	i, err := common.OpenIssuer(ctx, c, args.IssuerDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = i.Close() }()

	cred, err := i.Issue(ctx, nonce, req)
	if err != nil {
		return nil, err
	}
	if err := common.WriteArtifact(filepath.Join(args.OutputDir, common.CredentialFile), cred, 0644); err != nil {
		return nil, err
	}
	return cred, nil
}
