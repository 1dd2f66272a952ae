/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package complete

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/common"
	"github.com/hyperledger-labs/epid-issuance/epid/core/credential"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type Args struct {
	// ConfigFile is the configuration to load, empty for the defaults
	ConfigFile string
	common.GroupSource
	// CredentialFile is the membership credential returned by the issuer
	CredentialFile string
	// SecretFile is the member secret written by join
	SecretFile string
	// OutputDir is the directory to write the member private key to
	OutputDir string
}

var args Args

// Cmd returns the Cobra Command for member key completion.
func Cmd() *cobra.Command {
	flags := cmd.Flags()
	flags.StringVarP(&args.ConfigFile, "config", "c", "", "path of the configuration file")
	flags.StringVarP(&args.GroupPublicKey, "group", "g", common.GroupPublicKeyFile, "path of the group public key")
	flags.StringVar(&args.Certificate, "cert", "", "path of the group certificate, used in place of --group")
	flags.StringVar(&args.TrustedSigner, "trust", "", "PEM file of the signer the certificate must come from")
	flags.StringVar(&args.CredentialFile, "credential", common.CredentialFile, "path of the membership credential")
	flags.StringVar(&args.SecretFile, "secret", common.SecretFile, "path of the member secret")
	flags.StringVarP(&args.OutputDir, "output", "o", ".", "output folder")

	return cmd
}

var cmd = &cobra.Command{
	Use:   "complete",
	Short: "Assemble the member private key.",
	Long:  "Combines the membership credential with the member secret, checks it against the group public key and writes the member private key.",
	RunE: func(cmd *cobra.Command, a []string) error {
		if len(a) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		cmd.SilenceUsage = true
		priv, err := Complete(&args)
		if err != nil {
			return errors.Wrap(err, "failed to complete member key")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "member of group [%s], key written to [%s]\n", priv.GID, filepath.Join(args.OutputDir, common.MemberKeyFile))
		return nil
	},
}

// Complete writes the member private key. The secret file is removed once
// the key is stored.
func Complete(args *Args) (*keys.MemberPrivateKey, error) {
	if _, err := common.LoadConfig(args.ConfigFile); err != nil {
		return nil, err
	}
	e, pub, err := args.GroupSource.Load()
	if err != nil {
		return nil, err
	}
	cred := &keys.MembershipCredential{}
	if err := common.ReadArtifact(args.CredentialFile, cred); err != nil {
		return nil, err
	}
	f, err := common.ReadSecret(e, args.SecretFile)
	if err != nil {
		return nil, err
	}
	defer e.Zeroize(f)

	priv, err := credential.Complete(e, pub, cred, f)
	if err != nil {
		return nil, err
	}
	if err := common.WriteArtifact(filepath.Join(args.OutputDir, common.MemberKeyFile), priv, 0600); err != nil {
		return nil, err
	}
	if err := os.Remove(args.SecretFile); err != nil {
		return nil, errors.Wrapf(err, "failed removing [%s]", args.SecretFile)
	}
	return priv, nil
}
