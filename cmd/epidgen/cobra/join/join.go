/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package join

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/common"
	"github.com/hyperledger-labs/epid-issuance/epid/core/join"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	"github.com/hyperledger-labs/epid-issuance/epid/core/math/rng"
	"github.com/hyperledger-labs/epid-issuance/epid/services/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type Args struct {
	// ConfigFile is the configuration to load, empty for the defaults
	ConfigFile string
	common.GroupSource
	// NonceFile is the nonce handed out by the issuer
	NonceFile string
	// OutputDir is the directory to write the join request and the member secret to
	OutputDir string
}

var (
	args   Args
	logger = logging.MustGetLogger("epidgen", "join")
)

// Cmd returns the Cobra Command for join request generation.
func Cmd() *cobra.Command {
	flags := cmd.Flags()
	flags.StringVarP(&args.ConfigFile, "config", "c", "", "path of the configuration file")
	flags.StringVarP(&args.GroupPublicKey, "group", "g", common.GroupPublicKeyFile, "path of the group public key")
	flags.StringVar(&args.Certificate, "cert", "", "path of the group certificate, used in place of --group")
	flags.StringVar(&args.TrustedSigner, "trust", "", "PEM file of the signer the certificate must come from")
	flags.StringVarP(&args.NonceFile, "nonce", "n", common.NonceFile, "path of the issuer nonce")
	flags.StringVarP(&args.OutputDir, "output", "o", ".", "output folder")

	return cmd
}

var cmd = &cobra.Command{
	Use:   "join",
	Short: "Create a join request.",
	Long:  "Draws the member secret and proves knowledge of it to the issuer, bound to the issuer nonce.",
	RunE: func(cmd *cobra.Command, a []string) error {
		if len(a) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		cmd.SilenceUsage = true
		if _, err := Join(&args); err != nil {
			return errors.Wrap(err, "failed to create join request")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "join request written to [%s]\n", filepath.Join(args.OutputDir, common.JoinRequestFile))
		return nil
	},
}

// Join writes the join request and the member secret to args.OutputDir.
func Join(args *Args) (*keys.JoinRequest, error) {
	c, err := common.LoadConfig(args.ConfigFile)
	if err != nil {
		return nil, err
	}
	alg, err := c.HashAlg()
	if err != nil {
		return nil, err
	}
	e, pub, err := args.GroupSource.Load()
	if err != nil {
		return nil, err
	}
	nonce, err := common.ReadNonce(args.NonceFile)
	if err != nil {
		return nil, err
	}

	f, err := e.RandomZr(rng.Default(), 1)
	if err != nil {
		return nil, err
	}
	defer e.Zeroize(f)
	req, err := join.CreateJoinRequest(e, pub, nonce, f, rng.Default(), alg)
	if err != nil {
		return nil, err
	}
	reqPath := filepath.Join(args.OutputDir, common.JoinRequestFile)
	if err := common.WriteArtifact(reqPath, req, 0644); err != nil {
		return nil, err
	}
	// a request whose secret is lost can never be completed
	if err := common.WriteSecret(e, filepath.Join(args.OutputDir, common.SecretFile), f); err != nil {
		if rmErr := os.Remove(reqPath); rmErr != nil {
			logger.Warnf("failed removing [%s]: %s", reqPath, rmErr)
		}
		return nil, err
	}
	return req, nil
}
