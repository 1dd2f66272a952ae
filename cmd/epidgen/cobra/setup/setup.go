/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package setup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/common"
	"github.com/hyperledger-labs/epid-issuance/epid/core/issuer"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/core/math/rng"
	"github.com/hyperledger-labs/epid-issuance/epid/services/cert"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type Args struct {
	// ConfigFile is the configuration to load, empty for the defaults
	ConfigFile string
	// OutputDir is the directory to output the generated files
	OutputDir string
	// SignerKey is a PEM encoded ECDSA key certifying the group public key.
	// A fresh one is generated if empty.
	SignerKey string
}

var args Args

// Cmd returns the Cobra Command for group setup.
func Cmd() *cobra.Command {
	flags := cmd.Flags()
	flags.StringVarP(&args.ConfigFile, "config", "c", "", "path of the configuration file")
	flags.StringVarP(&args.OutputDir, "output", "o", ".", "output folder")
	flags.StringVarP(&args.SignerKey, "signer", "s", "", "PEM file of the key certifying the group public key")

	return cmd
}

var cmd = &cobra.Command{
	Use:   "setup",
	Short: "Create a new group.",
	Long:  "Generates the group public key, the issuer private key and a signed certificate of the group public key.",
	RunE: func(cmd *cobra.Command, a []string) error {
		if len(a) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		cmd.SilenceUsage = true
		pub, err := Setup(&args)
		if err != nil {
			return errors.Wrap(err, "failed to set up group")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "group [%s] created in [%s]\n", pub.GID, args.OutputDir)
		return nil
	},
}

// Setup writes the artifacts of a fresh group to args.OutputDir.
func Setup(args *Args) (*keys.GroupPublicKey, error) {
	c, err := common.LoadConfig(args.ConfigFile)
	if err != nil {
		return nil, err
	}
	id, err := c.CurveID()
	if err != nil {
		return nil, err
	}
	e, err := emath.EngineFor(id)
	if err != nil {
		return nil, err
	}

	signer, err := loadSigner(args)
	if err != nil {
		return nil, err
	}

	pub, isk, err := issuer.Setup(e, rng.Default())
	if err != nil {
		return nil, err
	}
	defer isk.Zeroize()
	certificate, err := cert.Issue(signer, pub, rng.Default())
	if err != nil {
		return nil, err
	}
	signerPK, err := signer.MarshalPublicKeyPEM()
	if err != nil {
		return nil, err
	}

	if err := common.WriteArtifact(filepath.Join(args.OutputDir, common.GroupPublicKeyFile), pub, 0644); err != nil {
		return nil, err
	}
	if err := common.WriteArtifact(filepath.Join(args.OutputDir, common.IssuerKeyFile), isk, 0600); err != nil {
		return nil, err
	}
	if err := common.WriteArtifact(filepath.Join(args.OutputDir, common.CertificateFile), certificate, 0644); err != nil {
		return nil, err
	}
	if err := common.WriteFile(filepath.Join(args.OutputDir, common.SignerPublicKeyFile), signerPK, 0644); err != nil {
		return nil, err
	}
	return pub, nil
}

func loadSigner(args *Args) (*cert.Signer, error) {
	if args.SignerKey != "" {
		raw, err := os.ReadFile(args.SignerKey)
		if err != nil {
			return nil, errors.Wrapf(err, "failed reading signer key [%s]", args.SignerKey)
		}
		return cert.UnmarshalSigner(raw)
	}
	signer, err := cert.NewSigner(rng.Default())
	if err != nil {
		return nil, err
	}
	raw, err := signer.MarshalPrivateKey()
	if err != nil {
		return nil, err
	}
	if err := common.WriteFile(filepath.Join(args.OutputDir, common.SignerKeyFile), raw, 0600); err != nil {
		return nil, err
	}
	return signer, nil
}
