/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package demo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/common"
	"github.com/hyperledger-labs/epid-issuance/epid/core/credential"
	"github.com/hyperledger-labs/epid-issuance/epid/core/issuer"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/core/math/rng"
	"github.com/hyperledger-labs/epid-issuance/epid/services/cert"
	"github.com/hyperledger-labs/epid-issuance/epid/services/issuance"
	"github.com/hyperledger-labs/epid-issuance/epid/services/member"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type Args struct {
	// ConfigFile is the configuration to load, empty for the defaults
	ConfigFile string
	// Members is the number of members joining the group
	Members int
	// Seed makes the group keys and the member secrets reproducible
	Seed string
}

var args Args

// Cmd returns the Cobra Command running the whole protocol in one process.
func Cmd() *cobra.Command {
	flags := cmd.Flags()
	flags.StringVarP(&args.ConfigFile, "config", "c", "", "path of the configuration file")
	flags.IntVarP(&args.Members, "members", "m", 1, "number of members joining the group")
	flags.StringVar(&args.Seed, "seed", "", "seed of the issuer and member random sources")

	return cmd
}

var cmd = &cobra.Command{
	Use:   "demo",
	Short: "Run setup, join and issuance in memory.",
	Long:  "Sets up a group, lets members join through the issuance service and checks every member key. Nothing is written to disk.",
	RunE: func(cmd *cobra.Command, a []string) error {
		if len(a) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		cmd.SilenceUsage = true
		if err := Demo(cmd.Context(), &args, cmd.OutOrStdout()); err != nil {
			return errors.Wrap(err, "demo failed")
		}
		return nil
	},
}

// Demo runs the protocol for args.Members members and reports to out.
func Demo(ctx context.Context, args *Args, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if args.Members <= 0 {
		return errors.Errorf("at least one member is required, got [%d]", args.Members)
	}
	c, err := common.LoadConfig(args.ConfigFile)
	if err != nil {
		return err
	}
	id, err := c.CurveID()
	if err != nil {
		return err
	}
	alg, err := c.HashAlg()
	if err != nil {
		return err
	}
	e, err := emath.EngineFor(id)
	if err != nil {
		return err
	}
	issuerRNG, memberRNG, err := randomSources(args.Seed)
	if err != nil {
		return err
	}

	// issuer
	pub, isk, err := issuer.Setup(e, issuerRNG)
	if err != nil {
		return err
	}
	signer, err := cert.NewSigner(issuerRNG)
	if err != nil {
		return err
	}
	certificate, err := cert.Issue(signer, pub, issuerRNG)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "group [%s]\n", pub.GID)
	fmt.Fprintf(out, "  h1: %s\n  h2: %s\n  w:  %s\n", hex.EncodeToString(e.EncodeG1(pub.H1)), hex.EncodeToString(e.EncodeG1(pub.H2)), hex.EncodeToString(e.EncodeG2(pub.W)))

	store, err := storage.Open(ctx, c.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	svc, err := issuance.New(e, pub, isk, store,
		issuance.WithHashAlg(alg),
		issuance.WithRandom(issuerRNG),
		issuance.WithNonceTTL(c.Issuer.NonceTTL),
		issuance.WithWorkers(c.Issuer.Workers),
	)
	if err != nil {
		return err
	}
	defer svc.Close()

	// members take the group public key from the certificate
	certified, err := certificate.Verify(e, signer.Verifier)
	if err != nil {
		return err
	}
	members := make([]*member.Member, args.Members)
	reqs := make([]issuance.Request, args.Members)
	for i := range members {
		members[i], err = member.New(e, certified, member.WithHashAlg(alg), member.WithRandom(memberRNG))
		if err != nil {
			return err
		}
		nonce, err := svc.NewNonce(ctx)
		if err != nil {
			return err
		}
		req, err := members[i].Join(ctx, nonce)
		if err != nil {
			return err
		}
		reqs[i] = issuance.Request{Nonce: nonce, JoinRequest: req}
	}

	for i, res := range svc.IssueBatch(ctx, reqs) {
		if res.Err != nil {
			return errors.WithMessagef(res.Err, "member [%d] was refused", i)
		}
		priv, err := members[i].Complete(ctx, res.Credential)
		if err != nil {
			return errors.WithMessagef(err, "member [%d]", i)
		}
		if err := credential.Check(e, pub, isk, priv); err != nil {
			return errors.WithMessagef(err, "member [%d]", i)
		}
		report(out, e, i, priv)
		priv.Zeroize()
	}

	n, err := svc.Issued(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "issued [%d] credentials\n", n)
	return nil
}

func report(out io.Writer, e *emath.Engine, i int, priv *keys.MemberPrivateKey) {
	fmt.Fprintf(out, "member [%d]\n  A: %s\n  x: %s\n", i, hex.EncodeToString(e.EncodeG1(priv.A)), hex.EncodeToString(e.EncodeZr(priv.X)))
}

// randomSources returns independent issuer and member sources, derived from
// seed when given.
func randomSources(seed string) (io.Reader, io.Reader, error) {
	if seed == "" {
		return rng.Default(), rng.Default(), nil
	}
	is := sha256.Sum256([]byte("issuer:" + seed))
	ms := sha256.Sum256([]byte("member:" + seed))
	ir, err := rng.NewSeeded(is[:])
	if err != nil {
		return nil, nil, err
	}
	mr, err := rng.NewSeeded(ms[:])
	if err != nil {
		return nil, nil, err
	}
	return rng.NewLocked(ir), mr, nil
}
