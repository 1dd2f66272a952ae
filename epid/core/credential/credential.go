/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"io"

	math "github.com/IBM/mathlib"
	"github.com/hyperledger-labs/epid-issuance/epid/core/join"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/services/logging"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("core", "credential")

// Issue derives the member credential (gid, A, x, f) with A = (g1·h1^f)^(1/(x+gamma)).
// If x is nil it is sampled from rng.
//
// Issue takes the member secret f directly and does not check any proof of
// knowledge of it. An issuer talking to members must use IssueFromJoinRequest.
func Issue(e *emath.Engine, pub *keys.GroupPublicKey, isk *keys.IssuerPrivateKey, f, x *math.Zr, rng io.Reader) (*keys.MemberPrivateKey, error) {
	if err := checkIssuer(e, pub, isk); err != nil {
		return nil, err
	}
	if !e.InRange(f) {
		return nil, errors.Wrap(emath.ErrInvalidArgument, "f must be in [1, p-1]")
	}
	F := e.ExpG1(pub.H1, f)
	A, x, err := sign(e, isk, F, x, rng)
	if err != nil {
		return nil, err
	}
	return &keys.MemberPrivateKey{Curve: e.CurveID(), GID: pub.GID, A: A, X: x, F: f.Copy()}, nil
}

// IssueFromJoinRequest checks the join request against nonce and then
// signs the proven commitment F = h1^f. The issuer never learns f.
func IssueFromJoinRequest(e *emath.Engine, pub *keys.GroupPublicKey, isk *keys.IssuerPrivateKey, nonce keys.Nonce, req *keys.JoinRequest, alg emath.HashAlg, x *math.Zr, rng io.Reader) (*keys.MembershipCredential, error) {
	if err := checkIssuer(e, pub, isk); err != nil {
		return nil, err
	}
	if err := join.Verify(e, pub, nonce, req, alg); err != nil {
		return nil, errors.WithMessage(err, "join request rejected")
	}
	A, x, err := sign(e, isk, req.F, x, rng)
	if err != nil {
		return nil, err
	}
	return &keys.MembershipCredential{Curve: e.CurveID(), GID: pub.GID, A: A, X: x}, nil
}

// Complete combines a membership credential with the member secret f and
// checks the result with Verify.
func Complete(e *emath.Engine, pub *keys.GroupPublicKey, cred *keys.MembershipCredential, f *math.Zr) (*keys.MemberPrivateKey, error) {
	if e == nil {
		return nil, errors.Wrap(emath.ErrInvalidArgument, "nil engine")
	}
	if err := pub.Validate(e); err != nil {
		return nil, err
	}
	if err := cred.Validate(e); err != nil {
		return nil, err
	}
	if cred.GID != pub.GID {
		return nil, errors.Wrapf(emath.ErrInvalidArgument, "credential is for group [%s], not [%s]", cred.GID, pub.GID)
	}
	if !e.InRange(f) {
		return nil, errors.Wrap(emath.ErrInvalidArgument, "f must be in [1, p-1]")
	}
	priv := &keys.MemberPrivateKey{Curve: e.CurveID(), GID: cred.GID, A: cred.A.Copy(), X: cred.X.Copy(), F: f.Copy()}
	if err := Verify(e, pub, priv); err != nil {
		priv.Zeroize()
		return nil, err
	}
	return priv, nil
}

// Check verifies with the issuer secret that A^(x+gamma) = g1·h1^f.
func Check(e *emath.Engine, pub *keys.GroupPublicKey, isk *keys.IssuerPrivateKey, priv *keys.MemberPrivateKey) error {
	if err := checkIssuer(e, pub, isk); err != nil {
		return err
	}
	if err := checkMember(e, pub, priv); err != nil {
		return err
	}
	sum := e.Add(priv.X, isk.Gamma)
	defer e.Zeroize(sum)
	if !e.ExpG1(priv.A, sum).Equals(e.MulG1(e.G1Generator(), e.ExpG1(pub.H1, priv.F))) {
		return errors.Wrap(emath.ErrInvalidCredential, "A^(x+gamma) != g1·F")
	}
	return nil
}

// Verify checks the credential against the group public key only:
// e(A, w·g2^x) = e(g1·h1^f, g2).
func Verify(e *emath.Engine, pub *keys.GroupPublicKey, priv *keys.MemberPrivateKey) error {
	if err := checkMember(e, pub, priv); err != nil {
		return err
	}
	return VerifyCommitment(e, pub, priv.Credential(), e.ExpG1(pub.H1, priv.F))
}

// VerifyCommitment is like Verify but takes F = h1^f in place of f.
func VerifyCommitment(e *emath.Engine, pub *keys.GroupPublicKey, cred *keys.MembershipCredential, F *math.G1) error {
	if e == nil {
		return errors.Wrap(emath.ErrInvalidArgument, "nil engine")
	}
	if err := pub.Validate(e); err != nil {
		return err
	}
	if err := cred.Validate(e); err != nil {
		return err
	}
	if F == nil {
		return errors.Wrap(emath.ErrInvalidArgument, "nil commitment")
	}
	wx := e.MulG2(pub.W, e.ExpG2(e.G2Generator(), cred.X))
	gf := e.MulG1(e.G1Generator(), F)
	if !e.PairingCheck(wx, cred.A, e.G2Generator(), gf) {
		return errors.Wrap(emath.ErrInvalidCredential, "pairing check failed")
	}
	return nil
}

func sign(e *emath.Engine, isk *keys.IssuerPrivateKey, F *math.G1, x *math.Zr, rng io.Reader) (*math.G1, *math.Zr, error) {
	if x == nil {
		var err error
		x, err = e.RandomZr(rng, 1)
		if err != nil {
			return nil, nil, errors.WithMessage(err, "failed sampling x")
		}
	} else if !e.InRange(x) {
		return nil, nil, errors.Wrap(emath.ErrInvalidArgument, "x must be in [1, p-1]")
	} else {
		x = x.Copy()
	}

	sum := e.Add(x, isk.Gamma)
	defer e.Zeroize(sum)
	inv, err := e.Inverse(sum)
	if err != nil {
		return nil, nil, errors.Wrap(emath.ErrDegenerateKey, "x + gamma = 0 mod p")
	}
	defer e.Zeroize(inv)

	A := e.ExpG1(e.MulG1(e.G1Generator(), F), inv)
	logger.Debugf("issued credential for group [%s]", isk.GID)
	return A, x, nil
}

func checkIssuer(e *emath.Engine, pub *keys.GroupPublicKey, isk *keys.IssuerPrivateKey) error {
	if e == nil {
		return errors.Wrap(emath.ErrInvalidArgument, "nil engine")
	}
	if err := pub.Validate(e); err != nil {
		return err
	}
	return isk.Validate(e, pub)
}

func checkMember(e *emath.Engine, pub *keys.GroupPublicKey, priv *keys.MemberPrivateKey) error {
	if e == nil {
		return errors.Wrap(emath.ErrInvalidArgument, "nil engine")
	}
	if priv == nil {
		return errors.Wrap(emath.ErrInvalidArgument, "nil member private key")
	}
	if err := priv.Credential().Validate(e); err != nil {
		return err
	}
	if !e.InRange(priv.F) {
		return errors.Wrap(emath.ErrInvalidArgument, "f must be in [1, p-1]")
	}
	if pub != nil && priv.GID != pub.GID {
		return errors.Wrapf(emath.ErrInvalidArgument, "credential is for group [%s], not [%s]", priv.GID, pub.GID)
	}
	return nil
}
