/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package join

import (
	"io"

	math "github.com/IBM/mathlib"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/services/logging"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("core", "join")

// Verifier checks proofs of knowledge of f such that F = h1^f, bound to an
// issuer nonce.
type Verifier struct {
	Engine *emath.Engine
	Pub    *keys.GroupPublicKey
	Alg    emath.HashAlg
}

func NewVerifier(e *emath.Engine, pub *keys.GroupPublicKey, alg emath.HashAlg) (*Verifier, error) {
	if e == nil {
		return nil, errors.Wrap(emath.ErrInvalidArgument, "nil engine")
	}
	if !alg.Supported() {
		return nil, errors.Wrapf(emath.ErrUnsupportedAlgorithm, "hash algorithm [%d]", int(alg))
	}
	if err := pub.Validate(e); err != nil {
		return nil, err
	}
	return &Verifier{Engine: e, Pub: pub, Alg: alg}, nil
}

// Challenge returns H(p || g1 || g2 || h1 || h2 || w || F || R || nonce).
func (v *Verifier) Challenge(F, R *math.G1, nonce keys.Nonce) (*math.Zr, error) {
	e := v.Engine
	var raw []byte
	raw = append(raw, e.EncodeOrder()...)
	raw = append(raw, e.EncodeG1(e.G1Generator())...)
	raw = append(raw, e.EncodeG2(e.G2Generator())...)
	raw = append(raw, e.EncodeG1(v.Pub.H1)...)
	raw = append(raw, e.EncodeG1(v.Pub.H2)...)
	raw = append(raw, e.EncodeG2(v.Pub.W)...)
	raw = append(raw, e.EncodeG1(F)...)
	raw = append(raw, e.EncodeG1(R)...)
	raw = append(raw, nonce[:]...)
	return e.HashToZr(raw, v.Alg)
}

// RecomputeCommitment returns h1^s · F^(-c).
func (v *Verifier) RecomputeCommitment(req *keys.JoinRequest) *math.G1 {
	e := v.Engine
	return e.MulG1(e.ExpG1(v.Pub.H1, req.S), e.ExpG1(req.F, e.Neg(req.C)))
}

// Verify checks the proof carried by req.
func (v *Verifier) Verify(nonce keys.Nonce, req *keys.JoinRequest) error {
	if err := req.Validate(v.Engine); err != nil {
		return err
	}
	c, err := v.Challenge(req.F, v.RecomputeCommitment(req), nonce)
	if err != nil {
		return err
	}
	if !c.Equals(req.C) {
		return errors.Wrap(emath.ErrInvalidProof, "join request challenge mismatch")
	}
	return nil
}

// Prover produces join requests for the witness f.
type Prover struct {
	*Verifier
	Witness *math.Zr
}

func NewProver(e *emath.Engine, pub *keys.GroupPublicKey, f *math.Zr, alg emath.HashAlg) (*Prover, error) {
	v, err := NewVerifier(e, pub, alg)
	if err != nil {
		return nil, err
	}
	if !e.InRange(f) {
		return nil, errors.Wrap(emath.ErrInvalidArgument, "f must be in [1, p-1]")
	}
	return &Prover{Verifier: v, Witness: f}, nil
}

// Prove computes F = h1^f, commits to R = h1^r, and answers the challenge
// with s = r + c·f.
func (p *Prover) Prove(nonce keys.Nonce, rng io.Reader) (*keys.JoinRequest, error) {
	e := p.Engine
	r, err := e.RandomZr(rng, 1)
	if err != nil {
		return nil, errors.WithMessage(err, "failed sampling commitment randomness")
	}
	defer e.Zeroize(r)

	F := e.ExpG1(p.Pub.H1, p.Witness)
	R := e.ExpG1(p.Pub.H1, r)
	c, err := p.Challenge(F, R, nonce)
	if err != nil {
		return nil, err
	}
	cf := e.Mul(c, p.Witness)
	defer e.Zeroize(cf)
	s := e.Add(r, cf)

	logger.Debugf("join request for group [%s] created", p.Pub.GID)
	return &keys.JoinRequest{Curve: e.CurveID(), F: F, C: c, S: s}, nil
}

// CreateJoinRequest proves knowledge of f for the group pub, bound to nonce.
// All preconditions are checked before any randomness is read.
func CreateJoinRequest(e *emath.Engine, pub *keys.GroupPublicKey, nonce keys.Nonce, f *math.Zr, rng io.Reader, alg emath.HashAlg) (*keys.JoinRequest, error) {
	p, err := NewProver(e, pub, f, alg)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.Wrap(emath.ErrInvalidArgument, "nil random source")
	}
	return p.Prove(nonce, rng)
}

// Verify checks a join request against the group public key and the nonce
// it was created for.
func Verify(e *emath.Engine, pub *keys.GroupPublicKey, nonce keys.Nonce, req *keys.JoinRequest, alg emath.HashAlg) error {
	v, err := NewVerifier(e, pub, alg)
	if err != nil {
		return err
	}
	return v.Verify(nonce, req)
}

// Challenge computes the Fiat-Shamir challenge of a join request.
func Challenge(e *emath.Engine, pub *keys.GroupPublicKey, F, R *math.G1, nonce keys.Nonce, alg emath.HashAlg) (*math.Zr, error) {
	v, err := NewVerifier(e, pub, alg)
	if err != nil {
		return nil, err
	}
	if F == nil || R == nil {
		return nil, errors.Wrap(emath.ErrInvalidArgument, "nil commitment")
	}
	return v.Challenge(F, R, nonce)
}
