/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keys

import (
	math "github.com/IBM/mathlib"
	"github.com/hyperledger-labs/epid-issuance/epid/core/encoding/asn1"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/pkg/errors"
)

const (
	kindGroupPublicKey       = "epid.gpk"
	kindIssuerPrivateKey     = "epid.isk"
	kindJoinRequest          = "epid.joinreq"
	kindMembershipCredential = "epid.cred"
	kindMemberPrivateKey     = "epid.msk"
)

// GroupPublicKey is published by the issuer. W = g2^gamma.
type GroupPublicKey struct {
	Curve math.CurveID
	GID   GroupID
	H1    *math.G1
	H2    *math.G1
	W     *math.G2
}

// Validate checks that the key is complete, belongs to the engine curve and
// carries no identity element.
func (k *GroupPublicKey) Validate(e *emath.Engine) error {
	if k == nil {
		return errors.Wrap(emath.ErrInvalidArgument, "nil group public key")
	}
	if k.Curve != e.CurveID() {
		return errors.Wrapf(emath.ErrInvalidArgument, "group public key is for curve [%d], engine is for [%d]", k.Curve, e.CurveID())
	}
	if k.H1 == nil || k.H2 == nil || k.W == nil {
		return errors.Wrap(emath.ErrInvalidArgument, "incomplete group public key")
	}
	if e.IsIdentityG1(k.H1) || e.IsIdentityG1(k.H2) || e.IsIdentityG2(k.W) {
		return errors.Wrap(emath.ErrInvalidArgument, "group public key contains the identity")
	}
	return nil
}

func (k *GroupPublicKey) Serialize() ([]byte, error) {
	enc, err := newEncoder(k.Curve, kindGroupPublicKey)
	if err != nil {
		return nil, err
	}
	return enc.AddBytes(k.GID[:]).AddG1(k.H1).AddG1(k.H2).AddG2(k.W).Bytes()
}

func (k *GroupPublicKey) Deserialize(raw []byte) error {
	e, d, err := newDecoder(raw, kindGroupPublicKey)
	if err != nil {
		return err
	}
	gid, err := nextGroupID(d)
	if err != nil {
		return err
	}
	h1, err := d.NextG1()
	if err != nil {
		return errors.WithMessage(err, "failed to decode h1")
	}
	h2, err := d.NextG1()
	if err != nil {
		return errors.WithMessage(err, "failed to decode h2")
	}
	w, err := d.NextG2()
	if err != nil {
		return errors.WithMessage(err, "failed to decode w")
	}
	if err := d.Done(); err != nil {
		return err
	}
	*k = GroupPublicKey{Curve: e.CurveID(), GID: gid, H1: h1, H2: h2, W: w}
	return nil
}

// IssuerPrivateKey holds the issuer secret gamma. It must never be logged.
type IssuerPrivateKey struct {
	Curve math.CurveID
	GID   GroupID
	Gamma *math.Zr
}

// Validate checks that gamma is in [1, p-1] and that the key matches pub.
func (k *IssuerPrivateKey) Validate(e *emath.Engine, pub *GroupPublicKey) error {
	if k == nil {
		return errors.Wrap(emath.ErrInvalidArgument, "nil issuer private key")
	}
	if k.Curve != e.CurveID() {
		return errors.Wrapf(emath.ErrInvalidArgument, "issuer private key is for curve [%d], engine is for [%d]", k.Curve, e.CurveID())
	}
	if !e.InRange(k.Gamma) {
		return errors.Wrap(emath.ErrInvalidArgument, "gamma out of range")
	}
	if pub == nil {
		return nil
	}
	if pub.GID != k.GID {
		return errors.Wrapf(emath.ErrInvalidArgument, "group id mismatch, [%s] != [%s]", k.GID, pub.GID)
	}
	if pub.W == nil || !e.ExpG2(e.G2Generator(), k.Gamma).Equals(pub.W) {
		return errors.Wrap(emath.ErrInvalidArgument, "issuer private key does not match the group public key")
	}
	return nil
}

// Zeroize overwrites gamma.
func (k *IssuerPrivateKey) Zeroize() {
	zeroize(k.Curve, k.Gamma)
}

func (k *IssuerPrivateKey) Serialize() ([]byte, error) {
	enc, err := newEncoder(k.Curve, kindIssuerPrivateKey)
	if err != nil {
		return nil, err
	}
	return enc.AddBytes(k.GID[:]).AddZr(k.Gamma).Bytes()
}

func (k *IssuerPrivateKey) Deserialize(raw []byte) error {
	e, d, err := newDecoder(raw, kindIssuerPrivateKey)
	if err != nil {
		return err
	}
	gid, err := nextGroupID(d)
	if err != nil {
		return err
	}
	gamma, err := d.NextZr()
	if err != nil {
		return errors.WithMessage(err, "failed to decode gamma")
	}
	if err := d.Done(); err != nil {
		return err
	}
	*k = IssuerPrivateKey{Curve: e.CurveID(), GID: gid, Gamma: gamma}
	return nil
}

// JoinRequest carries F = h1^f and a proof (C, S) of knowledge of f.
type JoinRequest struct {
	Curve math.CurveID
	F     *math.G1
	C     *math.Zr
	S     *math.Zr
}

func (r *JoinRequest) Validate(e *emath.Engine) error {
	if r == nil {
		return errors.Wrap(emath.ErrInvalidArgument, "nil join request")
	}
	if r.Curve != e.CurveID() {
		return errors.Wrapf(emath.ErrInvalidArgument, "join request is for curve [%d], engine is for [%d]", r.Curve, e.CurveID())
	}
	if r.F == nil || r.C == nil || r.S == nil {
		return errors.Wrap(emath.ErrInvalidArgument, "incomplete join request")
	}
	if e.IsIdentityG1(r.F) {
		return errors.Wrap(emath.ErrInvalidArgument, "F is the identity")
	}
	return nil
}

func (r *JoinRequest) Serialize() ([]byte, error) {
	enc, err := newEncoder(r.Curve, kindJoinRequest)
	if err != nil {
		return nil, err
	}
	return enc.AddG1(r.F).AddZr(r.C).AddZr(r.S).Bytes()
}

func (r *JoinRequest) Deserialize(raw []byte) error {
	e, d, err := newDecoder(raw, kindJoinRequest)
	if err != nil {
		return err
	}
	f, err := d.NextG1()
	if err != nil {
		return errors.WithMessage(err, "failed to decode F")
	}
	c, err := d.NextZr()
	if err != nil {
		return errors.WithMessage(err, "failed to decode c")
	}
	s, err := d.NextZr()
	if err != nil {
		return errors.WithMessage(err, "failed to decode s")
	}
	if err := d.Done(); err != nil {
		return err
	}
	*r = JoinRequest{Curve: e.CurveID(), F: f, C: c, S: s}
	return nil
}

// MembershipCredential is what the issuer returns to a member: A = (g1·F)^(1/(x+gamma)).
type MembershipCredential struct {
	Curve math.CurveID
	GID   GroupID
	A     *math.G1
	X     *math.Zr
}

func (c *MembershipCredential) Validate(e *emath.Engine) error {
	if c == nil {
		return errors.Wrap(emath.ErrInvalidArgument, "nil membership credential")
	}
	if c.Curve != e.CurveID() {
		return errors.Wrapf(emath.ErrInvalidArgument, "credential is for curve [%d], engine is for [%d]", c.Curve, e.CurveID())
	}
	if c.A == nil || !e.InRange(c.X) {
		return errors.Wrap(emath.ErrInvalidArgument, "incomplete membership credential")
	}
	if e.IsIdentityG1(c.A) {
		return errors.Wrap(emath.ErrInvalidArgument, "A is the identity")
	}
	return nil
}

func (c *MembershipCredential) Serialize() ([]byte, error) {
	enc, err := newEncoder(c.Curve, kindMembershipCredential)
	if err != nil {
		return nil, err
	}
	return enc.AddBytes(c.GID[:]).AddG1(c.A).AddZr(c.X).Bytes()
}

func (c *MembershipCredential) Deserialize(raw []byte) error {
	e, d, err := newDecoder(raw, kindMembershipCredential)
	if err != nil {
		return err
	}
	gid, err := nextGroupID(d)
	if err != nil {
		return err
	}
	a, err := d.NextG1()
	if err != nil {
		return errors.WithMessage(err, "failed to decode A")
	}
	x, err := d.NextZr()
	if err != nil {
		return errors.WithMessage(err, "failed to decode x")
	}
	if err := d.Done(); err != nil {
		return err
	}
	*c = MembershipCredential{Curve: e.CurveID(), GID: gid, A: a, X: x}
	return nil
}

// MemberPrivateKey is the member credential (gid, A, x, f). It must never be logged.
type MemberPrivateKey struct {
	Curve math.CurveID
	GID   GroupID
	A     *math.G1
	X     *math.Zr
	F     *math.Zr
}

// Credential returns the public part of the key.
func (k *MemberPrivateKey) Credential() *MembershipCredential {
	return &MembershipCredential{Curve: k.Curve, GID: k.GID, A: k.A, X: k.X}
}

// Zeroize overwrites x and f.
func (k *MemberPrivateKey) Zeroize() {
	zeroize(k.Curve, k.X, k.F)
}

func (k *MemberPrivateKey) Serialize() ([]byte, error) {
	enc, err := newEncoder(k.Curve, kindMemberPrivateKey)
	if err != nil {
		return nil, err
	}
	return enc.AddBytes(k.GID[:]).AddG1(k.A).AddZr(k.X).AddZr(k.F).Bytes()
}

func (k *MemberPrivateKey) Deserialize(raw []byte) error {
	e, d, err := newDecoder(raw, kindMemberPrivateKey)
	if err != nil {
		return err
	}
	gid, err := nextGroupID(d)
	if err != nil {
		return err
	}
	a, err := d.NextG1()
	if err != nil {
		return errors.WithMessage(err, "failed to decode A")
	}
	x, err := d.NextZr()
	if err != nil {
		return errors.WithMessage(err, "failed to decode x")
	}
	f, err := d.NextZr()
	if err != nil {
		return errors.WithMessage(err, "failed to decode f")
	}
	if err := d.Done(); err != nil {
		return err
	}
	*k = MemberPrivateKey{Curve: e.CurveID(), GID: gid, A: a, X: x, F: f}
	return nil
}

func newEncoder(id math.CurveID, kind string) (*asn1.Encoder, error) {
	e, err := emath.EngineFor(id)
	if err != nil {
		return nil, err
	}
	return asn1.NewEncoder(e).AddBytes([]byte(kind)), nil
}

func newDecoder(raw []byte, kind string) (*emath.Engine, *asn1.Decoder, error) {
	id, err := asn1.PeekCurve(raw)
	if err != nil {
		return nil, nil, err
	}
	e, err := emath.EngineFor(id)
	if err != nil {
		return nil, nil, errors.Wrapf(emath.ErrMalformedEncoding, "unknown curve [%d]", id)
	}
	d, err := asn1.NewDecoder(e, raw)
	if err != nil {
		return nil, nil, err
	}
	k, err := d.NextBytes()
	if err != nil {
		return nil, nil, err
	}
	if string(k) != kind {
		return nil, nil, errors.Wrapf(emath.ErrMalformedEncoding, "expected [%s], got [%s]", kind, k)
	}
	return e, d, nil
}

func nextGroupID(d *asn1.Decoder) (GroupID, error) {
	raw, err := d.NextBytes()
	if err != nil {
		return GroupID{}, err
	}
	return groupIDFromBytes(raw)
}

func zeroize(id math.CurveID, zs ...*math.Zr) {
	e, err := emath.EngineFor(id)
	if err != nil {
		return
	}
	e.Zeroize(zs...)
}
