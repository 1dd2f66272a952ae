/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keys_test

import (
	"bytes"
	"testing"

	math "github.com/IBM/mathlib"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/core/math/rng"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(b byte) *rng.Seeded {
	return rng.MustNewSeeded(bytes.Repeat([]byte{b}, rng.SeedSize))
}

func randomKeys(t *testing.T, e *emath.Engine, r *rng.Seeded) (*keys.GroupPublicKey, *keys.IssuerPrivateKey) {
	gid, err := keys.NewGroupID(r)
	require.NoError(t, err)
	h1, err := e.RandomG1(r)
	require.NoError(t, err)
	h2, err := e.RandomG1(r)
	require.NoError(t, err)
	gamma, err := e.RandomZr(r, 1)
	require.NoError(t, err)
	pub := &keys.GroupPublicKey{Curve: e.CurveID(), GID: gid, H1: h1, H2: h2, W: e.ExpG2(e.G2Generator(), gamma)}
	isk := &keys.IssuerPrivateKey{Curve: e.CurveID(), GID: gid, Gamma: gamma}
	return pub, isk
}

func TestGroupID(t *testing.T) {
	gid, err := keys.NewGroupID(seeded(1))
	require.NoError(t, err)
	assert.False(t, gid.IsZero())
	assert.Len(t, gid.String(), 36)

	back, err := keys.ParseGroupID(gid.String())
	require.NoError(t, err)
	assert.Equal(t, gid, back)

	again, err := keys.NewGroupID(seeded(1))
	require.NoError(t, err)
	assert.Equal(t, gid, again)

	_, err = keys.ParseGroupID("not-a-uuid")
	assert.True(t, errors.Is(err, emath.ErrMalformedEncoding))
	_, err = keys.NewGroupID(rng.Exhausted{})
	assert.True(t, errors.Is(err, emath.ErrRandomSource))
	_, err = keys.NewGroupID(nil)
	assert.True(t, errors.Is(err, emath.ErrInvalidArgument))
	assert.True(t, keys.GroupID{}.IsZero())
}

func TestNonce(t *testing.T) {
	n, err := keys.NewNonce(seeded(2))
	require.NoError(t, err)
	back, err := keys.ParseNonce(n.String())
	require.NoError(t, err)
	assert.Equal(t, n, back)

	_, err = keys.NonceFromBytes(make([]byte, 31))
	assert.True(t, errors.Is(err, emath.ErrMalformedEncoding))
	_, err = keys.ParseNonce("zz")
	assert.True(t, errors.Is(err, emath.ErrMalformedEncoding))
	_, err = keys.NewNonce(&rng.Limited{R: seeded(2), N: 8})
	assert.True(t, errors.Is(err, emath.ErrRandomSource))
}

func TestSerialization(t *testing.T) {
	for _, id := range []math.CurveID{math.FP256BN_AMCL, math.BN254, math.BLS12_381_BBS} {
		e := emath.MustNewEngine(id)
		r := seeded(3)
		pub, isk := randomKeys(t, e, r)

		raw, err := pub.Serialize()
		require.NoError(t, err)
		pub2 := &keys.GroupPublicKey{}
		require.NoError(t, pub2.Deserialize(raw))
		assert.Equal(t, pub.GID, pub2.GID)
		assert.Equal(t, id, pub2.Curve)
		assert.True(t, pub.H1.Equals(pub2.H1))
		assert.True(t, pub.H2.Equals(pub2.H2))
		assert.True(t, pub.W.Equals(pub2.W))
		require.NoError(t, pub2.Validate(e))

		raw, err = isk.Serialize()
		require.NoError(t, err)
		isk2 := &keys.IssuerPrivateKey{}
		require.NoError(t, isk2.Deserialize(raw))
		assert.True(t, isk.Gamma.Equals(isk2.Gamma))
		require.NoError(t, isk2.Validate(e, pub2))

		f, err := e.RandomZr(r, 1)
		require.NoError(t, err)
		req := &keys.JoinRequest{Curve: id, F: e.ExpG1(pub.H1, f), C: f, S: f}
		raw, err = req.Serialize()
		require.NoError(t, err)
		req2 := &keys.JoinRequest{}
		require.NoError(t, req2.Deserialize(raw))
		assert.True(t, req.F.Equals(req2.F))
		assert.True(t, req.C.Equals(req2.C))
		require.NoError(t, req2.Validate(e))

		priv := &keys.MemberPrivateKey{Curve: id, GID: pub.GID, A: e.G1Generator(), X: f, F: f}
		raw, err = priv.Serialize()
		require.NoError(t, err)
		priv2 := &keys.MemberPrivateKey{}
		require.NoError(t, priv2.Deserialize(raw))
		assert.True(t, priv.A.Equals(priv2.A))
		assert.True(t, priv.F.Equals(priv2.F))

		cred := priv2.Credential()
		raw, err = cred.Serialize()
		require.NoError(t, err)
		cred2 := &keys.MembershipCredential{}
		require.NoError(t, cred2.Deserialize(raw))
		assert.True(t, cred.A.Equals(cred2.A))
		assert.True(t, cred.X.Equals(cred2.X))
		require.NoError(t, cred2.Validate(e))

		// artifacts are typed
		err = (&keys.GroupPublicKey{}).Deserialize(raw)
		assert.True(t, errors.Is(err, emath.ErrMalformedEncoding))
	}
}

func TestDeserializeMalformed(t *testing.T) {
	e := emath.MustNewEngine(emath.DefaultCurve)
	pub, _ := randomKeys(t, e, seeded(4))
	raw, err := pub.Serialize()
	require.NoError(t, err)

	for _, bad := range [][]byte{nil, raw[:len(raw)-1], append(append([]byte{}, raw...), 0)} {
		err := (&keys.GroupPublicKey{}).Deserialize(bad)
		assert.True(t, errors.Is(err, emath.ErrMalformedEncoding))
	}
}

func TestValidate(t *testing.T) {
	e := emath.MustNewEngine(emath.DefaultCurve)
	other := emath.MustNewEngine(math.BN254)
	pub, isk := randomKeys(t, e, seeded(5))

	assert.NoError(t, pub.Validate(e))
	assert.True(t, errors.Is(pub.Validate(other), emath.ErrInvalidArgument))
	var nilKey *keys.GroupPublicKey
	assert.True(t, errors.Is(nilKey.Validate(e), emath.ErrInvalidArgument))

	broken := *pub
	broken.H2 = e.Curve.NewG1()
	assert.True(t, errors.Is(broken.Validate(e), emath.ErrInvalidArgument))

	assert.NoError(t, isk.Validate(e, pub))
	pub2, _ := randomKeys(t, e, seeded(6))
	assert.True(t, errors.Is(isk.Validate(e, pub2), emath.ErrInvalidArgument))

	isk.Zeroize()
	assert.True(t, e.IsZero(isk.Gamma))
	assert.True(t, errors.Is(isk.Validate(e, nil), emath.ErrInvalidArgument))

	req := &keys.JoinRequest{Curve: e.CurveID(), F: e.Curve.NewG1(), C: e.Curve.NewZrFromInt(1), S: e.Curve.NewZrFromInt(1)}
	assert.True(t, errors.Is(req.Validate(e), emath.ErrInvalidArgument))
}
