/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package member_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/hyperledger-labs/epid-issuance/epid/core/credential"
	"github.com/hyperledger-labs/epid-issuance/epid/core/issuer"
	"github.com/hyperledger-labs/epid-issuance/epid/core/join"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/core/math/rng"
	"github.com/hyperledger-labs/epid-issuance/epid/services/member"
	"github.com/hyperledger-labs/epid-issuance/epid/services/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(b byte) *rng.Seeded {
	return rng.MustNewSeeded(bytes.Repeat([]byte{b}, rng.SeedSize))
}

func setup(t *testing.T) (*emath.Engine, *keys.GroupPublicKey, *keys.IssuerPrivateKey, keys.Nonce) {
	e := emath.MustNewEngine(emath.DefaultCurve)
	pub, isk, err := issuer.Setup(e, seeded(1))
	require.NoError(t, err)
	nonce, err := issuer.NewNonce(seeded(2))
	require.NoError(t, err)
	return e, pub, isk, nonce
}

func TestJoinAndComplete(t *testing.T) {
	ctx := context.Background()
	e, pub, isk, nonce := setup(t)
	m, err := member.New(e, pub, member.WithRandom(seeded(3)), member.WithHashAlg(emath.SHA384))
	require.NoError(t, err)
	assert.False(t, m.Pending())

	req, err := m.Join(ctx, nonce)
	require.NoError(t, err)
	assert.True(t, m.Pending())
	require.NoError(t, join.Verify(e, pub, nonce, req, emath.SHA384))

	cred, err := credential.IssueFromJoinRequest(e, pub, isk, nonce, req, emath.SHA384, nil, seeded(4))
	require.NoError(t, err)
	priv, err := m.Complete(ctx, cred)
	require.NoError(t, err)
	assert.False(t, m.Pending())
	assert.True(t, priv.F != nil && e.ExpG1(pub.H1, priv.F).Equals(req.F))
	assert.NoError(t, credential.Check(e, pub, isk, priv))

	// the secret is released after a successful completion
	_, err = m.Complete(ctx, cred)
	assert.True(t, errors.Is(err, member.ErrNoPendingJoin))
}

func TestRejoin(t *testing.T) {
	ctx := context.Background()
	e, pub, isk, nonce := setup(t)
	m, err := member.New(e, pub, member.WithRandom(seeded(3)))
	require.NoError(t, err)

	first, err := m.Join(ctx, nonce)
	require.NoError(t, err)
	second, err := m.Join(ctx, nonce)
	require.NoError(t, err)
	assert.False(t, first.F.Equals(second.F), "every join draws a fresh secret")

	// the first secret is gone
	stale, err := credential.IssueFromJoinRequest(e, pub, isk, nonce, first, emath.DefaultHashAlg, nil, seeded(4))
	require.NoError(t, err)
	_, err = m.Complete(ctx, stale)
	assert.True(t, errors.Is(err, emath.ErrInvalidCredential), "got %v", err)
	assert.True(t, m.Pending(), "a rejected credential keeps the join open")

	cred, err := credential.IssueFromJoinRequest(e, pub, isk, nonce, second, emath.DefaultHashAlg, nil, seeded(5))
	require.NoError(t, err)
	_, err = m.Complete(ctx, cred)
	assert.NoError(t, err)
}

func TestCompleteRejects(t *testing.T) {
	ctx := context.Background()
	e, pub, _, nonce := setup(t)
	m, err := member.New(e, pub, member.WithRandom(seeded(3)))
	require.NoError(t, err)

	_, err = m.Complete(ctx, &keys.MembershipCredential{})
	assert.True(t, errors.Is(err, member.ErrNoPendingJoin))

	_, err = m.Join(ctx, nonce)
	require.NoError(t, err)
	_, err = m.Complete(ctx, nil)
	assert.True(t, errors.Is(err, emath.ErrInvalidArgument), "got %v", err)

	// a credential of another group
	otherPub, otherIsk, err := issuer.Setup(e, seeded(9))
	require.NoError(t, err)
	other, err := credential.Issue(e, otherPub, otherIsk, e.Curve.NewZrFromInt(7), nil, seeded(4))
	require.NoError(t, err)
	_, err = m.Complete(ctx, other.Credential())
	assert.True(t, errors.Is(err, emath.ErrInvalidArgument), "got %v", err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.Join(cctx, nonce)
	assert.True(t, errors.Is(err, context.Canceled))
	_, err = m.Complete(cctx, other.Credential())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNew(t *testing.T) {
	e, pub, _, _ := setup(t)

	_, err := member.New(nil, pub)
	assert.True(t, errors.Is(err, emath.ErrInvalidArgument))
	_, err = member.New(e, nil)
	assert.True(t, errors.Is(err, emath.ErrInvalidArgument))
	_, err = member.New(e, pub, member.WithHashAlg(emath.HashAlg(9)))
	assert.True(t, errors.Is(err, emath.ErrUnsupportedAlgorithm))
}

func TestJoinMetrics(t *testing.T) {
	ctx := context.Background()
	e, pub, _, nonce := setup(t)
	reg := prometheus.NewRegistry()

	m, err := member.New(e, pub, member.WithMetricsProvider(metrics.NewPrometheusProvider(reg)), member.WithRandom(seeded(3)))
	require.NoError(t, err)
	_, err = m.Join(ctx, nonce)
	require.NoError(t, err)

	broken, err := member.New(e, pub, member.WithMetricsProvider(metrics.NewPrometheusProvider(reg)), member.WithRandom(rng.Exhausted{}))
	require.NoError(t, err)
	_, err = broken.Join(ctx, nonce)
	assert.True(t, errors.Is(err, emath.ErrRandomSource))
	assert.False(t, broken.Pending())

	count, err := testutil.GatherAndCount(reg, "epid_member_join_operations")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per outcome")
}
