/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package member

import (
	"context"
	"io"
	"sync"

	math "github.com/IBM/mathlib"
	"github.com/hyperledger-labs/epid-issuance/epid/core/credential"
	"github.com/hyperledger-labs/epid-issuance/epid/core/join"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/core/math/rng"
	"github.com/hyperledger-labs/epid-issuance/epid/services/logging"
	"github.com/hyperledger-labs/epid-issuance/epid/services/metrics"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("services", "member")

// ErrNoPendingJoin is returned by Complete when Join was not called first.
var ErrNoPendingJoin = errors.New("no pending join")

type Option func(*Member)

func WithHashAlg(alg emath.HashAlg) Option {
	return func(m *Member) { m.alg = alg }
}

func WithRandom(r io.Reader) Option {
	return func(m *Member) { m.rng = rng.NewLocked(r) }
}

func WithMetricsProvider(p metrics.Provider) Option {
	return func(m *Member) { m.metricsProvider = p }
}

// Member is the member side of the join protocol. It keeps the secret f
// between Join and Complete.
type Member struct {
	engine          *emath.Engine
	pub             *keys.GroupPublicKey
	alg             emath.HashAlg
	rng             io.Reader
	metricsProvider metrics.Provider
	metrics         *metrics.Metrics

	mu      sync.Mutex
	pending *math.Zr
}

func New(e *emath.Engine, pub *keys.GroupPublicKey, opts ...Option) (*Member, error) {
	if e == nil {
		return nil, errors.Wrap(emath.ErrInvalidArgument, "nil engine")
	}
	if err := pub.Validate(e); err != nil {
		return nil, err
	}
	m := &Member{
		engine:          e,
		pub:             pub,
		alg:             emath.DefaultHashAlg,
		rng:             rng.Default(),
		metricsProvider: metrics.NewDisabledProvider(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.alg.Supported() {
		return nil, errors.Wrapf(emath.ErrUnsupportedAlgorithm, "hash algorithm [%d]", int(m.alg))
	}
	m.metrics = metrics.New(m.metricsProvider, pub.GID.String())
	return m, nil
}

// Join draws a fresh secret f and proves knowledge of it, bound to the issuer nonce.
// A previous pending join is discarded.
func (m *Member) Join(ctx context.Context, nonce keys.Nonce) (req *keys.JoinRequest, err error) {
	defer func() { m.metrics.AddJoin(err == nil) }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := m.engine.RandomZr(m.rng, 1)
	if err != nil {
		return nil, errors.WithMessage(err, "failed sampling member secret")
	}
	req, err = join.CreateJoinRequest(m.engine, m.pub, nonce, f, m.rng, m.alg)
	if err != nil {
		m.engine.Zeroize(f)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.Zeroize(m.pending)
	m.pending = f
	logger.Debugf("join request created for group [%s]", m.pub.GID)
	return req, nil
}

// Complete turns the credential returned by the issuer into the member
// private key. The pending secret is released once the credential verifies.
func (m *Member) Complete(ctx context.Context, cred *keys.MembershipCredential) (*keys.MemberPrivateKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return nil, ErrNoPendingJoin
	}
	priv, err := credential.Complete(m.engine, m.pub, cred, m.pending)
	if err != nil {
		return nil, err
	}
	m.engine.Zeroize(m.pending)
	m.pending = nil
	logger.Infof("joined group [%s]", m.pub.GID)
	return priv, nil
}

// Pending returns true between a successful Join and the matching Complete.
func (m *Member) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}
