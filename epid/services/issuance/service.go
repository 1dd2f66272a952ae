/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuance

import (
	"context"
	"io"
	"time"

	"github.com/hyperledger-labs/epid-issuance/epid/core/credential"
	"github.com/hyperledger-labs/epid-issuance/epid/core/issuer"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/core/math/rng"
	"github.com/hyperledger-labs/epid-issuance/epid/services/logging"
	"github.com/hyperledger-labs/epid-issuance/epid/services/metrics"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/driver"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var logger = logging.MustGetLogger("services", "issuance")

// Service is the issuer side of the join protocol. It hands out single-use
// nonces and issues membership credentials for join requests bound to them.
type Service struct {
	engine *emath.Engine
	pub    *keys.GroupPublicKey
	isk    *keys.IssuerPrivateKey
	store  driver.Store

	alg             emath.HashAlg
	rng             io.Reader
	nonceTTL        time.Duration
	workers         int
	now             func() time.Time
	metricsProvider metrics.Provider
	tracerProvider  trace.TracerProvider

	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(e *emath.Engine, pub *keys.GroupPublicKey, isk *keys.IssuerPrivateKey, store driver.Store, opts ...Option) (*Service, error) {
	if e == nil || store == nil {
		return nil, errors.Wrap(emath.ErrInvalidArgument, "engine and store are required")
	}
	if err := pub.Validate(e); err != nil {
		return nil, err
	}
	if err := isk.Validate(e, pub); err != nil {
		return nil, err
	}
	s := &Service{
		engine:          e,
		pub:             pub,
		isk:             isk,
		store:           store,
		alg:             emath.DefaultHashAlg,
		rng:             rng.Default(),
		nonceTTL:        10 * time.Minute,
		workers:         4,
		now:             time.Now,
		metricsProvider: metrics.NewDisabledProvider(),
		tracerProvider:  noop.NewTracerProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.alg.Supported() {
		return nil, errors.Wrapf(emath.ErrUnsupportedAlgorithm, "hash algorithm [%d]", int(s.alg))
	}
	if s.workers <= 0 {
		return nil, errors.Wrapf(emath.ErrInvalidArgument, "workers must be positive, got [%d]", s.workers)
	}
	s.metrics = metrics.New(s.metricsProvider, pub.GID.String())
	s.tracer = s.tracerProvider.Tracer("epid.issuance")
	return s, nil
}

func (s *Service) PublicKey() *keys.GroupPublicKey {
	return s.pub
}

func (s *Service) HashAlg() emath.HashAlg {
	return s.alg
}

// NewNonce draws and records a nonce for one join.
func (s *Service) NewNonce(ctx context.Context) (keys.Nonce, error) {
	ctx, span := s.tracer.Start(ctx, "new_nonce", trace.WithAttributes(attribute.String("group", s.pub.GID.String())))
	defer span.End()

	nonce, err := issuer.NewNonce(s.rng)
	if err != nil {
		return keys.Nonce{}, failed(span, err)
	}
	var expiresAt time.Time
	if s.nonceTTL > 0 {
		expiresAt = s.now().Add(s.nonceTTL)
	}
	if err := s.store.PutNonce(ctx, s.pub.GID, nonce, expiresAt); err != nil {
		return keys.Nonce{}, failed(span, err)
	}
	s.metrics.AddNonce()
	return nonce, nil
}

// Issue checks req against nonce, consumes the nonce and returns the
// membership credential for the commitment F carried by req.
func (s *Service) Issue(ctx context.Context, nonce keys.Nonce, req *keys.JoinRequest) (cred *keys.MembershipCredential, err error) {
	ctx, span := s.tracer.Start(ctx, "issue", trace.WithAttributes(attribute.String("group", s.pub.GID.String())))
	start := time.Now()
	defer func() {
		s.metrics.ObserveIssueDuration(time.Since(start))
		s.metrics.AddIssue(err == nil)
		if err != nil {
			_ = failed(span, err)
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(s.engine); err != nil {
		return nil, err
	}
	cred, err = credential.IssueFromJoinRequest(s.engine, s.pub, s.isk, nonce, req, s.alg, nil, s.rng)
	if err != nil {
		return nil, err
	}
	span.AddEvent("join request verified")

	// only a proven owner of F learns whether F was already certified
	F := s.engine.EncodeG1(req.F)
	existing, err := s.store.CredentialByF(ctx, s.pub.GID, F)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, driver.ErrDuplicateCredential
	}

	if err := s.store.ConsumeNonce(ctx, s.pub.GID, nonce, s.now()); err != nil {
		return nil, errors.WithMessagef(err, "nonce [%s] rejected", nonce)
	}
	if err := s.store.RecordCredential(ctx, &driver.CredentialRecord{
		GID:      s.pub.GID,
		Nonce:    nonce,
		F:        F,
		A:        s.engine.EncodeG1(cred.A),
		X:        s.engine.EncodeZr(cred.X),
		IssuedAt: s.now().UTC(),
	}); err != nil {
		return nil, err
	}
	logger.Infof("issued membership credential in group [%s]", s.pub.GID)
	return cred, nil
}

// Request is one entry of IssueBatch.
type Request struct {
	Nonce       keys.Nonce
	JoinRequest *keys.JoinRequest
}

// Result is the outcome of one entry of IssueBatch.
type Result struct {
	Credential *keys.MembershipCredential
	Err        error
}

// IssueBatch serves independent requests concurrently. Results are in the
// order of reqs; one failure does not affect the other entries.
func (s *Service) IssueBatch(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	p := pool.New().WithMaxGoroutines(s.workers)
	for i, r := range reqs {
		p.Go(func() {
			cred, err := s.Issue(ctx, r.Nonce, r.JoinRequest)
			results[i] = Result{Credential: cred, Err: err}
		})
	}
	p.Wait()
	return results
}

// Issued returns the number of credentials issued in the group.
func (s *Service) Issued(ctx context.Context) (int, error) {
	return s.store.CountIssued(ctx, s.pub.GID)
}

// HealthCheck checks that the issuer key is intact and the store is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.isk.Validate(s.engine, s.pub); err != nil {
		return errors.WithMessage(err, "issuer key")
	}
	return s.store.HealthCheck(ctx)
}

// Close releases the issuer secret. The store is owned by the caller.
func (s *Service) Close() {
	s.isk.Zeroize()
}

func failed(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
