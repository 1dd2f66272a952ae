/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuance

import (
	"io"
	"time"

	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/core/math/rng"
	"github.com/hyperledger-labs/epid-issuance/epid/services/metrics"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*Service)

// WithHashAlg selects the hash algorithm join requests are proven with.
func WithHashAlg(alg emath.HashAlg) Option {
	return func(s *Service) { s.alg = alg }
}

// WithRandom sets the random source. Reads are serialized.
func WithRandom(r io.Reader) Option {
	return func(s *Service) { s.rng = rng.NewLocked(r) }
}

func WithMetricsProvider(p metrics.Provider) Option {
	return func(s *Service) { s.metricsProvider = p }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// WithNonceTTL bounds the lifetime of the nonces handed out. Zero disables expiry.
func WithNonceTTL(ttl time.Duration) Option {
	return func(s *Service) { s.nonceTTL = ttl }
}

// WithWorkers sets the number of concurrent issuance runs of IssueBatch.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}
