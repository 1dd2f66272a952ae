/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"context"
	"path/filepath"

	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/services/config"
	"github.com/hyperledger-labs/epid-issuance/epid/services/issuance"
	"github.com/hyperledger-labs/epid-issuance/epid/services/metrics"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/driver"
)

// Issuer bundles the issuance service with the store it owns.
type Issuer struct {
	*issuance.Service
	Store driver.Store
}

func (i *Issuer) Close() error {
	i.Service.Close()
	return i.Store.Close()
}

// OpenIssuer loads the issuer keys from dir and opens the issuer state.
func OpenIssuer(ctx context.Context, c *config.Config, dir string) (*Issuer, error) {
	pub := &keys.GroupPublicKey{}
	if err := ReadArtifact(filepath.Join(dir, GroupPublicKeyFile), pub); err != nil {
		return nil, err
	}
	isk := &keys.IssuerPrivateKey{}
	if err := ReadArtifact(filepath.Join(dir, IssuerKeyFile), isk); err != nil {
		return nil, err
	}
	e, err := emath.EngineFor(pub.Curve)
	if err != nil {
		return nil, err
	}
	alg, err := c.HashAlg()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, IssuerStorage(c, dir))
	if err != nil {
		return nil, err
	}
	opts := []issuance.Option{
		issuance.WithHashAlg(alg),
		issuance.WithNonceTTL(c.Issuer.NonceTTL),
		issuance.WithWorkers(c.Issuer.Workers),
	}
	if c.Metrics.Enabled {
		opts = append(opts, issuance.WithMetricsProvider(metrics.NewPrometheusProvider(nil)))
	}
	s, err := issuance.New(e, pub, isk, store, opts...)
	if err != nil {
		isk.Zeroize()
		_ = store.Close()
		return nil, err
	}
	return &Issuer{Service: s, Store: store}, nil
}
