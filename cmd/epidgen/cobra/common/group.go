/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"os"

	"github.com/hyperledger-labs/epid-issuance/epid/core/encoding/asn1"
	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/services/cert"
	"github.com/pkg/errors"
)

// GroupSource tells where a member takes the group public key from: either a
// certificate checked against a trusted signer, or a plain key file.
type GroupSource struct {
	GroupPublicKey string
	Certificate    string
	TrustedSigner  string
}

// Load returns the group public key together with the engine of its curve.
func (s *GroupSource) Load() (*emath.Engine, *keys.GroupPublicKey, error) {
	if s.Certificate == "" {
		pub := &keys.GroupPublicKey{}
		if err := ReadArtifact(s.GroupPublicKey, pub); err != nil {
			return nil, nil, err
		}
		e, err := emath.EngineFor(pub.Curve)
		if err != nil {
			return nil, nil, err
		}
		if err := pub.Validate(e); err != nil {
			return nil, nil, err
		}
		return e, pub, nil
	}

	if s.TrustedSigner == "" {
		return nil, nil, errors.New("a trusted signer is required to accept a certificate")
	}
	raw, err := os.ReadFile(s.TrustedSigner)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed reading [%s]", s.TrustedSigner)
	}
	trusted, err := cert.UnmarshalVerifier(raw)
	if err != nil {
		return nil, nil, err
	}
	c := &cert.Certificate{}
	if err := ReadArtifact(s.Certificate, c); err != nil {
		return nil, nil, err
	}
	id, err := asn1.PeekCurve(c.GroupPublicKey)
	if err != nil {
		return nil, nil, err
	}
	e, err := emath.EngineFor(id)
	if err != nil {
		return nil, nil, err
	}
	pub, err := c.Verify(e, trusted)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "certificate [%s] rejected", s.Certificate)
	}
	return e, pub, nil
}
