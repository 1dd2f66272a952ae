/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"io"

	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/hyperledger-labs/epid-issuance/epid/services/logging"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("core", "issuer")

// Setup generates a new group: a fresh group id, the public key (h1, h2, w)
// and the issuer secret gamma, with w = g2^gamma.
func Setup(e *emath.Engine, rng io.Reader) (*keys.GroupPublicKey, *keys.IssuerPrivateKey, error) {
	if e == nil {
		return nil, nil, errors.Wrap(emath.ErrInvalidArgument, "nil engine")
	}
	gid, err := keys.NewGroupID(rng)
	if err != nil {
		return nil, nil, err
	}
	return SetupWithGroupID(e, gid, rng)
}

// SetupWithGroupID is like Setup but uses a group id allocated by the caller.
func SetupWithGroupID(e *emath.Engine, gid keys.GroupID, rng io.Reader) (*keys.GroupPublicKey, *keys.IssuerPrivateKey, error) {
	if e == nil {
		return nil, nil, errors.Wrap(emath.ErrInvalidArgument, "nil engine")
	}
	h1, err := e.RandomG1(rng)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "failed sampling h1")
	}
	h2, err := e.RandomG1(rng)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "failed sampling h2")
	}
	gamma, err := e.RandomZr(rng, 1)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "failed sampling gamma")
	}
	w := e.ExpG2(e.G2Generator(), gamma)

	logger.Debugf("generated group [%s] on curve [%d]", gid, e.CurveID())
	return &keys.GroupPublicKey{Curve: e.CurveID(), GID: gid, H1: h1, H2: h2, W: w},
		&keys.IssuerPrivateKey{Curve: e.CurveID(), GID: gid, Gamma: gamma},
		nil
}

// NewNonce draws an issuer nonce. A nonce must be used for a single join.
func NewNonce(rng io.Reader) (keys.Nonce, error) {
	return keys.NewNonce(rng)
}
