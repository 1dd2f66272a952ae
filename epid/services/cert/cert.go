/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cert

import (
	"encoding/asn1"
	"io"

	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/pkg/errors"
)

const Version = 1

// Certificate binds a group public key to the ECDSA key of the issuer that generated it.
type Certificate struct {
	Version        int
	GroupPublicKey []byte
	SignerKey      []byte
	Signature      []byte
}

type tbs struct {
	Version        int
	GroupPublicKey []byte
	SignerKey      []byte
}

// Issue signs pub with signer.
func Issue(signer *Signer, pub *keys.GroupPublicKey, rng io.Reader) (*Certificate, error) {
	raw, err := pub.Serialize()
	if err != nil {
		return nil, errors.WithMessage(err, "failed serializing group public key")
	}
	signerKey, err := signer.MarshalPublicKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling signer key")
	}
	c := &Certificate{Version: Version, GroupPublicKey: raw, SignerKey: signerKey}
	msg, err := c.message()
	if err != nil {
		return nil, err
	}
	c.Signature, err = signer.Sign(rng, msg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Verify checks the signature and returns the certified group public key.
// If trusted is not nil, the certificate must be signed by it.
func (c *Certificate) Verify(e *emath.Engine, trusted *Verifier) (*keys.GroupPublicKey, error) {
	if c.Version != Version {
		return nil, errors.Errorf("unsupported certificate version [%d]", c.Version)
	}
	pk, err := parsePublicKey(c.SignerKey)
	if err != nil {
		return nil, err
	}
	if trusted != nil && !trusted.PK.Equal(pk) {
		return nil, ErrUntrustedSigner
	}
	msg, err := c.message()
	if err != nil {
		return nil, err
	}
	if err := (&Verifier{PK: pk}).Verify(msg, c.Signature); err != nil {
		return nil, err
	}
	pub := &keys.GroupPublicKey{}
	if err := pub.Deserialize(c.GroupPublicKey); err != nil {
		return nil, err
	}
	if err := pub.Validate(e); err != nil {
		return nil, err
	}
	return pub, nil
}

func (c *Certificate) Serialize() ([]byte, error) {
	return asn1.Marshal(*c)
}

func (c *Certificate) Deserialize(raw []byte) error {
	rest, err := asn1.Unmarshal(raw, c)
	if err != nil {
		return errors.Wrapf(emath.ErrMalformedEncoding, "failed unmarshalling certificate: %s", err)
	}
	if len(rest) != 0 {
		return errors.Wrap(emath.ErrMalformedEncoding, "certificate should not have trailing bytes")
	}
	return nil
}

func (c *Certificate) message() ([]byte, error) {
	raw, err := asn1.Marshal(tbs{Version: c.Version, GroupPublicKey: c.GroupPublicKey, SignerKey: c.SignerKey})
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling certificate body")
	}
	return raw, nil
}
