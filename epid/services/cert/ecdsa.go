/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"io"

	"github.com/hyperledger/fabric-lib-go/bccsp/utils"
	"github.com/pkg/errors"
)

// Signer signs with an ECDSA P-256 key over SHA-256 and emits low-S,
// DER-encoded signatures.
type Signer struct {
	*Verifier
	SK *ecdsa.PrivateKey
}

func NewSigner(rng io.Reader) (*Signer, error) {
	sk, err := ecdsa.GenerateKey(elliptic.P256(), rng)
	if err != nil {
		return nil, errors.Wrap(err, "failed generating signing key")
	}
	return NewSignerFromKey(sk), nil
}

func NewSignerFromKey(sk *ecdsa.PrivateKey) *Signer {
	return &Signer{SK: sk, Verifier: &Verifier{PK: &sk.PublicKey}}
}

func (s *Signer) Sign(rng io.Reader, message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	r, ss, err := ecdsa.Sign(rng, s.SK, digest[:])
	if err != nil {
		return nil, errors.Wrap(err, "failed signing")
	}
	ss, err = utils.ToLowS(&s.SK.PublicKey, ss)
	if err != nil {
		return nil, err
	}
	return utils.MarshalECDSASignature(r, ss)
}

// MarshalPrivateKey returns the PEM encoding of the signing key.
func (s *Signer) MarshalPrivateKey() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(s.SK)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling signing key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// UnmarshalSigner parses a PEM encoded ECDSA private key.
func UnmarshalSigner(raw []byte) (*Signer, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("failed parsing signing key: no pem block found")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed parsing signing key")
	}
	sk, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.Errorf("expected an ecdsa private key, got [%T]", key)
	}
	return NewSignerFromKey(sk), nil
}

type Verifier struct {
	PK *ecdsa.PublicKey
}

func (v *Verifier) Verify(message, sigma []byte) error {
	r, s, err := utils.UnmarshalECDSASignature(sigma)
	if err != nil {
		return errors.Wrapf(ErrInvalidSignature, "failed unmarshalling signature: %s", err)
	}
	lowS, err := utils.IsLowS(v.PK, s)
	if err != nil {
		return err
	}
	if !lowS {
		return errors.Wrap(ErrInvalidSignature, "signature is not in lowS")
	}
	digest := sha256.Sum256(message)
	if !ecdsa.Verify(v.PK, digest[:], r, s) {
		return ErrInvalidSignature
	}
	return nil
}

// MarshalPublicKey returns the PKIX DER encoding of the verification key.
func (v *Verifier) MarshalPublicKey() ([]byte, error) {
	return x509.MarshalPKIXPublicKey(v.PK)
}

// MarshalPublicKeyPEM returns the PEM encoding of the verification key.
func (v *Verifier) MarshalPublicKeyPEM() ([]byte, error) {
	der, err := v.MarshalPublicKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling verification key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// UnmarshalVerifier parses a PEM encoded ECDSA public key.
func UnmarshalVerifier(raw []byte) (*Verifier, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("failed parsing verification key: no pem block found")
	}
	pk, err := parsePublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	return &Verifier{PK: pk}, nil
}

func parsePublicKey(der []byte) (*ecdsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, errors.Wrap(err, "failed parsing signer key")
	}
	pk, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.Errorf("expected an ecdsa public key, got [%T]", key)
	}
	return pk, nil
}
