/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keys

import (
	"encoding/hex"
	"io"

	"github.com/hashicorp/go-uuid"
	emath "github.com/hyperledger-labs/epid-issuance/epid/core/math"
	"github.com/pkg/errors"
)

const (
	GroupIDSize = 16
	NonceSize   = 32
)

// GroupID identifies a group. It is opaque to the protocol.
type GroupID [GroupIDSize]byte

// NewGroupID draws a fresh group identifier from rng.
func NewGroupID(rng io.Reader) (GroupID, error) {
	var gid GroupID
	if rng == nil {
		return gid, errors.Wrap(emath.ErrInvalidArgument, "nil random source")
	}
	raw, err := uuid.GenerateRandomBytesWithReader(GroupIDSize, rng)
	if err != nil {
		return gid, errors.Wrapf(emath.ErrRandomSource, "failed generating group id: %s", err)
	}
	copy(gid[:], raw)
	return gid, nil
}

// ParseGroupID parses the textual form returned by GroupID.String.
func ParseGroupID(s string) (GroupID, error) {
	var gid GroupID
	raw, err := uuid.ParseUUID(s)
	if err != nil {
		return gid, errors.Wrapf(emath.ErrMalformedEncoding, "invalid group id [%s]: %s", s, err)
	}
	copy(gid[:], raw)
	return gid, nil
}

func (g GroupID) String() string {
	s, err := uuid.FormatUUID(g[:])
	if err != nil {
		// unreachable, the size is fixed
		return hex.EncodeToString(g[:])
	}
	return s
}

func (g GroupID) IsZero() bool {
	return g == GroupID{}
}

func groupIDFromBytes(raw []byte) (GroupID, error) {
	var gid GroupID
	if len(raw) != GroupIDSize {
		return gid, errors.Wrapf(emath.ErrMalformedEncoding, "group id must be %d bytes, got %d", GroupIDSize, len(raw))
	}
	copy(gid[:], raw)
	return gid, nil
}

// Nonce is the issuer challenge bound into a join request.
type Nonce [NonceSize]byte

// NewNonce draws a fresh nonce from rng.
func NewNonce(rng io.Reader) (Nonce, error) {
	var n Nonce
	if rng == nil {
		return n, errors.Wrap(emath.ErrInvalidArgument, "nil random source")
	}
	if _, err := io.ReadFull(rng, n[:]); err != nil {
		return n, errors.Wrapf(emath.ErrRandomSource, "failed generating nonce: %s", err)
	}
	return n, nil
}

// NonceFromBytes copies raw into a Nonce.
func NonceFromBytes(raw []byte) (Nonce, error) {
	var n Nonce
	if len(raw) != NonceSize {
		return n, errors.Wrapf(emath.ErrMalformedEncoding, "nonce must be %d bytes, got %d", NonceSize, len(raw))
	}
	copy(n[:], raw)
	return n, nil
}

// ParseNonce parses the hex form returned by Nonce.String.
func ParseNonce(s string) (Nonce, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Nonce{}, errors.Wrapf(emath.ErrMalformedEncoding, "invalid nonce: %s", err)
	}
	return NonceFromBytes(raw)
}

func (n Nonce) String() string {
	return hex.EncodeToString(n[:])
}
