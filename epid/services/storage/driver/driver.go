/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"time"

	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	"github.com/pkg/errors"
)

var (
	// ErrUnknownNonce is returned when a nonce was never handed out for the group.
	ErrUnknownNonce = errors.New("unknown nonce")
	// ErrNonceConsumed is returned when a nonce was already used.
	ErrNonceConsumed = errors.New("nonce already consumed")
	// ErrNonceExpired is returned when a nonce is used after its deadline.
	ErrNonceExpired = errors.New("nonce expired")
	// ErrDuplicateCredential is returned when F was already certified in the group.
	ErrDuplicateCredential = errors.New("a credential was already issued for this member secret")
)

// NonceStore keeps track of the nonces the issuer hands out. Every nonce can be consumed once.
type NonceStore interface {
	// PutNonce records a fresh nonce. A zero expiresAt means the nonce never expires.
	PutNonce(ctx context.Context, gid keys.GroupID, nonce keys.Nonce, expiresAt time.Time) error
	// ConsumeNonce marks the nonce as used, atomically.
	ConsumeNonce(ctx context.Context, gid keys.GroupID, nonce keys.Nonce, now time.Time) error
}

// CredentialRecord describes one issued membership credential.
type CredentialRecord struct {
	GID      keys.GroupID
	Nonce    keys.Nonce
	F        []byte
	A        []byte
	X        []byte
	IssuedAt time.Time
}

// CredentialStore keeps the issuance log of the issuer.
type CredentialStore interface {
	// RecordCredential fails with ErrDuplicateCredential if F is already recorded for the group.
	RecordCredential(ctx context.Context, rec *CredentialRecord) error
	// CredentialByF returns nil if nothing was issued for F.
	CredentialByF(ctx context.Context, gid keys.GroupID, F []byte) (*CredentialRecord, error)
	// CountIssued returns the number of credentials issued in the group.
	CountIssued(ctx context.Context, gid keys.GroupID) (int, error)
}

type Store interface {
	NonceStore
	CredentialStore
	HealthCheck(ctx context.Context) error
	Close() error
}
