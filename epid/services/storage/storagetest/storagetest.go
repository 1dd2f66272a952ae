/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package storagetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/driver"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cases collects test functions that store implementations can use for integration tests.
var Cases = []struct {
	Name string
	Fn   func(*testing.T, driver.Store)
}{
	{"Nonces", TestNonces},
	{"NonceExpiry", TestNonceExpiry},
	{"ConcurrentConsume", TestConcurrentConsume},
	{"Credentials", TestCredentials},
	{"Health", TestHealth},
}

// RunAll runs every case against a fresh store.
func RunAll(t *testing.T, open func(t *testing.T) driver.Store) {
	for _, c := range Cases {
		t.Run(c.Name, func(t *testing.T) {
			s := open(t)
			defer func() { assert.NoError(t, s.Close()) }()
			c.Fn(t, s)
		})
	}
}

func TestNonces(t *testing.T, s driver.Store) {
	ctx := context.Background()
	gid, nonce := keys.GroupID{1}, keys.Nonce{1, 2, 3}
	now := time.Now()

	assert.True(t, errors.Is(s.ConsumeNonce(ctx, gid, nonce, now), driver.ErrUnknownNonce))

	require.NoError(t, s.PutNonce(ctx, gid, nonce, time.Time{}))
	assert.Error(t, s.PutNonce(ctx, gid, nonce, time.Time{}), "nonces are unique")

	// nonces are scoped by group
	assert.True(t, errors.Is(s.ConsumeNonce(ctx, keys.GroupID{2}, nonce, now), driver.ErrUnknownNonce))

	require.NoError(t, s.ConsumeNonce(ctx, gid, nonce, now))
	assert.True(t, errors.Is(s.ConsumeNonce(ctx, gid, nonce, now), driver.ErrNonceConsumed))
}

func TestNonceExpiry(t *testing.T, s driver.Store) {
	ctx := context.Background()
	gid := keys.GroupID{3}
	now := time.Unix(1000, 0)

	require.NoError(t, s.PutNonce(ctx, gid, keys.Nonce{1}, now.Add(time.Minute)))
	require.NoError(t, s.PutNonce(ctx, gid, keys.Nonce{2}, now.Add(-time.Minute)))
	require.NoError(t, s.PutNonce(ctx, gid, keys.Nonce{3}, now))

	assert.NoError(t, s.ConsumeNonce(ctx, gid, keys.Nonce{1}, now))
	assert.True(t, errors.Is(s.ConsumeNonce(ctx, gid, keys.Nonce{2}, now), driver.ErrNonceExpired))
	assert.True(t, errors.Is(s.ConsumeNonce(ctx, gid, keys.Nonce{3}, now), driver.ErrNonceExpired))
}

func TestConcurrentConsume(t *testing.T, s driver.Store) {
	ctx := context.Background()
	gid, nonce := keys.GroupID{4}, keys.Nonce{4}
	require.NoError(t, s.PutNonce(ctx, gid, nonce, time.Time{}))

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.ConsumeNonce(ctx, gid, nonce, time.Now())
			if err == nil {
				succeeded.Add(1)
				return
			}
			assert.True(t, errors.Is(err, driver.ErrNonceConsumed), "unexpected error: %v", err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), succeeded.Load())
}

func TestCredentials(t *testing.T, s driver.Store) {
	ctx := context.Background()
	gid := keys.GroupID{5}
	rec := &driver.CredentialRecord{
		GID:      gid,
		Nonce:    keys.Nonce{9},
		F:        []byte("commitment"),
		A:        []byte("signature"),
		X:        []byte("x"),
		IssuedAt: time.Unix(0, 1234567).UTC(),
	}

	got, err := s.CredentialByF(ctx, gid, rec.F)
	require.NoError(t, err)
	assert.Nil(t, got)
	n, err := s.CountIssued(ctx, gid)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.RecordCredential(ctx, rec))
	got, err = s.CredentialByF(ctx, gid, rec.F)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	err = s.RecordCredential(ctx, rec)
	assert.True(t, errors.Is(err, driver.ErrDuplicateCredential))

	other := *rec
	other.F = []byte("another commitment")
	require.NoError(t, s.RecordCredential(ctx, &other))
	other.GID = keys.GroupID{6}
	require.NoError(t, s.RecordCredential(ctx, &other))

	n, err = s.CountIssued(ctx, gid)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHealth(t *testing.T, s driver.Store) {
	assert.NoError(t, s.HealthCheck(context.Background()))
}
