/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/driver"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/memory"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/storagetest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storagetest.RunAll(t, func(t *testing.T) driver.Store {
		s, err := memory.Open(context.Background(), "")
		require.NoError(t, err)
		return s
	})
}

func TestIsolation(t *testing.T) {
	ctx := context.Background()
	a, err := memory.Open(ctx, "epid")
	require.NoError(t, err)
	defer a.Close()
	b, err := memory.Open(ctx, "epid")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.PutNonce(ctx, keys.GroupID{1}, keys.Nonce{1}, time.Time{}))
	assert.True(t, errors.Is(b.ConsumeNonce(ctx, keys.GroupID{1}, keys.Nonce{1}, time.Now()), driver.ErrUnknownNonce))
}
