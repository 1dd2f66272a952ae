/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package configgen

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/hyperledger-labs/epid-issuance/epid/services/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCmd(t *testing.T) {
	c := Cmd()
	b := &bytes.Buffer{}
	c.SetOut(b)
	c.SetArgs([]string{})
	require.NoError(t, c.Execute())
	assert.Contains(t, b.String(), "curve: FP256BN_AMCL")

	path := filepath.Join(t.TempDir(), "epid.yaml")
	c.SetArgs([]string{"-o", path})
	require.NoError(t, c.Execute())
	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), loaded)

	err = c.Execute()
	require.Error(t, err, "the file exists")
}
