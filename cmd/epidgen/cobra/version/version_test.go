/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package version

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	assert.Equal(t, "epidgen", ProgramName)

	defer func(v string) { Version = v }(Version)
	Version = "v0.3.1"

	lines := strings.Split(strings.TrimSuffix(GetInfo(), "\n"), "\n")
	assert.Equal(t, []string{
		"epidgen:",
		" Version: v0.3.1",
		" Go version: " + runtime.Version(),
		" OS/Arch: " + runtime.GOOS + "/" + runtime.GOARCH,
	}, lines)
}

func TestCmd(t *testing.T) {
	cmd := Cmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "version", cmd.Use)
	assert.Contains(t, cmd.Short, "epidgen")

	b := &bytes.Buffer{}
	cmd.SetOut(b)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, GetInfo(), b.String())
	assert.True(t, strings.HasPrefix(b.String(), "epidgen:\n"))

	cmd.SetArgs([]string{"extra"})
	err := cmd.Execute()
	assert.EqualError(t, err, "trailing args detected")
}
