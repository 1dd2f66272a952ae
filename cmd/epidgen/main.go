/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/complete"
	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/configgen"
	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/demo"
	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/health"
	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/issue"
	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/join"
	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/nonce"
	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/setup"
	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/version"
	"github.com/spf13/cobra"
)

// The main command describes the service and
// defaults to printing the help message.
var mainCmd = &cobra.Command{
	Use:   "epidgen",
	Short: "EPID group setup and membership issuance.",
	Long:  "epidgen sets up EPID groups, hands out join nonces and issues membership credentials.",
}

func main() {
	mainCmd.AddCommand(setup.Cmd())
	mainCmd.AddCommand(nonce.Cmd())
	mainCmd.AddCommand(join.Cmd())
	mainCmd.AddCommand(issue.Cmd())
	mainCmd.AddCommand(complete.Cmd())
	mainCmd.AddCommand(demo.Cmd())
	mainCmd.AddCommand(configgen.Cmd())
	mainCmd.AddCommand(health.Cmd())
	mainCmd.AddCommand(version.Cmd())

	// On failure Cobra prints the usage message and error string, so we only
	// need to exit with a non-0 status
	if mainCmd.Execute() != nil {
		os.Exit(1)
	}
}
