/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package configgen

import (
	"bytes"
	"fmt"

	"github.com/hyperledger-labs/epid-issuance/cmd/epidgen/cobra/common"
	"github.com/hyperledger-labs/epid-issuance/epid/services/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// OutputFile is the file to write the configuration template to
var OutputFile string

// Cmd returns the Cobra Command writing the default configuration.
func Cmd() *cobra.Command {
	flags := cmd.Flags()
	flags.StringVarP(&OutputFile, "output", "o", "", "output file, stdout if empty")

	return cmd
}

var cmd = &cobra.Command{
	Use:   "config",
	Short: "Write the default configuration.",
	Long:  "Writes a configuration template holding the default settings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("trailing args detected")
		}
		cmd.SilenceUsage = true
		if OutputFile == "" {
			return config.WriteDefault(cmd.OutOrStdout())
		}
		buf := &bytes.Buffer{}
		if err := config.WriteDefault(buf); err != nil {
			return err
		}
		if err := common.WriteFile(OutputFile, buf.Bytes(), 0644); err != nil {
			return errors.Wrap(err, "failed to write configuration")
		}
		return nil
	},
}
