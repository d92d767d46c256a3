// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"docguard/internal/help"
	"docguard/internal/rules"

	"github.com/spf13/cobra"
)

func (a *app) rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules [rule]",
		Short: "Describe the redaction rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			system := help.NewSystem(cmd.OutOrStdout(), a.cfg.Defaults.NoColor)
			for _, p := range rules.Providers() {
				system.RegisterProvider(p)
			}
			if len(args) == 0 {
				system.ShowRules()
				return nil
			}
			if !system.ShowRule(args[0]) {
				a.exitCode = ExitFailures
			}
			return nil
		},
	}
}
