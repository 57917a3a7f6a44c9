/*
Copyright © 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	eleError "github.com/rancher/elemental-pkg/pkg/error"
)

func NewUninstallCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "uninstall NAME@VERSION",
		Short: "Uninstall a package and the dependencies no other package requires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			cmd.SilenceUsage = true
			inst, err := newInstaller(cfg)
			if err != nil {
				return err
			}
			pkg, err := findInstalled(inst, args[0])
			if err != nil {
				cfg.Logger.Errorf("%v", err)
				return err
			}
			log, err := inst.Uninstall(pkg, cfg.Install.RemoveOrphans)
			printAuditLog(log)
			return auditResult(log, err, eleError.UninstallFailed, fmt.Sprintf("uninstall of %s", pkg.ID()))
		},
	}
	root.AddCommand(c)
	addRemoveOrphansFlag(c)
	return c
}

func NewUninstallAllCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "uninstall-all",
		Short: "Uninstall every installed package",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			cmd.SilenceUsage = true
			inst, err := newInstaller(cfg)
			if err != nil {
				return err
			}
			log, err := inst.UninstallAll()
			printAuditLog(log)
			return auditResult(log, err, eleError.UninstallFailed, "uninstall of all packages")
		},
	}
	root.AddCommand(c)
	return c
}

func NewRemoveDisabledCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "remove-disabled",
		Short: "Uninstall every installed package flagged as disabled",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			cmd.SilenceUsage = true
			inst, err := newInstaller(cfg)
			if err != nil {
				return err
			}
			log, err := inst.RemoveDisabledPackages()
			printAuditLog(log)
			return auditResult(log, err, eleError.CleanupFailed, "removal of disabled packages")
		},
	}
	root.AddCommand(c)
	addRemoveOrphansFlag(c)
	return c
}

func NewRemoveOrphansCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "remove-orphans",
		Short: "Remove dependency packages no longer required by any other package",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			cmd.SilenceUsage = true
			inst, err := newInstaller(cfg)
			if err != nil {
				return err
			}
			log, err := inst.RemoveOrphanedPackages()
			printAuditLog(log)
			return auditResult(log, err, eleError.CleanupFailed, "removal of orphaned packages")
		},
	}
	root.AddCommand(c)
	c.Flags().Int("orphan-passes", 0, "Maximum number of orphan removal passes")
	return c
}

// register the subcommands into rootCmd
var _ = NewUninstallCmd(rootCmd)
var _ = NewUninstallAllCmd(rootCmd)
var _ = NewRemoveDisabledCmd(rootCmd)
var _ = NewRemoveOrphansCmd(rootCmd)
