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

func NewInstallCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "install NAME[@VERSION]",
		Short: "Install a catalog package and its dependencies",
		Long: "Install a catalog package and its dependencies.\n\n" +
			"Without a version the highest enabled version in the catalog is selected.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			cmd.SilenceUsage = true
			cat, err := loadCatalog(cfg)
			if err != nil {
				cfg.Logger.Errorf("failed loading catalog %s: %v", cfg.Catalog, err)
				return err
			}
			pkg, err := cat.Resolve(args[0])
			if err != nil {
				cfg.Logger.Errorf("%v", err)
				return eleError.NewFromError(err, eleError.PackageNotFound)
			}
			inst, err := newInstaller(cfg)
			if err != nil {
				return err
			}

			if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
				set, log, err := inst.Plan(pkg, cat, cfg.Install)
				if err != nil {
					return eleError.NewFromError(err, eleError.InstallFailed)
				}
				for _, i := range set.Items() {
					fmt.Println(i.String())
				}
				return auditResult(log, nil, eleError.InstallFailed, fmt.Sprintf("planning %s", pkg.ID()))
			}

			cfg.Logger.Infof("Installing %s with %s", pkg.ID(), cfg.Install)
			log, err := inst.Install(pkg, cat, cfg.Install)
			printAuditLog(log)
			return auditResult(log, err, eleError.InstallFailed, fmt.Sprintf("installation of %s", pkg.ID()))
		},
	}
	root.AddCommand(c)
	addInstallSettingsFlags(c)
	c.Flags().Bool("dry-run", false, "Print the planned instructions without applying them")
	return c
}

// register the subcommand into rootCmd
var _ = NewInstallCmd(rootCmd)
