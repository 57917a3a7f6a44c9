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
	"github.com/rancher/elemental-pkg/pkg/pkgconfig"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

func NewPinCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "pin NAME@VERSION DEPENDENCY@VERSION",
		Short: "Pin a dependency of an installed package to a specific version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			depName, depVer, err := v1.ParsePackageRef(args[1])
			if err != nil {
				return eleError.NewFromError(err, eleError.InvalidArgs)
			}
			if depVer == "" {
				return eleError.New(fmt.Sprintf("a version is required to pin %s", depName), eleError.InvalidArgs)
			}

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
			pinned, err := inst.PinDependency(pkg, depName, depVer)
			if err != nil {
				cfg.Logger.Errorf("failed pinning %s of %s: %v", depName, pkg.ID(), err)
				return eleError.NewFromError(err, eleError.PinDependency)
			}
			fmt.Printf("pinned %s of %s\n", depName, pinned.ID())

			if withCatalog, _ := cmd.Flags().GetBool("catalog-copy"); withCatalog {
				cat, err := loadCatalog(cfg)
				if err != nil {
					return err
				}
				entry := cat.Find(pkg.Descriptor.Name, pkg.Descriptor.Version)
				if entry == nil {
					return eleError.New(fmt.Sprintf("package %s not found in catalog %s", pkg.ID(), cat.Dir()), eleError.PackageNotFound)
				}
				updated, err := pkgconfig.PinDependency(entry, depName, depVer)
				if err != nil {
					return eleError.NewFromError(err, eleError.PinDependency)
				}
				if err = cat.Update(updated); err != nil {
					cfg.Logger.Errorf("failed updating catalog entry %s: %v", updated.ID(), err)
					return eleError.NewFromError(err, eleError.WritePackageConfig)
				}
				fmt.Printf("pinned %s of catalog entry %s\n", depName, updated.ID())
			}
			return nil
		},
	}
	root.AddCommand(c)
	c.Flags().Bool("catalog-copy", false, "Also pin the dependency in the catalog entry of the package")
	return c
}

// register the subcommand into rootCmd
var _ = NewPinCmd(rootCmd)
