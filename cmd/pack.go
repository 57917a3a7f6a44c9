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
	"github.com/rancher/elemental-pkg/pkg/filestore"
	"github.com/rancher/elemental-pkg/pkg/pkgconfig"
)

func NewPackCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "pack SOURCE_DIR ARCHIVE",
		Short: "Pack a package directory into a catalog archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			cmd.SilenceUsage = true
			src, dst := args[0], args[1]
			pkg, err := pkgconfig.Read(cfg.Fs, src, cfg.ConfigFilename)
			if err != nil {
				cfg.Logger.Errorf("%s is not a package directory: %v", src, err)
				return eleError.NewFromError(err, eleError.ReadPackageConfig)
			}
			if err = filestore.Pack(cfg.Fs, src, dst); err != nil {
				cfg.Logger.Errorf("failed packing %s: %v", src, err)
				return eleError.NewFromError(err, eleError.PackPayload)
			}
			fmt.Printf("packed %s into %s\n", pkg.ID(), dst)
			return nil
		},
	}
	root.AddCommand(c)
	return c
}

func NewRefreshCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "refresh NAME[@VERSION]",
		Short: "Download the catalog archive of a package again from its source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			cmd.SilenceUsage = true
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			pkg, err := cat.Resolve(args[0])
			if err != nil {
				return eleError.NewFromError(err, eleError.PackageNotFound)
			}
			if pkg.Source == "" {
				fmt.Printf("%s has no source, nothing to refresh\n", pkg.ID())
				return nil
			}
			if err = cat.Refresh(pkg); err != nil {
				cfg.Logger.Errorf("failed refreshing %s: %v", pkg.ID(), err)
				return eleError.NewFromError(err, eleError.RefreshPackage)
			}
			fmt.Printf("refreshed %s from %s\n", pkg.ID(), pkg.Source)
			return nil
		},
	}
	root.AddCommand(c)
	return c
}

// register the subcommands into rootCmd
var _ = NewPackCmd(rootCmd)
var _ = NewRefreshCmd(rootCmd)
