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

func NewChainCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "chain NAME@VERSION",
		Short: "Print the installed dependency chain of a package",
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
			all, _ := cmd.Flags().GetBool("all")
			chain, err := inst.DependencyChain(pkg, all)
			if err != nil {
				return eleError.NewFromError(err, eleError.ScanInstalled)
			}
			for _, p := range chain {
				fmt.Println(p.String())
			}
			return nil
		},
	}
	root.AddCommand(c)
	c.Flags().Bool("all", false, "Include disabled packages in the chain")
	return c
}

func NewListCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
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
			installed, err := inst.InstalledPackages()
			if err != nil {
				return eleError.NewFromError(err, eleError.ScanInstalled)
			}
			for _, p := range installed {
				d := p.Descriptor
				state := "enabled"
				if !d.IsEnabled {
					state = "disabled"
				}
				kind := "package"
				if d.IsDependencyPackage {
					kind = "dependency"
				}
				fmt.Printf("%s %s %s priority=%d %s\n", d.ID(), state, kind, d.Priority, p.InstallPath)
			}
			return nil
		},
	}
	root.AddCommand(c)
	return c
}

// register the subcommands into rootCmd
var _ = NewChainCmd(rootCmd)
var _ = NewListCmd(rootCmd)
