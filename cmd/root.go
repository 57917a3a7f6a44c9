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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	eleError "github.com/rancher/elemental-pkg/pkg/error"
)

// globalFlags are bound to viper, the rest of the persistent flags are read by
// the config loader
var globalFlags = []string{"debug", "config-dir", "logfile", "quiet"}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elemental-pkg",
		Short: "Elemental package installer",
		Long: `Installs packages and their dependency chains from a local catalog into an
install root, each package version in its own directory.`,
	}
	flags := cmd.PersistentFlags()
	flags.Bool("debug", false, "Enable debug output")
	flags.String("config-dir", "", "Set config dir")
	flags.String("logfile", "", "Set logfile")
	flags.Bool("quiet", false, "Do not output to stdout")
	flags.String("install-root", "", "Directory packages are installed to")
	flags.String("catalog", "", "Catalog directory packages are installed from")
	for _, name := range globalFlags {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
	return cmd
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCmd()

// Execute runs the root command and exits with the code carried by the error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(eleError.ExitCode(err))
	}
}
