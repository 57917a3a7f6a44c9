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
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rancher/elemental-pkg/cmd/config"
	"github.com/rancher/elemental-pkg/pkg/catalog"
	eleError "github.com/rancher/elemental-pkg/pkg/error"
	"github.com/rancher/elemental-pkg/pkg/installer"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

// readConfig loads the runtime configuration for cmd
func readConfig(cmd *cobra.Command) (*v1.Config, error) {
	cfg, err := config.ReadConfigRun(viper.GetString("config-dir"), cmd.Flags())
	if err != nil {
		cfg.Logger.Errorf("Error reading config: %s", err)
		return nil, eleError.NewFromError(err, eleError.ReadingConfig)
	}
	return cfg, nil
}

// loadCatalog scans the configured catalog directory
func loadCatalog(cfg *v1.Config) (*catalog.DirCatalog, error) {
	cat := catalog.NewDirCatalog(cfg, cfg.Catalog)
	if err := cat.Load(); err != nil {
		return nil, eleError.NewFromError(err, eleError.LoadingCatalog)
	}
	return cat, nil
}

func newInstaller(cfg *v1.Config) (*installer.Installer, error) {
	inst, err := installer.NewInstaller(cfg)
	if err != nil {
		return nil, eleError.NewFromError(err, eleError.ReadingConfig)
	}
	return inst, nil
}

// findInstalled returns the installed package referenced as NAME@VERSION
func findInstalled(inst *installer.Installer, ref string) (*v1.InstalledPackage, error) {
	name, ver, err := v1.ParsePackageRef(ref)
	if err != nil {
		return nil, eleError.NewFromError(err, eleError.InvalidArgs)
	}
	if ver == "" {
		return nil, eleError.New(fmt.Sprintf("a version is required to select an installed package: %s", ref), eleError.InvalidArgs)
	}
	pkg, err := inst.FindInstalledPackage(name, ver)
	if errors.Is(err, installer.ErrNotInstalled) {
		return nil, eleError.NewFromError(err, eleError.PackageNotInstalled)
	} else if err != nil {
		return nil, eleError.NewFromError(err, eleError.ScanInstalled)
	}
	return pkg, nil
}

// printAuditLog writes every audit log line to stdout
func printAuditLog(log *v1.AuditLog) {
	if log == nil {
		return
	}
	for _, l := range log.Lines() {
		fmt.Println(l)
	}
}

// auditResult turns a failed or partially failed run into an exit coded error
func auditResult(log *v1.AuditLog, err error, code int, what string) error {
	if err != nil {
		return eleError.NewFromError(err, code)
	}
	if log != nil && log.HasErrors() {
		return eleError.New(fmt.Sprintf("%s finished with %d errors", what, len(log.ErrorLines())), code)
	}
	return nil
}
