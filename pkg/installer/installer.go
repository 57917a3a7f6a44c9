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

package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/rancher/elemental-pkg/pkg/pkgconfig"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

// ErrNotInstalled is returned when looking up a package that is not installed
var ErrNotInstalled = errors.New("package is not installed")

// Installer manages the packages living under an install root. The root directory
// is the only source of truth, it is scanned again on every call. Calls on the
// same install root must not run concurrently.
type Installer struct {
	cfg *v1.Config
}

func NewInstaller(cfg *v1.Config) (*Installer, error) {
	if cfg == nil {
		return nil, errors.New("nil installer config")
	}
	if err := cfg.Sanitize(); err != nil {
		return nil, fmt.Errorf("invalid installer config: %w", err)
	}
	return &Installer{cfg: cfg}, nil
}

func (i *Installer) Config() *v1.Config {
	return i.cfg
}

func (i *Installer) newLog() *v1.AuditLog {
	return v1.NewAuditLog(i.cfg.Logger)
}

// InstalledPackages scans the install root. Directories without a package config
// file are ignored, unreadable config files are logged and skipped. Packages are
// sorted by descending priority and then by ID.
func (i *Installer) InstalledPackages() ([]*v1.InstalledPackage, error) {
	entries, err := i.cfg.Fs.ReadDir(i.cfg.InstallRoot)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed reading install root %s: %w", i.cfg.InstallRoot, err)
	}

	var installed []*v1.InstalledPackage
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(i.cfg.InstallRoot, e.Name())
		d, err := pkgconfig.Read(i.cfg.Fs, dir, i.cfg.ConfigFilename)
		if errors.Is(err, pkgconfig.ErrNotFound) {
			i.cfg.Logger.Debugf("Ignoring %s, no %s found", dir, i.cfg.ConfigFilename)
			continue
		} else if err != nil {
			i.cfg.Logger.Warnf("Ignoring %s: %s", dir, err.Error())
			continue
		}
		installed = append(installed, &v1.InstalledPackage{InstallPath: dir, Descriptor: d})
	}
	sort.SliceStable(installed, func(a, b int) bool {
		pa, pb := installed[a].Descriptor, installed[b].Descriptor
		if pa.Priority != pb.Priority {
			return pa.Priority > pb.Priority
		}
		return pa.ID() < pb.ID()
	})
	return installed, nil
}

// FindInstalledPackage returns the installed package with the given name and
// version, ErrNotInstalled if there is none
func (i *Installer) FindInstalledPackage(name, ver string) (*v1.InstalledPackage, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("package name can't be empty")
	}
	v, err := version.NewVersion(ver)
	if err != nil {
		return nil, fmt.Errorf("invalid version '%s': %w", ver, err)
	}
	installed, err := i.InstalledPackages()
	if err != nil {
		return nil, err
	}
	for _, p := range installed {
		if p.Descriptor.Name == name && p.Descriptor.Version.Equal(v) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s@%s", ErrNotInstalled, name, ver)
}

// DependencyChain returns the installed dependency chain of pkg
func (i *Installer) DependencyChain(pkg *v1.InstalledPackage, ignoreEnabled bool) ([]*v1.InstalledPackage, error) {
	if err := validInstalled(pkg); err != nil {
		return nil, err
	}
	installed, err := i.InstalledPackages()
	if err != nil {
		return nil, err
	}
	return DependencyChain(installed, pkg, ignoreEnabled), nil
}

// ReadConfigurationFile reads the config file stored in the install directory of pkg
func (i *Installer) ReadConfigurationFile(pkg *v1.InstalledPackage) (*v1.PackageDescriptor, error) {
	if err := validInstalled(pkg); err != nil {
		return nil, err
	}
	return pkgconfig.Read(i.cfg.Fs, pkg.InstallPath, i.cfg.ConfigFilename)
}

// WriteConfigurationFile stores the descriptor of pkg into its install directory
func (i *Installer) WriteConfigurationFile(pkg *v1.InstalledPackage) error {
	if err := validInstalled(pkg); err != nil {
		return err
	}
	return pkgconfig.Write(i.cfg.Fs, pkg.InstallPath, i.cfg.ConfigFilename, pkg.Descriptor)
}

// PinDependency restricts the dependency depName of an installed package to the
// given version and stores the result. The returned record carries the new
// descriptor, pkg is left untouched.
func (i *Installer) PinDependency(pkg *v1.InstalledPackage, depName, ver string) (*v1.InstalledPackage, error) {
	if err := validInstalled(pkg); err != nil {
		return nil, err
	}
	d, err := pkgconfig.PinDependency(pkg.Descriptor, depName, ver)
	if err != nil {
		return nil, err
	}
	pinned := &v1.InstalledPackage{InstallPath: pkg.InstallPath, Descriptor: d}
	if err = i.WriteConfigurationFile(pinned); err != nil {
		return nil, err
	}
	return pinned, nil
}

func validInstalled(pkg *v1.InstalledPackage) error {
	if pkg == nil {
		return errors.New("nil installed package")
	}
	if pkg.IsMissing() {
		return fmt.Errorf("%s is not an installed package", pkg)
	}
	if strings.TrimSpace(pkg.InstallPath) == "" {
		return errors.New("installed package has no install path")
	}
	return pkg.Descriptor.Validate()
}

// Plan computes the instructions to install pkg without applying them
func (i *Installer) Plan(pkg *v1.PackageDescriptor, catalog v1.Catalog, settings v1.InstallSettings) (*v1.InstructionSet, *v1.AuditLog, error) {
	log := i.newLog()
	planner, err := i.plan(pkg, catalog, settings, log)
	if err != nil {
		return nil, nil, err
	}
	return planner.Instructions(), log, nil
}

func (i *Installer) plan(pkg *v1.PackageDescriptor, catalog v1.Catalog, settings v1.InstallSettings, log *v1.AuditLog) (*Planner, error) {
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, errors.New("nil catalog")
	}
	if pkg.IsDependencyPackage {
		log.Warnf(pkg.ID(), "installing a dependency package as a top level package, orphan sweeps remove it unless another package requires it")
	}
	installed, err := i.InstalledPackages()
	if err != nil {
		return nil, err
	}
	i.cfg.Logger.Debugf("Planning %s with settings %s", pkg, settings)
	planner := NewPlanner(catalog, installed, settings, log)
	planner.Plan(pkg)
	c := planner.Counters()
	log.Infof(pkg.ID(), "planned %d to add, %d to update, %d to remove, %d unchanged, %d errors",
		c.Add, c.Update, c.Remove, c.Skip, c.Error)
	return planner, nil
}

// Install plans and applies the installation of pkg and its dependencies taken
// from catalog. Expected failures end up as error lines in the returned audit log,
// the error is only set for invalid arguments.
func (i *Installer) Install(pkg *v1.PackageDescriptor, catalog v1.Catalog, settings v1.InstallSettings) (*v1.AuditLog, error) {
	log := i.newLog()
	planner, err := i.plan(pkg, catalog, settings, log)
	if err != nil {
		return nil, err
	}
	NewExecutor(i.cfg, catalog, settings, log).Apply(planner.Instructions())
	if settings.RemoveOrphans {
		_ = i.removeOrphans(log)
	}
	return log, nil
}

// TryInstall is Install reporting whether the audit log is free of errors
func (i *Installer) TryInstall(pkg *v1.PackageDescriptor, catalog v1.Catalog, settings v1.InstallSettings) (bool, *v1.AuditLog, error) {
	log, err := i.Install(pkg, catalog, settings)
	if err != nil {
		return false, nil, err
	}
	return !log.HasErrors(), log, nil
}
