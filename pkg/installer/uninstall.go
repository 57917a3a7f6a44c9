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
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

// uninstallCounters tracks what happened to the dependency chain of an
// uninstalled package
type uninstallCounters struct {
	removed int
	skipped int
	missing int
	errored int
}

// Uninstall removes pkg and every package of its dependency chain no other
// installed package still needs. With removeOrphans the orphaned dependency
// packages are swept afterwards.
func (i *Installer) Uninstall(pkg *v1.InstalledPackage, removeOrphans bool) (*v1.AuditLog, error) {
	if err := validInstalled(pkg); err != nil {
		return nil, err
	}
	log := i.newLog()
	if err := i.uninstall(pkg, log); err != nil {
		return nil, err
	}
	if removeOrphans {
		_ = i.removeOrphans(log)
	}
	return log, nil
}

func (i *Installer) uninstall(pkg *v1.InstalledPackage, log *v1.AuditLog) error {
	installed, err := i.InstalledPackages()
	if err != nil {
		return err
	}
	src := pkg.ID()
	chain := DependencyChain(installed, pkg, true)
	exec := NewExecutor(i.cfg, nil, i.cfg.Install, log)

	c := uninstallCounters{}
	if err := exec.RemovePackage(pkg); err != nil {
		log.Errorf(src, "failed removing: %s", err.Error())
		c.errored++
	} else {
		c.removed++
	}

	removal := map[string]bool{pkg.Key(): true}
	for _, dep := range chain {
		removal[dep.Key()] = true
	}
	// chains of the packages staying installed
	var chains [][]*v1.InstalledPackage
	var owners []*v1.InstalledPackage
	for _, other := range installed {
		if removal[other.Key()] {
			continue
		}
		owners = append(owners, other)
		chains = append(chains, DependencyChain(installed, other, true))
	}

	for _, dep := range chain {
		if dep.IsMissing() {
			log.Warnf(src, "dependency %s is not installed", dep.Descriptor.Name)
			c.missing++
			continue
		}
		var users []string
		for n, other := range owners {
			if chainContains(chains[n], dep) {
				users = append(users, other.ID())
			}
		}
		if len(users) > 0 {
			log.Infof(src, "keeping %s, still required by %s", dep.ID(), strings.Join(users, ", "))
			c.skipped++
			continue
		}
		if err := exec.RemovePackage(dep); err != nil {
			log.Errorf(src, "failed removing dependency %s: %s", dep.ID(), err.Error())
			c.errored++
			continue
		}
		c.removed++
	}
	log.Infof(src, "uninstalled: %d removed, %d shared kept, %d missing, %d failed",
		c.removed, c.skipped, c.missing, c.errored)
	return nil
}

// UninstallAll removes every installed package
func (i *Installer) UninstallAll() (*v1.AuditLog, error) {
	installed, err := i.InstalledPackages()
	if err != nil {
		return nil, err
	}
	log := i.newLog()
	exec := NewExecutor(i.cfg, nil, i.cfg.Install, log)
	var errs error
	for _, p := range installed {
		if err := exec.RemovePackage(p); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", p.ID(), err))
		}
	}
	if errs != nil {
		log.Errorf("", "some packages could not be removed: %s", errs.Error())
	}
	log.Infof("", "removed %d of %d installed packages", len(installed)-errorCount(errs), len(installed))
	return log, nil
}

// RemoveDisabledPackages uninstalls every disabled package
func (i *Installer) RemoveDisabledPackages() (*v1.AuditLog, error) {
	installed, err := i.InstalledPackages()
	if err != nil {
		return nil, err
	}
	log := i.newLog()
	count := 0
	for _, p := range installed {
		if p.Descriptor.IsEnabled {
			continue
		}
		// a previous uninstall may have taken it already as a dependency
		if _, err := i.FindInstalledPackage(p.Descriptor.Name, p.Descriptor.Version.Original()); err != nil {
			continue
		}
		if err := i.uninstall(p, log); err != nil {
			return nil, err
		}
		count++
	}
	log.Infof("", "uninstalled %d disabled packages", count)
	if i.cfg.Install.RemoveOrphans {
		_ = i.removeOrphans(log)
	}
	return log, nil
}

func errorCount(err error) int {
	if merr, ok := err.(*multierror.Error); ok {
		return len(merr.Errors)
	}
	if err != nil {
		return 1
	}
	return 0
}
