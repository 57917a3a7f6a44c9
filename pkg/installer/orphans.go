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
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
	"github.com/rancher/elemental-pkg/pkg/utils"
)

// OrphanedDependencyPackages returns the enabled dependency packages no other
// installed package resolves any of its dependencies to
func OrphanedDependencyPackages(installed []*v1.InstalledPackage) []*v1.InstalledPackage {
	var orphans []*v1.InstalledPackage
	for _, candidate := range installed {
		d := candidate.Descriptor
		if !d.IsEnabled || !d.IsDependencyPackage {
			continue
		}
		if !isReferenced(installed, candidate) {
			orphans = append(orphans, candidate)
		}
	}
	return orphans
}

func isReferenced(installed []*v1.InstalledPackage, candidate *v1.InstalledPackage) bool {
	for _, other := range installed {
		if other.Key() == candidate.Key() {
			continue
		}
		for _, c := range other.Descriptor.Dependencies {
			dep := resolveInstalled(installed, c, false)
			if dep != nil && dep.Key() == candidate.Key() {
				return true
			}
		}
	}
	return false
}

// InstalledOrphanedDependencyPackages scans the install root for orphaned
// dependency packages
func (i *Installer) InstalledOrphanedDependencyPackages() ([]*v1.InstalledPackage, error) {
	installed, err := i.InstalledPackages()
	if err != nil {
		return nil, err
	}
	return OrphanedDependencyPackages(installed), nil
}

// RemoveOrphanedPackages uninstalls orphaned dependency packages until none is
// left or the configured number of passes is exhausted
func (i *Installer) RemoveOrphanedPackages() (*v1.AuditLog, error) {
	log := i.newLog()
	if err := i.removeOrphans(log); err != nil {
		return nil, err
	}
	return log, nil
}

func (i *Installer) removeOrphans(log *v1.AuditLog) error {
	removed := 0
	for pass := 1; ; pass++ {
		orphans, err := i.InstalledOrphanedDependencyPackages()
		if err != nil {
			log.Errorf("", "failed looking for orphaned packages: %s", err.Error())
			return err
		}
		if len(orphans) == 0 {
			break
		}
		if pass > i.cfg.OrphanPasses {
			log.Warnf("", "%d orphaned packages left after %d passes, giving up", len(orphans), i.cfg.OrphanPasses)
			break
		}
		for _, o := range orphans {
			// an earlier uninstall of this pass may have taken it as part of its chain
			if exists, _ := utils.Exists(i.cfg.Fs, o.InstallPath); !exists {
				continue
			}
			log.Infof(o.ID(), "uninstalling orphaned dependency package")
			if err := i.uninstall(o, log); err != nil {
				log.Errorf(o.ID(), "failed uninstalling orphaned package: %s", err.Error())
				continue
			}
			removed++
		}
	}
	log.Infof("", "removed %d orphaned packages", removed)
	return nil
}
