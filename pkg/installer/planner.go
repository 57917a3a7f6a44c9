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

	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

// Counters tracks what a planning run decided
type Counters struct {
	Add    int
	Update int
	Remove int
	Skip   int
	Error  int
}

// Planner computes the instructions needed to install a package and its
// dependencies. It never touches the filesystem: the installed packages and the
// catalog are given snapshots.
type Planner struct {
	catalog   v1.Catalog
	installed []*v1.InstalledPackage
	settings  v1.InstallSettings
	log       *v1.AuditLog
	set       *v1.InstructionSet
	visited   map[string]bool
	counters  Counters
}

// NewPlanner returns a planner working on the enabled packages out of installed
func NewPlanner(catalog v1.Catalog, installed []*v1.InstalledPackage, settings v1.InstallSettings, log *v1.AuditLog) *Planner {
	var enabled []*v1.InstalledPackage
	for _, p := range installed {
		if p.Descriptor.IsEnabled {
			enabled = append(enabled, p)
		}
	}
	return &Planner{
		catalog:   catalog,
		installed: enabled,
		settings:  settings,
		log:       log,
		set:       v1.NewInstructionSet(),
		visited:   map[string]bool{},
	}
}

func (p *Planner) Instructions() *v1.InstructionSet {
	return p.set
}

func (p *Planner) Counters() Counters {
	return p.counters
}

// Plan adds the instructions for pkg and its whole dependency tree. Conflicts and
// unsatisfiable dependencies become error instructions, planning goes on for the
// remaining branches.
func (p *Planner) Plan(pkg *v1.PackageDescriptor) {
	if p.visited[pkg.ID()] {
		return
	}
	p.visited[pkg.ID()] = true

	if !p.planPackage(pkg) {
		return
	}

	for _, c := range pkg.Dependencies {
		candidate := p.candidate(c)
		if candidate == nil {
			p.fail(pkg, "dependency %s can't be satisfied by any enabled catalog package", c)
			continue
		}
		p.log.Debugf(pkg.ID(), "dependency %s resolved to %s", c, candidate.ID())
		p.Plan(candidate)
	}
}

// planPackage plans pkg itself, it returns false when pkg was rejected
func (p *Planner) planPackage(pkg *v1.PackageDescriptor) bool {
	var sameName []*v1.InstalledPackage
	for _, i := range p.installed {
		if i.Descriptor.Name == pkg.Name {
			sameName = append(sameName, i)
		}
	}
	if len(sameName) == 0 {
		p.add(pkg)
		return true
	}

	if p.settings.Mode == v1.SideBySide {
		for _, i := range sameName {
			if i.Descriptor.Version.Equal(pkg.Version) {
				p.existing(pkg)
				return true
			}
		}
		p.add(pkg)
		return true
	}

	highest := highestInstalled(sameName)
	switch pkg.Version.Compare(highest.Descriptor.Version) {
	case 1:
		p.add(pkg)
	case 0:
		p.existing(pkg)
	default:
		p.fail(pkg, "version %s rejected, %s is already installed", pkg.Version, highest.ID())
		return false
	}
	return true
}

// existing plans a package that is already installed
func (p *Planner) existing(pkg *v1.PackageDescriptor) {
	switch {
	case p.settings.CleanInstall:
		if p.set.Add(v1.Instruction{Action: v1.ActionRemove, Package: pkg}) {
			p.counters.Remove++
		}
		if p.set.Add(v1.Instruction{Action: v1.ActionAdd, Package: pkg}) {
			p.counters.Update++
			p.log.Infof(pkg.ID(), "planned clean reinstall")
		}
	case p.settings.EnableUpdates:
		if p.set.Add(v1.Instruction{Action: v1.ActionUpdate, Package: pkg}) {
			p.counters.Update++
			p.log.Infof(pkg.ID(), "planned update")
		}
	default:
		if p.set.Add(v1.Instruction{Action: v1.ActionOk, Package: pkg}) {
			p.counters.Skip++
			p.log.Infof(pkg.ID(), "already installed, skipping")
		}
	}
}

func (p *Planner) add(pkg *v1.PackageDescriptor) {
	if p.set.Add(v1.Instruction{Action: v1.ActionAdd, Package: pkg}) {
		p.counters.Add++
		p.log.Infof(pkg.ID(), "planned install")
	}
}

func (p *Planner) fail(pkg *v1.PackageDescriptor, format string, args ...interface{}) {
	reason := fmt.Sprintf(format, args...)
	p.log.Errorf(pkg.ID(), "%s", reason)
	p.counters.Error++
	p.set.Add(v1.Instruction{Action: v1.ActionError, Package: pkg, Reason: reason})
}

// candidate picks the catalog package satisfying c. A pinned version must be
// available as is, otherwise the highest enabled version at least the minimum
// one wins.
func (p *Planner) candidate(c v1.VersionConstraint) *v1.PackageDescriptor {
	if c.HasSpecificVersion() {
		for _, pkg := range p.catalog.Packages() {
			if pkg.IsEnabled && pkg.Name == c.Name && c.Satisfies(pkg.Version) {
				return pkg
			}
		}
		return nil
	}

	if pkg := highestSatisfying(p.catalog.HighestEnabled(), c); pkg != nil {
		return pkg
	}
	if p.settings.Mode != v1.SideBySide {
		return nil
	}
	var enabled []*v1.PackageDescriptor
	for _, pkg := range p.catalog.Packages() {
		if pkg.IsEnabled {
			enabled = append(enabled, pkg)
		}
	}
	return highestSatisfying(enabled, c)
}

func highestSatisfying(pkgs []*v1.PackageDescriptor, c v1.VersionConstraint) *v1.PackageDescriptor {
	var best *v1.PackageDescriptor
	for _, pkg := range pkgs {
		if pkg.Name != c.Name || !c.Satisfies(pkg.Version) {
			continue
		}
		if best == nil || pkg.Version.GreaterThan(best.Version) {
			best = pkg
		}
	}
	return best
}
