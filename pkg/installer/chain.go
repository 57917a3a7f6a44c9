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
)

// chainWalker resolves dependencies against the installed packages only, the
// catalog plays no part in it
type chainWalker struct {
	installed     []*v1.InstalledPackage
	ignoreEnabled bool
	seen          map[string]bool
	chain         []*v1.InstalledPackage
}

// DependencyChain returns every installed package pkg transitively depends on, each
// of them once and in discovery order. Dependencies no installed package satisfies
// show up as missing package sentinels. With ignoreEnabled disabled packages are
// considered as well.
func DependencyChain(installed []*v1.InstalledPackage, pkg *v1.InstalledPackage, ignoreEnabled bool) []*v1.InstalledPackage {
	w := &chainWalker{
		installed:     installed,
		ignoreEnabled: ignoreEnabled,
		seen:          map[string]bool{pkg.Key(): true},
	}
	w.walk(pkg)
	return w.chain
}

func (w *chainWalker) walk(pkg *v1.InstalledPackage) {
	for _, c := range pkg.Descriptor.Dependencies {
		dep := resolveInstalled(w.installed, c, w.ignoreEnabled)
		if dep == nil {
			w.add(v1.NewMissingPackage(c))
			continue
		}
		if w.add(dep) {
			w.walk(dep)
		}
	}
}

func (w *chainWalker) add(p *v1.InstalledPackage) bool {
	if w.seen[p.Key()] {
		return false
	}
	w.seen[p.Key()] = true
	w.chain = append(w.chain, p)
	return true
}

// resolveInstalled picks the installed package satisfying c: the pinned version if
// it is installed, otherwise the highest version at least the minimum one.
func resolveInstalled(installed []*v1.InstalledPackage, c v1.VersionConstraint, ignoreEnabled bool) *v1.InstalledPackage {
	var usable []*v1.InstalledPackage
	for _, p := range installed {
		if p.Descriptor.Name == c.Name && (ignoreEnabled || p.Descriptor.IsEnabled) {
			usable = append(usable, p)
		}
	}

	if c.HasSpecificVersion() {
		for _, p := range usable {
			if c.Satisfies(p.Descriptor.Version) {
				return p
			}
		}
	}

	if h := highestInstalled(usable); h != nil && c.AtLeast(h.Descriptor.Version) {
		return h
	}

	for _, p := range usable {
		if c.AtLeast(p.Descriptor.Version) {
			return p
		}
	}
	return nil
}

func highestInstalled(pkgs []*v1.InstalledPackage) *v1.InstalledPackage {
	var h *v1.InstalledPackage
	for _, p := range pkgs {
		if h == nil || p.Descriptor.Version.GreaterThan(h.Descriptor.Version) {
			h = p
		}
	}
	return h
}

// chainContains reports whether the chain holds the given installed package
func chainContains(chain []*v1.InstalledPackage, p *v1.InstalledPackage) bool {
	for _, c := range chain {
		if c.Key() == p.Key() {
			return true
		}
	}
	return false
}
