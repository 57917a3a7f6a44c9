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

package v1

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// VersionConstraint is a dependency declaration. When SpecificVersion is set it is the
// only acceptable version, otherwise any version >= MinimumVersion is.
type VersionConstraint struct {
	Name            string
	MinimumVersion  *version.Version
	SpecificVersion *version.Version
}

// NewVersionConstraint parses the given minimum and optional specific versions
func NewVersionConstraint(name, minimum, specific string) (VersionConstraint, error) {
	c := VersionConstraint{Name: name}
	if strings.TrimSpace(name) == "" {
		return c, errors.New("dependency name can't be empty")
	}
	if minimum == "" {
		minimum = "0"
	}
	minVer, err := version.NewVersion(minimum)
	if err != nil {
		return c, fmt.Errorf("invalid minimum version for dependency '%s': %w", name, err)
	}
	c.MinimumVersion = minVer
	if specific != "" {
		spec, err := version.NewVersion(specific)
		if err != nil {
			return c, fmt.Errorf("invalid specific version for dependency '%s': %w", name, err)
		}
		c.SpecificVersion = spec
	}
	return c, nil
}

// MustConstraint is NewVersionConstraint panicking on error, handy for fixtures
func MustConstraint(name, minimum, specific string) VersionConstraint {
	c, err := NewVersionConstraint(name, minimum, specific)
	if err != nil {
		panic(err)
	}
	return c
}

func (c VersionConstraint) HasSpecificVersion() bool {
	return c.SpecificVersion != nil
}

// Satisfies reports whether the given version is acceptable for this constraint
func (c VersionConstraint) Satisfies(v *version.Version) bool {
	if v == nil {
		return false
	}
	if c.SpecificVersion != nil {
		return v.Equal(c.SpecificVersion)
	}
	return c.AtLeast(v)
}

// AtLeast reports whether v is >= the minimum version, ignoring any pin
func (c VersionConstraint) AtLeast(v *version.Version) bool {
	if v == nil {
		return false
	}
	if c.MinimumVersion == nil {
		return true
	}
	return v.GreaterThanOrEqual(c.MinimumVersion)
}

// WithSpecificVersion returns a copy of the constraint pinned to v
func (c VersionConstraint) WithSpecificVersion(v *version.Version) VersionConstraint {
	c.SpecificVersion = v
	return c
}

func (c VersionConstraint) String() string {
	if c.SpecificVersion != nil {
		return fmt.Sprintf("%s==%s", c.Name, c.SpecificVersion)
	}
	if c.MinimumVersion == nil {
		return fmt.Sprintf("%s>=0", c.Name)
	}
	return fmt.Sprintf("%s>=%s", c.Name, c.MinimumVersion)
}

// PackageDescriptor is the identity, flags and dependencies of a package. Descriptors
// are read-only snapshots, any change produces a new one.
type PackageDescriptor struct {
	Name                string
	Version             *version.Version
	IsEnabled           bool
	IsDependencyPackage bool
	Priority            int
	Dependencies        []VersionConstraint
	// RootFilename is the catalog entry backing this package, empty for installed ones
	RootFilename string
	// Source is an optional URL the catalog entry can be refreshed from
	Source string
}

// NewPackageDescriptor returns an enabled, top level descriptor for name and version
func NewPackageDescriptor(name, ver string, deps ...VersionConstraint) (*PackageDescriptor, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("package name can't be empty")
	}
	v, err := version.NewVersion(ver)
	if err != nil {
		return nil, fmt.Errorf("invalid version for package '%s': %w", name, err)
	}
	return &PackageDescriptor{
		Name:         name,
		Version:      v,
		IsEnabled:    true,
		Dependencies: deps,
	}, nil
}

// MustPackage is NewPackageDescriptor panicking on error, handy for fixtures
func MustPackage(name, ver string, deps ...VersionConstraint) *PackageDescriptor {
	p, err := NewPackageDescriptor(name, ver, deps...)
	if err != nil {
		panic(err)
	}
	return p
}

// ID identifies a package by name and version, two descriptors with the same ID
// are the same package
func (p *PackageDescriptor) ID() string {
	if p.Version == nil {
		return p.Name
	}
	return fmt.Sprintf("%s-%s", p.Name, p.Version.String())
}

func (p *PackageDescriptor) SamePackage(o *PackageDescriptor) bool {
	if p == nil || o == nil {
		return false
	}
	return p.ID() == o.ID()
}

func (p *PackageDescriptor) String() string {
	return p.ID()
}

// Validate checks the descriptor carries the minimum required data
func (p *PackageDescriptor) Validate() error {
	if p == nil {
		return errors.New("nil package descriptor")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("package name can't be empty")
	}
	if p.Version == nil {
		return fmt.Errorf("package '%s' has no version", p.Name)
	}
	for _, d := range p.Dependencies {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("package '%s' declares a dependency without name", p.ID())
		}
	}
	return nil
}

// Clone returns a deep copy of the descriptor
func (p *PackageDescriptor) Clone() *PackageDescriptor {
	c := *p
	c.Dependencies = make([]VersionConstraint, len(p.Dependencies))
	copy(c.Dependencies, p.Dependencies)
	return &c
}

// WithDependency returns a copy of the descriptor where the constraint with the
// same name is replaced by dep. It errors if no such constraint exists.
func (p *PackageDescriptor) WithDependency(dep VersionConstraint) (*PackageDescriptor, error) {
	c := p.Clone()
	for i, d := range c.Dependencies {
		if d.Name == dep.Name {
			c.Dependencies[i] = dep
			return c, nil
		}
	}
	return nil, fmt.Errorf("package '%s' has no dependency named '%s'", p.ID(), dep.Name)
}

// Dependency returns the constraint declared for name, if any
func (p *PackageDescriptor) Dependency(name string) (VersionConstraint, bool) {
	for _, d := range p.Dependencies {
		if d.Name == name {
			return d, true
		}
	}
	return VersionConstraint{}, false
}

// ParsePackageRef splits a "name@version" reference. Version is empty when omitted.
func ParsePackageRef(ref string) (name string, ver string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", errors.New("empty package reference")
	}
	name, ver, _ = strings.Cut(ref, "@")
	if name == "" {
		return "", "", fmt.Errorf("invalid package reference '%s'", ref)
	}
	if ver != "" {
		if _, err := version.NewVersion(ver); err != nil {
			return "", "", fmt.Errorf("invalid version in package reference '%s': %w", ref, err)
		}
	}
	return name, ver, nil
}
