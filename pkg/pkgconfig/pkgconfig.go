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

package pkgconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/hashicorp/go-version"
	"github.com/twpayne/go-vfs/v4/vfst"
	"gopkg.in/yaml.v3"

	"github.com/rancher/elemental-pkg/pkg/constants"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
	"github.com/rancher/elemental-pkg/pkg/utils"
)

var (
	// ErrNotFound is returned when a package directory holds no config file
	ErrNotFound = errors.New("package config file not found")
	// ErrCorrupt is returned when the config file can't be parsed into a descriptor
	ErrCorrupt = errors.New("package config file is corrupt")
)

// Dependency is the persisted form of a version constraint
type Dependency struct {
	Name            string `yaml:"name"`
	MinimumVersion  string `yaml:"minimum-version,omitempty"`
	SpecificVersion string `yaml:"specific-version,omitempty"`
}

// Document is the persisted form of a package descriptor
type Document struct {
	Name                string       `yaml:"name"`
	Version             string       `yaml:"version"`
	IsEnabled           *bool        `yaml:"enabled,omitempty"`
	IsDependencyPackage bool         `yaml:"dependency,omitempty"`
	Priority            int          `yaml:"priority,omitempty"`
	Source              string       `yaml:"source,omitempty"`
	Dependencies        []Dependency `yaml:"dependencies,omitempty"`
}

// Decode parses a config document into a descriptor. Documents without the
// enabled key are enabled.
func Decode(data []byte) (*v1.PackageDescriptor, error) {
	doc := Document{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, err.Error())
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("%w: missing package name", ErrCorrupt)
	}
	ver, err := version.NewVersion(doc.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: package '%s': %s", ErrCorrupt, doc.Name, err.Error())
	}
	d := &v1.PackageDescriptor{
		Name:                doc.Name,
		Version:             ver,
		IsEnabled:           doc.IsEnabled == nil || *doc.IsEnabled,
		IsDependencyPackage: doc.IsDependencyPackage,
		Priority:            doc.Priority,
		Source:              doc.Source,
	}
	for _, dep := range doc.Dependencies {
		c, err := v1.NewVersionConstraint(dep.Name, dep.MinimumVersion, dep.SpecificVersion)
		if err != nil {
			return nil, fmt.Errorf("%w: package '%s': %s", ErrCorrupt, doc.Name, err.Error())
		}
		d.Dependencies = append(d.Dependencies, c)
	}
	return d, nil
}

// Encode renders a descriptor as a config document
func Encode(d *v1.PackageDescriptor) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	enabled := d.IsEnabled
	doc := Document{
		Name:                d.Name,
		Version:             d.Version.Original(),
		IsEnabled:           &enabled,
		IsDependencyPackage: d.IsDependencyPackage,
		Priority:            d.Priority,
		Source:              d.Source,
	}
	for _, c := range d.Dependencies {
		dep := Dependency{Name: c.Name}
		if c.MinimumVersion != nil {
			dep.MinimumVersion = c.MinimumVersion.Original()
		}
		if c.SpecificVersion != nil {
			dep.SpecificVersion = c.SpecificVersion.Original()
		}
		doc.Dependencies = append(doc.Dependencies, dep)
	}
	return yaml.Marshal(doc)
}

// Read loads the descriptor stored in dir. It returns ErrNotFound if there is no
// config file and an error wrapping ErrCorrupt if it can't be parsed.
func Read(fs v1.FS, dir, filename string) (*v1.PackageDescriptor, error) {
	data, err := fs.ReadFile(filepath.Join(dir, filename))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Write stores the descriptor in dir, creating dir if needed. Writes to OS backed
// paths are atomic.
func Write(fs v1.FS, dir, filename string, d *v1.PackageDescriptor) error {
	data, err := Encode(d)
	if err != nil {
		return err
	}
	if err = utils.MkdirAll(fs, dir, constants.DirPerm); err != nil {
		return err
	}
	path := filepath.Join(dir, filename)
	// Test filesystems are rooted in a temp dir, so they can be written atomically too
	if _, isTestFs := fs.(*vfst.TestFS); isTestFs || isOSFS(fs) {
		raw, err := fs.RawPath(path)
		if err != nil {
			return err
		}
		return renameio.WriteFile(raw, data, constants.FilePerm)
	}
	return fs.WriteFile(path, data, constants.FilePerm)
}

func isOSFS(fs v1.FS) bool {
	raw, err := fs.RawPath("/")
	return err == nil && raw == "/"
}

// PinDependency returns a new descriptor where the dependency named depName only
// accepts the given version. The original descriptor is left untouched.
func PinDependency(d *v1.PackageDescriptor, depName, ver string) (*v1.PackageDescriptor, error) {
	c, ok := d.Dependency(depName)
	if !ok {
		return nil, fmt.Errorf("package '%s' has no dependency named '%s'", d.ID(), depName)
	}
	v, err := version.NewVersion(ver)
	if err != nil {
		return nil, fmt.Errorf("invalid version '%s': %w", ver, err)
	}
	if !c.AtLeast(v) {
		return nil, fmt.Errorf("version %s is lower than the minimum version required by %s", v, c)
	}
	return d.WithDependency(c.WithSpecificVersion(v))
}
