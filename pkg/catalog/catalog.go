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

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-version"

	"github.com/rancher/elemental-pkg/pkg/constants"
	"github.com/rancher/elemental-pkg/pkg/fetch"
	"github.com/rancher/elemental-pkg/pkg/filestore"
	"github.com/rancher/elemental-pkg/pkg/pkgconfig"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
	"github.com/rancher/elemental-pkg/pkg/utils"
)

// DirCatalog is a catalog backed by a local directory. Every child directory holding
// a package config file and every zip archive carrying one at its root is a package.
type DirCatalog struct {
	log            v1.Logger
	fs             v1.FS
	dir            string
	configFilename string
	fetcher        *fetch.Fetcher
	packages       []*v1.PackageDescriptor
	skipped        error
}

// NewDirCatalog returns a catalog for the given directory, it must be loaded before use
func NewDirCatalog(cfg *v1.Config, dir string) *DirCatalog {
	return &DirCatalog{
		log:            cfg.Logger,
		fs:             cfg.Fs,
		dir:            dir,
		configFilename: cfg.ConfigFilename,
		fetcher:        fetch.NewFetcher(cfg.Logger, cfg.Fs, cfg.Client),
	}
}

// Load scans the catalog directory. It only fails if the directory can't be read,
// entries that can't be read are logged and skipped, see Skipped.
func (c *DirCatalog) Load() error {
	c.packages = nil
	c.skipped = nil
	entries, err := c.fs.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed reading catalog %s: %w", c.dir, err)
	}

	var errs error
	seen := map[string]string{}
	for _, e := range entries {
		path := filepath.Join(c.dir, e.Name())
		var d *v1.PackageDescriptor
		switch {
		case e.IsDir():
			d, err = pkgconfig.Read(c.fs, path, c.configFilename)
			if errors.Is(err, pkgconfig.ErrNotFound) {
				c.log.Debugf("Ignoring %s, no %s found", path, c.configFilename)
				continue
			}
		case strings.HasSuffix(e.Name(), constants.ArchiveExt):
			d, err = c.readArchive(path)
		default:
			continue
		}
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if prev, ok := seen[d.ID()]; ok {
			errs = multierror.Append(errs, fmt.Errorf("%s: package %s already provided by %s", path, d.ID(), prev))
			continue
		}
		seen[d.ID()] = path
		d.RootFilename = path
		c.packages = append(c.packages, d)
	}
	sortPackages(c.packages)
	if errs != nil {
		c.log.Warnf("Some catalog entries were skipped: %s", errs.Error())
	}
	c.skipped = errs
	c.log.Debugf("Loaded %d packages from catalog %s", len(c.packages), c.dir)
	return nil
}

// Skipped returns the aggregated errors of the entries the last Load skipped
func (c *DirCatalog) Skipped() error {
	return c.skipped
}

func (c *DirCatalog) readArchive(path string) (*v1.PackageDescriptor, error) {
	store, err := filestore.OpenZipStore(c.fs, path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	r, err := store.Open(c.configFilename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkgconfig.ErrNotFound, err.Error())
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return pkgconfig.Decode(data)
}

func sortPackages(pkgs []*v1.PackageDescriptor) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		if pkgs[i].Name != pkgs[j].Name {
			return pkgs[i].Name < pkgs[j].Name
		}
		return pkgs[i].Version.LessThan(pkgs[j].Version)
	})
}

// Dir returns the catalog directory
func (c *DirCatalog) Dir() string {
	return c.dir
}

func (c *DirCatalog) Packages() []*v1.PackageDescriptor {
	return append([]*v1.PackageDescriptor{}, c.packages...)
}

func (c *DirCatalog) HighestEnabled() []*v1.PackageDescriptor {
	var result []*v1.PackageDescriptor
	highest := map[string]int{}
	for _, p := range c.packages {
		if !p.IsEnabled {
			continue
		}
		if i, ok := highest[p.Name]; ok {
			if p.Version.GreaterThan(result[i].Version) {
				result[i] = p
			}
			continue
		}
		highest[p.Name] = len(result)
		result = append(result, p)
	}
	return result
}

// Find returns the package matching name and version, nil if there is none
func (c *DirCatalog) Find(name string, ver *version.Version) *v1.PackageDescriptor {
	for _, p := range c.packages {
		if p.Name == name && p.Version.Equal(ver) {
			return p
		}
	}
	return nil
}

// Highest returns the highest enabled version of name, nil if there is none
func (c *DirCatalog) Highest(name string) *v1.PackageDescriptor {
	for _, p := range c.HighestEnabled() {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Resolve finds the package a reference in the form name[@version] points to. A
// reference without version resolves to the highest enabled one.
func (c *DirCatalog) Resolve(ref string) (*v1.PackageDescriptor, error) {
	name, ver, err := v1.ParsePackageRef(ref)
	if err != nil {
		return nil, err
	}
	if ver == "" {
		if p := c.Highest(name); p != nil {
			return p, nil
		}
		return nil, fmt.Errorf("no enabled package named '%s' in catalog %s", name, c.dir)
	}
	v, err := version.NewVersion(ver)
	if err != nil {
		return nil, fmt.Errorf("invalid version '%s': %w", ver, err)
	}
	if p := c.Find(name, v); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("package %s@%s not found in catalog %s", name, ver, c.dir)
}

func (c *DirCatalog) Connect(rootFilename string) (v1.FileStore, error) {
	isDir, err := utils.IsDir(c.fs, rootFilename)
	if err != nil {
		return nil, fmt.Errorf("failed opening package payload %s: %w", rootFilename, err)
	}
	if isDir {
		return filestore.NewDirStore(c.fs, rootFilename), nil
	}
	return filestore.OpenZipStore(c.fs, rootFilename)
}

// Refresh downloads the package archive again from its source and reloads its
// descriptor. Packages without a source are left as they are.
func (c *DirCatalog) Refresh(pkg *v1.PackageDescriptor) error {
	if pkg.Source == "" {
		c.log.Debugf("Package %s has no source, nothing to refresh", pkg.ID())
		return nil
	}
	if pkg.RootFilename == "" {
		return fmt.Errorf("package %s is not part of catalog %s", pkg.ID(), c.dir)
	}
	if isDir, _ := utils.IsDir(c.fs, pkg.RootFilename); isDir {
		return fmt.Errorf("package %s is a directory, only archives can be refreshed", pkg.ID())
	}
	if err := c.fetcher.Fetch(context.Background(), pkg.Source, pkg.RootFilename); err != nil {
		return err
	}
	d, err := c.readArchive(pkg.RootFilename)
	if err != nil {
		return fmt.Errorf("refreshed archive of %s is invalid: %w", pkg.ID(), err)
	}
	if !d.SamePackage(pkg) {
		return fmt.Errorf("refreshed archive %s provides %s instead of %s", pkg.RootFilename, d.ID(), pkg.ID())
	}
	d.RootFilename = pkg.RootFilename
	c.replace(d)
	c.log.Infof("Refreshed %s from %s", pkg.ID(), pkg.Source)
	return nil
}

// Update stores a modified descriptor back into a directory package
func (c *DirCatalog) Update(pkg *v1.PackageDescriptor) error {
	if c.Find(pkg.Name, pkg.Version) == nil {
		return fmt.Errorf("package %s not found in catalog %s", pkg.ID(), c.dir)
	}
	if isDir, _ := utils.IsDir(c.fs, pkg.RootFilename); !isDir {
		return fmt.Errorf("package %s is an archive and can't be modified", pkg.ID())
	}
	if err := pkgconfig.Write(c.fs, pkg.RootFilename, c.configFilename, pkg); err != nil {
		return err
	}
	c.replace(pkg)
	return nil
}

func (c *DirCatalog) replace(pkg *v1.PackageDescriptor) {
	for i, p := range c.packages {
		if p.SamePackage(pkg) {
			c.packages[i] = pkg
			return
		}
	}
}
