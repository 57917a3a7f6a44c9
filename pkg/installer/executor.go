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
	"path/filepath"
	"time"

	"github.com/docker/go-units"

	"github.com/rancher/elemental-pkg/pkg/constants"
	"github.com/rancher/elemental-pkg/pkg/filestore"
	"github.com/rancher/elemental-pkg/pkg/pkgconfig"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
	"github.com/rancher/elemental-pkg/pkg/utils"
)

// Executor applies planned instructions to the install root. Every step is
// recorded in the audit log, single file failures don't abort a package.
type Executor struct {
	cfg      *v1.Config
	catalog  v1.Catalog
	settings v1.InstallSettings
	log      *v1.AuditLog
}

// NewExecutor returns an executor. The catalog is only required to add or update
// packages.
func NewExecutor(cfg *v1.Config, catalog v1.Catalog, settings v1.InstallSettings, log *v1.AuditLog) *Executor {
	return &Executor{cfg: cfg, catalog: catalog, settings: settings, log: log}
}

// Apply runs the instructions in order. Failed instructions are logged and the
// remaining ones still run.
func (e *Executor) Apply(set *v1.InstructionSet) {
	for _, i := range set.Items() {
		var err error
		switch i.Action {
		case v1.ActionAdd:
			err = e.AddPackage(i.Package)
		case v1.ActionUpdate:
			err = e.UpdatePackage(i.Package)
		case v1.ActionRemove:
			err = e.RemovePackage(&v1.InstalledPackage{
				InstallPath: v1.InstallDir(e.cfg.InstallRoot, i.Package),
				Descriptor:  i.Package,
			})
		default:
			// ok and error instructions were logged while planning
			continue
		}
		if err != nil {
			e.log.Errorf(i.Package.ID(), "%s failed: %s", i.Action, err.Error())
		}
	}
}

func (e *Executor) refresh(pkg *v1.PackageDescriptor) {
	if !e.settings.UpdateBeforeInstalling {
		return
	}
	if err := e.catalog.Refresh(pkg); err != nil {
		e.log.Warnf(pkg.ID(), "could not refresh package from its source: %s", err.Error())
	}
}

func (e *Executor) connect(pkg *v1.PackageDescriptor) (v1.FileStore, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("no catalog to read %s from", pkg.ID())
	}
	e.refresh(pkg)
	return e.catalog.Connect(pkg.RootFilename)
}

// AddPackage extracts the package payload into its install directory
func (e *Executor) AddPackage(pkg *v1.PackageDescriptor) (err error) {
	src := pkg.ID()
	dir := v1.InstallDir(e.cfg.InstallRoot, pkg)

	cleanup := utils.NewCleanStack()
	defer func() { err = cleanup.Cleanup(err) }()

	store, err := e.connect(pkg)
	if err != nil {
		return err
	}
	cleanup.Push(store.Close)

	entries, err := store.Entries()
	if err != nil {
		return err
	}
	if exists, _ := utils.Exists(e.cfg.Fs, dir); exists {
		e.log.Debugf(src, "reusing existing directory %s", dir)
	} else if err = utils.MkdirAll(e.cfg.Fs, dir, constants.DirPerm); err != nil {
		return err
	}

	var size int64
	var extracted, failed int
	hasConfig := false
	for _, entry := range entries {
		if xErr := store.Extract(entry, dir); xErr != nil {
			e.log.Errorf(src, "failed extracting %s: %s", entry.Path, xErr.Error())
			failed++
			continue
		}
		e.log.Infof(src, "extracted %s", entry.Path)
		extracted++
		size += entry.Size
		if entry.Path == e.cfg.ConfigFilename {
			hasConfig = true
		}
	}
	if !hasConfig {
		if err = pkgconfig.Write(e.cfg.Fs, dir, e.cfg.ConfigFilename, pkg); err != nil {
			return err
		}
	}
	e.log.Infof(src, "installed into %s: %d files (%s) extracted, %d failed",
		dir, extracted, units.HumanSize(float64(size)), failed)
	return nil
}

// UpdatePackage mirrors the package payload onto its existing install directory
func (e *Executor) UpdatePackage(pkg *v1.PackageDescriptor) (err error) {
	src := pkg.ID()
	dir := v1.InstallDir(e.cfg.InstallRoot, pkg)

	cleanup := utils.NewCleanStack()
	defer func() { err = cleanup.Cleanup(err) }()

	store, err := e.connect(pkg)
	if err != nil {
		return err
	}
	cleanup.Push(store.Close)

	comparisons, err := filestore.Compare(store, e.cfg.Fs, dir, e.cfg.ConfigFilename)
	if err != nil {
		return err
	}

	counts := map[v1.CompareResult]int{}
	failed := 0
	report := func(c v1.FileComparison, cErr error) {
		if c.Result == v1.CompareError {
			e.log.Errorf(src, "failed comparing %s: %s", c.Path, cErr.Error())
			failed++
			return
		}
		if cErr != nil {
			e.log.Errorf(src, "failed to %s %s: %s", c.Result, c.Path, cErr.Error())
			failed++
			return
		}
		counts[c.Result]++
		if c.Result == v1.CompareOk {
			e.log.Debugf(src, "%s unchanged", c.Path)
			return
		}
		e.log.Infof(src, "%s %s", c.Result, c.Path)
	}

	if dirStore, ok := store.(*filestore.DirStore); ok && e.cfg.Mirror == constants.MirrorRsync {
		if err = filestore.RsyncMirror(dirStore, e.cfg.Fs, dir, e.cfg.ConfigFilename); err != nil {
			return err
		}
		for _, c := range comparisons {
			report(c, c.Err)
		}
	} else {
		filestore.Mirror(store, e.cfg.Fs, dir, comparisons, report)
	}

	if ok, _ := utils.Exists(e.cfg.Fs, filepath.Join(dir, e.cfg.ConfigFilename)); !ok {
		if err = pkgconfig.Write(e.cfg.Fs, dir, e.cfg.ConfigFilename, pkg); err != nil {
			return err
		}
	}
	e.log.Infof(src, "updated %s: %d new, %d updated, %d replaced local changes, %d removed, %d unchanged, %d failed",
		dir, counts[v1.CompareNew], counts[v1.CompareUpdate], counts[v1.CompareOld],
		counts[v1.CompareRemove], counts[v1.CompareOk], failed)
	return nil
}

// RemovePackage deletes the install directory of pkg. Missing directories are
// left alone.
func (e *Executor) RemovePackage(pkg *v1.InstalledPackage) error {
	src := pkg.ID()
	exists, err := utils.Exists(e.cfg.Fs, pkg.InstallPath)
	if err != nil {
		return err
	}
	if !exists {
		e.log.Debugf(src, "%s not found, nothing to remove", pkg.InstallPath)
		return nil
	}
	size, _ := utils.DirSize(e.cfg.Fs, pkg.InstallPath)
	if err = utils.MakeWritable(e.cfg.Fs, pkg.InstallPath); err != nil {
		return err
	}
	if err = e.cfg.Fs.RemoveAll(pkg.InstallPath); err != nil {
		return err
	}
	e.log.Infof(src, "removed %s (%s)", pkg.InstallPath, units.HumanSize(float64(size)))
	if e.cfg.RemoveDelay > 0 {
		time.Sleep(e.cfg.RemoveDelay)
	}
	return nil
}
