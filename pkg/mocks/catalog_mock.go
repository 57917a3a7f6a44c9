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

package mocks

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rancher/elemental-pkg/pkg/constants"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
	"github.com/rancher/elemental-pkg/pkg/utils"
)

// FakeCatalog is an in memory catalog. Payloads are keyed by package ID and map
// slash separated paths to file contents.
type FakeCatalog struct {
	Fs           v1.FS
	Pkgs         []*v1.PackageDescriptor
	Payloads     map[string]map[string]string
	RefreshCalls []string
	RefreshError bool
	// FailOn lists payload paths whose extraction fails
	FailOn map[string]bool
}

var _ v1.Catalog = &FakeCatalog{}

func NewFakeCatalog(fs v1.FS) *FakeCatalog {
	return &FakeCatalog{
		Fs:       fs,
		Payloads: map[string]map[string]string{},
		FailOn:   map[string]bool{},
	}
}

// AddPackage adds a package with the given payload files to the catalog
func (c *FakeCatalog) AddPackage(p *v1.PackageDescriptor, files map[string]string) *v1.PackageDescriptor {
	p.RootFilename = p.ID()
	c.Pkgs = append(c.Pkgs, p)
	c.Payloads[p.ID()] = files
	return p
}

func (c *FakeCatalog) Packages() []*v1.PackageDescriptor {
	return c.Pkgs
}

func (c *FakeCatalog) HighestEnabled() []*v1.PackageDescriptor {
	highest := map[string]*v1.PackageDescriptor{}
	var names []string
	for _, p := range c.Pkgs {
		if !p.IsEnabled {
			continue
		}
		h, ok := highest[p.Name]
		if !ok {
			names = append(names, p.Name)
		}
		if !ok || p.Version.GreaterThan(h.Version) {
			highest[p.Name] = p
		}
	}
	sort.Strings(names)
	var result []*v1.PackageDescriptor
	for _, n := range names {
		result = append(result, highest[n])
	}
	return result
}

func (c *FakeCatalog) Connect(rootFilename string) (v1.FileStore, error) {
	files, ok := c.Payloads[rootFilename]
	if !ok {
		return nil, fmt.Errorf("unknown payload %s", rootFilename)
	}
	return &FakeFileStore{fs: c.Fs, name: rootFilename, files: files, failOn: c.FailOn}, nil
}

func (c *FakeCatalog) Refresh(pkg *v1.PackageDescriptor) error {
	c.RefreshCalls = append(c.RefreshCalls, pkg.ID())
	if c.RefreshError {
		return errors.New("fake refresh error")
	}
	return nil
}

// FakeFileStore is an in memory payload extracting into a v1.FS
type FakeFileStore struct {
	fs     v1.FS
	name   string
	files  map[string]string
	failOn map[string]bool
	Closed bool
}

var _ v1.FileStore = &FakeFileStore{}

func (s *FakeFileStore) Name() string {
	return s.name
}

func (s *FakeFileStore) Entries() ([]v1.FileEntry, error) {
	var entries []v1.FileEntry
	for p, content := range s.files {
		entries = append(entries, v1.FileEntry{
			Path:    p,
			Size:    int64(len(content)),
			ModTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (s *FakeFileStore) Open(path string) (io.ReadCloser, error) {
	content, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("no file %s in %s", path, s.name)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (s *FakeFileStore) Extract(entry v1.FileEntry, targetDir string) error {
	if s.failOn[entry.Path] {
		return fmt.Errorf("fake extraction error for %s", entry.Path)
	}
	content, ok := s.files[entry.Path]
	if !ok {
		return fmt.Errorf("no file %s in %s", entry.Path, s.name)
	}
	dst := filepath.Join(targetDir, filepath.FromSlash(entry.Path))
	if err := utils.MkdirAll(s.fs, filepath.Dir(dst), constants.DirPerm); err != nil {
		return err
	}
	if err := s.fs.WriteFile(dst, []byte(content), constants.FilePerm); err != nil {
		return err
	}
	return s.fs.Chtimes(dst, entry.ModTime, entry.ModTime)
}

func (s *FakeFileStore) Close() error {
	s.Closed = true
	return nil
}
