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

package filestore

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/twpayne/go-vfs/v4"

	"github.com/rancher/elemental-pkg/pkg/constants"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
	"github.com/rancher/elemental-pkg/pkg/utils"
)

// DirStore is a package payload laid out as a plain directory
type DirStore struct {
	fs   v1.FS
	root string
}

func NewDirStore(fs v1.FS, root string) *DirStore {
	return &DirStore{fs: fs, root: root}
}

func (d *DirStore) Name() string {
	return d.root
}

// Root returns the payload directory
func (d *DirStore) Root() string {
	return d.root
}

// FS returns the filesystem the payload lives in
func (d *DirStore) FS() v1.FS {
	return d.fs
}

func (d *DirStore) Entries() ([]v1.FileEntry, error) {
	var entries []v1.FileEntry
	err := vfs.Walk(d.fs, d.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		entries = append(entries, v1.FileEntry{
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (d *DirStore) Open(p string) (io.ReadCloser, error) {
	return d.fs.Open(filepath.Join(d.root, filepath.FromSlash(p)))
}

func (d *DirStore) Extract(entry v1.FileEntry, targetDir string) error {
	r, err := d.Open(entry.Path)
	if err != nil {
		return err
	}
	defer r.Close()
	return writeEntry(d.fs, r, entry, targetDir)
}

func (d *DirStore) Close() error {
	return nil
}

// targetPath returns the destination of a payload path below targetDir, refusing
// paths escaping it
func targetPath(targetDir, p string) (string, error) {
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", fmt.Errorf("invalid payload path '%s'", p)
	}
	return filepath.Join(targetDir, filepath.FromSlash(clean)), nil
}

// writeEntry copies the payload file read from r into targetDir
func writeEntry(fs v1.FS, r io.Reader, entry v1.FileEntry, targetDir string) error {
	dst, err := targetPath(targetDir, entry.Path)
	if err != nil {
		return err
	}
	if err = utils.MkdirAll(fs, filepath.Dir(dst), constants.DirPerm); err != nil {
		return err
	}
	f, err := fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePerm)
	if os.IsPermission(err) {
		// read only leftovers of a previous install
		if cErr := fs.Chmod(dst, constants.FilePerm); cErr == nil {
			f, err = fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePerm)
		}
	}
	if err != nil {
		return err
	}
	_, err = io.Copy(f, r)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return err
	}
	if !entry.ModTime.IsZero() {
		return fs.Chtimes(dst, entry.ModTime, entry.ModTime)
	}
	return nil
}
