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
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zip"

	"github.com/rancher/elemental-pkg/pkg/constants"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

// ZipStore is a package payload packed as a zip archive. Entries are extracted to
// the same filesystem the archive is read from.
type ZipStore struct {
	fs      v1.FS
	archive string
	files   map[string]*zip.File
}

// OpenZipStore loads the archive at path
func OpenZipStore(fs v1.FS, path string) (*ZipStore, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed reading archive %s: %w", path, err)
	}
	z := &ZipStore{fs: fs, archive: path, files: map[string]*zip.File{}}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		z.files[f.Name] = f
	}
	return z, nil
}

func (z *ZipStore) Name() string {
	return z.archive
}

func (z *ZipStore) Entries() ([]v1.FileEntry, error) {
	entries := make([]v1.FileEntry, 0, len(z.files))
	for name, f := range z.files {
		entries = append(entries, v1.FileEntry{
			Path:    name,
			Size:    int64(f.UncompressedSize64),
			ModTime: f.Modified,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (z *ZipStore) Open(p string) (io.ReadCloser, error) {
	f, ok := z.files[p]
	if !ok {
		return nil, fmt.Errorf("%s: no such entry in %s", p, z.archive)
	}
	return f.Open()
}

func (z *ZipStore) Extract(entry v1.FileEntry, targetDir string) error {
	r, err := z.Open(entry.Path)
	if err != nil {
		return err
	}
	defer r.Close()
	return writeEntry(z.fs, r, entry, targetDir)
}

func (z *ZipStore) Close() error {
	z.files = nil
	return nil
}

// Pack archives every regular file below srcDir into a zip at archive
func Pack(fs v1.FS, srcDir, archive string) error {
	entries, err := NewDirStore(fs, srcDir).Entries()
	if err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Path, Method: zip.Deflate, Modified: e.ModTime}
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			return err
		}
		data, err := fs.ReadFile(filepath.Join(srcDir, filepath.FromSlash(e.Path)))
		if err != nil {
			return err
		}
		if _, err = fw.Write(data); err != nil {
			return err
		}
	}
	if err = w.Close(); err != nil {
		return err
	}
	return fs.WriteFile(archive, buf.Bytes(), constants.FilePerm)
}
