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

package filestore_test

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sanity-io/litter"
	"github.com/twpayne/go-vfs/v4"
	"github.com/twpayne/go-vfs/v4/vfst"

	"github.com/rancher/elemental-pkg/pkg/constants"
	"github.com/rancher/elemental-pkg/pkg/filestore"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

func results(cmps []v1.FileComparison) map[string]v1.CompareResult {
	m := map[string]v1.CompareResult{}
	for _, c := range cmps {
		m[c.Path] = c.Result
	}
	return m
}

// unsafeStore lists an extra entry pointing outside of the target directory
type unsafeStore struct {
	*filestore.DirStore
}

func (u unsafeStore) Entries() ([]v1.FileEntry, error) {
	entries, err := u.DirStore.Entries()
	if err != nil {
		return nil, err
	}
	return append(entries, v1.FileEntry{Path: "../escape.txt", Size: 1}), nil
}

var _ = Describe("File stores", Label("filestore"), func() {
	var fs *vfst.TestFS
	var cleanup func()
	var past, future time.Time

	BeforeEach(func() {
		var err error
		fs, cleanup, err = vfst.NewTestFS(map[string]interface{}{
			"/src/a.txt":         "hello",
			"/src/b.txt":         "new content",
			"/src/d.txt":         "payload d",
			"/src/sub/c.txt":     "nested",
			"/dst/a.txt":         "hello",
			"/dst/b.txt":         "old",
			"/dst/d.txt":         "locally edited",
			"/dst/extra.txt":     "leftover",
			"/dst/package.yaml":  "name: A\nversion: 1.0\n",
			"/dst/sub/.keep":     "",
			"/empty/placeholder": "",
		})
		Expect(err).ShouldNot(HaveOccurred())
		past = time.Now().Add(-48 * time.Hour)
		future = time.Now().Add(48 * time.Hour)
		Expect(fs.Chtimes("/dst/b.txt", past, past)).To(Succeed())
		Expect(fs.Chtimes("/dst/d.txt", future, future)).To(Succeed())
	})
	AfterEach(func() {
		cleanup()
	})

	Describe("DirStore", func() {
		It("lists regular files with slash separated relative paths", func() {
			store := filestore.NewDirStore(fs, "/src")
			entries, err := store.Entries()
			Expect(err).ShouldNot(HaveOccurred())
			var paths []string
			for _, e := range entries {
				paths = append(paths, e.Path)
			}
			Expect(paths).To(Equal([]string{"a.txt", "b.txt", "d.txt", "sub/c.txt"}))
			Expect(entries[0].Size).To(Equal(int64(5)))
		})
		It("extracts an entry keeping its relative path", func() {
			store := filestore.NewDirStore(fs, "/src")
			entries, err := store.Entries()
			Expect(err).ShouldNot(HaveOccurred())
			Expect(store.Extract(entries[3], "/out")).To(Succeed())
			data, err := fs.ReadFile("/out/sub/c.txt")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(data)).To(Equal("nested"))
		})
		It("refuses entries escaping the target directory", func() {
			store := filestore.NewDirStore(fs, "/src")
			err := store.Extract(v1.FileEntry{Path: "../evil.txt"}, "/out")
			Expect(err).Should(HaveOccurred())
		})
		It("overwrites read only files", func() {
			Expect(fs.Chmod("/dst/a.txt", 0444)).To(Succeed())
			store := filestore.NewDirStore(fs, "/src")
			Expect(store.Extract(v1.FileEntry{Path: "a.txt"}, "/dst")).To(Succeed())
		})
	})

	Describe("ZipStore", func() {
		It("packs a directory and reads it back", func() {
			Expect(filestore.Pack(fs, "/src", "/catalog/A-1.0.0.zip")).To(Succeed())
			store, err := filestore.OpenZipStore(fs, "/catalog/A-1.0.0.zip")
			Expect(err).ShouldNot(HaveOccurred())
			defer store.Close()

			entries, err := store.Entries()
			Expect(err).ShouldNot(HaveOccurred())
			Expect(entries).To(HaveLen(4), litter.Sdump(entries))
			Expect(entries[3].Path).To(Equal("sub/c.txt"))

			r, err := store.Open("b.txt")
			Expect(err).ShouldNot(HaveOccurred())
			data, err := io.ReadAll(r)
			r.Close()
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(data)).To(Equal("new content"))

			for _, e := range entries {
				Expect(store.Extract(e, "/out")).To(Succeed())
			}
			data, err = fs.ReadFile("/out/sub/c.txt")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(data)).To(Equal("nested"))
		})
		It("fails on a missing entry", func() {
			Expect(filestore.Pack(fs, "/src", "/catalog/A-1.0.0.zip")).To(Succeed())
			store, err := filestore.OpenZipStore(fs, "/catalog/A-1.0.0.zip")
			Expect(err).ShouldNot(HaveOccurred())
			_, err = store.Open("nope.txt")
			Expect(err).Should(HaveOccurred())
		})
		It("fails on a file that is not an archive", func() {
			_, err := filestore.OpenZipStore(fs, "/src/a.txt")
			Expect(err).Should(HaveOccurred())
		})
	})

	Describe("Compare", func() {
		It("classifies every payload and installed file", func() {
			store := filestore.NewDirStore(fs, "/src")
			cmps, err := filestore.Compare(store, fs, "/dst", constants.PackageConfigFile)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(results(cmps)).To(Equal(map[string]v1.CompareResult{
				"a.txt":     v1.CompareOk,
				"b.txt":     v1.CompareUpdate,
				"d.txt":     v1.CompareOld,
				"sub/c.txt": v1.CompareNew,
				"extra.txt": v1.CompareRemove,
				"sub/.keep": v1.CompareRemove,
			}), litter.Sdump(cmps))
		})
		It("reports everything as new for a missing directory", func() {
			store := filestore.NewDirStore(fs, "/src")
			cmps, err := filestore.Compare(store, fs, "/nothing")
			Expect(err).ShouldNot(HaveOccurred())
			for _, c := range cmps {
				Expect(c.Result).To(Equal(v1.CompareNew))
			}
			Expect(cmps).To(HaveLen(4))
		})
		It("records entries that can't be compared instead of failing", func() {
			store := unsafeStore{filestore.NewDirStore(fs, "/src")}
			cmps, err := filestore.Compare(store, fs, "/dst", constants.PackageConfigFile)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(results(cmps)).To(HaveKeyWithValue("../escape.txt", v1.CompareError))
			Expect(results(cmps)).To(HaveKeyWithValue("b.txt", v1.CompareUpdate))
			for _, c := range cmps {
				if c.Result == v1.CompareError {
					Expect(c.Err).Should(HaveOccurred())
				} else {
					Expect(c.Err).ShouldNot(HaveOccurred())
				}
			}
		})
	})

	Describe("Mirror", func() {
		It("makes the directory match the payload", func() {
			store := filestore.NewDirStore(fs, "/src")
			cmps, err := filestore.Compare(store, fs, "/dst", constants.PackageConfigFile)
			Expect(err).ShouldNot(HaveOccurred())

			reported := 0
			filestore.Mirror(store, fs, "/dst", cmps, func(_ v1.FileComparison, err error) {
				Expect(err).ShouldNot(HaveOccurred())
				reported++
			})
			Expect(reported).To(Equal(len(cmps)))

			cmps, err = filestore.Compare(store, fs, "/dst", constants.PackageConfigFile)
			Expect(err).ShouldNot(HaveOccurred())
			for _, c := range cmps {
				Expect(c.Result).To(Equal(v1.CompareOk), litter.Sdump(c))
			}
			_, err = fs.Stat("/dst/extra.txt")
			Expect(err).Should(HaveOccurred())
			_, err = fs.Stat("/dst/package.yaml")
			Expect(err).ShouldNot(HaveOccurred())
			data, err := fs.ReadFile("/dst/d.txt")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(data)).To(Equal("payload d"))
		})
		It("reports entries that can't be compared and mirrors the rest", func() {
			store := unsafeStore{filestore.NewDirStore(fs, "/src")}
			cmps, err := filestore.Compare(store, fs, "/dst", constants.PackageConfigFile)
			Expect(err).ShouldNot(HaveOccurred())

			failed := map[string]error{}
			filestore.Mirror(store, fs, "/dst", cmps, func(c v1.FileComparison, err error) {
				if err != nil {
					failed[c.Path] = err
				}
			})
			Expect(failed).To(HaveLen(1))
			Expect(failed).To(HaveKey("../escape.txt"))

			data, err := fs.ReadFile("/dst/b.txt")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(data)).To(Equal("new content"))
			_, err = fs.Stat("/escape.txt")
			Expect(err).Should(HaveOccurred())
		})
	})

	Describe("RsyncMirror", func() {
		var src, dst string

		BeforeEach(func() {
			if _, err := exec.LookPath("rsync"); err != nil {
				Skip("rsync is not available")
			}
			tmp := GinkgoT().TempDir()
			src = filepath.Join(tmp, "src")
			dst = filepath.Join(tmp, "dst")
			Expect(os.MkdirAll(src, constants.DirPerm)).To(Succeed())
			Expect(os.MkdirAll(dst, constants.DirPerm)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), constants.FilePerm)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dst, "stale.txt"), []byte("stale"), constants.FilePerm)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dst, constants.PackageConfigFile), []byte("name: A\nversion: 1.0\n"), constants.FilePerm)).To(Succeed())
		})

		It("updates the package descriptor shipped in the payload", func() {
			Expect(os.WriteFile(filepath.Join(src, constants.PackageConfigFile), []byte("name: A\nversion: 2.0\n"), constants.FilePerm)).To(Succeed())
			store := filestore.NewDirStore(vfs.OSFS, src)
			Expect(filestore.RsyncMirror(store, vfs.OSFS, dst, constants.PackageConfigFile)).To(Succeed())

			data, err := os.ReadFile(filepath.Join(dst, constants.PackageConfigFile))
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(data)).To(Equal("name: A\nversion: 2.0\n"))
			Expect(filepath.Join(dst, "a.txt")).To(BeARegularFile())
			Expect(filepath.Join(dst, "stale.txt")).NotTo(BeAnExistingFile())
		})

		It("keeps the package descriptor when the payload has none", func() {
			store := filestore.NewDirStore(vfs.OSFS, src)
			Expect(filestore.RsyncMirror(store, vfs.OSFS, dst, constants.PackageConfigFile)).To(Succeed())

			data, err := os.ReadFile(filepath.Join(dst, constants.PackageConfigFile))
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(data)).To(Equal("name: A\nversion: 1.0\n"))
			Expect(filepath.Join(dst, "stale.txt")).NotTo(BeAnExistingFile())
		})
	})
})
