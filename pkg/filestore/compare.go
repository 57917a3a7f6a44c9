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
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/zloylos/grsync"

	"github.com/rancher/elemental-pkg/pkg/constants"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
	"github.com/rancher/elemental-pkg/pkg/utils"
)

// Compare runs a three-way comparison between the payload and the files already in
// dir. Paths in excludes are never reported for removal. Payload files that can't
// be compared are returned as CompareError, only listing failures are errors.
func Compare(store v1.FileStore, fs v1.FS, dir string, excludes ...string) ([]v1.FileComparison, error) {
	entries, err := store.Entries()
	if err != nil {
		return nil, err
	}

	var result []v1.FileComparison
	inPayload := map[string]bool{}
	for _, e := range entries {
		inPayload[e.Path] = true
		res, err := compareEntry(store, fs, dir, e)
		if err != nil {
			result = append(result, v1.FileComparison{Path: e.Path, Result: v1.CompareError, Entry: e, Err: err})
			continue
		}
		result = append(result, v1.FileComparison{Path: e.Path, Result: res, Entry: e})
	}

	if exists, _ := utils.Exists(fs, dir); exists {
		installed, err := utils.ListFiles(fs, dir)
		if err != nil {
			return nil, err
		}
		skip := map[string]bool{}
		for _, e := range excludes {
			skip[e] = true
		}
		for _, f := range installed {
			if inPayload[f] || skip[f] {
				continue
			}
			result = append(result, v1.FileComparison{Path: f, Result: v1.CompareRemove})
		}
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func compareEntry(store v1.FileStore, fs v1.FS, dir string, e v1.FileEntry) (v1.CompareResult, error) {
	dst, err := targetPath(dir, e.Path)
	if err != nil {
		return v1.CompareOk, err
	}
	info, err := fs.Stat(dst)
	if err != nil || info.IsDir() {
		return v1.CompareNew, nil
	}
	if info.Size() == e.Size {
		src, err := store.Open(e.Path)
		if err != nil {
			return v1.CompareOk, err
		}
		srcSum, err := checksum(src)
		src.Close()
		if err != nil {
			return v1.CompareOk, err
		}
		f, err := fs.Open(dst)
		if err != nil {
			return v1.CompareOk, err
		}
		dstSum, err := checksum(f)
		f.Close()
		if err != nil {
			return v1.CompareOk, err
		}
		if srcSum == dstSum {
			return v1.CompareOk, nil
		}
	}
	if info.ModTime().After(e.ModTime) {
		return v1.CompareOld, nil
	}
	return v1.CompareUpdate, nil
}

func checksum(r io.Reader) (uint64, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// Mirror makes dir match the payload according to the given comparisons. New,
// updated and locally newer files are written, removed ones deleted and unchanged
// ones left alone. report is called once per comparison with the outcome, files
// that could not be compared are reported with their compare error.
func Mirror(store v1.FileStore, fs v1.FS, dir string, comparisons []v1.FileComparison, report func(v1.FileComparison, error)) {
	for _, c := range comparisons {
		var err error
		switch c.Result {
		case v1.CompareNew, v1.CompareUpdate, v1.CompareOld:
			err = store.Extract(c.Entry, dir)
		case v1.CompareRemove:
			var dst string
			dst, err = targetPath(dir, c.Path)
			if err == nil {
				_ = fs.Chmod(dst, constants.FilePerm)
				err = fs.Remove(dst)
			}
		case v1.CompareError:
			err = c.Err
		}
		if report != nil {
			report(c, err)
		}
	}
}

// RsyncMirror syncs a directory payload onto dir with rsync. Both paths must be
// resolvable on the host through the filesystem's RawPath. The protected file at
// the root of dir is never deleted, but it is still updated from the payload.
func RsyncMirror(store *DirStore, fs v1.FS, dir string, protect string) error {
	src, err := store.FS().RawPath(store.Root())
	if err != nil {
		return err
	}
	dst, err := fs.RawPath(dir)
	if err != nil {
		return err
	}
	task := grsync.NewTask(
		src+string(filepath.Separator),
		dst+string(filepath.Separator),
		grsync.RsyncOptions{
			Quiet:    true,
			Archive:  true,
			Checksum: true,
			Delete:   true,
			Filter:   protectRule(protect),
		},
	)
	if err := task.Run(); err != nil {
		return fmt.Errorf("rsync failed: %w: %s", err, task.Log().Stderr)
	}
	return nil
}

// protectRule returns an rsync protect filter anchored at the transfer root.
func protectRule(file string) string {
	if file == "" {
		return ""
	}
	return "P /" + file
}
