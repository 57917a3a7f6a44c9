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
	"io"
	"time"
)

// Catalog is the set of packages available for installation
type Catalog interface {
	// Packages returns every known package, enabled or not
	Packages() []*PackageDescriptor
	// HighestEnabled returns the highest enabled version of every package name
	HighestEnabled() []*PackageDescriptor
	// Connect opens the payload of the catalog entry identified by rootFilename
	Connect(rootFilename string) (FileStore, error)
	// Refresh updates the backing archive of the given package from its source
	Refresh(pkg *PackageDescriptor) error
}

// FileEntry is a single file of a package payload, Path is slash separated and
// relative to the payload root
type FileEntry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// FileStore gives access to a package payload
type FileStore interface {
	Name() string
	Entries() ([]FileEntry, error)
	Open(path string) (io.ReadCloser, error)
	// Extract writes the entry below targetDir keeping its relative path
	Extract(entry FileEntry, targetDir string) error
	Close() error
}

// CompareResult is the outcome of comparing a payload file with an installed one
type CompareResult int

const (
	// CompareOk the installed file matches the payload
	CompareOk CompareResult = iota
	// CompareNew the file only exists in the payload
	CompareNew
	// CompareOld the installed file differs and is newer than the payload one
	CompareOld
	// CompareUpdate the installed file differs and is older than the payload one
	CompareUpdate
	// CompareRemove the file only exists in the install directory
	CompareRemove
	// CompareError the payload file could not be compared, see FileComparison.Err
	CompareError
)

func (c CompareResult) String() string {
	switch c {
	case CompareOk:
		return "ok"
	case CompareNew:
		return "new"
	case CompareOld:
		return "old"
	case CompareUpdate:
		return "update"
	case CompareRemove:
		return "remove"
	case CompareError:
		return "error"
	}
	return "unknown"
}

// FileComparison is the compare result of a single path
type FileComparison struct {
	Path   string
	Result CompareResult
	Entry  FileEntry
	Err    error
}
