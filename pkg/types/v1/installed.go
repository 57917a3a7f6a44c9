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
	"fmt"
	"path/filepath"

	"github.com/rancher/elemental-pkg/pkg/constants"
)

// InstalledPackage is a package living in its own directory under the install root
type InstalledPackage struct {
	InstallPath string
	Descriptor  *PackageDescriptor
}

// NewMissingPackage returns the sentinel record standing for a constraint that could
// not be satisfied by the installed packages
func NewMissingPackage(c VersionConstraint) *InstalledPackage {
	return &InstalledPackage{
		InstallPath: constants.MissingMarker,
		Descriptor: &PackageDescriptor{
			Name: c.String(),
		},
	}
}

// IsMissing reports whether the record is an unresolved dependency sentinel
func (i *InstalledPackage) IsMissing() bool {
	return i.InstallPath == constants.MissingMarker
}

func (i *InstalledPackage) ID() string {
	return i.Descriptor.ID()
}

// Key identifies a record by location and package
func (i *InstalledPackage) Key() string {
	return fmt.Sprintf("%s|%s", i.InstallPath, i.Descriptor.ID())
}

func (i *InstalledPackage) String() string {
	if i.IsMissing() {
		return fmt.Sprintf("missing dependency %s", i.Descriptor.Name)
	}
	return fmt.Sprintf("%s (%s)", i.Descriptor.ID(), i.InstallPath)
}

// InstallDir returns the directory a package gets installed to under root
func InstallDir(root string, p *PackageDescriptor) string {
	return filepath.Join(root, p.ID())
}
