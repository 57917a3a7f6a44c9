/*
Copyright © 2022 - 2025 SUSE LLC

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

package constants

import (
	"os"
	"time"
)

const (
	// Name of the per package configuration file, both in catalog entries and installed packages
	PackageConfigFile = "package.yaml"
	ConfigDir         = "/etc/elemental-pkg"
	ConfigFile        = "config.yaml"
	EnvFile           = "elemental-pkg.env"
	EnvPrefix         = "ELEMENTAL_PKG"
	InstallRoot       = "/var/lib/elemental-pkg/packages"
	CatalogDir        = "/var/lib/elemental-pkg/catalog"
	ArchiveExt        = ".zip"
	HTTPTimeout       = 60

	// Reserved install path of records standing for unresolved dependencies
	MissingMarker = "ERROR"
	// Audit log lines starting with this marker denote failed outcomes
	ErrorMarker = "Error"

	// Orphan removal passes before giving up
	OrphanPasses = 3
	// Pause after deleting a package directory
	RemoveDelay = 250 * time.Millisecond

	MirrorBuiltin = "builtin"
	MirrorRsync   = "rsync"

	SideBySide         = "side-by-side"
	HighestVersionOnly = "highest-version-only"

	// Default directory and file fileModes
	DirPerm  = os.ModeDir | os.ModePerm
	FilePerm = 0666
	// Write bits added to anything about to be deleted
	WritablePerm = 0200
)

// GetRunKeyEnvMap returns environment variable bindings to Config data
func GetRunKeyEnvMap() map[string]string {
	return map[string]string{
		"install-root":    "INSTALL_ROOT",
		"catalog":         "CATALOG",
		"config-filename": "CONFIG_FILENAME",
		"remove-delay":    "REMOVE_DELAY",
		"orphan-passes":   "ORPHAN_PASSES",
		"mirror":          "MIRROR",
	}
}

// GetInstallKeyEnvMap returns environment variable bindings to InstallSettings data
func GetInstallKeyEnvMap() map[string]string {
	return map[string]string{
		"mode":           "MODE",
		"clean":          "CLEAN",
		"update":         "UPDATE",
		"remove-orphans": "REMOVE_ORPHANS",
		"refresh":        "REFRESH",
	}
}
