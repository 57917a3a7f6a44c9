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

// provides a custom error interface and exit codes to use on the elemental-pkg
package error

//
// Provided exit codes for elemental-pkg

// To make it easy to generate them you have to respect the structure:
//
// comment that explains the error
// const NamedConstant = ERRORCODE
//
// This way the docs can list them as EXITCODE -> COMMENT

// Invalid command arguments
const InvalidArgs = 10

// Error reading or validating the configuration
const ReadingConfig = 11

// Error loading the package catalog
const LoadingCatalog = 12

// Package not found in the catalog
const PackageNotFound = 13

// Package not installed
const PackageNotInstalled = 14

// Error scanning the installed packages
const ScanInstalled = 15

// Installation finished with errors in its audit log
const InstallFailed = 20

// Uninstallation finished with errors in its audit log
const UninstallFailed = 21

// Error removing orphaned or disabled packages
const CleanupFailed = 22

// Error reading a package config file
const ReadPackageConfig = 30

// Error writing a package config file
const WritePackageConfig = 31

// Error pinning a dependency
const PinDependency = 32

// Error packing a package payload
const PackPayload = 40

// Error refreshing a package from its source
const RefreshPackage = 41

// Unknown error
const Unknown int = 255
