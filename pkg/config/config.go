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

package config

import (
	"time"

	"github.com/twpayne/go-vfs/v4"

	"github.com/rancher/elemental-pkg/pkg/constants"
	"github.com/rancher/elemental-pkg/pkg/http"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

type GenericOptions func(a *v1.Config) error

func WithFs(fs v1.FS) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Fs = fs
		return nil
	}
}

func WithLogger(logger v1.Logger) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Logger = logger
		return nil
	}
}

func WithClient(client v1.HTTPClient) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Client = client
		return nil
	}
}

func WithInstallRoot(root string) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.InstallRoot = root
		return nil
	}
}

func WithCatalog(catalog string) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Catalog = catalog
		return nil
	}
}

// WithRemoveDelay sets the pause after every package directory removal, zero disables it
func WithRemoveDelay(delay time.Duration) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.RemoveDelay = delay
		return nil
	}
}

func WithInstallSettings(settings v1.InstallSettings) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Install = settings
		return nil
	}
}

func NewConfig(opts ...GenericOptions) *v1.Config {
	log := v1.NewLogger()

	c := &v1.Config{
		Fs:             vfs.OSFS,
		Logger:         log,
		InstallRoot:    constants.InstallRoot,
		Catalog:        constants.CatalogDir,
		ConfigFilename: constants.PackageConfigFile,
		RemoveDelay:    constants.RemoveDelay,
		OrphanPasses:   constants.OrphanPasses,
		Mirror:         constants.MirrorBuiltin,
		Install:        v1.NewInstallSettings(),
	}
	for _, o := range opts {
		err := o(c)
		if err != nil {
			log.Errorf("error applying config option: %s", err.Error())
			return nil
		}
	}

	// delay client creation after we have run over the options in case we use WithClient
	if c.Client == nil {
		c.Client = http.NewClient()
	}

	return c
}
