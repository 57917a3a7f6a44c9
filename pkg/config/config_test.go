/*
Copyright © 2021 - 2025 SUSE LLC

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

package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twpayne/go-vfs/v4"
	"github.com/twpayne/go-vfs/v4/vfst"

	"github.com/rancher/elemental-pkg/pkg/config"
	"github.com/rancher/elemental-pkg/pkg/constants"
	v1mock "github.com/rancher/elemental-pkg/pkg/mocks"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

var _ = Describe("Types", Label("types", "config"), func() {
	Describe("Config", func() {
		Describe("ConfigOptions", func() {
			var fs vfs.FS
			var cleanup func()

			BeforeEach(func() {
				var err error
				fs, cleanup, err = vfst.NewTestFS(nil)
				Expect(err).ShouldNot(HaveOccurred())
			})
			AfterEach(func() {
				cleanup()
			})
			It("Sets the proper interfaces in the config struct", func() {
				logger := v1.NewNullLogger()
				client := &v1mock.FakeHTTPClient{}
				c := config.NewConfig(
					config.WithFs(fs),
					config.WithLogger(logger),
					config.WithClient(client),
					config.WithInstallRoot("/packages"),
					config.WithCatalog("/catalog"),
					config.WithRemoveDelay(0),
				)
				Expect(c.Fs).To(Equal(fs))
				Expect(c.Logger).To(Equal(logger))
				Expect(c.Client).To(Equal(client))
				Expect(c.InstallRoot).To(Equal("/packages"))
				Expect(c.Catalog).To(Equal("/catalog"))
				Expect(c.RemoveDelay).To(BeZero())
				Expect(c.Sanitize()).To(Succeed())
			})
			It("Sets sane defaults", func() {
				c := config.NewConfig(config.WithFs(fs), config.WithLogger(v1.NewNullLogger()))
				Expect(c.Client).NotTo(BeNil())
				Expect(c.ConfigFilename).To(Equal(constants.PackageConfigFile))
				Expect(c.OrphanPasses).To(Equal(constants.OrphanPasses))
				Expect(c.Install.Mode).To(Equal(v1.SideBySide))
				Expect(c.Mirror).To(Equal(constants.MirrorBuiltin))
			})
			It("Fails to sanitize an empty install root", func() {
				c := config.NewConfig(config.WithFs(fs), config.WithInstallRoot(" "))
				Expect(c.Sanitize()).NotTo(Succeed())
			})
			It("Fails to sanitize an unknown mirror backend", func() {
				c := config.NewConfig(config.WithFs(fs))
				c.Mirror = "scp"
				Expect(c.Sanitize()).NotTo(Succeed())
			})
		})
	})
})
