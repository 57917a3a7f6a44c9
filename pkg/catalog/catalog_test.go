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

package catalog_test

import (
	"bytes"

	"github.com/hashicorp/go-version"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-vfs/v4/vfst"

	"github.com/rancher/elemental-pkg/pkg/catalog"
	"github.com/rancher/elemental-pkg/pkg/config"
	"github.com/rancher/elemental-pkg/pkg/constants"
	"github.com/rancher/elemental-pkg/pkg/filestore"
	"github.com/rancher/elemental-pkg/pkg/mocks"
	"github.com/rancher/elemental-pkg/pkg/pkgconfig"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

func ids(pkgs []*v1.PackageDescriptor) []string {
	var r []string
	for _, p := range pkgs {
		r = append(r, p.ID())
	}
	return r
}

var _ = Describe("DirCatalog", Label("catalog"), func() {
	var fs *vfst.TestFS
	var cleanup func()
	var cfg *v1.Config
	var client *mocks.FakeHTTPClient
	var memLog *bytes.Buffer
	var cat *catalog.DirCatalog

	BeforeEach(func() {
		var err error
		fs, cleanup, err = vfst.NewTestFS(map[string]interface{}{
			"/catalog/A-1.0/package.yaml":  "name: A\nversion: 1.0\ndependencies:\n- name: Y\n  minimum-version: 1.0\n",
			"/catalog/A-1.0/bin/a":         "a binary",
			"/catalog/Y-1.0/package.yaml":  "name: Y\nversion: 1.0\ndependency: true\n",
			"/catalog/Y-1.0/lib/y":         "y v1",
			"/catalog/Y-3.0/package.yaml":  "name: Y\nversion: 3.0\nenabled: false\ndependency: true\n",
			"/catalog/broken/package.yaml": "name: broken\nversion: nope\n",
			"/catalog/nothing/readme":      "not a package",
			"/catalog/notes.txt":           "ignored",
			"/build/Y-2.0/package.yaml":    "name: Y\nversion: 2.0\ndependency: true\nsource: https://example.org/Y-2.0.zip\n",
			"/build/Y-2.0/lib/y":           "y v2",
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(filestore.Pack(fs, "/build/Y-2.0", "/catalog/Y-2.0.zip")).To(Succeed())

		memLog = &bytes.Buffer{}
		logger := v1.NewBufferLogger(memLog)
		logger.SetLevel(logrus.DebugLevel)
		client = &mocks.FakeHTTPClient{}
		cfg = config.NewConfig(
			config.WithFs(fs),
			config.WithLogger(logger),
			config.WithClient(client),
		)
		cat = catalog.NewDirCatalog(cfg, "/catalog")
	})
	AfterEach(func() {
		cleanup()
	})

	It("fails if the catalog directory can't be read", func() {
		missing := catalog.NewDirCatalog(cfg, "/nonexistent")
		Expect(missing.Load()).NotTo(Succeed())
		Expect(missing.Packages()).To(BeEmpty())
	})
	It("loads directory and archive packages skipping broken ones", func() {
		Expect(cat.Load()).To(Succeed())
		Expect(cat.Skipped()).Should(HaveOccurred())
		Expect(cat.Skipped().Error()).To(ContainSubstring("/catalog/broken"))
		Expect(memLog.String()).To(ContainSubstring("Some catalog entries were skipped"))
		Expect(ids(cat.Packages())).To(Equal([]string{"A-1.0.0", "Y-1.0.0", "Y-2.0.0", "Y-3.0.0"}))

		y2 := cat.Find("Y", version.Must(version.NewVersion("2.0")))
		Expect(y2).NotTo(BeNil())
		Expect(y2.RootFilename).To(Equal("/catalog/Y-2.0.zip"))
		Expect(y2.IsDependencyPackage).To(BeTrue())
	})
	It("only lists the highest enabled version of every package", func() {
		_ = cat.Load()
		Expect(ids(cat.HighestEnabled())).To(Equal([]string{"A-1.0.0", "Y-2.0.0"}), litter.Sdump(ids(cat.Packages())))
		Expect(cat.Highest("Y").ID()).To(Equal("Y-2.0.0"))
		Expect(cat.Highest("Z")).To(BeNil())
	})
	It("resolves package references", func() {
		_ = cat.Load()
		p, err := cat.Resolve("Y")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(p.ID()).To(Equal("Y-2.0.0"))
		p, err = cat.Resolve("Y@3.0")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(p.IsEnabled).To(BeFalse())
		_, err = cat.Resolve("Y@4.0")
		Expect(err).Should(HaveOccurred())
		_, err = cat.Resolve("@1.0")
		Expect(err).Should(HaveOccurred())
	})
	It("connects to directory and archive payloads", func() {
		_ = cat.Load()
		store, err := cat.Connect("/catalog/A-1.0")
		Expect(err).ShouldNot(HaveOccurred())
		entries, err := store.Entries()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(entries).To(HaveLen(2))

		store, err = cat.Connect("/catalog/Y-2.0.zip")
		Expect(err).ShouldNot(HaveOccurred())
		defer store.Close()
		entries, err = store.Entries()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(entries).To(HaveLen(2))

		_, err = cat.Connect("/catalog/missing")
		Expect(err).Should(HaveOccurred())
	})
	It("does nothing when refreshing packages without source", func() {
		_ = cat.Load()
		Expect(cat.Refresh(cat.Highest("A"))).To(Succeed())
		Expect(client.ClientCalls).To(BeEmpty())
	})
	It("refreshes archives from their source", func() {
		_ = cat.Load()
		archive, err := fs.ReadFile("/catalog/Y-2.0.zip")
		Expect(err).ShouldNot(HaveOccurred())
		client.Content = archive

		y2 := cat.Highest("Y")
		Expect(cat.Refresh(y2)).To(Succeed())
		Expect(client.WasGetCalledWith("https://example.org/Y-2.0.zip")).To(BeTrue())
		Expect(cat.Highest("Y").RootFilename).To(Equal("/catalog/Y-2.0.zip"))
	})
	It("refuses refreshed archives providing another package", func() {
		_ = cat.Load()
		Expect(filestore.Pack(fs, "/catalog/Y-1.0", "/build/other.zip")).To(Succeed())
		archive, err := fs.ReadFile("/build/other.zip")
		Expect(err).ShouldNot(HaveOccurred())
		client.Content = archive

		Expect(cat.Refresh(cat.Highest("Y"))).NotTo(Succeed())
	})
	It("writes modified descriptors back into directory packages", func() {
		_ = cat.Load()
		a, err := pkgconfig.PinDependency(cat.Highest("A"), "Y", "1.0")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(cat.Update(a)).To(Succeed())

		stored, err := pkgconfig.Read(fs, "/catalog/A-1.0", constants.PackageConfigFile)
		Expect(err).ShouldNot(HaveOccurred())
		dep, _ := stored.Dependency("Y")
		Expect(dep.String()).To(Equal("Y==1.0.0"))
		dep, _ = cat.Highest("A").Dependency("Y")
		Expect(dep.HasSpecificVersion()).To(BeTrue())

		Expect(cat.Update(cat.Highest("Y"))).NotTo(Succeed())
	})
})
