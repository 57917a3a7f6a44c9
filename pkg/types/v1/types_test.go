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

package v1_test

import (
	"bytes"
	"reflect"

	"github.com/hashicorp/go-version"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-vfs/v4"

	"github.com/rancher/elemental-pkg/pkg/constants"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

var _ = Describe("Types", Label("types"), func() {
	Describe("VersionConstraint", func() {
		It("accepts any version above the minimum", func() {
			c := v1.MustConstraint("Y", "1.0", "")
			Expect(c.Satisfies(version.Must(version.NewVersion("1.0")))).To(BeTrue())
			Expect(c.Satisfies(version.Must(version.NewVersion("2.3")))).To(BeTrue())
			Expect(c.Satisfies(version.Must(version.NewVersion("0.9")))).To(BeFalse())
			Expect(c.Satisfies(nil)).To(BeFalse())
			Expect(c.String()).To(Equal("Y>=1.0.0"))
		})
		It("only accepts the pinned version", func() {
			c := v1.MustConstraint("Y", "1.0", "2.0")
			Expect(c.HasSpecificVersion()).To(BeTrue())
			Expect(c.Satisfies(version.Must(version.NewVersion("2.0")))).To(BeTrue())
			Expect(c.Satisfies(version.Must(version.NewVersion("3.0")))).To(BeFalse())
			Expect(c.AtLeast(version.Must(version.NewVersion("3.0")))).To(BeTrue())
			Expect(c.String()).To(Equal("Y==2.0.0"))
		})
		It("defaults the minimum version to zero", func() {
			c := v1.MustConstraint("Y", "", "")
			Expect(c.Satisfies(version.Must(version.NewVersion("0.0.1")))).To(BeTrue())
		})
		It("pins a copy without changing the original", func() {
			c := v1.MustConstraint("Y", "1.0", "")
			pinned := c.WithSpecificVersion(version.Must(version.NewVersion("1.5")))
			Expect(pinned.HasSpecificVersion()).To(BeTrue())
			Expect(c.HasSpecificVersion()).To(BeFalse())
		})
		It("fails on invalid input", func() {
			_, err := v1.NewVersionConstraint("", "1.0", "")
			Expect(err).To(HaveOccurred())
			_, err = v1.NewVersionConstraint("Y", "not-a-version", "")
			Expect(err).To(HaveOccurred())
			_, err = v1.NewVersionConstraint("Y", "1.0", "x.y")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("PackageDescriptor", func() {
		It("identifies packages by name and canonical version", func() {
			a := v1.MustPackage("A", "1.0")
			b := v1.MustPackage("A", "1.0.0")
			Expect(a.ID()).To(Equal("A-1.0.0"))
			Expect(a.SamePackage(b)).To(BeTrue())
			Expect(a.SamePackage(v1.MustPackage("A", "1.1"))).To(BeFalse())
			Expect(a.SamePackage(nil)).To(BeFalse())
			Expect(a.IsEnabled).To(BeTrue())
		})
		It("validates the descriptor", func() {
			var nilPkg *v1.PackageDescriptor
			Expect(nilPkg.Validate()).NotTo(Succeed())
			Expect((&v1.PackageDescriptor{Name: "A"}).Validate()).NotTo(Succeed())
			p := v1.MustPackage("A", "1.0")
			p.Dependencies = append(p.Dependencies, v1.VersionConstraint{})
			Expect(p.Validate()).NotTo(Succeed())
			Expect(v1.MustPackage("A", "1.0", v1.MustConstraint("Y", "1", "")).Validate()).To(Succeed())
		})
		It("replaces dependencies on a copy", func() {
			p := v1.MustPackage("A", "1.0", v1.MustConstraint("Y", "1", ""), v1.MustConstraint("Z", "1", ""))
			pinned, err := p.WithDependency(v1.MustConstraint("Y", "1", "1.2"))
			Expect(err).ToNot(HaveOccurred())
			d, ok := pinned.Dependency("Y")
			Expect(ok).To(BeTrue())
			Expect(d.HasSpecificVersion()).To(BeTrue())
			d, _ = p.Dependency("Y")
			Expect(d.HasSpecificVersion()).To(BeFalse())

			_, err = p.WithDependency(v1.MustConstraint("Q", "1", ""))
			Expect(err).To(HaveOccurred())
		})
		It("parses package references", func() {
			name, ver, err := v1.ParsePackageRef("A@1.2")
			Expect(err).ToNot(HaveOccurred())
			Expect(name).To(Equal("A"))
			Expect(ver).To(Equal("1.2"))
			name, ver, err = v1.ParsePackageRef("A")
			Expect(err).ToNot(HaveOccurred())
			Expect(name).To(Equal("A"))
			Expect(ver).To(BeEmpty())
			_, _, err = v1.ParsePackageRef("@1.0")
			Expect(err).To(HaveOccurred())
			_, _, err = v1.ParsePackageRef("A@one")
			Expect(err).To(HaveOccurred())
			_, _, err = v1.ParsePackageRef(" ")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("InstalledPackage", func() {
		It("builds missing dependency sentinels", func() {
			m := v1.NewMissingPackage(v1.MustConstraint("Y", "1.0", ""))
			Expect(m.IsMissing()).To(BeTrue())
			Expect(m.InstallPath).To(Equal(constants.MissingMarker))
			Expect(m.Descriptor.Name).To(Equal("Y>=1.0.0"))
			Expect(m.String()).To(Equal("missing dependency Y>=1.0.0"))
		})
		It("installs packages under their ID", func() {
			Expect(v1.InstallDir("/opt/packages", v1.MustPackage("A", "1.0"))).To(Equal("/opt/packages/A-1.0.0"))
		})
	})

	Describe("InstallSettings", func() {
		It("parses install modes", func() {
			m, err := v1.ParseInstallMode("highest-version-only")
			Expect(err).ToNot(HaveOccurred())
			Expect(m).To(Equal(v1.HighestVersionOnly))
			m, err = v1.ParseInstallMode("Side-By-Side")
			Expect(err).ToNot(HaveOccurred())
			Expect(m).To(Equal(v1.SideBySide))
			_, err = v1.ParseInstallMode("newest")
			Expect(err).To(HaveOccurred())
		})
		It("decodes install modes from strings", func() {
			hook := v1.InstallModeHookFunc()
			out, err := hook(reflect.TypeOf(""), reflect.TypeOf(v1.SideBySide), "highest-version-only")
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal(v1.HighestVersionOnly))
			out, err = hook(reflect.TypeOf(""), reflect.TypeOf(""), "highest-version-only")
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("highest-version-only"))
		})
		It("defaults to side by side without side effects", func() {
			s := v1.NewInstallSettings()
			Expect(s.Mode).To(Equal(v1.SideBySide))
			Expect(s.String()).To(Equal("mode=side-by-side clean=false update=false remove-orphans=false refresh=false"))
		})
	})

	Describe("InstructionSet", func() {
		It("keeps one instruction per package and action in order", func() {
			a := v1.MustPackage("A", "1.0")
			y := v1.MustPackage("Y", "1.0")
			set := v1.NewInstructionSet()
			Expect(set.Add(v1.Instruction{Action: v1.ActionRemove, Package: a})).To(BeTrue())
			Expect(set.Add(v1.Instruction{Action: v1.ActionAdd, Package: a})).To(BeTrue())
			Expect(set.Add(v1.Instruction{Action: v1.ActionAdd, Package: y})).To(BeTrue())
			Expect(set.Add(v1.Instruction{Action: v1.ActionAdd, Package: v1.MustPackage("A", "1.0")})).To(BeFalse())

			Expect(set.Len()).To(Equal(3))
			Expect(set.Count(v1.ActionAdd)).To(Equal(2))
			Expect(set.Has(a, v1.ActionRemove)).To(BeTrue())
			Expect(set.Has(y, v1.ActionRemove)).To(BeFalse())
			Expect(set.ForPackage(a)).To(HaveLen(2))
			Expect(set.Items()[0].String()).To(Equal("remove A-1.0.0"))
		})
		It("renders the reason of error instructions", func() {
			i := v1.Instruction{Action: v1.ActionError, Package: v1.MustPackage("A", "1.0"), Reason: "broken"}
			Expect(i.String()).To(Equal("error A-1.0.0: broken"))
		})
	})

	Describe("AuditLog", func() {
		It("records lines and mirrors them to the logger", func() {
			buf := &bytes.Buffer{}
			log := v1.NewAuditLog(v1.NewBufferLogger(buf))
			log.Infof("A-1.0.0", "extracted %s", "bin/a")
			log.Warnf("", "something odd")
			Expect(log.Len()).To(Equal(2))
			Expect(log.HasErrors()).To(BeFalse())
			Expect(log.Lines()).To(Equal([]string{
				"Info: [A-1.0.0] extracted bin/a",
				"Warning: something odd",
			}))
			Expect(buf.String()).To(ContainSubstring("extracted bin/a"))
		})
		It("reports error lines", func() {
			log := v1.NewAuditLog(nil)
			log.Errorf("B-1.0.0", "dependency Z>=1.0.0 can't be satisfied")
			Expect(log.HasErrors()).To(BeTrue())
			Expect(log.ErrorLines()).To(HaveLen(1))
			Expect(log.Entries()[0].Severity.String()).To(Equal(constants.ErrorMarker))
		})
		It("merges other logs", func() {
			a := v1.NewAuditLog(nil)
			b := v1.NewAuditLog(nil)
			a.Infof("", "one")
			b.Errorf("", "two")
			a.Merge(b)
			a.Merge(nil)
			Expect(a.String()).To(Equal("Info: one\nError: two"))
		})
	})

	Describe("Config", func() {
		var cfg *v1.Config
		BeforeEach(func() {
			cfg = &v1.Config{
				Fs:             vfs.OSFS,
				Logger:         v1.NewNullLogger(),
				InstallRoot:    "/opt/packages",
				ConfigFilename: constants.PackageConfigFile,
				OrphanPasses:   1,
			}
		})
		It("defaults the mirror backend", func() {
			Expect(cfg.Sanitize()).To(Succeed())
			Expect(cfg.Mirror).To(Equal(constants.MirrorBuiltin))
		})
		It("clamps negative remove delays", func() {
			cfg.RemoveDelay = -1
			Expect(cfg.Sanitize()).To(Succeed())
			Expect(cfg.RemoveDelay).To(BeZero())
		})
		It("fails on inconsistent values", func() {
			cfg.Mirror = "ftp"
			Expect(cfg.Sanitize()).NotTo(Succeed())
			cfg.Mirror = constants.MirrorRsync
			cfg.OrphanPasses = 0
			Expect(cfg.Sanitize()).NotTo(Succeed())
			cfg.OrphanPasses = 3
			cfg.InstallRoot = " "
			Expect(cfg.Sanitize()).NotTo(Succeed())
			cfg.InstallRoot = "/opt/packages"
			cfg.Logger = nil
			Expect(cfg.Sanitize()).NotTo(Succeed())
		})
	})

	Describe("Logger", func() {
		It("is a logrus logger", func() {
			l1 := v1.NewNullLogger()
			l2 := logrus.New()
			Expect(reflect.TypeOf(l1).Kind()).To(Equal(reflect.TypeOf(l2).Kind()))
			l1.SetLevel(v1.DebugLevel())
			Expect(v1.IsDebugLevel(l1)).To(BeTrue())
		})
	})
})
