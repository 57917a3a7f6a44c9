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


package http_test

import (
	"bytes"
	"context"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rancher/elemental-pkg/pkg/http"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

var _ = Describe("HTTPClient", Label("http"), func() {
	var client *http.Client
	var log v1.Logger
	var memLog *bytes.Buffer
	var destDir string
	var server *httptest.Server
	var userAgent string

	BeforeEach(func() {
		client = http.NewClient()
		memLog = &bytes.Buffer{}
		log = v1.NewBufferLogger(memLog)
		log.SetLevel(v1.DebugLevel())
		destDir = GinkgoT().TempDir()
		server = httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			userAgent = r.Header.Get("User-Agent")
			switch r.URL.Path {
			case "/pkgs/foo-1.0.0.zip":
				fmt.Fprint(w, "payload")
			case "/pkgs/slow.zip":
				select {
				case <-r.Context().Done():
				case <-time.After(5 * time.Second):
				}
				fmt.Fprint(w, "late")
			default:
				w.WriteHeader(nethttp.StatusNotFound)
			}
		}))
	})
	AfterEach(func() {
		server.Close()
	})
	It("downloads a file into the destination directory", func() {
		Expect(filepath.Join(destDir, "foo-1.0.0.zip")).NotTo(BeAnExistingFile())
		Expect(client.GetURL(context.Background(), log, server.URL+"/pkgs/foo-1.0.0.zip", destDir)).To(Succeed())
		Expect(filepath.Join(destDir, "foo-1.0.0.zip")).To(BeARegularFile())
		Expect(userAgent).To(HavePrefix("elemental-pkg/"))
		Expect(memLog.String()).To(ContainSubstring("Downloaded " + server.URL + "/pkgs/foo-1.0.0.zip"))
	})
	It("downloads a file into the given destination file", func() {
		dest := filepath.Join(destDir, "testfile")
		Expect(client.GetURL(context.Background(), log, server.URL+"/pkgs/foo-1.0.0.zip", dest)).To(Succeed())
		data, err := os.ReadFile(dest)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(string(data)).To(Equal("payload"))
	})
	It("downloads partial files again from the start", func() {
		dest := filepath.Join(destDir, "testfile")
		Expect(os.WriteFile(dest, []byte("pay"), 0644)).To(Succeed())
		Expect(client.GetURL(context.Background(), log, server.URL+"/pkgs/foo-1.0.0.zip", dest)).To(Succeed())
		data, err := os.ReadFile(dest)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(string(data)).To(Equal("payload"))
	})
	It("fails to download a non existing url", func() {
		Expect(client.GetURL(context.Background(), log, server.URL+"/pkgs/missing.zip", destDir)).NotTo(Succeed())
	})
	It("fails to download a broken url", func() {
		source := "scp://23412342341234.wqer.234|@#~ł€@¶|@~#"
		Expect(client.GetURL(context.Background(), log, source, destDir)).NotTo(Succeed())
	})
	It("does not download anything with a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		dest := filepath.Join(destDir, "testfile")
		Expect(client.GetURL(ctx, log, server.URL+"/pkgs/foo-1.0.0.zip", dest)).NotTo(Succeed())
		Expect(dest).NotTo(BeAnExistingFile())
	})
	It("aborts a transfer once the context is cancelled", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		start := time.Now()
		err := client.GetURL(ctx, log, server.URL+"/pkgs/slow.zip", destDir)
		Expect(err).To(MatchError(ContainSubstring("context deadline exceeded")))
		Expect(time.Since(start)).To(BeNumerically("<", 4*time.Second))
	})
	It("aborts a transfer exceeding the client timeout", func() {
		client = http.NewClient(http.WithTimeout(200*time.Millisecond), http.WithProgressInterval(50*time.Millisecond))
		start := time.Now()
		Expect(client.GetURL(context.Background(), log, server.URL+"/pkgs/slow.zip", destDir)).NotTo(Succeed())
		Expect(time.Since(start)).To(BeNumerically("<", 4*time.Second))
	})
})
