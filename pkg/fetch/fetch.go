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

package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"

	"github.com/rancher/elemental-pkg/pkg/constants"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
	"github.com/rancher/elemental-pkg/pkg/utils"
)

// Fetcher downloads package sources into a local file. Plain http(s) URLs go
// through the HTTP client, any other source go-getter understands (file paths,
// git::, s3::, gcs::...) goes through go-getter.
type Fetcher struct {
	log    v1.Logger
	fs     v1.FS
	client v1.HTTPClient
}

func NewFetcher(log v1.Logger, fs v1.FS, client v1.HTTPClient) *Fetcher {
	return &Fetcher{log: log, fs: fs, client: client}
}

// IsHTTP reports whether src is a plain http or https URL
func IsHTTP(src string) bool {
	if strings.Contains(src, "::") {
		return false
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Fetch downloads src into dst. The destination is only replaced once the download
// completed.
func (f Fetcher) Fetch(ctx context.Context, src, dst string) error {
	if src == "" {
		return fmt.Errorf("empty source for %s", dst)
	}
	if err := utils.MkdirAll(f.fs, filepath.Dir(dst), constants.DirPerm); err != nil {
		return err
	}
	part := dst + ".part"
	rawPart, err := f.fs.RawPath(part)
	if err != nil {
		return err
	}
	_ = f.fs.Remove(part)

	if IsHTTP(src) {
		err = f.client.GetURL(ctx, f.log, src, rawPart)
	} else {
		err = f.getter(ctx, src, rawPart)
	}
	if err != nil {
		_ = f.fs.Remove(part)
		return fmt.Errorf("failed fetching %s: %w", src, err)
	}
	f.log.Debugf("Fetched %s into %s", src, dst)
	return f.fs.Rename(part, dst)
}

func (f Fetcher) getter(ctx context.Context, src, dst string) error {
	pwd, err := os.Getwd()
	if err != nil {
		return err
	}
	getters := map[string]getter.Getter{}
	for k, v := range getter.Getters {
		getters[k] = v
	}
	getters["file"] = &getter.FileGetter{Copy: true}

	client := &getter.Client{
		Ctx:     ctx,
		Src:     src,
		Dst:     dst,
		Pwd:     pwd,
		Mode:    getter.ClientModeFile,
		Getters: getters,
		// archives are stored as they are
		Decompressors: map[string]getter.Decompressor{},
	}
	f.log.Infof("Fetching %s...", src)
	return client.Get()
}
